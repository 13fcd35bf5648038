package identity

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"
)

// ErrIdentityMissing is returned by Require when name or version is unknown.
var ErrIdentityMissing = errors.New("identity missing")

// ProjectFile is the project metadata file looked up from the working directory.
const ProjectFile = ".mockd-contract.yaml"

// DefaultEnvPrefix prefixes the identity environment variables, e.g.
// MOCKD_CONTRACT_NAME and MOCKD_CONTRACT_VERSION.
const DefaultEnvPrefix = "MOCKD_CONTRACT"

// Sources of a resolved value.
const (
	SourceOption  = "option"
	SourceEnv     = "env"
	SourceProject = "project"
	SourceVersion = "version_file"
	SourceGoMod   = "go.mod"
)

// Identity describes one contract participant.
type Identity struct {
	Name    string
	Version string
	GitSHA  string
	Branch  string
	CI      bool

	NameSource    string
	VersionSource string
}

// Resolved reports whether both name and version are known.
func (i Identity) Resolved() bool {
	return i.Name != "" && i.Version != ""
}

// Require returns ErrIdentityMissing naming what is absent.
func (i Identity) Require() error {
	var missing []string
	if i.Name == "" {
		missing = append(missing, "name")
	}
	if i.Version == "" {
		missing = append(missing, "version")
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: no %s (set %s or add %s)", ErrIdentityMissing,
		strings.Join(missing, " or "), DefaultEnvPrefix+"_NAME/_VERSION", ProjectFile)
}

func (i Identity) String() string {
	if !i.Resolved() {
		return "<unresolved>"
	}
	return i.Name + "@" + i.Version
}

// Options controls resolution.
type Options struct {
	Name    string
	Version string

	// Dir is where the project lookup starts. Defaults to the working directory.
	Dir string

	// EnvPrefix defaults to DefaultEnvPrefix.
	EnvPrefix string

	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

type project struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// Resolve builds an Identity from opts, the environment and the project.
func Resolve(opts Options) Identity {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	dir := opts.Dir
	if dir == "" {
		dir, _ = os.Getwd()
	}

	id := Identity{CI: IsCI(getenv)}
	set := func(dst, src *string, v, source string) {
		if *dst == "" && v != "" {
			*dst, *src = strings.TrimSpace(v), source
		}
	}
	set(&id.Name, &id.NameSource, opts.Name, SourceOption)
	set(&id.Version, &id.VersionSource, opts.Version, SourceOption)
	set(&id.Name, &id.NameSource, getenv(prefix+"_NAME"), SourceEnv)
	set(&id.Version, &id.VersionSource, getenv(prefix+"_VERSION"), SourceEnv)

	if !id.Resolved() {
		if p, ok := readProject(dir); ok {
			set(&id.Name, &id.NameSource, p.Name, SourceProject)
			set(&id.Version, &id.VersionSource, p.Version, SourceProject)
		}
	}
	if id.Version == "" {
		if data, ok := findUp(dir, "VERSION"); ok {
			set(&id.Version, &id.VersionSource, string(data), SourceVersion)
		}
	}
	if id.Name == "" {
		if data, ok := findUp(dir, "go.mod"); ok {
			if mod := modfile.ModulePath(data); mod != "" {
				set(&id.Name, &id.NameSource, path.Base(mod), SourceGoMod)
			}
		}
	}

	id.GitSHA, id.Branch = gitHead(dir)
	if id.GitSHA == "" {
		id.GitSHA = firstEnv(getenv, "GITHUB_SHA", "CI_COMMIT_SHA", "BUILDKITE_COMMIT", "CIRCLE_SHA1", "GIT_COMMIT")
	}
	if id.Branch == "" {
		id.Branch = firstEnv(getenv, "GITHUB_HEAD_REF", "GITHUB_REF_NAME", "CI_COMMIT_REF_NAME", "BUILDKITE_BRANCH", "CIRCLE_BRANCH", "GIT_BRANCH")
	}
	return id
}

func readProject(dir string) (project, bool) {
	data, ok := findUp(dir, ProjectFile)
	if !ok {
		return project{}, false
	}
	var p project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return project{}, false
	}
	return p, true
}

// findUp reads the first file called name in dir or its parents, stopping at
// a repository root.
func findUp(dir, name string) ([]byte, bool) {
	for {
		if data, err := os.ReadFile(filepath.Join(dir, name)); err == nil {
			return data, true
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return nil, false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, false
		}
		dir = parent
	}
}

func gitHead(dir string) (sha, branch string) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", ""
	}
	ref, err := repo.Head()
	if err != nil {
		return "", ""
	}
	if ref.Name().IsBranch() {
		branch = ref.Name().Short()
	}
	return ref.Hash().String(), branch
}

func firstEnv(getenv func(string) string, keys ...string) string {
	for _, k := range keys {
		if v := getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// IsCI reports whether the process runs under a CI system.
func IsCI(getenv func(string) string) bool {
	if getenv == nil {
		getenv = os.Getenv
	}
	switch strings.ToLower(getenv("CI")) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return firstEnv(getenv, "GITHUB_ACTIONS", "GITLAB_CI", "BUILDKITE", "CIRCLECI", "JENKINS_URL", "TEAMCITY_VERSION", "TF_BUILD") != ""
}
