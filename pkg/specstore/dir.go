package specstore

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/getmockd/mockd-contract/pkg/broker"
	"github.com/getmockd/mockd-contract/pkg/contract"
	"github.com/getmockd/mockd-contract/pkg/spec"
	"github.com/getmockd/mockd-contract/pkg/version"
)

const extensions = "{yaml,yml,json,graphql,gql,proto}"

// Dir is a read-only spec store rooted at a directory.
type Dir struct {
	fsys fs.FS
	root string
}

// NewDir opens the store at root.
func NewDir(root string) *Dir {
	return &Dir{fsys: os.DirFS(root), root: root}
}

// NewFS opens a store over fsys.
func NewFS(fsys fs.FS) *Dir {
	return &Dir{fsys: fsys, root: "."}
}

// Services lists the service directories.
func (d *Dir) Services() ([]string, error) {
	entries, err := fs.ReadDir(d.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read spec store %s: %w", d.root, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// Versions lists the versions stored for service, newest first.
func (d *Dir) Versions(service string) ([]string, error) {
	files, err := d.files(service)
	if err != nil {
		return nil, err
	}
	versions := make([]string, 0, len(files))
	for v := range files {
		versions = append(versions, v)
	}
	return version.Sort(versions), nil
}

func (d *Dir) files(service string) (map[string]string, error) {
	if service == "" || strings.ContainsAny(service, `/\`) {
		return nil, fmt.Errorf("invalid service name %q", service)
	}
	matches, err := doublestar.Glob(d.fsys, escapeMeta(service)+"/*."+extensions, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(matches))
	for _, m := range matches {
		base := path.Base(m)
		v := strings.TrimSuffix(base, path.Ext(base))
		if _, dup := out[v]; !dup {
			out[v] = m
		}
	}
	return out, nil
}

// FetchSpec returns the spec stored for exactly q.Version. An empty version
// or broker.LatestVersion selects the newest semver version. Misses are
// reported as *broker.SpecNotFoundError.
func (d *Dir) FetchSpec(_ context.Context, q broker.SpecQuery) (*contract.Spec, error) {
	files, err := d.files(q.Service)
	if err != nil {
		return nil, err
	}
	versions := make([]string, 0, len(files))
	for v := range files {
		versions = append(versions, v)
	}
	versions = version.Sort(versions)

	want := q.Version
	if want == "" || want == broker.LatestVersion {
		if latest := version.GetLatestVersion(version.Candidates(versions...)); latest != nil {
			want = latest.Version
		}
	}
	name, ok := files[want]
	if !ok {
		nf := &broker.SpecNotFoundError{
			Service:           q.Service,
			Version:           q.Version,
			Environment:       q.Environment,
			AvailableVersions: versions,
		}
		if q.Version == "" {
			nf.Version = broker.LatestVersion
		}
		if len(versions) == 0 {
			nf.Suggestion = fmt.Sprintf("Add %s/<version>.yaml under %s.", q.Service, d.root)
		} else if best := version.FindBestSemverMatch(q.Version, version.Candidates(versions...)); best != nil {
			nf.Suggestion = fmt.Sprintf("Closest available version is %s.", best.Version)
		}
		return nil, nf
	}

	data, err := fs.ReadFile(d.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read spec %s: %w", name, err)
	}
	content := string(data)
	return &contract.Spec{
		ID:          name,
		Service:     q.Service,
		Version:     want,
		Environment: q.Environment,
		Branch:      q.Branch,
		Type:        typeFor(path.Ext(name), content),
		Content:     content,
	}, nil
}

func typeFor(ext, content string) contract.SpecType {
	switch ext {
	case ".graphql", ".gql":
		return contract.SpecTypeGraphQL
	case ".proto":
		return contract.SpecTypeGRPC
	}
	return spec.DetectType(content)
}

func escapeMeta(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`*?[]{}\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
