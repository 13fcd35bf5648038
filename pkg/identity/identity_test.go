package identity_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockd-contract/pkg/identity"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func initRepo(t *testing.T, dir string) string {
	t.Helper()
	repo, err := gogit.PlainInitWithOptions(dir, &gogit.PlainInitOptions{
		InitOptions: gogit.InitOptions{DefaultBranch: "refs/heads/main"},
	})
	require.NoError(t, err)
	w, err := repo.Worktree()
	require.NoError(t, err)
	writeFile(t, dir, "README", "hi")
	_, err = w.Add("README")
	require.NoError(t, err)
	hash, err := w.Commit("initial commit", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return hash.String()
}

func TestResolve_OptionsWin(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, identity.ProjectFile, "name: from-file\nversion: 9.9.9\n")

	id := identity.Resolve(identity.Options{
		Name:    "web",
		Version: "1.0.0",
		Dir:     dir,
		Getenv:  env(map[string]string{"MOCKD_CONTRACT_NAME": "from-env"}),
	})
	assert.Equal(t, "web", id.Name)
	assert.Equal(t, "1.0.0", id.Version)
	assert.Equal(t, identity.SourceOption, id.NameSource)
	assert.True(t, id.Resolved())
	assert.Equal(t, "web@1.0.0", id.String())
}

func TestResolve_EnvThenProject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, identity.ProjectFile, "name: from-file\nversion: 2.3.4\n")

	id := identity.Resolve(identity.Options{
		Dir:    dir,
		Getenv: env(map[string]string{"MOCKD_CONTRACT_NAME": "from-env"}),
	})
	assert.Equal(t, "from-env", id.Name)
	assert.Equal(t, identity.SourceEnv, id.NameSource)
	assert.Equal(t, "2.3.4", id.Version)
	assert.Equal(t, identity.SourceProject, id.VersionSource)
}

func TestResolve_VersionFileAndGoMod(t *testing.T) {
	root := t.TempDir()
	initRepo(t, root)
	writeFile(t, root, "go.mod", "module github.com/acme/orders-service\n\ngo 1.22\n")
	writeFile(t, root, "VERSION", "4.5.6\n")
	sub := filepath.Join(root, "internal", "api")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	id := identity.Resolve(identity.Options{Dir: sub, Getenv: env(nil)})
	assert.Equal(t, "orders-service", id.Name)
	assert.Equal(t, identity.SourceGoMod, id.NameSource)
	assert.Equal(t, "4.5.6", id.Version)
	assert.Equal(t, identity.SourceVersion, id.VersionSource)
}

func TestResolve_GitHead(t *testing.T) {
	dir := t.TempDir()
	sha := initRepo(t, dir)

	id := identity.Resolve(identity.Options{Name: "web", Version: "1.0.0", Dir: dir, Getenv: env(nil)})
	assert.Equal(t, sha, id.GitSHA)
	assert.Equal(t, "main", id.Branch)
}

func TestResolve_GitFromCIEnv(t *testing.T) {
	id := identity.Resolve(identity.Options{
		Dir:    t.TempDir(),
		Getenv: env(map[string]string{"GITHUB_SHA": "abc123", "GITHUB_REF_NAME": "feature/x"}),
	})
	assert.Equal(t, "abc123", id.GitSHA)
	assert.Equal(t, "feature/x", id.Branch)
}

func TestResolve_Missing(t *testing.T) {
	dir := t.TempDir()
	initRepo(t, dir)

	id := identity.Resolve(identity.Options{Name: "web", Dir: dir, Getenv: env(nil)})
	assert.False(t, id.Resolved())
	assert.Equal(t, "<unresolved>", id.String())

	err := id.Require()
	require.Error(t, err)
	assert.True(t, errors.Is(err, identity.ErrIdentityMissing))
	assert.Contains(t, err.Error(), "no version")
}

func TestIsCI(t *testing.T) {
	assert.True(t, identity.IsCI(env(map[string]string{"CI": "true"})))
	assert.True(t, identity.IsCI(env(map[string]string{"GITLAB_CI": "yes"})))
	assert.False(t, identity.IsCI(env(map[string]string{"CI": "false", "GITHUB_ACTIONS": "true"})))
	assert.False(t, identity.IsCI(env(nil)))
}
