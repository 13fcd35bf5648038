package fixture

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/mockd-contract/pkg/contract"
)

// DefaultPattern matches fixture files anywhere below the root.
const DefaultPattern = "**/*.{yaml,yml,json}"

// LoadDir reads fixture files under root matching pattern (DefaultPattern if
// empty). A file holds a single fixture, a list of fixtures, or a mapping
// with a "fixtures" list. Locally authored fixtures default to approved,
// manual fixtures.
func LoadDir(root, pattern string) ([]contract.Fixture, error) {
	return LoadFS(os.DirFS(root), pattern)
}

// LoadFS is LoadDir over an fs.FS.
func LoadFS(fsys fs.FS, pattern string) ([]contract.Fixture, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid fixture pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)

	var out []contract.Fixture
	for _, name := range matches {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		fixtures, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		out = append(out, fixtures...)
	}
	return out, nil
}

// ErrNoOperation is returned for a fixture that does not name its operation.
var ErrNoOperation = errors.New("fixture has no operation")

// Parse decodes fixtures from YAML or JSON.
func Parse(data []byte) ([]contract.Fixture, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	root := node.Content[0]

	var fixtures []contract.Fixture
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&fixtures); err != nil {
			return nil, err
		}
	case yaml.MappingNode:
		var wrapper struct {
			Fixtures []contract.Fixture `yaml:"fixtures"`
		}
		if err := root.Decode(&wrapper); err != nil {
			return nil, err
		}
		if wrapper.Fixtures != nil {
			fixtures = wrapper.Fixtures
			break
		}
		var single contract.Fixture
		if err := root.Decode(&single); err != nil {
			return nil, err
		}
		fixtures = []contract.Fixture{single}
	default:
		return nil, fmt.Errorf("unexpected fixture document kind %d", root.Kind)
	}

	for i := range fixtures {
		f := &fixtures[i]
		if f.Operation == "" {
			return nil, fmt.Errorf("fixture %d: %w", i, ErrNoOperation)
		}
		if f.Status == "" {
			f.Status = contract.FixtureStatusApproved
		}
		if f.Source == "" {
			f.Source = contract.FixtureSourceManual
		}
		if f.CreatedFrom.Type == "" {
			f.CreatedFrom.Type = contract.ProvenanceManual
		}
		if f.Data.Response != nil && f.Data.Response.Status == 0 {
			f.Data.Response.Status = 200
		}
	}
	return fixtures, nil
}
