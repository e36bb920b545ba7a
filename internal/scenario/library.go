package scenario

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// DefaultName is the scenario played when none is configured.
const DefaultName = "payment-cpu-spike"

//go:embed fixtures/*.toml
var fixtures embed.FS

// Names lists the built-in scenarios in lexical order.
func Names() []string {
	entries, err := fs.ReadDir(fixtures, "fixtures")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".toml" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".toml"))
	}
	sort.Strings(names)
	return names
}

// Builtin parses the named built-in scenario. Each call returns a fresh value.
func Builtin(name string) (*Scenario, error) {
	data, err := fixtures.ReadFile(path.Join("fixtures", name+".toml"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("builtin scenario %s: %w", name, err)
	}
	if s.Name != name {
		return nil, fmt.Errorf("builtin scenario %s declares name %s", name, s.Name)
	}
	return s, nil
}

func Default() (*Scenario, error) {
	return Builtin(DefaultName)
}

// Resolve picks a scenario from an explicit fixture path or a built-in name,
// falling back to the default scenario when both are empty.
func Resolve(name, fixturePath string) (*Scenario, error) {
	if fixturePath != "" {
		return Load(fixturePath)
	}
	if name == "" {
		name = DefaultName
	}
	return Builtin(name)
}
