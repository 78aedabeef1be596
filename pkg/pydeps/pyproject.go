package pydeps

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
)

// Pyproject holds the dependency-relevant parts of a pyproject.toml file.
type Pyproject struct {
	Name         string
	Requirements []Requirement
}

// pyprojectFile mirrors the PEP 621 [project] table and the poetry layout;
// both appear in the wild, sometimes in the same file.
type pyprojectFile struct {
	Project struct {
		Name         string   `toml:"name"`
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name         string         `toml:"name"`
			Dependencies map[string]any `toml:"dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// ParsePyproject extracts the project name and declared dependencies from
// pyproject.toml content. PEP 621 dependency strings are parsed like
// requirements lines; poetry constraints are carried through verbatim.
// A TOML parse failure is returned to the caller, which treats it as an
// absent manifest for that branch.
func ParsePyproject(content string) (*Pyproject, error) {
	var file pyprojectFile
	if err := toml.Unmarshal([]byte(content), &file); err != nil {
		return nil, fmt.Errorf("parse pyproject.toml: %w", err)
	}

	result := &Pyproject{Name: file.Project.Name}
	if result.Name == "" {
		result.Name = file.Tool.Poetry.Name
	}

	for _, dep := range file.Project.Dependencies {
		if req, ok := ParseRequirementLine(dep); ok {
			result.Requirements = append(result.Requirements, req)
		}
	}

	// Poetry dependencies are a map; sort keys so output order is stable.
	names := make([]string, 0, len(file.Tool.Poetry.Dependencies))
	for name := range file.Tool.Poetry.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if name == "python" {
			continue // interpreter constraint, not a package
		}
		result.Requirements = append(result.Requirements, Requirement{
			Name:    name,
			Version: poetryConstraint(file.Tool.Poetry.Dependencies[name]),
			Raw:     name,
		})
	}

	return result, nil
}

// poetryConstraint renders a poetry dependency value as a constraint string.
// Values are either a plain constraint ("^2.0") or a table with a version
// key plus extras/markers.
func poetryConstraint(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]any:
		if version, ok := v["version"].(string); ok {
			return version
		}
		if _, ok := v["git"]; ok {
			return VersionGit
		}
	}
	return VersionLatest
}
