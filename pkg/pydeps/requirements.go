package pydeps

import "strings"

// Version sentinels for requirements that carry no explicit constraint.
const (
	// VersionLatest marks a bare package name without a version constraint.
	VersionLatest = "latest"
	// VersionGit marks a VCS requirement whose name came from an #egg fragment.
	VersionGit = "git"
	// VersionURL marks a plain URL requirement with no extractable name.
	VersionURL = "url"
)

// Requirement is a single declared dependency from a requirements file.
type Requirement struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Raw     string `json:"raw"`
}

// versionOperators in matching precedence order. Two-character operators must
// be checked before their one-character prefixes would falsely match as a
// substring (">=" before ">", and so on).
var versionOperators = []string{"==", ">=", "<=", ">", "<", "~=", "!="}

// ParseRequirements parses requirements.txt content into an ordered list of
// requirements. Blank lines and comment lines are skipped; malformed lines
// degrade to a bare-name requirement rather than failing the parse.
func ParseRequirements(content string) []Requirement {
	var result []Requirement
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if req, ok := ParseRequirementLine(line); ok {
			result = append(result, req)
		}
	}
	return result
}

// ParseRequirementLine parses one requirements.txt line into a Requirement.
// It reports false for lines that are empty after comment stripping.
func ParseRequirementLine(line string) (Requirement, bool) {
	raw := line

	// Strip inline comments
	if idx := strings.Index(line, "#"); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return Requirement{}, false
	}

	// VCS / URL requirements: the package name lives in the #egg fragment of
	// the original (un-stripped) line, if present.
	if strings.HasPrefix(line, "git+") || strings.HasPrefix(line, "http") {
		if _, egg, ok := strings.Cut(raw, "#egg="); ok {
			if fields := strings.Fields(egg); len(fields) > 0 {
				return Requirement{Name: fields[0], Version: VersionGit, Raw: raw}, true
			}
		}
		return Requirement{Name: line, Version: VersionURL, Raw: raw}, true
	}

	for _, op := range versionOperators {
		if idx := strings.Index(line, op); idx >= 0 {
			name := strings.TrimSpace(line[:idx])
			constraint := op + strings.TrimSpace(line[idx+len(op):])
			return Requirement{Name: name, Version: constraint, Raw: raw}, true
		}
	}

	return Requirement{Name: line, Version: VersionLatest, Raw: raw}, true
}
