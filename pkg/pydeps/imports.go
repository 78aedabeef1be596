package pydeps

import (
	"regexp"
	"sort"
	"strings"
)

// Import is a single imported top-level module found in Python source.
type Import struct {
	Module string `json:"module"`
	Stdlib bool   `json:"stdlib"`
}

// importPatterns recognizes the import statement forms that occur in
// practice: plain imports (optionally comma-separated), from-imports
// (optionally dotted, parenthesized, or aliased), and aliased imports.
var importPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*import\s+(\w+(?:\s*,\s*\w+)*)`),
	regexp.MustCompile(`^\s*from\s+(\w+(?:\.\w+)*)\s+import\s+`),
	regexp.MustCompile(`^\s*from\s+(\w+(?:\.\w+)*)\s+import\s+\(`),
	regexp.MustCompile(`^\s*import\s+(\w+(?:\.\w+)*)\s+as\s+\w+`),
	regexp.MustCompile(`^\s*from\s+(\w+(?:\.\w+)*)\s+import\s+\w+\s+as\s+\w+`),
}

// ExtractImports scans Python source text and returns the set of imported
// top-level modules, each classified against the stdlib set. The result is
// deduplicated by module name and sorted for deterministic output.
func ExtractImports(content string, stdlib StdlibModules) []Import {
	seen := make(map[string]bool)

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		for _, pattern := range importPatterns {
			m := pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			// Comma-separated multi-imports name several modules at once.
			for _, module := range strings.Split(m[1], ",") {
				// Only the top-level package segment identifies the dependency.
				top, _, _ := strings.Cut(strings.TrimSpace(module), ".")
				if top != "" {
					seen[top] = true
				}
			}
		}
	}

	result := make([]Import, 0, len(seen))
	for module := range seen {
		result = append(result, Import{Module: module, Stdlib: stdlib.Contains(module)})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Module < result[j].Module })
	return result
}
