package inventory

import (
	"sort"

	"github.com/pyventory/pyventory/pkg/pydeps"
)

// topN bounds the ranked package and import lists in a summary.
const topN = 20

// summarize computes organization-wide aggregates. A package or import is
// counted once per branch it appears on, so a monorepo with fifty files
// importing requests weighs the same as a one-file service.
func summarize(repos []Repository, scanned, branchesScanned int) Summary {
	packages := make(map[string]int)
	imports := make(map[string]int)
	retained, defaults := 0, 0
	for _, repo := range repos {
		for _, branch := range repo.Branches {
			retained++
			if branch.IsDefault {
				defaults++
			}
			for _, pkg := range branch.Packages {
				packages[pkg.Name]++
			}
			for _, imp := range branch.Imports {
				if !imp.Stdlib {
					imports[imp.Module]++
				}
			}
		}
	}

	return Summary{
		ReposScanned:     scanned,
		ReposRetained:    len(repos),
		BranchesScanned:  branchesScanned,
		BranchesRetained: retained,
		DefaultBranches:  defaults,
		UniquePackages:   len(packages),
		UniqueImports:    len(imports),
		TopPackages:      topCounts(packages),
		TopImports:       topCounts(imports),
	}
}

// topCounts ranks counts descending, breaking ties by name so output is
// stable across runs.
func topCounts(counts map[string]int) []NameCount {
	ranked := make([]NameCount, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, NameCount{Name: name, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// sortedImports flattens a merged import set into a name-ordered slice.
func sortedImports(merged map[string]pydeps.Import) []pydeps.Import {
	if len(merged) == 0 {
		return nil
	}
	result := make([]pydeps.Import, 0, len(merged))
	for _, imp := range merged {
		result = append(result, imp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Module < result[j].Module })
	return result
}
