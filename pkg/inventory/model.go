// Package inventory walks an organization's repositories branch by branch,
// collects Python dependency manifests and import usage, and aggregates the
// findings into a snapshot document.
package inventory

import (
	"time"

	"github.com/pyventory/pyventory/pkg/pydeps"
)

// Snapshot is one complete scan of an organization. Snapshots are the unit
// of persistence: stores save and serve them whole.
type Snapshot struct {
	ID           string       `json:"id" bson:"id"`
	Org          string       `json:"org" bson:"org"`
	GeneratedAt  time.Time    `json:"generated_at" bson:"generated_at"`
	Repositories []Repository `json:"repositories" bson:"repositories"`
	Summary      Summary      `json:"summary" bson:"summary"`
}

// Repository is one repository's findings. Only repositories with at least
// one retained branch appear in a snapshot.
type Repository struct {
	Name          string   `json:"name" bson:"name"`
	FullName      string   `json:"full_name" bson:"full_name"`
	Description   string   `json:"description,omitempty" bson:"description,omitempty"`
	Private       bool     `json:"private" bson:"private"`
	HTMLURL       string   `json:"html_url,omitempty" bson:"html_url,omitempty"`
	Language      string   `json:"language,omitempty" bson:"language,omitempty"`
	DefaultBranch string   `json:"default_branch" bson:"default_branch"`
	Stars         int      `json:"stars" bson:"stars"`
	Forks         int      `json:"forks" bson:"forks"`
	CreatedAt     string   `json:"created_at,omitempty" bson:"created_at,omitempty"`
	UpdatedAt     string   `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
	Branches      []Branch `json:"branches" bson:"branches"`
}

// Branch is one branch's findings. A branch is retained only when it shows
// Python evidence: a manifest file or at least one extracted import.
type Branch struct {
	Name      string `json:"name" bson:"name"`
	IsDefault bool   `json:"is_default" bson:"is_default"`

	HasRequirements bool `json:"has_requirements" bson:"has_requirements"`
	HasPyproject    bool `json:"has_pyproject" bson:"has_pyproject"`
	HasSetupPy      bool `json:"has_setup_py" bson:"has_setup_py"`

	// Raw manifest text is preserved for auditability.
	RequirementsContent string `json:"requirements_content,omitempty" bson:"requirements_content,omitempty"`
	PyprojectContent    string `json:"pyproject_content,omitempty" bson:"pyproject_content,omitempty"`

	Packages     []pydeps.Requirement `json:"packages" bson:"packages"`
	Imports      []pydeps.Import      `json:"imports" bson:"imports"`
	FilesScanned int                  `json:"files_scanned" bson:"files_scanned"`
}

// hasManifest reports whether any manifest file was present on the branch.
func (b *Branch) hasManifest() bool {
	return b.HasRequirements || b.HasPyproject || b.HasSetupPy
}

// Summary holds organization-wide aggregates computed from the retained
// repositories.
type Summary struct {
	ReposScanned     int         `json:"repos_scanned" bson:"repos_scanned"`
	ReposRetained    int         `json:"repos_retained" bson:"repos_retained"`
	BranchesScanned  int         `json:"branches_scanned" bson:"branches_scanned"`
	BranchesRetained int         `json:"branches_retained" bson:"branches_retained"`
	DefaultBranches  int         `json:"default_branches" bson:"default_branches"`
	UniquePackages   int         `json:"unique_packages" bson:"unique_packages"`
	UniqueImports    int         `json:"unique_imports" bson:"unique_imports"`
	TopPackages      []NameCount `json:"top_packages" bson:"top_packages"`
	TopImports       []NameCount `json:"top_imports" bson:"top_imports"`
}

// NameCount is a name with its occurrence count across branches.
type NameCount struct {
	Name  string `json:"name" bson:"name"`
	Count int    `json:"count" bson:"count"`
}
