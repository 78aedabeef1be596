package inventory

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/pyventory/pyventory/pkg/github"
	"github.com/pyventory/pyventory/pkg/pydeps"
)

// Manifest files probed on every branch.
const (
	fileRequirements = "requirements.txt"
	filePyproject    = "pyproject.toml"
	fileSetupPy      = "setup.py"
)

// Config tunes a scan. Zero values select production defaults.
type Config struct {
	// Org is the organization to scan.
	Org string
	// Limit caps the number of repositories considered. 0 means all.
	Limit int
	// MaxFilesPerBranch bounds how many source files are fetched per branch.
	MaxFilesPerBranch int
	// FileDelay is the cooperative pause between source-file fetches.
	// Negative disables it.
	FileDelay time.Duration
	// Stdlib classifies import names. Nil selects the default set.
	Stdlib pydeps.StdlibModules
}

// Aggregator drives a full organization scan: repository discovery, branch
// enumeration, manifest probing, source scanning, and snapshot assembly.
// Branches are scanned strictly one at a time; the API quota is the shared
// bottleneck and the rate limiter reasons about one request stream.
type Aggregator struct {
	client *github.Client
	trees  *github.TreeResolver
	logger *log.Logger
	cfg    Config
}

// NewAggregator creates an aggregator. The tree resolver must wrap the same
// client so both share one quota stream.
func NewAggregator(client *github.Client, trees *github.TreeResolver, logger *log.Logger, cfg Config) *Aggregator {
	if cfg.MaxFilesPerBranch <= 0 {
		cfg.MaxFilesPerBranch = 50
	}
	if cfg.FileDelay == 0 {
		cfg.FileDelay = 100 * time.Millisecond
	} else if cfg.FileDelay < 0 {
		cfg.FileDelay = 0
	}
	if cfg.Stdlib == nil {
		cfg.Stdlib = pydeps.DefaultStdlib()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Aggregator{client: client, trees: trees, logger: logger, cfg: cfg}
}

// Run performs the scan and returns the assembled snapshot. Individual
// repository and branch failures degrade to omission; the error is reserved
// for discovery failures and context cancellation.
func (a *Aggregator) Run(ctx context.Context) (*Snapshot, error) {
	repos, err := a.client.ListOrgRepos(ctx, a.cfg.Org, a.cfg.Limit)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		ID:          uuid.NewString(),
		Org:         a.cfg.Org,
		GeneratedAt: time.Now().UTC(),
	}

	branchesScanned := 0
	for i, repo := range repos {
		a.logger.Info("checking repository",
			"repo", repo.FullName, "progress", i+1, "total", len(repos))

		branches, err := a.client.ListBranches(ctx, repo.FullName)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.logger.Warn("branch listing failed, skipping repository",
				"repo", repo.FullName, "err", err)
			continue
		}

		record := repositoryRecord(repo)
		for _, branch := range branches {
			branchesScanned++
			branchRecord, err := a.scanBranch(ctx, repo, branch.Name)
			if err != nil {
				return nil, err
			}
			if branchRecord != nil {
				record.Branches = append(record.Branches, *branchRecord)
			}
		}

		if len(record.Branches) > 0 {
			snap.Repositories = append(snap.Repositories, record)
		}
	}

	snap.Summary = summarize(snap.Repositories, len(repos), branchesScanned)
	a.logger.Info("scan complete",
		"repos_scanned", len(repos),
		"repos_retained", len(snap.Repositories),
		"branches_scanned", branchesScanned)
	return snap, nil
}

// scanBranch probes one branch for manifests and scans its source files.
// It returns nil when the branch shows no Python evidence. The error is
// non-nil only on context cancellation.
func (a *Aggregator) scanBranch(ctx context.Context, repo github.Repo, branch string) (*Branch, error) {
	record := &Branch{
		Name:      branch,
		IsDefault: branch == repo.DefaultBranch,
	}

	if content, found, err := a.fetchManifest(ctx, repo, branch, fileRequirements); err != nil {
		return nil, err
	} else if found {
		record.HasRequirements = true
		record.RequirementsContent = content
		record.Packages = pydeps.ParseRequirements(content)
	}

	if content, found, err := a.fetchManifest(ctx, repo, branch, filePyproject); err != nil {
		return nil, err
	} else if found {
		record.HasPyproject = true
		record.PyprojectContent = content
		if project, err := pydeps.ParsePyproject(content); err != nil {
			a.logger.Debug("unparsable pyproject.toml",
				"repo", repo.FullName, "branch", branch, "err", err)
		} else if len(record.Packages) == 0 {
			// requirements.txt is authoritative when both manifests exist.
			record.Packages = project.Requirements
		}
	}

	if _, found, err := a.fetchManifest(ctx, repo, branch, fileSetupPy); err != nil {
		return nil, err
	} else if found {
		record.HasSetupPy = true
	}

	if repo.Language == "Python" || record.hasManifest() {
		if err := a.scanSources(ctx, repo, branch, record); err != nil {
			return nil, err
		}
	}

	if !record.hasManifest() && len(record.Imports) == 0 {
		return nil, nil
	}
	return record, nil
}

// scanSources resolves the branch tree and extracts imports from up to
// MaxFilesPerBranch source files.
func (a *Aggregator) scanSources(ctx context.Context, repo github.Repo, branch string, record *Branch) error {
	files, err := a.trees.Resolve(ctx, repo.FullName, branch)
	if err != nil {
		return err
	}
	if len(files) > a.cfg.MaxFilesPerBranch {
		a.logger.Debug("capping source scan",
			"repo", repo.FullName, "branch", branch,
			"files", len(files), "cap", a.cfg.MaxFilesPerBranch)
		files = files[:a.cfg.MaxFilesPerBranch]
	}

	merged := make(map[string]pydeps.Import)
	for _, file := range files {
		content, found, err := a.client.FetchFile(ctx, repo.FullName, file.Path, branch)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.logger.Warn("file fetch failed, skipping",
				"repo", repo.FullName, "path", file.Path, "err", err)
			continue
		}
		record.FilesScanned++
		if found {
			for _, imp := range pydeps.ExtractImports(content, a.cfg.Stdlib) {
				merged[imp.Module] = imp
			}
		}
		if err := a.pause(ctx); err != nil {
			return err
		}
	}

	record.Imports = sortedImports(merged)
	return nil
}

func (a *Aggregator) fetchManifest(ctx context.Context, repo github.Repo, branch, path string) (string, bool, error) {
	content, found, err := a.client.FetchFile(ctx, repo.FullName, path, branch)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		a.logger.Warn("manifest fetch failed, treating as absent",
			"repo", repo.FullName, "branch", branch, "path", path, "err", err)
		return "", false, nil
	}
	return content, found, nil
}

func (a *Aggregator) pause(ctx context.Context) error {
	if a.cfg.FileDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(a.cfg.FileDelay):
		return nil
	}
}

func repositoryRecord(repo github.Repo) Repository {
	return Repository{
		Name:          repo.Name,
		FullName:      repo.FullName,
		Description:   repo.Description,
		Private:       repo.Private,
		HTMLURL:       repo.HTMLURL,
		Language:      repo.Language,
		DefaultBranch: repo.DefaultBranch,
		Stars:         repo.Stars,
		Forks:         repo.Forks,
		CreatedAt:     repo.CreatedAt,
		UpdatedAt:     repo.UpdatedAt,
	}
}
