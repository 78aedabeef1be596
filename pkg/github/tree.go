package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pyventory/pyventory/pkg/httputil"
)

// Defaults for the directory-walk fallback.
var (
	// defaultWalkDirs are root directories worth descending one level into.
	defaultWalkDirs = []string{"src", "app", "lib", "core", "models", "utils"}
	// defaultProbeDirs are probed even when the root listing did not show
	// them, for repositories whose root listing is unreliable.
	defaultProbeDirs = []string{"src", "app", "lib"}
)

// defaultMinWalkFiles is the walk result size below which the probe
// directories are force-checked.
const defaultMinWalkFiles = 5

// TreeResolver resolves a branch to its Python source files using a two-tier
// strategy: the recursive commit-tree endpoint first (one request, but it
// truncates on very large repositories and fails transiently under load),
// then a bounded directory walk that trades completeness for robustness.
//
// Resolution degrades, never fails: a branch whose tree cannot be read
// resolves to an empty list.
type TreeResolver struct {
	client *Client
	logger *log.Logger

	match        func(path string) bool
	walkDirs     []string
	probeDirs    []string
	minWalkFiles int
	retryDelay   time.Duration
}

// NewTreeResolver creates a resolver that matches .py files.
func NewTreeResolver(c *Client, logger *log.Logger) *TreeResolver {
	return &TreeResolver{
		client:       c,
		logger:       logger,
		match:        func(path string) bool { return strings.HasSuffix(path, ".py") },
		walkDirs:     defaultWalkDirs,
		probeDirs:    defaultProbeDirs,
		minWalkFiles: defaultMinWalkFiles,
		retryDelay:   time.Second,
	}
}

// Resolve returns the matching files reachable on the branch. The error is
// non-nil only when the context is cancelled; every other failure degrades
// to the fallback walk and finally to an empty list. A truncated tree also
// falls through to the walk: a bounded-but-honest listing beats a large
// partial one that silently hides whole subtrees.
func (r *TreeResolver) Resolve(ctx context.Context, fullName, branch string) ([]TreeEntry, error) {
	sha, err := r.resolveRef(ctx, fullName, branch)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Debug("branch ref unresolvable, walking instead",
			"repo", fullName, "branch", branch, "err", err)
		return r.fallbackWalk(ctx, fullName, branch)
	}

	entries, err := r.fetchTree(ctx, fullName, sha)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Debug("tree fetch failed, walking instead",
			"repo", fullName, "branch", branch, "err", err)
		return r.fallbackWalk(ctx, fullName, branch)
	}
	return entries, nil
}

// resolveRef resolves the branch name to its head commit SHA, retrying
// transient transport failures. A non-success status is not retried; the
// branch either vanished mid-scan or the listing lied, and the walk handles
// both.
func (r *TreeResolver) resolveRef(ctx context.Context, fullName, branch string) (string, error) {
	var sha string
	reqURL := fmt.Sprintf("%s/repos/%s/branches/%s",
		r.client.baseURL, fullName, url.PathEscape(branch))

	err := httputil.Retry(ctx, 3, r.retryDelay, func() error {
		res, err := r.client.Get(ctx, reqURL)
		if err != nil {
			return &httputil.RetryableError{Err: err}
		}
		if res.StatusCode != http.StatusOK {
			return fmt.Errorf("branch lookup returned HTTP %d", res.StatusCode)
		}
		var br branchResponse
		if err := json.Unmarshal(res.Body, &br); err != nil {
			return fmt.Errorf("branch lookup payload: %w", err)
		}
		if br.Commit.SHA == "" {
			return fmt.Errorf("branch lookup returned no commit")
		}
		sha = br.Commit.SHA
		return nil
	})
	if err != nil {
		return "", err
	}
	return sha, nil
}

// fetchTree fetches the recursive tree for sha and filters matching blobs.
func (r *TreeResolver) fetchTree(ctx context.Context, fullName, sha string) ([]TreeEntry, error) {
	reqURL := fmt.Sprintf("%s/repos/%s/git/trees/%s?recursive=1", r.client.baseURL, fullName, sha)
	res, err := r.client.Get(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tree fetch returned HTTP %d", res.StatusCode)
	}

	var tree treeResponse
	if err := json.Unmarshal(res.Body, &tree); err != nil {
		return nil, fmt.Errorf("tree payload: %w", err)
	}
	if tree.Truncated {
		return nil, fmt.Errorf("tree truncated")
	}

	var entries []TreeEntry
	for _, item := range tree.Tree {
		if item.Type == "blob" && r.match(item.Path) {
			entries = append(entries, TreeEntry{Path: item.Path, Type: item.Type, URL: item.URL})
		}
	}
	return entries, nil
}

// fallbackWalk lists the repository root plus one level of well-known source
// directories. When that yields suspiciously few files, the probe
// directories are checked even if the root listing did not show them.
func (r *TreeResolver) fallbackWalk(ctx context.Context, fullName, branch string) ([]TreeEntry, error) {
	found := make(map[string]TreeEntry)

	root, err := r.listDir(ctx, fullName, branch, "")
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Debug("root listing failed", "repo", fullName, "branch", branch, "err", err)
		return nil, nil
	}

	var dirs []string
	for _, item := range root {
		switch item.Type {
		case "file":
			if r.match(item.Path) {
				found[item.Path] = TreeEntry{Path: item.Path, Type: "blob", URL: item.URL}
			}
		case "dir":
			for _, want := range r.walkDirs {
				if item.Name == want {
					dirs = append(dirs, item.Path)
					break
				}
			}
		}
	}

	for _, dir := range dirs {
		if err := r.walkInto(ctx, fullName, branch, dir, found); err != nil {
			return nil, err
		}
	}

	if len(found) < r.minWalkFiles {
		for _, dir := range r.probeDirs {
			if err := r.walkInto(ctx, fullName, branch, dir, found); err != nil {
				return nil, err
			}
		}
	}

	entries := make([]TreeEntry, 0, len(found))
	for _, e := range found {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// walkInto lists one directory and records its matching files. Listing
// failures are logged and skipped; a missing probe directory is the common
// case, not a problem.
func (r *TreeResolver) walkInto(ctx context.Context, fullName, branch, dir string, found map[string]TreeEntry) error {
	items, err := r.listDir(ctx, fullName, branch, dir)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Debug("directory listing failed", "repo", fullName, "dir", dir, "err", err)
		return nil
	}
	for _, item := range items {
		if item.Type == "file" && r.match(item.Path) {
			found[item.Path] = TreeEntry{Path: item.Path, Type: "blob", URL: item.URL}
		}
	}
	return nil
}

// listDir fetches the contents listing for one directory of the branch.
func (r *TreeResolver) listDir(ctx context.Context, fullName, branch, dir string) ([]contentItem, error) {
	reqURL := fmt.Sprintf("%s/repos/%s/contents/%s?ref=%s",
		r.client.baseURL, fullName, escapePath(dir), url.QueryEscape(branch))
	res, err := r.client.Get(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("contents listing returned HTTP %d", res.StatusCode)
	}
	var items []contentItem
	if err := json.Unmarshal(res.Body, &items); err != nil {
		return nil, fmt.Errorf("contents payload: %w", err)
	}
	return items, nil
}
