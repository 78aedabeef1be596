package inventory

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/pyventory/pyventory/pkg/github"
)

// fakeOrg serves a minimal GitHub API for an organization. Repositories are
// described as nested maps keyed by repo, branch, and file path.
type fakeOrg struct {
	org      string
	language map[string]string
	repos    map[string]map[string]map[string]string
}

func (f *fakeOrg) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		parts := strings.Split(path, "/")

		switch {
		case path == "orgs/"+f.org+"/repos":
			f.listRepos(w)
		case path == "user/repos":
			json.NewEncoder(w).Encode([]any{})
		case len(parts) == 4 && parts[0] == "repos" && parts[3] == "branches":
			f.listBranches(w, parts[2])
		case len(parts) == 5 && parts[0] == "repos" && parts[3] == "branches":
			f.branchRef(w, r, parts[2], parts[4])
		case len(parts) == 6 && parts[0] == "repos" && parts[3] == "git" && parts[4] == "trees":
			f.tree(w, r, parts[2], parts[5])
		case len(parts) >= 5 && parts[0] == "repos" && parts[3] == "contents":
			f.contents(w, r, parts[2], strings.Join(parts[4:], "/"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	})
}

func (f *fakeOrg) listRepos(w http.ResponseWriter) {
	names := make([]string, 0, len(f.repos))
	for name := range f.repos {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]map[string]any, 0, len(names))
	for _, name := range names {
		out = append(out, map[string]any{
			"name":           name,
			"full_name":      f.org + "/" + name,
			"language":       f.language[name],
			"default_branch": "main",
			"owner":          map[string]any{"login": f.org},
		})
	}
	json.NewEncoder(w).Encode(out)
}

func (f *fakeOrg) listBranches(w http.ResponseWriter, repo string) {
	var out []map[string]any
	for branch := range f.repos[repo] {
		out = append(out, map[string]any{
			"name":   branch,
			"commit": map[string]any{"sha": repo + "-" + branch},
		})
	}
	json.NewEncoder(w).Encode(out)
}

func (f *fakeOrg) branchRef(w http.ResponseWriter, r *http.Request, repo, branch string) {
	if _, ok := f.repos[repo][branch]; !ok {
		http.NotFound(w, r)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"name":   branch,
		"commit": map[string]any{"sha": repo + "-" + branch},
	})
}

func (f *fakeOrg) tree(w http.ResponseWriter, r *http.Request, repo, sha string) {
	for branch, files := range f.repos[repo] {
		if sha != repo+"-"+branch {
			continue
		}
		var entries []map[string]any
		for path := range files {
			entries = append(entries, map[string]any{"path": path, "type": "blob"})
		}
		json.NewEncoder(w).Encode(map[string]any{"sha": sha, "tree": entries, "truncated": false})
		return
	}
	http.NotFound(w, r)
}

func (f *fakeOrg) contents(w http.ResponseWriter, r *http.Request, repo, path string) {
	branch := r.URL.Query().Get("ref")
	content, ok := f.repos[repo][branch][path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"name":     path,
		"path":     path,
		"type":     "file",
		"content":  base64.StdEncoding.EncodeToString([]byte(content)),
		"encoding": "base64",
	})
}

func newTestAggregator(t *testing.T, f *fakeOrg, cfg Config) *Aggregator {
	t.Helper()
	server := httptest.NewServer(f.handler(t))
	t.Cleanup(server.Close)

	logger := log.New(io.Discard)
	client := github.NewClient("tok", github.Options{
		BaseURL:   server.URL,
		PageDelay: -1,
		Logger:    logger,
	})
	cfg.Org = f.org
	if cfg.FileDelay == 0 {
		cfg.FileDelay = -1
	}
	return NewAggregator(client, github.NewTreeResolver(client, logger), logger, cfg)
}

func TestRunRetainsPythonEvidence(t *testing.T) {
	f := &fakeOrg{
		org:      "acme",
		language: map[string]string{"api": "Python"},
		repos: map[string]map[string]map[string]string{
			// Python by manifest: retained.
			"api": {
				"main": {
					"requirements.txt": "flask==2.0.1\nrequests>=2.25.0\n",
					"app.py":           "import flask\nimport os\nfrom requests import get\n",
				},
				// No manifest, no imports: branch dropped.
				"empty": {
					"README.md": "nothing here",
				},
			},
			// Not Python-tagged but imports on a source file after a
			// setup.py manifest: retained.
			"tooling": {
				"main": {
					"setup.py": "from setuptools import setup\nsetup()\n",
					"cli.py":   "import click\nimport sys\n",
				},
			},
			// No Python evidence anywhere: repo dropped.
			"website": {
				"main": {
					"index.html": "<html></html>",
				},
			},
		},
	}

	snap, err := newTestAggregator(t, f, Config{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(snap.Repositories) != 2 {
		t.Fatalf("retained %d repos, want api and tooling", len(snap.Repositories))
	}
	api, tooling := snap.Repositories[0], snap.Repositories[1]

	if api.Name != "api" || len(api.Branches) != 1 {
		t.Fatalf("api = %+v, want only the main branch retained", api)
	}
	main := api.Branches[0]
	if !main.IsDefault || !main.HasRequirements {
		t.Errorf("main = %+v, want default branch with requirements", main)
	}
	if len(main.Packages) != 2 || main.Packages[0].Name != "flask" {
		t.Errorf("packages = %+v", main.Packages)
	}
	if main.RequirementsContent == "" {
		t.Error("raw requirements content not preserved")
	}

	var external []string
	for _, imp := range main.Imports {
		if !imp.Stdlib {
			external = append(external, imp.Module)
		}
	}
	if len(external) != 2 || external[0] != "flask" || external[1] != "requests" {
		t.Errorf("external imports = %v", external)
	}

	if tooling.Name != "tooling" || !tooling.Branches[0].HasSetupPy {
		t.Errorf("tooling = %+v, want setup.py detected", tooling)
	}

	s := snap.Summary
	if s.ReposScanned != 3 || s.ReposRetained != 2 || s.BranchesScanned != 4 {
		t.Errorf("summary = %+v", s)
	}
	if s.BranchesRetained != 2 || s.DefaultBranches != 2 {
		t.Errorf("branch counts = %+v", s)
	}
	if s.UniquePackages != 2 || s.UniqueImports != 3 {
		t.Errorf("unique counts = %+v, want flask+requests packages and flask+requests+click imports", s)
	}
	if snap.ID == "" || snap.Org != "acme" || snap.GeneratedAt.IsZero() {
		t.Errorf("snapshot metadata = %+v", snap)
	}
}

func TestRunCapsFilesPerBranch(t *testing.T) {
	files := map[string]string{"requirements.txt": "flask\n"}
	for _, name := range []string{"a.py", "b.py", "c.py", "d.py", "e.py"} {
		files[name] = "import flask\n"
	}
	f := &fakeOrg{
		org:   "acme",
		repos: map[string]map[string]map[string]string{"app": {"main": files}},
	}

	snap, err := newTestAggregator(t, f, Config{MaxFilesPerBranch: 2}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := snap.Repositories[0].Branches[0].FilesScanned; got != 2 {
		t.Errorf("FilesScanned = %d, want the cap honored", got)
	}
}

func TestRunPrefersRequirementsOverPyproject(t *testing.T) {
	f := &fakeOrg{
		org: "acme",
		repos: map[string]map[string]map[string]string{
			"app": {
				"main": {
					"requirements.txt": "flask==2.0.1\n",
					"pyproject.toml":   "[project]\nname = \"app\"\ndependencies = [\"django>=4.0\"]\n",
				},
			},
		},
	}

	snap, err := newTestAggregator(t, f, Config{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	branch := snap.Repositories[0].Branches[0]
	if !branch.HasRequirements || !branch.HasPyproject {
		t.Fatalf("branch = %+v, want both manifests flagged", branch)
	}
	if len(branch.Packages) != 1 || branch.Packages[0].Name != "flask" {
		t.Errorf("packages = %+v, want requirements.txt to win", branch.Packages)
	}
}

func TestRunFallsBackToPyprojectPackages(t *testing.T) {
	f := &fakeOrg{
		org: "acme",
		repos: map[string]map[string]map[string]string{
			"app": {
				"main": {
					"pyproject.toml": "[tool.poetry]\nname = \"app\"\n\n[tool.poetry.dependencies]\npython = \"^3.11\"\nhttpx = \"^0.27\"\n",
				},
			},
		},
	}

	snap, err := newTestAggregator(t, f, Config{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	branch := snap.Repositories[0].Branches[0]
	if len(branch.Packages) != 1 || branch.Packages[0].Name != "httpx" || branch.Packages[0].Version != "^0.27" {
		t.Errorf("packages = %+v, want poetry dependencies minus the interpreter", branch.Packages)
	}
}

func TestSummarizeCountsOncePerBranch(t *testing.T) {
	f := &fakeOrg{
		org: "acme",
		repos: map[string]map[string]map[string]string{
			"one": {"main": {
				"requirements.txt": "flask\n",
				"a.py":             "import flask\nimport flask.views\n",
			}},
			"two": {"main": {
				"requirements.txt": "flask\ndjango\n",
			}},
		},
	}

	snap, err := newTestAggregator(t, f, Config{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	top := snap.Summary.TopPackages
	if len(top) != 2 || top[0].Name != "flask" || top[0].Count != 2 || top[1].Name != "django" {
		t.Errorf("top packages = %+v", top)
	}
	imports := snap.Summary.TopImports
	if len(imports) != 1 || imports[0].Name != "flask" || imports[0].Count != 1 {
		t.Errorf("top imports = %+v, want flask deduplicated within the branch", imports)
	}
}
