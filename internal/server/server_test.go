package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pyventory/pyventory/pkg/inventory"
	"github.com/pyventory/pyventory/pkg/store"
)

func newTestServer(t *testing.T, snap *inventory.Snapshot) *httptest.Server {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if snap != nil {
		if err := st.Save(context.Background(), snap); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	ts := httptest.NewServer(New(st, log.New(io.Discard)).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, nil)
	res, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("status = %d", res.StatusCode)
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	ts := newTestServer(t, &inventory.Snapshot{
		ID:          "snap-1",
		Org:         "acme",
		GeneratedAt: time.Now().UTC(),
		Repositories: []inventory.Repository{
			{Name: "app", Branches: []inventory.Branch{{Name: "main", HasRequirements: true}}},
		},
	})

	res, err := http.Get(ts.URL + "/api/snapshot")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}

	var snap inventory.Snapshot
	if err := json.NewDecoder(res.Body).Decode(&snap); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if snap.ID != "snap-1" || len(snap.Repositories) != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestSnapshotMissingIs404(t *testing.T) {
	ts := newTestServer(t, nil)
	for _, path := range []string{"/api/snapshot", "/api/snapshot/summary"} {
		res, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, res.StatusCode)
		}
	}
}

func TestSummaryEndpoint(t *testing.T) {
	ts := newTestServer(t, &inventory.Snapshot{
		ID:          "snap-2",
		Org:         "acme",
		GeneratedAt: time.Now().UTC(),
		Summary: inventory.Summary{
			ReposScanned:  3,
			ReposRetained: 1,
			TopPackages:   []inventory.NameCount{{Name: "flask", Count: 2}},
		},
	})

	res, err := http.Get(ts.URL + "/api/snapshot/summary")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer res.Body.Close()

	var body struct {
		Org     string            `json:"org"`
		Summary inventory.Summary `json:"summary"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.Org != "acme" || body.Summary.ReposScanned != 3 {
		t.Errorf("summary body = %+v", body)
	}
	if len(body.Summary.TopPackages) != 1 || body.Summary.TopPackages[0].Name != "flask" {
		t.Errorf("top packages = %+v", body.Summary.TopPackages)
	}
}
