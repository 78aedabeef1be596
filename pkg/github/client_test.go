package github

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

// newTestClient wires a client against an httptest server with throttling
// disabled.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient("test-token", Options{
		BaseURL:   server.URL,
		PageDelay: -1,
		Logger:    log.New(io.Discard),
	})
}

func TestGetSetsAuthHeaders(t *testing.T) {
	var gotAuth, gotAccept string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{}`))
	}))

	if _, err := client.Get(context.Background(), client.baseURL+"/user"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotAccept != "application/vnd.github.v3+json" {
		t.Errorf("Accept = %q", gotAccept)
	}
}

func TestGetRetriesAfterQuotaPause(t *testing.T) {
	var calls int
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set(headerRateRemaining, "0")
			w.Header().Set(headerRateReset, "0")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"message":"API rate limit exceeded"}`))
			return
		}
		w.Header().Set(headerRateRemaining, "100")
		w.Write([]byte(`{"ok":true}`))
	}))
	var slept []time.Duration
	client.limiter.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	res, err := client.Get(context.Background(), client.baseURL+"/repos/acme/app/contents/setup.py")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 after retry", res.StatusCode)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want request re-issued exactly once", calls)
	}
	if len(slept) != 1 {
		t.Errorf("slept %d times, want 1", len(slept))
	}
}
