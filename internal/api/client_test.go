package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/keywordforge/kwforge/internal/config"
	"github.com/keywordforge/kwforge/internal/models"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.NewConfig()
	cfg.PlatformURL = srv.URL
	cfg.APIKey = "test-token"

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestFetchSnapshot(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/projects/p1/uploads/status" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Token test-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "processing",
			"stage": "import_rows",
			"currentFileName": "beta.csv",
			"queuedFiles": ["gamma.csv"],
			"processedFiles": ["alpha.csv"],
			"fileErrors": [{"fileName": "delta.csv", "message": "bad header", "stage": "read_csv"}]
		}`))
	}))

	snap, err := client.FetchSnapshot(context.Background(), "p1")
	if err != nil {
		t.Fatalf("FetchSnapshot failed: %v", err)
	}

	if snap.Status != models.StatusProcessing {
		t.Errorf("Status = %q, want processing", snap.Status)
	}
	if snap.CurrentFileName != "beta.csv" {
		t.Errorf("CurrentFileName = %q", snap.CurrentFileName)
	}
	if len(snap.FileErrors) != 1 || snap.FileErrors[0].Message != "bad header" {
		t.Errorf("FileErrors = %+v", snap.FileErrors)
	}
}

func TestFetchSnapshotNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such project", http.StatusNotFound)
	}))

	_, err := client.FetchSnapshot(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsNotFound(err) {
		t.Errorf("IsNotFound(%v) = false, want true", err)
	}
}

func TestResetProject(t *testing.T) {
	var method, path string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := client.ResetProject(context.Background(), "p1"); err != nil {
		t.Fatalf("ResetProject failed: %v", err)
	}
	if method != "POST" || path != "/api/v1/projects/p1/uploads/reset" {
		t.Errorf("request = %s %s", method, path)
	}
}
