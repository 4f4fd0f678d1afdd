package apihttp

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	s := NewServer()

	rec := doRequest(s, http.MethodGet, "/internal/health", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body == "" {
		t.Fatal("expected a body")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewServer()

	rec := doRequest(s, http.MethodGet, "/metrics", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestFiles_ServesFromDataDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "My_Movie.mp4"), []byte("video-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewServer(WithDataDir(dir))

	rec := doRequest(s, http.MethodGet, "/files/My_Movie.mp4", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "video-bytes" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestFiles_NotConfigured(t *testing.T) {
	s := NewServer()

	rec := doRequest(s, http.MethodGet, "/files/My_Movie.mp4", nil)

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rec.Code)
	}
}

func TestResolveDataFilePath_RejectsEscape(t *testing.T) {
	dir := t.TempDir()

	if _, err := resolveDataFilePath(dir, "../outside.mp4"); err == nil {
		t.Fatal("expected error for path escaping data dir")
	}
	if _, err := resolveDataFilePath(dir, "inside.mp4"); err != nil {
		t.Fatalf("expected inside path to resolve, got %v", err)
	}
}

func TestUnknownRoute_NotFound(t *testing.T) {
	s := NewServer()

	rec := doRequest(s, http.MethodGet, "/nope", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
