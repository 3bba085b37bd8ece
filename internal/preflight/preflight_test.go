package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"ward/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckCatalog_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`["One", "Two", "Three"]`))
	}))
	defer srv.Close()

	result := CheckCatalog(context.Background(), srv.URL)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result.Detail != "3 artists (string_array)" {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckCatalog_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	result := CheckCatalog(context.Background(), srv.URL)
	if result.Passed {
		t.Fatal("expected failure for 503")
	}
}

func TestCheckCatalog_UnrecognizedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>moved</html>`))
	}))
	defer srv.Close()

	result := CheckCatalog(context.Background(), srv.URL)
	if result.Passed || result.Detail != "unrecognized payload" {
		t.Fatalf("expected unrecognized payload failure, got %+v", result)
	}
}

func TestCheckNtfyTopic(t *testing.T) {
	if r := CheckNtfyTopic("https://ntfy.sh/ward-alerts"); !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}
	if r := CheckNtfyTopic("ward-alerts"); r.Passed {
		t.Fatal("expected failure for bare topic name")
	}
}

func TestCheckNATS_Unreachable(t *testing.T) {
	if r := CheckNATS("nats://127.0.0.1:1"); r.Passed {
		t.Fatal("expected failure for closed port")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Catalog.Enabled = false

	results := RunAll(context.Background(), &cfg)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRunAll_IncludesCatalogWhenEnabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"artists":["A"]}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Catalog.Enabled = true
	cfg.Catalog.URL = srv.URL

	found := false
	for _, r := range RunAll(context.Background(), &cfg) {
		if r.Name == "Catalog" {
			found = true
			if !r.Passed {
				t.Errorf("catalog check failed: %s", r.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected Catalog check in results")
	}
}
