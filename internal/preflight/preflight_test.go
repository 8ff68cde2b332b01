package preflight_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fieldsync/internal/preflight"
	"fieldsync/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	result := preflight.CheckDirectoryAccess("Data directory", dir)
	if !result.Passed {
		t.Fatalf("expected writable temp dir to pass: %+v", result)
	}

	missing := preflight.CheckDirectoryAccess("Data directory", filepath.Join(dir, "nope"))
	if missing.Passed || !strings.Contains(missing.Detail, "does not exist") {
		t.Fatalf("expected missing directory to fail: %+v", missing)
	}

	file := filepath.Join(dir, "plain")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	notDir := preflight.CheckDirectoryAccess("Data directory", file)
	if notDir.Passed || !strings.Contains(notDir.Detail, "not a directory") {
		t.Fatalf("expected file to fail the directory check: %+v", notDir)
	}
}

func TestCheckDiskSpace(t *testing.T) {
	result := preflight.CheckDiskSpace("Data disk space", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected temp filesystem to have headroom: %+v", result)
	}
}

func TestRunAllIncludesBackendOnlyWhenConfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Backend.BaseURL = ""

	results := preflight.RunAll(context.Background(), cfg)
	for _, result := range results {
		if result.Name == "Backend" {
			t.Fatal("backend check must be skipped without a base url")
		}
	}
	if !preflight.AllPassed(results) {
		t.Fatalf("expected local checks to pass: %+v", results)
	}
}

func TestBackendFailureDoesNotBlockStartup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(server.URL))
	results := preflight.RunAll(context.Background(), cfg)

	var backend *preflight.Result
	for i := range results {
		if results[i].Name == "Backend" {
			backend = &results[i]
		}
	}
	if backend == nil {
		t.Fatal("expected backend check to run")
	}
	if backend.Passed {
		t.Fatal("expected backend check to fail against a 503")
	}
	if !preflight.AllPassed(results) {
		t.Fatalf("backend reachability must stay advisory: %+v", results)
	}
}

func TestBackendHealthyPasses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(server.URL))
	result := preflight.CheckBackend(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("expected healthy backend to pass: %+v", result)
	}
}

func TestAllPassedBlocksOnLocalFailure(t *testing.T) {
	results := []preflight.Result{
		{Name: "Data directory", Passed: true},
		{Name: "Data disk space", Passed: false},
		{Name: "Backend", Passed: false},
	}
	if preflight.AllPassed(results) {
		t.Fatal("disk space failure must block startup")
	}
}
