package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/servemd/core/internal/infrastructure/config"
	"github.com/servemd/core/internal/infrastructure/logger"
)

func testConfig(root string) *config.Config {
	return &config.Config{
		App:    config.AppConfig{Name: "servemd", Version: "test", Environment: "development"},
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 4000},
		Serve:  config.ServeConfig{Root: root},
		Logger: config.LoggerConfig{Level: "info", Format: "console"},
		Security: config.SecurityConfig{
			RateLimitRequests: 1000,
			RateLimitWindow:   time.Minute,
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()

	srv, err := New(cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv
}

func populateRoot(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	files := map[string]string{
		"notes.txt":     "0123456789",
		"index.md":      "# Home\n\nwelcome",
		"readme.md":     "# Title\n\nHello **world**",
		"docs/guide.md": "# Guide",
		"docs/plain.go": "package docs\n",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func doRequest(t *testing.T, srv *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestServeTextFile(t *testing.T) {
	root := populateRoot(t)
	srv := newTestServer(t, testConfig(root))

	rec := doRequest(t, srv, http.MethodGet, "/notes.txt")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain" {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	if cl := rec.Header().Get("Content-Length"); cl != "10" {
		t.Errorf("Content-Length = %q, want 10", cl)
	}
	if body := rec.Body.String(); body != "0123456789" {
		t.Errorf("body = %q, want the file's exact bytes", body)
	}
}

func TestServeHeadRequest(t *testing.T) {
	root := populateRoot(t)
	srv := newTestServer(t, testConfig(root))

	rec := doRequest(t, srv, http.MethodHead, "/notes.txt")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if cl := rec.Header().Get("Content-Length"); cl != "10" {
		t.Errorf("Content-Length = %q, want 10", cl)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("HEAD response has a body: %q", rec.Body.String())
	}
}

func TestServeMethodNotAllowed(t *testing.T) {
	root := populateRoot(t)
	srv := newTestServer(t, testConfig(root))

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		rec := doRequest(t, srv, method, "/notes.txt")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: status = %d, want 405", method, rec.Code)
		}
		if allow := rec.Header().Get("Allow"); allow != "GET, HEAD" {
			t.Errorf("%s: Allow = %q, want \"GET, HEAD\"", method, allow)
		}
	}
}

func TestServeNotFound(t *testing.T) {
	root := populateRoot(t)
	srv := newTestServer(t, testConfig(root))

	rec := doRequest(t, srv, http.MethodGet, "/nope")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	body := rec.Body.String()
	if body == "" {
		t.Error("404 body must be non-empty")
	}
	if strings.Contains(body, root) {
		t.Errorf("404 body leaks the filesystem path: %q", body)
	}
}

func TestServeTraversalForbidden(t *testing.T) {
	root := populateRoot(t)
	srv := newTestServer(t, testConfig(root))

	for _, target := range []string{"/../secret", "/%2e%2e/secret", "/docs/%2e%2e/%2e%2e/x"} {
		rec := doRequest(t, srv, http.MethodGet, target)
		if rec.Code != http.StatusForbidden {
			t.Errorf("GET %s: status = %d, want 403", target, rec.Code)
		}
		if strings.Contains(rec.Body.String(), root) {
			t.Errorf("GET %s: body leaks the filesystem path", target)
		}
	}
}

func TestServeRootListsDirectory(t *testing.T) {
	// index.md exists in the root but the index short-circuit is off, so
	// "/" must produce a listing, not rendered markdown.
	root := populateRoot(t)
	srv := newTestServer(t, testConfig(root))

	rec := doRequest(t, srv, http.MethodGet, "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `href="/notes.txt"`) || !strings.Contains(body, `href="/index.md"`) {
		t.Errorf("listing should link root entries:\n%s", body)
	}
	if !strings.Contains(body, `href="/docs/"`) {
		t.Errorf("listing should link subdirectory with trailing slash:\n%s", body)
	}
	if strings.Contains(body, "welcome") {
		t.Errorf("index.md must not be rendered without the index option:\n%s", body)
	}
}

func TestServeDirectoryRedirect(t *testing.T) {
	root := populateRoot(t)
	srv := newTestServer(t, testConfig(root))

	rec := doRequest(t, srv, http.MethodGet, "/docs")

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/docs/" {
		t.Errorf("Location = %q, want /docs/", loc)
	}
}

func TestServeMarkdownRendered(t *testing.T) {
	root := populateRoot(t)
	srv := newTestServer(t, testConfig(root))

	rec := doRequest(t, srv, http.MethodGet, "/readme.md")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html" {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<h1") || !strings.Contains(body, "<strong>world</strong>") {
		t.Errorf("markdown not rendered:\n%s", body)
	}
}

func TestServeSourceFileAsText(t *testing.T) {
	root := populateRoot(t)
	srv := newTestServer(t, testConfig(root))

	rec := doRequest(t, srv, http.MethodGet, "/docs/plain.go")

	if ct := rec.Header().Get("Content-Type"); ct != "text/plain" {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	if body := rec.Body.String(); body != "package docs\n" {
		t.Errorf("body = %q", body)
	}
}

func TestServeExtraHeaders(t *testing.T) {
	root := populateRoot(t)
	cfg := testConfig(root)
	cfg.Serve.ExtraHeaders = []string{"X-Powered-By: servemd", "Cache-Control: no-store"}
	srv := newTestServer(t, cfg)

	rec := doRequest(t, srv, http.MethodGet, "/notes.txt")
	if got := rec.Header().Get("X-Powered-By"); got != "servemd" {
		t.Errorf("X-Powered-By = %q, want servemd", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}

	// Error responses stay minimal.
	rec = doRequest(t, srv, http.MethodGet, "/nope")
	if got := rec.Header().Get("X-Powered-By"); got != "" {
		t.Errorf("extra header on 404: %q", got)
	}
}

func TestServeIndexFileShortCircuit(t *testing.T) {
	root := populateRoot(t)
	cfg := testConfig(root)
	cfg.Serve.IndexFile = "index.md"
	srv := newTestServer(t, cfg)

	rec := doRequest(t, srv, http.MethodGet, "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "welcome") {
		t.Errorf("index.md should be served for the directory:\n%s", body)
	}
	if strings.Contains(body, `href="/notes.txt"`) {
		t.Errorf("listing rendered despite index file:\n%s", body)
	}

	// Directories without the index file still list.
	rec = doRequest(t, srv, http.MethodGet, "/docs/")
	if !strings.Contains(rec.Body.String(), `href="/docs/guide.md"`) {
		t.Errorf("subdirectory should fall back to a listing:\n%s", rec.Body.String())
	}
}

func TestServeHeadErrorHasNoBody(t *testing.T) {
	root := populateRoot(t)
	srv := newTestServer(t, testConfig(root))

	rec := doRequest(t, srv, http.MethodHead, "/nope")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("HEAD error response has a body: %q", rec.Body.String())
	}
}

func TestNewFailsOnMissingRoot(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "missing"))
	if _, err := New(cfg, logger.NewNop()); err == nil {
		t.Error("expected error for missing root")
	}
}
