package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Runs only when a real Chromium is available: MEDIASCRIBE_BROWSER_TESTS=1.
func requireBrowser(t *testing.T) {
	t.Helper()
	if os.Getenv("MEDIASCRIBE_BROWSER_TESTS") != "1" {
		t.Skip("set MEDIASCRIBE_BROWSER_TESTS=1 to run headless browser tests")
	}
}

func profileDirs(t *testing.T) int {
	t.Helper()
	matches, _ := filepath.Glob(filepath.Join(os.TempDir(), profilePrefix+"*"))
	return len(matches)
}

func TestRodLauncher_RendersScriptedPage(t *testing.T) {
	requireBrowser(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><div id="root"></div>
<script>document.getElementById('root').innerHTML = '<img src="late.png"><audio src="a.mp3"></audio>';</script>
</body></html>`))
	}))
	defer srv.Close()

	before := profileDirs(t)
	r := &Renderer{Launcher: &RodLauncher{NoSandbox: true}, Timeout: 45 * time.Second}
	out := r.Page(context.Background(), srv.URL+"/", PageOptions{})
	if out.Failed() {
		t.Fatalf("render failed: %s", out.Error)
	}
	if len(out.Images) != 1 || !strings.HasSuffix(out.Images[0], "/late.png") {
		t.Fatalf("script-inserted image not found: %v", out.Images)
	}
	if out.AudioURL == nil || !strings.HasSuffix(*out.AudioURL, "/a.mp3") {
		t.Fatalf("audio not found: %v", out.AudioURL)
	}
	if after := profileDirs(t); after != before {
		t.Fatalf("profile dirs leaked: before=%d after=%d", before, after)
	}
}

func TestRodLauncher_UnreachableURL(t *testing.T) {
	requireBrowser(t)
	before := profileDirs(t)
	r := &Renderer{Launcher: &RodLauncher{NoSandbox: true, NavigationTimeout: 10 * time.Second}}
	out := r.Page(context.Background(), "http://127.0.0.1:1/", PageOptions{})
	if !out.Failed() {
		t.Fatalf("expected error envelope")
	}
	if after := profileDirs(t); after != before {
		t.Fatalf("profile dirs leaked: before=%d after=%d", before, after)
	}
}
