package render

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperifyio/mediascribe/internal/result"
)

// fakeLauncher tracks live sessions so tests can assert teardown.
type fakeLauncher struct {
	launchErr error
	markup    string
	renderErr error
	panicMsg  string
	delay     time.Duration

	launched atomic.Int32
	live     atomic.Int32
}

type fakeSession struct {
	l      *fakeLauncher
	closed bool
}

func (f *fakeLauncher) Launch(ctx context.Context) (Session, error) {
	if f.launchErr != nil {
		return nil, f.launchErr
	}
	f.launched.Add(1)
	f.live.Add(1)
	return &fakeSession{l: f}, nil
}

func (s *fakeSession) Render(ctx context.Context, url string) (string, error) {
	if s.l.panicMsg != "" {
		panic(s.l.panicMsg)
	}
	if s.l.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.l.delay):
		}
	}
	if s.l.renderErr != nil {
		return "", s.l.renderErr
	}
	return s.l.markup, nil
}

func (s *fakeSession) Close() error {
	if !s.closed {
		s.closed = true
		s.l.live.Add(-1)
	}
	return nil
}

func TestPage_SuccessEnvelope(t *testing.T) {
	l := &fakeLauncher{markup: `<html><head><title>T</title></head><body><img src="a.png"><img src="/b.png"><a href="clip.mp3">c</a><main><p>Hello</p></main></body></html>`}
	r := &Renderer{Launcher: l}

	out := r.Page(context.Background(), "https://example.com/page.html", PageOptions{})
	if out.Failed() {
		t.Fatalf("unexpected error: %s", out.Error)
	}
	if l.live.Load() != 0 || l.launched.Load() != 1 {
		t.Fatalf("browser leaked: live=%d launched=%d", l.live.Load(), l.launched.Load())
	}
	want := []string{"https://example.com/a.png", "https://example.com/b.png"}
	if len(out.Images) != 2 || out.Images[0] != want[0] || out.Images[1] != want[1] {
		t.Fatalf("images=%v", out.Images)
	}
	if out.AudioURL == nil || *out.AudioURL != "https://example.com/clip.mp3" {
		t.Fatalf("audio=%v", out.AudioURL)
	}

	b, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	for _, k := range []string{"html", "images", "audio_url", "url"} {
		if _, ok := m[k]; !ok {
			t.Fatalf("missing key %q in %s", k, b)
		}
	}
	if _, ok := m["error"]; ok {
		t.Fatalf("unexpected error key")
	}
	if _, ok := m["text"]; ok {
		t.Fatalf("text must be omitted unless requested")
	}
}

func TestPage_IncludeText(t *testing.T) {
	l := &fakeLauncher{markup: `<html><head><title>T</title></head><body><nav>menu</nav><main><p>Hello world</p></main></body></html>`}
	out := (&Renderer{Launcher: l}).Page(context.Background(), "https://example.com/", PageOptions{IncludeText: true})
	if out.Title != "T" || !strings.Contains(out.Text, "Hello world") || strings.Contains(out.Text, "menu") {
		t.Fatalf("unexpected title/text: %q %q", out.Title, out.Text)
	}
}

func TestPage_NoAudioIsNull(t *testing.T) {
	l := &fakeLauncher{markup: `<p>nothing</p>`}
	out := (&Renderer{Launcher: l}).Page(context.Background(), "https://example.com/", PageOptions{})
	b, _ := json.Marshal(out)
	if !strings.Contains(string(b), `"audio_url":null`) || !strings.Contains(string(b), `"images":[]`) {
		t.Fatalf("unexpected json: %s", b)
	}
}

func TestPage_FailuresTearDownBrowser(t *testing.T) {
	cases := []struct {
		name string
		l    *fakeLauncher
	}{
		{"navigation error", &fakeLauncher{renderErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}},
		{"panic", &fakeLauncher{panicMsg: "devtools crashed"}},
		{"timeout", &fakeLauncher{delay: time.Second, markup: "<p>late</p>"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &Renderer{Launcher: tc.l, Timeout: 50 * time.Millisecond}
			out := r.Page(context.Background(), "http://unreachable.invalid/", PageOptions{})
			if !out.Failed() || !strings.HasPrefix(out.Error, "Error fetching/rendering page:") {
				t.Fatalf("expected error envelope, got %+v", out)
			}
			if tc.l.live.Load() != 0 {
				t.Fatalf("browser instance leaked: live=%d", tc.l.live.Load())
			}
			b, _ := json.Marshal(out)
			var m map[string]any
			_ = json.Unmarshal(b, &m)
			if len(m) != 1 || m["error"] == nil {
				t.Fatalf("expected only error key, got %s", b)
			}
		})
	}
}

func TestRender_LaunchErrorIsFetchError(t *testing.T) {
	l := &fakeLauncher{launchErr: errors.New("chromium not found")}
	_, err := (&Renderer{Launcher: l}).Render(context.Background(), "https://example.com/")
	if !errors.Is(err, result.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	if l.live.Load() != 0 {
		t.Fatalf("no session should be live")
	}
}

func TestRender_NoLauncher(t *testing.T) {
	if _, err := (&Renderer{}).Render(context.Background(), "https://example.com/"); !errors.Is(err, result.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestRender_RepeatedCallsUseFreshSessions(t *testing.T) {
	l := &fakeLauncher{markup: "<p>x</p>"}
	r := &Renderer{Launcher: l}
	for i := 0; i < 3; i++ {
		if _, err := r.Render(context.Background(), "https://example.com/"); err != nil {
			t.Fatalf("render %d: %v", i, err)
		}
	}
	if l.launched.Load() != 3 || l.live.Load() != 0 {
		t.Fatalf("launched=%d live=%d", l.launched.Load(), l.live.Load())
	}
}
