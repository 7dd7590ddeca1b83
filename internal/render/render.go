// Package render drives a headless browser to capture fully rendered markup
// and turns it into a media.RenderedDocument.
package render

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/mediascribe/internal/extract"
	"github.com/hyperifyio/mediascribe/internal/media"
	"github.com/hyperifyio/mediascribe/internal/result"
)

// DefaultTimeout bounds one render call, launch to markup capture.
const DefaultTimeout = 60 * time.Second

// Session is one isolated browser instance.
type Session interface {
	// Render navigates to url, waits for network quiescence and returns the markup.
	Render(ctx context.Context, url string) (string, error)
	// Close tears the instance down. It must be safe to call after a failed Render.
	Close() error
}

// Launcher starts isolated browser sessions.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// Renderer renders one URL per call on a fresh Session.
type Renderer struct {
	Launcher Launcher
	// Timeout bounds the whole call. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Render launches a session, captures the page and extracts media references.
// The session is closed on every return path, including panics.
func (r *Renderer) Render(ctx context.Context, url string) (*media.RenderedDocument, error) {
	if r.Launcher == nil {
		return nil, fmt.Errorf("%w: no browser launcher configured", result.ErrFetch)
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sess, err := r.Launcher.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: launch browser: %v", result.ErrFetch, err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn().Err(cerr).Str("url", url).Msg("browser teardown failed")
		}
	}()

	started := time.Now()
	markup, err := sess.Render(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", result.ErrFetch, err)
	}
	doc, err := media.Extract(markup, url)
	if err != nil {
		return nil, err
	}
	ev := log.Info().Str("url", url).Int("images", len(doc.Images)).Dur("took", time.Since(started))
	if doc.Audio != nil {
		ev = ev.Str("audio_url", doc.Audio.URL)
	}
	ev.Msg("page rendered")
	return doc, nil
}

// Output is the render entry point envelope: either the page fields or Error.
type Output struct {
	HTML     string
	Images   []string
	AudioURL *string
	URL      string
	// Title and Text are filled only when requested.
	Title string
	Text  string

	Error string
}

// Failed reports whether the output carries an error.
func (o Output) Failed() bool { return o.Error != "" }

// MarshalJSON emits {"html","images","audio_url","url"} or {"error"}.
func (o Output) MarshalJSON() ([]byte, error) {
	if o.Failed() {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{o.Error})
	}
	images := o.Images
	if images == nil {
		images = []string{}
	}
	return json.Marshal(struct {
		HTML     string   `json:"html"`
		Images   []string `json:"images"`
		AudioURL *string  `json:"audio_url"`
		URL      string   `json:"url"`
		Title    string   `json:"title,omitempty"`
		Text     string   `json:"text,omitempty"`
	}{o.HTML, images, o.AudioURL, o.URL, o.Title, o.Text})
}

// NewOutput converts a document into the entry point envelope.
func NewOutput(doc *media.RenderedDocument) Output {
	return Output{HTML: doc.HTML, Images: doc.ImageURLs(), AudioURL: doc.AudioURL(), URL: doc.URL}
}

// FailedOutput wraps err in the render error envelope.
func FailedOutput(err error) Output {
	return Output{Error: fmt.Sprintf("Error fetching/rendering page: %v", err)}
}

// PageOptions tunes the render entry point output.
type PageOptions struct {
	// IncludeText adds the page title and its readable main text.
	IncludeText bool
}

// Page is the render entry point. It never returns an error or panics;
// failures are reported in Output.Error.
func (r *Renderer) Page(ctx context.Context, url string, opts PageOptions) (out Output) {
	defer func() {
		if rec := recover(); rec != nil {
			out = FailedOutput(fmt.Errorf("internal error: %v", rec))
		}
	}()
	log.Debug().Str("url", url).Msg("fetching and rendering")
	doc, err := r.Render(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("render failed")
		return FailedOutput(err)
	}
	out = NewOutput(doc)
	if opts.IncludeText {
		readable := extract.FromHTML([]byte(doc.HTML))
		out.Title = doc.Title
		out.Text = readable.Text
	}
	return out
}
