// Package media locates image and audio references inside rendered markup.
package media

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Kind tags a MediaReference.
type Kind string

const (
	KindImage Kind = "image"
	KindAudio Kind = "audio"
)

// MaxHTMLChars caps the markup returned with a RenderedDocument.
const MaxHTMLChars = 300000

// TruncationMarker is appended to markup cut at MaxHTMLChars.
const TruncationMarker = "... [TRUNCATED]"

// MediaReference is an absolute asset URL found in a document.
type MediaReference struct {
	URL  string
	Kind Kind
}

// RenderedDocument is the outcome of rendering one page.
type RenderedDocument struct {
	// HTML is the rendered markup, possibly truncated.
	HTML      string
	Truncated bool
	// URL is the page URL the references were resolved against.
	URL    string
	Title  string
	Images []MediaReference
	Audio  *MediaReference
}

// ImageURLs returns the image reference URLs in document order.
func (d *RenderedDocument) ImageURLs() []string {
	out := make([]string, 0, len(d.Images))
	for _, ref := range d.Images {
		out = append(out, ref.URL)
	}
	return out
}

// AudioURL returns the audio reference URL, or nil when none was found.
func (d *RenderedDocument) AudioURL() *string {
	if d.Audio == nil {
		return nil
	}
	u := d.Audio.URL
	return &u
}

// Extract parses markup and collects media references resolved against baseURL.
func Extract(markup, baseURL string) (*RenderedDocument, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	out := &RenderedDocument{
		URL:    baseURL,
		Title:  strings.TrimSpace(doc.Find("head title").First().Text()),
		Images: findImages(doc, base),
	}
	if ref, ok := FindAudio(doc, base, DefaultAudioRules); ok {
		out.Audio = &ref
	}
	out.HTML, out.Truncated = Truncate(markup, MaxHTMLChars)
	return out, nil
}

func findImages(doc *goquery.Document, base *url.URL) []MediaReference {
	refs := make([]MediaReference, 0)
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if strings.TrimSpace(src) == "" {
			// An empty reference points at the page itself.
			refs = append(refs, MediaReference{URL: base.String(), Kind: KindImage})
			return
		}
		if abs, ok := resolve(base, src); ok {
			refs = append(refs, MediaReference{URL: abs, Kind: KindImage})
		}
	})
	return refs
}

// resolve joins ref to base. Empty or unparsable references are rejected.
func resolve(base *url.URL, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(u).String(), true
}

// Truncate cuts s to max characters and appends TruncationMarker when it was longer.
func Truncate(s string, max int) (string, bool) {
	if utf8.RuneCountInString(s) <= max {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + TruncationMarker, true
		}
		n++
	}
	return s, false
}
