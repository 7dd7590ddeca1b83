package media

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// AudioRule inspects a document and returns a raw (unresolved) audio
// reference when it matches.
type AudioRule struct {
	Name  string
	Match func(doc *goquery.Document) (string, bool)
}

// DefaultAudioRules is the audio discovery order; the first match wins.
var DefaultAudioRules = []AudioRule{
	{Name: "audio_src", Match: audioSrc},
	{Name: "audio_source_child", Match: audioSourceChild},
	{Name: "mp3_anchor", Match: mp3Anchor},
}

// FindAudio evaluates rules in order and returns the first resolvable match.
func FindAudio(doc *goquery.Document, base *url.URL, rules []AudioRule) (MediaReference, bool) {
	for _, rule := range rules {
		raw, ok := rule.Match(doc)
		if !ok {
			continue
		}
		if abs, ok := resolve(base, raw); ok {
			return MediaReference{URL: abs, Kind: KindAudio}, true
		}
	}
	return MediaReference{}, false
}

// audioSrc matches the src attribute of the first <audio> element.
func audioSrc(doc *goquery.Document) (string, bool) {
	src, ok := doc.Find("audio").First().Attr("src")
	return src, ok && strings.TrimSpace(src) != ""
}

// audioSourceChild matches the first <source src> nested in the first <audio>.
func audioSourceChild(doc *goquery.Document) (string, bool) {
	src, ok := doc.Find("audio").First().Find("source").First().Attr("src")
	return src, ok && strings.TrimSpace(src) != ""
}

// mp3Anchor matches the first <a href> anywhere whose href ends in .mp3.
func mp3Anchor(doc *goquery.Document) (string, bool) {
	var href string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		h, _ := s.Attr("href")
		if strings.HasSuffix(strings.ToLower(h), ".mp3") {
			href = h
			return false
		}
		return true
	})
	return href, href != ""
}
