// Package extract turns rendered markup into readable text and Markdown.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// Document is the readable view of a page.
type Document struct {
	Title string
	Text  string
}

// FromHTML extracts readable text, preferring <main> or <article> and falling
// back to <body>. Media elements are kept as inline markers such as
// "[image: alt]" and "[audio]" so a reader knows where non-text content sits.
func FromHTML(input []byte) Document {
	node, err := html.Parse(bytes.NewReader(input))
	if err != nil || node == nil {
		return Document{}
	}

	var title string
	if head := findFirst(node, "head"); head != nil {
		if t := findFirst(head, "title"); t != nil && t.FirstChild != nil {
			title = strings.TrimSpace(t.FirstChild.Data)
		}
	}

	var root *html.Node
	for _, tag := range []string{"main", "article", "body"} {
		if root = findFirst(node, tag); root != nil {
			break
		}
	}
	var w textWriter
	if root != nil {
		w.walk(root, false)
	}
	return Document{Title: title, Text: normalizeWhitespace(w.String())}
}

// ToMarkdown converts rendered markup into Markdown.
func ToMarkdown(markup string) (string, error) {
	md, err := htmltomarkdown.ConvertString(markup)
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

type textWriter struct {
	strings.Builder
}

func (w *textWriter) walk(n *html.Node, inPre bool) {
	switch n.Type {
	case html.TextNode:
		data := n.Data
		if !inPre {
			data = strings.NewReplacer("\t", " ", "\r", " ").Replace(data)
		}
		w.WriteString(data)
		return
	case html.ElementNode:
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.walk(c, inPre)
		}
		return
	}

	name := strings.ToLower(n.Data)
	switch name {
	case "script", "style", "noscript", "nav", "footer", "aside", "iframe", "template":
		return
	case "img":
		if alt := attr(n, "alt"); alt != "" {
			w.WriteString(" [image: " + alt + "] ")
		} else {
			w.WriteString(" [image] ")
		}
		return
	case "audio":
		w.WriteString("\n[audio]\n")
		return
	case "video":
		w.WriteString("\n[video]\n")
		return
	case "br":
		w.WriteString("\n")
		return
	case "pre":
		inPre = true
		w.WriteString("\n")
	case "p", "div", "section", "h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "table", "figure":
		w.WriteString("\n")
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, inPre)
	}

	switch name {
	case "p", "h1", "h2", "h3", "h4", "h5", "h6", "table", "pre":
		w.WriteString("\n\n")
	case "li", "tr", "div", "section", "figure":
		w.WriteString("\n")
	case "td", "th":
		w.WriteString(" ")
	}
}

// normalizeWhitespace collapses runs of spaces and keeps at most one blank line.
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" && (len(out) == 0 || out[len(out)-1] == "") {
			continue
		}
		out = append(out, line)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
