// Package export writes a rendered page snapshot as a simple PDF.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Snapshot is what gets written: the page as Markdown plus its media references.
type Snapshot struct {
	Title    string
	URL      string
	Markdown string
	Images   []string
	AudioURL string
}

var linkRe = regexp.MustCompile(`\[([^\]]*)\]\(([^)\s]+)\)`)

// WritePDF renders s to w. Headings get larger fonts, Markdown links become
// clickable, and a trailing "Media" section lists image and audio URLs.
func WritePDF(s Snapshot, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	// Core fonts are cp1252; translate UTF-8 input.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	if s.Title != "" {
		pdf.SetFont("Helvetica", "B", 16)
		pdf.MultiCell(0, 8, tr(s.Title), "", "L", false)
	}
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.MultiCell(0, 5, tr("Source: "+s.URL), "", "L", false)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	scanner := bufio.NewScanner(strings.NewReader(s.Markdown))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			pdf.Ln(3)
			continue
		}
		if strings.HasPrefix(line, "#") {
			level := 0
			for level < len(line) && line[level] == '#' {
				level++
			}
			text := strings.TrimSpace(line[level:])
			if text == "" {
				continue
			}
			size := 14.0
			if level >= 2 {
				size = 12.0
			}
			pdf.SetFont("Helvetica", "B", size)
			pdf.MultiCell(0, 7, tr(text), "", "L", false)
			pdf.SetFont("Helvetica", "", 11)
			continue
		}
		writeLine(pdf, tr, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan markdown: %w", err)
	}

	if len(s.Images) > 0 || s.AudioURL != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.MultiCell(0, 7, "Media", "", "L", false)
		pdf.SetFont("Helvetica", "", 10)
		for i, u := range s.Images {
			pdf.Write(5, fmt.Sprintf("Image %d: ", i+1))
			pdf.WriteLinkString(5, tr(u), u)
			pdf.Ln(5)
		}
		if s.AudioURL != "" {
			pdf.Write(5, "Audio: ")
			pdf.WriteLinkString(5, tr(s.AudioURL), s.AudioURL)
			pdf.Ln(5)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// writeLine writes one paragraph line, turning [text](url) into links.
func writeLine(pdf *gofpdf.Fpdf, tr func(string) string, line string) {
	matches := linkRe.FindAllStringSubmatchIndex(line, -1)
	pos := 0
	for _, m := range matches {
		if m[0] > pos {
			pdf.Write(5, tr(line[pos:m[0]]))
		}
		text, url := line[m[2]:m[3]], line[m[4]:m[5]]
		if text == "" {
			text = url
		}
		if strings.HasPrefix(url, "#") {
			pdf.Write(5, tr(text))
		} else {
			pdf.WriteLinkString(5, tr(text), url)
		}
		pos = m[1]
	}
	if pos < len(line) {
		pdf.Write(5, tr(line[pos:]))
	}
	pdf.Ln(6)
}

// WritePDFFile writes s to path.
func WritePDFFile(s Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePDF(s, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
