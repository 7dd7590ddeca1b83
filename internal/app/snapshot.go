package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/mediascribe/internal/export"
	"github.com/hyperifyio/mediascribe/internal/extract"
	"github.com/hyperifyio/mediascribe/internal/media"
	"github.com/hyperifyio/mediascribe/internal/render"
)

// SnapshotOptions selects optional artifacts written next to a render.
type SnapshotOptions struct {
	render.PageOptions
	MarkdownPath string
	PDFPath      string
}

// RenderSnapshot renders url and writes the requested Markdown and PDF
// artifacts. Render failures are returned in the Output; only artifact
// write failures are returned as errors.
func (a *App) RenderSnapshot(ctx context.Context, url string, opts SnapshotOptions) (out render.Output, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = render.FailedOutput(fmt.Errorf("internal error: %v", rec)), nil
		}
	}()
	doc, err := a.Renderer.Render(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("render failed")
		return render.FailedOutput(err), nil
	}
	out = render.NewOutput(doc)
	if opts.IncludeText {
		out.Title = doc.Title
		out.Text = extract.FromHTML([]byte(doc.HTML)).Text
	}
	if opts.MarkdownPath == "" && opts.PDFPath == "" {
		return out, nil
	}
	if err := WriteArtifacts(doc, opts.MarkdownPath, opts.PDFPath); err != nil {
		return out, err
	}
	return out, nil
}

// WriteArtifacts converts doc to Markdown and writes it and/or a PDF.
// Empty paths are skipped.
func WriteArtifacts(doc *media.RenderedDocument, markdownPath, pdfPath string) error {
	md, err := extract.ToMarkdown(doc.HTML)
	if err != nil {
		return fmt.Errorf("convert to markdown: %w", err)
	}
	if strings.TrimSpace(markdownPath) != "" {
		if err := os.WriteFile(markdownPath, []byte(md), 0o644); err != nil {
			return fmt.Errorf("write markdown: %w", err)
		}
		log.Info().Str("path", markdownPath).Msg("markdown written")
	}
	if strings.TrimSpace(pdfPath) != "" {
		snap := export.Snapshot{
			Title:    doc.Title,
			URL:      doc.URL,
			Markdown: md,
			Images:   doc.ImageURLs(),
		}
		if doc.Audio != nil {
			snap.AudioURL = doc.Audio.URL
		}
		if err := export.WritePDFFile(snap, pdfPath); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("path", pdfPath).Msg("pdf written")
	}
	return nil
}
