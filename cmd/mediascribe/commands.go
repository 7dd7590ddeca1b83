package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/mediascribe/internal/app"
	"github.com/hyperifyio/mediascribe/internal/llmtools"
	"github.com/hyperifyio/mediascribe/internal/render"
	"github.com/hyperifyio/mediascribe/internal/vision"
)

func newRenderCmd(o *globalOptions) *cobra.Command {
	var (
		includeText bool
		markdownOut string
		pdfOut      string
	)
	cmd := &cobra.Command{
		Use:   "render <url>",
		Short: "Render a page and list its images and audio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := o.app.RenderSnapshot(cmd.Context(), args[0], app.SnapshotOptions{
				PageOptions:  render.PageOptions{IncludeText: includeText},
				MarkdownPath: markdownOut,
				PDFPath:      pdfOut,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().BoolVar(&includeText, "include-text", false, "add the page title and readable text")
	cmd.Flags().StringVar(&markdownOut, "markdown-out", "", "write the page as Markdown to this file")
	cmd.Flags().StringVar(&pdfOut, "pdf-out", "", "write a PDF snapshot to this file")
	return cmd
}

func newOCRCmd(o *globalOptions) *cobra.Command {
	var prompt string
	cmd := &cobra.Command{
		Use:   "ocr <image>",
		Short: "Extract text from an image (data URL, http(s) URL or sandbox path)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := o.app.Vision.Extract(cmd.Context(), vision.Request{Image: args[0], Prompt: prompt})
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "instruction for the vision model")
	return cmd
}

func newTranscribeCmd(o *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <file>",
		Short: "Transcribe an audio file inside the sandbox directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), o.app.Speech.Transcribe(cmd.Context(), args[0]))
			return err
		},
	}
}

func newToolsCmd(o *globalOptions) *cobra.Command {
	tools := &cobra.Command{
		Use:   "tools",
		Short: "Inspect and call the LLM tool surface",
	}
	var openaiFormat bool
	list := &cobra.Command{
		Use:   "list",
		Short: "Print tool specs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			specs := o.app.Tools.Specs()
			if openaiFormat {
				return writeJSON(cmd.OutOrStdout(), llmtools.EncodeTools(specs))
			}
			return writeJSON(cmd.OutOrStdout(), specs)
		},
	}
	list.Flags().BoolVar(&openaiFormat, "openai", false, "print as an OpenAI tools array")

	call := &cobra.Command{
		Use:   "call <name> [json-args]",
		Short: "Invoke a tool with JSON arguments",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw json.RawMessage
			if len(args) == 2 {
				raw = json.RawMessage(strings.TrimSpace(args[1]))
			}
			out, err := o.app.Tools.Invoke(cmd.Context(), args[0], raw)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := json.Indent(&buf, out, "", "  "); err != nil {
				return fmt.Errorf("tool %s returned invalid JSON: %w", args[0], err)
			}
			buf.WriteByte('\n')
			_, err = buf.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
	tools.AddCommand(list, call)
	return tools
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "mediascribe %s (%s, %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
			return err
		},
	}
}
