package llmtools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperifyio/mediascribe/internal/render"
	"github.com/hyperifyio/mediascribe/internal/result"
	"github.com/hyperifyio/mediascribe/internal/vision"
)

// Stable tool names.
const (
	ToolRenderPage = "get_rendered_html"
	ToolOCRImage   = "ocr_image_tool"
	ToolTranscribe = "transcribe_audio"
)

// PageRenderer is satisfied by *render.Renderer.
type PageRenderer interface {
	Page(ctx context.Context, url string, opts render.PageOptions) render.Output
}

// ImageExtractor is satisfied by *vision.Service.
type ImageExtractor interface {
	Extract(ctx context.Context, req vision.Request) result.Result
}

// AudioTranscriber is satisfied by *speech.Service.
type AudioTranscriber interface {
	Transcribe(ctx context.Context, path string) string
}

// MediaDeps bundles the three extraction entry points.
type MediaDeps struct {
	Renderer PageRenderer
	Vision   ImageExtractor
	Speech   AudioTranscriber
}

const renderDescription = `Fetch and return the fully rendered HTML of a webpage after its scripts have run.
Also returns every image URL on the page ("images") and the first audio URL ("audio_url", null when none),
taken from an <audio src>, an <audio><source src>, or a link ending in .mp3, in that order.
HTML longer than 300000 characters is truncated.`

const ocrDescription = `Extract text from an image using Gemini Vision.
"image" may be a data: URL, an http(s) URL, or a file path inside the sandbox directory.
"prompt" is the instruction; it defaults to "Extract all text from this image."
Returns {"text","engine"} or {"error","engine"}.`

const transcribeDescription = `Transcribe a downloaded audio file to text.
If any tool returns the field "audio_url", you MUST:
1. Call download_file with this audio_url.
2. Then call transcribe_audio with the downloaded file path.
3. Use ONLY the transcript as the answer.
NEVER ignore audio_url.
NEVER try to transcribe directly from the URL.
ALWAYS follow the chain: get_rendered_html -> download_file -> transcribe_audio.
Returns the transcript, or a string starting with "Error: ".`

var errMissingDeps = errors.New("media tools: missing dependency")

// NewMediaRegistry registers the page, image and audio tools.
func NewMediaRegistry(deps MediaDeps) (*Registry, error) {
	if deps.Renderer == nil || deps.Vision == nil || deps.Speech == nil {
		return nil, errMissingDeps
	}
	r := NewRegistry()

	if err := r.Register(ToolDefinition{
		StableName:  ToolRenderPage,
		SemVer:      "v1.0.0",
		Description: renderDescription,
		JSONSchema: json.RawMessage(`{
			"type":"object",
			"properties":{
				"url":{"type":"string","minLength":1},
				"include_text":{"type":"boolean"}
			},
			"required":["url"],
			"additionalProperties":false
		}`),
		Capabilities: []string{"render", "media"},
		Handler: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
			var in struct {
				URL         string `json:"url"`
				IncludeText bool   `json:"include_text"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("invalid args: %w", err)
			}
			out := deps.Renderer.Page(ctx, strings.TrimSpace(in.URL), render.PageOptions{IncludeText: in.IncludeText})
			return json.Marshal(out)
		},
	}); err != nil {
		return nil, err
	}

	if err := r.Register(ToolDefinition{
		StableName:  ToolOCRImage,
		SemVer:      "v1.0.0",
		Description: ocrDescription,
		JSONSchema: json.RawMessage(`{
			"type":"object",
			"properties":{
				"image":{"type":"string","minLength":1},
				"prompt":{"type":"string"}
			},
			"required":["image"],
			"additionalProperties":false
		}`),
		Capabilities: []string{"vision", "ocr"},
		Handler: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
			var in struct {
				Image  string `json:"image"`
				Prompt string `json:"prompt"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("invalid args: %w", err)
			}
			res := deps.Vision.Extract(ctx, vision.Request{Image: strings.TrimSpace(in.Image), Prompt: in.Prompt})
			return json.Marshal(res)
		},
	}); err != nil {
		return nil, err
	}

	if err := r.Register(ToolDefinition{
		StableName:  ToolTranscribe,
		SemVer:      "v1.0.0",
		Description: transcribeDescription,
		JSONSchema: json.RawMessage(`{
			"type":"object",
			"properties":{ "file_path":{"type":"string","minLength":1} },
			"required":["file_path"],
			"additionalProperties":false
		}`),
		Capabilities: []string{"audio", "transcribe"},
		Handler: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
			var in struct {
				FilePath string `json:"file_path"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("invalid args: %w", err)
			}
			return json.Marshal(deps.Speech.Transcribe(ctx, strings.TrimSpace(in.FilePath)))
		},
	}); err != nil {
		return nil, err
	}

	return r, nil
}
