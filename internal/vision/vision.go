// Package vision extracts text from images with a Gemini vision model reached
// through its OpenAI-compatible chat endpoint.
package vision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/mediascribe/internal/imagesrc"
	"github.com/hyperifyio/mediascribe/internal/llm"
	"github.com/hyperifyio/mediascribe/internal/result"
)

const (
	// Engine tags every vision result.
	Engine = "gemini-vision"
	// DefaultPrompt is used when the caller supplies none.
	DefaultPrompt = "Extract all text from this image."
	// DefaultModel is the Gemini model used for extraction.
	DefaultModel = "gemini-2.5-flash"
	// GeminiBaseURL is Gemini's OpenAI-compatible API root.
	GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	// DefaultTimeout bounds one backend call.
	DefaultTimeout = 60 * time.Second
)

// Request is one extraction call. Image may be any value imagesrc.Classify
// accepts: a data URL, an http(s) URL, a sandbox path, raw bytes or a bitmap.
type Request struct {
	Image  any
	Prompt string
}

// Service sends a canonical image plus prompt to the vision model.
type Service struct {
	Client llm.Client
	Model  string
	Loader *imagesrc.Normalizer
	// Timeout bounds the backend call. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Extract never returns an error or panics; failures are carried in the Result.
func (s *Service) Extract(ctx context.Context, req Request) result.Result {
	return result.Guard(Engine, func() result.Result {
		started := time.Now()
		text, err := s.extract(ctx, req)
		if err != nil {
			log.Warn().Err(err).Str("engine", Engine).Msg("image extraction failed")
			return result.Failure(err, Engine)
		}
		log.Info().Str("engine", Engine).Int("chars", len(text)).Dur("took", time.Since(started)).Msg("image text extracted")
		return result.Success(text, Engine)
	})
}

func (s *Service) extract(ctx context.Context, req Request) (string, error) {
	if s.Client == nil {
		return "", fmt.Errorf("%w: no vision client configured", result.ErrBackend)
	}
	loader := s.Loader
	if loader == nil {
		loader = &imagesrc.Normalizer{}
	}
	src, err := imagesrc.Classify(req.Image)
	if err != nil {
		return "", err
	}
	log.Debug().Str("kind", src.Kind()).Msg("loading image")
	raw, err := loader.Load(ctx, src)
	if err != nil {
		return "", err
	}
	buf, err := imagesrc.Canonicalize(raw)
	if err != nil {
		return "", err
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		prompt = DefaultPrompt
	}
	model := s.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := s.Client.CreateChatCompletion(callCtx, BuildRequest(model, buf, prompt))
	if err != nil {
		return "", fmt.Errorf("%w: %v", result.ErrBackend, err)
	}
	return ResponseText(resp)
}

// BuildRequest places the image part before the text part in one user message.
func BuildRequest(model string, buf imagesrc.Buffer, prompt string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: buf.DataURL(), Detail: openai.ImageURLDetailAuto},
				},
				{Type: openai.ChatMessagePartTypeText, Text: prompt},
			},
		}},
	}
}

// ResponseText prefers the message content and falls back to the first
// content part. A response with neither is a backend error.
func ResponseText(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: response has no choices", result.ErrBackend)
	}
	msg := resp.Choices[0].Message
	if strings.TrimSpace(msg.Content) != "" {
		return msg.Content, nil
	}
	if len(msg.MultiContent) > 0 && strings.TrimSpace(msg.MultiContent[0].Text) != "" {
		return msg.MultiContent[0].Text, nil
	}
	return "", fmt.Errorf("%w: response has no text (finish_reason=%s)", result.ErrBackend, resp.Choices[0].FinishReason)
}
