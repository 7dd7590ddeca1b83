// Package app wires configuration into the render, vision and speech services
// and the tool registry that exposes them.
package app

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/mediascribe/internal/fetch"
	"github.com/hyperifyio/mediascribe/internal/imagesrc"
	"github.com/hyperifyio/mediascribe/internal/llm"
	"github.com/hyperifyio/mediascribe/internal/llmtools"
	"github.com/hyperifyio/mediascribe/internal/render"
	"github.com/hyperifyio/mediascribe/internal/sandbox"
	"github.com/hyperifyio/mediascribe/internal/speech"
	"github.com/hyperifyio/mediascribe/internal/vision"
)

// App holds the constructed services. Each call on them is independent.
type App struct {
	cfg      Config
	Renderer *render.Renderer
	Vision   *vision.Service
	Speech   *speech.Service
	Tools    *llmtools.Registry
}

// New applies defaults to cfg, validates it and builds every service.
// No network or browser activity happens here.
func New(cfg Config) (*App, error) {
	ApplyDefaults(&cfg)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	root := sandbox.Root(cfg.SandboxDir)
	backendHTTP := newHTTPClient(0)

	a := &App{cfg: cfg}
	a.Renderer = &render.Renderer{
		Launcher: &render.RodLauncher{
			Bin:       cfg.BrowserBin,
			NoSandbox: cfg.BrowserNoSandbox,
			Stealth:   cfg.Stealth,
		},
		Timeout: cfg.RenderTimeout,
	}
	a.Vision = &vision.Service{
		Client: llm.NewOpenAIProvider(cfg.VisionBaseURL, cfg.VisionAPIKey, backendHTTP),
		Model:  cfg.VisionModel,
		Loader: &imagesrc.Normalizer{
			Fetcher: &fetch.Client{
				HTTPClient:        newHTTPClient(0),
				UserAgent:         cfg.UserAgent,
				PerRequestTimeout: cfg.FetchTimeout,
			},
			Root: root,
		},
	}
	a.Speech = &speech.Service{
		Root:       root,
		Transcoder: &speech.FFmpeg{Path: cfg.FFmpegPath},
		Recognizer: &speech.OpenAIRecognizer{
			Client:   llm.NewOpenAIProvider(cfg.SpeechBaseURL, cfg.SpeechAPIKey, backendHTTP),
			Model:    cfg.SpeechModel,
			Language: cfg.SpeechLanguage,
		},
	}
	tools, err := llmtools.NewMediaRegistry(llmtools.MediaDeps{Renderer: a.Renderer, Vision: a.Vision, Speech: a.Speech})
	if err != nil {
		return nil, fmt.Errorf("build tool registry: %w", err)
	}
	a.Tools = tools

	if cfg.VisionAPIKey == "" {
		log.Warn().Msg("GOOGLE_API_KEY not set; image extraction calls will fail")
	}
	log.Debug().
		Str("sandbox", cfg.SandboxDir).
		Str("vision_model", cfg.VisionModel).
		Str("speech_model", cfg.SpeechModel).
		Str("ffmpeg", cfg.FFmpegPath).
		Msg("services configured")
	return a, nil
}

// Config returns the effective configuration, defaults included.
func (a *App) Config() Config { return a.cfg }
