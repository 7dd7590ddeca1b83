package app

import (
	"strings"
	"time"

	"github.com/hyperifyio/mediascribe/internal/render"
	"github.com/hyperifyio/mediascribe/internal/sandbox"
	"github.com/hyperifyio/mediascribe/internal/speech"
	"github.com/hyperifyio/mediascribe/internal/vision"
)

const (
	defaultFetchTimeout = 10 * time.Second
	defaultUserAgent    = "mediascribe/1.0 (+https://github.com/hyperifyio/mediascribe)"
)

// ApplyDefaults fills every still-empty field with its built-in default.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, def string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = def
		}
	}
	setString(&cfg.SandboxDir, sandbox.DefaultRoot)
	setString(&cfg.VisionBaseURL, vision.GeminiBaseURL)
	setString(&cfg.VisionModel, vision.DefaultModel)
	setString(&cfg.SpeechModel, speech.DefaultModel)
	setString(&cfg.FFmpegPath, speech.DefaultFFmpeg)
	setString(&cfg.UserAgent, defaultUserAgent)
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = render.DefaultTimeout
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
}
