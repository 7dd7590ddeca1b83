package app

import "time"

// Config holds runtime configuration for the media extraction services.
type Config struct {
	// SandboxDir confines local image and audio paths.
	SandboxDir string

	// Vision backend (Gemini OpenAI-compatible endpoint by default)
	VisionBaseURL string
	VisionModel   string
	VisionAPIKey  string

	// Speech backend (OpenAI-compatible /audio/transcriptions)
	SpeechBaseURL  string
	SpeechModel    string
	SpeechAPIKey   string
	SpeechLanguage string
	FFmpegPath     string

	// Browser
	BrowserBin       string
	BrowserNoSandbox bool
	Stealth          bool
	RenderTimeout    time.Duration

	// Image fetches
	FetchTimeout time.Duration
	UserAgent    string

	Verbose bool
}
