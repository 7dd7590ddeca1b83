package app

import (
	"os"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	fill := func(dst *string, keys ...string) {
		if *dst != "" {
			return
		}
		*dst = firstEnv(keys...)
	}
	fill(&cfg.SandboxDir, "SANDBOX_DIR")
	fill(&cfg.VisionBaseURL, "VISION_BASE_URL")
	fill(&cfg.VisionModel, "VISION_MODEL")
	fill(&cfg.VisionAPIKey, "GOOGLE_API_KEY", "GEMINI_API_KEY")
	fill(&cfg.SpeechBaseURL, "SPEECH_BASE_URL")
	fill(&cfg.SpeechModel, "SPEECH_MODEL")
	fill(&cfg.SpeechAPIKey, "SPEECH_API_KEY", "OPENAI_API_KEY")
	fill(&cfg.SpeechLanguage, "SPEECH_LANGUAGE")
	fill(&cfg.FFmpegPath, "FFMPEG_PATH")
	fill(&cfg.BrowserBin, "BROWSER_BIN")
	fill(&cfg.UserAgent, "USER_AGENT")

	if cfg.RenderTimeout == 0 {
		cfg.RenderTimeout = envDuration("RENDER_TIMEOUT")
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = envDuration("FETCH_TIMEOUT")
	}

	setBool := func(dst *bool, key string) {
		if *dst {
			return
		}
		if v, ok := envBool(key); ok {
			*dst = v
		}
	}
	setBool(&cfg.BrowserNoSandbox, "BROWSER_NO_SANDBOX")
	setBool(&cfg.Stealth, "BROWSER_STEALTH")
	setBool(&cfg.Verbose, "VERBOSE")
}

// ApplyEnvOverrides overrides cfg fields with environment variables that are
// set. It lets env take precedence over a config file while flags, applied
// afterwards, stay highest.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	override := func(dst *string, keys ...string) {
		if v := firstEnv(keys...); v != "" {
			*dst = v
		}
	}
	override(&cfg.SandboxDir, "SANDBOX_DIR")
	override(&cfg.VisionBaseURL, "VISION_BASE_URL")
	override(&cfg.VisionModel, "VISION_MODEL")
	override(&cfg.VisionAPIKey, "GOOGLE_API_KEY", "GEMINI_API_KEY")
	override(&cfg.SpeechBaseURL, "SPEECH_BASE_URL")
	override(&cfg.SpeechModel, "SPEECH_MODEL")
	override(&cfg.SpeechAPIKey, "SPEECH_API_KEY", "OPENAI_API_KEY")
	override(&cfg.SpeechLanguage, "SPEECH_LANGUAGE")
	override(&cfg.FFmpegPath, "FFMPEG_PATH")
	override(&cfg.BrowserBin, "BROWSER_BIN")
	override(&cfg.UserAgent, "USER_AGENT")

	if d := envDuration("RENDER_TIMEOUT"); d > 0 {
		cfg.RenderTimeout = d
	}
	if d := envDuration("FETCH_TIMEOUT"); d > 0 {
		cfg.FetchTimeout = d
	}
	for key, dst := range map[string]*bool{
		"BROWSER_NO_SANDBOX": &cfg.BrowserNoSandbox,
		"BROWSER_STEALTH":    &cfg.Stealth,
		"VERBOSE":            &cfg.Verbose,
	} {
		if v, ok := envBool(key); ok {
			*dst = v
		}
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func envDuration(key string) time.Duration {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// envBool reports the parsed value and whether the variable held a
// recognizable boolean.
func envBool(key string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}
