package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the single-file configuration schema.
type FileConfig struct {
	Sandbox string `yaml:"sandbox" json:"sandbox"`

	Vision struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"vision" json:"vision"`

	Speech struct {
		BaseURL  string `yaml:"base" json:"base"`
		Model    string `yaml:"model" json:"model"`
		APIKey   string `yaml:"key" json:"key"`
		Language string `yaml:"language" json:"language"`
		FFmpeg   string `yaml:"ffmpeg" json:"ffmpeg"`
	} `yaml:"speech" json:"speech"`

	Browser struct {
		Bin       string   `yaml:"bin" json:"bin"`
		NoSandbox bool     `yaml:"noSandbox" json:"noSandbox"`
		Stealth   bool     `yaml:"stealth" json:"stealth"`
		Timeout   Duration `yaml:"timeout" json:"timeout"`
	} `yaml:"browser" json:"browser"`

	Fetch struct {
		Timeout   Duration `yaml:"timeout" json:"timeout"`
		UserAgent string   `yaml:"userAgent" json:"userAgent"`
	} `yaml:"fetch" json:"fetch"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// Duration accepts "30s"-style strings in YAML and JSON.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.parse(value.Value)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig fills fields of cfg that are still zero from fc.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	fill := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
		}
	}
	fill(&cfg.SandboxDir, fc.Sandbox)
	fill(&cfg.VisionBaseURL, fc.Vision.BaseURL)
	fill(&cfg.VisionModel, fc.Vision.Model)
	fill(&cfg.VisionAPIKey, fc.Vision.APIKey)
	fill(&cfg.SpeechBaseURL, fc.Speech.BaseURL)
	fill(&cfg.SpeechModel, fc.Speech.Model)
	fill(&cfg.SpeechAPIKey, fc.Speech.APIKey)
	fill(&cfg.SpeechLanguage, fc.Speech.Language)
	fill(&cfg.FFmpegPath, fc.Speech.FFmpeg)
	fill(&cfg.BrowserBin, fc.Browser.Bin)
	fill(&cfg.UserAgent, fc.Fetch.UserAgent)

	if cfg.RenderTimeout == 0 && fc.Browser.Timeout > 0 {
		cfg.RenderTimeout = time.Duration(fc.Browser.Timeout)
	}
	if cfg.FetchTimeout == 0 && fc.Fetch.Timeout > 0 {
		cfg.FetchTimeout = time.Duration(fc.Fetch.Timeout)
	}
	if !cfg.BrowserNoSandbox && fc.Browser.NoSandbox {
		cfg.BrowserNoSandbox = true
	}
	if !cfg.Stealth && fc.Browser.Stealth {
		cfg.Stealth = true
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

// ValidateConfig rejects settings no service can run with. Missing API keys
// are not errors: the affected service reports a backend error per call.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.SandboxDir) == "" {
		return errors.New("config: sandbox directory is required")
	}
	if strings.TrimSpace(cfg.VisionModel) == "" {
		return errors.New("config: vision.model is required (or set VISION_MODEL)")
	}
	if strings.TrimSpace(cfg.SpeechModel) == "" {
		return errors.New("config: speech.model is required (or set SPEECH_MODEL)")
	}
	if cfg.RenderTimeout < 0 || cfg.FetchTimeout < 0 {
		return errors.New("config: negative timeouts are not allowed")
	}
	return nil
}
