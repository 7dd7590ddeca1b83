package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/mediascribe/internal/app"
)

type globalOptions struct {
	configPath    string
	envFiles      []string
	sandbox       string
	verbose       bool
	browserBin    string
	noSandbox     bool
	stealth       bool
	renderTimeout time.Duration
	visionModel   string
	speechModel   string
	ffmpeg        string

	app *app.App
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	o := &globalOptions{}
	root := &cobra.Command{
		Use:   "mediascribe",
		Short: "Render pages and extract text from images and audio",
		Long: `mediascribe renders web pages in a headless browser, lists the images and
audio they reference, reads text out of images with a vision model and
transcribes audio files. Results are printed as JSON on stdout.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.setup(cmd)
		},
	}
	root.SetOut(stdout)

	pf := root.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "c", "", "YAML or JSON config file")
	pf.StringSliceVar(&o.envFiles, "env-file", []string{".env"}, "dotenv files to load (missing files are ignored)")
	pf.StringVar(&o.sandbox, "sandbox", "", "directory local files are resolved under (default LLMFiles)")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")
	pf.StringVar(&o.browserBin, "browser-bin", "", "Chromium binary (default: auto-detect)")
	pf.BoolVar(&o.noSandbox, "no-sandbox", false, "disable the Chromium sandbox")
	pf.BoolVar(&o.stealth, "stealth", false, "open pages in stealth mode")
	pf.DurationVar(&o.renderTimeout, "render-timeout", 0, "bound for one page render (default 60s)")
	pf.StringVar(&o.visionModel, "vision-model", "", "vision model name")
	pf.StringVar(&o.speechModel, "speech-model", "", "transcription model name")
	pf.StringVar(&o.ffmpeg, "ffmpeg", "", "ffmpeg binary")

	root.AddCommand(
		newRenderCmd(o),
		newOCRCmd(o),
		newTranscribeCmd(o),
		newToolsCmd(o),
		newVersionCmd(),
	)
	return root
}

// setup resolves configuration with precedence flags > env > file > defaults.
func (o *globalOptions) setup(cmd *cobra.Command) error {
	if err := app.LoadEnvFiles(o.envFiles...); err != nil {
		return err
	}
	var cfg app.Config
	if o.configPath != "" {
		fc, err := app.LoadConfigFile(o.configPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	flags := cmd.Flags()
	setString := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	setString("sandbox", &cfg.SandboxDir, o.sandbox)
	setString("browser-bin", &cfg.BrowserBin, o.browserBin)
	setString("vision-model", &cfg.VisionModel, o.visionModel)
	setString("speech-model", &cfg.SpeechModel, o.speechModel)
	setString("ffmpeg", &cfg.FFmpegPath, o.ffmpeg)
	if flags.Changed("no-sandbox") {
		cfg.BrowserNoSandbox = o.noSandbox
	}
	if flags.Changed("stealth") {
		cfg.Stealth = o.stealth
	}
	if flags.Changed("render-timeout") {
		cfg.RenderTimeout = o.renderTimeout
	}
	if flags.Changed("verbose") {
		cfg.Verbose = o.verbose
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	o.app = a
	log.Debug().Str("command", cmd.Name()).Msg("configured")
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
