package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/hyperifyio/mediascribe/internal/result"
)

// DefaultFFmpeg is looked up on PATH when FFmpeg.Path is empty.
const DefaultFFmpeg = "ffmpeg"

// FFmpeg shells out to the ffmpeg binary.
type FFmpeg struct {
	Path string
	// SampleRate and Channels describe the output. Zero keeps 16000 Hz mono.
	SampleRate int
	Channels   int
}

// Args returns the ffmpeg argument list for one conversion.
func (f *FFmpeg) Args(in, out string) []string {
	rate, ch := f.SampleRate, f.Channels
	if rate <= 0 {
		rate = 16000
	}
	if ch <= 0 {
		ch = 1
	}
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostdin", "-y",
		"-i", in,
		"-ac", fmt.Sprint(ch), "-ar", fmt.Sprint(rate),
		"-acodec", "pcm_s16le", "-f", "wav",
		out,
	}
}

func (f *FFmpeg) Transcode(ctx context.Context, in, out string) error {
	bin := f.Path
	if bin == "" {
		bin = DefaultFFmpeg
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, f.Args(in, out)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %v: %s", result.ErrTranscode, err, msg)
		}
		return fmt.Errorf("%w: %v", result.ErrTranscode, err)
	}
	return nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
