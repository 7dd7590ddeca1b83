// Package speech transcodes an audio file to PCM WAV with ffmpeg and sends it
// to a speech-to-text backend.
package speech

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/mediascribe/internal/result"
	"github.com/hyperifyio/mediascribe/internal/sandbox"
)

// Engine tags every speech result.
const Engine = "speech-to-text"

// DefaultTimeout bounds transcoding plus recognition.
const DefaultTimeout = 5 * time.Minute

// Transcoder converts any ffmpeg-readable input into 16-bit PCM WAV at out.
type Transcoder interface {
	Transcode(ctx context.Context, in, out string) error
}

// Recognizer turns a WAV file into text.
type Recognizer interface {
	Recognize(ctx context.Context, wavPath string) (string, error)
}

// Service resolves a sandboxed path, transcodes it to a temporary WAV file
// and recognizes it. The temporary file never outlives a call.
type Service struct {
	Root       sandbox.Root
	Transcoder Transcoder
	Recognizer Recognizer
	// TempDir holds intermediate WAV files. Empty means os.TempDir.
	TempDir string
	// Timeout bounds one call. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Extract never returns an error or panics; failures are carried in the Result.
func (s *Service) Extract(ctx context.Context, path string) result.Result {
	return result.Guard(Engine, func() result.Result {
		started := time.Now()
		text, err := s.transcribe(ctx, path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("transcription failed")
			return result.Failure(err, Engine)
		}
		if strings.TrimSpace(text) == "" {
			log.Warn().Str("path", path).Msg("empty transcript")
			return result.Failuref(Engine, "%s", result.EmptyTranscript)
		}
		log.Info().Str("path", path).Int("chars", len(text)).Dur("took", time.Since(started)).Msg("audio transcribed")
		return result.Success(text, Engine)
	})
}

// Transcribe returns the transcript, or "Error: <message>" on failure.
func (s *Service) Transcribe(ctx context.Context, path string) string {
	return s.Extract(ctx, path).Legacy()
}

func (s *Service) transcribe(ctx context.Context, path string) (string, error) {
	if s.Transcoder == nil || s.Recognizer == nil {
		return "", fmt.Errorf("%w: speech pipeline not configured", result.ErrRecognition)
	}
	full, err := s.Root.Stat(path)
	if err != nil {
		return "", err
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tmp, err := os.CreateTemp(s.TempDir, "mediascribe_*.wav")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %v", result.ErrTranscode, err)
	}
	wav := tmp.Name()
	_ = tmp.Close()
	defer func() {
		if err := os.Remove(wav); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", wav).Msg("remove temp wav")
		}
	}()

	log.Debug().Str("in", full).Str("out", wav).Msg("transcoding")
	if err := s.Transcoder.Transcode(ctx, full, wav); err != nil {
		return "", err
	}
	text, err := s.Recognizer.Recognize(ctx, wav)
	if err != nil {
		return "", err
	}
	return text, nil
}
