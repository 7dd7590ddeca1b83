package speech

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/mediascribe/internal/llm"
	"github.com/hyperifyio/mediascribe/internal/result"
)

// DefaultModel is the transcription model requested from the backend.
const DefaultModel = openai.Whisper1

// OpenAIRecognizer calls an OpenAI-compatible /audio/transcriptions endpoint.
type OpenAIRecognizer struct {
	Client   llm.Transcriber
	Model    string
	Language string
}

func (r *OpenAIRecognizer) Recognize(ctx context.Context, wavPath string) (string, error) {
	if r.Client == nil {
		return "", fmt.Errorf("%w: no transcription client configured", result.ErrRecognition)
	}
	model := r.Model
	if model == "" {
		model = DefaultModel
	}
	resp, err := r.Client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    model,
		FilePath: wavPath,
		Language: r.Language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", result.ErrRecognition, err)
	}
	return resp.Text, nil
}
