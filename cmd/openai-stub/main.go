// Command openai-stub serves canned OpenAI-compatible vision chat and audio
// transcription responses for local runs and smoke tests.
package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url"`
}

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	model := envOr("MODEL_ID", "test-model")
	addr := envOr("ADDR", ":8081")
	transcript := envOr("TRANSCRIPT", "stub transcript")

	log.Info().Str("addr", addr).Str("model", model).Msg("openai-stub listening")
	if err := http.ListenAndServe(addr, newMux(model, transcript)); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}

func newMux(model, transcript string) *http.ServeMux {
	mux := http.NewServeMux()
	models := func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"object": "list",
			"data":   []map[string]any{{"id": model, "object": "model"}},
		})
	}
	chat := func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		content, err := describeImage(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Debug().Str("model", req.Model).Msg("chat completion")
		writeJSON(w, map[string]any{
			"id":     "stub-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
	}
	transcribe := func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, "expected multipart form", http.StatusBadRequest)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}
		_ = f.Close()
		text := transcript
		if hdr.Size == 0 {
			text = ""
		}
		log.Debug().Str("file", hdr.Filename).Int64("bytes", hdr.Size).Msg("transcription")
		writeJSON(w, map[string]string{"text": text})
	}

	// Serve both the plain /v1 layout and Gemini's /v1beta/openai layout.
	for _, prefix := range []string{"/v1", "/v1beta/openai"} {
		mux.HandleFunc(prefix+"/models", models)
		mux.HandleFunc(prefix+"/chat/completions", chat)
		mux.HandleFunc(prefix+"/audio/transcriptions", transcribe)
	}
	return mux
}

// describeImage answers with what was received so callers can assert on it.
func describeImage(req chatRequest) (string, error) {
	for _, m := range req.Messages {
		var parts []contentPart
		if err := json.Unmarshal(m.Content, &parts); err != nil {
			continue
		}
		var image, prompt string
		for _, p := range parts {
			switch {
			case p.Type == "image_url" && p.ImageURL != nil:
				image = p.ImageURL.URL
			case p.Type == "text":
				prompt = p.Text
			}
		}
		if image == "" {
			continue
		}
		mime, size, err := inspectDataURL(image)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("stub saw %s image (%d bytes); prompt: %s", mime, size, prompt), nil
	}
	return "", fmt.Errorf("no image part in request")
}

func inspectDataURL(s string) (string, int, error) {
	head, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(head, "data:") || !strings.HasSuffix(head, ";base64") {
		return "", 0, fmt.Errorf("image_url must be a base64 data URL")
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", 0, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return strings.TrimSuffix(strings.TrimPrefix(head, "data:"), ";base64"), len(b), nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
