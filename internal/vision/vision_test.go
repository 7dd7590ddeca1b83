package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/mediascribe/internal/imagesrc"
	"github.com/hyperifyio/mediascribe/internal/llm"
	"github.com/hyperifyio/mediascribe/internal/result"
	"github.com/hyperifyio/mediascribe/internal/sandbox"
)

type stubClient struct {
	resp    openai.ChatCompletionResponse
	err     error
	panics  bool
	lastReq openai.ChatCompletionRequest
	calls   int
}

func (s *stubClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.calls++
	s.lastReq = req
	if s.panics {
		panic("sdk exploded")
	}
	return s.resp, s.err
}

func textResponse(s string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{
		Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: s},
	}}}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestExtract_SendsImageThenPrompt(t *testing.T) {
	c := &stubClient{resp: textResponse("  HELLO\n")}
	s := &Service{Client: c}

	r := s.Extract(context.Background(), Request{Image: pngBytes(t)})
	if !r.OK() || r.Text() != "HELLO" || r.Engine != Engine {
		t.Fatalf("unexpected result: %+v text=%q err=%q", r, r.Text(), r.Error())
	}
	if c.lastReq.Model != DefaultModel {
		t.Fatalf("model=%q", c.lastReq.Model)
	}
	parts := c.lastReq.Messages[0].MultiContent
	if len(parts) != 2 || parts[0].Type != openai.ChatMessagePartTypeImageURL || parts[1].Type != openai.ChatMessagePartTypeText {
		t.Fatalf("unexpected parts: %+v", parts)
	}
	if !strings.HasPrefix(parts[0].ImageURL.URL, "data:image/png;base64,") {
		t.Fatalf("unexpected image url prefix: %.40s", parts[0].ImageURL.URL)
	}
	if parts[1].Text != DefaultPrompt {
		t.Fatalf("prompt=%q", parts[1].Text)
	}
}

func TestExtract_CustomPromptAndLocalPath(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "scan.png"), pngBytes(t), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c := &stubClient{resp: textResponse("A, B")}
	s := &Service{Client: c, Model: "gemini-custom", Loader: &imagesrc.Normalizer{Root: sandbox.Root(root)}}

	r := s.Extract(context.Background(), Request{Image: "scan.png", Prompt: "List the labels."})
	if !r.OK() || r.Text() != "A, B" {
		t.Fatalf("unexpected result: %q %q", r.Text(), r.Error())
	}
	if c.lastReq.Model != "gemini-custom" || c.lastReq.Messages[0].MultiContent[1].Text != "List the labels." {
		t.Fatalf("unexpected request: %+v", c.lastReq)
	}
}

func TestExtract_Failures(t *testing.T) {
	cases := []struct {
		name    string
		client  *stubClient
		image   any
		wantSub string
		called  bool
	}{
		{"unsupported kind", &stubClient{}, 42, "unsupported input kind", false},
		{"undecodable bytes", &stubClient{}, []byte("not an image"), "unsupported input kind", false},
		{"missing file", &stubClient{}, "nope/missing.png", "file not found", false},
		{"backend error", &stubClient{err: errors.New("quota exceeded")}, nil, "quota exceeded", true},
		{"no choices", &stubClient{resp: openai.ChatCompletionResponse{}}, nil, "no choices", true},
		{"empty message", &stubClient{resp: textResponse("")}, nil, "backend error", true},
		{"sdk panic", &stubClient{panics: true}, nil, "internal error: sdk exploded", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			img := tc.image
			if img == nil {
				img = pngBytes(t)
			}
			s := &Service{Client: tc.client, Loader: &imagesrc.Normalizer{Root: sandbox.Root(t.TempDir())}}
			r := s.Extract(context.Background(), Request{Image: img})
			if r.OK() || !strings.Contains(r.Error(), tc.wantSub) || r.Engine != Engine {
				t.Fatalf("want failure containing %q, got ok=%v err=%q engine=%q", tc.wantSub, r.OK(), r.Error(), r.Engine)
			}
			if (tc.client.calls > 0) != tc.called {
				t.Fatalf("backend called=%d, want called=%v", tc.client.calls, tc.called)
			}
			b, _ := json.Marshal(r)
			if strings.Contains(string(b), `"text"`) {
				t.Fatalf("failure envelope carries text: %s", b)
			}
		})
	}
}

func TestResponseText_FallsBackToFirstPart(t *testing.T) {
	resp := openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{
		Message: openai.ChatCompletionMessage{MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: "from part"},
			{Type: openai.ChatMessagePartTypeText, Text: "ignored"},
		}},
	}}}
	got, err := ResponseText(resp)
	if err != nil || got != "from part" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestResponseText_BlankIsBackendError(t *testing.T) {
	cases := map[string]openai.ChatCompletionResponse{
		"blank content": textResponse("  \n "),
		"blank part": {Choices: []openai.ChatCompletionChoice{{
			Message:      openai.ChatCompletionMessage{MultiContent: []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: "\t"}}},
			FinishReason: openai.FinishReasonStop,
		}}},
	}
	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ResponseText(resp); !errors.Is(err, result.ErrBackend) {
				t.Fatalf("expected ErrBackend, got %v", err)
			}
		})
	}

	res := (&Service{Client: &stubClient{resp: textResponse(" \n\t ")}}).Extract(context.Background(), Request{Image: pngBytes(t)})
	if res.OK() {
		t.Fatalf("blank response must not be a success: %+v", res)
	}
}

func TestExtract_OverOpenAICompatibleHTTP(t *testing.T) {
	var seen struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content []struct {
				Type     string `json:"type"`
				Text     string `json:"text"`
				ImageURL *struct {
					URL string `json:"url"`
				} `json:"image_url"`
			} `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header=%q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &seen); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Stop sign"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	s := &Service{Client: llm.NewOpenAIProvider(srv.URL+"/v1beta/openai", "test-key", srv.Client())}
	r := s.Extract(context.Background(), Request{Image: pngBytes(t), Prompt: "What does the sign say?"})
	if !r.OK() || r.Text() != "Stop sign" {
		t.Fatalf("unexpected result: %q %q", r.Text(), r.Error())
	}
	if seen.Model != DefaultModel || len(seen.Messages) != 1 || len(seen.Messages[0].Content) != 2 {
		t.Fatalf("unexpected wire request: %+v", seen)
	}
	if seen.Messages[0].Content[0].ImageURL == nil || seen.Messages[0].Content[1].Text != "What does the sign say?" {
		t.Fatalf("unexpected parts: %+v", seen.Messages[0].Content)
	}
}
