package llmtools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// ToolHandler executes a tool with raw JSON arguments and returns a raw JSON
// result. Extraction failures are part of the result; a returned error means
// the call itself was malformed.
type ToolHandler func(ctx context.Context, args json.RawMessage) (json.RawMessage, error)

// ToolDefinition describes a callable tool.
// StableName must be lowercase snake_case and never change across versions.
type ToolDefinition struct {
	StableName   string
	SemVer       string
	Description  string
	JSONSchema   json.RawMessage
	Capabilities []string
	Handler      ToolHandler
}

// ToolMeta is a serializable view for listings and logs.
type ToolMeta struct {
	StableName   string   `json:"stable_name"`
	SemVer       string   `json:"semver"`
	Capabilities []string `json:"capabilities"`
}

// ErrUnknownTool is returned by Invoke for unregistered names.
var ErrUnknownTool = errors.New("unknown tool")

// Registry holds the available tools keyed by stable name.
type Registry struct {
	nameToDef map[string]ToolDefinition
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{nameToDef: make(map[string]ToolDefinition)}
}

var (
	nameRe   = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	semverRe = regexp.MustCompile(`^v?(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?$`)
)

// Register adds or replaces a tool definition after validating its name,
// version, schema and handler.
func (r *Registry) Register(def ToolDefinition) error {
	if def.StableName == "" || !nameRe.MatchString(def.StableName) {
		return fmt.Errorf("invalid stable name %q: must be lowercase snake_case starting with a letter", def.StableName)
	}
	if def.SemVer == "" || !semverRe.MatchString(def.SemVer) {
		return fmt.Errorf("invalid semver %q: must follow semantic versioning", def.SemVer)
	}
	if len(def.JSONSchema) == 0 || !isJSONObject(def.JSONSchema) {
		return errors.New("json schema must be a non-empty JSON object")
	}
	if def.Handler == nil {
		return errors.New("handler must not be nil")
	}
	caps := make([]string, 0, len(def.Capabilities))
	for _, c := range def.Capabilities {
		if c = strings.TrimSpace(c); c != "" {
			caps = append(caps, c)
		}
	}
	def.Capabilities = caps
	if r.nameToDef == nil {
		r.nameToDef = make(map[string]ToolDefinition)
	}
	r.nameToDef[def.StableName] = def
	return nil
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.nameToDef))
	for name := range r.nameToDef {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Specs returns tool specs sorted by stable name.
func (r *Registry) Specs() []ToolSpec {
	names := r.names()
	specs := make([]ToolSpec, 0, len(names))
	for _, name := range names {
		def := r.nameToDef[name]
		specs = append(specs, ToolSpec{
			Name:        def.StableName,
			Description: def.Description,
			JSONSchema:  def.JSONSchema,
		})
	}
	return specs
}

// Get returns a tool definition by stable name.
func (r *Registry) Get(stableName string) (ToolDefinition, bool) {
	def, ok := r.nameToDef[stableName]
	return def, ok
}

// Catalog returns ToolMeta entries sorted by stable name.
func (r *Registry) Catalog() []ToolMeta {
	names := r.names()
	out := make([]ToolMeta, 0, len(names))
	for _, name := range names {
		def := r.nameToDef[name]
		out = append(out, ToolMeta{
			StableName:   def.StableName,
			SemVer:       def.SemVer,
			Capabilities: append([]string(nil), def.Capabilities...),
		})
	}
	return out
}

// Invoke validates args against the tool's schema and runs its handler.
// Empty args are treated as {}.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	def, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if len(strings.TrimSpace(string(args))) == 0 {
		args = json.RawMessage(`{}`)
	}
	var value any
	if err := json.Unmarshal(args, &value); err != nil {
		return nil, fmt.Errorf("%s: invalid arguments: %w", name, err)
	}
	if err := validateAgainstSchema(value, def.JSONSchema); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	log.Debug().Str("tool", name).Msg("invoking tool")
	return def.Handler(ctx, args)
}

// Dispatch runs every function tool call in resp and returns one tool
// message per call, in order. Call errors are reported to the model as
// {"error": "..."} so the conversation can continue.
func (r *Registry) Dispatch(ctx context.Context, resp openai.ChatCompletionResponse) []openai.ChatCompletionMessage {
	calls := ParseToolCalls(resp)
	out := make([]openai.ChatCompletionMessage, 0, len(calls))
	for _, call := range calls {
		content, err := r.Invoke(ctx, call.Name, call.Arguments)
		if err != nil {
			log.Warn().Err(err).Str("tool", call.Name).Msg("tool call rejected")
			content, _ = json.Marshal(map[string]string{"error": err.Error()})
		}
		out = append(out, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Name:       call.Name,
			ToolCallID: call.ID,
			Content:    string(content),
		})
	}
	return out
}

func isJSONObject(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	_, ok := v.(map[string]any)
	return ok
}
