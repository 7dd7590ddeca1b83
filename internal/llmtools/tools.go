package llmtools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
)

// ToolSpec is one callable function as advertised to a model.
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	JSONSchema  json.RawMessage `json:"parameters"`
}

// ToolCall is a function call requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// EncodeTools converts specs into an OpenAI-compatible tools array.
func EncodeTools(specs []ToolSpec) []openai.Tool {
	out := make([]openai.Tool, 0, len(specs))
	for _, s := range specs {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.JSONSchema,
			},
		})
	}
	return out
}

// ParseToolCalls extracts function calls from the first choice of resp.
func ParseToolCalls(resp openai.ChatCompletionResponse) []ToolCall {
	if len(resp.Choices) == 0 {
		return nil
	}
	msg := resp.Choices[0].Message
	out := make([]ToolCall, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		if tc.Type != openai.ToolTypeFunction {
			continue
		}
		out = append(out, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return out
}

// validateAgainstSchema checks value against the JSON Schema subset the tool
// contracts use: type, properties, required, additionalProperties (boolean),
// items, enum and minLength. Unknown keywords are ignored.
func validateAgainstSchema(value any, schema json.RawMessage) error {
	if len(schema) == 0 {
		return nil
	}
	var s map[string]any
	if err := json.Unmarshal(schema, &s); err != nil {
		return err
	}
	return validateNode(value, s, "")
}

func validateNode(value any, s map[string]any, path string) error {
	fail := func(format string, args ...any) error {
		msg := fmt.Sprintf(format, args...)
		if path != "" {
			msg = path + ": " + msg
		}
		return errors.New("schema: " + msg)
	}

	if enum, ok := s["enum"].([]any); ok && !inEnum(value, enum) {
		return fail("value not in enum")
	}

	typ, _ := s["type"].(string)
	switch typ {
	case "object", "":
		obj, ok := value.(map[string]any)
		if !ok {
			return fail("expected object")
		}
		if req, ok := s["required"].([]any); ok {
			for _, r := range req {
				if name, ok := r.(string); ok {
					if _, present := obj[name]; !present {
						return fail("missing required field: %s", name)
					}
				}
			}
		}
		props, _ := s["properties"].(map[string]any)
		for k, v := range obj {
			if sub, ok := props[k].(map[string]any); ok {
				if err := validateNode(v, sub, joinPath(path, k)); err != nil {
					return err
				}
				continue
			}
			if ap, ok := s["additionalProperties"].(bool); ok && !ap {
				return fail("additional property not allowed: %s", k)
			}
		}
	case "array":
		arr, ok := value.([]any)
		if !ok {
			return fail("expected array")
		}
		if items, ok := s["items"].(map[string]any); ok {
			for i, elem := range arr {
				if err := validateNode(elem, items, fmt.Sprintf("%s[%d]", path, i)); err != nil {
					return err
				}
			}
		}
	case "string":
		str, ok := value.(string)
		if !ok {
			return fail("expected string")
		}
		if min, ok := s["minLength"].(float64); ok && utf8.RuneCountInString(strings.TrimSpace(str)) < int(min) {
			return fail("string shorter than %d", int(min))
		}
	case "integer":
		if f, ok := value.(float64); !ok || f != float64(int64(f)) {
			return fail("expected integer")
		}
	case "number":
		if _, ok := value.(float64); !ok {
			return fail("expected number")
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fail("expected boolean")
		}
	}
	return nil
}

func inEnum(value any, enum []any) bool {
	for _, e := range enum {
		if e == value {
			return true
		}
	}
	return false
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
