package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestToolsList(t *testing.T) {
	out, err := run(t, "--sandbox", t.TempDir(), "tools", "list")
	if err != nil {
		t.Fatalf("tools list: %v", err)
	}
	var specs []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(out), &specs); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(specs) != 3 || specs[0].Name != "get_rendered_html" {
		t.Fatalf("unexpected specs: %+v", specs)
	}
}

func TestToolsList_OpenAIFormat(t *testing.T) {
	out, err := run(t, "--sandbox", t.TempDir(), "tools", "list", "--openai")
	if err != nil {
		t.Fatalf("tools list: %v", err)
	}
	if !strings.Contains(out, `"type": "function"`) || !strings.Contains(out, `"transcribe_audio"`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestTranscribe_MissingFilePrintsErrorString(t *testing.T) {
	out, err := run(t, "--sandbox", t.TempDir(), "transcribe", "missing.mp3")
	if err != nil {
		t.Fatalf("extraction failures must not fail the command: %v", err)
	}
	if !strings.HasPrefix(out, "Error: ") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestOCR_UnreadableImageIsErrorEnvelope(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("plain text"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := run(t, "--sandbox", dir, "ocr", "notes.txt")
	if err != nil {
		t.Fatalf("ocr: %v", err)
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if m["engine"] != "gemini-vision" || m["error"] == "" || m["text"] != "" {
		t.Fatalf("unexpected envelope: %v", m)
	}
}

func TestToolsCall_SchemaErrorFailsCommand(t *testing.T) {
	if _, err := run(t, "--sandbox", t.TempDir(), "tools", "call", "ocr_image_tool", `{"prompt":"x"}`); err == nil {
		t.Fatalf("expected schema error")
	}
	if _, err := run(t, "--sandbox", t.TempDir(), "tools", "call", "no_such_tool"); err == nil {
		t.Fatalf("expected unknown tool error")
	}
}

func TestConfigFileAndFlagPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "mediascribe.yaml")
	if err := os.WriteFile(cfgPath, []byte("sandbox: "+filepath.Join(dir, "from-file")+"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	flagDir := filepath.Join(dir, "from-flag")
	if err := os.MkdirAll(flagDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Setenv("SANDBOX_DIR", "")
	out, err := run(t, "--config", cfgPath, "--sandbox", flagDir, "transcribe", "a.mp3")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if !strings.Contains(out, "from-flag") {
		t.Fatalf("flag should win over file: %q", out)
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil || !strings.HasPrefix(out, "mediascribe ") {
		t.Fatalf("version: %q %v", out, err)
	}
}
