package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Failure kinds shared by every extraction path. Callers classify with errors.Is.
var (
	ErrUnsupportedInputKind = errors.New("unsupported input kind")
	ErrFetch                = errors.New("fetch failed")
	ErrFileNotFound         = errors.New("file not found")
	ErrTranscode            = errors.New("transcode failed")
	ErrRecognition          = errors.New("recognition failed")
	ErrBackend              = errors.New("backend error")
)

// EmptyTranscript is the error message used when speech recognition yields nothing.
const EmptyTranscript = "Empty transcript"

// Result is the uniform extraction envelope: exactly one of text or error is
// set and Engine always names the backend that produced it.
type Result struct {
	text   string
	err    string
	failed bool
	Engine string
}

// Success returns a result carrying extracted text. Surrounding whitespace is
// stripped and the text is NFC-normalized.
func Success(text, engine string) Result {
	return Result{text: norm.NFC.String(strings.TrimSpace(text)), Engine: engine}
}

// Failure returns a result carrying err's message.
func Failure(err error, engine string) Result {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Result{err: msg, failed: true, Engine: engine}
}

// Failuref is Failure with a formatted message.
func Failuref(engine, format string, args ...any) Result {
	return Failure(fmt.Errorf(format, args...), engine)
}

// OK reports whether the result carries text.
func (r Result) OK() bool { return !r.failed }

// Text returns the extracted text, or "" for failures.
func (r Result) Text() string { return r.text }

// Error returns the failure message, or "" for successes.
func (r Result) Error() string { return r.err }

// Legacy renders the result as a plain string: the text on success and
// "Error: <message>" on failure.
func (r Result) Legacy() string {
	if r.failed {
		return "Error: " + r.err
	}
	return r.text
}

type wireResult struct {
	Text   *string `json:"text,omitempty"`
	Error  *string `json:"error,omitempty"`
	Engine string  `json:"engine"`
}

// MarshalJSON emits {"text","engine"} or {"error","engine"}.
func (r Result) MarshalJSON() ([]byte, error) {
	w := wireResult{Engine: r.Engine}
	if r.failed {
		msg := r.err
		w.Error = &msg
	} else {
		text := r.text
		w.Text = &text
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts the shape produced by MarshalJSON. An envelope with
// both or neither of text/error is rejected.
func (r *Result) UnmarshalJSON(b []byte) error {
	var w wireResult
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	switch {
	case w.Text != nil && w.Error != nil:
		return errors.New("result: both text and error present")
	case w.Text != nil:
		*r = Result{text: *w.Text, Engine: w.Engine}
	case w.Error != nil:
		*r = Result{err: *w.Error, failed: true, Engine: w.Engine}
	default:
		return errors.New("result: neither text nor error present")
	}
	return nil
}

// Guard runs fn and converts a panic into a failure result for engine.
// Every extraction entry point wraps its body with Guard.
func Guard(engine string, fn func() Result) (out Result) {
	defer func() {
		if rec := recover(); rec != nil {
			out = Failuref(engine, "internal error: %v", rec)
		}
	}()
	out = fn()
	if out.Engine == "" {
		out.Engine = engine
	}
	return out
}
