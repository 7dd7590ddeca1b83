// Package imagesrc normalizes the accepted image input shapes into bytes.
//
// An input is first classified into one of five Source variants, then loaded
// into raw bytes, then canonicalized into a Buffer the vision backend accepts.
package imagesrc

import (
	"fmt"
	"image"
	"strings"

	"github.com/hyperifyio/mediascribe/internal/result"
)

// Source is one of EmbeddedData, RemoteURL, LocalPath, RawBytes or Bitmap.
type Source interface {
	isSource()
	// Kind names the variant for logs.
	Kind() string
}

// EmbeddedData is a data URI such as "data:image/png;base64,....".
type EmbeddedData string

// RemoteURL is an http(s) URL fetched over the network.
type RemoteURL string

// LocalPath is a filename resolved under the sandbox root.
type LocalPath string

// RawBytes is an already loaded image.
type RawBytes []byte

// Bitmap is a decoded in-memory image, re-encoded to PNG when loaded.
type Bitmap struct {
	Image image.Image
}

func (EmbeddedData) isSource() {}
func (RemoteURL) isSource()    {}
func (LocalPath) isSource()    {}
func (RawBytes) isSource()     {}
func (Bitmap) isSource()       {}

func (EmbeddedData) Kind() string { return "embedded_data" }
func (RemoteURL) Kind() string    { return "remote_url" }
func (LocalPath) Kind() string    { return "local_path" }
func (RawBytes) Kind() string     { return "raw_bytes" }
func (Bitmap) Kind() string       { return "bitmap" }

// Classify maps an arbitrary value onto a Source. Strings are disambiguated in
// order: data URI, then http(s) URL, then local path.
func Classify(v any) (Source, error) {
	switch t := v.(type) {
	case Source:
		return t, nil
	case string:
		return classifyString(t), nil
	case []byte:
		return RawBytes(t), nil
	case image.Image:
		return Bitmap{Image: t}, nil
	}
	return nil, fmt.Errorf("%w: %T", result.ErrUnsupportedInputKind, v)
}

func classifyString(s string) Source {
	switch {
	case strings.HasPrefix(s, "data:"):
		return EmbeddedData(s)
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
		return RemoteURL(s)
	default:
		return LocalPath(s)
	}
}
