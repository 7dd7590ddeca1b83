package imagesrc

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/hyperifyio/mediascribe/internal/result"
	"github.com/hyperifyio/mediascribe/internal/sandbox"
)

// Getter fetches a URL. *fetch.Client satisfies it.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// Normalizer loads Sources into raw image bytes.
type Normalizer struct {
	// Fetcher serves RemoteURL sources. Required only for those.
	Fetcher Getter
	// Root confines LocalPath sources.
	Root sandbox.Root
}

// Load returns the raw bytes behind src. Only RemoteURL and LocalPath sources
// perform I/O.
func (n *Normalizer) Load(ctx context.Context, src Source) ([]byte, error) {
	switch s := src.(type) {
	case EmbeddedData:
		return decodeDataURI(string(s))
	case RemoteURL:
		if n.Fetcher == nil {
			return nil, fmt.Errorf("%w: no fetcher configured", result.ErrFetch)
		}
		body, _, err := n.Fetcher.Get(ctx, string(s))
		if err != nil {
			return nil, err
		}
		return body, nil
	case LocalPath:
		return n.Root.ReadFile(string(s))
	case RawBytes:
		return []byte(s), nil
	case Bitmap:
		return EncodePNG(s.Image)
	default:
		return nil, fmt.Errorf("%w: %T", result.ErrUnsupportedInputKind, src)
	}
}

// LoadValue classifies v and loads it.
func (n *Normalizer) LoadValue(ctx context.Context, v any) ([]byte, error) {
	src, err := Classify(v)
	if err != nil {
		return nil, err
	}
	return n.Load(ctx, src)
}

// EncodePNG encodes img as PNG in memory.
func EncodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil bitmap", result.ErrUnsupportedInputKind)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeDataURI(s string) ([]byte, error) {
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return nil, fmt.Errorf("%w: data URI without comma", result.ErrUnsupportedInputKind)
	}
	payload := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s[comma+1:])
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(payload); err == nil {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: data URI payload is not base64", result.ErrUnsupportedInputKind)
}

// Buffer is a canonical image: bytes plus the MIME type sent to the backend.
type Buffer struct {
	Data     []byte
	MIMEType string
}

// DataURL renders the buffer as a base64 data URL.
func (b Buffer) DataURL() string {
	return "data:" + b.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(b.Data)
}

// passThrough lists formats vision backends accept as-is.
var passThrough = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// Canonicalize verifies data is a decodable still image. PNG, JPEG, GIF and
// WEBP are returned unchanged; any other decodable format is re-encoded to PNG.
func Canonicalize(data []byte) (Buffer, error) {
	if len(data) == 0 {
		return Buffer{}, fmt.Errorf("%w: empty image", result.ErrUnsupportedInputKind)
	}
	mime := http.DetectContentType(data)
	if passThrough[mime] {
		if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
			return Buffer{}, fmt.Errorf("%w: %s: %v", result.ErrUnsupportedInputKind, mime, err)
		}
		return Buffer{Data: data, MIMEType: mime}, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Buffer{}, fmt.Errorf("%w: undecodable image (%s): %v", result.ErrUnsupportedInputKind, mime, err)
	}
	out, err := EncodePNG(img)
	if err != nil {
		return Buffer{}, err
	}
	return Buffer{Data: out, MIMEType: "image/png"}, nil
}
