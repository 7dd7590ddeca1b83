// Package sandbox confines local file access to a single root directory.
package sandbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperifyio/mediascribe/internal/result"
)

// DefaultRoot is the directory used when no root is configured.
const DefaultRoot = "LLMFiles"

// Root is a sandbox directory. The zero value uses DefaultRoot.
type Root string

func (r Root) dir() string {
	s := strings.TrimSpace(string(r))
	if s == "" {
		return DefaultRoot
	}
	return filepath.Clean(s)
}

// Resolve joins p under the root unless p already starts with it. Paths that
// escape the root after cleaning are rejected.
func (r Root) Resolve(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("empty path: %w", result.ErrFileNotFound)
	}
	root := r.dir()
	full := filepath.Clean(p)
	if !r.Contains(full) {
		full = filepath.Join(root, p)
	}
	if !r.Contains(full) {
		return "", fmt.Errorf("path %q escapes sandbox %q: %w", p, root, result.ErrFileNotFound)
	}
	return full, nil
}

// Contains reports whether the cleaned path lies inside the root. Both must
// be relative or both absolute.
func (r Root) Contains(p string) bool {
	rel, err := filepath.Rel(r.dir(), filepath.Clean(p))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ReadFile resolves p and reads it. A missing file yields ErrFileNotFound.
func (r Root) ReadFile(p string) ([]byte, error) {
	full, err := r.Resolve(p)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", full, result.ErrFileNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", full, err)
	}
	return b, nil
}

// Stat resolves p and checks that it exists and is a regular file.
func (r Root) Stat(p string) (string, error) {
	full, err := r.Resolve(p)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", full, result.ErrFileNotFound)
		}
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory: %w", full, result.ErrFileNotFound)
	}
	return full, nil
}
