// Package source fetches raw location files from a local directory or an
// HTTP base URL.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Fetcher returns the raw bytes of a named location file.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// New selects a fetcher by the scheme of src: http(s) URLs use HTTPFetcher,
// anything else is treated as a directory.
func New(src string, timeout time.Duration, logger *slog.Logger) Fetcher {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return NewHTTPFetcher(src, timeout, logger)
	}
	return NewFileFetcher(src)
}

// FileFetcher reads location files from a directory.
type FileFetcher struct {
	dir string
}

// NewFileFetcher creates a fetcher rooted at dir.
func NewFileFetcher(dir string) *FileFetcher {
	return &FileFetcher{dir: dir}
}

// Fetch reads dir/name. Names may not escape the directory.
func (f *FileFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !filepath.IsLocal(name) {
		return nil, fmt.Errorf("invalid file name %q", name)
	}
	b, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return b, nil
}
