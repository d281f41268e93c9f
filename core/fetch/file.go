package fetch

import (
	"context"
	"fmt"
	"os"

	"github.com/gaurav-prasanna/chatmark/core"
)

// FileFetcher reads a conversation page saved to disk.
type FileFetcher struct{}

// NewFile creates a FileFetcher.
func NewFile() *FileFetcher {
	return &FileFetcher{}
}

// Fetch reads the file at path.
func (f *FileFetcher) Fetch(ctx context.Context, path string) (*core.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &core.FetchResult{Source: path, HTML: string(data)}, nil
}
