package output

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gaurav-prasanna/chatmark/core"
)

const (
	PublishName       = "chatgpt_conversation.md"
	DescriptionSuffix = ".description.txt"
)

// FilePublisher publishes a transcript by dropping it into a directory,
// where a sync client or another tool can pick it up.
type FilePublisher struct {
	Dir string
}

// NewFilePublisher creates a FilePublisher writing into dir.
func NewFilePublisher(dir string) *FilePublisher {
	return &FilePublisher{Dir: dir}
}

var _ core.Publisher = (*FilePublisher)(nil)

// Publish writes markdown and its description and returns the document's
// file:// URL. An unusable directory is reported as core.ErrPublishNetwork;
// an empty document is rejected with a *core.PublishStatusError.
func (p *FilePublisher) Publish(ctx context.Context, markdown, description string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(markdown) == "" {
		return "", &core.PublishStatusError{
			StatusCode: http.StatusUnprocessableEntity,
			Message:    "empty document",
		}
	}

	dir, err := filepath.Abs(p.Dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrPublishNetwork, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrPublishNetwork, err)
	}

	path := filepath.Join(dir, PublishName)
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrPublishNetwork, err)
	}
	if description != "" {
		sidecar := strings.TrimSuffix(path, filepath.Ext(path)) + DescriptionSuffix
		if err := os.WriteFile(sidecar, []byte(description+"\n"), 0o644); err != nil {
			return "", fmt.Errorf("%w: %v", core.ErrPublishNetwork, err)
		}
	}

	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String(), nil
}
