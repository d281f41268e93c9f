// Package output handles file naming and writing for chatmark outputs.
// For a single input, filenames are derived from the URL or file name
// (e.g., chatgpt_com_c_abc.md, saved_chat.md). For a batch, filenames
// mirror the input's relative path.
package output

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Writer writes rendered output to disk.
type Writer struct {
	OutputDir string
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Writer{OutputDir: outputDir}, nil
}

// WriteOnly writes the output for a single input as a flat file.
func (w *Writer) WriteOnly(source string, data []byte, ext string) (string, error) {
	path := filepath.Join(w.OutputDir, FlatName(source)+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", path, err)
	}
	return path, nil
}

// WriteAll writes the output for one input of a batch rooted at root,
// mirroring its location.
// Example: root=saved, source=saved/2024/chat.html → <out>/2024/chat.md
// Example: source=https://chatgpt.com/share/abc → <out>/share/abc.md
func (w *Writer) WriteAll(root, source string, data []byte, ext string) (string, error) {
	rel, err := relativeName(root, source)
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(w.OutputDir, rel+ext)
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}

	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", fullPath, err)
	}
	return fullPath, nil
}

// relativeName returns the extensionless output path for source.
func relativeName(root, source string) (string, error) {
	if isURL(source) {
		parsed, err := url.Parse(source)
		if err != nil {
			return "", fmt.Errorf("parsing URL: %w", err)
		}
		urlPath := strings.Trim(parsed.Path, "/")
		if urlPath == "" {
			urlPath = "index"
		}
		return filepath.FromSlash(urlPath), nil
	}

	rel := filepath.Base(source)
	if root != "" {
		if r, err := filepath.Rel(root, source); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	return strings.TrimSuffix(rel, filepath.Ext(rel)), nil
}

// FlatName converts a URL or file path into a flat filename without
// extension.
// Example: https://chatgpt.com/c/abc → chatgpt_com_c_abc
// Example: ./saved chat.html → saved_chat
func FlatName(source string) string {
	if !isURL(source) {
		base := filepath.Base(source)
		return sanitize(strings.TrimSuffix(base, filepath.Ext(base)))
	}

	parsed, err := url.Parse(source)
	if err != nil {
		return sanitize(source)
	}

	parts := []string{sanitize(parsed.Host)}
	path := strings.Trim(parsed.Path, "/")
	if path != "" {
		for _, seg := range strings.Split(path, "/") {
			parts = append(parts, sanitize(seg))
		}
	}
	return strings.Join(parts, "_")
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// sanitize replaces non-alphanumeric characters with underscores.
func sanitize(s string) string {
	var b strings.Builder
	for _, ch := range s {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
