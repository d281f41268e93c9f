package output

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/chatmark/core"
)

func TestFlatName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://chatgpt.com/c/abc-123", "chatgpt_com_c_abc_123"},
		{"https://example.com/", "example_com"},
		{"saved chat.html", "saved_chat"},
		{filepath.Join("exports", "2024", "chat.htm"), "chat"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FlatName(tt.in))
		})
	}
}

func TestWriteOnly(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	require.NoError(t, err)

	path, err := w.WriteOnly("https://chatgpt.com/c/abc", []byte("# T\n"), ".md")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chatgpt_com_c_abc.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# T\n", string(data))
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	w, err := New(filepath.Join(dir, "out"))
	require.NoError(t, err)

	root := filepath.Join(dir, "saved")
	path, err := w.WriteAll(root, filepath.Join(root, "2024", "chat.html"), []byte("x"), ".md")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "2024", "chat.md"), path)
	assert.FileExists(t, path)

	path, err = w.WriteAll("", "https://chatgpt.com/share/abc/", []byte("x"), ".json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "share", "abc.json"), path)

	path, err = w.WriteAll("", "https://chatgpt.com", []byte("x"), ".md")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "index.md"), path)
}

func TestWriteAllOutsideRoot(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	require.NoError(t, err)

	path, err := w.WriteAll(filepath.Join(dir, "a"), filepath.Join(dir, "b", "chat.html"), []byte("x"), ".md")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chat.md"), path)
}

func TestFilePublisher(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "published")
	p := NewFilePublisher(dir)

	u, err := p.Publish(context.Background(), "# T\n", "ChatGPT conversation")
	require.NoError(t, err)

	path := filepath.Join(dir, PublishName)
	assert.Equal(t, "file://"+filepath.ToSlash(path), u)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# T\n", string(data))

	desc, err := os.ReadFile(filepath.Join(dir, "chatgpt_conversation"+DescriptionSuffix))
	require.NoError(t, err)
	assert.Equal(t, "ChatGPT conversation\n", string(desc))
}

func TestFilePublisherRejectsEmpty(t *testing.T) {
	_, err := NewFilePublisher(t.TempDir()).Publish(context.Background(), "  \n", "")

	var statusErr *core.PublishStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.StatusCode)
	assert.Equal(t, "publish: rejected with status 422: empty document", err.Error())
}

func TestFilePublisherUnreachable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := NewFilePublisher(filepath.Join(blocker, "sub")).Publish(context.Background(), "# T", "")
	assert.ErrorIs(t, err, core.ErrPublishNetwork)
}
