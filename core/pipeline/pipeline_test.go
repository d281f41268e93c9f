package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/chatmark/core"
	"github.com/gaurav-prasanna/chatmark/core/classify"
	"github.com/gaurav-prasanna/chatmark/core/extract"
	"github.com/gaurav-prasanna/chatmark/core/fetch"
	"github.com/gaurav-prasanna/chatmark/core/normalize"
	"github.com/gaurav-prasanna/chatmark/core/render"
	"github.com/gaurav-prasanna/chatmark/core/scrape"
)

const chatPage = `<html><head><title>Go</title></head><body>
<article data-testid="conversation-turn-1"><div data-message-author-role="user"><div class="whitespace-pre-wrap">Is Go fast?</div></div></article>
<article data-testid="conversation-turn-2"><div data-message-author-role="assistant"><div class="markdown"><p>Yes<a class="ms-1" href="https://go.dev/doc">1</a>.</p></div></div></article>
</body></html>`

const wantMarkdown = "# T\n\n## 🧑 User\n\nIs Go fast?\n\n---\n\n## 🤖 Assistant\n\nYes ([go.dev](https://go.dev/doc)).\n\n---"

func newPipeline(t *testing.T, r core.Renderer) *Pipeline {
	t.Helper()
	c, err := classify.New(nil, nil)
	require.NoError(t, err)
	s := scrape.New(c, extract.New(normalize.New(), extract.DefaultOptions(), nil), nil)

	if r == nil {
		r = render.NewMarkdownRenderer(render.DefaultLabels(), false)
	}
	return New(fetch.NewFile(), s, r, "T", render.DefaultLabels(), nil)
}

func writePage(t *testing.T, dir, name, html string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(html), 0o644))
	return path
}

func TestConvert(t *testing.T) {
	path := writePage(t, t.TempDir(), "chat.html", chatPage)

	r, err := newPipeline(t, nil).Convert(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, r.Input)
	assert.Equal(t, wantMarkdown+"\n", string(r.Data))
	assert.Equal(t, wantMarkdown, r.Markdown)
	assert.Equal(t, "Go", r.Transcript.Meta.PageTitle)
	assert.Len(t, r.Transcript.Turns, 2)
}

func TestConvertKeepsMarkdownForOtherFormats(t *testing.T) {
	path := writePage(t, t.TempDir(), "chat.html", chatPage)

	r, err := newPipeline(t, render.NewJSONRenderer(render.DefaultLabels())).Convert(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, string(r.Data), `"citations": 1`)
	assert.Equal(t, wantMarkdown, r.Markdown)
}

func TestConvertErrors(t *testing.T) {
	dir := t.TempDir()
	p := newPipeline(t, nil)

	_, err := p.Convert(context.Background(), filepath.Join(dir, "missing.html"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorContains(t, err, "fetch:")

	empty := writePage(t, dir, "empty.html", "<html><body><p>nothing here</p></body></html>")
	_, err = p.Convert(context.Background(), empty)
	assert.ErrorIs(t, err, scrape.ErrNoMessages)
	assert.ErrorContains(t, err, "extract:")
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	inputs := []string{
		writePage(t, dir, "a.html", chatPage),
		writePage(t, dir, "b.html", "<html><body></body></html>"),
		writePage(t, dir, "c.html", chatPage),
	}

	var (
		mu      sync.Mutex
		results = make([]*Result, len(inputs))
		errs    = make([]error, len(inputs))
	)
	err := newPipeline(t, nil).Batch(context.Background(), inputs, 2, func(i int, r *Result, err error) {
		mu.Lock()
		defer mu.Unlock()
		results[i], errs[i] = r, err
	})
	require.NoError(t, err)

	require.NoError(t, errs[0])
	assert.Equal(t, wantMarkdown, results[0].Markdown)
	assert.ErrorIs(t, errs[1], scrape.ErrNoMessages)
	assert.Nil(t, results[1])
	require.NoError(t, errs[2])
	assert.Equal(t, inputs[2], results[2].Input)
}

func TestBatchCanceled(t *testing.T) {
	path := writePage(t, t.TempDir(), "a.html", chatPage)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int
	err := newPipeline(t, nil).Batch(ctx, []string{path, path}, 1, func(int, *Result, error) { calls++ })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}
