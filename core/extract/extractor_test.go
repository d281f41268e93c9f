package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/chatmark/core"
	"github.com/gaurav-prasanna/chatmark/core/citation"
	"github.com/gaurav-prasanna/chatmark/core/classify"
	"github.com/gaurav-prasanna/chatmark/core/normalize"
)

func block(t *testing.T, role core.Role, html string) classify.Block {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	sel := doc.Find("body").Children().First()
	require.Equal(t, 1, sel.Length())
	return classify.Block{Node: sel, Role: role}
}

func newExtractor() *ContentExtractor {
	return New(normalize.New(), DefaultOptions(), nil)
}

func extract(t *testing.T, role core.Role, html string) string {
	t.Helper()
	turn, ok := newExtractor().Extract(context.Background(), block(t, role, html))
	require.True(t, ok, "expected content")
	assert.Equal(t, role, turn.Role)
	return turn.Content
}

func TestExtractHuman(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "plain text container",
			html: `<div data-message-author-role="user"><div class="whitespace-pre-wrap">  Hello  </div></div>`,
			want: "Hello",
		},
		{
			name: "markdown typed by the user is kept verbatim",
			html: `<div><div class="whitespace-pre-wrap">**not bold** &lt;b&gt; [x](y)</div></div>`,
			want: "**not bold** <b> [x](y)",
		},
		{
			name: "first paragraph",
			html: `<div><p>Para</p><p>Two</p></div>`,
			want: "Para",
		},
		{
			name: "block text",
			html: `<div> just the block </div>`,
			want: "just the block",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extract(t, core.RoleHuman, tt.html))
		})
	}
}

func TestExtractAgentSingleCitation(t *testing.T) {
	got := extract(t, core.RoleAgent, `<div><div class="markdown"><a class="ms-1" href="https://example.com/x">[1]</a></div></div>`)

	assert.Equal(t, "([example.com](https://example.com/x))", got)
	assert.NotContains(t, got, "[1](https://example.com/x)")
}

func TestExtractAgentCitationGroup(t *testing.T) {
	got := extract(t, core.RoleAgent, `<div><div class="markdown"><p>Claim<a class="ms-1" href="https://a.com/1">1</a><a class="ms-1" href="https://b.com/2">2</a> and more.</p></div></div>`)

	assert.Equal(t, "Claim ([a.com](https://a.com/1)) ([b.com](https://b.com/2)) and more.", got)
}

func TestExtractAgentBlobLink(t *testing.T) {
	got := extract(t, core.RoleAgent, `<div class="markdown"><p>See <a href="blob:https://chat.example/1">upload.png</a></p></div>`)

	assert.Equal(t, "See upload.png", got)
}

func TestExtractAgentLiteralText(t *testing.T) {
	assert.Equal(t, "just text", extract(t, core.RoleAgent, `<div><div class="markdown"> just text </div></div>`))
}

func TestExtractAgentPrefersResearchReport(t *testing.T) {
	got := extract(t, core.RoleAgent, `<div>
<div class="deep-research-result"><h2>Report</h2><p>Body</p></div>
<div class="markdown"><p>short</p></div>
</div>`)

	assert.Contains(t, got, "## Report")
	assert.Contains(t, got, "Body")
	assert.NotContains(t, got, "short")
}

func TestExtractAgentSecondaryContainer(t *testing.T) {
	long := strings.Repeat("y", 200)
	x60 := strings.Repeat("x", 60)
	y70 := strings.Repeat("y", 70)
	x120 := strings.Repeat("x", 120)

	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "much longer secondary replaces",
			html: `<div><div class="markdown"><p>Short.</p></div><div class="border-token-border-sharp"><div class="markdown"><p>` + long + `</p></div></div></div>`,
			want: long,
		},
		{
			name: "comparable secondary is appended",
			html: `<div><div class="markdown"><p>` + x60 + `</p></div><div class="border-token-border-sharp"><div class="markdown"><p>` + y70 + `</p></div></div></div>`,
			want: x60 + "\n\n---\n\n" + y70,
		},
		{
			name: "secondary used when nothing was captured",
			html: `<div><div class="markdown"></div><div class="border-token-border-sharp"><div class="markdown"><p>Only here</p></div></div></div>`,
			want: "Only here",
		},
		{
			name: "long primary ignores secondary",
			html: `<div><div class="markdown"><p>` + x120 + `</p></div><div class="border-token-border-sharp"><div class="markdown"><p>` + long + `</p></div></div></div>`,
			want: x120,
		},
		{
			name: "primary inside the secondary wrapper is not repeated",
			html: `<div><div class="border-token-border-sharp"><div class="markdown"><p>Short.</p></div></div></div>`,
			want: "Short.",
		},
		{
			name: "empty secondary leaves primary alone",
			html: `<div><div class="markdown"><p>Short.</p></div><div class="border-token-border-sharp"><div class="markdown"></div></div></div>`,
			want: "Short.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extract(t, core.RoleAgent, tt.html))
		})
	}
}

func TestExtractAgentRegistryPerContainer(t *testing.T) {
	x60 := strings.Repeat("x", 60)
	got := extract(t, core.RoleAgent, `<div>
<div class="markdown"><p>`+x60+`<a class="ms-1" href="https://a.com/1">1</a></p></div>
<div class="border-token-border-sharp"><div class="markdown"><p>yy<a class="ms-1" href="https://b.com/2">2</a></p></div></div>
</div>`)

	assert.Equal(t, x60+" ([a.com](https://a.com/1))\n\n---\n\nyy ([b.com](https://b.com/2))", got)
	assert.NotContains(t, got, "[[CITE")
}

func TestExtractEmptyBlock(t *testing.T) {
	e := newExtractor()

	_, ok := e.Extract(context.Background(), block(t, core.RoleAgent, `<div><div class="markdown"> </div></div>`))
	assert.False(t, ok)

	_, ok = e.Extract(context.Background(), block(t, core.RoleHuman, `<div><div class="whitespace-pre-wrap">
	</div></div>`))
	assert.False(t, ok)
}

type failingNormalizer struct{}

func (failingNormalizer) Normalize(context.Context, string, *citation.Registry) (string, error) {
	return "", errors.New("boom")
}

func TestExtractDegradesToText(t *testing.T) {
	e := New(failingNormalizer{}, DefaultOptions(), nil)
	turn, ok := e.Extract(context.Background(), block(t, core.RoleAgent, `<div><div class="markdown"><p>Plain <b>words</b></p></div></div>`))

	require.True(t, ok)
	assert.Equal(t, "Plain words", turn.Content)
}

func TestExtractMinLengthZeroSkipsSecondary(t *testing.T) {
	e := New(normalize.New(), Options{MinLength: 0, ReplaceRatio: 1.5}, nil)
	turn, ok := e.Extract(context.Background(), block(t, core.RoleAgent, `<div><div class="markdown"><p>Short.</p></div><div class="border-token-border-sharp"><div class="markdown"><p>`+strings.Repeat("y", 50)+`</p></div></div></div>`))

	require.True(t, ok)
	assert.Equal(t, "Short.", turn.Content)
}
