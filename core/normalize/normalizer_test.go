package normalize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/chatmark/core/citation"
)

func normalize(t *testing.T, html string, reg *citation.Registry) string {
	t.Helper()
	md, err := New().Normalize(context.Background(), html, reg)
	require.NoError(t, err)
	return md
}

func TestNormalizeSingleCitation(t *testing.T) {
	reg := citation.NewRegistry()
	md := normalize(t, `<p>Go is fast<a class="ms-1" href="https://example.com/x">[1]</a>.</p>`, reg)

	assert.Equal(t, "Go is fast[[CITE:0]].", md)
	require.Equal(t, 1, reg.Len())
	e, ok := reg.Resolve(0)
	require.True(t, ok)
	assert.False(t, e.IsGroup())
	assert.Equal(t, citation.Citation{Domain: "example.com", Target: "https://example.com/x"}, e.Single())
}

func TestNormalizeCitationGroup(t *testing.T) {
	reg := citation.NewRegistry()
	md := normalize(t, `<p>Claim<a class="ms-1" href="https://a.com/1">1</a><a class="ms-1" href="https://b.com/2">2</a><a class="ms-1" href="https://c.com/3">3</a> end</p>`, reg)

	assert.Equal(t, "Claim[[CITE_GROUP_START]][[CITE_GROUP:0]] end", md)
	require.Equal(t, 1, reg.Len())
	e, _ := reg.Resolve(0)
	require.True(t, e.IsGroup())
	members := e.Members()
	require.Len(t, members, 3)
	assert.Equal(t, "a.com", members[0].Domain)
	assert.Equal(t, "b.com", members[1].Domain)
	assert.Equal(t, "c.com", members[2].Domain)
	assert.Equal(t, 0, reg.Pending())
}

func TestNormalizeGroupFollowedByRegularLink(t *testing.T) {
	reg := citation.NewRegistry()
	md := normalize(t, `<p>x<a class="ms-1" href="https://a.com/1">1</a><a class="ms-1" href="https://b.com/2">2</a><a href="https://go.dev">Go</a></p>`, reg)

	assert.Equal(t, "x[[CITE_GROUP_START]][[CITE_GROUP:0]][Go](https://go.dev)", md)
	assert.Equal(t, 1, reg.Len())
}

func TestNormalizeCitationClassification(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{name: "badge class on anchor", html: `<p><a class="ms-1" href="https://x.com/a">x</a></p>`},
		{name: "badge class on parent", html: `<p><span class="ms-1"><a href="https://x.com/a">x</a></span></p>`},
		{name: "text fragment locator", html: `<p><a href="https://x.com/a#:~:text=hello">x</a></p>`},
		{name: "inline badge markup", html: `<p><a href="https://x.com/a"><span class="flex inline-flex">x</span></a></p>`},
		{name: "inline badge style", html: `<p><a href="https://x.com/a"><span style="display:inline-flex">x</span></a></p>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := citation.NewRegistry()
			md := normalize(t, tt.html, reg)
			assert.Equal(t, "[[CITE:0]]", md)
			assert.Equal(t, 1, reg.Len())
		})
	}
}

func TestNormalizeNonCitationAnchors(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{name: "regular link", html: `<p>See <a href="https://go.dev">Go</a></p>`, want: "See [Go](https://go.dev)"},
		{name: "blob link keeps text", html: `<p><a href="blob:https://chat.example/abc">image.png</a></p>`, want: "image.png"},
		{name: "blob link with badge class keeps text", html: `<p><a class="ms-1" href="blob:https://chat.example/abc">pasted</a></p>`, want: "pasted"},
		{name: "empty href keeps text", html: `<p><a href="">plain</a></p>`, want: "plain"},
		{name: "hash href keeps text", html: `<p><a href="#">decorative</a></p>`, want: "decorative"},
		{name: "missing href keeps text", html: `<p><a>bare</a></p>`, want: "bare"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := citation.NewRegistry()
			md := normalize(t, tt.html, reg)
			assert.Equal(t, tt.want, md)
			assert.Equal(t, 0, reg.Len())
			assert.NotContains(t, md, "blob:")
		})
	}
}

func TestNormalizeDropsBlobImages(t *testing.T) {
	md := normalize(t, `<p>pic <img src="blob:https://chat.example/1" alt="a"></p><p><img src="https://img.example/x.png" alt="kept"></p>`, citation.NewRegistry())
	assert.NotContains(t, md, "blob:")
	assert.Contains(t, md, "![kept](https://img.example/x.png)")
}

func TestNormalizeFlushesPendingBeforeRegularLink(t *testing.T) {
	reg := citation.NewRegistry()
	reg.Push(citation.New("https://a.com/1"))

	md := normalize(t, `<p><a href="https://go.dev">Go</a></p>`, reg)
	assert.Equal(t, "[[CITE_GROUP:0]][Go](https://go.dev)", md)
	assert.Equal(t, 0, reg.Pending())
}

func TestNormalizeFlushesPendingAtDocumentEnd(t *testing.T) {
	reg := citation.NewRegistry()
	reg.Push(citation.New("https://a.com/1"))
	reg.Push(citation.New("https://b.com/2"))

	md := normalize(t, `<p>text</p>`, reg)
	assert.Equal(t, "text[[CITE_GROUP:0]]", md)
	e, ok := reg.Resolve(0)
	require.True(t, ok)
	assert.Len(t, e.Members(), 2)
}

func TestNormalizeNumberingContinuesWithoutReset(t *testing.T) {
	reg := citation.NewRegistry()
	html := `<p>a<a class="ms-1" href="https://example.com/x">1</a></p>`

	assert.Equal(t, "a[[CITE:0]]", normalize(t, html, reg))
	assert.Equal(t, "a[[CITE:1]]", normalize(t, html, reg))

	reg.Reset()
	assert.Equal(t, "a[[CITE:0]]", normalize(t, html, reg))
}

func TestNormalizeWithoutRegistryRendersLinks(t *testing.T) {
	md := normalize(t, `<p><a class="ms-1" href="https://example.com/x">1</a></p>`, nil)
	assert.Equal(t, "[1](https://example.com/x)", md)
}

func TestNormalizeDefaultRules(t *testing.T) {
	md := normalize(t, `<h2>Title</h2><p>Some <strong>bold</strong> text.</p><pre><code>fmt.Println()</code></pre><ul><li>one</li><li>two</li></ul><hr>`, citation.NewRegistry())

	assert.Contains(t, md, "## Title")
	assert.Contains(t, md, "**bold**")
	assert.Contains(t, md, "```\nfmt.Println()\n```")
	assert.Contains(t, md, "- one")
	assert.Contains(t, md, "- two")
	assert.Contains(t, md, "---")
}

func TestNormalizeTable(t *testing.T) {
	md := normalize(t, `<table><thead><tr><th>A</th><th>B</th></tr></thead><tbody><tr><td>1</td><td>2</td></tr></tbody></table>`, citation.NewRegistry())
	assert.Contains(t, md, "| A")
	assert.Contains(t, md, "| 1")
}
