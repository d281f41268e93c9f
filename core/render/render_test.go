package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/gaurav-prasanna/chatmark/core"
)

func sampleTranscript() core.Transcript {
	return core.Transcript{
		Title: "ChatGPT Conversation",
		Turns: []core.Turn{
			{Role: core.RoleHuman, Content: "Is Go fast?"},
			{Role: core.RoleAgent, Content: "## Answer\n\nYes ([example.com](https://example.com/x)).\n\n- compiled\n- concurrent\n\n```go\nfmt.Println(1)\n```"},
		},
		Meta: core.Metadata{Source: "saved/chat.html", PageTitle: "Go speed", ConvertedAt: "2024-05-01T12:00:00Z"},
	}
}

func TestAssemble(t *testing.T) {
	turns := []core.Turn{
		{Role: core.RoleHuman, Content: "Hi"},
		{Role: core.RoleAgent, Content: "Hello back"},
	}

	got := Assemble("Title", turns, Labels{Human: "H", Agent: "A"})
	assert.Equal(t, "# Title\n\n## H\n\nHi\n\n---\n\n## A\n\nHello back\n\n---", got)
}

func TestAssembleDefaultLabels(t *testing.T) {
	got := Assemble(DefaultTitle, []core.Turn{{Role: core.RoleHuman, Content: "Hi"}}, DefaultLabels())
	assert.Equal(t, "# ChatGPT Conversation\n\n## 🧑 User\n\nHi\n\n---", got)
}

func TestAssembleCollapsesBlankLines(t *testing.T) {
	got := Assemble("T", []core.Turn{{Role: core.RoleAgent, Content: "\n\na\n\n\n\nb\n\n"}}, DefaultLabels())
	assert.Equal(t, "# T\n\n## 🤖 Assistant\n\na\n\nb\n\n---", got)
	assert.NotContains(t, got, "\n\n\n")
}

func TestAssembleNoTurns(t *testing.T) {
	assert.Equal(t, "# T", Assemble("T", nil, DefaultLabels()))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, Labels{Human: "🧑 User", Agent: "🤖 Assistant"}, DefaultLabels())
	assert.Equal(t, "Human", Labels{}.For(core.RoleHuman))
	assert.Equal(t, "Agent", Labels{}.For(core.RoleAgent))
	assert.Equal(t, "Me", Labels{Human: "Me"}.For(core.RoleHuman))
	assert.Equal(t, "Assistant", RoleLabel("", "assistant"))
}

func TestMarkdownRenderer(t *testing.T) {
	r := NewMarkdownRenderer(DefaultLabels(), false)
	out, err := r.Render(sampleTranscript())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(out), "# ChatGPT Conversation\n\n## 🧑 User\n\nIs Go fast?\n\n---\n\n## 🤖 Assistant"))
	assert.True(t, strings.HasSuffix(string(out), "```\n\n---\n"))
	assert.Equal(t, ".md", r.Extension())
}

func TestMarkdownRendererFrontMatter(t *testing.T) {
	out, err := NewMarkdownRenderer(DefaultLabels(), true).Render(sampleTranscript())
	require.NoError(t, err)

	parts := strings.SplitN(string(out), "---\n", 3)
	require.Len(t, parts, 3)
	assert.Empty(t, parts[0])

	var fm map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &fm))
	assert.Equal(t, "ChatGPT Conversation", fm["title"])
	assert.Equal(t, "saved/chat.html", fm["source"])
	assert.Equal(t, "Go speed", fm["page_title"])
	assert.Equal(t, 2, fm["turns"])

	assert.True(t, strings.HasPrefix(parts[2], "\n# ChatGPT Conversation"))
}

func TestJSONRenderer(t *testing.T) {
	r := NewJSONRenderer(DefaultLabels())
	out, err := r.Render(sampleTranscript())
	require.NoError(t, err)
	assert.Equal(t, ".json", r.Extension())

	var got core.TranscriptJSON
	require.NoError(t, json.Unmarshal(out, &got))

	assert.Equal(t, "ChatGPT Conversation", got.Title)
	assert.Equal(t, "saved/chat.html", got.Metadata.Source)
	require.Len(t, got.Turns, 2)

	human := got.Turns[0]
	assert.Equal(t, core.RoleHuman, human.Role)
	assert.Equal(t, "🧑 User", human.Label)
	assert.Equal(t, "Is Go fast?", human.Text)
	assert.Zero(t, human.Citations)

	agent := got.Turns[1]
	assert.Equal(t, 1, agent.Index)
	assert.Equal(t, "🤖 Assistant", agent.Label)
	assert.Equal(t, []core.Heading{{Level: 2, Text: "Answer"}}, agent.Headings)
	assert.Equal(t, []core.Link{{Text: "example.com", Href: "https://example.com/x"}}, agent.Links)
	assert.Equal(t, 1, agent.Citations)
	assert.Equal(t, 1, agent.CodeBlocks)
	assert.Equal(t, 2, agent.ListItems)
	require.Len(t, agent.Sections, 1)
	assert.Equal(t, "Answer", agent.Sections[0].Heading)
	assert.Contains(t, agent.Text, "Yes (example.com).")
}

func TestPDFRenderer(t *testing.T) {
	r := NewPDFRenderer(DefaultLabels())
	out, err := r.Render(sampleTranscript())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, ".pdf", r.Extension())
}

func TestPlainLabel(t *testing.T) {
	assert.Equal(t, "User", plainLabel("🧑 User"))
	assert.Equal(t, "Assistant", plainLabel("🤖 Assistant"))
	assert.Equal(t, "Plain", plainLabel("Plain"))
}

func TestHTMLRenderer(t *testing.T) {
	tr := sampleTranscript()
	tr.Title = "Go & speed"

	r := NewHTMLRenderer(DefaultLabels())
	out, err := r.Render(tr)
	require.NoError(t, err)
	html := string(out)

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "<title>Go &amp; speed</title>")
	assert.Contains(t, html, "<h2>🤖 Assistant</h2>")
	assert.Contains(t, html, `<a href="https://example.com/x">example.com</a>`)
	assert.Contains(t, html, "<hr />")
	assert.Equal(t, ".html", r.Extension())
}

func TestRenderersImplementInterface(t *testing.T) {
	for _, r := range []core.Renderer{
		NewMarkdownRenderer(DefaultLabels(), false),
		NewJSONRenderer(DefaultLabels()),
		NewPDFRenderer(DefaultLabels()),
		NewHTMLRenderer(DefaultLabels()),
	} {
		assert.NotEmpty(t, r.Extension())
	}
}
