// Package render provides output renderers for transcripts.
// This file implements the Markdown renderer, which is the canonical
// output: every other renderer starts from the assembled document.
package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/nao1215/markdown"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/gaurav-prasanna/chatmark/core"
)

// DefaultTitle heads a transcript when no title is configured.
const DefaultTitle = "ChatGPT Conversation"

var blankLineRuns = regexp.MustCompile(`\n{3,}`)

// Labels are the section headings used for each role.
type Labels struct {
	Human string `json:"human" yaml:"human"`
	Agent string `json:"agent" yaml:"agent"`
}

// DefaultLabels returns "🧑 User" and "🤖 Assistant".
func DefaultLabels() Labels {
	return Labels{
		Human: RoleLabel("🧑", "user"),
		Agent: RoleLabel("🤖", "assistant"),
	}
}

// RoleLabel joins an emoji and a capitalized role word.
func RoleLabel(emoji, word string) string {
	return strings.TrimSpace(emoji + " " + cases.Title(language.English).String(word))
}

// For returns the label for role. An unset label falls back to the
// capitalized role name.
func (l Labels) For(role core.Role) string {
	var label string
	switch role {
	case core.RoleHuman:
		label = l.Human
	case core.RoleAgent:
		label = l.Agent
	}
	if label == "" {
		label = RoleLabel("", string(role))
	}
	return label
}

// Assemble builds the transcript document: a title heading, then per turn
// a labeled heading, the content and a horizontal rule. Runs of blank
// lines are collapsed and the result is trimmed.
func Assemble(title string, turns []core.Turn, labels Labels) string {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)
	md.H1(title).PlainText("")
	for _, t := range turns {
		md.H2(labels.For(t.Role)).
			PlainText("").
			PlainText(t.Content).
			PlainText("").
			HorizontalRule().
			PlainText("")
	}

	out := strings.ReplaceAll(md.String(), "\r\n", "\n")
	out = blankLineRuns.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// frontMatter is the optional YAML header of the Markdown output.
type frontMatter struct {
	Title       string `yaml:"title"`
	Source      string `yaml:"source,omitempty"`
	PageTitle   string `yaml:"page_title,omitempty"`
	ConvertedAt string `yaml:"converted_at,omitempty"`
	Turns       int    `yaml:"turns"`
}

// MarkdownRenderer renders the assembled transcript, optionally preceded
// by YAML front matter.
type MarkdownRenderer struct {
	Labels      Labels
	FrontMatter bool
}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer(labels Labels, frontMatter bool) *MarkdownRenderer {
	return &MarkdownRenderer{Labels: labels, FrontMatter: frontMatter}
}

// Render returns the transcript document.
func (r *MarkdownRenderer) Render(t core.Transcript) ([]byte, error) {
	body := Assemble(t.Title, t.Turns, r.Labels)
	if !r.FrontMatter {
		return []byte(body + "\n"), nil
	}

	header, err := yaml.Marshal(frontMatter{
		Title:       t.Title,
		Source:      t.Meta.Source,
		PageTitle:   t.Meta.PageTitle,
		ConvertedAt: t.Meta.ConvertedAt,
		Turns:       len(t.Turns),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n\n")
	buf.WriteString(body)
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}
