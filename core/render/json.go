// Package render — JSON renderer.
// Builds structured JSON from a transcript. Each turn's Markdown is parsed
// for structural information (headings, links, citations, code blocks,
// tables, lists) without inferring anything about its meaning.
package render

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/chatmark/core"
)

// JSONRenderer produces structured JSON output from a transcript.
type JSONRenderer struct {
	Labels Labels
}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer(labels Labels) *JSONRenderer {
	return &JSONRenderer{Labels: labels}
}

// Render converts the transcript into its JSON form.
func (r *JSONRenderer) Render(t core.Transcript) ([]byte, error) {
	out := core.TranscriptJSON{
		Title:    t.Title,
		Metadata: t.Meta,
		Turns:    make([]core.TurnJSON, 0, len(t.Turns)),
	}
	for i, turn := range t.Turns {
		out.Turns = append(out.Turns, turnJSON(i, turn, r.Labels.For(turn.Role)))
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}

func turnJSON(index int, turn core.Turn, label string) core.TurnJSON {
	md := turn.Content
	headings := extractHeadings(md)
	return core.TurnJSON{
		Index:      index,
		Role:       turn.Role,
		Label:      label,
		Markdown:   md,
		Text:       stripMarkdown(md),
		Sections:   buildSections(md, headings),
		Headings:   headings,
		Links:      extractLinks(md),
		Citations:  countCitations(md),
		CodeBlocks: countCodeBlocks(md),
		Tables:     countTables(md),
		ListItems:  countListItems(md),
	}
}

// --- Markdown parsing helpers ---

var headingRegex = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

func extractHeadings(md string) []core.Heading {
	matches := headingRegex.FindAllStringSubmatch(md, -1)
	headings := make([]core.Heading, 0, len(matches))
	for _, m := range matches {
		headings = append(headings, core.Heading{
			Level: len(m[1]),
			Text:  strings.TrimSpace(m[2]),
		})
	}
	return headings
}

// linkRegex matches Markdown links [text](url), skipping images.
var linkRegex = regexp.MustCompile(`(^|[^!])\[([^\]]*)\]\(([^)\s]+)\)`)

func extractLinks(md string) []core.Link {
	matches := linkRegex.FindAllStringSubmatch(md, -1)
	links := make([]core.Link, 0, len(matches))
	for _, m := range matches {
		links = append(links, core.Link{Text: m[2], Href: m[3]})
	}
	return links
}

// citationRegex matches a rendered citation cluster "([domain](href))".
var citationRegex = regexp.MustCompile(`\(\[[^\]]+\]\([^)\s]+\)\)`)

func countCitations(md string) int {
	return len(citationRegex.FindAllString(md, -1))
}

func buildSections(md string, headings []core.Heading) []core.Section {
	if len(headings) == 0 {
		return nil
	}

	sections := make([]core.Section, 0, len(headings))
	var (
		current *core.Section
		body    []string
	)
	flush := func() {
		if current != nil {
			current.Text = strings.TrimSpace(strings.Join(body, "\n"))
			sections = append(sections, *current)
		}
	}

	next := 0
	for _, line := range strings.Split(md, "\n") {
		if headingRegex.MatchString(line) && next < len(headings) {
			flush()
			current = &core.Section{Heading: headings[next].Text, Level: headings[next].Level}
			body = nil
			next++
			continue
		}
		if current != nil {
			body = append(body, line)
		}
	}
	flush()
	return sections
}

// countCodeBlocks counts fenced code blocks (``` delimited).
func countCodeBlocks(md string) int {
	return strings.Count(md, "```") / 2
}

// tableRowRegex matches table separator rows (|---|).
var tableRowRegex = regexp.MustCompile(`(?m)^\|[-:| ]+\|$`)

func countTables(md string) int {
	return len(tableRowRegex.FindAllString(md, -1))
}

// listItemRegex matches list items (lines starting with -, * or 1.).
var listItemRegex = regexp.MustCompile(`(?m)^[ \t]*(?:[-*]|\d+\.)[ \t]`)

func countListItems(md string) int {
	return len(listItemRegex.FindAllString(md, -1))
}

var (
	emphasisRegex   = regexp.MustCompile(`\*{1,3}([^*]+)\*{1,3}`)
	inlineCodeRegex = regexp.MustCompile("`([^`]+)`")
	blankRunRegex   = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown removes common Markdown formatting to produce plain text.
func stripMarkdown(md string) string {
	text := headingRegex.ReplaceAllString(md, "$2")
	text = emphasisRegex.ReplaceAllString(text, "$1")
	text = linkRegex.ReplaceAllString(text, "$1$2")
	text = strings.ReplaceAll(text, "```", "")
	text = inlineCodeRegex.ReplaceAllString(text, "$1")
	text = blankRunRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
