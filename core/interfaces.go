// Package core defines the data model and pipeline interfaces for chatmark.
// Each stage of the pipeline is a clean, testable interface.
package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/gaurav-prasanna/chatmark/core/citation"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleHuman Role = "human"
	RoleAgent Role = "agent"
)

// FetchResult holds the raw HTML and response metadata from a fetch.
type FetchResult struct {
	Source     string
	StatusCode int
	HTML       string
}

// Turn is one role-attributed message of a transcript.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Metadata describes where a transcript came from.
type Metadata struct {
	Source      string `json:"source"`
	PageTitle   string `json:"page_title,omitempty"`
	ConvertedAt string `json:"converted_at"` // ISO8601
}

// Transcript is the ordered sequence of turns scraped from one page.
type Transcript struct {
	Title string
	Turns []Turn
	Meta  Metadata
}

// Section represents a heading-delimited section of a turn.
type Section struct {
	Heading string `json:"heading"`
	Level   int    `json:"level"`
	Text    string `json:"text"`
}

// Heading represents a single heading found in a turn.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Link represents a hyperlink found in a turn.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// TurnJSON is one turn of the JSON output with its parsed structure.
type TurnJSON struct {
	Index      int       `json:"index"`
	Role       Role      `json:"role"`
	Label      string    `json:"label"`
	Markdown   string    `json:"markdown"`
	Text       string    `json:"text"`
	Sections   []Section `json:"sections,omitempty"`
	Headings   []Heading `json:"headings"`
	Links      []Link    `json:"links"`
	Citations  int       `json:"citations"`
	CodeBlocks int       `json:"code_blocks"`
	Tables     int       `json:"tables"`
	ListItems  int       `json:"list_items"`
}

// TranscriptJSON is the complete JSON output for a single transcript.
type TranscriptJSON struct {
	Title    string     `json:"title"`
	Metadata Metadata   `json:"metadata"`
	Turns    []TurnJSON `json:"turns"`
}

// Fetcher retrieves the rendered HTML of a conversation page.
// source is a URL or a local path depending on the implementation.
type Fetcher interface {
	Fetch(ctx context.Context, source string) (*FetchResult, error)
}

// Normalizer converts an HTML fragment into Markdown, diverting citation
// anchors into reg.
type Normalizer interface {
	Normalize(ctx context.Context, html string, reg *citation.Registry) (string, error)
}

// Renderer converts a transcript into a final output format.
type Renderer interface {
	Render(t Transcript) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".md", ".pdf").
	Extension() string
}

// Publisher hands a finished Markdown document to an external destination
// and returns where it can be found.
type Publisher interface {
	Publish(ctx context.Context, markdown, description string) (string, error)
}

// ErrPublishNetwork reports that a publisher could not reach its destination.
var ErrPublishNetwork = errors.New("publish: destination unreachable")

// PublishStatusError reports that a publisher's destination rejected the
// document.
type PublishStatusError struct {
	StatusCode int
	Message    string
}

func (e *PublishStatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("publish: rejected with status %d", e.StatusCode)
	}
	return fmt.Sprintf("publish: rejected with status %d: %s", e.StatusCode, e.Message)
}
