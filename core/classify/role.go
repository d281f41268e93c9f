package classify

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/gaurav-prasanna/chatmark/core"
)

// RoleAttr is the attribute the chat UI sets on each message element.
const RoleAttr = "data-message-author-role"

// Decision is a role signal's verdict for one block.
type Decision int

const (
	// Abstain defers to the next signal.
	Abstain Decision = iota
	// Assign settles the block's role.
	Assign
	// Skip drops the block from the transcript.
	Skip
)

// RoleSignal is one step of the role cascade.
type RoleSignal interface {
	Name() string
	Decide(block *goquery.Selection, index int) (core.Role, Decision)
}

var (
	roleMatcher       = cascadia.MustCompile("[" + RoleAttr + "]")
	plainTextMatcher  = cascadia.MustCompile(".whitespace-pre-wrap")
	markdownMatcher   = cascadia.MustCompile(".markdown")
	richOutputMatcher = cascadia.MustCompile(".markdown, .prose, .deep-research-result")
)

// explicitSignal reads the author-role attribute on the block or its first
// descendant carrying one. Roles other than user and assistant (system or
// tool turns) are skipped.
type explicitSignal struct{}

func (explicitSignal) Name() string { return "explicit" }

func (explicitSignal) Decide(block *goquery.Selection, _ int) (core.Role, Decision) {
	el := block
	if !block.IsMatcher(roleMatcher) {
		el = block.FindMatcher(roleMatcher).First()
	}
	v, ok := el.Attr(RoleAttr)
	if !ok {
		return "", Abstain
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "user":
		return core.RoleHuman, Assign
	case "assistant":
		return core.RoleAgent, Assign
	default:
		return "", Skip
	}
}

// structuralSignal infers the role from the styling of the content: a
// plain-text container without rendered Markdown is a human turn, rendered
// Markdown is an agent turn.
type structuralSignal struct{}

func (structuralSignal) Name() string { return "structural" }

func (structuralSignal) Decide(block *goquery.Selection, _ int) (core.Role, Decision) {
	if has(block, plainTextMatcher) && !has(block, markdownMatcher) {
		return core.RoleHuman, Assign
	}
	if has(block, richOutputMatcher) {
		return core.RoleAgent, Assign
	}
	return "", Abstain
}

// positionalSignal alternates roles by block position, human first.
// It guesses wrong on transcripts with consecutive same-role turns or a
// leading agent turn, and is only consulted when nothing else is known.
type positionalSignal struct{}

func (positionalSignal) Name() string { return "positional" }

func (positionalSignal) Decide(_ *goquery.Selection, index int) (core.Role, Decision) {
	if index%2 == 0 {
		return core.RoleHuman, Assign
	}
	return core.RoleAgent, Assign
}

// DefaultSignals returns the role cascade in priority order.
func DefaultSignals() []RoleSignal {
	return []RoleSignal{explicitSignal{}, structuralSignal{}, positionalSignal{}}
}

// has reports whether sel or one of its descendants matches m.
func has(sel *goquery.Selection, m goquery.Matcher) bool {
	return sel.IsMatcher(m) || sel.FindMatcher(m).Length() > 0
}
