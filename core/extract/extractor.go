// Package extract turns a classified message block into turn content.
// It picks the right sub-tree of the block by role:
//  1. Human turns: the plain-text container, taken verbatim
//  2. Agent turns: the research report, else the rendered Markdown
//     container, with a secondary "sharp border" container as a fallback
//     when the primary result is short
//
// Every converted container gets its own citation registry and its own
// post-processing pass.
package extract

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/gaurav-prasanna/chatmark/core"
	"github.com/gaurav-prasanna/chatmark/core/citation"
	"github.com/gaurav-prasanna/chatmark/core/classify"
	"github.com/gaurav-prasanna/chatmark/core/postprocess"
	"github.com/gaurav-prasanna/chatmark/internal/log"
)

// Default thresholds for the secondary container check.
const (
	DefaultMinLength    = 100
	DefaultReplaceRatio = 1.5
)

// separator joins primary and secondary agent content.
const separator = "\n\n---\n\n"

// Sub-tree selectors, matched against the chat UI's class names.
var (
	plainText      = cascadia.MustCompile(".whitespace-pre-wrap")
	paragraph      = cascadia.MustCompile("p")
	researchReport = cascadia.MustCompile(".deep-research-result")
	markdownBody   = cascadia.MustCompile(".markdown")
	secondaryBody  = cascadia.MustCompile(".border-token-border-sharp .markdown")
	richMarkup     = cascadia.MustCompile("p, pre, code, ul, ol, table, h1, h2, h3, h4, h5, h6, blockquote, a[href]")
)

// Options tune agent extraction.
type Options struct {
	// MinLength is the content length, in characters, below which the
	// secondary container is consulted.
	MinLength int
	// ReplaceRatio is how many times longer the secondary content must be
	// to replace the primary content instead of being appended to it.
	ReplaceRatio float64
}

// DefaultOptions returns the stock thresholds.
func DefaultOptions() Options {
	return Options{MinLength: DefaultMinLength, ReplaceRatio: DefaultReplaceRatio}
}

// ContentExtractor extracts turn content from blocks. It is safe for
// concurrent use when its Normalizer is.
type ContentExtractor struct {
	norm   core.Normalizer
	opts   Options
	logger *slog.Logger
}

// New creates a ContentExtractor converting rich content with norm.
func New(norm core.Normalizer, opts Options, logger *slog.Logger) *ContentExtractor {
	if opts.MinLength < 0 {
		opts.MinLength = 0
	}
	if opts.ReplaceRatio <= 0 {
		opts.ReplaceRatio = DefaultReplaceRatio
	}
	return &ContentExtractor{norm: norm, opts: opts, logger: log.OrDiscard(logger)}
}

// Extract returns the turn for block. It returns false when the block
// yields no content.
func (e *ContentExtractor) Extract(ctx context.Context, block classify.Block) (core.Turn, bool) {
	var content string
	switch block.Role {
	case core.RoleHuman:
		content = e.Human(block.Node)
	case core.RoleAgent:
		content = e.Agent(ctx, block.Node)
	}
	e.logger.Debug("extracted block", "index", block.Index, "role", block.Role, "length", utf8.RuneCountInString(content))
	if content == "" {
		return core.Turn{}, false
	}
	return core.Turn{Role: block.Role, Content: content}, true
}

// Human returns the literal text of a human block. Markdown syntax typed
// by the user is kept as written.
func (e *ContentExtractor) Human(block *goquery.Selection) string {
	src := first(block, plainText)
	if src == nil {
		src = first(block, paragraph)
	}
	if src == nil {
		src = block
	}
	return strings.TrimSpace(src.Text())
}

// Agent returns the Markdown content of an agent block.
func (e *ContentExtractor) Agent(ctx context.Context, block *goquery.Selection) string {
	var (
		content string
		primary *goquery.Selection
	)
	if report := first(block, researchReport); report != nil {
		primary = report
		content = e.convert(ctx, report)
	} else {
		primary = first(block, markdownBody)
		if primary == nil {
			primary = block
		}
		if has(primary, richMarkup) {
			content = e.convert(ctx, primary)
		} else {
			content = strings.TrimSpace(primary.Text())
		}
	}

	if utf8.RuneCountInString(content) >= e.opts.MinLength {
		return content
	}

	secondary := first(block, secondaryBody)
	if secondary == nil || secondary.IsSelection(primary) {
		return content
	}
	extra := e.convert(ctx, secondary)
	have, got := utf8.RuneCountInString(content), utf8.RuneCountInString(extra)
	e.logger.Debug("checked secondary container", "primary_length", have, "secondary_length", got)

	switch {
	case extra == "":
		return content
	case float64(got) >= float64(have)*e.opts.ReplaceRatio:
		return extra
	default:
		return content + separator + extra
	}
}

// convert renders the inner HTML of sel as Markdown with a fresh registry.
// Conversion failures degrade to the container's literal text.
func (e *ContentExtractor) convert(ctx context.Context, sel *goquery.Selection) string {
	inner, err := sel.Html()
	if err != nil {
		e.logger.Warn("serializing container", "error", err)
		return strings.TrimSpace(sel.Text())
	}

	reg := citation.NewRegistry()
	md, err := e.norm.Normalize(ctx, inner, reg)
	if err != nil {
		e.logger.Warn("converting container", "error", err)
		return strings.TrimSpace(sel.Text())
	}

	md, unresolved := postprocess.Resolve(md, reg)
	if unresolved > 0 {
		e.logger.Warn("unresolved citation placeholders", "count", unresolved, "citations", reg.Len())
	}
	return strings.TrimSpace(postprocess.Repair(md))
}

func first(sel *goquery.Selection, m goquery.Matcher) *goquery.Selection {
	found := sel.FindMatcher(m).First()
	if found.Length() == 0 {
		return nil
	}
	return found
}

func has(sel *goquery.Selection, m goquery.Matcher) bool {
	return sel.IsMatcher(m) || sel.FindMatcher(m).Length() > 0
}
