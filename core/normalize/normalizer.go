// Package normalize converts transcript HTML into Markdown.
// It builds one html-to-markdown converter with the commonmark, table and
// strikethrough rules plus the citation rule in anchor.go. The citation
// rule diverts footnote badges into a citation.Registry.
package normalize

import (
	"context"
	"fmt"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/gaurav-prasanna/chatmark/core/citation"
)

// MarkdownNormalizer converts HTML fragments to Markdown.
// The converter itself is stateless between calls, so one MarkdownNormalizer
// may be shared by concurrent conversions as long as each passes its own Registry.
type MarkdownNormalizer struct {
	conv *converter.Converter
}

// New creates a MarkdownNormalizer with atx headings, ``` fences and "---" rules.
func New() *MarkdownNormalizer {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithHeadingStyle(commonmark.HeadingStyleATX),
				commonmark.WithCodeBlockFence("```"),
				commonmark.WithHorizontalRule("---"),
				commonmark.WithBulletListMarker("-"),
			),
			table.NewTablePlugin(),
			strikethrough.NewStrikethroughPlugin(),
			NewCitationPlugin(),
		),
	)
	return &MarkdownNormalizer{conv: conv}
}

// Normalize converts an HTML fragment into Markdown. Citation anchors are
// recorded in reg and leave placeholder tokens in the returned text; reg is
// mutated, so converting the same input twice without a Reset continues the
// numbering. A nil reg renders citation anchors as ordinary links.
func (n *MarkdownNormalizer) Normalize(ctx context.Context, html string, reg *citation.Registry) (string, error) {
	if reg != nil {
		ctx = citation.WithRegistry(ctx, reg)
	}
	markdown, err := n.conv.ConvertString(html, converter.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return markdown, nil
}
