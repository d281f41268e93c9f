package normalize

import (
	"strings"

	"github.com/JohannesKaufmann/dom"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"golang.org/x/net/html"

	"github.com/gaurav-prasanna/chatmark/core/citation"
)

const (
	// badgeClass marks the small footnote badge wrapping a citation link.
	badgeClass = "ms-1"
	// inlineBadgeMarker appears inside anchors rendered as inline pills.
	inlineBadgeMarker = "inline-flex"
	// textFragment is the scroll-to-text locator citations point at.
	textFragment = "#:~:text="
	// blobScheme prefixes locally generated binary resources (pasted images).
	blobScheme = "blob:"
)

type citationPlugin struct{}

// NewCitationPlugin returns the html-to-markdown plugin that overrides
// anchor rendering. It must be registered after the commonmark plugin
// so that regular links can fall through to it.
func NewCitationPlugin() converter.Plugin {
	return &citationPlugin{}
}

func (p *citationPlugin) Name() string {
	return "citation"
}

func (p *citationPlugin) Init(conv *converter.Converter) error {
	conv.Register.RendererFor("a", converter.TagTypeInline, p.renderAnchor, converter.PriorityEarly)
	conv.Register.RendererFor("img", converter.TagTypeInline, p.renderImage, converter.PriorityEarly)
	// Must run before the base plugin trims the output.
	conv.Register.PostRenderer(p.flushPending, converter.PriorityEarly)
	return nil
}

// renderAnchor implements the anchor rule. Blob and decorative anchors
// render their inner content only. Citation anchors become placeholder
// tokens; adjacent runs are buffered and recorded as one group. Regular
// links are left to commonmark after flushing any buffered run.
func (p *citationPlugin) renderAnchor(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	href := strings.TrimSpace(dom.GetAttributeOr(n, "href", ""))
	if !usableHref(href) {
		ctx.RenderChildNodes(ctx, w, n)
		return converter.RenderSuccess
	}

	reg, ok := citation.FromContext(ctx)
	if !ok {
		return converter.RenderTryNext
	}

	if !isCitation(n, href) {
		if idx, flushed := reg.Flush(); flushed {
			w.WriteString(citation.GroupToken(idx))
		}
		return converter.RenderTryNext
	}

	c := citation.New(href)
	switch {
	case isCitationAnchor(dom.NextSiblingElement(n)):
		first := reg.Pending() == 0
		reg.Push(c)
		if first {
			w.WriteString(citation.GroupStartToken)
		}
	case reg.Pending() > 0:
		reg.Push(c)
		idx, _ := reg.Flush()
		w.WriteString(citation.GroupToken(idx))
	default:
		w.WriteString(citation.SingleToken(reg.RecordSingle(c)))
	}
	return converter.RenderSuccess
}

// renderImage drops images whose source is a blob reference.
func (p *citationPlugin) renderImage(_ converter.Context, _ converter.Writer, n *html.Node) converter.RenderStatus {
	src := strings.TrimSpace(dom.GetAttributeOr(n, "src", ""))
	if hasBlobScheme(src) {
		return converter.RenderSuccess
	}
	return converter.RenderTryNext
}

// flushPending records a badge run still buffered when the document ends.
func (p *citationPlugin) flushPending(ctx converter.Context, content []byte) []byte {
	reg, ok := citation.FromContext(ctx)
	if !ok {
		return content
	}
	if idx, flushed := reg.Flush(); flushed {
		content = append(content, citation.GroupToken(idx)...)
	}
	return content
}

func usableHref(href string) bool {
	return href != "" && href != "#" && !hasBlobScheme(href)
}

func hasBlobScheme(href string) bool {
	return len(href) >= len(blobScheme) && strings.EqualFold(href[:len(blobScheme)], blobScheme)
}

// isCitation reports whether anchor n renders as a citation badge.
func isCitation(n *html.Node, href string) bool {
	if dom.HasClass(n, badgeClass) {
		return true
	}
	if n.Parent != nil && n.Parent.Type == html.ElementNode && dom.HasClass(n.Parent, badgeClass) {
		return true
	}
	if strings.Contains(href, textFragment) {
		return true
	}
	return hasInlineBadge(n)
}

func hasInlineBadge(n *html.Node) bool {
	found := dom.FindFirstNode(n, func(c *html.Node) bool {
		if c.Type != html.ElementNode {
			return false
		}
		return dom.HasClass(c, inlineBadgeMarker) ||
			strings.Contains(dom.GetAttributeOr(c, "style", ""), inlineBadgeMarker)
	})
	return found != nil
}

// isCitationAnchor reports whether n is an anchor that will itself be
// rendered as a citation.
func isCitationAnchor(n *html.Node) bool {
	if n == nil || dom.NodeName(n) != "a" {
		return false
	}
	href := strings.TrimSpace(dom.GetAttributeOr(n, "href", ""))
	return usableHref(href) && isCitation(n, href)
}
