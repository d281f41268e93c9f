package classify

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Strategy is one tier of the block-finding cascade.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string
	// Match reports whether the strategy finds anything under root.
	Match(root *goquery.Selection) bool
	// Blocks returns the candidate message blocks in document order.
	Blocks(root *goquery.Selection) *goquery.Selection
}

// Built-in selector tiers, most specific first.
var defaultSelectors = []string{
	`article[data-testid^="conversation-turn-"]`,
	`[data-testid^="conversation-turn-"]`,
	`div.group\/conversation-turn`,
	`[data-message-author-role]`,
}

// contentSelector finds rich and plain-text content containers for the
// ancestor walk.
const contentSelector = ".markdown, .whitespace-pre-wrap"

type selectorStrategy struct {
	css     string
	matcher cascadia.Selector
}

// SelectorStrategy returns a Strategy matching the CSS selector css.
func SelectorStrategy(css string) (Strategy, error) {
	m, err := cascadia.Compile(css)
	if err != nil {
		return nil, fmt.Errorf("compiling selector %q: %w", css, err)
	}
	return &selectorStrategy{css: css, matcher: m}, nil
}

func mustSelectorStrategy(css string) Strategy {
	s, err := SelectorStrategy(css)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *selectorStrategy) Name() string {
	return "selector " + s.css
}

func (s *selectorStrategy) Match(root *goquery.Selection) bool {
	return root.FindMatcher(s.matcher).Length() > 0
}

func (s *selectorStrategy) Blocks(root *goquery.Selection) *goquery.Selection {
	return root.FindMatcher(s.matcher)
}

// ancestorStrategy is the last resort: it walks up from every content
// container to the nearest layout wrapper.
type ancestorStrategy struct {
	content cascadia.Selector
}

// AncestorStrategy returns the layout-ancestor fallback Strategy.
func AncestorStrategy() Strategy {
	return &ancestorStrategy{content: cascadia.MustCompile(contentSelector)}
}

func (s *ancestorStrategy) Name() string {
	return "layout ancestor"
}

func (s *ancestorStrategy) Match(root *goquery.Selection) bool {
	return root.FindMatcher(s.content).Length() > 0
}

func (s *ancestorStrategy) Blocks(root *goquery.Selection) *goquery.Selection {
	found := make(map[*html.Node]bool)
	root.FindMatcher(s.content).Each(func(_ int, c *goquery.Selection) {
		found[layoutAncestor(c.Get(0))] = true
	})
	if len(found) == 0 {
		return root.FindMatcher(s.content)
	}
	// Filtering the descendant list keeps document order and drops duplicates.
	return root.Find("*").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return found[sel.Get(0)]
	})
}

// layoutAncestor returns the nearest ancestor of n whose class list
// carries a min-height or flex utility, or n itself when there is none.
func layoutAncestor(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && hasLayoutClass(p) {
			return p
		}
	}
	return n
}

func hasLayoutClass(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, cls := range strings.Fields(a.Val) {
			if cls == "flex" || strings.HasPrefix(cls, "min-h-") {
				return true
			}
		}
	}
	return false
}
