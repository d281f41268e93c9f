// Package citation holds the per-conversion citation registry.
// Citation badges found while converting a container are recorded here and
// replaced in the Markdown by short placeholder tokens. The post-processor
// later resolves those tokens back into readable "([domain](href))" clusters.
package citation

import (
	"net/url"
	"strings"
)

// Citation is one inline reference link.
type Citation struct {
	Domain string `json:"domain"`
	Target string `json:"target"`
}

// New builds a Citation for href, deriving the domain with Domain.
func New(href string) Citation {
	return Citation{Domain: Domain(href), Target: href}
}

// Markdown renders the citation as "([domain](target))".
func (c Citation) Markdown() string {
	return "([" + c.Domain + "](" + c.Target + "))"
}

// Group is a run of adjacent citation badges, in visual order.
type Group []Citation

// Markdown renders every member space-joined.
func (g Group) Markdown() string {
	parts := make([]string, len(g))
	for i, c := range g {
		parts[i] = c.Markdown()
	}
	return strings.Join(parts, " ")
}

// Domain derives the display domain of a citation href.
// Absolute URLs yield their host name. Anything else falls back to the
// third "/"-separated segment, and finally to the raw href itself.
func Domain(href string) string {
	if u, err := url.Parse(href); err == nil && u.IsAbs() && u.Hostname() != "" {
		return u.Hostname()
	}
	parts := strings.Split(href, "/")
	if len(parts) > 2 && parts[2] != "" {
		return parts[2]
	}
	return href
}
