package postprocess

import (
	"regexp"
	"strings"
)

// Rule is one rewrite in the repair chain. Rules assume every rule before
// them in the chain has already run.
type Rule struct {
	Name  string
	Apply func(string) string
}

// Precompiled patterns for the repair chain.
var (
	bareDomainLink = regexp.MustCompile(`\[([a-z0-9-]+\.[a-z0-9-]+(?:\.[a-z0-9-]+)*)\]\((https?://[^\s)]+)\)`)
	wordGluedLink  = regexp.MustCompile(`(\w)(\(?\[[^\]]*\]\([^)\s]*\))`)
	periodGlued    = regexp.MustCompile(`\.(\(?\[)`)
	commaGlued     = regexp.MustCompile(`,(\(?\[)`)
	linkGluedLink  = regexp.MustCompile(`\)(\(?\[)`)
	doubledParens  = regexp.MustCompile(`\(\((\[[^\]]+\]\([^)]+\))\)\)`)
	linkGluedWord  = regexp.MustCompile(`(\]\([^)\s]*\)\)?)([A-Za-z0-9])`)
	innerSpaceRun  = regexp.MustCompile(` {2,}`)
	openParenRun   = regexp.MustCompile(`\((?:[ \t]+\()+`)
	closeParenRun  = regexp.MustCompile(`\)(?:[ \t]+\))+`)
	adjacentParens = regexp.MustCompile(`\)[ \t]*\(`)
	blankParenPair = regexp.MustCompile(`\([ \t]*\)`)
	leadingBlanks  = regexp.MustCompile(`^[ \t]*`)
	trailingBlanks = regexp.MustCompile(`[ \t]*$`)
)

// rules is the repair chain, in application order. Each entry states what
// holds for the text after it has run.
var rules = []Rule{
	// Links whose text is a bare domain read as citation clusters.
	{Name: "wrap-domain-link", Apply: wrapDomainLinks},
	// No link or cluster directly follows a word character.
	{Name: "space-after-word", Apply: replacer(wordGluedLink, "$1 $2")},
	// No link or cluster directly follows a period or a comma.
	{Name: "space-after-period", Apply: replacer(periodGlued, ". $1")},
	{Name: "space-after-comma", Apply: replacer(commaGlued, ", $1")},
	// Consecutive links are separated by one space.
	{Name: "space-between-links", Apply: replacer(linkGluedLink, ") $1")},
	// A cluster wrapped twice, "(([d](u)))", is wrapped once.
	{Name: "collapse-doubled-parens", Apply: replacer(doubledParens, "($1)")},
	// No link is directly followed by a letter or digit.
	{Name: "space-after-link", Apply: replacer(linkGluedWord, "$1 $2")},
	// No line carries an inner run of spaces.
	{Name: "collapse-spaces", Apply: collapseSpaces},
	// "( (" and ") )" runs are single parens.
	{Name: "collapse-open-parens", Apply: replacer(openParenRun, "(")},
	{Name: "collapse-close-parens", Apply: replacer(closeParenRun, ")")},
	// Adjacent parenthesized groups are separated by exactly one space.
	{Name: "space-between-parens", Apply: replacer(adjacentParens, ") (")},
	// Blank paren pairs hold no whitespace.
	{Name: "empty-parens", Apply: replacer(blankParenPair, "()")},
}

// Rules returns a copy of the repair chain in application order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

func replacer(re *regexp.Regexp, repl string) func(string) string {
	return func(s string) string {
		return re.ReplaceAllString(s, repl)
	}
}

// wrapDomainLinks turns "[example.com](https://...)" into a citation
// cluster "([example.com](https://...))".
// Post: a link whose text is a bare domain is enclosed in parentheses.
// Links that are already enclosed are left alone.
func wrapDomainLinks(s string) string {
	matches := bareDomainLink.FindAllStringIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*len(matches))
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		b.WriteString(s[last:start])
		wrapped := start > 0 && s[start-1] == '(' && end < len(s) && s[end] == ')'
		if wrapped {
			b.WriteString(s[start:end])
		} else {
			b.WriteByte('(')
			b.WriteString(s[start:end])
			b.WriteByte(')')
		}
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

// collapseSpaces reduces runs of spaces inside a line to one space.
// Pre: none.
// Post: leading indentation (list nesting) and trailing spaces (hard
// breaks) are kept. Table rows are kept as-is so cell padding survives.
func collapseSpaces(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "|") {
			continue
		}
		lead := leadingBlanks.FindString(line)
		body := line[len(lead):]
		trail := trailingBlanks.FindString(body)
		body = body[:len(body)-len(trail)]
		lines[i] = lead + innerSpaceRun.ReplaceAllString(body, " ") + trail
	}
	return strings.Join(lines, "\n")
}
