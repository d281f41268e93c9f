// Package postprocess finalizes Markdown produced by the normalizer.
// It resolves citation placeholders against the registry of the pass that
// emitted them, then runs an ordered chain of repair rules that fix spacing
// and parentheses around links.
package postprocess

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gaurav-prasanna/chatmark/core/citation"
)

// maxPasses bounds how often the repair chain is re-run while it still
// changes the text.
const maxPasses = 8

// Masks stand in for inline code spans while the repair chain runs.
const (
	maskOpen  = "\uE000"
	maskClose = "\uE001"
)

var (
	fenceLine  = regexp.MustCompile("^ {0,3}(```+|~~~+)")
	inlineCode = regexp.MustCompile("``[^\n]*?``|`[^`\n]+`")
	maskToken  = regexp.MustCompile(maskOpen + `(\d+)` + maskClose)
)

// Resolver looks up registry entries by placeholder index.
// *citation.Registry implements it.
type Resolver interface {
	Resolve(index int) (citation.Entry, bool)
}

// Process resolves placeholders in md against reg and repairs the result.
// Running Process on its own output returns it unchanged.
func Process(md string, reg Resolver) string {
	resolved, _ := Resolve(md, reg)
	return Repair(resolved)
}

// Resolve substitutes citation placeholders with their clusters. Group-start
// markers are dropped. A placeholder whose index is not in reg is left
// verbatim; the number of such placeholders is returned.
func Resolve(md string, reg Resolver) (string, int) {
	unresolved := 0
	md = strings.ReplaceAll(md, citation.GroupStartToken, "")

	substitute := func(re *regexp.Regexp) func(string) string {
		return func(token string) string {
			entry, ok := lookup(reg, re, token)
			if !ok {
				unresolved++
				return token
			}
			// A single token that resolves to a group renders like a group.
			return " " + entry.Markdown()
		}
	}
	md = citation.GroupTokenPattern.ReplaceAllStringFunc(md, substitute(citation.GroupTokenPattern))
	md = citation.SingleTokenPattern.ReplaceAllStringFunc(md, substitute(citation.SingleTokenPattern))
	return md, unresolved
}

func lookup(reg Resolver, re *regexp.Regexp, token string) (citation.Entry, bool) {
	if reg == nil {
		return citation.Entry{}, false
	}
	m := re.FindStringSubmatch(token)
	if len(m) < 2 {
		return citation.Entry{}, false
	}
	idx, err := strconv.Atoi(m[1])
	if err != nil {
		return citation.Entry{}, false
	}
	return reg.Resolve(idx)
}

// Repair runs the rule chain over every part of md outside fenced code
// blocks, with inline code spans masked. The chain is repeated until the
// text stops changing.
func Repair(md string) string {
	var (
		out   []string
		prose []string
		fence string
	)
	flush := func() {
		if len(prose) == 0 {
			return
		}
		out = append(out, repairProse(strings.Join(prose, "\n")))
		prose = nil
	}

	for _, line := range strings.Split(md, "\n") {
		if fence != "" {
			out = append(out, line)
			if closesFence(line, fence) {
				fence = ""
			}
			continue
		}
		if m := fenceLine.FindStringSubmatch(line); m != nil {
			flush()
			out = append(out, line)
			fence = m[1]
			continue
		}
		prose = append(prose, line)
	}
	flush()
	return strings.Join(out, "\n")
}

// closesFence reports whether line ends a block opened with fence.
func closesFence(line, fence string) bool {
	trimmed := strings.TrimSpace(line)
	if len(line)-len(strings.TrimLeft(line, " ")) > 3 {
		return false
	}
	if !strings.HasPrefix(trimmed, fence) {
		return false
	}
	return strings.Trim(trimmed, fence[:1]) == ""
}

func repairProse(s string) string {
	var spans []string
	masked := inlineCode.ReplaceAllStringFunc(s, func(span string) string {
		spans = append(spans, span)
		return maskOpen + strconv.Itoa(len(spans)-1) + maskClose
	})

	for range maxPasses {
		next := applyRules(masked)
		if next == masked {
			break
		}
		masked = next
	}

	return maskToken.ReplaceAllStringFunc(masked, func(token string) string {
		m := maskToken.FindStringSubmatch(token)
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx >= len(spans) {
			return token
		}
		return spans[idx]
	})
}

func applyRules(s string) string {
	for _, r := range rules {
		s = r.Apply(s)
	}
	return s
}
