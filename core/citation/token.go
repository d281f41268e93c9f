package citation

import (
	"regexp"
	"strconv"
)

// Placeholder tokens left in converted Markdown until post-processing.
const (
	// GroupStartToken marks the first badge of a run. It carries no index and
	// is simply dropped by the post-processor.
	GroupStartToken = "[[CITE_GROUP_START]]"

	groupPrefix  = "[[CITE_GROUP:"
	singlePrefix = "[[CITE:"
	tokenSuffix  = "]]"
)

var (
	// GroupTokenPattern matches a group placeholder; submatch 1 is the index.
	GroupTokenPattern = regexp.MustCompile(`\[\[CITE_GROUP:(\d+)\]\]`)

	// SingleTokenPattern matches a single placeholder; submatch 1 is the index.
	SingleTokenPattern = regexp.MustCompile(`\[\[CITE:(\d+)\]\]`)
)

// GroupToken returns the placeholder for the group recorded at index.
func GroupToken(index int) string {
	return groupPrefix + strconv.Itoa(index) + tokenSuffix
}

// SingleToken returns the placeholder for the citation recorded at index.
func SingleToken(index int) string {
	return singlePrefix + strconv.Itoa(index) + tokenSuffix
}
