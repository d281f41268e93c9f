// Package discover — input filtering rules.
// Helpers to filter and normalize inputs during discovery.
package discover

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// htmlExtensions are the saved-page extensions a batch picks up.
var htmlExtensions = map[string]bool{
	".html": true, ".htm": true, ".xhtml": true,
}

// conversationPrefixes are the URL paths under which chat UIs serve a
// single conversation.
var conversationPrefixes = []string{"/c/", "/share/", "/g/"}

// IsURL reports whether input is an http(s) URL.
func IsURL(input string) bool {
	parsed, err := url.Parse(input)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// IsHTMLFile reports whether a local path names a saved HTML page.
func IsHTMLFile(p string) bool {
	return htmlExtensions[strings.ToLower(filepath.Ext(p))]
}

// IsSameDomain checks if the given URL belongs to the specified domain.
func IsSameDomain(rawURL string, domain string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return parsed.Host == domain
}

// IsConversationURL reports whether a URL points at one conversation
// rather than at an asset or a listing.
func IsConversationURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if ext := path.Ext(parsed.Path); ext != "" && !htmlExtensions[strings.ToLower(ext)] {
		return false
	}
	for _, prefix := range conversationPrefixes {
		if strings.Contains(parsed.Path, prefix) && !strings.HasSuffix(parsed.Path, prefix) {
			return true
		}
	}
	return false
}

// NormalizeURL strips fragments and trailing slashes for deduplication.
func NormalizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	parsed.Fragment = ""

	// Keep the root "/".
	if parsed.Path != "/" {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}

	return parsed.String()
}
