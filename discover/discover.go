// Package discover expands a batch input into the conversation pages to
// convert for --all mode. A batch is a directory of saved pages, a list
// file, or an index page linking to conversations.
package discover

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gaurav-prasanna/chatmark/core"
)

// maxPages bounds how many conversations one batch may expand to.
const maxPages = 1000

// DiscoverAll returns the inputs to process for root, in a stable order.
// fetcher is only used when root is a URL.
func DiscoverAll(ctx context.Context, root string, fetcher core.Fetcher) ([]string, error) {
	if IsURL(root) {
		return discoverFromPage(ctx, root, fetcher)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reading batch input: %w", err)
	}
	if info.IsDir() {
		return discoverFromDir(ctx, root)
	}
	return discoverFromList(root)
}

// discoverFromDir walks dir for saved HTML pages, sorted by path.
func discoverFromDir(ctx context.Context, dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsHTMLFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}

	sort.Strings(paths)
	queue := NewQueue()
	for _, p := range paths {
		queue.Add(filepath.Clean(p))
	}
	return limit(queue.All()), nil
}

// discoverFromList reads one input per line. Blank lines and lines
// starting with '#' are skipped; relative paths resolve against the list
// file's directory.
func discoverFromList(listPath string) ([]string, error) {
	f, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("opening list: %w", err)
	}
	defer f.Close()

	base := filepath.Dir(listPath)
	queue := NewQueue()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if IsURL(line) {
			queue.Add(NormalizeURL(line))
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}
		if IsHTMLFile(line) {
			queue.Add(filepath.Clean(line))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading list: %w", err)
	}
	return limit(queue.All()), nil
}

// discoverFromPage fetches an index page and collects the conversation
// links on the same host. A page without such links is itself the batch.
func discoverFromPage(ctx context.Context, pageURL string, fetcher core.Fetcher) ([]string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing URL: %w", err)
	}

	result, err := fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetching index: %w", err)
	}

	links, err := extractLinks(result.HTML, pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing index: %w", err)
	}

	queue := NewQueue()
	for _, link := range links {
		if IsSameDomain(link, parsed.Host) && IsConversationURL(link) {
			queue.Add(NormalizeURL(link))
		}
	}
	if !queue.HasNext() {
		return []string{NormalizeURL(pageURL)}, nil
	}
	return limit(queue.All()), nil
}

func limit(items []string) []string {
	if len(items) > maxPages {
		return items[:maxPages]
	}
	return items
}

// extractLinks extracts all href values from <a> tags, resolving relative URLs.
func extractLinks(html string, baseURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" {
			return
		}
		if resolved := resolveURL(href, base); resolved != "" {
			links = append(links, resolved)
		}
	})
	return links, nil
}

// resolveURL resolves a potentially relative URL against a base.
func resolveURL(href string, base *url.URL) string {
	if strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "tel:") || strings.HasPrefix(href, "#") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(parsed)
	resolved.Fragment = ""
	return resolved.String()
}
