package fetch

import (
	"context"
	"net/url"
	"time"

	"github.com/gaurav-prasanna/chatmark/core"
)

// Options configures the fetchers built by For and NewAuto.
type Options struct {
	Browser    bool
	Timeout    time.Duration
	UserAgent  string
	WaitStable time.Duration
}

// IsURL reports whether input is an http(s) URL.
func IsURL(input string) bool {
	u, err := url.Parse(input)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// For picks a fetcher for input: the browser when requested, HTTP for URLs,
// and the file reader otherwise.
func For(input string, opts Options) core.Fetcher {
	switch {
	case opts.Browser:
		return NewBrowser(opts.Timeout, opts.WaitStable)
	case IsURL(input):
		return New(opts.Timeout, opts.UserAgent)
	default:
		return NewFile()
	}
}

// Auto dispatches each source to the right fetcher, so a batch mixing URLs
// and files shares one HTTP client and at most one browser.
type Auto struct {
	http    *HTTPFetcher
	file    *FileFetcher
	browser *BrowserFetcher
}

// NewAuto creates an Auto fetcher.
func NewAuto(opts Options) *Auto {
	a := &Auto{
		http: New(opts.Timeout, opts.UserAgent),
		file: NewFile(),
	}
	if opts.Browser {
		a.browser = NewBrowser(opts.Timeout, opts.WaitStable)
	}
	return a
}

// Fetch routes source like For does.
func (a *Auto) Fetch(ctx context.Context, source string) (*core.FetchResult, error) {
	switch {
	case a.browser != nil:
		return a.browser.Fetch(ctx, source)
	case IsURL(source):
		return a.http.Fetch(ctx, source)
	default:
		return a.file.Fetch(ctx, source)
	}
}

// Close releases the browser, if one was started.
func (a *Auto) Close() error {
	if a.browser == nil {
		return nil
	}
	return a.browser.Close()
}
