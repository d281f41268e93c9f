package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/gaurav-prasanna/chatmark/core"
)

// DefaultWaitStable is how long the DOM must stay unchanged before the page
// is read. Chat UIs stream their content in after load.
const DefaultWaitStable = 2 * time.Second

var (
	ErrBrowserConnect = errors.New("browser connect failed")
	ErrPageLoad       = errors.New("page load failed")
)

// BrowserFetcher renders a page in headless Chrome and reads its live DOM.
// Rod downloads Chromium on first use when none is installed.
type BrowserFetcher struct {
	timeout    time.Duration
	waitStable time.Duration

	mu      sync.Mutex
	browser *rod.Browser
}

// NewBrowser creates a BrowserFetcher. The browser is launched lazily.
func NewBrowser(timeout, waitStable time.Duration) *BrowserFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if waitStable <= 0 {
		waitStable = DefaultWaitStable
	}
	return &BrowserFetcher{timeout: timeout, waitStable: waitStable}
}

func (f *BrowserFetcher) ensureBrowser() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browser != nil {
		return f.browser, nil
	}

	l := launcher.New()
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	f.browser = b
	return b, nil
}

// Fetch opens source (a URL or a local file) and returns the DOM once it
// has settled.
func (f *BrowserFetcher) Fetch(ctx context.Context, source string) (*core.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := f.ensureBrowser()
	if err != nil {
		return nil, err
	}

	target, err := browserURL(source)
	if err != nil {
		return nil, err
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: target})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	defer page.Close()

	timeout := f.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	p := page.Context(ctx).Timeout(timeout)

	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := p.WaitStable(f.waitStable); err != nil {
		return nil, fmt.Errorf("%w: waiting for stable DOM: %v", ErrPageLoad, err)
	}

	html, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("reading page HTML: %w", err)
	}
	return &core.FetchResult{Source: source, HTML: html}, nil
}

// Close releases the browser.
func (f *BrowserFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browser == nil {
		return nil
	}
	err := f.browser.Close()
	f.browser = nil
	return err
}

// browserURL turns a local path into a file:// URL; URLs pass through.
func browserURL(source string) (string, error) {
	if IsURL(source) || strings.HasPrefix(source, "file://") {
		return source, nil
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", source, err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}
