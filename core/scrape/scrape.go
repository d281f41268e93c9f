// Package scrape runs the classifier and extractor over a whole page.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/gaurav-prasanna/chatmark/core"
	"github.com/gaurav-prasanna/chatmark/core/classify"
	"github.com/gaurav-prasanna/chatmark/core/extract"
	"github.com/gaurav-prasanna/chatmark/internal/log"
)

// ErrNoMessages is returned when a page yields no turns. The page may
// simply not have finished rendering; scraping again later is safe.
var ErrNoMessages = errors.New("no content extracted")

// Scraper turns a page into an ordered list of turns. It keeps no state
// between calls, so every call starts from scratch.
type Scraper struct {
	classifier *classify.Classifier
	extractor  *extract.ContentExtractor
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a Scraper.
func New(classifier *classify.Classifier, extractor *extract.ContentExtractor, logger *slog.Logger) *Scraper {
	return &Scraper{
		classifier: classifier,
		extractor:  extractor,
		logger:     log.OrDiscard(logger),
		now:        time.Now,
	}
}

// Scrape extracts the turns under root in document order.
func (s *Scraper) Scrape(ctx context.Context, root *goquery.Selection) ([]core.Turn, error) {
	blocks := s.classifier.Classify(root)

	turns := make([]core.Turn, 0, len(blocks))
	for _, b := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if turn, ok := s.extractor.Extract(ctx, b); ok {
			turns = append(turns, turn)
		}
	}

	s.logger.Debug("extracted messages", "blocks", len(blocks), "turns", len(turns))
	if len(turns) == 0 {
		return nil, ErrNoMessages
	}
	return turns, nil
}

// Transcript parses a fetched page and scrapes it into a Transcript titled
// title.
func (s *Scraper) Transcript(ctx context.Context, page *core.FetchResult, title string) (core.Transcript, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return core.Transcript{}, fmt.Errorf("parsing HTML: %w", err)
	}

	turns, err := s.Scrape(ctx, doc.Selection)
	if err != nil {
		return core.Transcript{}, err
	}

	return core.Transcript{
		Title: title,
		Turns: turns,
		Meta: core.Metadata{
			Source:      page.Source,
			PageTitle:   strings.TrimSpace(doc.Find("title").First().Text()),
			ConvertedAt: s.now().UTC().Format(time.RFC3339),
		},
	}, nil
}
