// Package pipeline runs one input, or a batch of inputs, through
// fetch → scrape → render.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gaurav-prasanna/chatmark/core"
	"github.com/gaurav-prasanna/chatmark/core/render"
	"github.com/gaurav-prasanna/chatmark/core/scrape"
	"github.com/gaurav-prasanna/chatmark/internal/log"
)

// DefaultWorkers bounds a batch when no limit is given.
const DefaultWorkers = 4

// Result is one converted input.
type Result struct {
	Input      string
	Transcript core.Transcript
	// Data is the renderer's output.
	Data []byte
	// Markdown is the assembled document, whatever the output format.
	Markdown string
}

// Pipeline converts inputs. It holds no per-conversion state and is safe
// for concurrent use.
type Pipeline struct {
	fetcher  core.Fetcher
	scraper  *scrape.Scraper
	renderer core.Renderer
	title    string
	labels   render.Labels
	logger   *slog.Logger
}

// New creates a Pipeline. An empty title falls back to render.DefaultTitle.
func New(fetcher core.Fetcher, scraper *scrape.Scraper, renderer core.Renderer, title string, labels render.Labels, logger *slog.Logger) *Pipeline {
	if title == "" {
		title = render.DefaultTitle
	}
	return &Pipeline{
		fetcher:  fetcher,
		scraper:  scraper,
		renderer: renderer,
		title:    title,
		labels:   labels,
		logger:   log.OrDiscard(logger),
	}
}

// Convert runs a single input through the pipeline.
func (p *Pipeline) Convert(ctx context.Context, input string) (*Result, error) {
	page, err := p.fetcher.Fetch(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	t, err := p.scraper.Transcript(ctx, page, p.title)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	data, err := p.renderer.Render(t)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	p.logger.Debug("converted", "input", input, "turns", len(t.Turns), "bytes", len(data))
	return &Result{
		Input:      input,
		Transcript: t,
		Data:       data,
		Markdown:   render.Assemble(t.Title, t.Turns, p.labels),
	}, nil
}

// Batch converts inputs with at most workers conversions in flight and
// calls fn once per input as each finishes. fn may be called concurrently.
// A failed input does not stop the batch; only cancellation does.
func (p *Pipeline) Batch(ctx context.Context, inputs []string, workers int, fn func(i int, r *Result, err error)) error {
	if workers < 1 {
		workers = DefaultWorkers
	}
	p.logger.Debug("starting batch", "inputs", len(inputs), "workers", workers)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, input := range inputs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			r, err := p.Convert(ctx, input)
			if err != nil {
				p.logger.Warn("conversion failed", "input", input, "error", err)
			}
			fn(i, r, err)
			return nil
		})
	}

	err := g.Wait()
	p.logger.Debug("batch complete", "inputs", len(inputs), "elapsed", time.Since(start))
	return err
}
