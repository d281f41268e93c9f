// Package cmd — convert command.
// This is the main command that orchestrates the pipeline:
// fetch → classify → extract → render → write (→ archive, publish).
//
// It handles flag validation, renderer selection, and the single / --all
// modes.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/chatmark/core"
	"github.com/gaurav-prasanna/chatmark/core/archive"
	"github.com/gaurav-prasanna/chatmark/core/classify"
	"github.com/gaurav-prasanna/chatmark/core/extract"
	"github.com/gaurav-prasanna/chatmark/core/fetch"
	"github.com/gaurav-prasanna/chatmark/core/normalize"
	"github.com/gaurav-prasanna/chatmark/core/output"
	"github.com/gaurav-prasanna/chatmark/core/pipeline"
	"github.com/gaurav-prasanna/chatmark/core/render"
	"github.com/gaurav-prasanna/chatmark/core/scrape"
	"github.com/gaurav-prasanna/chatmark/discover"
)

// Flag variables.
var (
	flagAll         bool
	flagPDF         bool
	flagMarkdown    bool
	flagJSON        bool
	flagHTML        bool
	flagBrowser     bool
	flagOutputDir   string
	flagTitle       string
	flagFrontMatter bool
	flagArchive     bool
	flagPublish     bool
	flagDescription string
	flagStdout      bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <file|url>",
	Short: "Convert a chat transcript page to Markdown or another format",
	Long: `Convert reads a conversation page, finds its messages, converts each one to
Markdown with citations folded into "([domain](url))" references, and writes
the transcript in the selected format (Markdown by default, or JSON, PDF, HTML).

Examples:
  chatmark convert saved-chat.html
  chatmark convert https://chatgpt.com/share/abc --json --output_dir ./out
  chatmark convert https://chatgpt.com/c/abc --browser --archive
  chatmark convert ./exports --all --pdf
  chatmark convert chat.html --stdout`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().BoolVar(&flagAll, "all", false, "Convert every page in a directory, list file, or index page")

	// Output format flags (mutually exclusive).
	convertCmd.Flags().BoolVar(&flagMarkdown, "markdown", false, "Output Markdown (default)")
	convertCmd.Flags().BoolVar(&flagJSON, "json", false, "Output structured JSON")
	convertCmd.Flags().BoolVar(&flagPDF, "pdf", false, "Output PDF")
	convertCmd.Flags().BoolVar(&flagHTML, "html", false, "Output an HTML preview")

	convertCmd.Flags().BoolVar(&flagBrowser, "browser", false, "Render the page in headless Chrome before reading it")
	convertCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default: current directory)")
	convertCmd.Flags().StringVar(&flagTitle, "title", "", "Transcript title (default: \"ChatGPT Conversation\")")
	convertCmd.Flags().BoolVar(&flagFrontMatter, "front-matter", false, "Prepend YAML front matter to Markdown output")
	convertCmd.Flags().BoolVar(&flagArchive, "archive", false, "Save the transcript to the local archive")
	convertCmd.Flags().BoolVar(&flagPublish, "publish", false, "Publish the Markdown transcript to the publish directory")
	convertCmd.Flags().StringVar(&flagDescription, "description", "", "Description sent with --publish (default: the title)")
	convertCmd.Flags().BoolVar(&flagStdout, "stdout", false, "Write the output to stdout instead of a file")
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]

	if err := validateFlags(); err != nil {
		return err
	}
	applyFlags(cmd)

	renderer := selectRenderer()

	fetcher := fetch.NewAuto(fetch.Options{
		Browser:    flagBrowser,
		Timeout:    cfg.Fetch.Timeout,
		UserAgent:  cfg.Fetch.UserAgent,
		WaitStable: cfg.Browser.WaitStable,
	})
	defer fetcher.Close()

	p, err := newPipeline(fetcher, renderer)
	if err != nil {
		return err
	}

	d := &delivery{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr(), ext: renderer.Extension()}
	if !flagStdout {
		if d.writer, err = output.New(cfg.Output.Dir); err != nil {
			return fmt.Errorf("initializing output writer: %w", err)
		}
	}
	if flagArchive {
		if d.store, err = archive.Open(cfg.Archive.Path); err != nil {
			return err
		}
		defer d.store.Close()
	}
	if flagPublish {
		dir := cfg.Publish.Dir
		if dir == "" && d.writer != nil {
			dir = d.writer.OutputDir
		}
		d.publisher = output.NewFilePublisher(dir)
	}

	ctx := cmd.Context()
	if flagAll {
		return runAll(ctx, input, fetcher, p, d)
	}
	return runOnly(ctx, input, p, d)
}

// newPipeline wires the conversion stages from the loaded config.
func newPipeline(fetcher core.Fetcher, renderer core.Renderer) (*pipeline.Pipeline, error) {
	classifier, err := classify.New(cfg.Classify.ExtraSelectors, logger)
	if err != nil {
		return nil, err
	}
	extractor := extract.New(normalize.New(), cfg.ExtractOptions(), logger)
	scraper := scrape.New(classifier, extractor, logger)
	return pipeline.New(fetcher, scraper, renderer, cfg.Title, cfg.RenderLabels(), logger), nil
}

// runOnly converts a single input.
func runOnly(ctx context.Context, input string, p *pipeline.Pipeline, d *delivery) error {
	r, err := p.Convert(ctx, input)
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}
	return d.deliver(ctx, r, "", "")
}

// runAll discovers every input under root and converts them concurrently.
func runAll(ctx context.Context, root string, fetcher core.Fetcher, p *pipeline.Pipeline, d *delivery) error {
	fmt.Fprintf(d.out, "Discovering pages from %s...\n", root)

	inputs, err := discover.DiscoverAll(ctx, root, fetcher)
	if err != nil {
		return fmt.Errorf("discovering pages: %w", err)
	}
	fmt.Fprintf(d.out, "Found %d pages to process\n", len(inputs))

	base := batchRoot(root)
	var (
		mu       sync.Mutex
		errCount int
	)
	err = p.Batch(ctx, inputs, cfg.Batch.Workers, func(i int, r *pipeline.Result, err error) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Fprintf(d.out, "[%d/%d] %s\n", i+1, len(inputs), inputs[i])
		if err != nil {
			fmt.Fprintf(d.errOut, "  ✗ Error: %v\n", err)
			errCount++
			return
		}
		if err := d.deliver(ctx, r, base, "  "); err != nil {
			fmt.Fprintf(d.errOut, "  ✗ Write error: %v\n", err)
			errCount++
		}
	})
	if err != nil {
		return err
	}

	if errCount > 0 {
		fmt.Fprintf(d.errOut, "\n%d/%d pages failed\n", errCount, len(inputs))
		return fmt.Errorf("%d of %d pages failed", errCount, len(inputs))
	}
	return nil
}

// batchRoot is the directory batch outputs mirror: the directory itself,
// or the list file's directory. URL batches mirror the URL path instead.
func batchRoot(root string) string {
	if discover.IsURL(root) {
		return ""
	}
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		return filepath.Dir(root)
	}
	return root
}

// delivery sends a converted result to every requested destination.
type delivery struct {
	out, errOut io.Writer
	ext         string
	writer      *output.Writer
	store       *archive.Store
	publisher   core.Publisher
}

// deliver writes, archives and publishes r. base is the batch root, or ""
// for a single input.
func (d *delivery) deliver(ctx context.Context, r *pipeline.Result, base, indent string) error {
	if d.writer == nil {
		if _, err := d.out.Write(r.Data); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	} else {
		var (
			path string
			err  error
		)
		if flagAll {
			path, err = d.writer.WriteAll(base, r.Input, r.Data, d.ext)
		} else {
			path, err = d.writer.WriteOnly(r.Input, r.Data, d.ext)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(d.out, "%s✓ Written: %s\n", indent, path)
	}

	if d.store != nil {
		id, err := d.store.Save(ctx, r.Transcript, r.Markdown)
		if err != nil {
			return err
		}
		fmt.Fprintf(d.errOut, "%s✓ Archived: #%d\n", indent, id)
	}

	if d.publisher != nil {
		description := flagDescription
		if description == "" {
			description = r.Transcript.Title
		}
		u, err := d.publisher.Publish(ctx, r.Markdown, description)
		if err != nil {
			var statusErr *core.PublishStatusError
			switch {
			case errors.As(err, &statusErr):
				return fmt.Errorf("publish rejected (%d): %w", statusErr.StatusCode, err)
			case errors.Is(err, core.ErrPublishNetwork):
				return fmt.Errorf("publish destination unavailable: %w", err)
			}
			return err
		}
		fmt.Fprintf(d.errOut, "%s✓ Published: %s\n", indent, u)
	}
	return nil
}

// validateFlags checks that at most one output format is chosen and that
// the mode flags are compatible.
func validateFlags() error {
	formatCount := 0
	for _, f := range []bool{flagMarkdown, flagJSON, flagPDF, flagHTML} {
		if f {
			formatCount++
		}
	}
	if formatCount > 1 {
		return fmt.Errorf("only one output format allowed per run (got %d)", formatCount)
	}

	if flagAll && flagStdout {
		return fmt.Errorf("--stdout and --all are mutually exclusive")
	}
	if flagAll && flagPublish {
		return fmt.Errorf("--publish and --all are mutually exclusive")
	}
	if flagFrontMatter && (flagJSON || flagPDF || flagHTML) {
		return fmt.Errorf("--front-matter only applies to Markdown output")
	}
	return nil
}

// applyFlags lets explicitly set flags override the loaded config.
func applyFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("output_dir") {
		cfg.Output.Dir = flagOutputDir
	}
	if cmd.Flags().Changed("title") {
		cfg.Title = flagTitle
	}
	if cmd.Flags().Changed("front-matter") {
		cfg.Output.FrontMatter = flagFrontMatter
	}
}

// selectRenderer creates the Renderer for the chosen format.
func selectRenderer() core.Renderer {
	labels := cfg.RenderLabels()
	switch {
	case flagJSON:
		return render.NewJSONRenderer(labels)
	case flagPDF:
		return render.NewPDFRenderer(labels)
	case flagHTML:
		return render.NewHTMLRenderer(labels)
	default:
		return render.NewMarkdownRenderer(labels, cfg.Output.FrontMatter)
	}
}
