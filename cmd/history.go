package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/chatmark/core/archive"
)

var (
	flagLimit int
	flagShow  int64
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived transcripts",
	Long: `History lists transcripts saved with "convert --archive", newest first.
Use --show to print one transcript's Markdown.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagLimit, "limit", 20, "Maximum number of transcripts to list (0 for all)")
	historyCmd.Flags().Int64Var(&flagShow, "show", 0, "Print the Markdown of the transcript with this id")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	store, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if flagShow > 0 {
		r, err := store.Get(cmd.Context(), flagShow)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, r.Markdown)
		return err
	}

	records, err := store.List(cmd.Context(), flagLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintf(out, "No transcripts archived in %s\n", store.Path())
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCONVERTED\tTURNS\tTITLE\tSOURCE")
	for _, r := range records {
		title := r.Title
		if r.PageTitle != "" && !strings.EqualFold(r.PageTitle, r.Title) {
			title = r.PageTitle
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", r.ID, r.ConvertedAt, r.TurnCount, title, r.Source)
	}
	return tw.Flush()
}
