// Package cmd implements the CLI commands for chatmark using Cobra.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gaurav-prasanna/chatmark/internal/config"
	"github.com/gaurav-prasanna/chatmark/internal/log"
)

// Persistent flags and the state initConfig derives from them.
var (
	flagConfig  string
	flagVerbose bool

	cfg     *config.Config
	cfgUsed string
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "chatmark",
	Short: "chatmark — convert chat transcript pages into Markdown",
	Long: `chatmark reads a rendered chat conversation page (a saved HTML file, a
shared URL, or a live page in a headless browser) and converts it into a
clean Markdown transcript. Inline citation badges become readable
"([domain](url))" references.

Usage:
  chatmark convert <file|url> [flags]`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return initConfig() },
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"config file (default: ./chatmark.yaml or "+config.XDGConfigFile()+")")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// initConfig builds the logger and loads the configuration.
func initConfig() error {
	logger = log.New(os.Stderr, flagVerbose)

	c, used, err := config.Load(viper.New(), flagConfig)
	if err != nil {
		return err
	}
	cfg, cfgUsed = c, used
	if used != "" {
		logger.Debug("using config file", "path", used)
	}
	return nil
}

// Execute runs the root command. An interrupt cancels in-flight work.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
