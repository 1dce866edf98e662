package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shelfmark/shelfmark/config"
	"github.com/shelfmark/shelfmark/models"
	"github.com/shelfmark/shelfmark/tui"
)

var (
	flagSettings    string
	flagVerbose     bool
	flagMetricsAddr string
)

var rootCmd = &cobra.Command{
	Use:           "shelfmark",
	Short:         "Mark a book as read on Goodreads and log it to a spreadsheet",
	Long: `shelfmark logs in to Goodreads, marks a book as read with a completion
date, optional review, star rating and shelves, scrapes the book's public
page for its metadata, and appends one row to the year sheet and the
Overall sheet of a personal xlsx workbook.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger, level := newLogger(flagVerbose)
		slog.SetDefault(logger)
		slog.SetLogLoggerLevel(level.Level())
	},
}

var searchCmd = &cobra.Command{
	Use:   `search "<terms>" <p|h|k|e> <date> <rating> ["review"]`,
	Short: "Locate the book through site search with an edition format filter",
	Args:  cobra.RangeArgs(4, 5),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := models.ParseFormat(args[1])
		if err != nil {
			return err
		}
		rating, err := parseRating(args[3])
		if err != nil {
			return err
		}
		req, err := models.BySearch(args[0], format, args[2], rating, optionalArg(args, 4))
		if err != nil {
			return err
		}
		return runFromSettings(cmd, req)
	},
}

var urlCmd = &cobra.Command{
	Use:   `url <book-url> <date> <rating> ["review"]`,
	Short: "Use the book page URL directly, skipping search",
	Args:  cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		rating, err := parseRating(args[2])
		if err != nil {
			return err
		}
		req, err := models.ByURL(args[0], args[1], rating, optionalArg(args, 3))
		if err != nil {
			return err
		}
		return runFromSettings(cmd, req)
	},
}

var guiCmd = &cobra.Command{
	Use:   "gui",
	Short: "Collect everything through an interactive form",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load(flagSettings)
		if err != nil {
			return err
		}
		if err := settings.Validate(); err != nil {
			return err
		}

		req, creds, err := tui.Run(*settings)
		if errors.Is(err, tui.ErrCancelled) {
			fmt.Fprintln(os.Stderr, "cancelled")
			return nil
		}
		if err != nil {
			return err
		}
		return run(cmd.Context(), settings, creds, req)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagSettings, "settings", config.DefaultFile, "settings file path")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagMetricsAddr, "metrics-addr", "", "Prometheus metrics listen address (e.g. :9090)")
	rootCmd.AddCommand(searchCmd, urlCmd, guiCmd)
}

// runFromSettings handles the shared non-interactive path: load settings,
// prompt for whatever credentials they are missing, then run.
func runFromSettings(cmd *cobra.Command, req models.BookRequest) error {
	settings, err := config.Load(flagSettings)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	creds, err := config.PromptCredentials(settings, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	return run(cmd.Context(), settings, creds, req)
}

func parseRating(raw string) (int, error) {
	rating, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("rating %q is not a number", raw)
	}
	return rating, nil
}

func optionalArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
