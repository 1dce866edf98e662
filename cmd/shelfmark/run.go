package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shelfmark/shelfmark/browser"
	"github.com/shelfmark/shelfmark/config"
	"github.com/shelfmark/shelfmark/dates"
	"github.com/shelfmark/shelfmark/goodreads"
	"github.com/shelfmark/shelfmark/models"
	"github.com/shelfmark/shelfmark/scraper"
	"github.com/shelfmark/shelfmark/shelf"
	"github.com/shelfmark/shelfmark/spreadsheet"
)

// run executes the whole sequence for one book: mark it read remotely, scrape
// its metadata, append the spreadsheet row. Any failure aborts where it
// stands; completed remote steps are never rolled back.
func run(parent context.Context, settings *config.Settings, creds models.Credentials, req models.BookRequest) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persist the credential choices up front so they survive a failed run.
	settings.ApplyCredentials(creds)
	if err := settings.Save(flagSettings); err != nil {
		slog.Warn("saving settings", slog.Any("error", err))
	}

	dateRead := dates.Resolve(req.Date, time.Now())
	if _, err := dates.Split(dateRead); err != nil {
		return err
	}

	// Open the workbook before touching the remote account so a missing or
	// corrupt file is caught while there is still nothing to lose.
	workbook, err := spreadsheet.Open(settings.SpreadsheetPath)
	if err != nil {
		return err
	}
	defer workbook.Close()
	if err := workbook.Validate(); err != nil {
		return err
	}

	metrics := goodreads.NewMetrics()
	metricsServer := startMetricsServer(metrics)
	defer shutdownMetricsServer(metricsServer)

	slog.Info("starting run",
		slog.String("date_read", dateRead),
		slog.Int("rating", req.Rating),
		slog.Bool("headless", settings.Headless),
	)

	chrome, err := browser.NewChrome(ctx, browser.Options{
		Headless:    settings.Headless,
		WaitTimeout: settings.WaitTimeout,
	})
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer func() {
		if err := chrome.Close(); err != nil {
			slog.Error("close browser", slog.Any("error", err))
		}
	}()

	start := time.Now()
	workflow := goodreads.New(chrome, goodreads.WithMetrics(metrics))
	result, err := workflow.MarkRead(ctx, creds, req, dateRead)
	if err != nil {
		return err
	}
	slog.Info("book marked as read",
		slog.String("book_url", result.BookURL),
		slog.Bool("reread", result.Reread),
	)

	s, err := scraper.New(scraper.WithTimeout(settings.WaitTimeout))
	if err != nil {
		return err
	}
	meta, err := recordRead(workbook, s.BookInfo, result, dateRead)
	if err != nil {
		return err
	}

	printSummary(meta, dateRead, result, settings.SpreadsheetPath, time.Since(start))
	return nil
}

// recordRead runs the post-marking half of a run: scrape the marked book's
// public page, derive category and genre from the collected shelves, and
// append the spreadsheet row. The remote account has already changed by the
// time this is called, so every failure here is reported as the
// inconsistency it is instead of pretending the run can be retried cleanly;
// nothing is written to the workbook unless the whole sequence succeeds.
func recordRead(workbook *spreadsheet.Workbook, lookup func(string) (scraper.PageInfo, error), result *goodreads.Result, dateRead string) (models.BookMetadata, error) {
	info, err := lookup(result.BookURL)
	if err != nil {
		return models.BookMetadata{}, markedButUnrecorded(err)
	}

	category, genre, err := shelf.CategoryAndGenre(result.Shelves)
	if err != nil {
		return models.BookMetadata{}, markedButUnrecorded(err)
	}

	meta := models.BookMetadata{
		Title:    info.Title,
		Author:   info.Author,
		Pages:    info.Pages,
		Category: category,
		Genre:    genre,
	}
	if err := workbook.InputInfo(meta, dateRead); err != nil {
		return models.BookMetadata{}, markedButUnrecorded(err)
	}
	return meta, nil
}

func markedButUnrecorded(err error) error {
	return fmt.Errorf("book was marked read online but no spreadsheet row was written: %w", err)
}

func startMetricsServer(metrics *goodreads.Metrics) *http.Server {
	if flagMetricsAddr == "" || metrics == nil {
		return nil
	}
	server := &http.Server{
		Addr:    flagMetricsAddr,
		Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", flagMetricsAddr))
	return server
}

func shutdownMetricsServer(server *http.Server) {
	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("metrics server shutdown failed", slog.Any("error", err))
	}
}

func printSummary(meta models.BookMetadata, dateRead string, result *goodreads.Result, workbookPath string, duration time.Duration) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Marked as read")
	fmt.Printf("  Title:      %s\n", meta.Title)
	fmt.Printf("  Author:     %s\n", meta.Author)
	fmt.Printf("  Pages:      %d\n", meta.Pages)
	fmt.Printf("  Category:   %s\n", meta.Category)
	fmt.Printf("  Genre:      %s\n", meta.Genre)
	fmt.Printf("  Date read:  %s\n", dateRead)
	if result.Reread {
		fmt.Println("  Shelves:    skipped (reread)")
	} else {
		fmt.Printf("  Shelves:    %d applied\n", len(result.Shelves))
	}
	fmt.Printf("  Workbook:   %s\n", workbookPath)
	fmt.Printf("  Duration:   %v\n", duration.Round(time.Millisecond))
	fmt.Println(separator)
}
