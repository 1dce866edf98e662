// Package goodreads drives the read-marking workflow against the Goodreads
// UI: login, locate the edition, mark it read with date, review and rating,
// and shelve it. Every step is an ordered side effect against the remote
// site; any failure aborts the run with no retry and no rollback.
package goodreads

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shelfmark/shelfmark/browser"
	"github.com/shelfmark/shelfmark/dates"
	"github.com/shelfmark/shelfmark/models"
	"github.com/shelfmark/shelfmark/shelf"
)

// BaseURL is the site root the workflow starts from.
const BaseURL = "https://www.goodreads.com"

// UI selectors. These track the site's markup and are the brittle edge of
// the whole tool.
const (
	selEmail        = `input[name="user[email]"]`
	selPassword     = `input[name="user[password]"]`
	selLoggedIn     = `.siteHeader__personal`
	selSearchBox    = `.searchBox__input`
	selEditionLink  = `//a[contains(text(), "edition")]`
	selFormatFilter = `select[name="filter_by_format"]`
	selBookTitle    = `.bookTitle`
	selTopShelves   = `a.actionLinkLite.bookPageGenreLink`
	selRating       = `.stars`
	selAddSession   = `#readingSessionAddLink`
	selMoreDetails  = `.smallLink.closed`
	selRecommend    = `#review_recommendation`
	selReviewBox    = `textarea[name="review[review]"]`
	selSubmitReview = `[name="next"]`
	selOverlay      = `#box`
	selShelfMenu    = `.wtrShelfButton`
	selShelfSearch  = `.wtrShelfSearchField`
	selShelfList    = `.wtrShelfList`
)

// sessionIDPrefix prefixes the element ids the review page assigns to each
// reading session; the per-session picker suffix follows it.
const sessionIDPrefix = "readingSessionEntry"

// Result is what the workflow hands to the scraper and spreadsheet stages.
type Result struct {
	BookURL string
	Shelves shelf.List
	Reread  bool
}

// Workflow is the sequential state machine that updates the remote account.
type Workflow struct {
	driver  browser.Driver
	metrics *Metrics
	baseURL string

	// run state threaded between steps
	creds   models.Credentials
	req     models.BookRequest
	date    string
	bookURL string
	shelves shelf.List
	reread  bool
}

// Option adjusts workflow construction.
type Option func(*Workflow)

// WithBaseURL points the workflow at a different site root, used by tests.
func WithBaseURL(url string) Option {
	return func(w *Workflow) { w.baseURL = strings.TrimSuffix(url, "/") }
}

// WithMetrics attaches a metrics bundle.
func WithMetrics(m *Metrics) Option {
	return func(w *Workflow) { w.metrics = m }
}

// New builds a workflow over the given driver.
func New(driver browser.Driver, opts ...Option) *Workflow {
	w := &Workflow{
		driver:  driver,
		baseURL: BaseURL,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type step struct {
	name string
	skip func() bool
	run  func() error
}

// MarkRead runs every workflow state in strict order. dateRead must already
// be resolved to DD/MM/YY. On any error the run is abandoned where it stands;
// the remote site is left in whatever state the completed steps produced.
func (w *Workflow) MarkRead(ctx context.Context, creds models.Credentials, req models.BookRequest, dateRead string) (*Result, error) {
	w.creds = creds
	w.req = req
	w.date = dateRead

	steps := []step{
		{name: "login", run: w.login},
		{name: "locate", run: w.locate},
		{name: "collect_shelves", run: w.collectShelves},
		{name: "detect_reread", run: w.detectReread},
		{name: "set_date", run: w.setDate},
		{name: "add_review", skip: func() bool { return w.req.Review == "" }, run: w.addReview},
		{name: "submit_review", run: w.submitReview},
		{name: "rate", run: w.rate},
		{name: "shelve", skip: func() bool { return w.reread }, run: w.shelve},
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.skip != nil && s.skip() {
			slog.Debug("workflow step skipped", slog.String("step", s.name))
			continue
		}

		start := time.Now()
		err := s.run()
		w.metrics.ObserveStep(time.Since(start))
		if err != nil {
			w.metrics.IncError(errorTypeLabel(err))
			return nil, fmt.Errorf("step %s: %w", s.name, err)
		}
		w.metrics.IncStep(s.name)
		slog.Debug("workflow step done",
			slog.String("step", s.name),
			slog.Duration("took", time.Since(start)),
		)
	}

	return &Result{
		BookURL: w.bookURL,
		Shelves: w.shelves,
		Reread:  w.reread,
	}, nil
}

// login submits the credentials on the homepage and verifies the
// logged-in-only header element appeared.
func (w *Workflow) login() error {
	if err := w.driver.Navigate(w.baseURL); err != nil {
		return ErrUIState{Step: "login", Err: err}
	}
	if err := w.driver.SendKeys(selEmail, w.creds.Email); err != nil {
		return ErrUIState{Step: "login", Err: err}
	}
	if err := w.driver.SendKeys(selPassword, w.creds.Password+"\n"); err != nil {
		return ErrUIState{Step: "login", Err: err}
	}
	if err := w.driver.WaitVisible(selLoggedIn); err != nil {
		return ErrAuthentication{Err: fmt.Errorf("email and/or password probably incorrect: %w", err)}
	}
	return nil
}

// locate resolves the canonical book URL, either directly or through search
// plus the edition format filter.
func (w *Workflow) locate() error {
	if w.req.Mode == models.ModeURL {
		if err := w.driver.Navigate(w.req.URL); err != nil {
			return ErrLookup{Err: err}
		}
		w.bookURL = w.req.URL
		return nil
	}

	if err := w.driver.SendKeys(selSearchBox, w.req.SearchTerms+"\n"); err != nil {
		return ErrUIState{Step: "locate", Err: err}
	}
	if err := w.driver.Click(selEditionLink); err != nil {
		return ErrLookup{Err: fmt.Errorf("no book found for terms %q: %w", w.req.SearchTerms, err)}
	}

	preFilter, err := w.driver.CurrentURL()
	if err != nil {
		return ErrUIState{Step: "locate", Err: err}
	}
	if err := w.driver.SelectByText(selFormatFilter, string(w.req.Format)); err != nil {
		return ErrLookup{Err: fmt.Errorf("filter editions by %s: %w", w.req.Format, err)}
	}
	if err := w.driver.WaitURLChange(preFilter); err != nil {
		return ErrLookup{Err: fmt.Errorf("edition filter never resolved: %w", err)}
	}
	if err := w.driver.Click(selBookTitle); err != nil {
		return ErrLookup{Err: fmt.Errorf("no %s edition listed: %w", w.req.Format, err)}
	}

	w.bookURL, err = w.driver.CurrentURL()
	if err != nil {
		return ErrUIState{Step: "locate", Err: err}
	}
	return nil
}

// collectShelves reads the Top Shelves links off the book page before any
// marking mutates it.
func (w *Workflow) collectShelves() error {
	labels, err := w.driver.Texts(selTopShelves)
	if err != nil {
		return ErrUIState{Step: "collect_shelves", Err: err}
	}
	w.shelves = shelf.Build(labels, w.req.Rating)
	return nil
}

// detectReread checks the current rating attribute; a prior rating means the
// book was read before and the remaining flow takes the reading-session
// branch.
func (w *Workflow) detectReread() error {
	current, ok, err := w.driver.Attribute(selRating, "data-rating")
	if err != nil {
		return ErrUIState{Step: "detect_reread", Err: err}
	}
	w.reread = ok && current != "" && current != "0"
	return nil
}

// setDate opens the review-edit surface and sets the completion date through
// the per-session date pickers.
func (w *Workflow) setDate() error {
	code := w.bookURL[strings.LastIndex(w.bookURL, "/")+1:]
	if err := w.driver.Navigate(w.baseURL + "/review/edit/" + code); err != nil {
		return ErrUIState{Step: "set_date", Err: err}
	}

	if w.reread {
		// A reread needs a fresh reading session before its pickers exist.
		if err := w.driver.Click(selAddSession); err != nil {
			return ErrUIState{Step: "set_date", Err: err}
		}
		if err := w.driver.Click(selMoreDetails); err != nil {
			return ErrUIState{Step: "set_date", Err: err}
		}
		if err := w.driver.WaitVisible(selRecommend); err != nil {
			return ErrUIState{Step: "set_date", Err: err}
		}
	}

	ids, err := w.driver.ElementIDs(sessionIDPrefix)
	if err != nil {
		return ErrUIState{Step: "set_date", Err: err}
	}
	if len(ids) == 0 {
		return ErrUIState{Step: "set_date", Err: fmt.Errorf("no reading session entries on review page")}
	}
	suffix := strings.TrimPrefix(ids[len(ids)-1], sessionIDPrefix)

	parts, err := dates.Split(w.date)
	if err != nil {
		return ErrUIState{Step: "set_date", Err: err}
	}

	picker := func(field string) string {
		return fmt.Sprintf(`select[name="readingSessionDatePicker%s[end][%s]"]`, suffix, field)
	}

	if err := w.driver.SelectByText(picker("year"), parts.Year); err != nil {
		return ErrUIState{Step: "set_date", Err: err}
	}
	if err := w.driver.SelectByValue(picker("month"), parts.Month); err != nil {
		// Some review surfaces label months by name instead of number.
		month, convErr := strconv.Atoi(parts.Month)
		if convErr != nil {
			return ErrUIState{Step: "set_date", Err: err}
		}
		if err := w.driver.SelectByText(picker("month"), dates.MonthName(month)); err != nil {
			return ErrUIState{Step: "set_date", Err: err}
		}
	}
	if err := w.driver.SelectByText(picker("day"), parts.Day); err != nil {
		return ErrUIState{Step: "set_date", Err: err}
	}
	return nil
}

// addReview clears and repopulates the review box.
func (w *Workflow) addReview() error {
	if err := w.driver.Clear(selReviewBox); err != nil {
		return ErrUIState{Step: "add_review", Err: err}
	}
	if err := w.driver.Click(selReviewBox); err != nil {
		return ErrUIState{Step: "add_review", Err: err}
	}
	if err := w.driver.SendKeys(selReviewBox, w.req.Review); err != nil {
		return ErrUIState{Step: "add_review", Err: err}
	}
	return nil
}

// submitReview confirms the date and review form.
func (w *Workflow) submitReview() error {
	if err := w.driver.Click(selSubmitReview); err != nil {
		return ErrUIState{Step: "submit_review", Err: err}
	}
	return nil
}

// rate re-opens the book page and clicks the star whose label matches the
// requested rating; the first exact textual match wins.
func (w *Workflow) rate() error {
	if err := w.driver.Navigate(w.bookURL); err != nil {
		return ErrUIState{Step: "rate", Err: err}
	}
	star := fmt.Sprintf(
		`//a[contains(@class, "star") and contains(@class, "off") and normalize-space(.) = "%d of 5 stars"]`,
		w.req.Rating,
	)
	if err := w.driver.Click(star); err != nil {
		return ErrUIState{Step: "rate", Err: err}
	}
	return nil
}

// shelve applies every collected shelf through the shelving dropdown. The
// input field is cleared between entries; the whole step is skipped on a
// reread since the shelves were applied on the first read.
func (w *Workflow) shelve() error {
	if err := w.driver.WaitHidden(selOverlay); err != nil {
		return ErrUIState{Step: "shelve", Err: err}
	}
	if err := w.driver.Click(selShelfMenu); err != nil {
		return ErrUIState{Step: "shelve", Err: err}
	}
	for _, name := range w.shelves {
		if err := w.driver.SendKeys(selShelfSearch, name+"\n"); err != nil {
			return ErrUIState{Step: "shelve", Err: err}
		}
		if err := w.driver.Clear(selShelfSearch); err != nil {
			return ErrUIState{Step: "shelve", Err: err}
		}
	}
	if err := w.driver.Click(selShelfMenu); err != nil {
		return ErrUIState{Step: "shelve", Err: err}
	}
	if err := w.driver.WaitHidden(selShelfList); err != nil {
		return ErrUIState{Step: "shelve", Err: err}
	}
	w.metrics.AddShelves(len(w.shelves))
	return nil
}
