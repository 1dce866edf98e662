// Package scraper fetches a book's public page over plain HTTP, independent
// of the browser session, and extracts the metadata the spreadsheet needs.
package scraper

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36"

// PageInfo is the metadata extracted from a book page.
type PageInfo struct {
	Title  string
	Author string
	Pages  int
}

// Scraper wraps the colly collector used to fetch book pages. Fetched pages
// are cached per URL so that repeated lookups within a run stay local.
type Scraper struct {
	collector *colly.Collector
	cache     *lru.Cache[string, PageInfo]
	timeout   time.Duration

	mu       sync.Mutex // serializes visits; handlers write the fields below
	body     []byte
	fetchErr error
}

// Option adjusts scraper construction.
type Option func(*Scraper)

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) { s.timeout = d }
}

// New builds a scraper.
func New(opts ...Option) (*Scraper, error) {
	cache, err := lru.New[string, PageInfo](8)
	if err != nil {
		return nil, fmt.Errorf("page cache: %w", err)
	}

	s := &Scraper{
		collector: colly.NewCollector(colly.UserAgent(defaultUserAgent), colly.AllowURLRevisit()),
		cache:     cache,
		timeout:   10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.collector.SetRequestTimeout(s.timeout)

	s.collector.OnResponse(func(r *colly.Response) {
		s.body = r.Body
	})
	s.collector.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		s.fetchErr = ErrFetch{Status: status, Err: err}
	})

	return s, nil
}

// BookInfo fetches url and parses out title, author and page count. Any
// missing expected element or non-success status is fatal, surfaced as an
// ErrParse or ErrFetch.
func (s *Scraper) BookInfo(url string) (PageInfo, error) {
	if info, ok := s.cache.Get(url); ok {
		slog.Debug("book page served from cache", slog.String("url", url))
		return info, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.body = nil
	s.fetchErr = nil

	// Visit reports non-2xx responses as errors too; the OnError handler has
	// the response status, so its ErrFetch takes precedence.
	visitErr := s.collector.Visit(url)
	s.collector.Wait()

	if s.fetchErr != nil {
		return PageInfo{}, s.fetchErr
	}
	if visitErr != nil {
		return PageInfo{}, ErrFetch{Err: visitErr}
	}
	if len(s.body) == 0 {
		return PageInfo{}, ErrFetch{Err: fmt.Errorf("empty response from %s", url)}
	}

	info, err := parsePage(s.body)
	if err != nil {
		return PageInfo{}, err
	}

	s.cache.Add(url, info)
	return info, nil
}

func parsePage(body []byte) (PageInfo, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return PageInfo{}, ErrParse{Field: "document", Err: err}
	}

	var info PageInfo

	title := doc.Find("#bookTitle").First()
	if title.Length() == 0 {
		return PageInfo{}, ErrParse{Field: "title"}
	}
	info.Title = joinTitle(title.Text())
	if info.Title == "" {
		return PageInfo{}, ErrParse{Field: "title"}
	}

	author := doc.Find(".authorName").First()
	if author.Length() == 0 {
		return PageInfo{}, ErrParse{Field: "author"}
	}
	info.Author = strings.TrimSpace(author.Text())

	pages := doc.Find(`span[itemprop="numberOfPages"]`).First()
	if pages.Length() == 0 {
		return PageInfo{}, ErrParse{Field: "pages"}
	}
	text := strings.TrimSpace(pages.Text())
	text = strings.TrimSpace(strings.TrimSuffix(text, "pages"))
	info.Pages, err = strconv.Atoi(text)
	if err != nil {
		return PageInfo{}, ErrParse{Field: "pages", Err: err}
	}

	return info, nil
}

// joinTitle reconstructs the heading text. A series edition renders as
// "Title\n\n(Series, #N)"; the first and third fragments are re-joined with
// a single space. A plain title comes through verbatim.
func joinTitle(raw string) string {
	fragments := strings.Split(strings.TrimSpace(raw), "\n")
	for i := range fragments {
		fragments[i] = strings.TrimSpace(fragments[i])
	}
	switch {
	case len(fragments) >= 3:
		return fragments[0] + " " + fragments[2]
	case len(fragments) == 2:
		return fragments[0] + " " + fragments[1]
	default:
		return fragments[0]
	}
}
