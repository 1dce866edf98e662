package scraper

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jarcoal/httpmock"
)

const bookPage = `<html><body>
<h1 id="bookTitle">
	Cannery Row
</h1>
<a class="authorName"><span itemprop="name">John Steinbeck</span></a>
<div id="details">
	<span itemprop="numberOfPages">181 pages</span>
</div>
</body></html>`

const seriesPage = `<html><body>
<h1 id="bookTitle">
	The Fellowship of the Ring

	(The Lord of the Rings, #1)
</h1>
<a class="authorName">J.R.R. Tolkien</a>
<span itemprop="numberOfPages">423 pages</span>
</body></html>`

func newTestScraper(t *testing.T) (*Scraper, *httpmock.MockTransport) {
	t.Helper()
	s, err := New()
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}
	transport := httpmock.NewMockTransport()
	s.collector.WithTransport(transport)
	return s, transport
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}

func TestBookInfo(t *testing.T) {
	s, transport := newTestScraper(t)
	url := "http://example.test/book/show/4799.Cannery_Row"
	transport.RegisterResponder("GET", url, htmlResponder(bookPage))

	info, err := s.BookInfo(url)
	if err != nil {
		t.Fatalf("BookInfo: %v", err)
	}
	if info.Title != "Cannery Row" {
		t.Fatalf("title = %q, want Cannery Row", info.Title)
	}
	if info.Author != "John Steinbeck" {
		t.Fatalf("author = %q, want John Steinbeck", info.Author)
	}
	if info.Pages != 181 {
		t.Fatalf("pages = %d, want 181", info.Pages)
	}
}

func TestBookInfoSeriesTitle(t *testing.T) {
	s, transport := newTestScraper(t)
	url := "http://example.test/book/show/34.Fellowship"
	transport.RegisterResponder("GET", url, htmlResponder(seriesPage))

	info, err := s.BookInfo(url)
	if err != nil {
		t.Fatalf("BookInfo: %v", err)
	}
	want := "The Fellowship of the Ring (The Lord of the Rings, #1)"
	if info.Title != want {
		t.Fatalf("title = %q, want %q", info.Title, want)
	}
	if info.Pages != 423 {
		t.Fatalf("pages = %d, want 423", info.Pages)
	}
}

func TestBookInfoCachesPage(t *testing.T) {
	s, transport := newTestScraper(t)
	url := "http://example.test/book/show/4799.Cannery_Row"
	transport.RegisterResponder("GET", url, htmlResponder(bookPage))

	if _, err := s.BookInfo(url); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, err := s.BookInfo(url); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if calls := transport.GetTotalCallCount(); calls != 1 {
		t.Fatalf("network calls = %d, want 1", calls)
	}
}

func TestBookInfoHTTPError(t *testing.T) {
	s, transport := newTestScraper(t)
	url := "http://example.test/book/show/404"
	transport.RegisterResponder("GET", url, httpmock.NewStringResponder(404, "not found"))

	_, err := s.BookInfo(url)
	var fetchErr ErrFetch
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %v, want ErrFetch", err)
	}
	if fetchErr.Status != 404 {
		t.Fatalf("status = %d, want 404", fetchErr.Status)
	}
}

func TestBookInfoConnectionFailure(t *testing.T) {
	s, transport := newTestScraper(t)
	url := "http://example.test/book/show/1"
	transport.RegisterResponder("GET", url, httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := s.BookInfo(url)
	var fetchErr ErrFetch
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %v, want ErrFetch", err)
	}
	if fetchErr.Status != 0 {
		t.Fatalf("status = %d, want 0 for a failed connection", fetchErr.Status)
	}
}

func TestBookInfoMissingElements(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{
			name:  "no title",
			body:  `<html><body><a class="authorName">A</a><span itemprop="numberOfPages">10 pages</span></body></html>`,
			field: "title",
		},
		{
			name:  "no author",
			body:  `<html><body><h1 id="bookTitle">T</h1><span itemprop="numberOfPages">10 pages</span></body></html>`,
			field: "author",
		},
		{
			name:  "no pages",
			body:  `<html><body><h1 id="bookTitle">T</h1><a class="authorName">A</a></body></html>`,
			field: "pages",
		},
		{
			name:  "unparseable pages",
			body:  `<html><body><h1 id="bookTitle">T</h1><a class="authorName">A</a><span itemprop="numberOfPages">many pages</span></body></html>`,
			field: "pages",
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, transport := newTestScraper(t)
			url := fmt.Sprintf("http://example.test/book/%d", i)
			transport.RegisterResponder("GET", url, htmlResponder(tt.body))

			_, err := s.BookInfo(url)
			var parseErr ErrParse
			if !errors.As(err, &parseErr) {
				t.Fatalf("error = %v, want ErrParse", err)
			}
			if parseErr.Field != tt.field {
				t.Fatalf("field = %q, want %q", parseErr.Field, tt.field)
			}
		})
	}
}

func TestIsScrapeError(t *testing.T) {
	if !IsScrapeError(ErrFetch{Status: 500}) {
		t.Fatalf("ErrFetch should be a scrape error")
	}
	if !IsScrapeError(fmt.Errorf("wrapped: %w", ErrParse{Field: "title"})) {
		t.Fatalf("wrapped ErrParse should be a scrape error")
	}
	if IsScrapeError(errors.New("boom")) {
		t.Fatalf("arbitrary errors are not scrape errors")
	}
}

func TestJoinTitle(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "single line", raw: "  Cannery Row  ", want: "Cannery Row"},
		{name: "series", raw: "A Title\n\n(Series, #2)", want: "A Title (Series, #2)"},
		{name: "two fragments", raw: "A Title\n(Series, #2)", want: "A Title (Series, #2)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinTitle(tt.raw); got != tt.want {
				t.Fatalf("joinTitle(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
