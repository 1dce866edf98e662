// Package models defines the data structures shared across the run.
package models

import (
	"fmt"
	"strings"
)

// Format identifies the edition format used when filtering search results.
type Format string

const (
	Paperback Format = "Paperback"
	Hardcover Format = "Hardcover"
	Kindle    Format = "Kindle"
	Ebook     Format = "Ebook"
)

// ParseFormat maps the single-letter CLI code to a Format.
func ParseFormat(code string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "p", "paperback":
		return Paperback, nil
	case "h", "hardcover", "hardback":
		return Hardcover, nil
	case "k", "kindle":
		return Kindle, nil
	case "e", "ebook":
		return Ebook, nil
	default:
		return "", fmt.Errorf("unknown format %q: want (p)aperback, (h)ardcover, (k)indle or (e)book", code)
	}
}

// RequestMode distinguishes how the book will be located.
type RequestMode int

const (
	ModeSearch RequestMode = iota
	ModeURL
)

// BookRequest is a single marking request, normalized before the workflow
// starts and immutable afterwards.
type BookRequest struct {
	Mode        RequestMode
	SearchTerms string
	Format      Format
	URL         string

	// Date is the raw token: "t", "y" or a literal DD/MM/YY.
	Date   string
	Rating int
	Review string
}

// BySearch builds a search-mode request.
func BySearch(terms string, format Format, date string, rating int, review string) (BookRequest, error) {
	if strings.TrimSpace(terms) == "" {
		return BookRequest{}, fmt.Errorf("search terms cannot be empty")
	}
	req := BookRequest{
		Mode:        ModeSearch,
		SearchTerms: terms,
		Format:      format,
		Date:        date,
		Rating:      rating,
		Review:      review,
	}
	return req, req.validate()
}

// ByURL builds a url-mode request.
func ByURL(url string, date string, rating int, review string) (BookRequest, error) {
	if strings.TrimSpace(url) == "" {
		return BookRequest{}, fmt.Errorf("book URL cannot be empty")
	}
	req := BookRequest{
		Mode:   ModeURL,
		URL:    url,
		Date:   date,
		Rating: rating,
		Review: review,
	}
	return req, req.validate()
}

func (r BookRequest) validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5, got %d", r.Rating)
	}
	if strings.TrimSpace(r.Date) == "" {
		return fmt.Errorf("date cannot be empty")
	}
	return nil
}

// Credentials holds the account login pair plus the persistence choices made
// during the run.
type Credentials struct {
	Email          string
	Password       string
	SavePassword   bool
	PromptDisabled bool
}

// BookMetadata is the scraped and derived data written to the spreadsheet.
type BookMetadata struct {
	Title    string
	Author   string
	Pages    int
	Category string
	Genre    string
}

// Row renders the six spreadsheet columns in order.
func (m BookMetadata) Row(dateRead string) []any {
	return []any{m.Title, m.Author, m.Pages, m.Category, m.Genre, dateRead}
}
