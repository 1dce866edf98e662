package scraper

import (
	"errors"
	"fmt"
)

// ErrFetch indicates the book page could not be retrieved.
type ErrFetch struct {
	Status int
	Err    error
}

func (e ErrFetch) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch: http status %d", e.Status)
	}
	return fmt.Errorf("fetch: %w", e.Err).Error()
}

func (e ErrFetch) Unwrap() error {
	return e.Err
}

// ErrParse indicates an expected element was missing or malformed on the
// fetched page.
type ErrParse struct {
	Field string
	Err   error
}

func (e ErrParse) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse: missing %s", e.Field)
	}
	return fmt.Errorf("parse %s: %w", e.Field, e.Err).Error()
}

func (e ErrParse) Unwrap() error {
	return e.Err
}

// IsScrapeError reports whether err came from the scraper. The caller uses
// this to flag the marked-remotely-but-never-recorded inconsistency window.
func IsScrapeError(err error) bool {
	var fetch ErrFetch
	var parse ErrParse
	return errors.As(err, &fetch) || errors.As(err, &parse)
}
