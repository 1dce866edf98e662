// Package browser abstracts the UI-automation driver behind a small
// capability interface so the workflow logic never touches the underlying
// automation library directly.
package browser

import "time"

// DefaultWaitTimeout bounds every explicit wait unless overridden.
const DefaultWaitTimeout = 10 * time.Second

// Driver is the capability surface the read-marking workflow needs from a
// browser session. Selectors are CSS queries; selectors starting with "//"
// are treated as XPath. Waits are bounded by the session's configured
// timeout; a timeout is returned as an error, never retried here.
type Driver interface {
	// Navigate loads url and waits for the document to become ready.
	Navigate(url string) error
	// CurrentURL reports the location of the active page.
	CurrentURL() (string, error)

	// Click clicks the first element matching sel.
	Click(sel string) error
	// SendKeys types text into the first element matching sel.
	SendKeys(sel, text string) error
	// Clear empties the value of the first element matching sel.
	Clear(sel string) error

	// Text returns the trimmed text content of the first match.
	Text(sel string) (string, error)
	// Texts returns the trimmed text content of every match.
	Texts(sel string) ([]string, error)
	// Attribute reads an attribute from the first match; ok is false when
	// the attribute is absent.
	Attribute(sel, name string) (value string, ok bool, err error)
	// ElementIDs returns the id of every element whose id contains substr.
	ElementIDs(substr string) ([]string, error)

	// SelectByValue picks the <select> option with the given value.
	SelectByValue(sel, value string) error
	// SelectByText picks the <select> option with the given visible text.
	SelectByText(sel, label string) error

	// WaitVisible blocks until sel is visible.
	WaitVisible(sel string) error
	// WaitHidden blocks until sel is invisible or gone.
	WaitHidden(sel string) error
	// WaitURLChange blocks until the page location differs from from.
	WaitURLChange(from string) error

	// Close tears the session down. Safe to call more than once.
	Close() error
}

// Options configures a production session.
type Options struct {
	Headless    bool
	WaitTimeout time.Duration
	UserAgent   string
}
