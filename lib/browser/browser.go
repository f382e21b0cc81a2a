// Package browser is the automation capability the scraper drives: a single page that can
// be reloaded, have its dropdowns opened and options clicked, and have markup read out of it.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout is returned when an element does not reach the awaited condition in time.
	ErrTimeout = errors.New("timed out waiting for element")
	// ErrNotFound is returned when an element is absent at the moment it is acted on.
	ErrNotFound = errors.New("element not found")
	// ErrStale is returned when a previously listed element no longer corresponds to the
	// rendered document.
	ErrStale = errors.New("element is stale or detached from the document")
	// ErrClickIntercepted is returned when an element exists but could not be activated.
	ErrClickIntercepted = errors.New("element click intercepted")
)

// Option is one rendered item of an open dropdown, Index is its position in the rendered
// list at the time it was read.
type Option struct {
	Index int
	Text  string
}

// Session is a single page of the automation engine. Selectors are XPath expressions.
//
// note: fault injection point
type Session interface {
	// Navigate loads url, discarding all page state.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// WaitForElement waits for the element to be present in the document.
	WaitForElement(ctx context.Context, selector string, timeout time.Duration) error
	// OpenDropdown scrolls the trigger into view, waits for it to be visible and clicks it.
	OpenDropdown(ctx context.Context, trigger string, timeout time.Duration) error
	// ListOptions waits for the option list to be visible and reads the text of every option.
	ListOptions(ctx context.Context, options string, timeout time.Duration) ([]Option, error)
	// SelectOption scrolls the listed option into view and clicks it. It returns ErrStale
	// when the option at that index no longer carries the listed text.
	SelectOption(ctx context.Context, options string, option Option, timeout time.Duration) error
	// Click waits for the element to be visible, scrolls it into view and clicks it.
	Click(ctx context.Context, selector string, timeout time.Duration) error
	// ReadContainerMarkup waits for the element and returns its outer HTML.
	ReadContainerMarkup(ctx context.Context, selector string, timeout time.Duration) (string, error)
	// Close releases the page and the engine behind it.
	Close() error
}
