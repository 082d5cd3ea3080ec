package locator

import (
	"fmt"
	"strings"
)

// NotFoundError is returned when an overlay exists neither locally nor in
// the download catalog.
type NotFoundError struct {
	Name   string
	Tested []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("overlay %q not found, tested:\n - %s", e.Name, strings.Join(e.Tested, "\n - "))
}

// RetrievalError is returned when downloading a catalog overlay fails.
type RetrievalError struct {
	Name string
	URL  string
	Err  error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("failed to retrieve overlay %q from %s: %v", e.Name, e.URL, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }
