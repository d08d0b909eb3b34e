// Package crawling extracts recipe links and recipe details from scraped HTML.
package crawling

import "fmt"

// LinkExtractionError represents a failure in extracting links from HTML
type LinkExtractionError struct {
	Message string
	Cause   error
}

func (e *LinkExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("link extraction error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("link extraction error: %s", e.Message)
}

func (e *LinkExtractionError) Unwrap() error {
	return e.Cause
}

// PageParseError represents a detail page that could not be parsed at all.
// A page that parses but has no title is not an error.
type PageParseError struct {
	URL   string
	Cause error
}

func (e *PageParseError) Error() string {
	return fmt.Sprintf("page parse error for %s: %v", e.URL, e.Cause)
}

func (e *PageParseError) Unwrap() error {
	return e.Cause
}
