// Package apperr defines the typed errors shared across the service. The
// HTTP layer maps them to status codes; the core never encodes transport
// semantics itself.
package apperr

import "fmt"

// SourceFetchError reports an upstream transport or parse failure. Status is
// the upstream HTTP status when one was received, 0 otherwise.
type SourceFetchError struct {
	Source string
	Status int
	Err    error
}

func (e *SourceFetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s fetch failed (status %d): %v", e.Source, e.Status, e.Err)
	}
	return fmt.Sprintf("%s fetch failed: %v", e.Source, e.Err)
}

func (e *SourceFetchError) Unwrap() error { return e.Err }

// NotFoundError reports a requested channel or episode that does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// NoMatchError reports an Apple Podcasts lookup that returned zero results.
type NoMatchError struct {
	Term string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no podcast matching %q", e.Term)
}

// FeedUnavailableError reports a matched podcast with no feed URL.
type FeedUnavailableError struct {
	Title string
}

func (e *FeedUnavailableError) Error() string {
	return fmt.Sprintf("no RSS feed available for %q", e.Title)
}

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
