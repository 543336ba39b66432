package acquire

import (
	"errors"
	"fmt"
)

// ErrUnparseableURL means no post identifier could be extracted from
// the submitted URL. Never retried.
var ErrUnparseableURL = errors.New("could not extract a post identifier from URL")

// ValidationError reports rejected caller input (bad extension, missing
// file or URL). Maps to a 400 at the HTTP layer.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// BlockedError is returned when every acquisition strategy has been
// exhausted. It carries an actionable suggestion instead of a raw
// upstream failure and is never retried further up the stack.
type BlockedError struct {
	URL      string
	Attempts []Attempt
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("all %d download strategies failed for %s", len(e.Attempts), e.URL)
}

// Suggestion is the human-actionable recovery path surfaced to callers
func (e *BlockedError) Suggestion() string {
	return "The post could not be downloaded automatically. Save the media to your device and upload the file directly."
}

// Attempt records one strategy try in the acquisition ladder
type Attempt struct {
	Strategy string
	Err      error
}
