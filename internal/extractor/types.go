package extractor

import (
	"errors"
	"fmt"

	"github.com/MikeSquared-Agency/factfind/internal/profile"
)

// Turn is one utterance in a call transcript.
type Turn struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// ErrUnavailable wraps any failure of the language model call itself,
// including timeouts.
var ErrUnavailable = errors.New("extraction model unavailable")

// maxSnippet bounds how much of an unparseable reply is kept for logging.
const maxSnippet = 500

// ParseError reports a model reply that was not valid JSON.
type ParseError struct {
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model reply: %v (reply starts %q)", e.Err, e.Snippet)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports a well-formed reply that does not fit the profile model.
type ValidationError struct {
	Err *profile.ValidationError
}

func (e *ValidationError) Error() string { return "validate model reply: " + e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }
