package model

import "fmt"

// ValidationError rejects a payload before any write when a required identity
// field is missing or unusable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// UpstreamParseError reports a generative-model response that is not valid
// JSON. The excerpt is carried to the caller; the condition is never silently
// defaulted to an empty result.
type UpstreamParseError struct {
	Excerpt string
	Err     error
}

func (e *UpstreamParseError) Error() string {
	return fmt.Sprintf("upstream response is not valid JSON: %v (excerpt: %.120s)", e.Err, e.Excerpt)
}

func (e *UpstreamParseError) Unwrap() error { return e.Err }
