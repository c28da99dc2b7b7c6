package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrMalformedOutput indicates the provider response failed JSON parsing or
// did not conform to the expected schema.
var ErrMalformedOutput = errors.New("ai output malformed")
