package ai

import "context"

// Client is the outbound port to the external generation endpoint. It takes a
// system instruction plus a user prompt and returns the raw text response,
// which callers must schema-validate before use.
type Client interface {
	Generate(ctx context.Context, system, user string) (string, error)
}
