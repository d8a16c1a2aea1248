// Package llm is the decision engine boundary: a prompt plus an input value
// goes in, either strict JSON or free text comes out. Callers own parsing
// the JSON into their per-call-site result types.
package llm

import (
	"context"
	"encoding/json"
)

// Client is the decision-engine contract. Calls may fail; conversational
// callers treat failure as recoverable and keep their prior state.
type Client interface {
	Name() string
	// GenerateJSON requests a strict-JSON response for the prompt.
	GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error)
	// GenerateText requests a free-form text response.
	GenerateText(ctx context.Context, prompt string, input any) (string, error)
	Close() error
}
