// Package generate abstracts the "text from instructions" capability the
// pipeline stages call into. The orchestrator treats it as opaque: one
// prompt in, one completion out.
package generate

import "context"

// Prompt is a single generation request.
type Prompt struct {
	System string
	User   string
}

// Generator produces text for a prompt. Implementations must be safe for
// concurrent use.
type Generator interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// Settings configures the default OpenAI-compatible backend.
type Settings struct {
	Model   string
	APIKey  string
	BaseURL string
}
