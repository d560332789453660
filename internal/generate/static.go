package generate

import (
	"context"
	"strings"
)

// Static is a deterministic stand-in for local runs and tests. It never
// calls a model: every completion echoes the prompt's user content.
type Static struct{}

func (Static) Complete(_ context.Context, p Prompt) (string, error) {
	var sb strings.Builder
	sb.WriteString("[draft]\n")
	sb.WriteString(p.User)
	return sb.String(), nil
}

// Func adapts a plain function to the Generator interface; handy in tests
// for scripting per-prompt behavior.
type Func func(ctx context.Context, p Prompt) (string, error)

func (f Func) Complete(ctx context.Context, p Prompt) (string, error) { return f(ctx, p) }
