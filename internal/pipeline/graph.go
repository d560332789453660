package pipeline

import (
	"context"
	"fmt"
)

// StageError is one stage's captured failure. It stays inside the branch
// outcome; sibling branches and the batch keep running.
type StageError struct {
	Stage string
	Cause error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Cause) }
func (e *StageError) Unwrap() error { return e.Cause }

type stage struct {
	name string
	deps []string
	run  func(ctx context.Context) error
}

// graph executes stages in registration order, which by construction is a
// topological order of the fixed pipeline shape. A stage whose dependency
// failed is skipped and inherits the dependency's error.
type graph struct {
	stages []stage
	known  map[string]bool
	failed map[string]*StageError
}

func newGraph() *graph {
	return &graph{
		known:  make(map[string]bool),
		failed: make(map[string]*StageError),
	}
}

func (g *graph) add(name string, deps []string, run func(ctx context.Context) error) {
	for _, d := range deps {
		if !g.known[d] {
			panic(fmt.Sprintf("pipeline: stage %q depends on unregistered %q", name, d))
		}
	}
	if g.known[name] {
		panic(fmt.Sprintf("pipeline: stage %q registered twice", name))
	}
	g.known[name] = true
	g.stages = append(g.stages, stage{name: name, deps: deps, run: run})
}

// run walks the graph once. The only error it returns is context
// cancellation; stage failures are recorded in g.failed.
func (g *graph) run(ctx context.Context) error {
	for _, s := range g.stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if dep := g.blockedBy(s); dep != nil {
			g.failed[s.name] = &StageError{Stage: s.name, Cause: dep}
			continue
		}
		if err := s.run(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			g.failed[s.name] = &StageError{Stage: s.name, Cause: err}
		}
	}
	return nil
}

func (g *graph) blockedBy(s stage) *StageError {
	for _, d := range s.deps {
		if err, ok := g.failed[d]; ok {
			return err
		}
	}
	return nil
}

// failure reports the captured error for a stage, nil if it succeeded.
func (g *graph) failure(name string) *StageError { return g.failed[name] }
