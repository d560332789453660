// Package poster is the uniform delivery boundary: one adapter per
// platform, all reporting the same three-way outcome (success,
// duplicate-skip, failure). Adapters never retry; the batch layer owns
// retries.
package poster

import (
	"context"
	"errors"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Result is the terminal state of one delivery attempt.
type Result struct {
	OK         bool    `json:"ok"`
	ExternalID string  `json:"external_id,omitempty"`
	Outcome    Outcome `json:"outcome"`
	Reason     string  `json:"reason,omitempty"`
}

// Metadata is optional article context some platforms render alongside
// the post.
type Metadata struct {
	SourceURL   string
	Title       string
	Description string
	ImagePath   string
}

// Content is what a branch hands to its adapter. Thread is set only for
// the short-form platform (pre-split segments); everyone else uses Text.
type Content struct {
	Text   string
	Thread []string
	Meta   *Metadata
}

// Poster delivers content to one platform.
type Poster interface {
	Platform() string
	Post(ctx context.Context, c Content) (Result, error)
}

// ResultOf folds an adapter call into a Result. Duplicate-content
// rejections become Skipped, everything else failing becomes Failed.
func ResultOf(externalID string, err error) Result {
	switch {
	case err == nil:
		return Result{OK: true, ExternalID: externalID, Outcome: OutcomeSuccess}
	case errors.Is(err, ErrDuplicateContent):
		return Result{OK: true, Outcome: OutcomeSkipped, Reason: err.Error()}
	default:
		return Result{Outcome: OutcomeFailed, Reason: err.Error()}
	}
}
