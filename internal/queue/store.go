package queue

import (
	"context"
	"fmt"
	"strings"

	logx "socialpress/pkg/logx"
)

// Store is the durable request queue.
//
// All mutating operations are serialized against each other and against
// ListPending, so a snapshot taken at batch start is never affected by a
// concurrent Enqueue.
type Store interface {
	// Enqueue appends a new pending entry, or returns *QueueFullError when
	// the pending count has reached the configured bound. A rejected
	// enqueue leaves the store untouched.
	Enqueue(ctx context.Context, req Request) (Receipt, error)

	// ListPending returns the pending entries in insertion order.
	// The returned slice is a snapshot; later mutations don't affect it.
	ListPending(ctx context.Context) ([]Entry, error)

	// List returns every entry (any status) in insertion order.
	List(ctx context.Context) ([]Entry, error)

	// MarkProcessed flips an entry to processed. Idempotent: a no-op when
	// the entry is already processed or absent.
	MarkProcessed(ctx context.Context, id int64) error

	// RecordFailure bumps the retry counter of a pending entry after a
	// totally-failed batch run. Once attempts reach the configured bound
	// the entry transitions to StatusDead and is reported dead=true.
	RecordFailure(ctx context.Context, id int64) (attempts int, dead bool, err error)

	// PurgeProcessed removes every processed entry.
	PurgeProcessed(ctx context.Context) error

	Counts(ctx context.Context) (Counts, error)

	Close() error
}

// Open selects a driver from config. Driver names: "sqlite" (default), "file".
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "sqlite":
		return openSQLite(cfg, log)
	case "file":
		return openFile(cfg, log)
	default:
		return nil, fmt.Errorf("unknown queue driver %q (want sqlite or file)", cfg.Driver)
	}
}
