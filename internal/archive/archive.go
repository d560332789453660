// Package archive appends completed batch entries to a JSONL audit file.
// Writes are best-effort: a failed append is logged and never fails the
// batch that produced it.
package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"socialpress/internal/pipeline"
	"socialpress/internal/queue"
	logx "socialpress/pkg/logx"
)

// Record is one archived entry result.
type Record struct {
	Time      time.Time        `json:"time"`
	RunID     string           `json:"run_id"`
	EntryID   int64            `json:"entry_id"`
	Request   queue.Request    `json:"request"`
	Processed bool             `json:"processed"`
	Outcome   pipeline.Outcome `json:"outcome"`
}

type Archive struct {
	mu   sync.Mutex
	path string
	log  logx.Logger
}

// New prepares an archive at path. The parent directory is created
// eagerly so the first append cannot fail on a missing directory.
func New(path string, log logx.Logger) (*Archive, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &Archive{path: path, log: log}, nil
}

// Append writes one record as a JSON line. Errors are swallowed after
// logging.
func (a *Archive) Append(rec Record) {
	if rec.Time.IsZero() {
		rec.Time = time.Now().UTC()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		a.log.Warn("archive open failed", logx.String("path", a.path), logx.Err(err))
		return
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(rec); err != nil {
		a.log.Warn("archive write failed", logx.String("path", a.path), logx.Err(err))
	}
}
