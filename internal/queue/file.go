package queue

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logx "socialpress/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// The whole entry list lives in one JSON document that is rewritten
// atomically (temp file + rename) on every mutation, under a single
// mutex. That closes the lost-update race of unguarded
// load-mutate-save cycles.
type fileStore struct {
	log logx.Logger

	mu   sync.Mutex
	path string

	nextID  int64
	entries []Entry

	maxSize     int
	maxAttempts int

	closed bool
}

type fileDoc struct {
	NextID  int64   `json:"next_id"`
	Entries []Entry `json:"entries"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("queue.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	s := &fileStore{
		log:         log,
		path:        path,
		nextID:      1,
		maxSize:     cfg.maxSize(),
		maxAttempts: cfg.maxAttempts(),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *fileStore) load() error {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var doc fileDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	s.entries = doc.Entries
	s.nextID = doc.NextID
	// Never reuse an id, even after manual edits of the file.
	for _, e := range s.entries {
		if e.ID >= s.nextID {
			s.nextID = e.ID + 1
		}
	}
	if s.nextID < 1 {
		s.nextID = 1
	}
	return nil
}

// saveLocked rewrites the whole document atomically.
func (s *fileStore) saveLocked() error {
	doc := fileDoc{NextID: s.nextID, Entries: s.entries}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fileStore) Enqueue(ctx context.Context, req Request) (Receipt, error) {
	_ = ctx
	if err := req.Validate(); err != nil {
		return Receipt{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Receipt{}, ErrClosed
	}

	pending := s.pendingCountLocked()
	if pending >= s.maxSize {
		return Receipt{}, &QueueFullError{Pending: pending, Max: s.maxSize}
	}

	e := Entry{
		ID:      s.nextID,
		Request: req,
		AddedAt: time.Now(),
		Status:  StatusPending,
	}
	s.nextID++
	s.entries = append(s.entries, e)
	if err := s.saveLocked(); err != nil {
		// roll back the in-memory mutation so a failed write is invisible
		s.entries = s.entries[:len(s.entries)-1]
		s.nextID--
		return Receipt{}, err
	}
	return Receipt{ID: e.ID, Position: pending + 1, Pending: pending + 1}, nil
}

func (s *fileStore) pendingCountLocked() int {
	n := 0
	for _, e := range s.entries {
		if e.Status == StatusPending {
			n++
		}
	}
	return n
}

func (s *fileStore) ListPending(ctx context.Context) ([]Entry, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	var out []Entry
	for _, e := range s.entries {
		if e.Status == StatusPending {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fileStore) List(ctx context.Context) ([]Entry, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return append([]Entry(nil), s.entries...), nil
}

func (s *fileStore) MarkProcessed(ctx context.Context, id int64) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for i := range s.entries {
		if s.entries[i].ID == id && s.entries[i].Status == StatusPending {
			now := time.Now()
			s.entries[i].Status = StatusProcessed
			s.entries[i].ProcessedAt = &now
			return s.saveLocked()
		}
	}
	// absent or already processed: idempotent no-op
	return nil
}

func (s *fileStore) RecordFailure(ctx context.Context, id int64) (int, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, false, ErrClosed
	}
	for i := range s.entries {
		if s.entries[i].ID != id || s.entries[i].Status != StatusPending {
			continue
		}
		s.entries[i].Attempts++
		dead := s.entries[i].Attempts >= s.maxAttempts
		if dead {
			s.entries[i].Status = StatusDead
		}
		if err := s.saveLocked(); err != nil {
			return 0, false, err
		}
		return s.entries[i].Attempts, dead, nil
	}
	return 0, false, ErrNotFound
}

func (s *fileStore) PurgeProcessed(ctx context.Context) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.Status != StatusProcessed {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	return s.saveLocked()
}

func (s *fileStore) Counts(ctx context.Context) (Counts, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Counts{}, ErrClosed
	}
	c := Counts{Total: len(s.entries)}
	for _, e := range s.entries {
		switch e.Status {
		case StatusPending:
			c.Pending++
		case StatusDead:
			c.Dead++
		}
	}
	return c, nil
}
