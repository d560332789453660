package queue

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "socialpress/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger

	maxSize     int
	maxAttempts int
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("queue.path is required for sqlite driver")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// A single connection serializes all operations, which also gives the
	// Enqueue capacity check read-modify-write atomicity.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log, maxSize: cfg.maxSize(), maxAttempts: cfg.maxAttempts()}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Enqueue(ctx context.Context, req Request) (Receipt, error) {
	if err := req.Validate(); err != nil {
		return Receipt{}, err
	}
	data, err := json.Marshal(req)
	if err != nil {
		return Receipt{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Receipt{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var pending int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queue WHERE status = ?`, StatusPending).Scan(&pending); err != nil {
		return Receipt{}, err
	}
	if pending >= s.maxSize {
		return Receipt{}, &QueueFullError{Pending: pending, Max: s.maxSize}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO queue(data, added_at, status) VALUES(?,?,?)`,
		string(data), time.Now().Format(time.RFC3339Nano), StatusPending)
	if err != nil {
		return Receipt{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Receipt{}, err
	}
	if err := tx.Commit(); err != nil {
		return Receipt{}, err
	}
	return Receipt{ID: id, Position: pending + 1, Pending: pending + 1}, nil
}

func (s *sqliteStore) ListPending(ctx context.Context) ([]Entry, error) {
	return s.scanEntries(ctx,
		`SELECT id, data, added_at, status, processed_at, attempts
		 FROM queue WHERE status = ? ORDER BY id`, StatusPending)
}

func (s *sqliteStore) List(ctx context.Context) ([]Entry, error) {
	return s.scanEntries(ctx,
		`SELECT id, data, added_at, status, processed_at, attempts
		 FROM queue ORDER BY id`)
}

func (s *sqliteStore) scanEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e           Entry
			data        string
			addedAt     string
			processedAt sql.NullString
		)
		if err := rows.Scan(&e.ID, &data, &addedAt, &e.Status, &processedAt, &e.Attempts); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &e.Request); err != nil {
			// Skip undecodable rows instead of poisoning every batch run.
			s.log.Warn("queue entry has invalid payload; skipping", logx.Int64("id", e.ID), logx.Err(err))
			continue
		}
		if t, err := time.Parse(time.RFC3339Nano, addedAt); err == nil {
			e.AddedAt = t
		}
		if processedAt.Valid {
			if t, err := time.Parse(time.RFC3339Nano, processedAt.String); err == nil {
				e.ProcessedAt = &t
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *sqliteStore) MarkProcessed(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE queue SET status = ?, processed_at = ? WHERE id = ? AND status = ?`,
		StatusProcessed, time.Now().Format(time.RFC3339Nano), id, StatusPending)
	return err
}

func (s *sqliteStore) RecordFailure(ctx context.Context, id int64) (int, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer func() { _ = tx.Rollback() }()

	var attempts int
	err = tx.QueryRowContext(ctx,
		`SELECT attempts FROM queue WHERE id = ? AND status = ?`, id, StatusPending).Scan(&attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, ErrNotFound
	}
	if err != nil {
		return 0, false, err
	}

	attempts++
	status := StatusPending
	dead := attempts >= s.maxAttempts
	if dead {
		status = StatusDead
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE queue SET attempts = ?, status = ? WHERE id = ?`, attempts, status, id); err != nil {
		return 0, false, err
	}
	if err := tx.Commit(); err != nil {
		return 0, false, err
	}
	return attempts, dead, nil
}

func (s *sqliteStore) PurgeProcessed(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM queue WHERE status = ?`, StatusProcessed)
	return err
}

func (s *sqliteStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM queue GROUP BY status`)
	if err != nil {
		return c, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status Status
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return c, err
		}
		c.Total += n
		switch status {
		case StatusPending:
			c.Pending = n
		case StatusDead:
			c.Dead = n
		}
	}
	return c, rows.Err()
}
