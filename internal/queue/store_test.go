package queue

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	logx "socialpress/pkg/logx"
)

func testRequest(text string) Request {
	return Request{Text: text, Platforms: Platforms{Telegram: true}}
}

func openTestStore(t *testing.T, driver string, maxSize int) Store {
	t.Helper()
	name := "queue.db"
	if driver == "file" {
		name = "queue.json"
	}
	st, err := Open(Config{
		Driver:      driver,
		Path:        filepath.Join(t.TempDir(), name),
		MaxSize:     maxSize,
		MaxAttempts: 2,
	}, logx.Nop())
	if err != nil {
		t.Fatalf("open %s store: %v", driver, err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func forEachDriver(t *testing.T, maxSize int, fn func(t *testing.T, st Store)) {
	for _, driver := range []string{"sqlite", "file"} {
		t.Run(driver, func(t *testing.T) {
			fn(t, openTestStore(t, driver, maxSize))
		})
	}
}

func TestEnqueueCapacityBound(t *testing.T) {
	forEachDriver(t, 3, func(t *testing.T, st Store) {
		ctx := context.Background()
		for i := 1; i <= 3; i++ {
			rcpt, err := st.Enqueue(ctx, testRequest("hello"))
			if err != nil {
				t.Fatalf("enqueue %d: %v", i, err)
			}
			if rcpt.Position != i {
				t.Fatalf("position = %d, want %d", rcpt.Position, i)
			}
		}

		_, err := st.Enqueue(ctx, testRequest("overflow"))
		if !IsQueueFull(err) {
			t.Fatalf("expected QueueFullError, got %v", err)
		}

		// rejection must not mutate the store
		c, err := st.Counts(ctx)
		if err != nil {
			t.Fatalf("counts: %v", err)
		}
		if c.Pending != 3 || c.Total != 3 {
			t.Fatalf("counts after rejection = %+v, want 3 pending / 3 total", c)
		}
	})
}

func TestValidationRejectedBeforeEnqueue(t *testing.T) {
	forEachDriver(t, 3, func(t *testing.T, st Store) {
		ctx := context.Background()
		cases := []Request{
			{},
			{Text: "both", URL: "https://example.com", Platforms: Platforms{Twitter: true}},
			{URL: "ftp://example.com", Platforms: Platforms{Twitter: true}},
			{Text: "no platforms"},
		}
		for _, req := range cases {
			if _, err := st.Enqueue(ctx, req); !IsValidation(err) {
				t.Fatalf("request %+v: expected ValidationError, got %v", req, err)
			}
		}
	})
}

func TestIDsMonotonicAcrossPurge(t *testing.T) {
	forEachDriver(t, 5, func(t *testing.T, st Store) {
		ctx := context.Background()
		r1, _ := st.Enqueue(ctx, testRequest("a"))
		r2, _ := st.Enqueue(ctx, testRequest("b"))
		if r2.ID <= r1.ID {
			t.Fatalf("ids not increasing: %d then %d", r1.ID, r2.ID)
		}

		if err := st.MarkProcessed(ctx, r1.ID); err != nil {
			t.Fatalf("mark: %v", err)
		}
		if err := st.MarkProcessed(ctx, r2.ID); err != nil {
			t.Fatalf("mark: %v", err)
		}
		if err := st.PurgeProcessed(ctx); err != nil {
			t.Fatalf("purge: %v", err)
		}

		r3, err := st.Enqueue(ctx, testRequest("c"))
		if err != nil {
			t.Fatalf("enqueue after purge: %v", err)
		}
		if r3.ID <= r2.ID {
			t.Fatalf("id %d reused after purge (last was %d)", r3.ID, r2.ID)
		}
	})
}

func TestMarkProcessedIdempotent(t *testing.T) {
	forEachDriver(t, 5, func(t *testing.T, st Store) {
		ctx := context.Background()
		rcpt, _ := st.Enqueue(ctx, testRequest("a"))

		if err := st.MarkProcessed(ctx, rcpt.ID); err != nil {
			t.Fatalf("first mark: %v", err)
		}
		if err := st.MarkProcessed(ctx, rcpt.ID); err != nil {
			t.Fatalf("second mark: %v", err)
		}
		if err := st.MarkProcessed(ctx, 9999); err != nil {
			t.Fatalf("mark absent id: %v", err)
		}

		pending, err := st.ListPending(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(pending) != 0 {
			t.Fatalf("pending = %d, want 0", len(pending))
		}
	})
}

func TestRecordFailureDeadLetters(t *testing.T) {
	forEachDriver(t, 5, func(t *testing.T, st Store) {
		ctx := context.Background()
		rcpt, _ := st.Enqueue(ctx, testRequest("a"))

		attempts, dead, err := st.RecordFailure(ctx, rcpt.ID)
		if err != nil || dead {
			t.Fatalf("first failure: attempts=%d dead=%v err=%v", attempts, dead, err)
		}
		attempts, dead, err = st.RecordFailure(ctx, rcpt.ID)
		if err != nil {
			t.Fatalf("second failure: %v", err)
		}
		if !dead || attempts != 2 {
			t.Fatalf("expected dead after 2 attempts, got attempts=%d dead=%v", attempts, dead)
		}

		// dead entries are no longer pending and survive purge
		pending, _ := st.ListPending(ctx)
		if len(pending) != 0 {
			t.Fatalf("dead entry still pending")
		}
		if err := st.PurgeProcessed(ctx); err != nil {
			t.Fatalf("purge: %v", err)
		}
		c, _ := st.Counts(ctx)
		if c.Dead != 1 || c.Total != 1 {
			t.Fatalf("counts = %+v, want 1 dead / 1 total", c)
		}
	})
}

func TestSnapshotUnaffectedByLaterEnqueue(t *testing.T) {
	forEachDriver(t, 5, func(t *testing.T, st Store) {
		ctx := context.Background()
		st.Enqueue(ctx, testRequest("a"))
		st.Enqueue(ctx, testRequest("b"))

		snapshot, err := st.ListPending(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if _, err := st.Enqueue(ctx, testRequest("c")); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
		if len(snapshot) != 2 {
			t.Fatalf("snapshot mutated by later enqueue: %d entries", len(snapshot))
		}
	})
}

func TestConcurrentEnqueueNeverExceedsBound(t *testing.T) {
	forEachDriver(t, 4, func(t *testing.T, st Store) {
		ctx := context.Background()
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = st.Enqueue(ctx, testRequest("x"))
			}()
		}
		wg.Wait()

		c, err := st.Counts(ctx)
		if err != nil {
			t.Fatalf("counts: %v", err)
		}
		if c.Pending != 4 {
			t.Fatalf("pending = %d, want exactly the bound 4", c.Pending)
		}
	})
}

func TestFileStoreReopenKeepsIDs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "queue.json")
	cfg := Config{Driver: "file", Path: path, MaxSize: 5}

	st, err := Open(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	r1, _ := st.Enqueue(ctx, testRequest("a"))
	_ = st.MarkProcessed(ctx, r1.ID)
	_ = st.PurgeProcessed(ctx)
	_ = st.Close()

	st2, err := Open(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st2.Close()
	r2, err := st2.Enqueue(ctx, testRequest("b"))
	if err != nil {
		t.Fatalf("enqueue after reopen: %v", err)
	}
	if r2.ID <= r1.ID {
		t.Fatalf("id %d reused after reopen (last was %d)", r2.ID, r1.ID)
	}
}
