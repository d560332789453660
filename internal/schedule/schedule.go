// Package schedule owns the batch lifecycle: a daily wall-clock trigger
// and a manual trigger drive the same batch routine, never concurrently.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"socialpress/internal/archive"
	"socialpress/internal/eventbus"
	"socialpress/internal/pipeline"
	"socialpress/internal/queue"
	logx "socialpress/pkg/logx"
)

// ErrBatchRunning rejects a trigger that fires while a batch is in
// flight. The caller retries later; batches never overlap.
var ErrBatchRunning = errors.New("a batch is already running")

type Config struct {
	Enabled bool
	// Time is the daily trigger in "HH:MM" wall-clock form.
	Time     string
	Timezone string
	// EntryDelay is the pause between queue entries within a batch,
	// backpressure for downstream rate limits.
	EntryDelay time.Duration
}

func (c Config) entryDelay() time.Duration {
	if c.EntryDelay <= 0 {
		return 2 * time.Second
	}
	return c.EntryDelay
}

// Report aggregates one batch run.
type Report struct {
	RunID     string        `json:"run_id"`
	Total     int           `json:"total"`
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Started   time.Time     `json:"started"`
	Duration  time.Duration `json:"duration"`
}

// PipelineRunner is the slice of pipeline.Pipeline the scheduler needs.
type PipelineRunner interface {
	Run(ctx context.Context, req queue.Request) (pipeline.Outcome, error)
}

type Deps struct {
	Store    queue.Store
	Pipeline PipelineRunner
	Bus      eventbus.Bus
	Archive  *archive.Archive
	Logger   logx.Logger
}

type Scheduler struct {
	cfg   Config
	store queue.Store
	pipe  PipelineRunner
	bus   eventbus.Bus
	arch  *archive.Archive
	log   logx.Logger

	mu      sync.Mutex
	running bool
	c       *cron.Cron
	baseCtx context.Context
}

func New(cfg Config, d Deps) (*Scheduler, error) {
	if d.Store == nil {
		return nil, errors.New("scheduler needs a queue store")
	}
	if d.Pipeline == nil {
		return nil, errors.New("scheduler needs a pipeline")
	}
	if cfg.Enabled {
		if _, _, err := ParseClock(cfg.Time); err != nil {
			return nil, err
		}
	}
	if d.Logger.IsZero() {
		d.Logger = logx.Nop()
	}
	return &Scheduler{
		cfg:   cfg,
		store: d.Store,
		pipe:  d.Pipeline,
		bus:   d.Bus,
		arch:  d.Archive,
		log:   d.Logger,
	}, nil
}

// Start registers the daily cron trigger. A disabled scheduler still
// serves RunNow; Start is then a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cfg.Enabled || s.c != nil {
		s.baseCtx = ctx
		return nil
	}

	hour, minute, err := ParseClock(s.cfg.Time)
	if err != nil {
		return err
	}
	loc := time.Local
	if tz := s.cfg.Timezone; tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("scheduler timezone: %w", err)
		}
	}

	s.baseCtx = ctx
	c := cron.New(cron.WithLocation(loc))
	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	if _, err := c.AddFunc(spec, s.onTimer); err != nil {
		return fmt.Errorf("register daily trigger: %w", err)
	}
	c.Start()
	s.c = c
	s.log.Info("daily trigger armed",
		logx.String("at", s.cfg.Time), logx.String("tz", loc.String()))
	return nil
}

// Stop halts the cron trigger and waits for a triggered batch to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// NextRun reports the next daily trigger time, ok=false when the timer
// is not armed.
func (s *Scheduler) NextRun() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return time.Time{}, false
	}
	entries := s.c.Entries()
	if len(entries) == 0 {
		return time.Time{}, false
	}
	return entries[0].Next, true
}

// Running reports whether a batch is in flight.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) onTimer() {
	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := s.RunNow(ctx); err != nil {
		if errors.Is(err, ErrBatchRunning) {
			s.log.Warn("daily trigger skipped, batch still running")
			return
		}
		s.log.Error("daily batch failed", logx.Err(err))
	}
}

// RunNow processes the current queue snapshot. Exactly one batch runs at
// a time; a second trigger gets ErrBatchRunning.
func (s *Scheduler) RunNow(ctx context.Context) (Report, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return Report{}, ErrBatchRunning
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	return s.runBatch(ctx)
}

func (s *Scheduler) runBatch(ctx context.Context) (Report, error) {
	rep := Report{RunID: uuid.NewString(), Started: time.Now()}
	log := s.log.With(logx.String("run_id", rep.RunID))

	snapshot, err := s.store.ListPending(ctx)
	if err != nil {
		log.Error("batch aborted, queue unreadable", logx.Err(err))
		return rep, fmt.Errorf("list pending: %w", err)
	}
	rep.Total = len(snapshot)
	log.Info("batch started", logx.Int("entries", rep.Total))
	s.publish(eventbus.TypeBatchStarted, eventbus.BatchStarted{RunID: rep.RunID, Total: rep.Total})

	for i, entry := range snapshot {
		if err := ctx.Err(); err != nil {
			log.Warn("batch cancelled", logx.Int("remaining", rep.Total-i))
			rep.Duration = time.Since(rep.Started)
			return rep, err
		}
		s.processEntry(ctx, log, &rep, entry)

		if i < len(snapshot)-1 {
			select {
			case <-time.After(s.cfg.entryDelay()):
			case <-ctx.Done():
			}
		}
	}

	if err := s.store.PurgeProcessed(ctx); err != nil {
		log.Warn("purge failed", logx.Err(err))
	}

	rep.Duration = time.Since(rep.Started)
	log.Info("batch finished",
		logx.Int("total", rep.Total),
		logx.Int("processed", rep.Processed),
		logx.Int("failed", rep.Failed),
		logx.Duration("took", rep.Duration))
	s.publish(eventbus.TypeBatchFinished, eventbus.BatchFinished{
		RunID: rep.RunID, Total: rep.Total, Processed: rep.Processed, Failed: rep.Failed,
	})
	return rep, nil
}

func (s *Scheduler) processEntry(ctx context.Context, log logx.Logger, rep *Report, entry queue.Entry) {
	elog := log.With(logx.Int64("entry_id", entry.ID))

	outcome, err := s.pipe.Run(ctx, entry.Request)
	if err != nil && ctx.Err() != nil {
		return
	}

	processed := err == nil && !outcome.TotalFailure()
	var dead bool
	if processed {
		if merr := s.store.MarkProcessed(ctx, entry.ID); merr != nil {
			elog.Error("mark processed failed", logx.Err(merr))
		}
		rep.Processed++
		elog.Info("entry processed",
			logx.Int("succeeded", outcome.Succeeded()),
			logx.Int("platforms", len(outcome.Posts)))
	} else {
		rep.Failed++
		if err != nil {
			elog.Warn("entry rejected by pipeline", logx.Err(err))
		}
		attempts, d, ferr := s.store.RecordFailure(ctx, entry.ID)
		if ferr != nil {
			elog.Error("record failure failed", logx.Err(ferr))
		} else {
			dead = d
			if dead {
				elog.Warn("entry dead-lettered", logx.Int("attempts", attempts))
			} else {
				elog.Warn("entry failed on all platforms, will retry",
					logx.Int("attempts", attempts))
			}
		}
	}

	if s.arch != nil {
		s.arch.Append(archive.Record{
			RunID:     rep.RunID,
			EntryID:   entry.ID,
			Request:   entry.Request,
			Processed: processed,
			Outcome:   outcome,
		})
	}
	s.publish(eventbus.TypeEntryFinished, eventbus.EntryFinished{
		RunID:     rep.RunID,
		EntryID:   entry.ID,
		Processed: processed,
		Dead:      dead,
		Succeeded: outcome.Succeeded(),
		Platforms: len(outcome.Posts),
	})
}

func (s *Scheduler) publish(typ string, data any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Data: data})
}
