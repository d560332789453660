// Package app assembles the process: config, logging, queue store,
// pipeline, scheduler, and the optional HTTP and bot front-ends.
package app

import (
	"context"
	"fmt"
	"time"

	"socialpress/internal/archive"
	"socialpress/internal/bot"
	"socialpress/internal/config"
	"socialpress/internal/eventbus"
	"socialpress/internal/generate"
	"socialpress/internal/linkmeta"
	"socialpress/internal/pipeline"
	"socialpress/internal/poster"
	"socialpress/internal/queue"
	"socialpress/internal/schedule"
	"socialpress/internal/server"
	logx "socialpress/pkg/logx"
)

type App struct {
	cfgm  *config.Manager
	log   logx.Logger
	store queue.Store
	bus   eventbus.Bus
	sched *schedule.Scheduler
	srv   *server.Server
	bot   *bot.Bot

	cancelWatch context.CancelFunc
	srvErr      chan error
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfgm.SetValidator(validate)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	log, err := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	a := &App{cfgm: cfgm, log: log.With(logx.String("comp", "app"))}
	if err := a.build(cfg, log); err != nil {
		a.closePartial()
		return nil, err
	}
	return a, nil
}

func (a *App) build(cfg *config.Config, root logx.Logger) error {
	qcfg, err := queueConfig(cfg.Queue)
	if err != nil {
		return err
	}
	store, err := queue.Open(qcfg, root.With(logx.String("comp", "queue")))
	if err != nil {
		return fmt.Errorf("queue store: %w", err)
	}
	a.store = store

	gen, err := buildGenerator(cfg.LLM, a.log)
	if err != nil {
		return err
	}

	posters, err := buildPosters(cfg.Platforms, root)
	if err != nil {
		return err
	}

	var arch *archive.Archive
	if cfg.Archive.Enabled {
		path := cfg.Archive.Path
		if path == "" {
			path = "results.jsonl"
		}
		arch, err = archive.New(path, root.With(logx.String("comp", "archive")))
		if err != nil {
			return fmt.Errorf("archive: %w", err)
		}
	}

	pipe, err := pipeline.New(pipeline.Deps{
		Generator: gen,
		Links:     linkmeta.NewClient(root.With(logx.String("comp", "linkmeta"))),
		Posters:   posters,
		Social:    cfg.SocialLinks,
		Logger:    root.With(logx.String("comp", "pipeline")),
	})
	if err != nil {
		return err
	}

	a.bus = eventbus.New()

	entryDelay, err := config.ParseDurationOrDefault("scheduler.entry_delay", cfg.Scheduler.EntryDelay, 2*time.Second)
	if err != nil {
		return err
	}
	schedTime := cfg.Scheduler.Time
	if schedTime == "" {
		schedTime = "23:00"
	}
	a.sched, err = schedule.New(schedule.Config{
		Enabled:    cfg.Scheduler.Enabled,
		Time:       schedTime,
		Timezone:   cfg.Scheduler.Timezone,
		EntryDelay: entryDelay,
	}, schedule.Deps{
		Store:    store,
		Pipeline: pipe,
		Bus:      a.bus,
		Archive:  arch,
		Logger:   root.With(logx.String("comp", "scheduler")),
	})
	if err != nil {
		return err
	}

	if cfg.Server.Enabled {
		addr := cfg.Server.Addr
		if addr == "" {
			addr = ":8000"
		}
		a.srv, err = server.New(server.Config{Addr: addr}, store, a.sched,
			root.With(logx.String("comp", "server")))
		if err != nil {
			return err
		}
	}

	if cfg.Bot.Enabled {
		pollTimeout, err := config.ParseDurationOrDefault("bot.poll_timeout", cfg.Bot.PollTimeout, 10*time.Second)
		if err != nil {
			return err
		}
		a.bot, err = bot.New(bot.Config{
			Token:       cfg.Bot.Token,
			OwnerChatID: cfg.Bot.OwnerChatID,
			PollTimeout: pollTimeout,
		}, store, a.sched, a.bus, root.With(logx.String("comp", "bot")))
		if err != nil {
			return err
		}
	}
	return nil
}

// queueConfig maps the config block onto the store's config, parsing
// the duration fields the file keeps as strings.
func queueConfig(cfg config.QueueConfig) (queue.Config, error) {
	busy, err := config.ParseDurationOrDefault("queue.busy_timeout", cfg.BusyTimeout, 0)
	if err != nil {
		return queue.Config{}, err
	}
	return queue.Config{
		Driver:      cfg.Driver,
		Path:        cfg.Path,
		MaxSize:     cfg.MaxSize,
		MaxAttempts: cfg.MaxAttempts,
		BusyTimeout: busy,
	}, nil
}

func buildGenerator(cfg config.LLMConfig, log logx.Logger) (generate.Generator, error) {
	if cfg.APIKey == "" {
		log.Warn("no llm api key configured, using the static echo generator")
		return generate.Static{}, nil
	}
	gen, err := generate.NewOpenAI(generate.Settings{
		Model:   cfg.Model,
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	return gen, nil
}

func buildPosters(cfg config.PlatformsConfig, root logx.Logger) ([]poster.Poster, error) {
	var out []poster.Poster
	if cfg.Telegram.Enabled {
		p, err := poster.NewTelegram(poster.TelegramConfig{
			Token:   cfg.Telegram.Token,
			Channel: cfg.Telegram.Channel,
		}, root.With(logx.String("comp", "poster.telegram")))
		if err != nil {
			return nil, fmt.Errorf("telegram poster: %w", err)
		}
		out = append(out, p)
	}
	if cfg.Twitter.Enabled {
		p, err := poster.NewTwitter(poster.TwitterConfig{
			BearerToken: cfg.Twitter.BearerToken,
		}, root.With(logx.String("comp", "poster.twitter")))
		if err != nil {
			return nil, fmt.Errorf("twitter poster: %w", err)
		}
		out = append(out, p)
	}
	if cfg.LinkedIn.Enabled {
		p, err := poster.NewLinkedIn(poster.LinkedInConfig{
			AccessToken: cfg.LinkedIn.AccessToken,
			AuthorURN:   cfg.LinkedIn.AuthorURN,
		}, root.With(logx.String("comp", "poster.linkedin")))
		if err != nil {
			return nil, fmt.Errorf("linkedin poster: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// Start brings the components up. The context bounds the whole process
// lifetime; cancellation begins shutdown but Stop still must be called.
func (a *App) Start(ctx context.Context) error {
	watchCtx, cancel := context.WithCancel(ctx)
	a.cancelWatch = cancel
	// Watch blocks until the context ends.
	go func() {
		if err := a.cfgm.Watch(watchCtx); err != nil {
			a.log.Warn("config watch unavailable", logx.Err(err))
		}
	}()
	go a.watchReloads(watchCtx)

	if err := a.sched.Start(ctx); err != nil {
		return err
	}

	if a.srv != nil {
		a.srvErr = make(chan error, 1)
		go func() { a.srvErr <- a.srv.Start() }()
		a.log.Info("http server listening")
	}
	if a.bot != nil {
		a.bot.Start(ctx)
	}

	a.log.Info("socialpress started")
	return nil
}

// watchReloads logs config changes. Most settings are constructor-bound
// and take effect on restart; reload keeps validated snapshots available
// via the manager for anything reading it live.
func (a *App) watchReloads(ctx context.Context) {
	sub := a.cfgm.Subscribe(4)
	defer a.cfgm.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-sub:
			if !ok {
				return
			}
			a.log.Info("configuration reloaded; restart to apply component settings")
		}
	}
}

// Stop shuts the components down in reverse dependency order, each step
// bounded by the context.
func (a *App) Stop(ctx context.Context) error {
	if a.cancelWatch != nil {
		a.cancelWatch()
	}
	if a.bot != nil {
		a.bot.Stop()
	}
	if a.srv != nil {
		if err := a.srv.Shutdown(ctx); err != nil {
			a.log.Warn("http shutdown", logx.Err(err))
		}
		if a.srvErr != nil {
			select {
			case err := <-a.srvErr:
				if err != nil {
					a.log.Warn("http server exit", logx.Err(err))
				}
			case <-ctx.Done():
			}
		}
	}
	a.sched.Stop()
	if err := a.store.Close(); err != nil {
		a.log.Warn("queue close", logx.Err(err))
	}
	a.log.Info("socialpress stopped")
	return a.log.Close()
}

func (a *App) closePartial() {
	if a.store != nil {
		_ = a.store.Close()
	}
	_ = a.log.Close()
}
