package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"socialpress/internal/config"
	"socialpress/internal/schedule"
)

// validate rejects configurations that would fail at component
// construction, so a bad file never replaces a good running one.
func validate(_ context.Context, cfg *config.Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Queue.Driver)) {
	case "", "sqlite", "file":
	default:
		return fmt.Errorf("queue.driver %q: want sqlite or file", cfg.Queue.Driver)
	}
	if cfg.Queue.MaxSize < 0 {
		return fmt.Errorf("queue.max_size must not be negative")
	}
	if _, err := config.ParseDurationOrDefault("queue.busy_timeout", cfg.Queue.BusyTimeout, 0); err != nil {
		return err
	}

	if cfg.Scheduler.Enabled {
		t := cfg.Scheduler.Time
		if t == "" {
			t = "23:00"
		}
		if _, _, err := schedule.ParseClock(t); err != nil {
			return fmt.Errorf("scheduler.time: %w", err)
		}
		if tz := cfg.Scheduler.Timezone; tz != "" {
			if _, err := time.LoadLocation(tz); err != nil {
				return fmt.Errorf("scheduler.timezone: %w", err)
			}
		}
	}
	if _, err := config.ParseDurationOrDefault("scheduler.entry_delay", cfg.Scheduler.EntryDelay, 0); err != nil {
		return err
	}

	if cfg.Bot.Enabled && strings.TrimSpace(cfg.Bot.Token) == "" {
		return fmt.Errorf("bot.enabled requires bot.token")
	}
	if _, err := config.ParseDurationOrDefault("bot.poll_timeout", cfg.Bot.PollTimeout, 0); err != nil {
		return err
	}

	if p := cfg.Platforms.Telegram; p.Enabled {
		if strings.TrimSpace(p.Token) == "" || strings.TrimSpace(p.Channel) == "" {
			return fmt.Errorf("platforms.telegram requires token and channel")
		}
	}
	if p := cfg.Platforms.Twitter; p.Enabled && strings.TrimSpace(p.BearerToken) == "" {
		return fmt.Errorf("platforms.twitter requires bearer_token")
	}
	if p := cfg.Platforms.LinkedIn; p.Enabled {
		if strings.TrimSpace(p.AccessToken) == "" {
			return fmt.Errorf("platforms.linkedin requires access_token")
		}
		if !strings.HasPrefix(p.AuthorURN, "urn:li:") {
			return fmt.Errorf("platforms.linkedin.author_urn %q is malformed", p.AuthorURN)
		}
	}
	return nil
}
