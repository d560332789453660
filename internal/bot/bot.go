// Package bot is the Telegram front-end: commands for queue inspection
// and batch control, plus a free-form message flow that turns a link or
// note into a queued request via an inline platform keyboard.
//
// The bot talks to the core only through the queue store and the batch
// trigger; it holds no pipeline state.
package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"socialpress/internal/eventbus"
	"socialpress/internal/queue"
	"socialpress/internal/schedule"
	logx "socialpress/pkg/logx"
)

type Config struct {
	Token string
	// OwnerChatID restricts the bot to one operator chat. Zero disables
	// the restriction.
	OwnerChatID int64
	PollTimeout time.Duration
}

// Trigger is the slice of the scheduler the bot needs.
type Trigger interface {
	RunNow(ctx context.Context) (schedule.Report, error)
	NextRun() (time.Time, bool)
	Running() bool
}

type Bot struct {
	cfg     Config
	store   queue.Store
	trigger Trigger
	bus     eventbus.Bus
	log     logx.Logger
	b       *tele.Bot

	mu     sync.Mutex
	drafts map[int64]*draft

	runMu   sync.Mutex
	running bool
	baseCtx context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// draft is a request waiting for platform selection in one chat.
type draft struct {
	req queue.Request
}

func New(cfg Config, store queue.Store, trigger Trigger, bus eventbus.Bus, log logx.Logger) (*Bot, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("bot token is empty")
	}
	if store == nil {
		return nil, errors.New("bot needs a queue store")
	}
	if trigger == nil {
		return nil, errors.New("bot needs a batch trigger")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	bot := &Bot{
		cfg:     cfg,
		store:   store,
		trigger: trigger,
		bus:     bus,
		log:     log,
		b:       b,
		drafts:  make(map[int64]*draft),
	}
	bot.registerHandlers()
	return bot, nil
}

// Start launches the poll loop and the notification relay. Idempotent.
func (t *Bot) Start(ctx context.Context) {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	if t.running {
		return
	}
	t.running = true

	runCtx, cancel := context.WithCancel(ctx)
	t.baseCtx = runCtx
	t.cancel = cancel
	t.done = make(chan struct{})

	go t.b.Start()
	go func() {
		defer close(t.done)
		t.relayEvents(runCtx)
	}()
	t.log.Info("bot started")
}

// Stop halts polling and waits for the relay goroutine.
func (t *Bot) Stop() {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	if !t.running {
		return
	}
	t.running = false
	t.cancel()
	t.b.Stop()
	<-t.done
	t.log.Info("bot stopped")
}

// relayEvents forwards batch outcomes to the owner chat.
func (t *Bot) relayEvents(ctx context.Context) {
	if t.bus == nil || t.cfg.OwnerChatID == 0 {
		<-ctx.Done()
		return
	}
	events, unsub := t.bus.Subscribe(32)
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			text := formatEvent(e)
			if text == "" {
				continue
			}
			if _, err := t.b.Send(tele.ChatID(t.cfg.OwnerChatID), text, teleHTML()); err != nil {
				t.log.Warn("owner notification failed", logx.Err(err))
			}
		}
	}
}

func teleHTML() *tele.SendOptions {
	return &tele.SendOptions{ParseMode: tele.ModeHTML, DisableWebPagePreview: true}
}

// allowed gates handlers to the owner chat when one is configured.
func (t *Bot) allowed(c tele.Context) bool {
	if t.cfg.OwnerChatID == 0 {
		return true
	}
	return c.Chat() != nil && c.Chat().ID == t.cfg.OwnerChatID
}
