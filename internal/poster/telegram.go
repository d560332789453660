package poster

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
	"golang.org/x/time/rate"

	"socialpress/internal/queue"
	logx "socialpress/pkg/logx"
)

// Telegram posts to a channel through the Bot API.
type Telegram struct {
	bot     *tele.Bot
	to      tele.Recipient
	limiter *rate.Limiter
	log     logx.Logger
}

type TelegramConfig struct {
	Token string
	// Channel is either a numeric chat id or an "@channelname".
	Channel string
	// BaseURL overrides the Bot API host, mainly for tests.
	BaseURL string
}

// chatName adapts "@channel" usernames to telebot's Recipient interface.
type chatName string

func (c chatName) Recipient() string { return string(c) }

func NewTelegram(cfg TelegramConfig, log logx.Logger) (*Telegram, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if strings.TrimSpace(cfg.Channel) == "" {
		return nil, errors.New("telegram channel is empty")
	}
	// Offline: this bot only sends; skip the getMe probe so construction
	// works without network access.
	b, err := tele.NewBot(tele.Settings{Token: cfg.Token, URL: cfg.BaseURL, Offline: true})
	if err != nil {
		return nil, err
	}

	var to tele.Recipient
	if id, err := strconv.ParseInt(strings.TrimSpace(cfg.Channel), 10, 64); err == nil {
		to = tele.ChatID(id)
	} else {
		to = chatName(cfg.Channel)
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Telegram{
		bot:     b,
		to:      to,
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		log:     log,
	}, nil
}

func (t *Telegram) Platform() string { return queue.PlatformTelegram }

func (t *Telegram) Post(ctx context.Context, c Content) (Result, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return ResultOf("", err), err
	}

	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}

	var (
		msg *tele.Message
		err error
	)
	if c.Meta != nil && c.Meta.ImagePath != "" {
		photo := &tele.Photo{File: tele.FromDisk(c.Meta.ImagePath), Caption: c.Text}
		msg, err = t.bot.Send(t.to, photo, opts)
	} else {
		msg, err = t.bot.Send(t.to, c.Text, opts)
	}
	if err != nil {
		err = t.classify(err)
		return ResultOf("", err), err
	}

	id := strconv.Itoa(msg.ID)
	t.log.Debug("posted to telegram", logx.String("message_id", id))
	return ResultOf(id, nil), nil
}

func (t *Telegram) classify(err error) error {
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return fmt.Errorf("%w: retry after %ds", ErrRateLimited, flood.RetryAfter)
	}
	if errors.Is(err, tele.ErrUnauthorized) {
		return fmt.Errorf("%w: telegram: %v", ErrAuth, err)
	}
	return wrapTransport(queue.PlatformTelegram, err)
}
