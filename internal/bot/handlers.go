package bot

import (
	"context"
	"strings"

	tele "gopkg.in/telebot.v4"

	"socialpress/internal/queue"
	logx "socialpress/pkg/logx"
	"socialpress/pkg/tgui"
)

const cbScope = "req"

func (t *Bot) registerHandlers() {
	commands := map[string]tele.HandlerFunc{
		"/start":      t.handleHelp,
		"/help":       t.handleHelp,
		"/queue":      t.handleQueue,
		"/status":     t.handleStatus,
		"/processall": t.handleProcessAll,
	}
	for cmd, h := range commands {
		t.b.Handle(cmd, t.guard(h))
	}
	t.b.Handle(tele.OnText, t.guard(t.handleMessage))
	t.b.Handle(tele.OnCallback, t.guard(t.handleCallback))
}

// guard drops updates from chats other than the configured owner.
func (t *Bot) guard(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if !t.allowed(c) {
			return nil
		}
		return next(c)
	}
}

func (t *Bot) handleHelp(c tele.Context) error {
	return c.Send(helpText(), teleHTML())
}

func (t *Bot) handleQueue(c tele.Context) error {
	entries, err := t.store.List(t.ctx())
	if err != nil {
		t.log.Error("queue listing failed", logx.Err(err))
		return c.Send("Could not read the queue, try again later.")
	}
	return c.Send(formatQueue(entries), teleHTML())
}

func (t *Bot) handleStatus(c tele.Context) error {
	counts, err := t.store.Counts(t.ctx())
	if err != nil {
		t.log.Error("queue counts failed", logx.Err(err))
		return c.Send("Could not read the queue, try again later.")
	}
	next, hasNext := t.trigger.NextRun()
	return c.Send(formatStatus(counts, t.trigger.Running(), next, hasNext), teleHTML())
}

func (t *Bot) handleProcessAll(c tele.Context) error {
	if t.trigger.Running() {
		return c.Send("A batch is already running.")
	}
	if err := c.Send("Batch started…"); err != nil {
		return err
	}
	rep, err := t.trigger.RunNow(t.ctx())
	if err != nil {
		t.log.Error("manual batch failed", logx.Err(err))
		return c.Send("Batch failed: " + err.Error())
	}
	return c.Send(formatReport(rep), teleHTML())
}

// handleMessage starts the enqueue flow: remember the payload, ask for
// platforms via an inline keyboard.
func (t *Bot) handleMessage(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if text == "" || strings.HasPrefix(text, "/") {
		return nil
	}

	req := queue.Request{Text: text}
	if looksLikeURL(text) {
		req = queue.Request{URL: text}
	}

	t.mu.Lock()
	t.drafts[c.Chat().ID] = &draft{req: req}
	t.mu.Unlock()

	prompt := "Got it. Which platforms should this go to?"
	if req.IsURL() {
		prompt = "Got the link. Which platforms should this go to?"
	}
	return c.Send(prompt, &tele.SendOptions{ReplyMarkup: platformKeyboard(req.Platforms)})
}

func (t *Bot) handleCallback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	scope, action, payload := tgui.SplitData(strings.TrimPrefix(cb.Data, "\f"))
	if scope != cbScope {
		return c.Respond()
	}

	// Handlers run in per-update goroutines, so every draft access goes
	// through a helper that holds the lock for the whole read or write.
	switch action {
	case "toggle":
		platforms, ok := t.toggleDraft(c.Chat().ID, payload)
		if !ok {
			return c.Respond(&tele.CallbackResponse{Text: "Nothing pending, send a link or text first."})
		}
		// Re-render the keyboard with updated checkmarks.
		if err := c.Edit(platformKeyboard(platforms)); err != nil {
			t.log.Warn("keyboard update failed", logx.Err(err))
		}
		return c.Respond()

	case "queue":
		req, ok, ready := t.takeDraft(c.Chat().ID)
		if !ok {
			return c.Respond(&tele.CallbackResponse{Text: "Nothing pending, send a link or text first."})
		}
		if !ready {
			return c.Respond(&tele.CallbackResponse{Text: "Pick at least one platform."})
		}
		receipt, err := t.store.Enqueue(t.ctx(), req)
		if err != nil {
			msg := "Could not queue the request: " + err.Error()
			if queue.IsQueueFull(err) {
				msg = err.Error()
			}
			_ = c.Edit(msg)
			return c.Respond()
		}
		_ = c.Edit(formatQueued(req, receipt), teleHTML())
		return c.Respond(&tele.CallbackResponse{Text: "Queued."})

	case "cancel":
		t.mu.Lock()
		delete(t.drafts, c.Chat().ID)
		t.mu.Unlock()
		_ = c.Edit("Cancelled.")
		return c.Respond()
	}
	return c.Respond()
}

// toggleDraft flips one platform on the chat's draft and returns the
// updated selection. ok is false when no draft is pending.
func (t *Bot) toggleDraft(chatID int64, name string) (queue.Platforms, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	d := t.drafts[chatID]
	if d == nil {
		return queue.Platforms{}, false
	}
	togglePlatform(&d.req.Platforms, name)
	return d.req.Platforms, true
}

// takeDraft removes and returns the chat's draft for enqueueing. A
// draft with no platform selected stays in place and ready is false.
func (t *Bot) takeDraft(chatID int64) (req queue.Request, ok, ready bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	d := t.drafts[chatID]
	if d == nil {
		return queue.Request{}, false, false
	}
	if !d.req.Platforms.Any() {
		return d.req, true, false
	}
	delete(t.drafts, chatID)
	return d.req, true, true
}

// ctx returns the bot's run context for store and trigger calls.
func (t *Bot) ctx() context.Context {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	if t.baseCtx != nil {
		return t.baseCtx
	}
	return context.Background()
}

func looksLikeURL(text string) bool {
	if strings.ContainsAny(text, " \n\t") {
		return false
	}
	return strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://")
}

func togglePlatform(p *queue.Platforms, name string) {
	switch name {
	case queue.PlatformTelegram:
		p.Telegram = !p.Telegram
	case queue.PlatformTwitter:
		p.Twitter = !p.Twitter
	case queue.PlatformLinkedIn:
		p.LinkedIn = !p.LinkedIn
	}
}

// platformKeyboard renders the platform toggles plus confirm/cancel row.
func platformKeyboard(p queue.Platforms) *tele.ReplyMarkup {
	check := func(on bool, label string) string {
		if on {
			return "✅ " + label
		}
		return label
	}
	return tgui.NewInline().
		Row(
			tgui.Btn(check(p.Telegram, "Telegram"), tgui.Data(cbScope, "toggle", queue.PlatformTelegram)),
			tgui.Btn(check(p.Twitter, "Twitter"), tgui.Data(cbScope, "toggle", queue.PlatformTwitter)),
			tgui.Btn(check(p.LinkedIn, "LinkedIn"), tgui.Data(cbScope, "toggle", queue.PlatformLinkedIn)),
		).
		Row(
			tgui.Btn("📤 Queue it", tgui.Data(cbScope, "queue", "")),
			tgui.Btn("✖ Cancel", tgui.Data(cbScope, "cancel", "")),
		).
		Markup()
}
