package bot

import (
	"fmt"
	"strings"
	"time"

	"socialpress/internal/eventbus"
	"socialpress/internal/queue"
	"socialpress/internal/schedule"
	"socialpress/pkg/tgui"
)

func helpText() string {
	return strings.Join([]string{
		tgui.B("socialpress").String() + " queues content and publishes it on a schedule.",
		"",
		"Send a link or a note to queue it for publishing.",
		"",
		tgui.Code("/queue").String() + " — show queued requests",
		tgui.Code("/status").String() + " — queue counts and next run",
		tgui.Code("/processall").String() + " — run a batch now",
	}, "\n")
}

func payloadOf(req queue.Request) string {
	if req.IsURL() {
		return req.URL
	}
	return tgui.TruncRunes(req.Text, 48)
}

// payloadHTML is payloadOf with URL payloads rendered as links.
// Previews stay off (teleHTML disables them), so linking is safe.
func payloadHTML(req queue.Request) tgui.H {
	if req.IsURL() {
		return tgui.Link(req.URL, req.URL)
	}
	return tgui.Esc(payloadOf(req))
}

func formatQueue(entries []queue.Entry) string {
	if len(entries) == 0 {
		return tgui.I("The queue is empty.").String()
	}
	var b strings.Builder
	b.WriteString(tgui.B("Queue").String())
	b.WriteString(fmt.Sprintf(" (%d)\n", len(entries)))
	for _, e := range entries {
		status := string(e.Status)
		if e.Status == queue.StatusPending && e.Attempts > 0 {
			status = fmt.Sprintf("pending, %d failed runs", e.Attempts)
		}
		b.WriteString(fmt.Sprintf("#%d %s — %s [%s]\n",
			e.ID,
			tgui.Esc(payloadOf(e.Request)),
			status,
			strings.Join(e.Request.Platforms.Enabled(), ", ")))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatStatus(counts queue.Counts, running bool, next time.Time, hasNext bool) string {
	var b strings.Builder
	b.WriteString(tgui.B("Status").String())
	b.WriteString("\n")
	fmt.Fprintf(&b, "Pending: %d\n", counts.Pending)
	fmt.Fprintf(&b, "Total: %d\n", counts.Total)
	if counts.Dead > 0 {
		fmt.Fprintf(&b, "Dead-lettered: %d\n", counts.Dead)
	}
	if running {
		b.WriteString("A batch is running now.\n")
	}
	if hasNext {
		fmt.Fprintf(&b, "Next run: %s\n", next.Format("2006-01-02 15:04 MST"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatQueued(req queue.Request, receipt queue.Receipt) string {
	return fmt.Sprintf("Queued %s as #%d (position %d, %d pending).",
		payloadHTML(req), receipt.ID, receipt.Position, receipt.Pending)
}

func formatReport(rep schedule.Report) string {
	return fmt.Sprintf("%s total %d, processed %d, failed %d (%s).",
		tgui.B("Batch finished:").String(),
		rep.Total, rep.Processed, rep.Failed, rep.Duration.Round(time.Second))
}

// formatEvent renders owner notifications. Chatty per-entry events come
// through only when an entry got dead-lettered.
func formatEvent(e eventbus.Event) string {
	switch data := e.Data.(type) {
	case eventbus.BatchStarted:
		if data.Total == 0 {
			return ""
		}
		return fmt.Sprintf("⏳ Batch %s started with %d entries.",
			tgui.Code(shortRunID(data.RunID)).String(), data.Total)
	case eventbus.EntryFinished:
		if !data.Dead {
			return ""
		}
		return fmt.Sprintf("⚠️ Entry #%d failed on every platform too many times and was dead-lettered.", data.EntryID)
	case eventbus.BatchFinished:
		if data.Total == 0 {
			return ""
		}
		return fmt.Sprintf("✅ Batch %s finished: %d processed, %d failed of %d.",
			tgui.Code(shortRunID(data.RunID)).String(), data.Processed, data.Failed, data.Total)
	}
	return ""
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
