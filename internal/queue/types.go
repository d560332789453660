package queue

import (
	"strings"
	"time"
)

// Platform names used across the pipeline, posters and reports.
const (
	PlatformTelegram = "telegram"
	PlatformTwitter  = "twitter"
	PlatformLinkedIn = "linkedin"
)

// Platforms is the set of targets enabled for one request.
type Platforms struct {
	Telegram bool `json:"telegram"`
	Twitter  bool `json:"twitter"`
	LinkedIn bool `json:"linkedin"`
}

func (p Platforms) Any() bool { return p.Telegram || p.Twitter || p.LinkedIn }

// Enabled returns the enabled platform names in stable order.
func (p Platforms) Enabled() []string {
	var out []string
	if p.Telegram {
		out = append(out, PlatformTelegram)
	}
	if p.Twitter {
		out = append(out, PlatformTwitter)
	}
	if p.LinkedIn {
		out = append(out, PlatformLinkedIn)
	}
	return out
}

// Request is one unit of work: either a URL to summarize or raw text to
// polish, plus the platforms to publish to. Immutable once enqueued.
type Request struct {
	URL       string    `json:"url,omitempty"`
	Text      string    `json:"text,omitempty"`
	Platforms Platforms `json:"platforms"`
	ImagePath string    `json:"image_path,omitempty"`
}

func (r Request) IsURL() bool { return strings.TrimSpace(r.URL) != "" }

// Validate rejects malformed requests before they reach the queue.
func (r Request) Validate() error {
	url := strings.TrimSpace(r.URL)
	text := strings.TrimSpace(r.Text)
	switch {
	case url == "" && text == "":
		return &ValidationError{Reason: "request needs a url or text payload"}
	case url != "" && text != "":
		return &ValidationError{Reason: "request must carry either url or text, not both"}
	case url != "" && !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://"):
		return &ValidationError{Reason: "url must start with http:// or https://"}
	case !r.Platforms.Any():
		return &ValidationError{Reason: "at least one platform must be enabled"}
	}
	return nil
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"

	// StatusDead marks entries that failed totally in too many batch runs.
	// They are retried no further and survive PurgeProcessed for inspection.
	StatusDead Status = "dead"
)

// Entry wraps a Request with queue bookkeeping.
type Entry struct {
	ID          int64      `json:"id"`
	Request     Request    `json:"data"`
	AddedAt     time.Time  `json:"added_at"`
	Status      Status     `json:"status"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	Attempts    int        `json:"attempts,omitempty"`
}

// Receipt reports a successful enqueue.
// Position is 1-based among pending entries at insertion time.
type Receipt struct {
	ID       int64
	Position int
	Pending  int
}

// Counts summarizes the queue for introspection endpoints.
type Counts struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Dead    int `json:"dead"`
}

// Config selects and tunes a queue driver.
type Config struct {
	Driver      string
	Path        string
	MaxSize     int
	MaxAttempts int
	BusyTimeout time.Duration
}

const (
	DefaultMaxSize     = 5
	DefaultMaxAttempts = 3
)

func (c Config) maxSize() int {
	if c.MaxSize > 0 {
		return c.MaxSize
	}
	return DefaultMaxSize
}

func (c Config) maxAttempts() int {
	if c.MaxAttempts > 0 {
		return c.MaxAttempts
	}
	return DefaultMaxAttempts
}
