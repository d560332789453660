package config

// Config is the full socialpress configuration.
//
// Loaded from YAML or JSON (strict: unknown fields are rejected).
// All durations are Go duration strings (e.g. "500ms", "2s", "1m").
type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Queue     QueueConfig     `json:"queue"`
	Scheduler SchedulerConfig `json:"scheduler"`
	LLM       LLMConfig       `json:"llm"`
	Server    ServerConfig    `json:"server,omitempty"`
	Bot       BotConfig       `json:"bot,omitempty"`
	Platforms PlatformsConfig `json:"platforms"`

	// SocialLinks are appended to generated Telegram posts ("connect with us").
	SocialLinks SocialLinks `json:"social_links,omitempty"`

	// Archive controls best-effort persistence of per-entry batch results.
	Archive ArchiveConfig `json:"archive,omitempty"`
}

type LoggingConfig struct {
	Level   string     `json:"level,omitempty"`
	Console bool       `json:"console"`
	File    FileConfig `json:"file,omitempty"`
}

type FileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// QueueConfig controls the durable request queue.
//
// Driver is "sqlite" (default) or "file" (atomic whole-file JSON rewrite).
type QueueConfig struct {
	Driver string `json:"driver,omitempty"`
	Path   string `json:"path,omitempty"`

	// MaxSize bounds the number of pending entries. Default 5.
	MaxSize int `json:"max_size,omitempty"`

	// MaxAttempts bounds how many batch runs may retry a totally-failed
	// entry before it is moved to the dead-letter status. Default 3.
	MaxAttempts int `json:"max_attempts,omitempty"`

	// BusyTimeout is a Go duration string (sqlite driver only).
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// SchedulerConfig controls the daily batch trigger.
type SchedulerConfig struct {
	Enabled bool `json:"enabled"`

	// Time is the daily wall-clock trigger, "HH:MM" (default "23:00").
	Time string `json:"time,omitempty"`

	// Timezone is an IANA name (e.g. "Asia/Jakarta"). Empty means local time.
	Timezone string `json:"timezone,omitempty"`

	// EntryDelay is the pause between queue entries within a batch,
	// a deliberate backpressure mechanism for downstream rate limits.
	// Default "2s".
	EntryDelay string `json:"entry_delay,omitempty"`
}

// LLMConfig configures the text generation backend.
//
// APIKey may be left empty in the file and supplied via environment
// (SOCIALPRESS_OPENAI_API_KEY); see env.go.
type LLMConfig struct {
	Model   string `json:"model,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
	APIKey  string `json:"api_key,omitempty"`
}

type ServerConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`
}

// BotConfig configures the Telegram intake front-end.
type BotConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token,omitempty"`

	// OwnerChatID receives batch reports. 0 disables notifications.
	OwnerChatID int64 `json:"owner_chat_id,omitempty"`

	PollTimeout string `json:"poll_timeout,omitempty"`
}

type PlatformsConfig struct {
	Telegram TelegramPlatform `json:"telegram"`
	Twitter  TwitterPlatform  `json:"twitter"`
	LinkedIn LinkedInPlatform `json:"linkedin"`
}

type TelegramPlatform struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token,omitempty"`
	Channel string `json:"channel,omitempty"`
}

type TwitterPlatform struct {
	Enabled     bool   `json:"enabled"`
	BearerToken string `json:"bearer_token,omitempty"`
}

type LinkedInPlatform struct {
	Enabled     bool   `json:"enabled"`
	AccessToken string `json:"access_token,omitempty"`
	AuthorURN   string `json:"author_urn,omitempty"`
}

type SocialLinks struct {
	Twitter        string `json:"twitter,omitempty"`
	LinkedIn       string `json:"linkedin,omitempty"`
	YouTube        string `json:"youtube,omitempty"`
	TelegramPublic string `json:"telegram_public,omitempty"`
}

type ArchiveConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}
