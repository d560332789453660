package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

// secrets are credentials we prefer to keep out of the config file.
// Any value present in the environment wins over the file.
type secrets struct {
	OpenAIAPIKey      string `env:"SOCIALPRESS_OPENAI_API_KEY"`
	BotToken          string `env:"SOCIALPRESS_BOT_TOKEN"`
	TelegramToken     string `env:"SOCIALPRESS_TELEGRAM_TOKEN"`
	TwitterBearer     string `env:"SOCIALPRESS_TWITTER_BEARER_TOKEN"`
	LinkedInToken     string `env:"SOCIALPRESS_LINKEDIN_ACCESS_TOKEN"`
	LinkedInAuthorURN string `env:"SOCIALPRESS_LINKEDIN_AUTHOR_URN"`
}

func overlayEnv(ctx context.Context, cfg *Config) error {
	var s secrets
	if err := envconfig.Process(ctx, &s); err != nil {
		return err
	}
	if s.OpenAIAPIKey != "" {
		cfg.LLM.APIKey = s.OpenAIAPIKey
	}
	if s.BotToken != "" {
		cfg.Bot.Token = s.BotToken
	}
	if s.TelegramToken != "" {
		cfg.Platforms.Telegram.Token = s.TelegramToken
	}
	if s.TwitterBearer != "" {
		cfg.Platforms.Twitter.BearerToken = s.TwitterBearer
	}
	if s.LinkedInToken != "" {
		cfg.Platforms.LinkedIn.AccessToken = s.LinkedInToken
	}
	if s.LinkedInAuthorURN != "" {
		cfg.Platforms.LinkedIn.AuthorURN = s.LinkedInAuthorURN
	}
	return nil
}
