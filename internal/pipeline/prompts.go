package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"socialpress/internal/config"
	"socialpress/internal/generate"
	"socialpress/internal/queue"
)

func summarizePrompt(source string) generate.Prompt {
	return generate.Prompt{
		System: "You are an expert at extracting the key insights from any article or webpage. " +
			"Write a clear, concise summary in 3 short paragraphs.",
		User: source,
	}
}

func hashtagPrompt(summary string) generate.Prompt {
	return generate.Prompt{
		System: "You are a social media hashtag specialist. Analyze the content and return " +
			"3-5 relevant hashtags, one per line, CamelCase for multi-word tags " +
			"(#MachineLearning, not #machinelearning). No commentary, hashtags only.",
		User: summary,
	}
}

func writePrompt(platform, summary string, hashtags []string) generate.Prompt {
	tags := strings.Join(hashtags, " ")
	switch platform {
	case queue.PlatformTelegram:
		return generate.Prompt{
			System: "Write a simple, conversational Telegram post based on the summary: a hook, " +
				"2-3 plain sentences, practical resources if any, minimal emojis (1-2 max). " +
				"Use HTML formatting: <b>bold</b>, <i>italic</i>, <a href=\"URL\">link</a>. " +
				"End with the hashtags on their own line.",
			User: summary + "\n\nHashtags: " + tags,
		}
	case queue.PlatformTwitter:
		return generate.Prompt{
			System: "Write a punchy post for X based on the summary. Short sentences, no fluff. " +
				"Embed the hashtags at the end. Long content is fine, it will be split into a thread.",
			User: summary + "\n\nHashtags: " + tags,
		}
	case queue.PlatformLinkedIn:
		return generate.Prompt{
			System: "Write a professional LinkedIn post based on the summary. Thoughtful, plain " +
				"prose, no markdown markup, no emoji walls. Close with the hashtags.",
			User: summary + "\n\nHashtags: " + tags,
		}
	default:
		return generate.Prompt{
			System: "Write a social media post based on the summary, hashtags at the end.",
			User:   summary + "\n\nHashtags: " + tags,
		}
	}
}

var reTag = regexp.MustCompile(`#\w+`)

const maxHashtags = 5

// parseHashtags pulls hashtag tokens out of a model completion. Models
// occasionally return prose around the list; anything that is not a
// #token is ignored. Duplicates collapse, order is kept.
func parseHashtags(completion string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tag := range reTag.FindAllString(completion, -1) {
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
		if len(out) == maxHashtags {
			break
		}
	}
	return out
}

// socialFooter renders the "connect with us" block appended to Telegram
// posts. Empty links are left out; an all-empty config yields "".
func socialFooter(links config.SocialLinks) string {
	type entry struct {
		icon, label, url string
	}
	entries := []entry{
		{"🐦", "Twitter", links.Twitter},
		{"💼", "LinkedIn", links.LinkedIn},
		{"📺", "YouTube", links.YouTube},
		{"💬", "Telegram", links.TelegramPublic},
	}
	var parts []string
	for _, e := range entries {
		if e.url == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s <a href=%q>%s</a>", e.icon, e.url, e.label))
	}
	if len(parts) == 0 {
		return ""
	}
	return "<b>Connect with us:</b>\n" + strings.Join(parts, " | ")
}
