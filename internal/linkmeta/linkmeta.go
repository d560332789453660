// Package linkmeta classifies and describes URLs referenced by content
// requests. Client scrapes title and description from the page head;
// NopAnalyzer degrades to host classification without touching the
// network.
package linkmeta

import (
	"context"
	"net/url"
	"regexp"
	"strings"
)

type Kind string

const (
	KindArticle Kind = "article"
	KindGitHub  Kind = "github"
	KindVideo   Kind = "video"
	KindBook    Kind = "book"
	KindUnknown Kind = "unknown"
)

// Info is what the pipeline knows about one link.
type Info struct {
	Kind        Kind   `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Analyzer resolves a URL to metadata. Implementations may scrape or call
// an extraction service; errors degrade to the Fallback result.
type Analyzer interface {
	Analyze(ctx context.Context, rawURL string) (Info, error)
}

var reURL = regexp.MustCompile(`https?://[^\s<>"]+`)

// ExtractURLs returns the URLs embedded in free-form text, in order.
func ExtractURLs(text string) []string {
	return reURL.FindAllString(text, -1)
}

// Classify guesses the link kind from its host.
func Classify(rawURL string) Kind {
	u, err := url.Parse(rawURL)
	if err != nil {
		return KindUnknown
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	switch {
	case host == "github.com" || strings.HasSuffix(host, ".github.io"):
		return KindGitHub
	case host == "youtube.com" || host == "youtu.be":
		return KindVideo
	case strings.HasPrefix(host, "amazon."):
		return KindBook
	case host == "":
		return KindUnknown
	default:
		return KindArticle
	}
}

// Fallback builds minimal metadata without any network access.
func Fallback(rawURL string) Info {
	return Info{
		Kind:  Classify(rawURL),
		Title: rawURL,
		URL:   rawURL,
	}
}

// Summary renders the info as a short human-readable line for prompts.
func (i Info) Summary() string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(string(i.Kind)[:1]) + string(i.Kind)[1:])
	b.WriteString(": ")
	b.WriteString(i.Title)
	if i.Description != "" {
		b.WriteString("\n")
		b.WriteString(i.Description)
	}
	return b.String()
}

// NopAnalyzer degrades every lookup to the classification-only fallback.
type NopAnalyzer struct{}

func (NopAnalyzer) Analyze(_ context.Context, rawURL string) (Info, error) {
	return Fallback(rawURL), nil
}
