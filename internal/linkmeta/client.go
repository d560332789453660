package linkmeta

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	logx "socialpress/pkg/logx"
)

const (
	fetchTimeout = 15 * time.Second
	// The head section is all we need; anything past the cap is noise.
	maxBodyBytes = 512 << 10
)

// Client fetches a page and scrapes title and description from its
// head. OpenGraph tags win over the plain <title>/description pair.
// Any failure returns the classification-only Fallback alongside the
// error, so callers always have usable metadata.
type Client struct {
	http *http.Client
	log  logx.Logger
}

func NewClient(log logx.Logger) *Client {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		http: &http.Client{Timeout: fetchTimeout},
		log:  log,
	}
}

func (c *Client) Analyze(ctx context.Context, rawURL string) (Info, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Fallback(rawURL), err
	}
	req.Header.Set("User-Agent", "socialpress/1.0 (link preview)")
	req.Header.Set("Accept", "text/html")

	resp, err := c.http.Do(req)
	if err != nil {
		return Fallback(rawURL), err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Fallback(rawURL), fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Fallback(rawURL), fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	info := Fallback(rawURL)
	title, desc := scrapeHead(string(body))
	if title != "" {
		info.Title = title
	}
	info.Description = desc
	c.log.Debug("link analyzed",
		logx.String("url", rawURL), logx.String("kind", string(info.Kind)))
	return info, nil
}

var (
	reTitle   = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	reMetaTag = regexp.MustCompile(`(?is)<meta\s[^>]*?>`)
	reContent = regexp.MustCompile(`(?is)content\s*=\s*(?:"([^"]*)"|'([^']*)')`)
)

func scrapeHead(doc string) (title, desc string) {
	title = metaContent(doc, "og:title")
	if title == "" {
		if m := reTitle.FindStringSubmatch(doc); m != nil {
			title = collapse(m[1])
		}
	}
	desc = metaContent(doc, "og:description")
	if desc == "" {
		desc = metaContent(doc, "description")
	}
	return title, desc
}

// metaContent returns the content attribute of the first meta tag whose
// name or property attribute equals key.
func metaContent(doc, key string) string {
	for _, tag := range reMetaTag.FindAllString(doc, -1) {
		lower := strings.ToLower(tag)
		if !strings.Contains(lower, `name="`+key+`"`) &&
			!strings.Contains(lower, `name='`+key+`'`) &&
			!strings.Contains(lower, `property="`+key+`"`) &&
			!strings.Contains(lower, `property='`+key+`'`) {
			continue
		}
		if m := reContent.FindStringSubmatch(tag); m != nil {
			if m[1] != "" {
				return collapse(m[1])
			}
			return collapse(m[2])
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}
