package poster

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"socialpress/internal/queue"
	logx "socialpress/pkg/logx"
)

const twitterDefaultBase = "https://api.twitter.com"

// Twitter posts tweets, chaining Content.Thread segments into replies.
type Twitter struct {
	token   string
	base    string
	client  *http.Client
	limiter *rate.Limiter
	log     logx.Logger
}

type TwitterConfig struct {
	BearerToken string
	// BaseURL overrides the API host, mainly for tests.
	BaseURL string
}

func NewTwitter(cfg TwitterConfig, log logx.Logger) (*Twitter, error) {
	if strings.TrimSpace(cfg.BearerToken) == "" {
		return nil, errors.New("twitter bearer token is empty")
	}
	base := cfg.BaseURL
	if base == "" {
		base = twitterDefaultBase
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Twitter{
		token:   cfg.BearerToken,
		base:    strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		log:     log,
	}, nil
}

func (t *Twitter) Platform() string { return queue.PlatformTwitter }

type tweetRequest struct {
	Text  string      `json:"text"`
	Reply *tweetReply `json:"reply,omitempty"`
}

type tweetReply struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

type tweetResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Post publishes every thread segment in order, each a reply to the
// previous one. A failure mid-thread reports the error but keeps the
// already published head: tweets cannot be unposted.
func (t *Twitter) Post(ctx context.Context, c Content) (Result, error) {
	segments := c.Thread
	if len(segments) == 0 {
		segments = []string{c.Text}
	}

	var headID, prevID string
	for i, seg := range segments {
		if err := t.limiter.Wait(ctx); err != nil {
			return ResultOf(headID, err), err
		}
		id, err := t.createTweet(ctx, seg, prevID)
		if err != nil {
			if i > 0 {
				err = fmt.Errorf("thread segment %d of %d: %w", i+1, len(segments), err)
			}
			return ResultOf(headID, err), err
		}
		if i == 0 {
			headID = id
		}
		prevID = id
	}

	t.log.Debug("posted to twitter",
		logx.String("tweet_id", headID),
		logx.Int("segments", len(segments)))
	return ResultOf(headID, nil), nil
}

func (t *Twitter) createTweet(ctx context.Context, text, inReplyTo string) (string, error) {
	reqBody := tweetRequest{Text: text}
	if inReplyTo != "" {
		reqBody.Reply = &tweetReply{InReplyToTweetID: inReplyTo}
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.base+"/2/tweets", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", wrapTransport(queue.PlatformTwitter, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	// The API reports duplicates as 403 with a "duplicate content" detail,
	// which would otherwise read as an auth failure.
	if resp.StatusCode == http.StatusForbidden && strings.Contains(strings.ToLower(string(body)), "duplicate") {
		return "", fmt.Errorf("%w: twitter: %s", ErrDuplicateContent, body)
	}
	if err := classifyStatus(queue.PlatformTwitter, resp.StatusCode, string(body), http.StatusCreated, http.StatusOK); err != nil {
		return "", err
	}

	var out tweetResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("twitter response: %w", err)
	}
	if out.Data.ID == "" {
		return "", &APIError{Platform: queue.PlatformTwitter, StatusCode: resp.StatusCode, Body: "response missing tweet id"}
	}
	return out.Data.ID, nil
}
