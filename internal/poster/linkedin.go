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

const linkedinDefaultBase = "https://api.linkedin.com"

// LinkedIn posts UGC shares on behalf of a member or organization URN.
type LinkedIn struct {
	token   string
	author  string
	base    string
	client  *http.Client
	limiter *rate.Limiter
	log     logx.Logger
}

type LinkedInConfig struct {
	AccessToken string
	// AuthorURN is the "urn:li:person:..." or "urn:li:organization:..."
	// the shares are attributed to.
	AuthorURN string
	// BaseURL overrides the API host, mainly for tests.
	BaseURL string
}

func NewLinkedIn(cfg LinkedInConfig, log logx.Logger) (*LinkedIn, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errors.New("linkedin access token is empty")
	}
	if !strings.HasPrefix(cfg.AuthorURN, "urn:li:") {
		return nil, fmt.Errorf("linkedin author urn %q is malformed", cfg.AuthorURN)
	}
	base := cfg.BaseURL
	if base == "" {
		base = linkedinDefaultBase
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &LinkedIn{
		token:   cfg.AccessToken,
		author:  cfg.AuthorURN,
		base:    strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(0.5), 1),
		log:     log,
	}, nil
}

func (l *LinkedIn) Platform() string { return queue.PlatformLinkedIn }

type ugcPost struct {
	Author          string              `json:"author"`
	LifecycleState  string              `json:"lifecycleState"`
	SpecificContent map[string]ugcShare `json:"specificContent"`
	Visibility      ugcVisibility       `json:"visibility"`
}

type ugcShare struct {
	ShareCommentary    ugcText `json:"shareCommentary"`
	ShareMediaCategory string  `json:"shareMediaCategory"`
}

type ugcText struct {
	Text string `json:"text"`
}

type ugcVisibility struct {
	MemberNetworkVisibility string `json:"com.linkedin.ugc.MemberNetworkVisibility"`
}

func (l *LinkedIn) Post(ctx context.Context, c Content) (Result, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return ResultOf("", err), err
	}

	post := ugcPost{
		Author:         l.author,
		LifecycleState: "PUBLISHED",
		SpecificContent: map[string]ugcShare{
			"com.linkedin.ugc.ShareContent": {
				ShareCommentary:    ugcText{Text: c.Text},
				ShareMediaCategory: "NONE",
			},
		},
		Visibility: ugcVisibility{MemberNetworkVisibility: "PUBLIC"},
	}
	payload, err := json.Marshal(post)
	if err != nil {
		return ResultOf("", err), err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.base+"/v2/ugcPosts", bytes.NewReader(payload))
	if err != nil {
		return ResultOf("", err), err
	}
	req.Header.Set("Authorization", "Bearer "+l.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := l.client.Do(req)
	if err != nil {
		err = wrapTransport(queue.PlatformLinkedIn, err)
		return ResultOf("", err), err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(string(body)), "duplicate") {
		err = fmt.Errorf("%w: linkedin: %s", ErrDuplicateContent, body)
		return ResultOf("", err), err
	}
	if err := classifyStatus(queue.PlatformLinkedIn, resp.StatusCode, string(body), http.StatusCreated); err != nil {
		return ResultOf("", err), err
	}

	id := resp.Header.Get("X-RestLi-Id")
	if id == "" {
		var created struct {
			ID string `json:"id"`
		}
		if json.Unmarshal(body, &created) == nil {
			id = created.ID
		}
	}
	l.log.Debug("posted to linkedin", logx.String("share_id", id))
	return ResultOf(id, nil), nil
}
