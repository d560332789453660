// Package pipeline builds and runs the per-request stage graph: optional
// research, shared summarize and hashtag stages, then an independent
// write/transform/post branch per enabled platform.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"socialpress/internal/config"
	"socialpress/internal/generate"
	"socialpress/internal/linkmeta"
	"socialpress/internal/poster"
	"socialpress/internal/queue"
	"socialpress/internal/textfmt"
	logx "socialpress/pkg/logx"
)

const (
	stageResearch  = "research"
	stageSummarize = "summarize"
	stageHashtags  = "hashtags"
)

func writeStage(platform string) string     { return "write:" + platform }
func transformStage(platform string) string { return "transform:" + platform }
func postStage(platform string) string      { return "post:" + platform }

// PlatformPost is one branch's terminal record.
type PlatformPost struct {
	Platform string        `json:"platform"`
	Draft    string        `json:"draft,omitempty"`
	Text     string        `json:"text,omitempty"`
	Thread   []string      `json:"thread,omitempty"`
	Result   poster.Result `json:"result"`
}

// Outcome is the aggregate of one pipeline run: shared stage outputs plus
// one PlatformPost per enabled platform.
type Outcome struct {
	Summary  string                  `json:"summary,omitempty"`
	Hashtags []string                `json:"hashtags,omitempty"`
	Posts    map[string]PlatformPost `json:"posts"`
}

// TotalFailure reports whether every branch failed. Entries with this
// outcome are not marked processed and come back in the next batch.
func (o Outcome) TotalFailure() bool {
	if len(o.Posts) == 0 {
		return true
	}
	for _, p := range o.Posts {
		if p.Result.Outcome != poster.OutcomeFailed {
			return false
		}
	}
	return true
}

// Succeeded counts branches that ended in success or duplicate-skip.
func (o Outcome) Succeeded() int {
	n := 0
	for _, p := range o.Posts {
		if p.Result.OK {
			n++
		}
	}
	return n
}

// Deps carries the pipeline's collaborators. Generator is required; a nil
// Links analyzer degrades to classification-only metadata.
type Deps struct {
	Generator generate.Generator
	Links     linkmeta.Analyzer
	Posters   []poster.Poster
	Social    config.SocialLinks
	Logger    logx.Logger
}

type Pipeline struct {
	gen     generate.Generator
	links   linkmeta.Analyzer
	posters map[string]poster.Poster
	social  config.SocialLinks
	log     logx.Logger
}

func New(d Deps) (*Pipeline, error) {
	if d.Generator == nil {
		return nil, errors.New("pipeline needs a generator")
	}
	if d.Links == nil {
		d.Links = linkmeta.NopAnalyzer{}
	}
	if d.Logger.IsZero() {
		d.Logger = logx.Nop()
	}
	posters := make(map[string]poster.Poster, len(d.Posters))
	for _, p := range d.Posters {
		if p == nil {
			continue
		}
		if _, dup := posters[p.Platform()]; dup {
			return nil, fmt.Errorf("duplicate poster for platform %q", p.Platform())
		}
		posters[p.Platform()] = p
	}
	return &Pipeline{
		gen:     d.Generator,
		links:   d.Links,
		posters: posters,
		social:  d.Social,
		log:     d.Logger,
	}, nil
}

// runState accumulates stage outputs for one request. Stages run
// sequentially, so no locking.
type runState struct {
	req      queue.Request
	source   string
	meta     *poster.Metadata
	summary  string
	hashtags []string
	drafts   map[string]string
	content  map[string]poster.Content
	results  map[string]poster.Result
}

// Run executes the full graph for one request. The returned error is
// non-nil only for invalid requests or context cancellation; stage
// failures are folded into the Outcome per branch.
func (p *Pipeline) Run(ctx context.Context, req queue.Request) (Outcome, error) {
	if err := req.Validate(); err != nil {
		return Outcome{}, err
	}

	s := &runState{
		req:     req,
		drafts:  make(map[string]string),
		content: make(map[string]poster.Content),
		results: make(map[string]poster.Result),
	}

	g := newGraph()
	summarizeDeps := []string(nil)
	if req.IsURL() {
		g.add(stageResearch, nil, func(ctx context.Context) error { return p.research(ctx, s) })
		summarizeDeps = []string{stageResearch}
	}
	g.add(stageSummarize, summarizeDeps, func(ctx context.Context) error { return p.summarize(ctx, s) })
	g.add(stageHashtags, []string{stageSummarize}, func(ctx context.Context) error { return p.genHashtags(ctx, s) })

	for _, platform := range req.Platforms.Enabled() {
		platform := platform
		g.add(writeStage(platform), []string{stageSummarize, stageHashtags},
			func(ctx context.Context) error { return p.write(ctx, s, platform) })
		g.add(transformStage(platform), []string{writeStage(platform)},
			func(_ context.Context) error { return p.transform(s, platform) })
		g.add(postStage(platform), []string{transformStage(platform)},
			func(ctx context.Context) error { return p.post(ctx, s, platform) })
	}

	if err := g.run(ctx); err != nil {
		return Outcome{}, err
	}
	return p.collect(s, g), nil
}

func (p *Pipeline) research(ctx context.Context, s *runState) error {
	info, err := p.links.Analyze(ctx, s.req.URL)
	if err != nil {
		p.log.Warn("link analysis failed, using fallback",
			logx.String("url", s.req.URL), logx.Err(err))
		info = linkmeta.Fallback(s.req.URL)
	}
	s.source = info.Summary() + "\nSource: " + s.req.URL
	s.meta = &poster.Metadata{
		SourceURL:   s.req.URL,
		Title:       info.Title,
		Description: info.Description,
		ImagePath:   s.req.ImagePath,
	}
	return nil
}

func (p *Pipeline) summarize(ctx context.Context, s *runState) error {
	if !s.req.IsURL() {
		s.source = s.req.Text
		if urls := linkmeta.ExtractURLs(s.req.Text); len(urls) > 0 {
			var lines []string
			for _, u := range urls {
				lines = append(lines, linkmeta.Fallback(u).Summary())
			}
			s.source += "\n\nReferenced links:\n" + strings.Join(lines, "\n")
		}
		if s.req.ImagePath != "" {
			s.meta = &poster.Metadata{ImagePath: s.req.ImagePath}
		}
	}
	out, err := p.gen.Complete(ctx, summarizePrompt(s.source))
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}
	s.summary = strings.TrimSpace(out)
	if s.summary == "" {
		return errors.New("summarize: empty completion")
	}
	return nil
}

func (p *Pipeline) genHashtags(ctx context.Context, s *runState) error {
	out, err := p.gen.Complete(ctx, hashtagPrompt(s.summary))
	if err != nil {
		return fmt.Errorf("hashtags: %w", err)
	}
	s.hashtags = parseHashtags(out)
	return nil
}

func (p *Pipeline) write(ctx context.Context, s *runState, platform string) error {
	out, err := p.gen.Complete(ctx, writePrompt(platform, s.summary, s.hashtags))
	if err != nil {
		return fmt.Errorf("write %s: %w", platform, err)
	}
	draft := strings.TrimSpace(out)
	if draft == "" {
		return fmt.Errorf("write %s: empty completion", platform)
	}
	if platform == queue.PlatformTelegram {
		if footer := socialFooter(p.social); footer != "" {
			draft += "\n\n" + footer
		}
	}
	s.drafts[platform] = draft
	return nil
}

func (p *Pipeline) transform(s *runState, platform string) error {
	draft := s.drafts[platform]
	c := poster.Content{Text: draft, Meta: s.meta}
	switch platform {
	case queue.PlatformLinkedIn:
		c.Text = textfmt.CleanProfessional(draft)
	case queue.PlatformTwitter:
		c.Thread = textfmt.SplitThread(draft)
		if len(c.Thread) > 0 {
			c.Text = c.Thread[0]
		}
	}
	s.content[platform] = c
	return nil
}

func (p *Pipeline) post(ctx context.Context, s *runState, platform string) error {
	adapter, ok := p.posters[platform]
	if !ok {
		return fmt.Errorf("no poster configured for %s", platform)
	}
	res, err := adapter.Post(ctx, s.content[platform])
	s.results[platform] = res
	switch res.Outcome {
	case poster.OutcomeSuccess:
		p.log.Info("posted", logx.String("platform", platform),
			logx.String("external_id", res.ExternalID))
	case poster.OutcomeSkipped:
		p.log.Info("duplicate content, skipped", logx.String("platform", platform))
	default:
		p.log.Warn("post failed", logx.String("platform", platform), logx.Err(err))
		return err
	}
	return nil
}

func (p *Pipeline) collect(s *runState, g *graph) Outcome {
	out := Outcome{
		Summary:  s.summary,
		Hashtags: s.hashtags,
		Posts:    make(map[string]PlatformPost, len(s.results)),
	}
	for _, platform := range s.req.Platforms.Enabled() {
		post := PlatformPost{
			Platform: platform,
			Draft:    s.drafts[platform],
			Text:     s.content[platform].Text,
			Thread:   s.content[platform].Thread,
		}
		if res, ok := s.results[platform]; ok && res.Outcome != "" {
			post.Result = res
		} else if serr := g.failure(postStage(platform)); serr != nil {
			post.Result = poster.Result{
				Outcome: poster.OutcomeFailed,
				Reason:  serr.Error(),
			}
		} else {
			// Unreachable with the fixed topology, kept as a guard.
			post.Result = poster.Result{Outcome: poster.OutcomeFailed, Reason: "branch did not run"}
		}
		out.Posts[platform] = post
	}
	return out
}
