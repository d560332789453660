package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"socialpress/internal/config"
	"socialpress/internal/generate"
	"socialpress/internal/poster"
	"socialpress/internal/queue"
)

type fakePoster struct {
	platform string
	err      error
	got      []poster.Content
}

func (f *fakePoster) Platform() string { return f.platform }

func (f *fakePoster) Post(_ context.Context, c poster.Content) (poster.Result, error) {
	f.got = append(f.got, c)
	if f.err != nil {
		return poster.ResultOf("", f.err), f.err
	}
	return poster.ResultOf("id-"+f.platform, nil), nil
}

// scriptedGen routes prompts by their system text and counts calls per
// stage kind.
type scriptedGen struct {
	summarize int
	hashtags  int
	writes    int
	fail      string // stage kind to fail: "summarize", "hashtags", "write"
}

func (g *scriptedGen) gen() generate.Generator {
	return generate.Func(func(_ context.Context, p generate.Prompt) (string, error) {
		sys := p.System
		switch {
		case strings.Contains(sys, "hashtag specialist"):
			g.hashtags++
			if g.fail == "hashtags" {
				return "", errors.New("model unavailable")
			}
			return "Here you go:\n#AI\n#MachineLearning", nil
		case strings.Contains(sys, "Telegram"):
			g.writes++
			return "Want to understand <b>RLHF</b>? Read on.\n\n#AI #MachineLearning", nil
		case strings.Contains(sys, "LinkedIn"):
			g.writes++
			return "**Reinforcement** learning (RL) is worth your time.\n\n#AI #MachineLearning", nil
		case strings.Contains(sys, "thread"):
			g.writes++
			if g.fail == "write" {
				return "", errors.New("model unavailable")
			}
			return "RLHF in one thread. " + strings.Repeat("Learn the loop. ", 25) + "#AI #MachineLearning", nil
		default:
			g.summarize++
			if g.fail == "summarize" {
				return "", errors.New("model unavailable")
			}
			return "A three paragraph summary of the article. Input was:\n" + p.User, nil
		}
	})
}

func allPlatforms() queue.Platforms {
	return queue.Platforms{Telegram: true, Twitter: true, LinkedIn: true}
}

func newTestPipeline(t *testing.T, g *scriptedGen, posters ...poster.Poster) *Pipeline {
	t.Helper()
	p, err := New(Deps{
		Generator: g.gen(),
		Posters:   posters,
		Social:    config.SocialLinks{Twitter: "https://x.com/acme", YouTube: "https://youtube.com/@acme"},
	})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return p
}

func TestRunURLRequestAllPlatforms(t *testing.T) {
	t.Parallel()

	g := &scriptedGen{}
	tg := &fakePoster{platform: queue.PlatformTelegram}
	tw := &fakePoster{platform: queue.PlatformTwitter}
	li := &fakePoster{platform: queue.PlatformLinkedIn}
	p := newTestPipeline(t, g, tg, tw, li)

	out, err := p.Run(context.Background(), queue.Request{
		URL:       "https://github.com/huggingface/trl",
		Platforms: allPlatforms(),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if g.summarize != 1 || g.hashtags != 1 {
		t.Fatalf("shared stages ran summarize=%d hashtags=%d, want 1 each", g.summarize, g.hashtags)
	}
	if g.writes != 3 {
		t.Fatalf("writes = %d, want one per platform", g.writes)
	}
	if len(out.Posts) != 3 {
		t.Fatalf("posts = %d, want 3", len(out.Posts))
	}
	for platform, post := range out.Posts {
		if post.Result.Outcome != poster.OutcomeSuccess {
			t.Errorf("%s outcome = %q: %s", platform, post.Result.Outcome, post.Result.Reason)
		}
	}
	if want := []string{"#AI", "#MachineLearning"}; len(out.Hashtags) != 2 || out.Hashtags[0] != want[0] || out.Hashtags[1] != want[1] {
		t.Fatalf("hashtags = %v", out.Hashtags)
	}

	// Telegram draft carries the configured social links footer.
	if got := tg.got[0].Text; !strings.Contains(got, "Connect with us") || !strings.Contains(got, "https://x.com/acme") {
		t.Errorf("telegram footer missing: %q", got)
	}
	// LinkedIn text went through professional cleanup.
	if got := li.got[0].Text; strings.Contains(got, "**") || strings.Contains(got, "(RL)") {
		t.Errorf("linkedin text not cleaned: %q", got)
	}
	if !strings.Contains(li.got[0].Text, "[RL]") {
		t.Errorf("linkedin parens not bracketed: %q", li.got[0].Text)
	}
	// Twitter content is a thread within the per-segment limit.
	if len(tw.got[0].Thread) < 2 {
		t.Fatalf("twitter thread = %d segments, want >= 2", len(tw.got[0].Thread))
	}
	for i, seg := range tw.got[0].Thread {
		if len([]rune(seg)) > 280 {
			t.Errorf("segment %d exceeds limit: %d runes", i, len([]rune(seg)))
		}
	}
	// URL requests carry article metadata downstream.
	if li.got[0].Meta == nil || li.got[0].Meta.SourceURL != "https://github.com/huggingface/trl" {
		t.Errorf("linkedin metadata = %+v", li.got[0].Meta)
	}
}

func TestBranchFailureIsIsolated(t *testing.T) {
	t.Parallel()

	g := &scriptedGen{}
	tg := &fakePoster{platform: queue.PlatformTelegram}
	tw := &fakePoster{platform: queue.PlatformTwitter, err: errors.New("api down")}
	li := &fakePoster{platform: queue.PlatformLinkedIn}
	p := newTestPipeline(t, g, tg, tw, li)

	out, err := p.Run(context.Background(), queue.Request{
		Text:      "A note on RLHF worth sharing.",
		Platforms: allPlatforms(),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if out.Posts[queue.PlatformTwitter].Result.Outcome != poster.OutcomeFailed {
		t.Fatalf("twitter = %+v, want failed", out.Posts[queue.PlatformTwitter].Result)
	}
	for _, platform := range []string{queue.PlatformTelegram, queue.PlatformLinkedIn} {
		if out.Posts[platform].Result.Outcome != poster.OutcomeSuccess {
			t.Errorf("%s = %+v, want success despite twitter failure", platform, out.Posts[platform].Result)
		}
	}
	if out.TotalFailure() {
		t.Fatal("partial failure must not count as total failure")
	}
	if g.summarize != 1 {
		t.Fatalf("summarize ran %d times, want 1", g.summarize)
	}
}

func TestSharedStageFailureFailsAllBranches(t *testing.T) {
	t.Parallel()

	g := &scriptedGen{fail: "summarize"}
	p := newTestPipeline(t, g,
		&fakePoster{platform: queue.PlatformTelegram},
		&fakePoster{platform: queue.PlatformTwitter})

	out, err := p.Run(context.Background(), queue.Request{
		Text:      "some text",
		Platforms: queue.Platforms{Telegram: true, Twitter: true},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !out.TotalFailure() {
		t.Fatal("want total failure when the shared stage fails")
	}
	for platform, post := range out.Posts {
		if post.Result.Outcome != poster.OutcomeFailed {
			t.Errorf("%s = %q, want failed", platform, post.Result.Outcome)
		}
		if !strings.Contains(post.Result.Reason, "summarize") {
			t.Errorf("%s reason %q does not name the failed stage", platform, post.Result.Reason)
		}
	}
}

func TestDuplicateContentCountsAsTerminalSkip(t *testing.T) {
	t.Parallel()

	g := &scriptedGen{}
	dup := &fakePoster{platform: queue.PlatformLinkedIn, err: poster.ErrDuplicateContent}
	p := newTestPipeline(t, g, dup)

	out, err := p.Run(context.Background(), queue.Request{
		Text:      "same post again",
		Platforms: queue.Platforms{LinkedIn: true},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	res := out.Posts[queue.PlatformLinkedIn].Result
	if res.Outcome != poster.OutcomeSkipped || !res.OK {
		t.Fatalf("result = %+v, want skipped", res)
	}
	if out.TotalFailure() {
		t.Fatal("duplicate skip must not count as total failure")
	}
}

func TestTextPayloadEmbeddedLinkMetadata(t *testing.T) {
	t.Parallel()

	var sawSource string
	gen := generate.Func(func(_ context.Context, p generate.Prompt) (string, error) {
		if strings.Contains(p.System, "key insights") {
			sawSource = p.User
		}
		return "#AI draft output", nil
	})
	p, err := New(Deps{Generator: gen, Posters: []poster.Poster{&fakePoster{platform: queue.PlatformTelegram}}})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	_, err = p.Run(context.Background(), queue.Request{
		Text:      "Check out https://github.com/acme/tool for the code.",
		Platforms: queue.Platforms{Telegram: true},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(sawSource, "Referenced links:") || !strings.Contains(sawSource, "Github") {
		t.Fatalf("summarize input missing link metadata: %q", sawSource)
	}
}

func TestRunRejectsInvalidRequest(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t, &scriptedGen{}, &fakePoster{platform: queue.PlatformTelegram})
	_, err := p.Run(context.Background(), queue.Request{Platforms: allPlatforms()})
	if !queue.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newTestPipeline(t, &scriptedGen{}, &fakePoster{platform: queue.PlatformTelegram})
	_, err := p.Run(ctx, queue.Request{Text: "hi", Platforms: queue.Platforms{Telegram: true}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestMissingPosterFailsOnlyThatBranch(t *testing.T) {
	t.Parallel()

	g := &scriptedGen{}
	p := newTestPipeline(t, g, &fakePoster{platform: queue.PlatformTelegram})

	out, err := p.Run(context.Background(), queue.Request{
		Text:      "hello world",
		Platforms: queue.Platforms{Telegram: true, LinkedIn: true},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Posts[queue.PlatformTelegram].Result.Outcome != poster.OutcomeSuccess {
		t.Fatalf("telegram = %+v", out.Posts[queue.PlatformTelegram].Result)
	}
	li := out.Posts[queue.PlatformLinkedIn].Result
	if li.Outcome != poster.OutcomeFailed || !strings.Contains(li.Reason, "no poster configured") {
		t.Fatalf("linkedin = %+v", li)
	}
}

func TestParseHashtags(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"one per line", "#AI\n#MachineLearning\n#NLP", []string{"#AI", "#MachineLearning", "#NLP"}},
		{"prose around tags", "Here are my picks: #AI and #LLM, enjoy!", []string{"#AI", "#LLM"}},
		{"dedup case insensitive", "#AI #ai #Ai", []string{"#AI"}},
		{"capped at five", "#a #b #c #d #e #f #g", []string{"#a", "#b", "#c", "#d", "#e"}},
		{"none", "no tags here", nil},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := parseHashtags(tc.in)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
		})
	}
}
