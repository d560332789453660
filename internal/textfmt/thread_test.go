package textfmt

import (
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitThreadShortTextUnchanged(t *testing.T) {
	t.Parallel()
	in := "A short update about Go generics. #golang https://go.dev/blog"
	got := SplitThread(in)
	if len(got) != 1 {
		t.Fatalf("segments = %d, want 1", len(got))
	}
	if got[0] != in {
		t.Fatalf("short text changed: %q", got[0])
	}
	if strings.HasPrefix(got[0], "1/") {
		t.Fatalf("single segment must not be numbered: %q", got[0])
	}
}

func TestSplitThreadLongMessage(t *testing.T) {
	t.Parallel()
	body := strings.Repeat("practical machine learning tips for production systems ", 7)
	in := body + " https://example.com/post #AI #ML #Go"
	if utf8.RuneCountInString(in) < 400 {
		t.Fatalf("test input too short: %d", utf8.RuneCountInString(in))
	}

	got := SplitThread(in)
	if len(got) < 2 {
		t.Fatalf("segments = %d, want >= 2", len(got))
	}

	for i, seg := range got {
		if n := utf8.RuneCountInString(seg); n > MaxSegmentLen {
			t.Fatalf("segment %d is %d runes, over the %d limit: %q", i, n, MaxSegmentLen, seg)
		}
		wantPrefix := strconv.Itoa(i+1) + "/" + strconv.Itoa(len(got)) + " "
		if !strings.HasPrefix(seg, wantPrefix) {
			t.Fatalf("segment %d missing %q prefix: %q", i, wantPrefix, seg)
		}
	}

	// hashtags and the URL live in the first segment only
	if !strings.Contains(got[0], "https://example.com/post") {
		t.Fatalf("first segment missing URL: %q", got[0])
	}
	for _, tag := range []string{"#AI", "#ML", "#Go"} {
		if !strings.Contains(got[0], tag) {
			t.Fatalf("first segment missing %s: %q", tag, got[0])
		}
	}
	for i, seg := range got[1:] {
		if strings.Contains(seg, "#") || strings.Contains(seg, "http") {
			t.Fatalf("segment %d carries hashtag/URL: %q", i+1, seg)
		}
	}
}

func TestSplitThreadURLsWinOverHashtags(t *testing.T) {
	t.Parallel()
	// Leave barely any first-segment budget so hashtags get squeezed out
	// while the URL still fits.
	body := strings.Repeat("wordwordwd ", 60)
	longURL := "https://example.com/" + strings.Repeat("p", 20)
	in := body + longURL + " #alpha #beta"

	got := SplitThread(in)
	if len(got) < 2 {
		t.Fatalf("segments = %d, want >= 2", len(got))
	}
	if !strings.Contains(got[0], longURL) {
		t.Fatalf("URL dropped from first segment: %q", got[0])
	}
	if utf8.RuneCountInString(got[0]) > MaxSegmentLen {
		t.Fatalf("first segment over limit: %d", utf8.RuneCountInString(got[0]))
	}
	for i, seg := range got {
		if strings.Contains(seg, "#alpha") || strings.Contains(seg, "#beta") {
			t.Fatalf("hashtag should have been squeezed out, found in segment %d: %q", i, seg)
		}
	}
}

func TestSplitThreadIdempotentPerSegment(t *testing.T) {
	t.Parallel()
	// Splitting an already-fitting segment returns it untouched.
	body := strings.Repeat("alpha beta gamma delta ", 30) + "#go https://go.dev"
	for _, seg := range SplitThread(body) {
		again := SplitThread(seg)
		if len(again) != 1 || again[0] != seg {
			t.Fatalf("resplitting segment changed it: %q -> %#v", seg, again)
		}
	}
}

func TestSplitThreadEmpty(t *testing.T) {
	t.Parallel()
	if got := SplitThread("   "); got != nil {
		t.Fatalf("expected nil for blank input, got %#v", got)
	}
}
