package textfmt

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxSegmentLen is the hard per-unit limit of the short-form platform.
	MaxSegmentLen = 280

	// FirstSegmentReserve is held back while packing the first segment so
	// extracted hashtags and URLs can be appended to it afterwards.
	FirstSegmentReserve = 50

	// counterReserve leaves room for the "i/n " prefix on every segment.
	counterReserve = 10
)

var (
	reURL     = regexp.MustCompile(`https?://\S+`)
	reHashtag = regexp.MustCompile(`#\w+`)
)

// SplitThread splits text into numbered segments that each fit within the
// 280-character limit. Hashtags and URLs are pulled out of the body and
// re-attached to the first segment only, URLs taking priority when space
// is scarce. Text that already fits is returned unchanged as one
// unnumbered segment.
func SplitThread(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= MaxSegmentLen {
		return []string{text}
	}

	// URLs first: a URL may contain a "#fragment" that must not be
	// mistaken for a hashtag.
	working := text
	urls := reURL.FindAllString(working, -1)
	working = reURL.ReplaceAllString(working, " ")
	tags := reHashtag.FindAllString(working, -1)
	working = reHashtag.ReplaceAllString(working, " ")

	segments := packWords(strings.Fields(working))
	if len(segments) == 0 {
		segments = []string{""}
	}

	// Numbering before re-attachment, so the appended extras count
	// against the first segment's real remaining budget.
	if len(segments) > 1 {
		total := len(segments)
		for i, seg := range segments {
			segments[i] = fmt.Sprintf("%d/%d %s", i+1, total, seg)
		}
	}

	first := segments[0]
	for _, u := range urls {
		if utf8.RuneCountInString(first)+1+utf8.RuneCountInString(u) > MaxSegmentLen {
			continue
		}
		first += " " + u
	}
	for _, tag := range tags {
		if utf8.RuneCountInString(first)+1+utf8.RuneCountInString(tag) > MaxSegmentLen {
			continue
		}
		first += " " + tag
	}
	segments[0] = strings.TrimSpace(first)

	return segments
}

// packWords greedily fills segments. The first segment keeps
// FirstSegmentReserve free for re-attached hashtags/URLs; all segments
// keep counterReserve free for the numbering prefix.
func packWords(words []string) []string {
	var (
		segments []string
		current  strings.Builder
		curLen   int
	)
	limit := func() int {
		if len(segments) == 0 {
			return MaxSegmentLen - FirstSegmentReserve
		}
		return MaxSegmentLen - counterReserve
	}
	flush := func() {
		if curLen > 0 {
			segments = append(segments, current.String())
			current.Reset()
			curLen = 0
		}
	}

	for _, w := range words {
		wl := utf8.RuneCountInString(w)

		// A single oversized token is hard-split; nothing else keeps the
		// per-segment bound.
		for wl > MaxSegmentLen-counterReserve {
			flush()
			cut := cutRunes(w, limit())
			segments = append(segments, cut)
			w = w[len(cut):]
			wl = utf8.RuneCountInString(w)
		}
		if wl == 0 {
			continue
		}

		need := wl
		if curLen > 0 {
			need++ // joining space
		}
		if curLen+need > limit() {
			flush()
		}
		if curLen > 0 {
			current.WriteByte(' ')
			curLen++
		}
		current.WriteString(w)
		curLen += wl
	}
	flush()
	return segments
}

// cutRunes returns the longest prefix of s with at most n runes.
func cutRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
