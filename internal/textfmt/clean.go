// Package textfmt holds the pure text rewriting rules applied before
// publishing: long-form markdown cleanup and length-bounded thread
// splitting. All transforms are idempotent.
package textfmt

import (
	"regexp"
	"strings"
)

var (
	// Parenthesized spans become bracketed, except right after "]" so
	// markdown link targets survive until the link rule runs.
	reParens = regexp.MustCompile(`(^|[^\]])\(([^()]+)\)`)

	reBold = regexp.MustCompile(`\*\*([^*]+)\*\*`)

	// Single emphasis markers only; the boundary groups keep adjacent
	// markers (leftovers of bold) untouched.
	reItalic = regexp.MustCompile(`(^|[^*])\*([^*]+)\*($|[^*])`)

	reHeading = regexp.MustCompile(`(?m)^#+[ \t]+`)
	reLink    = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	reSpaces  = regexp.MustCompile(` {2,}`)
	reBlank   = regexp.MustCompile(`\n{3,}`)
)

// CleanProfessional rewrites generated markdown-ish text into the plain
// style the long-form professional platform expects:
//
//	(X)        -> [X]
//	**bold**   -> bold
//	*italic*   -> italic
//	# Heading  -> Heading
//	[t](url)   -> t url
//
// plus whitespace normalization. Applying it twice yields the same result
// as applying it once.
func CleanProfessional(text string) string {
	text = replaceAllFixpoint(reParens, text, `${1}[${2}]`)
	text = reBold.ReplaceAllString(text, `${1}`)
	text = replaceAllFixpoint(reItalic, text, `${1}${2}${3}`)
	text = reHeading.ReplaceAllString(text, "")
	text = reLink.ReplaceAllString(text, `${1} ${2}`)
	text = reSpaces.ReplaceAllString(text, " ")
	text = reBlank.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// replaceAllFixpoint applies the replacement until the text stops changing.
// RE2 has no lookarounds, so boundary characters are consumed by the match;
// one pass can miss back-to-back occurrences ("*a* *b*").
func replaceAllFixpoint(re *regexp.Regexp, text, repl string) string {
	for {
		next := re.ReplaceAllString(text, repl)
		if next == text {
			return next
		}
		text = next
	}
}
