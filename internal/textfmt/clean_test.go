package textfmt

import "testing"

func TestCleanProfessional(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "acronym parentheses",
			in:   "Vision Language Models (VLM) are amazing (AI) tools",
			want: "Vision Language Models [VLM] are amazing [AI] tools",
		},
		{
			name: "bold",
			in:   "**bold** text",
			want: "bold text",
		},
		{
			name: "italic",
			in:   "some *italic* text",
			want: "some italic text",
		},
		{
			name: "adjacent italics",
			in:   "*a* *b*",
			want: "a b",
		},
		{
			name: "inline link",
			in:   "[this article](https://example.com)",
			want: "this article https://example.com",
		},
		{
			name: "link mid-sentence",
			in:   "Check [this article](https://example.com) out",
			want: "Check this article https://example.com out",
		},
		{
			name: "headings",
			in:   "# Title\n## Sub\nbody",
			want: "Title\nSub\nbody",
		},
		{
			name: "bold with parens",
			in:   "**Mixture of Experts (MoE)** is a technique",
			want: "Mixture of Experts [MoE] is a technique",
		},
		{
			name: "whitespace collapse",
			in:   "a  b\n\n\n\nc",
			want: "a b\n\nc",
		},
		{
			name: "trim",
			in:   "  padded  ",
			want: "padded",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := CleanProfessional(tt.in)
			if got != tt.want {
				t.Fatalf("CleanProfessional(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanProfessionalIdempotent(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"Vision Language Models (VLM) are amazing (AI) tools",
		"**bold** and *italic* and [link](https://x.test/a)",
		"# Heading\n\n\n\nLLM (Large Language Model) and VLM (Vision Language Model)",
		"nested **bold (WithParens)** here",
		"plain text without markup",
		"",
	}
	for _, in := range inputs {
		once := CleanProfessional(in)
		twice := CleanProfessional(once)
		if once != twice {
			t.Fatalf("not idempotent for %q:\n once:  %q\n twice: %q", in, once, twice)
		}
	}
}
