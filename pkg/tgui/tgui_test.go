package tgui

import "testing"

func TestDataRoundTrip(t *testing.T) {
	t.Parallel()

	data := Data("req", "toggle", "twitter")
	if data != "req:toggle:twitter" {
		t.Fatalf("data = %q", data)
	}
	scope, action, payload := SplitData(data)
	if scope != "req" || action != "toggle" || payload != "twitter" {
		t.Fatalf("split = %q %q %q", scope, action, payload)
	}

	scope, action, payload = SplitData("req:queue")
	if scope != "req" || action != "queue" || payload != "" {
		t.Fatalf("split = %q %q %q", scope, action, payload)
	}
}

func TestTruncRunes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 4, "hell…"},
		{"héllo", 3, "hél…"},
		{"hi", 0, ""},
	}
	for _, tc := range cases {
		if got := TruncRunes(tc.in, tc.n); got != tc.want {
			t.Errorf("TruncRunes(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
	}
}

func TestEsc(t *testing.T) {
	t.Parallel()

	if got := Esc("<b> & co").String(); got != "&lt;b&gt; &amp; co" {
		t.Fatalf("esc = %q", got)
	}
	if got := B("x<y").String(); got != "<b>x&lt;y</b>" {
		t.Fatalf("bold = %q", got)
	}
	if got := I("note").String(); got != "<i>note</i>" {
		t.Fatalf("italic = %q", got)
	}
	if got := Link("a&b", `https://x.test/?q="1"`).String(); got != `<a href="https://x.test/?q=&#34;1&#34;">a&amp;b</a>` {
		t.Fatalf("link = %q", got)
	}
}
