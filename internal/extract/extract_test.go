package extract

import (
	"strings"
	"testing"
)

func TestVisibleText(t *testing.T) {
	page := `
	<html>
	<head><title>Bridge exploit</title><style>p { color: red }</style></head>
	<body>
		<script>var hack = 1;</script>
		<p>Attackers drained   the bridge.</p>
		<noscript>enable js</noscript>
		<div>Funds <b>moved</b> to tornado.</div>
	</body>
	</html>
	`

	text, err := VisibleText(strings.NewReader(page))
	if err != nil {
		t.Fatalf("VisibleText() error = %v", err)
	}

	for _, want := range []string{"Bridge exploit", "Attackers drained   the bridge.", "Funds moved to tornado."} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in %q", want, text)
		}
	}
	for _, unwanted := range []string{"var hack", "color: red", "enable js"} {
		if strings.Contains(text, unwanted) {
			t.Errorf("did not expect %q in %q", unwanted, text)
		}
	}
}

func TestTitle(t *testing.T) {
	if got := Title(`<html><head><title> Rug pull alert </title></head><body>x</body></html>`); got != "Rug pull alert" {
		t.Errorf("Title() = %q", got)
	}
	if got := Title(`<p>no title</p>`); got != "" {
		t.Errorf("Title() = %q, want empty", got)
	}
}

func TestIsHTML(t *testing.T) {
	tests := []struct {
		contentType string
		content     string
		want        bool
	}{
		{"text/html; charset=utf-8", "plain", true},
		{"", "<!DOCTYPE html><html></html>", true},
		{"", "  <html><body>x</body></html>", true},
		{"text/plain", "just text with a < sign", false},
		{"", `{"json": true}`, false},
	}
	for _, tt := range tests {
		if got := IsHTML(tt.contentType, tt.content); got != tt.want {
			t.Errorf("IsHTML(%q, %q) = %v, want %v", tt.contentType, tt.content, got, tt.want)
		}
	}
}

func TestEntities(t *testing.T) {
	content := "eth and $PEPE pumping, ETH again. Send to 0x52908400098527886E0F7030069857D2E4169EE7 " +
		"see https://example.com/post?id=1. #defi #DeFi @vitalik mail me at a@b.io"

	e := Entities(content)

	assertList(t, "symbols", e.Symbols, []string{"ETH", "PEPE"})
	assertList(t, "addresses", e.Addresses, []string{"0x52908400098527886E0F7030069857D2E4169EE7"})
	assertList(t, "urls", e.URLs, []string{"https://example.com/post?id=1"})
	assertList(t, "hashtags", e.Hashtags, []string{"#defi", "#DeFi"})
	assertList(t, "mentions", e.Mentions, []string{"@vitalik"})

	if e.Empty() {
		t.Error("Empty() = true, want false")
	}
	if !Entities("nothing to see").Empty() {
		t.Error("expected no entities")
	}
}

func TestSuggestKeywords(t *testing.T) {
	content := "The bridge exploit drained funds. Exploit confirmed; the bridge is paused. " +
		"Funds moved, exploit again in 2024."

	got := SuggestKeywords(content, 3)
	assertList(t, "suggestions", got, []string{"exploit", "bridge", "funds"})

	if n := len(SuggestKeywords(content, 0)); n != 8 {
		t.Errorf("default limit returned %d words, want all 8", n)
	}
	if got := SuggestKeywords("a an the is", 5); len(got) != 0 {
		t.Errorf("expected no suggestions, got %v", got)
	}
}

func assertList(t *testing.T, name string, got, want []string) {
	t.Helper()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}
