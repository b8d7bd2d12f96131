package adapters

import (
	"strings"
	"testing"
)

func TestRegistry_FindAdapter(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		url      string
		adapter  string
		platform string
	}{
		{"https://twitter.com/user/status/1", "twitter", "twitter"},
		{"https://x.com/user/status/1", "twitter", "twitter"},
		{"https://mobile.twitter.com/user", "twitter", "twitter"},
		{"https://old.reddit.com/r/ethereum/comments/abc", "reddit", "reddit"},
		{"https://t.me/s/somechannel", "telegram", "telegram"},
		{"https://en.wikipedia.org/wiki/Reentrancy_(computing)", "wikipedia", "wikipedia"},
		{"https://notx.com/page", "generic", ""},
		{"https://example.com/blog/post", "generic", ""},
		{"::not a url", "generic", ""},
	}
	for _, tt := range tests {
		a := r.FindAdapter(tt.url)
		if a.Name() != tt.adapter || a.Platform() != tt.platform {
			t.Errorf("FindAdapter(%q) = %s/%s, want %s/%s", tt.url, a.Name(), a.Platform(), tt.adapter, tt.platform)
		}
	}
}

func TestRegistry_Extract(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name    string
		url     string
		html    string
		want    string
		notWant string
	}{
		{
			name:    "wikipedia body only",
			url:     "https://en.wikipedia.org/wiki/Flash_loan",
			html:    `<html><body><div id="mw-navigation">Main page</div><div class="mw-parser-output"><p>A flash loan is uncollateralized.</p></div></body></html>`,
			want:    "A flash loan is uncollateralized.",
			notWant: "Main page",
		},
		{
			name:    "tweet text",
			url:     "https://x.com/a/status/1",
			html:    `<html><body><nav>Home</nav><article><div data-testid="tweetText">bridge exploited</div><span>12 likes</span></article></body></html>`,
			want:    "bridge exploited",
			notWant: "likes",
		},
		{
			name:    "generic prefers main",
			url:     "https://example.com/news",
			html:    `<html><body><header>Menu</header><main><p>Rug pull confirmed.</p></main></body></html>`,
			want:    "Rug pull confirmed.",
			notWant: "Menu",
		},
		{
			name: "falls back to the document",
			url:  "https://t.me/s/chan",
			html: `<html><body><p>no widget markup here</p></body></html>`,
			want: "no widget markup here",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := r.Extract(tt.url, tt.html)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if !strings.Contains(page.Text, tt.want) {
				t.Errorf("Text = %q, want it to contain %q", page.Text, tt.want)
			}
			if tt.notWant != "" && strings.Contains(page.Text, tt.notWant) {
				t.Errorf("Text = %q, should not contain %q", page.Text, tt.notWant)
			}
		})
	}
}
