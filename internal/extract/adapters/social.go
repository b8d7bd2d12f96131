package adapters

import (
	"net/url"

	"golang.org/x/net/html"
)

// TwitterAdapter handles twitter.com and x.com status pages
type TwitterAdapter struct{ BaseAdapter }

// NewTwitterAdapter creates a Twitter adapter
func NewTwitterAdapter() *TwitterAdapter { return &TwitterAdapter{} }

func (a *TwitterAdapter) Name() string     { return "twitter" }
func (a *TwitterAdapter) Platform() string { return "twitter" }

func (a *TwitterAdapter) CanHandle(u *url.URL) bool {
	return hostIs(u, "twitter.com", "x.com")
}

// ContentRoot prefers the tweet text, then the first article
func (a *TwitterAdapter) ContentRoot(doc *html.Node) *html.Node {
	if n := a.FindFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && a.GetAttribute(n, "data-testid") == "tweetText"
	}); n != nil {
		return n
	}
	return a.FindElement(doc, "article", "")
}

// RedditAdapter handles reddit.com threads
type RedditAdapter struct{ BaseAdapter }

// NewRedditAdapter creates a Reddit adapter
func NewRedditAdapter() *RedditAdapter { return &RedditAdapter{} }

func (a *RedditAdapter) Name() string     { return "reddit" }
func (a *RedditAdapter) Platform() string { return "reddit" }

func (a *RedditAdapter) CanHandle(u *url.URL) bool {
	return hostIs(u, "reddit.com", "redd.it")
}

// ContentRoot prefers the post element, then the old reddit site table
func (a *RedditAdapter) ContentRoot(doc *html.Node) *html.Node {
	if n := a.FindElement(doc, "shreddit-post", ""); n != nil {
		return n
	}
	return a.FindElement(doc, "div", "sitetable")
}

// TelegramAdapter handles public t.me channel previews
type TelegramAdapter struct{ BaseAdapter }

// NewTelegramAdapter creates a Telegram adapter
func NewTelegramAdapter() *TelegramAdapter { return &TelegramAdapter{} }

func (a *TelegramAdapter) Name() string     { return "telegram" }
func (a *TelegramAdapter) Platform() string { return "telegram" }

func (a *TelegramAdapter) CanHandle(u *url.URL) bool {
	return hostIs(u, "t.me", "telegram.me")
}

func (a *TelegramAdapter) ContentRoot(doc *html.Node) *html.Node {
	if n := a.FindElement(doc, "div", "tgme_channel_history"); n != nil {
		return n
	}
	return a.FindElement(doc, "div", "tgme_widget_message_text")
}
