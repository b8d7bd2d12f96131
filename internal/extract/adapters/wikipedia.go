package adapters

import (
	"net/url"

	"golang.org/x/net/html"
)

// WikipediaAdapter extracts the article body of Wikipedia pages
type WikipediaAdapter struct{ BaseAdapter }

// NewWikipediaAdapter creates a new Wikipedia adapter
func NewWikipediaAdapter() *WikipediaAdapter { return &WikipediaAdapter{} }

// Name returns the adapter name
func (a *WikipediaAdapter) Name() string { return "wikipedia" }

// Platform returns "wikipedia"
func (a *WikipediaAdapter) Platform() string { return "wikipedia" }

// CanHandle checks if this is a Wikipedia URL
func (a *WikipediaAdapter) CanHandle(u *url.URL) bool {
	return hostIs(u, "wikipedia.org")
}

// ContentRoot returns the parser output, skipping navigation and sidebars
func (a *WikipediaAdapter) ContentRoot(doc *html.Node) *html.Node {
	return a.FindFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "div" &&
			(a.HasClass(n, "mw-parser-output") || a.GetAttribute(n, "id") == "mw-content-text")
	})
}
