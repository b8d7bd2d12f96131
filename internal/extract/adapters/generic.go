package adapters

import (
	"net/url"

	"golang.org/x/net/html"
)

// GenericAdapter is the fallback adapter for unknown domains
type GenericAdapter struct{ BaseAdapter }

// NewGenericAdapter creates a new generic adapter
func NewGenericAdapter() *GenericAdapter { return &GenericAdapter{} }

// Name returns the adapter name
func (a *GenericAdapter) Name() string { return "generic" }

// Platform is unknown for generic pages
func (a *GenericAdapter) Platform() string { return "" }

// CanHandle always returns true (fallback adapter)
func (a *GenericAdapter) CanHandle(*url.URL) bool { return true }

// ContentRoot prefers <main>, then <article>, then <body>
func (a *GenericAdapter) ContentRoot(doc *html.Node) *html.Node {
	for _, tag := range []string{"main", "article", "body"} {
		if n := a.FindElement(doc, tag, ""); n != nil {
			return n
		}
	}
	return nil
}
