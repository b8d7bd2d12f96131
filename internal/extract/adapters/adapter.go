// Package adapters recognizes where a fetched page comes from and where its
// main content lives.
package adapters

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/keywatch/internal/extract"
)

// Adapter handles pages of one site
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// Platform is the platform name rules filter on ("" = unknown)
	Platform() string

	// CanHandle checks if this adapter can handle the given URL
	CanHandle(u *url.URL) bool

	// ContentRoot returns the node holding the main content, or nil
	ContentRoot(doc *html.Node) *html.Node
}

// Page is the result of extracting a fetched page
type Page struct {
	Adapter  string
	Platform string
	Title    string
	Text     string
}

// Registry manages site adapters
type Registry struct {
	adapters []Adapter
	generic  Adapter
}

// NewRegistry creates a registry with the built-in adapters
func NewRegistry() *Registry {
	registry := &Registry{}

	registry.Register(NewTwitterAdapter())
	registry.Register(NewRedditAdapter())
	registry.Register(NewTelegramAdapter())
	registry.Register(NewWikipediaAdapter())

	registry.generic = NewGenericAdapter()
	return registry
}

// Register registers a new adapter
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// FindAdapter finds the adapter for rawURL, falling back to the generic one
func (r *Registry) FindAdapter(rawURL string) Adapter {
	u, err := url.Parse(rawURL)
	if err != nil {
		return r.generic
	}
	for _, adapter := range r.adapters {
		if adapter.CanHandle(u) {
			return adapter
		}
	}
	return r.generic
}

// Extract parses htmlContent and returns the main text of the page
func (r *Registry) Extract(rawURL, htmlContent string) (*Page, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	adapter := r.FindAdapter(rawURL)
	root := adapter.ContentRoot(doc)
	if root == nil {
		root = doc
	}

	text := extract.NodeText(root)
	if text == "" && root != doc {
		text = extract.NodeText(doc)
	}

	return &Page{
		Adapter:  adapter.Name(),
		Platform: adapter.Platform(),
		Title:    extract.Title(htmlContent),
		Text:     text,
	}, nil
}

// BaseAdapter provides common functionality for adapters
type BaseAdapter struct{}

// HasClass checks if a node has a specific CSS class
func (b *BaseAdapter) HasClass(n *html.Node, className string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, class := range strings.Fields(b.GetAttribute(n, "class")) {
		if class == className {
			return true
		}
	}
	return false
}

// GetAttribute gets an attribute value from a node
func (b *BaseAdapter) GetAttribute(n *html.Node, attrKey string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrKey {
			return attr.Val
		}
	}
	return ""
}

// FindFirst finds the first node matching a predicate
func (b *BaseAdapter) FindFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	var result *html.Node

	var walk func(*html.Node) bool
	walk = func(node *html.Node) bool {
		if predicate(node) {
			result = node
			return true
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	walk(n)
	return result
}

// FindElement finds the first element with the tag, or with the class when
// class is set
func (b *BaseAdapter) FindElement(n *html.Node, tag, class string) *html.Node {
	return b.FindFirst(n, func(node *html.Node) bool {
		if node.Type != html.ElementNode || (tag != "" && node.Data != tag) {
			return false
		}
		return class == "" || b.HasClass(node, class)
	})
}

// hostIs reports whether host is domain or a subdomain of it
func hostIs(u *url.URL, domains ...string) bool {
	host := strings.ToLower(u.Hostname())
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
