package scrape

import (
	"fmt"
	"io"
	"mime"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/skitterhq/skitter/internal/model"
)

// Link is one reference discovered in a document, resolved to an
// absolute URL.
type Link struct {
	// URL is the absolute URL string.
	URL string

	// Type classifies the reference: a page link or an inline requisite.
	Type model.LinkType
}

// Result holds everything extracted from one document.
type Result struct {
	// Title is the page title, empty when the document has none.
	Title string

	// Links are the discovered references in document order,
	// deduplicated by URL. The first occurrence decides the link type.
	Links []Link
}

// Scraper extracts links from HTML documents.
//
// Design decision: We parse with golang.org/x/net/html rather than
// regular expressions because:
//  1. Real pages are full of malformed markup and the parser copes
//  2. Attribute quoting and entity decoding come for free
//  3. The element walk stays readable as coverage grows
type Scraper struct {
	// base is the document URL relative references resolve against.
	base *url.URL
}

// NewScraper creates a scraper for a document fetched from baseURL.
func NewScraper(baseURL string) (*Scraper, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	return &Scraper{base: u}, nil
}

// Scrape parses the document and collects its references.
//
// A <base href> element replaces the resolution base for everything
// after it in document order. Only the first one counts, as in browsers.
func (s *Scraper) Scrape(r io.Reader) (*Result, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	result := &Result{Links: make([]Link, 0)}
	base := s.base
	rebased := false
	seen := make(map[string]bool)

	add := func(ref string, linkType model.LinkType) {
		resolved := resolveRef(base, ref)
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true
		result.Links = append(result.Links, Link{URL: resolved, Type: linkType})
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if result.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					result.Title = strings.TrimSpace(n.FirstChild.Data)
				}

			case "base":
				if href := attr(n, "href"); href != "" && !rebased {
					if u, err := base.Parse(href); err == nil {
						base = u
						rebased = true
					}
				}

			case "a", "area", "iframe", "frame":
				ref := attr(n, "href")
				if n.Data == "iframe" || n.Data == "frame" {
					ref = attr(n, "src")
				}
				add(ref, model.LinkTypeHTML)

			case "img", "embed", "source", "track", "audio":
				add(attr(n, "src"), model.LinkTypeMedia)

			case "video":
				add(attr(n, "src"), model.LinkTypeMedia)
				add(attr(n, "poster"), model.LinkTypeMedia)

			case "script":
				add(attr(n, "src"), model.LinkTypeJavaScript)

			case "link":
				if linkType, ok := linkRelType(attr(n, "rel")); ok {
					add(attr(n, "href"), linkType)
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

// linkRelType maps <link> rel values onto requisite types. Stylesheets
// and icons are the only rels worth fetching; the rest (canonical,
// alternate, preconnect) point at things a mirror does not need.
func linkRelType(rel string) (model.LinkType, bool) {
	switch strings.ToLower(strings.TrimSpace(rel)) {
	case "stylesheet":
		return model.LinkTypeCSS, true
	case "icon", "shortcut icon", "apple-touch-icon":
		return model.LinkTypeMedia, true
	default:
		return model.LinkTypeHTML, false
	}
}

// resolveRef resolves a reference against the base URL and strips the
// fragment. Pseudo-scheme and same-page references yield an empty
// string.
func resolveRef(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" ||
		strings.HasPrefix(ref, "#") ||
		strings.HasPrefix(ref, "javascript:") ||
		strings.HasPrefix(ref, "mailto:") ||
		strings.HasPrefix(ref, "tel:") ||
		strings.HasPrefix(ref, "data:") {
		return ""
	}

	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(u)
	resolved.Fragment = ""
	return resolved.String()
}

// IsHTML reports whether a Content-Type header names an HTML document.
// Parameters such as charset are ignored. An empty value counts as HTML
// because servers routinely omit the header on index pages.
func IsHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml":
		return true
	default:
		return false
	}
}

// attr retrieves an attribute value from an HTML node.
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
