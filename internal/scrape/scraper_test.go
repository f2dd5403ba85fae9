package scrape

import (
	"strings"
	"testing"

	"github.com/skitterhq/skitter/internal/model"
)

func TestNewScraper(t *testing.T) {
	t.Parallel()

	if _, err := NewScraper("://bad"); err == nil {
		t.Error("expected error for unparsable base url")
	}
	if _, err := NewScraper("http://example.com/page"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestScraper(t *testing.T) {
	t.Parallel()

	t.Run("extracts title", func(t *testing.T) {
		t.Parallel()

		doc := `<html><head><title>Front Page</title></head><body></body></html>`
		scraper, err := NewScraper("http://example.com/")
		if err != nil {
			t.Fatalf("failed to create scraper: %v", err)
		}

		result, err := scraper.Scrape(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("failed to scrape: %v", err)
		}

		if result.Title != "Front Page" {
			t.Errorf("expected title 'Front Page', got %q", result.Title)
		}
	})

	t.Run("classifies references by element", func(t *testing.T) {
		t.Parallel()

		doc := `<html><head>
			<link rel="stylesheet" href="/site.css">
			<script src="/app.js"></script>
		</head><body>
			<a href="/about">About</a>
			<img src="/logo.png">
		</body></html>`

		scraper, err := NewScraper("http://example.com/")
		if err != nil {
			t.Fatalf("failed to create scraper: %v", err)
		}

		result, err := scraper.Scrape(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("failed to scrape: %v", err)
		}

		want := map[string]model.LinkType{
			"http://example.com/site.css": model.LinkTypeCSS,
			"http://example.com/app.js":   model.LinkTypeJavaScript,
			"http://example.com/about":    model.LinkTypeHTML,
			"http://example.com/logo.png": model.LinkTypeMedia,
		}
		if len(result.Links) != len(want) {
			t.Fatalf("expected %d links, got %d: %v", len(want), len(result.Links), result.Links)
		}
		for _, link := range result.Links {
			linkType, ok := want[link.URL]
			if !ok {
				t.Errorf("unexpected link %q", link.URL)
				continue
			}
			if link.Type != linkType {
				t.Errorf("link %q: expected type %v, got %v", link.URL, linkType, link.Type)
			}
		}
	})

	t.Run("resolves relative references", func(t *testing.T) {
		t.Parallel()

		doc := `<html><body>
			<a href="sibling.html">Sibling</a>
			<a href="../up.html">Up</a>
			<a href="http://other.example.org/far">Absolute</a>
		</body></html>`

		scraper, err := NewScraper("http://example.com/dir/page.html")
		if err != nil {
			t.Fatalf("failed to create scraper: %v", err)
		}

		result, err := scraper.Scrape(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("failed to scrape: %v", err)
		}

		want := []string{
			"http://example.com/dir/sibling.html",
			"http://example.com/up.html",
			"http://other.example.org/far",
		}
		if len(result.Links) != len(want) {
			t.Fatalf("expected %d links, got %d: %v", len(want), len(result.Links), result.Links)
		}
		for i, link := range result.Links {
			if link.URL != want[i] {
				t.Errorf("link %d: expected %q, got %q", i, want[i], link.URL)
			}
		}
	})

	t.Run("honors first base href only", func(t *testing.T) {
		t.Parallel()

		doc := `<html><head>
			<base href="http://cdn.example.com/assets/">
			<base href="http://ignored.example.com/">
		</head><body>
			<img src="logo.png">
		</body></html>`

		scraper, err := NewScraper("http://example.com/page")
		if err != nil {
			t.Fatalf("failed to create scraper: %v", err)
		}

		result, err := scraper.Scrape(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("failed to scrape: %v", err)
		}

		if len(result.Links) != 1 {
			t.Fatalf("expected 1 link, got %d: %v", len(result.Links), result.Links)
		}
		if got := result.Links[0].URL; got != "http://cdn.example.com/assets/logo.png" {
			t.Errorf("expected base-resolved link, got %q", got)
		}
	})

	t.Run("skips pseudo-scheme and same-page references", func(t *testing.T) {
		t.Parallel()

		doc := `<html><body>
			<a href="javascript:void(0)">JS</a>
			<a href="mailto:admin@example.com">Mail</a>
			<a href="tel:+15551234">Call</a>
			<a href="data:text/plain,hi">Data</a>
			<a href="#section">Anchor</a>
			<a href="">Empty</a>
		</body></html>`

		scraper, err := NewScraper("http://example.com/")
		if err != nil {
			t.Fatalf("failed to create scraper: %v", err)
		}

		result, err := scraper.Scrape(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("failed to scrape: %v", err)
		}

		if len(result.Links) != 0 {
			t.Errorf("expected no links, got %v", result.Links)
		}
	})

	t.Run("strips fragments and deduplicates", func(t *testing.T) {
		t.Parallel()

		doc := `<html><body>
			<a href="/doc.html#intro">Intro</a>
			<a href="/doc.html#usage">Usage</a>
			<img src="/doc.html">
		</body></html>`

		scraper, err := NewScraper("http://example.com/")
		if err != nil {
			t.Fatalf("failed to create scraper: %v", err)
		}

		result, err := scraper.Scrape(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("failed to scrape: %v", err)
		}

		if len(result.Links) != 1 {
			t.Fatalf("expected 1 deduplicated link, got %d: %v", len(result.Links), result.Links)
		}
		link := result.Links[0]
		if link.URL != "http://example.com/doc.html" {
			t.Errorf("expected fragment stripped, got %q", link.URL)
		}
		if link.Type != model.LinkTypeHTML {
			t.Errorf("expected first occurrence to decide type, got %v", link.Type)
		}
	})

	t.Run("ignores unfetched link rels", func(t *testing.T) {
		t.Parallel()

		doc := `<html><head>
			<link rel="canonical" href="http://example.com/canonical">
			<link rel="preconnect" href="http://fonts.example.com/">
			<link rel="icon" href="/favicon.ico">
		</head></html>`

		scraper, err := NewScraper("http://example.com/")
		if err != nil {
			t.Fatalf("failed to create scraper: %v", err)
		}

		result, err := scraper.Scrape(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("failed to scrape: %v", err)
		}

		if len(result.Links) != 1 {
			t.Fatalf("expected only the icon link, got %v", result.Links)
		}
		if result.Links[0].Type != model.LinkTypeMedia {
			t.Errorf("expected icon classified as media, got %v", result.Links[0].Type)
		}
	})

	t.Run("survives malformed markup", func(t *testing.T) {
		t.Parallel()

		doc := `<html><body><a href="/one"><p>Unclosed<a href="/two">`

		scraper, err := NewScraper("http://example.com/")
		if err != nil {
			t.Fatalf("failed to create scraper: %v", err)
		}

		result, err := scraper.Scrape(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("failed to scrape: %v", err)
		}

		if len(result.Links) != 2 {
			t.Errorf("expected 2 links from malformed markup, got %d: %v", len(result.Links), result.Links)
		}
	})
}

func TestIsHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		want        bool
	}{
		{"plain html", "text/html", true},
		{"html with charset", "text/html; charset=utf-8", true},
		{"xhtml", "application/xhtml+xml", true},
		{"missing header", "", true},
		{"plain text", "text/plain", false},
		{"json", "application/json", false},
		{"unparsable", "garbage;;;", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := IsHTML(tt.contentType); got != tt.want {
				t.Errorf("IsHTML(%q) = %v, want %v", tt.contentType, got, tt.want)
			}
		})
	}
}
