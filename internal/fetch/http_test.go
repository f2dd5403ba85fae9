package fetch

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/skitterhq/skitter/internal/errs"
	"github.com/skitterhq/skitter/internal/model"
)

func mustParse(t *testing.T, raw string) *model.URLInfo {
	t.Helper()
	info, err := model.ParseURL(raw)
	if err != nil {
		t.Fatalf("ParseURL(%q) error = %v, want nil", raw, err)
	}
	return info
}

func TestHTTPFetcherFetch(t *testing.T) {
	t.Parallel()

	t.Run("returns status, headers, and body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html><body>hello</body></html>"))
		}))
		defer server.Close()

		fetcher, err := NewHTTPFetcher()
		if err != nil {
			t.Fatalf("NewHTTPFetcher() error = %v, want nil", err)
		}

		resp, err := fetcher.Fetch(context.Background(), mustParse(t, server.URL+"/"), nil)
		if err != nil {
			t.Fatalf("Fetch() error = %v, want nil", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
		}
		if !strings.HasPrefix(resp.ContentType, "text/html") {
			t.Errorf("ContentType = %q, want text/html", resp.ContentType)
		}
		if !strings.Contains(string(resp.Body), "hello") {
			t.Errorf("Body = %q, want page content", resp.Body)
		}
		if resp.Size != int64(len(resp.Body)) {
			t.Errorf("Size = %d, want %d", resp.Size, len(resp.Body))
		}
	})

	t.Run("sends user agent and extra headers", func(t *testing.T) {
		t.Parallel()

		var gotUA, gotExtra string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			gotExtra = r.Header.Get("X-Crawl-Run")
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		fetcher, err := NewHTTPFetcher(
			WithUserAgent("test-agent/0.1"),
			WithHeaders(map[string]string{"X-Crawl-Run": "nightly"}),
		)
		if err != nil {
			t.Fatalf("NewHTTPFetcher() error = %v, want nil", err)
		}

		if _, err := fetcher.Fetch(context.Background(), mustParse(t, server.URL+"/"), nil); err != nil {
			t.Fatalf("Fetch() error = %v, want nil", err)
		}
		if gotUA != "test-agent/0.1" {
			t.Errorf("User-Agent = %q, want %q", gotUA, "test-agent/0.1")
		}
		if gotExtra != "nightly" {
			t.Errorf("X-Crawl-Run = %q, want %q", gotExtra, "nightly")
		}
	})

	t.Run("caps the body size", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(make([]byte, 4096))
		}))
		defer server.Close()

		fetcher, err := NewHTTPFetcher(WithMaxBodySize(128))
		if err != nil {
			t.Fatalf("NewHTTPFetcher() error = %v, want nil", err)
		}

		resp, err := fetcher.Fetch(context.Background(), mustParse(t, server.URL+"/"), nil)
		if err != nil {
			t.Fatalf("Fetch() error = %v, want nil", err)
		}
		if len(resp.Body) != 128 {
			t.Errorf("len(Body) = %d, want capped at 128", len(resp.Body))
		}
	})

	t.Run("pre-response can skip the body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(make([]byte, 4096))
		}))
		defer server.Close()

		fetcher, err := NewHTTPFetcher()
		if err != nil {
			t.Fatalf("NewHTTPFetcher() error = %v, want nil", err)
		}

		var sawStatus int
		pre := func(_ context.Context, resp *Response) error {
			sawStatus = resp.StatusCode
			if resp.Body != nil {
				t.Error("pre-response saw a body")
			}
			return ErrSkipBody
		}

		resp, err := fetcher.Fetch(context.Background(), mustParse(t, server.URL+"/"), pre)
		if err != nil {
			t.Fatalf("Fetch() error = %v, want nil", err)
		}
		if sawStatus != http.StatusOK {
			t.Errorf("pre-response saw status %d, want 200", sawStatus)
		}
		if resp.Body != nil {
			t.Errorf("len(Body) = %d, want no body after skip", len(resp.Body))
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("pre-response error aborts the fetch", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		fetcher, err := NewHTTPFetcher()
		if err != nil {
			t.Fatalf("NewHTTPFetcher() error = %v, want nil", err)
		}

		abort := errors.New("not wanted")
		pre := func(_ context.Context, _ *Response) error { return abort }

		_, err = fetcher.Fetch(context.Background(), mustParse(t, server.URL+"/"), pre)
		if !errors.Is(err, abort) {
			t.Errorf("Fetch() error = %v, want the pre-response error", err)
		}
	})

	t.Run("error status is a response, not an error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "broken", http.StatusInternalServerError)
		}))
		defer server.Close()

		fetcher, err := NewHTTPFetcher()
		if err != nil {
			t.Fatalf("NewHTTPFetcher() error = %v, want nil", err)
		}

		resp, err := fetcher.Fetch(context.Background(), mustParse(t, server.URL+"/"), nil)
		if err != nil {
			t.Fatalf("Fetch() error = %v, want nil for an error status", err)
		}
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("StatusCode = %d, want 500", resp.StatusCode)
		}
	})

	t.Run("refused connection is a network error", func(t *testing.T) {
		t.Parallel()

		// Grab a port that is certainly closed.
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to reserve a port: %v", err)
		}
		addr := listener.Addr().String()
		_ = listener.Close()

		fetcher, err := NewHTTPFetcher()
		if err != nil {
			t.Fatalf("NewHTTPFetcher() error = %v, want nil", err)
		}

		_, err = fetcher.Fetch(context.Background(), mustParse(t, "http://"+addr+"/"), nil)
		var netErr *errs.NetworkError
		if !errors.As(err, &netErr) {
			t.Fatalf("Fetch() error = %v, want NetworkError", err)
		}
		if got := errs.Categorize(err); got != errs.CategoryNetwork {
			t.Errorf("Categorize() = %v, want network-failure", got)
		}
	})

	t.Run("cancellation stays detectable", func(t *testing.T) {
		t.Parallel()

		block := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			<-block
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()
		defer close(block)

		fetcher, err := NewHTTPFetcher()
		if err != nil {
			t.Fatalf("NewHTTPFetcher() error = %v, want nil", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = fetcher.Fetch(ctx, mustParse(t, server.URL+"/"), nil)
		if err == nil {
			t.Fatal("Fetch() error = nil with a cancelled context")
		}
		if got := errs.Categorize(err); got != errs.CategoryCanceled {
			t.Errorf("Categorize() = %v, want canceled", got)
		}
	})
}

func TestHTTPFetcherSchemes(t *testing.T) {
	t.Parallel()

	fetcher, err := NewHTTPFetcher()
	if err != nil {
		t.Fatalf("NewHTTPFetcher() error = %v, want nil", err)
	}

	schemes := fetcher.Schemes()
	if len(schemes) != 2 || schemes[0] != "http" || schemes[1] != "https" {
		t.Errorf("Schemes() = %v, want [http https]", schemes)
	}
}
