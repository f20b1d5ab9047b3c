package spider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"AutoPress/internal/crawl"
	"AutoPress/internal/domain"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Blog</title>
    <link>https://example.org</link>
    <item>
      <title>Hello Feed</title>
      <link>https://example.org/posts/hello</link>
      <description>&lt;p&gt;Some &lt;b&gt;markup&lt;/b&gt; in the summary.&lt;/p&gt;</description>
    </item>
    <item>
      <title>Second Entry</title>
      <link>https://example.org/posts/second</link>
      <description>Plain summary text.</description>
    </item>
  </channel>
</rss>`

func TestFeedStrategyProbesWellKnownPaths(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/rss.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFixture)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	strategy := NewFeedStrategy(NewFetcher(server.Client()), nil)

	records, err := strategy.Extract(context.Background(), crawl.Request{
		Locator:  server.URL + "/some/page",
		MaxCount: 10,
	})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.Title != "Hello Feed" {
		t.Fatalf("unexpected title: %q", first.Title)
	}
	if first.Kind != domain.KindFeed {
		t.Fatalf("unexpected kind: %s", first.Kind)
	}
	if strings.Contains(first.Body, "<") {
		t.Fatalf("markup leaked into body: %q", first.Body)
	}
	if !strings.Contains(first.Body, "Some markup in the summary.") {
		t.Fatalf("unexpected body: %q", first.Body)
	}
}

func TestFeedStrategyEmptyProbeIsNotAnError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	strategy := NewFeedStrategy(NewFetcher(server.Client()), nil)

	records, err := strategy.Extract(context.Background(), crawl.Request{
		Locator:  server.URL,
		MaxCount: 5,
	})
	if err != nil {
		t.Fatalf("Extract should not fail on an exhausted probe list: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestFeedStrategyMaxCount(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFixture)
	}))
	defer server.Close()

	strategy := NewFeedStrategy(NewFetcher(server.Client()), nil)

	records, err := strategy.Extract(context.Background(), crawl.Request{
		Locator:  server.URL,
		MaxCount: 1,
	})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected MaxCount to cap results at 1, got %d", len(records))
	}
}
