package spider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"AutoPress/internal/crawl"
)

func TestAcceptLinkFiltering(t *testing.T) {
	t.Parallel()

	page := "https://example.org/blog/"
	rejected := []string{
		"/images/pic.jpg",
		"/files/report.PDF",
		"/tag/golang/",
		"/category/tech/post",
		"/author/alice/",
		"/post/1#comments",
		"javascript:void(0)",
		"mailto:hi@example.org",
		"",
	}
	for _, href := range rejected {
		if resolved, ok := acceptLink(page, href); ok {
			t.Fatalf("acceptLink(%q) accepted as %q, want rejected", href, resolved)
		}
	}

	resolved, ok := acceptLink(page, "../posts/hello-world")
	if !ok {
		t.Fatalf("acceptLink rejected a relative article link")
	}
	if resolved != "https://example.org/posts/hello-world" {
		t.Fatalf("unexpected resolution: %s", resolved)
	}
}

func TestSelectorThresholdsCountRunes(t *testing.T) {
	t.Parallel()

	// 34 characters: longer than the body floor in bytes, shorter in runes.
	shortBody := strings.Repeat("中文", 17)
	longBody := strings.Repeat("这是足够长的中文正文内容。", 20)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<html><body><h1>短标题</h1><article>` + shortBody +
			`</article><div id="content">` + longBody + `</div></body></html>`))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}

	if got := firstText(doc, webTitleSelectors, minTitleLen); got != "" {
		t.Fatalf("a title below the character floor must be rejected, got %q", got)
	}
	if got := extractBody(doc); !strings.Contains(got, "足够长的中文正文") {
		t.Fatalf("a body below the character floor must not win the container scan, got %q", got)
	}
}

func TestWebStrategyExtract(t *testing.T) {
	t.Parallel()

	longBody := strings.Repeat("这是一段足够长的正文内容，用于通过正文长度检查。", 20)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
		<article><h2><a href="/posts/first">First Post</a></h2></article>
		<article><h2><a href="/posts/second">Second Post</a></h2></article>
		<article><h2><a href="/tag/skip-me">Tag Index</a></h2></article>
		<article><h2><a href="/images/cover.png">Image</a></h2></article>
		</body></html>`)
	})
	mux.HandleFunc("/posts/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>
		<h1>Post at %s</h1>
		<article>%s</article>
		</body></html>`, r.URL.Path, longBody)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	strategy := NewWebStrategy(NewFetcher(server.Client()), nil)
	strategy.delay = 0

	records, err := strategy.Extract(context.Background(), crawl.Request{
		Locator:  server.URL + "/",
		MaxCount: 5,
	})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, rec := range records {
		if !strings.HasPrefix(rec.Title, "Post at /posts/") {
			t.Fatalf("unexpected title: %q", rec.Title)
		}
		if utf8.RuneCountInString(rec.Body) <= minBodyLen {
			t.Fatalf("body too short: %d", utf8.RuneCountInString(rec.Body))
		}
		if strings.Contains(rec.SourceURL, "/tag/") || strings.Contains(rec.SourceURL, ".png") {
			t.Fatalf("filtered link leaked into results: %s", rec.SourceURL)
		}
	}
}

func TestWebStrategyMaxCount(t *testing.T) {
	t.Parallel()

	longBody := strings.Repeat("enough body text to pass the threshold. ", 10)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
		<h2><a href="/posts/a">A</a></h2>
		<h2><a href="/posts/b">B</a></h2>
		<h2><a href="/posts/c">C</a></h2>
		</body></html>`)
	})
	mux.HandleFunc("/posts/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><h1>Title %s</h1><article>%s</article></body></html>`, r.URL.Path, longBody)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	strategy := NewWebStrategy(NewFetcher(server.Client()), nil)
	strategy.delay = 0

	records, err := strategy.Extract(context.Background(), crawl.Request{
		Locator:  server.URL + "/",
		MaxCount: 2,
	})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected MaxCount to cap results at 2, got %d", len(records))
	}
}
