package spider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"AutoPress/internal/crawl"
)

func TestZhihuStrategyExtract(t *testing.T) {
	t.Parallel()

	answerBody := strings.Repeat("这是回答的正文内容。", 10)
	postBody := strings.Repeat("这是专栏文章的正文内容。", 10)

	mux := http.NewServeMux()
	mux.HandleFunc("/people/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
		<div class="ProfileHeader-name">答主小王</div>
		<a href="/question/100/answer/200">回答一</a>
		<a href="/question/100/answer/200">重复链接</a>
		<a href="/p/300">专栏文章</a>
		</body></html>`)
	})
	mux.HandleFunc("/question/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>
		<h1 class="QuestionHeader-title">如何学习围棋？</h1>
		<div class="RichContent-inner">%s</div>
		</body></html>`, answerBody)
	})
	mux.HandleFunc("/p/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>
		<h1 class="Post-Title">围棋入门指南</h1>
		<div class="Post-RichTextContainer">%s</div>
		</body></html>`, postBody)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	strategy := NewZhihuStrategy(NewFetcher(server.Client()), nil)
	strategy.delay = 0

	records, err := strategy.Extract(context.Background(), crawl.Request{
		Locator:  server.URL + "/people/xiaowang",
		MaxCount: 10,
	})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records after dedup, got %d", len(records))
	}

	answer := records[0]
	if answer.Title != "如何学习围棋？" {
		t.Fatalf("unexpected answer title: %q", answer.Title)
	}
	if answer.Meta["author"] != "答主小王" {
		t.Fatalf("author lost: %v", answer.Meta)
	}

	post := records[1]
	if post.Title != "围棋入门指南" {
		t.Fatalf("unexpected post title: %q", post.Title)
	}
	if !strings.Contains(post.Body, "专栏文章的正文") {
		t.Fatalf("unexpected post body: %q", post.Body)
	}
}
