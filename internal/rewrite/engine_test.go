package rewrite

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"AutoPress/internal/domain"
	"AutoPress/internal/ports"
)

type scriptedBackend struct {
	name  string
	out   string
	err   error
	calls int
}

func (b *scriptedBackend) Name() string { return b.name }

func (b *scriptedBackend) Complete(context.Context, string, string, int, float64) (string, error) {
	b.calls++
	return b.out, b.err
}

func sampleRecord() domain.RawContent {
	return domain.RawContent{
		Title:     "原始标题",
		Body:      "第一段内容。\n第二段内容。\n第三段内容。\n第四段内容。",
		SourceURL: "https://example.org/post",
	}
}

func TestRewriteBatchTotalityWithoutBackends(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil, nil)
	engine.pause = 0

	records := []domain.RawContent{sampleRecord(), sampleRecord(), sampleRecord()}
	drafts := engine.RewriteBatch(context.Background(), records, "creative")

	if len(drafts) != len(records) {
		t.Fatalf("expected %d drafts, got %d", len(records), len(drafts))
	}
	for i, draft := range drafts {
		if draft.Rewritten {
			t.Fatalf("draft %d marked rewritten without any backend", i)
		}
		if draft.Body == "" {
			t.Fatalf("draft %d has empty body", i)
		}
		if draft.Source == nil || draft.Source.SourceURL != records[i].SourceURL {
			t.Fatalf("draft %d lost its source back-reference", i)
		}
	}
}

func TestRewriteOneFallsThroughFailedBackends(t *testing.T) {
	t.Parallel()

	primary := &scriptedBackend{name: "primary", err: fmt.Errorf("unavailable")}
	secondary := &scriptedBackend{name: "secondary", out: "标题：改写后的标题\n改写后的正文，内容充实。"}

	engine := NewEngine([]ports.CompletionBackend{primary, secondary}, nil)
	draft := engine.RewriteOne(context.Background(), sampleRecord(), "creative")

	if primary.calls != 1 || secondary.calls != 1 {
		t.Fatalf("expected both backends tried, got %d/%d", primary.calls, secondary.calls)
	}
	if !draft.Rewritten {
		t.Fatalf("draft should be marked rewritten")
	}
	if draft.Title != "改写后的标题" {
		t.Fatalf("unexpected title: %q", draft.Title)
	}
	if !strings.Contains(draft.Body, "改写后的正文") {
		t.Fatalf("unexpected body: %q", draft.Body)
	}
}

func TestRewriteOneTreatsEmptyCompletionAsFailure(t *testing.T) {
	t.Parallel()

	empty := &scriptedBackend{name: "empty", out: "   \n"}
	engine := NewEngine([]ports.CompletionBackend{empty}, nil)

	draft := engine.RewriteOne(context.Background(), sampleRecord(), "creative")
	if draft.Rewritten {
		t.Fatalf("empty completion must degrade to the local formatter")
	}
	if draft.Body == "" {
		t.Fatalf("fallback body must not be empty")
	}
}

func TestFallbackPreservesBodyAsContiguousSubstring(t *testing.T) {
	t.Parallel()

	formatter := NewFormatter()
	rec := sampleRecord()

	for i := 0; i < 3; i++ {
		title, body := formatter.Format(rec)
		if title == "" {
			t.Fatalf("fallback title must not be empty")
		}
		if !strings.Contains(body, rec.Body) {
			t.Fatalf("original body lost from fallback output:\n%s", body)
		}
	}
}

func TestFallbackTruncatesOverlongTitle(t *testing.T) {
	t.Parallel()

	formatter := NewFormatter()
	rec := sampleRecord()
	rec.Title = strings.Repeat("长", 120)

	title, _ := formatter.Format(rec)
	if !strings.HasSuffix(title, "…") {
		t.Fatalf("overlong title should be truncated with an ellipsis: %q", title)
	}
}

func TestParseCompletion(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		input     string
		wantTitle string
		wantBody  string
	}{
		{
			name:      "labeled chinese title",
			input:     "标题：人工智能的未来\n正文第一段。\n正文第二段。",
			wantTitle: "人工智能的未来",
			wantBody:  "正文第一段。\n正文第二段。",
		},
		{
			name:      "labeled english headline",
			input:     "Headline: The Future of AI\nBody paragraph one.",
			wantTitle: "The Future of AI",
			wantBody:  "Body paragraph one.",
		},
		{
			name:      "promoted short first line",
			input:     "一个简短的标题\n" + strings.Repeat("这一行非常长，显然是正文而不是标题。", 10),
			wantTitle: "一个简短的标题",
			wantBody:  strings.Repeat("这一行非常长，显然是正文而不是标题。", 10),
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			title, body := ParseCompletion(tc.input)
			if title != tc.wantTitle {
				t.Fatalf("title = %q, want %q", title, tc.wantTitle)
			}
			if body != tc.wantBody {
				t.Fatalf("body = %q, want %q", body, tc.wantBody)
			}
		})
	}
}

func TestParseCompletionUnparsable(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("全部都是没有任何标题标记的长正文内容。", 20)
	input := long + "\n" + long

	title, body := ParseCompletion(input)
	if title != placeholderTitle {
		t.Fatalf("expected placeholder title, got %q", title)
	}
	if body != input {
		t.Fatalf("unparsable input must come back verbatim as body")
	}
}
