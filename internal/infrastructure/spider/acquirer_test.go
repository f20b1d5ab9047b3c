package spider

import (
	"context"
	"strings"
	"testing"

	"AutoPress/internal/crawl"
	"AutoPress/internal/domain"
)

type fixedStrategy struct {
	kind    domain.SourceKind
	records []domain.RawContent
}

func (s fixedStrategy) Kind() domain.SourceKind { return s.kind }

func (s fixedStrategy) Extract(context.Context, crawl.Request) ([]domain.RawContent, error) {
	return s.records, nil
}

func TestAcquirerDropsInvalidAndDuplicateRecords(t *testing.T) {
	t.Parallel()

	longBody := strings.Repeat("x", domain.MinBodyLength)
	registry := crawl.NewRegistry()
	registry.Register(fixedStrategy{
		kind: domain.KindWeb,
		records: []domain.RawContent{
			{Title: "Keep Me", Body: "short", SourceURL: "https://a.example/1"},
			{Title: "", Body: "too short", SourceURL: "https://a.example/2"},
			{Title: "", Body: longBody, SourceURL: "https://a.example/3"},
			{Title: "Keep Me", Body: "short", SourceURL: "https://a.example/1"},
		},
	})

	acquirer := NewAcquirer(registry, nil)
	records, err := acquirer.Acquire(context.Background(), "https://a.example", domain.KindWeb, 10)
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records after filtering, got %d", len(records))
	}
	for _, rec := range records {
		if !rec.Valid() {
			t.Fatalf("invalid record leaked: %+v", rec)
		}
	}
	if records[0].SourceURL != "https://a.example/1" || records[1].SourceURL != "https://a.example/3" {
		t.Fatalf("unexpected order: %s, %s", records[0].SourceURL, records[1].SourceURL)
	}
}

func TestAcquirerAutoClassification(t *testing.T) {
	t.Parallel()

	registry := crawl.NewRegistry()
	registry.Register(fixedStrategy{
		kind:    domain.KindWeChat,
		records: []domain.RawContent{{Title: "平台文章", SourceURL: "https://mp.weixin.qq.com/s/abc"}},
	})

	acquirer := NewAcquirer(registry, nil)
	records, err := acquirer.Acquire(context.Background(), "https://mp.weixin.qq.com/s/abc", domain.KindAuto, 5)
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}

func TestAcquirerUnknownKind(t *testing.T) {
	t.Parallel()

	acquirer := NewAcquirer(crawl.NewRegistry(), nil)
	if _, err := acquirer.Acquire(context.Background(), "https://example.org", domain.KindFeed, 5); err == nil {
		t.Fatalf("expected error for unregistered strategy")
	}
}
