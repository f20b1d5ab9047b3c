package spider

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"AutoPress/internal/crawl"
	"AutoPress/internal/domain"
)

// WeChatStrategy extracts a single mp.weixin.qq.com article page. The
// platform serves one article per locator, so the result is at most one
// record regardless of MaxCount.
type WeChatStrategy struct {
	fetcher *Fetcher
	logger  *slog.Logger
}

var _ crawl.Strategy = (*WeChatStrategy)(nil)

// NewWeChatStrategy wires the shared fetcher.
func NewWeChatStrategy(fetcher *Fetcher, logger *slog.Logger) *WeChatStrategy {
	return &WeChatStrategy{fetcher: fetcher, logger: logger}
}

// Kind identifies the strategy inside the registry.
func (s *WeChatStrategy) Kind() domain.SourceKind {
	return domain.KindWeChat
}

// Extract pulls title, body text, images, and meta from the article page.
func (s *WeChatStrategy) Extract(ctx context.Context, req crawl.Request) ([]domain.RawContent, error) {
	doc, err := s.fetcher.Document(ctx, req.Locator, nil)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(doc.Find("h1.rich_media_title").First().Text())

	content := doc.Find("#js_content").First()
	if content.Length() == 0 {
		content = doc.Find(".rich_media_content").First()
	}
	if content.Length() == 0 {
		s.debug("no article container", "url", req.Locator)
		return nil, nil
	}
	content.Find("script,style").Remove()
	body := normalizeText(content.Text())

	var images []string
	content.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("data-src")
		if !ok || src == "" {
			src, _ = img.Attr("src")
		}
		if src != "" {
			images = append(images, src)
		}
	})

	meta := map[string]string{
		"crawl_time": time.Now().UTC().Format(time.RFC3339),
	}
	if author := strings.TrimSpace(doc.Find("span.rich_media_meta_text").First().Text()); author != "" {
		meta["author"] = author
	}
	if published := strings.TrimSpace(doc.Find("em#publish_time").First().Text()); published != "" {
		meta["publish_time"] = published
	}

	return []domain.RawContent{{
		Title:     title,
		Body:      body,
		SourceURL: req.Locator,
		Kind:      domain.KindWeChat,
		Images:    images,
		Meta:      meta,
	}}, nil
}

func (s *WeChatStrategy) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
