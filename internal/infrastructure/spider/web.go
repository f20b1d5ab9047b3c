package spider

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"AutoPress/internal/crawl"
	"AutoPress/internal/domain"
)

const (
	webLinkDelay = 1 * time.Second
	minTitleLen  = 5
	minBodyLen   = 100
)

// Ordered selector tables; the first selector producing an acceptable result
// wins. New site shapes are supported by appending entries, not by branching.
var (
	webLinkSelectors = []string{
		"article a[href]",
		"h2 a[href]",
		"h3 a[href]",
		".post-title a[href]",
		".entry-title a[href]",
		"a.post-link[href]",
	}
	webTitleSelectors = []string{
		"h1",
		".post-title",
		".entry-title",
		".article-title",
		"title",
	}
	webBodySelectors = []string{
		"article",
		".post-content",
		".entry-content",
		".article-content",
		".rich_media_content",
		"#content",
		"main",
	}
	skippedExtensions = []string{
		".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg",
		".pdf", ".doc", ".docx", ".zip", ".rar",
	}
	skippedPathMarks = []string{"/tag/", "/category/", "/author/"}
)

// WebStrategy is the generic two-phase crawl: discover candidate article
// links on a listing page, then extract title and body per link.
type WebStrategy struct {
	fetcher *Fetcher
	delay   time.Duration
	logger  *slog.Logger
}

var _ crawl.Strategy = (*WebStrategy)(nil)

// NewWebStrategy wires the shared fetcher; inter-link pacing defaults to 1s.
func NewWebStrategy(fetcher *Fetcher, logger *slog.Logger) *WebStrategy {
	return &WebStrategy{fetcher: fetcher, delay: webLinkDelay, logger: logger}
}

// Kind identifies the strategy inside the registry.
func (s *WebStrategy) Kind() domain.SourceKind {
	return domain.KindWeb
}

// Extract fetches the listing page, discovers article links, then extracts
// each candidate. Per-link failures are logged and skipped.
func (s *WebStrategy) Extract(ctx context.Context, req crawl.Request) ([]domain.RawContent, error) {
	doc, err := s.fetcher.Document(ctx, req.Locator, nil)
	if err != nil {
		return nil, err
	}

	links := discoverLinks(doc, req.Locator)
	s.debug("links discovered", "page", req.Locator, "count", len(links))

	records := make([]domain.RawContent, 0, len(links))
	for i, link := range links {
		if req.MaxCount > 0 && len(records) >= req.MaxCount {
			break
		}
		if i > 0 {
			if err := pause(ctx, s.delay); err != nil {
				return records, err
			}
		}

		rec, err := s.extractArticle(ctx, link)
		if err != nil {
			s.debug("article skipped", "url", link, "error", err)
			continue
		}
		if rec.Title == "" || rec.Body == "" {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

func (s *WebStrategy) extractArticle(ctx context.Context, link string) (domain.RawContent, error) {
	doc, err := s.fetcher.Document(ctx, link, nil)
	if err != nil {
		return domain.RawContent{}, err
	}

	title := firstText(doc, webTitleSelectors, minTitleLen)
	body := extractBody(doc)

	return domain.RawContent{
		Title:     title,
		Body:      body,
		SourceURL: link,
		Kind:      domain.KindWeb,
		Meta: map[string]string{
			"crawl_time": time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// discoverLinks applies the selector table in order and keeps the first
// selector that yields at least one article-shaped candidate.
func discoverLinks(doc *goquery.Document, pageURL string) []string {
	for _, selector := range webLinkSelectors {
		var links []string
		seen := map[string]struct{}{}

		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			href, ok := sel.Attr("href")
			if !ok {
				return
			}
			resolved, ok := acceptLink(pageURL, href)
			if !ok {
				return
			}
			if _, dup := seen[resolved]; dup {
				return
			}
			seen[resolved] = struct{}{}
			links = append(links, resolved)
		})

		if len(links) > 0 {
			return links
		}
	}
	return nil
}

// acceptLink resolves a candidate href against the page URL and rejects
// non-article shapes: binary/document extensions, index paths, fragments,
// and pseudo-URL schemes.
func acceptLink(pageURL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.Contains(href, "#") {
		return "", false
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") {
		return "", false
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}

	path := strings.ToLower(resolved.Path)
	for _, ext := range skippedExtensions {
		if strings.HasSuffix(path, ext) {
			return "", false
		}
	}
	for _, mark := range skippedPathMarks {
		if strings.Contains(path, mark) {
			return "", false
		}
	}

	return resolved.String(), true
}

// firstText walks the selector table and returns the first non-empty text
// longer than min characters.
func firstText(doc *goquery.Document, selectors []string, min int) string {
	for _, selector := range selectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if utf8.RuneCountInString(text) > min {
			return normalizeText(text)
		}
	}
	return ""
}

// extractBody tries the content-container selectors and falls back to the
// whole page text when none produces enough material.
func extractBody(doc *goquery.Document) string {
	for _, selector := range webBodySelectors {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}
		container.Find("script,style").Remove()
		text := normalizeText(container.Text())
		if utf8.RuneCountInString(text) > minBodyLen {
			return text
		}
	}

	doc.Find("script,style").Remove()
	return normalizeText(doc.Find("body").Text())
}

// pause sleeps for the pacing delay unless the context ends first.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *WebStrategy) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
