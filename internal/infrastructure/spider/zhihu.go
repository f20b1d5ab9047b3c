package spider

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"AutoPress/internal/crawl"
	"AutoPress/internal/domain"
)

const (
	zhihuLinkDelay    = 2 * time.Second
	zhihuMaxCandidate = 10
)

// Profile pages refuse plain bot requests, so the strategy sends
// browser-like headers on every fetch.
var zhihuHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
}

var (
	zhihuNameSelectors = []string{
		".ProfileHeader-name",
		"h1.name",
		".title",
	}
	zhihuLinkSelectors = []string{
		`a[href*="/answer/"]`,
		`a[href*="/p/"]`,
		`a[href*="/question/"]`,
	}
	// Long-form posts (/p/) and short-form answers use different markup.
	zhihuPostTitleSelectors = []string{"h1.Post-Title", ".Post-Title", "h1"}
	zhihuPostBodySelectors  = []string{".Post-RichTextContainer", ".RichText", "article"}
	zhihuAnswerTitleSel     = []string{".QuestionHeader-title", "h1", "title"}
	zhihuAnswerBodySel      = []string{".RichContent-inner", ".RichText", ".AnswerCard"}
)

// ZhihuStrategy crawls an author profile page for answers and posts.
type ZhihuStrategy struct {
	fetcher *Fetcher
	delay   time.Duration
	logger  *slog.Logger
}

var _ crawl.Strategy = (*ZhihuStrategy)(nil)

// NewZhihuStrategy wires the shared fetcher; pacing defaults to 2s because
// the platform rate-limits aggressively.
func NewZhihuStrategy(fetcher *Fetcher, logger *slog.Logger) *ZhihuStrategy {
	return &ZhihuStrategy{fetcher: fetcher, delay: zhihuLinkDelay, logger: logger}
}

// Kind identifies the strategy inside the registry.
func (s *ZhihuStrategy) Kind() domain.SourceKind {
	return domain.KindZhihu
}

// Extract fetches the profile, discovers answer/post links, and extracts
// each candidate with shape-specific selector pairs.
func (s *ZhihuStrategy) Extract(ctx context.Context, req crawl.Request) ([]domain.RawContent, error) {
	doc, err := s.fetcher.Document(ctx, req.Locator, zhihuHeaders)
	if err != nil {
		return nil, err
	}

	author := firstText(doc, zhihuNameSelectors, 0)
	links := s.discoverLinks(doc, req.Locator)
	s.debug("profile links discovered", "profile", req.Locator, "author", author, "count", len(links))

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

		rec, err := s.extractEntry(ctx, link, author)
		if err != nil {
			s.debug("entry skipped", "url", link, "error", err)
			continue
		}
		if rec.Title == "" || rec.Body == "" {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

func (s *ZhihuStrategy) discoverLinks(doc *goquery.Document, profileURL string) []string {
	var links []string
	seen := map[string]struct{}{}

	for _, selector := range zhihuLinkSelectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			if len(links) >= zhihuMaxCandidate {
				return
			}
			href, ok := sel.Attr("href")
			if !ok {
				return
			}
			resolved, ok := acceptLink(profileURL, href)
			if !ok {
				return
			}
			if _, dup := seen[resolved]; dup {
				return
			}
			seen[resolved] = struct{}{}
			links = append(links, resolved)
		})
	}
	return links
}

func (s *ZhihuStrategy) extractEntry(ctx context.Context, link, author string) (domain.RawContent, error) {
	doc, err := s.fetcher.Document(ctx, link, zhihuHeaders)
	if err != nil {
		return domain.RawContent{}, err
	}

	titleSelectors, bodySelectors := zhihuAnswerTitleSel, zhihuAnswerBodySel
	if isLongForm(link) {
		titleSelectors, bodySelectors = zhihuPostTitleSelectors, zhihuPostBodySelectors
	}

	title := firstText(doc, titleSelectors, 0)
	var body string
	for _, selector := range bodySelectors {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}
		container.Find("script,style").Remove()
		if text := normalizeText(container.Text()); text != "" {
			body = text
			break
		}
	}

	meta := map[string]string{
		"crawl_time": time.Now().UTC().Format(time.RFC3339),
	}
	if author != "" {
		meta["author"] = author
	}

	return domain.RawContent{
		Title:     title,
		Body:      body,
		SourceURL: link,
		Kind:      domain.KindZhihu,
		Meta:      meta,
	}, nil
}

// isLongForm reports whether the link points at a column post rather than
// a question answer.
func isLongForm(link string) bool {
	parsed, err := url.Parse(link)
	if err != nil {
		return false
	}
	return strings.Contains(parsed.Path, "/p/")
}

func (s *ZhihuStrategy) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
