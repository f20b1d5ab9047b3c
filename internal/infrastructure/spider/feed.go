package spider

import (
	"context"
	"html"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"AutoPress/internal/crawl"
	"AutoPress/internal/domain"
)

// feedProbePaths are tried in order against the locator origin. The locator
// itself is probed first in case it already points at a feed document.
var feedProbePaths = []string{
	"/feed",
	"/rss",
	"/atom.xml",
	"/rss.xml",
	"/index.xml",
	"/feed.xml",
}

// FeedStrategy discovers a site feed by probing well-known paths and maps
// its entries to raw content records. It never falls back to the generic
// web crawl; an exhausted probe list is an empty, non-error result.
type FeedStrategy struct {
	fetcher *Fetcher
	parser  *gofeed.Parser
	strip   *bluemonday.Policy
	logger  *slog.Logger
}

var _ crawl.Strategy = (*FeedStrategy)(nil)

// NewFeedStrategy wires the fetcher with a feed parser and tag stripper.
func NewFeedStrategy(fetcher *Fetcher, logger *slog.Logger) *FeedStrategy {
	return &FeedStrategy{
		fetcher: fetcher,
		parser:  gofeed.NewParser(),
		strip:   bluemonday.StrictPolicy(),
		logger:  logger,
	}
}

// Kind identifies the strategy inside the registry.
func (s *FeedStrategy) Kind() domain.SourceKind {
	return domain.KindFeed
}

// Extract probes feed paths and converts the first parseable non-empty feed.
func (s *FeedStrategy) Extract(ctx context.Context, req crawl.Request) ([]domain.RawContent, error) {
	feed := s.probe(ctx, req.Locator)
	if feed == nil {
		return nil, nil
	}

	crawledAt := time.Now().UTC().Format(time.RFC3339)
	records := make([]domain.RawContent, 0, len(feed.Items))
	for _, item := range feed.Items {
		if req.MaxCount > 0 && len(records) >= req.MaxCount {
			break
		}

		body := item.Content
		if strings.TrimSpace(body) == "" {
			body = item.Description
		}
		body = normalizeText(html.UnescapeString(s.strip.Sanitize(body)))

		meta := map[string]string{"crawl_time": crawledAt}
		if item.Author != nil && item.Author.Name != "" {
			meta["author"] = item.Author.Name
		}
		if item.Published != "" {
			meta["publish_time"] = item.Published
		}

		var images []string
		if item.Image != nil && item.Image.URL != "" {
			images = append(images, item.Image.URL)
		}

		records = append(records, domain.RawContent{
			Title:     strings.TrimSpace(item.Title),
			Body:      body,
			SourceURL: item.Link,
			Kind:      domain.KindFeed,
			Images:    images,
			Meta:      meta,
		})
	}

	return records, nil
}

func (s *FeedStrategy) probe(ctx context.Context, locator string) *gofeed.Feed {
	for _, candidate := range s.candidates(locator) {
		raw, _, err := s.fetcher.Raw(ctx, candidate, nil)
		if err != nil {
			s.debug("feed probe failed", "url", candidate, "error", err)
			continue
		}

		feed, err := s.parser.ParseString(string(raw))
		if err != nil || feed == nil || len(feed.Items) == 0 {
			s.debug("feed probe not parseable", "url", candidate)
			continue
		}

		s.debug("feed found", "url", candidate, "items", len(feed.Items))
		return feed
	}
	return nil
}

func (s *FeedStrategy) candidates(locator string) []string {
	out := []string{locator}
	parsed, err := url.Parse(locator)
	if err != nil || parsed.Host == "" {
		return out
	}

	origin := parsed.Scheme + "://" + parsed.Host
	for _, path := range feedProbePaths {
		candidate := origin + path
		if candidate != locator {
			out = append(out, candidate)
		}
	}
	return out
}

func (s *FeedStrategy) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
