package spider

import (
	"context"
	"fmt"
	"log/slog"

	"AutoPress/internal/crawl"
	"AutoPress/internal/domain"
	"AutoPress/internal/ports"
)

// Acquirer implements ports.ContentSource on top of the strategy registry:
// it classifies the locator when asked, dispatches to the matching strategy,
// drops records below the content threshold, and dedups by URL within the
// batch. A feed probe that finds nothing stays empty instead of silently
// degrading to the web crawl; callers re-invoke with an explicit kind.
type Acquirer struct {
	registry *crawl.Registry
	logger   *slog.Logger
}

var _ ports.ContentSource = (*Acquirer)(nil)

// NewAcquirer wires the strategy registry.
func NewAcquirer(registry *crawl.Registry, logger *slog.Logger) *Acquirer {
	return &Acquirer{registry: registry, logger: logger}
}

// Acquire runs one extraction batch for a locator.
func (a *Acquirer) Acquire(ctx context.Context, locator string, kind domain.SourceKind, max int) ([]domain.RawContent, error) {
	if a.registry == nil {
		return nil, fmt.Errorf("strategy registry is not configured")
	}
	if kind == "" || kind == domain.KindAuto {
		kind = crawl.Detect(locator)
	}

	strategy, err := a.registry.Resolve(kind)
	if err != nil {
		return nil, fmt.Errorf("locator %s: %w", locator, err)
	}

	a.debug("acquire", "locator", locator, "kind", kind, "max", max)

	records, err := strategy.Extract(ctx, crawl.Request{Locator: locator, MaxCount: max})
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", locator, err)
	}

	seen := map[string]struct{}{}
	kept := make([]domain.RawContent, 0, len(records))
	for _, rec := range records {
		if !rec.Valid() {
			a.debug("record below content threshold", "url", rec.SourceURL)
			continue
		}
		if _, dup := seen[rec.SourceURL]; dup {
			continue
		}
		seen[rec.SourceURL] = struct{}{}
		if max > 0 && len(kept) >= max {
			break
		}
		kept = append(kept, rec)
	}

	a.debug("acquire done", "locator", locator, "records", len(kept))
	return kept, nil
}

func (a *Acquirer) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
