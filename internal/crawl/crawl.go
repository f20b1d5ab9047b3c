package crawl

import (
	"context"
	"fmt"
	"strings"

	"AutoPress/internal/domain"
)

// platformTable maps disjoint domain fragments to their dedicated strategy.
// Feed is never auto-detected; callers request it explicitly.
var platformTable = []struct {
	fragment string
	kind     domain.SourceKind
}{
	{"mp.weixin.qq.com", domain.KindWeChat},
	{"zhihu.com", domain.KindZhihu},
}

// Detect classifies a locator into a source kind. It is total: locators
// matching no known platform fragment fall back to the generic web crawl.
func Detect(locator string) domain.SourceKind {
	for _, entry := range platformTable {
		if strings.Contains(locator, entry.fragment) {
			return entry.kind
		}
	}
	return domain.KindWeb
}

// Request carries all parameters required to execute one extraction run.
type Request struct {
	Locator  string
	MaxCount int
}

// Strategy captures a single extraction algorithm keyed by source kind.
type Strategy interface {
	Kind() domain.SourceKind
	Extract(ctx context.Context, req Request) ([]domain.RawContent, error)
}

// Registry keeps a mapping from source kinds to their implementations.
type Registry struct {
	strategies map[domain.SourceKind]Strategy
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: map[domain.SourceKind]Strategy{}}
}

// Register adds or replaces a strategy implementation.
func (r *Registry) Register(strategy Strategy) {
	if r.strategies == nil {
		r.strategies = map[domain.SourceKind]Strategy{}
	}
	r.strategies[strategy.Kind()] = strategy
}

// Resolve returns a strategy by kind or an error if it is absent.
func (r *Registry) Resolve(kind domain.SourceKind) (Strategy, error) {
	if strategy, ok := r.strategies[kind]; ok {
		return strategy, nil
	}
	return nil, fmt.Errorf("no strategy registered for kind %s", kind)
}
