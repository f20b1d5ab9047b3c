package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"AutoPress/internal/config"
	"AutoPress/internal/domain"
	"AutoPress/internal/ports"
)

// defaultMaxArticles caps a crawl source that sets no limit of its own.
const defaultMaxArticles = 5

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source      ports.ContentSource
	Rewriter    ports.Rewriter
	Generator   ports.Generator
	Articles    ports.ArticleRepository
	Schedules   ports.ScheduleRepository
	Publisher   ports.Publisher
	Sources     []config.SourceConfig
	Style       string
	MaxArticles int
	Generation  config.GeneratorConfig
	Logger      *slog.Logger
}

// Pipeline implements the two content workflows: acquisition-plus-rewrite
// into drafts, and publishing of due, approved articles.
type Pipeline struct {
	source      ports.ContentSource
	rewriter    ports.Rewriter
	generator   ports.Generator
	articles    ports.ArticleRepository
	schedules   ports.ScheduleRepository
	publisher   ports.Publisher
	sources     []config.SourceConfig
	style       string
	maxArticles int
	generation  config.GeneratorConfig
	logger      *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	style := deps.Style
	if style == "" {
		style = "creative"
	}
	maxArticles := deps.MaxArticles
	if maxArticles <= 0 {
		maxArticles = defaultMaxArticles
	}
	return &Pipeline{
		source:      deps.Source,
		rewriter:    deps.Rewriter,
		generator:   deps.Generator,
		articles:    deps.Articles,
		schedules:   deps.Schedules,
		publisher:   deps.Publisher,
		sources:     deps.Sources,
		style:       style,
		maxArticles: maxArticles,
		generation:  deps.Generation,
		logger:      deps.Logger,
	}
}

// CrawlAndDraft acquires all configured sources, rewrites the records, and
// persists them as drafts. A source or persistence failure is logged and
// skipped; it never aborts the batch.
func (p *Pipeline) CrawlAndDraft(ctx context.Context) error {
	if p.source == nil || p.rewriter == nil {
		return fmt.Errorf("pipeline is missing source or rewriter")
	}

	saved := 0
	for _, src := range p.sources {
		kind := domain.SourceKind(src.Kind)
		if kind == "" {
			kind = domain.KindAuto
		}
		max := src.MaxArticles
		if max <= 0 {
			max = p.maxArticles
		}

		records, err := p.source.Acquire(ctx, src.URL, kind, max)
		if err != nil {
			p.logError("acquire failed", "source", src.Name, "error", err)
			continue
		}
		if len(records) == 0 {
			p.logInfo("source yielded nothing", "source", src.Name)
			continue
		}

		drafts := p.rewriter.RewriteBatch(ctx, records, p.style)
		for _, draft := range drafts {
			article := articleFromDraft(draft)
			if p.articles == nil {
				continue
			}
			if _, err := p.articles.Save(ctx, article); err != nil {
				p.logError("persist draft failed", "title", article.Title, "error", err)
				continue
			}
			saved++
		}
	}

	p.logInfo("crawl run finished", "drafts", saved)
	return nil
}

// GenerateDrafts creates one draft per configured topic, capped at the
// configured batch size, and persists them. A topic whose generation or
// persistence fails is logged and skipped.
func (p *Pipeline) GenerateDrafts(ctx context.Context) error {
	if p.generator == nil {
		return fmt.Errorf("pipeline is missing generator")
	}

	topics := p.generation.Topics
	if limit := p.generation.MaxArticles; limit > 0 && len(topics) > limit {
		topics = topics[:limit]
	}

	saved := 0
	for _, topic := range topics {
		draft, err := p.generator.GenerateOne(ctx, topic, p.generation.Style)
		if err != nil {
			p.logError("topic generation failed", "topic", topic, "error", err)
			continue
		}
		if p.articles == nil {
			continue
		}
		if _, err := p.articles.Save(ctx, articleFromDraft(draft)); err != nil {
			p.logError("persist generated draft failed", "title", draft.Title, "error", err)
			continue
		}
		saved++
	}

	p.logInfo("generation run finished", "drafts", saved)
	return nil
}

// PublishDue scans for due pending schedules and publishes the linked
// articles when they are approved. Draft articles are left untouched; a
// failed publish marks the schedule failed and leaves the article approved
// for a later retry.
func (p *Pipeline) PublishDue(ctx context.Context, now time.Time) error {
	if p.schedules == nil || p.articles == nil || p.publisher == nil {
		return fmt.Errorf("pipeline is missing publish dependencies")
	}

	schedules, err := p.schedules.FindDue(ctx, now)
	if err != nil {
		return fmt.Errorf("find due schedules: %w", err)
	}

	for _, schedule := range schedules {
		article, err := p.articles.FindByID(ctx, schedule.ArticleID)
		if err != nil {
			p.logError("load scheduled article failed", "article", schedule.ArticleID, "error", err)
			continue
		}
		if article.Status != domain.StatusApproved {
			p.logInfo("skipping unapproved article", "article", article.ID, "status", article.Status)
			continue
		}

		result := p.publisher.Publish(ctx, article)
		if result.Success {
			publishedAt := now
			if err := p.articles.UpdateStatus(ctx, article.ID, domain.StatusPublished, &publishedAt); err != nil {
				p.logError("mark article published failed", "article", article.ID, "error", err)
			}
			if err := p.schedules.UpdateStatus(ctx, schedule.ID, domain.ScheduleCompleted); err != nil {
				p.logError("mark schedule completed failed", "schedule", schedule.ID, "error", err)
			}
			p.logInfo("article published", "article", article.ID, "msg_id", result.MsgID)
		} else {
			if err := p.schedules.UpdateStatus(ctx, schedule.ID, domain.ScheduleFailed); err != nil {
				p.logError("mark schedule failed failed", "schedule", schedule.ID, "error", err)
			}
			p.logError("publish failed", "article", article.ID, "message", result.Message)
		}
	}

	return nil
}

func articleFromDraft(draft domain.Draft) domain.Article {
	article := domain.Article{
		Title:     draft.Title,
		Content:   draft.Body,
		Tags:      draft.Tags,
		Status:    domain.StatusDraft,
		CreatedAt: time.Now().UTC(),
	}
	if draft.Source != nil {
		article.SourceURL = draft.Source.SourceURL
		article.Images = draft.Source.Images
		article.Author = draft.Source.Meta["author"]
		if len(draft.Source.Images) > 0 {
			article.CoverImage = draft.Source.Images[0]
		}
	}
	return article
}

func (p *Pipeline) logInfo(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) logError(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Error(msg, args...)
	}
}
