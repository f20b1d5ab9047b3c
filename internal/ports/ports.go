package ports

import (
	"context"
	"time"

	"AutoPress/internal/domain"
)

// ContentSource acquires raw material from a source locator.
type ContentSource interface {
	Acquire(ctx context.Context, locator string, kind domain.SourceKind, max int) ([]domain.RawContent, error)
}

// CompletionBackend is one generative text service in the rewrite chain.
// An error means the backend failed; an empty string with a nil error is a
// degenerate but valid completion.
type CompletionBackend interface {
	Name() string
	Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error)
}

// Rewriter restyles raw records into drafts. Both operations are total:
// every record yields exactly one draft.
type Rewriter interface {
	RewriteOne(ctx context.Context, rec domain.RawContent, style string) domain.Draft
	RewriteBatch(ctx context.Context, recs []domain.RawContent, style string) []domain.Draft
}

// Generator creates a draft from a bare topic. Unlike the rewrite
// operations it is fallible: with no usable backend there is no source
// material to degrade to.
type Generator interface {
	GenerateOne(ctx context.Context, topic, style string) (domain.Draft, error)
}

// ArticleRepository persists articles and their status transitions.
type ArticleRepository interface {
	Save(ctx context.Context, article domain.Article) (string, error)
	FindByID(ctx context.Context, id string) (domain.Article, error)
	UpdateStatus(ctx context.Context, id string, status domain.ArticleStatus, publishedAt *time.Time) error
}

// ScheduleRepository reads and updates publish schedules.
type ScheduleRepository interface {
	FindDue(ctx context.Context, now time.Time) ([]domain.PublishSchedule, error)
	UpdateStatus(ctx context.Context, id string, status domain.ScheduleStatus) error
}

// Publisher pushes an approved article to the remote platform. Status
// transitions stay with the caller; the publisher only reports the outcome.
type Publisher interface {
	Publish(ctx context.Context, article domain.Article) domain.PublishResult
}

// Scheduler controls when pipeline jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
