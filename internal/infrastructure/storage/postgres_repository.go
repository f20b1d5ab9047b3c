package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"AutoPress/internal/domain"
	"AutoPress/internal/ports"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ArticleRepository persists articles into Postgres.
type ArticleRepository struct {
	db *sql.DB
}

var _ ports.ArticleRepository = (*ArticleRepository)(nil)

// NewArticleRepository wires a sql.DB implementation.
func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// Save upserts the article snapshot and returns its id.
func (r *ArticleRepository) Save(ctx context.Context, article domain.Article) (string, error) {
	if r.db == nil {
		return "", fmt.Errorf("article repository is not connected")
	}
	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	if article.CreatedAt.IsZero() {
		article.CreatedAt = time.Now().UTC()
	}

	query, args, err := psql.Insert("articles").
		Columns("id", "title", "content", "rendered_content", "cover_image",
			"source_url", "author", "images", "tags", "status", "created_at", "published_at").
		Values(article.ID, article.Title, article.Content, article.RenderedContent,
			article.CoverImage, article.SourceURL, article.Author,
			pq.Array(article.Images), pq.Array(article.Tags),
			string(article.Status), article.CreatedAt, article.PublishedAt).
		Suffix(`ON CONFLICT (id) DO UPDATE
                SET title = EXCLUDED.title,
                    content = EXCLUDED.content,
                    rendered_content = EXCLUDED.rendered_content,
                    cover_image = EXCLUDED.cover_image,
                    status = EXCLUDED.status,
                    published_at = EXCLUDED.published_at`).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("upsert article: %w", err)
	}
	return article.ID, nil
}

// FindByID loads one article.
func (r *ArticleRepository) FindByID(ctx context.Context, id string) (domain.Article, error) {
	if r.db == nil {
		return domain.Article{}, fmt.Errorf("article repository is not connected")
	}

	query, args, err := psql.Select("id", "title", "content", "rendered_content",
		"cover_image", "source_url", "author", "images", "tags", "status",
		"created_at", "published_at").
		From("articles").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build select: %w", err)
	}

	var (
		article domain.Article
		status  string
	)
	row := r.db.QueryRowContext(ctx, query, args...)
	err = row.Scan(&article.ID, &article.Title, &article.Content, &article.RenderedContent,
		&article.CoverImage, &article.SourceURL, &article.Author,
		pq.Array(&article.Images), pq.Array(&article.Tags),
		&status, &article.CreatedAt, &article.PublishedAt)
	if err != nil {
		return domain.Article{}, fmt.Errorf("scan article %s: %w", id, err)
	}
	article.Status = domain.ArticleStatus(status)
	return article, nil
}

// UpdateStatus transitions the article state; publishedAt is recorded only
// when provided.
func (r *ArticleRepository) UpdateStatus(ctx context.Context, id string, status domain.ArticleStatus, publishedAt *time.Time) error {
	if r.db == nil {
		return fmt.Errorf("article repository is not connected")
	}

	update := psql.Update("articles").
		Set("status", string(status)).
		Where(sq.Eq{"id": id})
	if publishedAt != nil {
		update = update.Set("published_at", *publishedAt)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update article %s: %w", id, err)
	}
	return nil
}

// ScheduleRepository reads and updates publish schedules.
type ScheduleRepository struct {
	db *sql.DB
}

var _ ports.ScheduleRepository = (*ScheduleRepository)(nil)

// NewScheduleRepository wires a sql.DB implementation.
func NewScheduleRepository(db *sql.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// FindDue returns pending schedules whose scheduled time has passed.
func (r *ScheduleRepository) FindDue(ctx context.Context, now time.Time) ([]domain.PublishSchedule, error) {
	if r.db == nil {
		return nil, fmt.Errorf("schedule repository is not connected")
	}

	query, args, err := psql.Select("id", "article_id", "scheduled_time", "status", "created_at").
		From("publish_schedules").
		Where(sq.LtOrEq{"scheduled_time": now}).
		Where(sq.Eq{"status": string(domain.SchedulePending)}).
		OrderBy("scheduled_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query due schedules: %w", err)
	}
	defer rows.Close()

	var schedules []domain.PublishSchedule
	for rows.Next() {
		var (
			schedule domain.PublishSchedule
			status   string
		)
		if err := rows.Scan(&schedule.ID, &schedule.ArticleID, &schedule.ScheduledTime,
			&status, &schedule.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedule.Status = domain.ScheduleStatus(status)
		schedules = append(schedules, schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return schedules, nil
}

// UpdateStatus records the outcome of a publish attempt for the schedule.
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, id string, status domain.ScheduleStatus) error {
	if r.db == nil {
		return fmt.Errorf("schedule repository is not connected")
	}

	query, args, err := psql.Update("publish_schedules").
		Set("status", string(status)).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update schedule %s: %w", id, err)
	}
	return nil
}
