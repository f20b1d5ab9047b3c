package domain

import (
	"time"
	"unicode/utf8"
)

// SourceKind selects the acquisition strategy for a content locator.
type SourceKind string

const (
	// KindAuto asks the acquirer to classify the locator itself.
	KindAuto SourceKind = "auto"
	// KindFeed probes well-known RSS/Atom paths under the locator origin.
	KindFeed SourceKind = "feed"
	// KindWeChat extracts a single mp.weixin.qq.com article page.
	KindWeChat SourceKind = "wechat"
	// KindZhihu crawls a zhihu.com author profile for answers and posts.
	KindZhihu SourceKind = "zhihu"
	// KindWeb is the generic two-phase page crawl, also the classifier default.
	KindWeb SourceKind = "web"
)

// MinBodyLength is the shortest body accepted for a record without a title.
const MinBodyLength = 100

// RawContent is a single piece of source material produced by a strategy.
type RawContent struct {
	Title     string
	Body      string
	SourceURL string
	Kind      SourceKind
	Images    []string
	Meta      map[string]string
}

// Valid reports whether the record carries enough material to keep.
func (r RawContent) Valid() bool {
	return r.Title != "" || utf8.RuneCountInString(r.Body) >= MinBodyLength
}

// Draft is a rewritten or generated, not-yet-approved candidate article.
// Rewritten is false when every generative backend failed and the
// deterministic local formatter produced the body instead. Source is nil
// for drafts generated from a bare topic; Tags are populated only on the
// generation path.
type Draft struct {
	Title         string
	Body          string
	OriginalTitle string
	Source        *RawContent
	Tags          []string
	Rewritten     bool
	ProducedAt    time.Time
}

// ArticleStatus enumerates the persisted article lifecycle.
type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "draft"
	StatusApproved  ArticleStatus = "approved"
	StatusScheduled ArticleStatus = "scheduled"
	StatusPublished ArticleStatus = "published"
	StatusFailed    ArticleStatus = "failed"
)

// Article is the persisted unit flowing from drafts to the publish stage.
type Article struct {
	ID              string
	Title           string
	Content         string
	RenderedContent string
	CoverImage      string
	SourceURL       string
	Author          string
	Images          []string
	Tags            []string
	Status          ArticleStatus
	CreatedAt       time.Time
	PublishedAt     *time.Time
}

// ScheduleStatus enumerates publish-schedule outcomes.
type ScheduleStatus string

const (
	SchedulePending   ScheduleStatus = "pending"
	ScheduleCompleted ScheduleStatus = "completed"
	ScheduleFailed    ScheduleStatus = "failed"
)

// PublishSchedule marks an article as due for publishing at a given time.
type PublishSchedule struct {
	ID            string
	ArticleID     string
	ScheduledTime time.Time
	Status        ScheduleStatus
	CreatedAt     time.Time
}

// PublishResult reports the structured outcome of a publish attempt.
type PublishResult struct {
	Success   bool
	Message   string
	MsgID     int64
	MsgDataID int64
}

// CredentialSlack is how long before expiry a cached token is refreshed.
const CredentialSlack = 300 * time.Second

// Credential is a cached bearer token authorizing remote publish calls.
type Credential struct {
	Token     string
	ExpiresAt time.Time
}

// Usable reports whether the token may be reused at the given instant.
func (c Credential) Usable(now time.Time) bool {
	return c.Token != "" && now.Before(c.ExpiresAt.Add(-CredentialSlack))
}
