package rewrite

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"AutoPress/internal/domain"
	"AutoPress/internal/ports"
)

const (
	maxSourceChars = 3000
	maxTokens      = 2000
	temperature    = 0.7
	backendTimeout = 15 * time.Second
	batchPause     = 1 * time.Second
)

const systemPrompt = "你是一个专业的内容创作者，擅长将素材改写为原创文章。"

// Engine restyles raw content through an ordered chain of generative
// backends, ending at the deterministic local formatter which never fails.
// Both rewrite operations are total: they never return an error and never
// drop a record.
type Engine struct {
	backends []ports.CompletionBackend
	format   *Formatter
	timeout  time.Duration
	pause    time.Duration
	logger   *slog.Logger
}

var _ ports.Rewriter = (*Engine)(nil)
var _ ports.Generator = (*Engine)(nil)

// NewEngine builds an engine over the configured backends in priority order.
// An empty backend list is valid; every rewrite then degrades locally.
func NewEngine(backends []ports.CompletionBackend, logger *slog.Logger) *Engine {
	return &Engine{
		backends: backends,
		format:   NewFormatter(),
		timeout:  backendTimeout,
		pause:    batchPause,
		logger:   logger,
	}
}

// RewriteOne produces exactly one draft for the record. Backend failures
// and empty completions fall through the chain; the local formatter is the
// infallible last resort.
func (e *Engine) RewriteOne(ctx context.Context, rec domain.RawContent, style string) domain.Draft {
	prompt := buildPrompt(rec, style)

	for _, backend := range e.backends {
		cctx, cancel := context.WithTimeout(ctx, e.timeout)
		out, err := backend.Complete(cctx, systemPrompt, prompt, maxTokens, temperature)
		cancel()

		if err != nil {
			e.warn("backend failed", "backend", backend.Name(), "url", rec.SourceURL, "error", err)
			continue
		}
		if strings.TrimSpace(out) == "" {
			e.warn("backend returned empty completion", "backend", backend.Name(), "url", rec.SourceURL)
			continue
		}

		title, body := ParseCompletion(out)
		if title == "" {
			title = rec.Title
		}
		return domain.Draft{
			Title:         title,
			Body:          body,
			OriginalTitle: rec.Title,
			Source:        &rec,
			Rewritten:     true,
			ProducedAt:    time.Now().UTC(),
		}
	}

	title, body := e.format.Format(rec)
	return domain.Draft{
		Title:         title,
		Body:          body,
		OriginalTitle: rec.Title,
		Source:        &rec,
		Rewritten:     false,
		ProducedAt:    time.Now().UTC(),
	}
}

// RewriteBatch rewrites records in input order with inter-call pacing to
// respect upstream rate limits. The result always has one draft per record.
func (e *Engine) RewriteBatch(ctx context.Context, recs []domain.RawContent, style string) []domain.Draft {
	drafts := make([]domain.Draft, 0, len(recs))
	for i, rec := range recs {
		if i > 0 && e.pause > 0 && len(e.backends) > 0 {
			select {
			case <-time.After(e.pause):
			case <-ctx.Done():
			}
		}
		drafts = append(drafts, e.RewriteOne(ctx, rec, style))
	}
	return drafts
}

// buildPrompt embeds the truncated source body and the style instruction.
func buildPrompt(rec domain.RawContent, style string) string {
	body := truncateRunes(rec.Body, maxSourceChars)

	var b strings.Builder
	fmt.Fprintf(&b, "请将以下文章改写成%s风格，要求：\n", styleLabel(style))
	b.WriteString("1. 保持原文的核心信息和观点\n")
	b.WriteString("2. 调整语言风格和表达方式，确保内容原创\n")
	b.WriteString("3. 结构清晰，段落分明\n")
	b.WriteString("4. 第一行以“标题：”开头给出新标题，其后为正文\n\n")
	if rec.Title != "" {
		fmt.Fprintf(&b, "原标题：%s\n\n", rec.Title)
	}
	fmt.Fprintf(&b, "原文：\n%s\n", body)
	return b.String()
}

func styleLabel(style string) string {
	switch style {
	case "creative":
		return "创意"
	case "informative":
		return "科普"
	case "professional", "":
		return "专业"
	default:
		return style
	}
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

func (e *Engine) warn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
