package rewrite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"AutoPress/internal/domain"
)

const (
	generateTemperature = 0.8
	generateLength      = 1500
	titleMaxTokens      = 50
	titleSourceRunes    = 500
	maxGeneratedTags    = 10
)

const generateSystemPrompt = "你是一个优秀的自媒体内容创作者"

// GenerateOne creates a draft from a bare topic through the backend chain.
// Unlike RewriteOne there is no source body to fall back to, so an
// exhausted chain is an error and the topic is skipped by the caller.
func (e *Engine) GenerateOne(ctx context.Context, topic, style string) (domain.Draft, error) {
	if strings.TrimSpace(topic) == "" {
		return domain.Draft{}, fmt.Errorf("empty topic")
	}

	prompt := buildGeneratePrompt(topic, style)

	for _, backend := range e.backends {
		cctx, cancel := context.WithTimeout(ctx, e.timeout)
		out, err := backend.Complete(cctx, generateSystemPrompt, prompt, maxTokens, generateTemperature)
		cancel()

		if err != nil {
			e.warn("backend failed", "backend", backend.Name(), "topic", topic, "error", err)
			continue
		}
		body := strings.TrimSpace(out)
		if body == "" {
			e.warn("backend returned empty completion", "backend", backend.Name(), "topic", topic)
			continue
		}

		return domain.Draft{
			Title:         e.generateTitle(ctx, body),
			Body:          body,
			OriginalTitle: topic,
			Tags:          GenerateTags(body, maxGeneratedTags),
			Rewritten:     true,
			ProducedAt:    time.Now().UTC(),
		}, nil
	}

	return domain.Draft{}, fmt.Errorf("generate %q: no backend produced content", topic)
}

// generateTitle asks the chain for a short headline over the opening of the
// generated body. Any failure degrades to the placeholder title.
func (e *Engine) generateTitle(ctx context.Context, body string) string {
	prompt := "请为以下文章生成一个吸引人的标题（15字以内）：\n" + truncateRunes(body, titleSourceRunes)

	for _, backend := range e.backends {
		cctx, cancel := context.WithTimeout(ctx, e.timeout)
		out, err := backend.Complete(cctx, generateSystemPrompt, prompt, titleMaxTokens, generateTemperature)
		cancel()

		if err != nil {
			e.warn("title generation failed", "backend", backend.Name(), "error", err)
			continue
		}
		if title := strings.TrimSpace(out); title != "" {
			return title
		}
	}

	return placeholderTitle
}

func buildGeneratePrompt(topic, style string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "请创作一篇关于“%s”的文章，要求：\n", topic)
	fmt.Fprintf(&b, "1. 文章风格：%s\n", styleLabel(style))
	fmt.Fprintf(&b, "2. 字数要求：约%d字\n", generateLength)
	b.WriteString("3. 结构清晰，包含引言、主体和结论\n")
	b.WriteString("4. 内容要有深度，提供有价值的信息\n")
	b.WriteString("5. 适合公众号发布\n\n")
	b.WriteString("请生成文章：\n")
	return b.String()
}
