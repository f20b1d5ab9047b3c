package rewrite

import (
	"strings"
	"unicode/utf8"
)

const placeholderTitle = "精彩文章标题"

// Free-text completions label the title inconsistently; scan for a small
// synonym set followed by a colon-like separator.
var titleLabels = []string{"标题", "title", "headline"}

const titleSeparators = ":："

// maxPromotedTitle bounds the length of a line promoted to title when no
// labeled title is present.
const (
	maxPromotedTitle = 100
	promotionWindow  = 5
)

// ParseCompletion splits a backend completion into title and body. It is a
// best-effort heuristic and never fails: when nothing looks like a title,
// the whole text becomes the body under a placeholder title.
func ParseCompletion(text string) (string, string) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	if title, rest, ok := labeledTitle(lines); ok {
		return title, strings.TrimSpace(strings.Join(rest, "\n"))
	}
	if title, rest, ok := promotedTitle(lines); ok {
		return title, strings.TrimSpace(strings.Join(rest, "\n"))
	}
	return placeholderTitle, strings.TrimSpace(text)
}

func labeledTitle(lines []string) (string, []string, bool) {
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		for _, label := range titleLabels {
			if !strings.HasPrefix(lower, label) {
				continue
			}
			rest := trimmed[len(label):]
			sep := strings.IndexAny(rest, titleSeparators)
			if sep < 0 {
				continue
			}
			_, width := utf8.DecodeRuneInString(rest[sep:])
			title := strings.TrimSpace(rest[sep+width:])
			if title == "" {
				continue
			}
			body := append(append([]string{}, lines[:i]...), lines[i+1:]...)
			return title, body, true
		}
	}
	return "", nil, false
}

// promotedTitle lifts the first short line near the top of the completion
// into the title slot and removes it from the body.
func promotedTitle(lines []string) (string, []string, bool) {
	window := promotionWindow
	if len(lines) < window {
		window = len(lines)
	}
	for i := 0; i < window; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		if utf8.RuneCountInString(trimmed) >= maxPromotedTitle {
			continue
		}
		body := append(append([]string{}, lines[:i]...), lines[i+1:]...)
		return trimmed, body, true
	}
	return "", nil, false
}
