package rewrite

import (
	"math/rand"
	"strings"
	"sync"
	"unicode/utf8"

	"AutoPress/internal/domain"
)

const (
	maxFallbackTitle = 60
	closingLine      = "💬 觉得文章有帮助吗？欢迎点赞、评论和分享！\n关注我们，获取更多精彩内容～"
)

// Decorative markers rotated across fallback output.
var fallbackMarkers = []string{"✨", "🔥", "💡", "🚀", "📌"}

// Formatter is the deterministic last entry of the rewrite chain. It never
// fails: it decorates the title with a rotating marker, frames the body
// with an opener, a marker ribbon sized by paragraph count, and a fixed
// closing line. The original body always survives verbatim as one
// contiguous block.
type Formatter struct {
	mu   sync.Mutex
	next int
	rand *rand.Rand
}

// NewFormatter seeds the marker rotation at a random offset so repeated
// fallbacks across restarts do not all start with the same marker.
func NewFormatter() *Formatter {
	f := &Formatter{rand: rand.New(rand.NewSource(rand.Int63()))}
	f.next = f.rand.Intn(len(fallbackMarkers))
	return f
}

// Format produces a decorated title and body from the raw record.
func (f *Formatter) Format(rec domain.RawContent) (string, string) {
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		title = placeholderTitle
	}
	if utf8.RuneCountInString(title) > maxFallbackTitle {
		runes := []rune(title)
		title = string(runes[:maxFallbackTitle]) + "…"
	}
	title = f.marker() + " " + title

	body := rec.Body
	var b strings.Builder
	b.WriteString(f.marker() + " 以下内容由本号整理发布\n\n")
	b.WriteString(body)
	if ribbon := f.ribbon(body); ribbon != "" {
		b.WriteString("\n\n" + ribbon)
	}
	b.WriteString("\n\n" + closingLine)
	return title, b.String()
}

// ribbon emits one marker per three paragraphs, keeping the paragraph
// rhythm visible without splicing into the original text.
func (f *Formatter) ribbon(body string) string {
	paragraphs := 0
	for _, p := range strings.Split(body, "\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs++
		}
	}
	count := paragraphs / 3
	if count == 0 {
		return ""
	}
	marks := make([]string, 0, count)
	for i := 0; i < count; i++ {
		marks = append(marks, f.marker())
	}
	return strings.Join(marks, " ")
}

func (f *Formatter) marker() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := fallbackMarkers[f.next%len(fallbackMarkers)]
	f.next++
	return m
}
