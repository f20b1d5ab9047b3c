package rewrite

import (
	"sort"
	"strings"
	"unicode"
)

// singleStopRunes are function characters that never belong in a tag.
var singleStopRunes = map[rune]struct{}{
	'的': {}, '是': {}, '在': {}, '和': {}, '了': {}, '有': {},
	'我': {}, '你': {}, '他': {}, '她': {}, '它': {}, '这': {},
	'那': {}, '与': {}, '及': {}, '或': {}, '但': {}, '而': {},
	'就': {}, '都': {}, '很': {}, '也': {}, '还': {}, '只': {},
	'又': {}, '把': {}, '被': {}, '让': {}, '从': {}, '到': {}, '为': {},
}

var stopWords = map[string]struct{}{
	"一个": {}, "一些": {}, "这个": {}, "那个": {},
	"可以": {}, "应该": {}, "需要": {}, "能够": {},
}

// genericTags pad out the result when the text yields too few candidates.
var genericTags = []string{"实用技巧", "生活指南", "干货分享", "经验总结"}

// GenerateTags extracts frequency-ranked keyword tags from plain text.
// Han text is tokenized as overlapping two-character pairs, latin text as
// whole words; a candidate needs at least two occurrences. Results are
// ordered by frequency, then by first appearance for determinism.
func GenerateTags(content string, max int) []string {
	if max <= 0 {
		return nil
	}

	type candidate struct {
		word  string
		freq  int
		first int
	}
	counts := map[string]*candidate{}
	pos := 0

	record := func(word string) {
		if _, stop := stopWords[word]; stop {
			return
		}
		if c, ok := counts[word]; ok {
			c.freq++
		} else {
			counts[word] = &candidate{word: word, freq: 1, first: pos}
		}
		pos++
	}

	var han []rune
	var latin []rune
	flushLatin := func() {
		if len(latin) >= 2 && !allDigits(latin) {
			record(strings.ToLower(string(latin)))
		}
		latin = latin[:0]
	}
	flushHan := func() {
		for i := 0; i+1 < len(han); i++ {
			a, b := han[i], han[i+1]
			if _, stop := singleStopRunes[a]; stop {
				continue
			}
			if _, stop := singleStopRunes[b]; stop {
				continue
			}
			record(string([]rune{a, b}))
		}
		han = han[:0]
	}

	for _, r := range content {
		switch {
		case unicode.Is(unicode.Han, r):
			flushLatin()
			han = append(han, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			flushHan()
			latin = append(latin, r)
		default:
			flushLatin()
			flushHan()
		}
	}
	flushLatin()
	flushHan()

	ranked := make([]*candidate, 0, len(counts))
	for _, c := range counts {
		if c.freq >= 2 {
			ranked = append(ranked, c)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].freq != ranked[j].freq {
			return ranked[i].freq > ranked[j].freq
		}
		return ranked[i].first < ranked[j].first
	})

	tags := make([]string, 0, max)
	for _, c := range ranked {
		if len(tags) >= max {
			break
		}
		tags = append(tags, c.word)
	}

	if len(tags) < 3 {
		for _, tag := range genericTags {
			if len(tags) >= max {
				break
			}
			if !containsTag(tags, tag) {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func allDigits(runes []rune) bool {
	for _, r := range runes {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
