package interlinker

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/docutag/interlinker/slug"
)

var (
	multiSpaceRe    = regexp.MustCompile(`\s+`)
	sentenceSplitRe = regexp.MustCompile(`[.!?]+`)
)

// normalizeText lower-cases, folds diacritics and strips punctuation.
// Apostrophes are dropped, other punctuation separates words.
func normalizeText(text string) string {
	text = strings.ToLower(slug.Fold(text))
	text = strings.Map(func(r rune) rune {
		switch {
		case r == '\'' || r == '’':
			return -1
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return r
		default:
			return ' '
		}
	}, text)
	return strings.TrimSpace(collapseWhitespace(text))
}

func collapseWhitespace(s string) string {
	return multiSpaceRe.ReplaceAllString(s, " ")
}

// trimPunct strips leading and trailing punctuation and symbols
func trimPunct(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}

// words splits text into lower-cased, punctuation-trimmed words
func words(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := strings.ToLower(trimPunct(f)); w != "" {
			out = append(out, w)
		}
	}
	return out
}

// wordCount counts whitespace-delimited tokens
func wordCount(text string) int {
	return len(strings.Fields(text))
}

// contentWords returns the words of text that are not stopwords
func (h *Heuristics) contentWords(text string) []string {
	all := words(text)
	out := all[:0]
	for _, w := range all {
		if !h.IsStopword(w) {
			out = append(out, w)
		}
	}
	return out
}

// overlapRatio is the fraction of words found in the target set
func overlapRatio(ws []string, target map[string]bool) float64 {
	if len(ws) == 0 || len(target) == 0 {
		return 0
	}
	matched := 0
	for _, w := range ws {
		if target[w] {
			matched++
		}
	}
	return float64(matched) / float64(len(ws))
}

func wordSet(ws []string) map[string]bool {
	set := make(map[string]bool, len(ws))
	for _, w := range ws {
		set[w] = true
	}
	return set
}

// containsPhrase reports whether phrase occurs in text on word boundaries,
// comparing normalised forms
func containsPhrase(text, phrase string) bool {
	p := normalizeText(phrase)
	if p == "" {
		return false
	}
	return strings.Contains(" "+normalizeText(text)+" ", " "+p+" ")
}

// splitSentences splits text on runs of sentence terminators
func splitSentences(text string) []string {
	parts := sentenceSplitRe.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// findSentence returns the first sentence containing phrase, or the full text
func findSentence(text, phrase string) string {
	lower := strings.ToLower(phrase)
	for _, s := range splitSentences(text) {
		if strings.Contains(strings.ToLower(s), lower) {
			return s
		}
	}
	return text
}
