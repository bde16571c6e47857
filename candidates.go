package interlinker

import (
	"sort"
	"strings"

	"github.com/docutag/interlinker/models"
)

// PositionClass is the coarse location of a candidate inside its element
type PositionClass string

const (
	PositionEarly  PositionClass = "early"
	PositionMiddle PositionClass = "middle"
	PositionLate   PositionClass = "late"
)

// ContextWindow is the text surrounding a candidate phrase
type ContextWindow struct {
	Before   string   `json:"before"`
	After    string   `json:"after"`
	Sentence string   `json:"sentence"`
	Theme    []string `json:"theme"` // Most frequent content words of the paragraph
}

// AnchorCandidate is a bounded-length phrase considered for a link
type AnchorCandidate struct {
	Text        string        `json:"text"`
	Normalized  string        `json:"normalized"`
	WordCount   int           `json:"word_count"`
	Offset      int           `json:"offset"` // Token offset of the first word in the element
	Position    PositionClass `json:"position"`
	Context     ContextWindow `json:"context"`
	Semantic    float64       `json:"semantic"`
	Naturalness float64       `json:"naturalness"`
	SEO         float64       `json:"seo"`
	ContextFit  float64       `json:"context_fit"`
	Quality     float64       `json:"quality"`
	Toxic       bool          `json:"toxic"`
}

// metrics snapshots the candidate scores for an injection record
func (c AnchorCandidate) metrics(headingOverlap float64) models.QualityMetrics {
	return models.QualityMetrics{
		Quality:        c.Quality,
		Semantic:       c.Semantic,
		Naturalness:    c.Naturalness,
		SEO:            c.SEO,
		Context:        c.ContextFit,
		HeadingOverlap: headingOverlap,
	}
}

// GenerateCandidates enumerates every window of minWords..maxWords tokens.
// Candidates do not depend on the target page, so one element's list is
// generated once and scored against each page in turn.
func (e *Engine) GenerateCandidates(text string) []AnchorCandidate {
	sc := e.config.Scoring
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	theme := e.heuristics.paragraphTheme(tokens, 3)
	var candidates []AnchorCandidate

	for length := sc.MinWords; length <= sc.MaxWords; length++ {
		for offset := 0; offset+length <= len(tokens); offset++ {
			phrase := trimPunct(strings.Join(tokens[offset:offset+length], " "))
			if len([]rune(phrase)) < sc.MinPhraseChars {
				continue
			}

			candidates = append(candidates, AnchorCandidate{
				Text:       phrase,
				Normalized: normalizeText(phrase),
				WordCount:  wordCount(phrase),
				Offset:     offset,
				Position:   positionClass(offset, len(tokens)),
				Context: ContextWindow{
					Before:   strings.Join(tokens[max(0, offset-sc.ContextWindow):offset], " "),
					After:    strings.Join(tokens[offset+length:min(len(tokens), offset+length+sc.ContextWindow)], " "),
					Sentence: findSentence(text, phrase),
					Theme:    theme,
				},
			})
		}
	}

	return candidates
}

// positionClass maps a token offset to early, middle or late
func positionClass(offset, total int) PositionClass {
	if total == 0 {
		return PositionMiddle
	}
	ratio := float64(offset) / float64(total)
	switch {
	case ratio < 0.3:
		return PositionEarly
	case ratio > 0.7:
		return PositionLate
	default:
		return PositionMiddle
	}
}

// paragraphTheme returns the most frequent content words, ties broken by first appearance
func (h *Heuristics) paragraphTheme(tokens []string, limit int) []string {
	counts := make(map[string]int)
	var order []string
	for _, tok := range tokens {
		w := strings.ToLower(trimPunct(tok))
		if len(w) <= 3 || h.IsStopword(w) {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}
	return order
}
