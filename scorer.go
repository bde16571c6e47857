package interlinker

import (
	"sort"
	"strings"

	"github.com/docutag/interlinker/models"
)

// Rejection reasons reported to the Recorder
const (
	RejectToxic        = "toxic"
	RejectLowQuality   = "below_threshold"
	RejectDuplicate    = "duplicate"
	RejectUsedAnchor   = "used_anchor"
	RejectFailedAnchor = "failed_anchor"
	RejectTooClose     = "too_close"
	RejectTruncated    = "truncated"
)

// target is a page prepared for scoring: word sets are computed once per pass
type target struct {
	page    models.PageInfo
	url     string
	title   map[string]bool
	desc    map[string]bool
	keyword []string // content words of the primary keyword
	terms   []string // keywords, topics and category, for contextual fit
}

func (e *Engine) newTarget(page models.PageInfo, baseURL string) *target {
	h := e.heuristics
	var terms []string
	terms = append(terms, h.contentWords(page.PrimaryKeyword)...)
	for _, kw := range page.SecondaryKeywords {
		terms = append(terms, h.contentWords(kw)...)
	}
	for _, topic := range page.Topics {
		terms = append(terms, h.contentWords(topic)...)
	}
	terms = append(terms, h.contentWords(page.Category)...)

	return &target{
		page:    page,
		url:     ResolveURL(baseURL, page.Slug),
		title:   wordSet(h.contentWords(page.Title)),
		desc:    wordSet(h.contentWords(page.Description)),
		keyword: h.contentWords(page.PrimaryKeyword),
		terms:   dedupeWords(terms),
	}
}

// ScoreCandidates scores candidates from paragraph against one page and
// returns the accepted ones ranked best first
func (e *Engine) ScoreCandidates(candidates []AnchorCandidate, paragraph string, page models.PageInfo) []AnchorCandidate {
	ranked, _ := e.rank(candidates, paragraph, e.newTarget(page, ""))
	return ranked
}

// rank scores, filters, sorts, deduplicates and truncates candidates.
// The returned map counts rejected candidates by reason.
func (e *Engine) rank(candidates []AnchorCandidate, paragraph string, t *target) ([]AnchorCandidate, map[string]int) {
	sc := e.config.Scoring
	rejected := make(map[string]int)
	paraSet := wordSet(e.heuristics.contentWords(paragraph))

	accepted := make([]AnchorCandidate, 0, len(candidates))
	for _, c := range candidates {
		e.score(&c, paraSet, t)
		switch {
		case c.Toxic:
			rejected[RejectToxic]++
		case c.Quality < sc.MinQualityScore:
			rejected[RejectLowQuality]++
		default:
			accepted = append(accepted, c)
		}
	}

	// Stable sort keeps generation order among equal scores
	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].Quality > accepted[j].Quality
	})

	seen := make(map[string]bool, len(accepted))
	unique := accepted[:0]
	for _, c := range accepted {
		if seen[c.Normalized] {
			rejected[RejectDuplicate]++
			continue
		}
		seen[c.Normalized] = true
		unique = append(unique, c)
	}

	if len(unique) > sc.MaxCandidates {
		rejected[RejectTruncated] += len(unique) - sc.MaxCandidates
		unique = unique[:sc.MaxCandidates]
	}

	return unique, rejected
}

// score fills every sub-score and the composite quality of c
func (e *Engine) score(c *AnchorCandidate, paraSet map[string]bool, t *target) {
	c.Semantic = e.semanticScore(c, paraSet, t)
	c.Naturalness = e.naturalnessScore(c)
	c.SEO = e.seoScore(c, t)
	c.ContextFit = e.contextScore(c, t)
	c.Quality = e.composite(c)
}

// semanticScore measures topical overlap between the phrase and the page
func (e *Engine) semanticScore(c *AnchorCandidate, paraSet map[string]bool, t *target) float64 {
	cw := e.heuristics.contentWords(c.Text)

	score := overlapRatio(cw, t.title)*40 +
		overlapRatio(cw, t.desc)*25 +
		overlapRatio(cw, paraSet)*20

	if t.page.PrimaryKeyword != "" && containsPhrase(c.Text, t.page.PrimaryKeyword) {
		score += 15
	}
	for _, kw := range t.page.SecondaryKeywords {
		if kw != "" && containsPhrase(c.Text, kw) {
			score += 5
		}
	}

	return clamp(score)
}

// naturalnessScore rewards phrases that read like natural anchor text
func (e *Engine) naturalnessScore(c *AnchorCandidate) float64 {
	h := e.heuristics
	score := 50.0

	switch n := c.WordCount; {
	case n >= 4 && n <= 6:
		score += 15
	case n == 3 || n == 7:
		score += 8
	case n < 3:
		score -= 20
	case n > 8:
		score -= 15
	}

	sentence := strings.ToLower(c.Context.Sentence)
	phrase := strings.ToLower(c.Text)
	if idx := strings.Index(sentence, phrase); idx >= 0 {
		if idx >= 10 {
			score += 8
		}
		if len(sentence)-(idx+len(phrase)) > 5 {
			score += 5
		}
	}

	ws := words(c.Text)
	if len(ws) > 0 {
		first, last := ws[0], ws[len(ws)-1]
		if h.IsStopword(first) {
			score -= 15
		} else {
			score += 10
		}
		if h.IsStopword(last) {
			score -= 10
		} else {
			score += 8
		}
		if h.verbs[first] {
			score += 12
		}
	}

	return clamp(score)
}

// seoScore rates the phrase as anchor text; toxic phrases score 0
func (e *Engine) seoScore(c *AnchorCandidate, t *target) float64 {
	h := e.heuristics
	if h.IsToxic(c.Text) {
		c.Toxic = true
		return 0
	}

	score := 40.0
	lower := strings.ToLower(c.Text)
	for _, p := range h.SEOPatterns {
		if p.re != nil && p.re.MatchString(lower) {
			score += p.Boost
		}
	}

	cw := h.contentWords(c.Text)
	if t.page.PrimaryKeyword != "" {
		if containsPhrase(c.Text, t.page.PrimaryKeyword) {
			score += 20
		} else if len(t.keyword) > 0 {
			score += overlapRatio(t.keyword, wordSet(cw)) * 10
		}
	}

	meaningful := 0
	for _, w := range cw {
		if len(w) > 3 {
			meaningful++
		}
	}
	if meaningful >= 3 {
		score += 10
	}

	return clamp(score)
}

// contextScore is the fraction of the page's keyword and topic terms found
// around the phrase
func (e *Engine) contextScore(c *AnchorCandidate, t *target) float64 {
	if len(t.terms) == 0 {
		return 0
	}
	h := e.heuristics
	around := h.contentWords(c.Context.Sentence + " " + c.Context.Before + " " + c.Context.After)
	around = append(around, c.Context.Theme...)
	return clamp(overlapRatio(t.terms, wordSet(around)) * 100)
}

// composite averages the sub-scores by the weights actually applied
func (e *Engine) composite(c *AnchorCandidate) float64 {
	w := e.config.Scoring.Weights
	sum := w.Semantic + w.Naturalness + w.SEO + w.Context
	if sum <= 0 {
		return (c.Semantic + c.Naturalness + c.SEO) / 3
	}
	return (c.Semantic*w.Semantic +
		c.Naturalness*w.Naturalness +
		c.SEO*w.SEO +
		c.ContextFit*w.Context) / sum
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func dedupeWords(ws []string) []string {
	seen := make(map[string]bool, len(ws))
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}
