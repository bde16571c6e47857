package interlinker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docutag/interlinker/models"
)

func TestScoreCandidatesRanksKeywordPhrases(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	keyword := "content marketing strategy"
	para := keywordParagraph(keyword, 60)

	ranked := e.ScoreCandidates(e.GenerateCandidates(para), para, keywordPage(keyword))
	require.NotEmpty(t, ranked)

	assert.Equal(t, keyword, ranked[0].Normalized)
	assert.LessOrEqual(t, len(ranked), e.config.Scoring.MaxCandidates)

	seen := make(map[string]bool)
	for i, c := range ranked {
		assert.GreaterOrEqual(t, c.Quality, e.config.Scoring.MinQualityScore)
		assert.False(t, seen[c.Normalized], "duplicate %q", c.Normalized)
		seen[c.Normalized] = true
		if i > 0 {
			assert.GreaterOrEqual(t, ranked[i-1].Quality, c.Quality)
		}
	}
}

func TestScoreCandidatesRejectsToxic(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	para := "For the full complete guide to email newsletter growth please click here today."
	page := keywordPage("email newsletter growth")

	for _, c := range e.ScoreCandidates(e.GenerateCandidates(para), para, page) {
		assert.False(t, e.heuristics.IsToxic(c.Text), "toxic candidate %q kept", c.Text)
	}
}

func TestSubScores(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	para := "Teams that invest in a documented content marketing strategy see far better results over time."
	page := keywordPage("content marketing strategy")
	tgt := e.newTarget(page, "https://example.com")
	paraSet := wordSet(e.heuristics.contentWords(para))

	var best AnchorCandidate
	for _, c := range e.GenerateCandidates(para) {
		if c.Text == "content marketing strategy" {
			best = c
		}
	}
	require.NotEmpty(t, best.Text)

	e.score(&best, paraSet, tgt)
	assert.InDelta(t, 100.0, best.Semantic, 0.001)
	assert.InDelta(t, 89.0, best.Naturalness, 0.001)
	assert.InDelta(t, 78.0, best.SEO, 0.001)
	assert.InDelta(t, (100*0.30+89*0.25+78*0.20)/0.75, best.Quality, 0.001)
	assert.False(t, best.Toxic)
}

func TestNaturalnessPenalisesStopwordEdges(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	c := AnchorCandidate{
		Text:      "the best of the",
		WordCount: 4,
		Context:   ContextWindow{Sentence: "the best of the"},
	}
	// 50 +15 (length) -15 (first) -10 (last), no sentence bonuses at index 0
	assert.InDelta(t, 40.0, e.naturalnessScore(&c), 0.001)
}

func TestNaturalnessSentenceStartOffset(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	score := func(sentence string) float64 {
		c := AnchorCandidate{Text: "content strategy", WordCount: 2, Context: ContextWindow{Sentence: sentence}}
		return e.naturalnessScore(&c)
	}

	// The phrase starts at index 9, then at index 10
	early := score("12345678 content strategy matters")
	tenth := score("123456789 content strategy matters")
	assert.InDelta(t, 8.0, tenth-early, 0.001)
}

func TestSEOPatternsBoost(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	tgt := e.newTarget(models.PageInfo{Title: "x", Slug: "x"}, "")

	plain := AnchorCandidate{Text: "notes about gardens"}
	guide := AnchorCandidate{Text: "complete guide about gardens"}

	assert.InDelta(t, 40.0, e.seoScore(&plain, tgt), 0.001)
	// +15 pattern, +10 for three meaningful words
	assert.InDelta(t, 65.0, e.seoScore(&guide, tgt), 0.001)
}

func TestCompositeNormalisesWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scoring.Weights = ScoringWeights{Semantic: 2, Naturalness: 2}
	e := newTestEngine(t, cfg)

	c := AnchorCandidate{Semantic: 80, Naturalness: 60, SEO: 0}
	assert.InDelta(t, 70.0, e.composite(&c), 0.001)
}

func TestContextScore(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	page := models.PageInfo{Slug: "p", PrimaryKeyword: "garden soil", Topics: []string{"compost"}}
	tgt := e.newTarget(page, "")

	c := AnchorCandidate{Context: ContextWindow{Sentence: "rich garden soil needs care", Theme: []string{"compost"}}}
	assert.InDelta(t, 100.0, e.contextScore(&c, tgt), 0.001)

	empty := e.newTarget(models.PageInfo{Slug: "q"}, "")
	assert.Zero(t, e.contextScore(&c, empty))
}
