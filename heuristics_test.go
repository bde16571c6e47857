package interlinker

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docutag/interlinker/models"
)

func TestIsToxic(t *testing.T) {
	h := DefaultHeuristics()
	tests := []struct {
		phrase string
		want   bool
	}{
		{"please Click Here now", true},
		{"read more, about soil", true},
		{"clicker heresy", false},
		{"garden soil health", false},
		{"learn-more today", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, h.IsToxic(tt.phrase), tt.phrase)
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "cafe strategy dont", normalizeText("  Café   STRATEGY, don't!"))
	assert.Equal(t, "step by step", normalizeText("step-by-step"))
	assert.Empty(t, normalizeText("..."))
}

func TestLoadHeuristics(t *testing.T) {
	path := writeFile(t, "heuristics.yaml", `
toxic_anchors:
  - buy now
seo_patterns:
  - name: garden
    pattern: '\bgarden\b'
    boost: 30
`)

	h, err := LoadHeuristics(path)
	require.NoError(t, err)

	assert.True(t, h.IsToxic("buy now today"))
	assert.False(t, h.IsToxic("click here"))
	assert.True(t, h.IsStopword("the"))
	require.Len(t, h.SEOPatterns, 1)
	assert.True(t, h.SEOPatterns[0].re.MatchString("my garden plan"))
	assert.Equal(t, DefaultHeuristics().DescriptiveVerbs, h.DescriptiveVerbs)
}

func TestLoadHeuristicsErrors(t *testing.T) {
	_, err := LoadHeuristics(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadHeuristics(writeFile(t, "bad.yaml", "seo_patterns:\n  - name: broken\n    pattern: '(unclosed'\n"))
	assert.Error(t, err)
}

func TestWithHeuristics(t *testing.T) {
	h, err := LoadHeuristics(writeFile(t, "h.yaml", "toxic_anchors: [content marketing]\n"))
	require.NoError(t, err)

	keyword := testKeywords[0]
	e := newTestEngine(t, DefaultConfig(), WithHeuristics(h))
	result, err := e.ProcessContent(wrapDocument(keywordParagraph(keyword, 80)), []models.PageInfo{keywordPage(keyword)}, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, result.LinksInjected)

	para := keywordParagraph(keyword, 80)
	for _, c := range e.ScoreCandidates(e.GenerateCandidates(para), para, keywordPage(keyword)) {
		assert.NotContains(t, c.Normalized, "content marketing")
	}
}
