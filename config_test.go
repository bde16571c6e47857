package interlinker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultZonesCoverDocument(t *testing.T) {
	zones := DefaultZones()
	require.Len(t, zones, 5)

	maxSum := 0
	for i, z := range zones {
		maxSum += z.MaxLinks
		if i > 0 {
			assert.Equal(t, zones[i-1].EndPercent, z.StartPercent)
		}
	}
	assert.Equal(t, 0.0, zones[0].StartPercent)
	assert.Equal(t, 100.0, zones[len(zones)-1].EndPercent)
	assert.Equal(t, 15, maxSum)
	assert.NoError(t, DefaultConfig().Validate())
}

func TestConfigDefaultsPartialOverride(t *testing.T) {
	cfg := Config{TotalTargetLinks: 3, Scoring: ScoringConfig{MinQualityScore: 60}}
	cfg.defaults()

	d := DefaultConfig()
	assert.Equal(t, 3, cfg.TotalTargetLinks)
	assert.Equal(t, 60.0, cfg.Scoring.MinQualityScore)
	assert.Equal(t, d.Zones, cfg.Zones)
	assert.Equal(t, d.MinWordsBetweenLinks, cfg.MinWordsBetweenLinks)
	assert.Equal(t, d.Scoring.Weights, cfg.Scoring.Weights)
	assert.Equal(t, d.Scoring.MaxCandidates, cfg.Scoring.MaxCandidates)

	disabled := Config{MinWordsBetweenLinks: -1}
	disabled.defaults()
	assert.Equal(t, -1, disabled.MinWordsBetweenLinks)
	assert.Equal(t, 0, disabled.minSpacing())
}

func TestConfigDefaultsNegativeSurvivesRoundTrip(t *testing.T) {
	cfg := Config{Scoring: ScoringConfig{MinQualityScore: -1, MaxOverlapWithHeading: -1}}
	cfg.defaults()
	assert.Equal(t, -1.0, cfg.Scoring.MinQualityScore)
	assert.Equal(t, 0.0, cfg.Scoring.maxHeadingOverlap())

	// Running defaults again over a copy keeps the meaning
	again := cfg
	again.defaults()
	assert.Equal(t, cfg.Scoring, again.Scoring)

	// Zero still selects the defaults
	unset := Config{}
	unset.defaults()
	assert.Equal(t, DefaultConfig().Scoring.MinQualityScore, unset.Scoring.MinQualityScore)
	assert.Equal(t, DefaultConfig().Scoring.MaxOverlapWithHeading, unset.Scoring.MaxOverlapWithHeading)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name  string
		zones []Zone
	}{
		{"missing name", []Zone{{StartPercent: 0, EndPercent: 100, MaxLinks: 1}}},
		{"duplicate", []Zone{{Name: "a", EndPercent: 50, MaxLinks: 1}, {Name: "a", StartPercent: 50, EndPercent: 100, MaxLinks: 1}}},
		{"empty range", []Zone{{Name: "a", StartPercent: 50, EndPercent: 50, MaxLinks: 1}}},
		{"negative quota", []Zone{{Name: "a", EndPercent: 100, MaxLinks: -1}}},
		{"min above max", []Zone{{Name: "a", EndPercent: 100, MinLinks: 2, MaxLinks: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Zones = tt.zones
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "config.yaml", `
total_target_links: 4
min_words_between_links: 20
allow_repeat_targets: true
scoring:
  min_quality_score: 70
  weights:
    semantic: 1
    naturalness: 1
    seo: 1
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.TotalTargetLinks)
	assert.Equal(t, 20, cfg.MinWordsBetweenLinks)
	assert.True(t, cfg.AllowRepeatTargets)
	assert.Equal(t, 70.0, cfg.Scoring.MinQualityScore)
	assert.Equal(t, ScoringWeights{Semantic: 1, Naturalness: 1, SEO: 1}, cfg.Scoring.Weights)
	assert.Equal(t, DefaultZones(), cfg.Zones)
	assert.Equal(t, 8, cfg.Scoring.MaxWords)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, "bad.yaml", "zones: [unterminated"))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, "invalid.yaml", `
zones:
  - name: all
    start_percent: 0
    end_percent: 100
    min_links: 3
    max_links: 1
`))
	assert.Error(t, err)
}

func TestZoneFor(t *testing.T) {
	zones := DefaultZones()
	tests := []struct {
		position float64
		want     string
	}{
		{0, "introduction"},
		{14.99, "introduction"},
		{15, "early-body"},
		{55, "mid-body"},
		{89.9, "late-body"},
		{90, "conclusion"},
		{100, "conclusion"},
		{120, "conclusion"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ZoneFor(tt.position, zones).Name, "position %v", tt.position)
	}
	assert.Equal(t, Zone{}, ZoneFor(10, nil))
}

func TestSortZonesByPriority(t *testing.T) {
	zones := DefaultZones()
	sorted := sortZonesByPriority(zones)

	var names []string
	for _, z := range sorted {
		names = append(names, z.Name)
	}
	assert.Equal(t, []string{"mid-body", "early-body", "late-body", "introduction", "conclusion"}, names)
	assert.Equal(t, "introduction", zones[0].Name)
}

func TestStateReset(t *testing.T) {
	cfg := DefaultConfig()
	s := NewState(cfg)
	assert.Equal(t, -50, s.LastLinkPosition)
	assert.True(t, s.spacingReady())

	s.advance(40)
	assert.Equal(t, 50, s.cursorAt(20))
	s.recordLink("mid-body", "garden soil", "https://example.com/soil/", 20, 45)
	assert.Equal(t, 50, s.LastLinkPosition)
	assert.True(t, s.AnchorUsed("garden soil"))
	assert.True(t, s.TargetUsed("https://example.com/soil"))
	assert.True(t, s.tooClose(60))
	assert.False(t, s.tooClose(95))
	assert.False(t, s.spacingReady())

	s.failAnchor("raised beds")
	assert.True(t, s.AnchorFailed("raised beds"))
	assert.False(t, s.AnchorUsed("raised beds"))

	s.Reset(cfg)
	assert.Equal(t, 0, s.Injected)
	assert.Equal(t, 0, s.ZoneCounts["mid-body"])
	assert.False(t, s.AnchorUsed("garden soil"))
	assert.False(t, s.AnchorFailed("raised beds"))
	assert.False(t, s.TargetUsed("https://example.com/soil"))
	assert.False(t, s.tooClose(60))
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base, slug, want string
	}{
		{"https://example.com", "garden-soil", "https://example.com/garden-soil"},
		{"https://example.com/blog/", "garden-soil", "https://example.com/blog/garden-soil"},
		{"https://example.com/blog", "/garden-soil", "https://example.com/garden-soil"},
		{"https://example.com", "https://other.org/page", "https://other.org/page"},
		{"", "garden-soil", "/garden-soil"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveURL(tt.base, tt.slug), "%s + %s", tt.base, tt.slug)
	}
}
