package interlinker

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Zone is a named percentile range of the document with its own link quota
type Zone struct {
	Name         string  `json:"name" yaml:"name"`
	StartPercent float64 `json:"start_percent" yaml:"start_percent"`
	EndPercent   float64 `json:"end_percent" yaml:"end_percent"`
	MinLinks     int     `json:"min_links" yaml:"min_links"`
	MaxLinks     int     `json:"max_links" yaml:"max_links"`
	Priority     int     `json:"priority" yaml:"priority"` // Lower values are filled first
}

// Contains reports whether a position percentile falls inside [start, end)
func (z Zone) Contains(position float64) bool {
	return position >= z.StartPercent && position < z.EndPercent
}

// ScoringWeights are combined into the composite quality score.
// They are normalised by their sum, so they need not total 1.
type ScoringWeights struct {
	Semantic    float64 `json:"semantic" yaml:"semantic"`
	Naturalness float64 `json:"naturalness" yaml:"naturalness"`
	SEO         float64 `json:"seo" yaml:"seo"`
	Context     float64 `json:"context" yaml:"context"`
}

// ScoringConfig controls candidate generation and acceptance
type ScoringConfig struct {
	MinWords              int            `json:"min_words" yaml:"min_words"`
	MaxWords              int            `json:"max_words" yaml:"max_words"`
	MinPhraseChars        int            `json:"min_phrase_chars" yaml:"min_phrase_chars"`
	ContextWindow         int            `json:"context_window" yaml:"context_window"` // Words kept on each side of a candidate
	Weights               ScoringWeights `json:"weights" yaml:"weights"`
	MinQualityScore       float64        `json:"min_quality_score" yaml:"min_quality_score"` // Zero selects the default; negative means no threshold
	MaxCandidates         int            `json:"max_candidates" yaml:"max_candidates"`
	MaxOverlapWithHeading float64        `json:"max_overlap_with_heading" yaml:"max_overlap_with_heading"` // Zero selects the default; negative allows no overlap
}

// Config is the distribution configuration for one document pass
type Config struct {
	Zones                []Zone        `json:"zones" yaml:"zones"`
	TotalTargetLinks     int           `json:"total_target_links" yaml:"total_target_links"`
	MinParagraphLength   int           `json:"min_paragraph_length" yaml:"min_paragraph_length"`
	MaxLinksPerParagraph int           `json:"max_links_per_paragraph" yaml:"max_links_per_paragraph"`
	MinWordsBetweenLinks int           `json:"min_words_between_links" yaml:"min_words_between_links"` // Zero selects the default; negative disables spacing
	SkipSelectors        []string      `json:"skip_selectors" yaml:"skip_selectors"`
	AllowRepeatTargets   bool          `json:"allow_repeat_targets" yaml:"allow_repeat_targets"` // Permit several links to the same page
	MaxInjectionAttempts int           `json:"max_injection_attempts" yaml:"max_injection_attempts"`
	Scoring              ScoringConfig `json:"scoring" yaml:"scoring"`
}

// DefaultZones returns the five default distribution zones.
// Mid-body has the best odds of linkable content, so it is filled first.
func DefaultZones() []Zone {
	return []Zone{
		{Name: "introduction", StartPercent: 0, EndPercent: 15, MinLinks: 0, MaxLinks: 2, Priority: 4},
		{Name: "early-body", StartPercent: 15, EndPercent: 40, MinLinks: 1, MaxLinks: 4, Priority: 2},
		{Name: "mid-body", StartPercent: 40, EndPercent: 70, MinLinks: 1, MaxLinks: 4, Priority: 1},
		{Name: "late-body", StartPercent: 70, EndPercent: 90, MinLinks: 1, MaxLinks: 3, Priority: 3},
		{Name: "conclusion", StartPercent: 90, EndPercent: 100, MinLinks: 0, MaxLinks: 2, Priority: 5},
	}
}

// DefaultSkipSelectors returns selectors for zones that never receive links
func DefaultSkipSelectors() []string {
	return []string{
		"nav", "header", "footer", "aside", "figcaption", "blockquote",
		".faq", "#faq", "[class*=faq]", "[itemtype*=FAQPage]",
		".references", "#references", ".sources", ".bibliography",
		".toc", "#toc", ".table-of-contents",
		".author-bio", ".related-posts", ".breadcrumb",
	}
}

// DefaultConfig returns the default distribution configuration
func DefaultConfig() Config {
	return Config{
		Zones:                DefaultZones(),
		TotalTargetLinks:     10,
		MinParagraphLength:   60,
		MaxLinksPerParagraph: 2,
		MinWordsBetweenLinks: 50,
		SkipSelectors:        DefaultSkipSelectors(),
		MaxInjectionAttempts: 3,
		Scoring: ScoringConfig{
			MinWords:       3,
			MaxWords:       8,
			MinPhraseChars: 12,
			ContextWindow:  5,
			Weights: ScoringWeights{
				Semantic:    0.30,
				Naturalness: 0.25,
				SEO:         0.20,
			},
			MinQualityScore:       75,
			MaxCandidates:         15,
			MaxOverlapWithHeading: 0.4,
		},
	}
}

// defaults fills zero-valued fields from DefaultConfig so a partially
// populated Config behaves like a partial override. Booleans are left as given.
func (c *Config) defaults() {
	d := DefaultConfig()
	if len(c.Zones) == 0 {
		c.Zones = d.Zones
	}
	if c.TotalTargetLinks <= 0 {
		c.TotalTargetLinks = d.TotalTargetLinks
	}
	if c.MinParagraphLength <= 0 {
		c.MinParagraphLength = d.MinParagraphLength
	}
	if c.MaxLinksPerParagraph <= 0 {
		c.MaxLinksPerParagraph = d.MaxLinksPerParagraph
	}
	// Negative values are kept so a copy of the config still means the
	// same thing when defaults run again
	if c.MinWordsBetweenLinks == 0 {
		c.MinWordsBetweenLinks = d.MinWordsBetweenLinks
	}
	if c.SkipSelectors == nil {
		c.SkipSelectors = d.SkipSelectors
	}
	if c.MaxInjectionAttempts <= 0 {
		c.MaxInjectionAttempts = d.MaxInjectionAttempts
	}

	s := &c.Scoring
	if s.MinWords <= 0 {
		s.MinWords = d.Scoring.MinWords
	}
	if s.MaxWords <= 0 {
		s.MaxWords = d.Scoring.MaxWords
	}
	if s.MaxWords < s.MinWords {
		s.MaxWords = s.MinWords
	}
	if s.MinPhraseChars <= 0 {
		s.MinPhraseChars = d.Scoring.MinPhraseChars
	}
	if s.ContextWindow <= 0 {
		s.ContextWindow = d.Scoring.ContextWindow
	}
	if s.Weights == (ScoringWeights{}) {
		s.Weights = d.Scoring.Weights
	}
	if s.MinQualityScore == 0 {
		s.MinQualityScore = d.Scoring.MinQualityScore
	}
	if s.MaxCandidates <= 0 {
		s.MaxCandidates = d.Scoring.MaxCandidates
	}
	if s.MaxOverlapWithHeading == 0 {
		s.MaxOverlapWithHeading = d.Scoring.MaxOverlapWithHeading
	}
}

// minSpacing is the effective minimum number of words between links
func (c Config) minSpacing() int {
	return max(0, c.MinWordsBetweenLinks)
}

// maxHeadingOverlap is the effective heading overlap limit
func (c ScoringConfig) maxHeadingOverlap() float64 {
	return max(0, c.MaxOverlapWithHeading)
}

// Validate checks zone definitions for contradictions
func (c Config) Validate() error {
	seen := make(map[string]bool, len(c.Zones))
	for _, z := range c.Zones {
		if z.Name == "" {
			return fmt.Errorf("zone name is required")
		}
		if seen[z.Name] {
			return fmt.Errorf("duplicate zone %q", z.Name)
		}
		seen[z.Name] = true
		if z.EndPercent <= z.StartPercent {
			return fmt.Errorf("zone %q: end_percent must be greater than start_percent", z.Name)
		}
		if z.MinLinks < 0 || z.MaxLinks < 0 {
			return fmt.Errorf("zone %q: link quotas cannot be negative", z.Name)
		}
		if z.MinLinks > z.MaxLinks {
			return fmt.Errorf("zone %q: min_links %d exceeds max_links %d", z.Name, z.MinLinks, z.MaxLinks)
		}
	}
	return nil
}

// LoadConfig reads a YAML configuration file over DefaultConfig
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
