package interlinker

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// SEOPattern is a high-value phrasing pattern and its score bonus
type SEOPattern struct {
	Name    string  `json:"name" yaml:"name"`
	Pattern string  `json:"pattern" yaml:"pattern"` // RE2 syntax, matched against the lower-cased candidate
	Boost   float64 `json:"boost" yaml:"boost"`

	re *regexp.Regexp
}

// Heuristics holds the word lists and pattern tables used by the scorer.
// They are data so they can be tuned without touching control flow.
type Heuristics struct {
	Stopwords        []string     `json:"stopwords" yaml:"stopwords"`
	ToxicAnchors     []string     `json:"toxic_anchors" yaml:"toxic_anchors"`
	SEOPatterns      []SEOPattern `json:"seo_patterns" yaml:"seo_patterns"`
	DescriptiveVerbs []string     `json:"descriptive_verbs" yaml:"descriptive_verbs"`

	stopwords map[string]bool
	verbs     map[string]bool
	toxic     []string // normalised, space padded for word-boundary containment
}

// DefaultHeuristics returns the built-in English tables
func DefaultHeuristics() *Heuristics {
	h := &Heuristics{
		Stopwords: []string{
			"a", "about", "above", "after", "again", "against", "all", "also", "am", "an", "and", "any", "are",
			"as", "at", "be", "because", "been", "before", "being", "below", "between", "both", "but", "by",
			"can", "could", "did", "do", "does", "doing", "down", "during", "each", "even", "every", "few",
			"for", "from", "further", "had", "has", "have", "having", "he", "her", "here", "hers", "him",
			"his", "how", "i", "if", "in", "into", "is", "it", "its", "just", "may", "me", "might", "more",
			"most", "much", "must", "my", "no", "nor", "not", "now", "of", "off", "on", "once", "only", "or",
			"other", "our", "ours", "out", "over", "own", "same", "she", "should", "so", "some", "such",
			"than", "that", "the", "their", "theirs", "them", "then", "there", "these", "they", "this",
			"those", "through", "to", "too", "under", "until", "up", "us", "very", "was", "we", "were",
			"what", "when", "where", "which", "while", "who", "whom", "why", "will", "with", "would",
			"you", "your", "yours",
		},
		ToxicAnchors: []string{
			"click here", "click this", "read more", "learn more", "find out more", "see more",
			"more info", "more information", "this link", "this page", "this article", "this post",
			"go here", "check it out", "check this out", "continue reading", "visit this site",
			"tap here", "view more",
		},
		SEOPatterns: []SEOPattern{
			{Name: "complete-guide", Pattern: `\b(complete|ultimate|definitive) guide\b`, Boost: 15},
			{Name: "step-by-step", Pattern: `\bstep[- ]by[- ]step\b`, Boost: 12},
			{Name: "how-to", Pattern: `\bhow[- ]to\b`, Boost: 12},
			{Name: "best-practices", Pattern: `\b(best|top|proven)\b.*\bpractices\b`, Boost: 14},
			{Name: "strategy", Pattern: `\bstrateg(y|ies)\b`, Boost: 8},
			{Name: "tips-techniques", Pattern: `\b(tips|techniques|tactics)\b`, Boost: 8},
			{Name: "learning-resource", Pattern: `\b(tutorial|checklist|framework|blueprint)\b`, Boost: 10},
			{Name: "comparison", Pattern: `\b(comparison|versus|vs|alternatives)\b`, Boost: 6},
			{Name: "audience-level", Pattern: `\b(beginners?|advanced|essential)\b`, Boost: 6},
			{Name: "benefits", Pattern: `\b(benefits|advantages) of\b`, Boost: 7},
		},
		DescriptiveVerbs: []string{
			"optimizing", "building", "creating", "improving", "developing", "designing", "implementing",
			"managing", "choosing", "planning", "measuring", "understanding", "boosting", "scaling",
			"writing", "launching", "automating", "analyzing", "growing", "increasing", "reducing",
			"mastering", "selecting", "testing", "tracking",
		},
	}
	if err := h.compile(); err != nil {
		panic(fmt.Sprintf("interlinker: invalid built-in heuristics: %v", err))
	}
	return h
}

// LoadHeuristics reads a YAML file whose lists replace the matching default tables
func LoadHeuristics(path string) (*Heuristics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read heuristics file: %w", err)
	}

	var override Heuristics
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse heuristics file: %w", err)
	}

	h := DefaultHeuristics()
	if override.Stopwords != nil {
		h.Stopwords = override.Stopwords
	}
	if override.ToxicAnchors != nil {
		h.ToxicAnchors = override.ToxicAnchors
	}
	if override.SEOPatterns != nil {
		h.SEOPatterns = override.SEOPatterns
	}
	if override.DescriptiveVerbs != nil {
		h.DescriptiveVerbs = override.DescriptiveVerbs
	}

	if err := h.compile(); err != nil {
		return nil, err
	}
	return h, nil
}

// compile builds the lookup sets and regular expressions
func (h *Heuristics) compile() error {
	h.stopwords = toSet(h.Stopwords)
	h.verbs = toSet(h.DescriptiveVerbs)

	h.toxic = h.toxic[:0]
	for _, phrase := range h.ToxicAnchors {
		if n := normalizeText(phrase); n != "" {
			h.toxic = append(h.toxic, " "+n+" ")
		}
	}

	for i := range h.SEOPatterns {
		re, err := regexp.Compile(h.SEOPatterns[i].Pattern)
		if err != nil {
			return fmt.Errorf("invalid SEO pattern %q: %w", h.SEOPatterns[i].Name, err)
		}
		h.SEOPatterns[i].re = re
	}
	return nil
}

// IsStopword reports whether a lower-cased word is on the stopword list
func (h *Heuristics) IsStopword(word string) bool {
	return h.stopwords[word]
}

// IsToxic reports whether a phrase contains a generic anchor such as "click here"
func (h *Heuristics) IsToxic(phrase string) bool {
	padded := " " + normalizeText(phrase) + " "
	for _, t := range h.toxic {
		if strings.Contains(padded, t) {
			return true
		}
	}
	return false
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(strings.TrimSpace(w))] = true
	}
	return set
}
