package models

import "time"

// PageInfo describes a target page that links may point to
type PageInfo struct {
	Title             string   `json:"title" yaml:"title"`
	Slug              string   `json:"slug" yaml:"slug"`
	Description       string   `json:"description,omitempty" yaml:"description,omitempty"`
	PrimaryKeyword    string   `json:"primary_keyword,omitempty" yaml:"primary_keyword,omitempty"`
	SecondaryKeywords []string `json:"secondary_keywords,omitempty" yaml:"secondary_keywords,omitempty"`
	Category          string   `json:"category,omitempty" yaml:"category,omitempty"`
	Topics            []string `json:"topics,omitempty" yaml:"topics,omitempty"`
}

// QualityMetrics is a snapshot of the scores behind an anchor choice
type QualityMetrics struct {
	Quality        float64 `json:"quality"`
	Semantic       float64 `json:"semantic"`
	Naturalness    float64 `json:"naturalness"`
	SEO            float64 `json:"seo"`
	Context        float64 `json:"context"`
	HeadingOverlap float64 `json:"heading_overlap"` // Fraction of anchor words shared with the nearest heading
}

// InjectionRecord is the audit entry for one attempted link placement
type InjectionRecord struct {
	Success            bool           `json:"success"`
	AnchorText         string         `json:"anchor_text"`
	NormalizedAnchor   string         `json:"normalized_anchor"`
	TargetURL          string         `json:"target_url"`
	TargetSlug         string         `json:"target_slug"`
	Zone               string         `json:"zone"`
	ElementIndex       int            `json:"element_index"`        // Index of the block element in document order
	WordOffset         int            `json:"word_offset"`          // Processed-word cursor at which the link counts as placed, the middle of its element
	DocumentWordOffset int            `json:"document_word_offset"` // Word position of the link in document order
	Metrics            QualityMetrics `json:"metrics"`
	Justification      string         `json:"justification"`
	Reason             string         `json:"reason,omitempty"` // Why a failed attempt did not inject
}

// InjectionResult is the output of one document pass
type InjectionResult struct {
	HTML             string            `json:"html"`
	LinksInjected    int               `json:"links_injected"`
	Distribution     map[string]int    `json:"distribution"`
	InjectionDetails []InjectionRecord `json:"injection_details"`
	UnderfilledZones []string          `json:"underfilled_zones,omitempty"` // Zones that ended below their minimum
}

// Run is a persisted injection pass
type Run struct {
	ID             string            `json:"id"`
	DocumentSlug   string            `json:"document_slug"`
	BaseURL        string            `json:"base_url"`
	LinksInjected  int               `json:"links_injected"`
	Distribution   map[string]int    `json:"distribution"`
	Injections     []InjectionRecord `json:"injections"`
	ContentPath    string            `json:"content_path,omitempty"` // Storage path of the linked document
	ProcessingTime float64           `json:"processing_time_seconds"`
	CreatedAt      time.Time         `json:"created_at"`
}

// RunSummary is the list view of a run
type RunSummary struct {
	ID            string    `json:"id"`
	DocumentSlug  string    `json:"document_slug"`
	LinksInjected int       `json:"links_injected"`
	CreatedAt     time.Time `json:"created_at"`
}
