package interlinker

import (
	"fmt"
	"log/slog"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/docutag/interlinker/models"
)

const reasonNotFound = "anchor text not found outside existing links"

// Recorder receives pass statistics. The metrics package provides a
// Prometheus implementation.
type Recorder interface {
	DocumentProcessed(linksInjected int, duration time.Duration)
	LinkInjected(zone string)
	InjectionFailed(zone string)
	CandidatesRejected(reason string, count int)
}

type noopRecorder struct{}

func (noopRecorder) DocumentProcessed(int, time.Duration) {}
func (noopRecorder) LinkInjected(string)                  {}
func (noopRecorder) InjectionFailed(string)               {}
func (noopRecorder) CandidatesRejected(string, int)       {}

// Engine injects contextual internal links into HTML documents.
// It is immutable after New and safe for concurrent use; every call to
// ProcessContent owns its own State.
type Engine struct {
	config     Config
	heuristics *Heuristics
	logger     *slog.Logger
	recorder   Recorder
	skip       []matcher
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger used for per-element decisions
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHeuristics replaces the built-in scoring tables
func WithHeuristics(h *Heuristics) Option {
	return func(e *Engine) {
		if h != nil {
			e.heuristics = h
		}
	}
}

// WithRecorder sets the statistics sink
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// New creates an engine. Zero-valued config fields take their defaults.
func New(config Config, opts ...Option) (*Engine, error) {
	config.defaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	config.Zones = append([]Zone(nil), config.Zones...)

	e := &Engine{
		config:   config,
		logger:   slog.Default(),
		recorder: noopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.heuristics == nil {
		e.heuristics = DefaultHeuristics()
	}
	e.skip = compileSelectors(config.SkipSelectors, e.logger)

	return e, nil
}

// Config returns a copy of the effective configuration
func (e *Engine) Config() Config {
	c := e.config
	c.Zones = append([]Zone(nil), e.config.Zones...)
	c.SkipSelectors = append([]string(nil), e.config.SkipSelectors...)
	return c
}

// ProcessContent runs one injection pass over content and returns the
// linked HTML with its report. Documents without linkable elements are
// returned unchanged. An error is only returned when content cannot be parsed.
func (e *Engine) ProcessContent(content string, pages []models.PageInfo, baseURL string) (*models.InjectionResult, error) {
	start := time.Now()
	state := NewState(e.config)

	doc, err := parseDocument(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	result := &models.InjectionResult{
		HTML:             content,
		InjectionDetails: []models.InjectionRecord{},
	}

	elements := e.segment(doc.root)
	targets := e.prepareTargets(pages, baseURL, existingHrefs(doc.root), state)
	e.logger.Debug("segmented document", "eligible_elements", len(elements), "targets", len(targets))

	if len(elements) > 0 && len(targets) > 0 {
		result.InjectionDetails = e.run(elements, targets, state)
	}

	if state.Injected > 0 {
		rendered, err := doc.render()
		if err != nil {
			return nil, err
		}
		result.HTML = rendered
	}

	result.LinksInjected = state.Injected
	result.Distribution = make(map[string]int, len(e.config.Zones))
	for _, z := range e.config.Zones {
		result.Distribution[z.Name] = state.ZoneCounts[z.Name]
		if state.ZoneCounts[z.Name] < z.MinLinks {
			result.UnderfilledZones = append(result.UnderfilledZones, z.Name)
		}
	}

	e.recorder.DocumentProcessed(result.LinksInjected, time.Since(start))
	return result, nil
}

// Segment returns the eligible block elements of content in document order
func (e *Engine) Segment(content string) ([]*BlockElement, error) {
	doc, err := parseDocument(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return e.segment(doc.root), nil
}

// run is the controller loop: zones in priority order, elements of each
// zone in document order
func (e *Engine) run(elements []*BlockElement, targets []*target, state *State) []models.InjectionRecord {
	records := []models.InjectionRecord{}
	groups := groupByZone(elements)

zones:
	for _, zone := range sortZonesByPriority(e.config.Zones) {
		for _, el := range groups[zone.Name] {
			if state.Injected >= e.config.TotalTargetLinks {
				break zones
			}
			if state.ZoneCounts[zone.Name] >= zone.MaxLinks {
				break
			}
			if !state.spacingReady() {
				e.logger.Debug("spacing not met", "index", el.Index, "words_since_link", state.CumulativeWords-state.LastLinkPosition)
				state.advance(el.cursorWords)
				continue
			}

			records = append(records, e.processElement(el, zone, targets, state)...)
			state.advance(el.cursorWords)
		}
	}

	return records
}

// processElement tries candidates for each available page until one link
// is placed or the attempt budget is spent. An anchor that misses is
// recorded once and retired for the rest of the pass.
func (e *Engine) processElement(el *BlockElement, zone Zone, targets []*target, state *State) []models.InjectionRecord {
	candidates := e.GenerateCandidates(el.Text)
	if len(candidates) == 0 {
		return nil
	}
	heading := nearestHeading(el.Node)

	var records []models.InjectionRecord
	attempts := 0
	for _, t := range targets {
		if !e.config.AllowRepeatTargets && state.TargetUsed(t.url) {
			continue
		}

		ranked, rejected := e.rank(candidates, el.Text, t)
		ranked = e.placeable(ranked, el, state, rejected)
		for reason, n := range rejected {
			e.recorder.CandidatesRejected(reason, n)
		}
		if len(ranked) == 0 {
			continue
		}

		for _, choice := range orderByHeadingOverlap(ranked, heading, e.config.Scoring.maxHeadingOverlap()) {
			if attempts >= e.config.MaxInjectionAttempts {
				return records
			}
			attempts++

			c := choice.candidate
			rec := models.InjectionRecord{
				AnchorText:         c.Text,
				NormalizedAnchor:   c.Normalized,
				TargetURL:          t.url,
				TargetSlug:         t.page.Slug,
				Zone:               zone.Name,
				ElementIndex:       el.Index,
				WordOffset:         state.cursorAt(el.cursorWords),
				DocumentWordOffset: el.DocumentWordOffset + c.Offset,
				Metrics:            c.metrics(choice.overlap),
			}

			offset, ok := injectLink(el.Node, c.Text, t.url)
			if !ok {
				state.failAnchor(c.Normalized)
				rec.Reason = reasonNotFound
				e.logger.Warn("anchor injection failed", "anchor", c.Text, "target", t.url, "zone", zone.Name, "index", el.Index)
				e.recorder.InjectionFailed(zone.Name)
				records = append(records, rec)
				continue
			}

			rec.Success = true
			rec.DocumentWordOffset = el.DocumentWordOffset + offset
			state.recordLink(zone.Name, c.Normalized, t.url, el.cursorWords, rec.DocumentWordOffset)
			rec.Justification = justify(choice, zone, t)
			e.recorder.LinkInjected(zone.Name)
			e.logger.Debug("link injected", "anchor", c.Text, "target", t.url, "zone", zone.Name, "quality", c.Quality)
			return append(records, rec)
		}
	}

	return records
}

// placeable drops candidates whose anchor text is already used or retired,
// or whose position is too close to a placed link
func (e *Engine) placeable(ranked []AnchorCandidate, el *BlockElement, state *State, rejected map[string]int) []AnchorCandidate {
	out := ranked[:0]
	for _, c := range ranked {
		switch {
		case state.AnchorUsed(c.Normalized):
			rejected[RejectUsedAnchor]++
		case state.AnchorFailed(c.Normalized):
			rejected[RejectFailedAnchor]++
		case state.tooClose(el.DocumentWordOffset + c.Offset):
			rejected[RejectTooClose]++
		default:
			out = append(out, c)
		}
	}
	return out
}

// prepareTargets orders pages so longer, more specific titles are tried
// first. Pages already linked from the document count as used.
func (e *Engine) prepareTargets(pages []models.PageInfo, baseURL string, linked map[string]bool, state *State) []*target {
	targets := make([]*target, 0, len(pages))
	seen := make(map[string]bool, len(pages))
	for _, page := range pages {
		if page.Slug == "" {
			e.logger.Debug("ignoring page without slug", "title", page.Title)
			continue
		}
		t := e.newTarget(page, baseURL)
		key := trimSlash(t.url)
		if seen[key] {
			continue
		}
		seen[key] = true
		if linked[key] {
			state.markTarget(t.url)
		}
		targets = append(targets, t)
	}

	sort.SliceStable(targets, func(i, j int) bool {
		return utf8.RuneCountInString(targets[i].page.Title) > utf8.RuneCountInString(targets[j].page.Title)
	})
	return targets
}

// justify explains a successful placement for the report
func justify(choice rankedChoice, zone Zone, t *target) string {
	c := choice.candidate
	s := fmt.Sprintf("quality %.1f (semantic %.1f, naturalness %.1f, seo %.1f) in zone %s for %q",
		c.Quality, c.Semantic, c.Naturalness, c.SEO, zone.Name, t.page.Title)
	if choice.fallback {
		s += fmt.Sprintf("; heading overlap %.2f accepted as best available", choice.overlap)
	}
	return s
}
