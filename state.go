package interlinker

// State is the mutable bookkeeping of one document pass. It must not be
// shared between documents; call Reset or create a new one per pass.
type State struct {
	ZoneCounts       map[string]int
	Injected         int
	CumulativeWords  int // Words of elements visited so far, in processing order
	LastLinkPosition int // Cursor value at which the previous link counts as placed

	minSpacing    int
	usedAnchors   map[string]bool
	failedAnchors map[string]bool // Anchors whose injection missed; never retried
	usedTargets   map[string]bool
	placed        []int // Document word positions of placed links
}

// NewState returns a State ready for a pass with cfg
func NewState(cfg Config) *State {
	s := &State{}
	s.Reset(cfg)
	return s
}

// Reset clears all counters so the first link is never blocked by spacing
func (s *State) Reset(cfg Config) {
	s.ZoneCounts = make(map[string]int, len(cfg.Zones))
	for _, z := range cfg.Zones {
		s.ZoneCounts[z.Name] = 0
	}
	s.Injected = 0
	s.CumulativeWords = 0
	s.minSpacing = cfg.minSpacing()
	s.LastLinkPosition = -s.minSpacing
	s.usedAnchors = make(map[string]bool)
	s.failedAnchors = make(map[string]bool)
	s.usedTargets = make(map[string]bool)
	s.placed = s.placed[:0]
}

// spacingReady reports whether enough words were processed since the last link
func (s *State) spacingReady() bool {
	return s.CumulativeWords-s.LastLinkPosition >= s.minSpacing
}

// tooClose reports whether a link at document word position pos would sit
// within the minimum spacing of an already placed link
func (s *State) tooClose(pos int) bool {
	for _, p := range s.placed {
		d := pos - p
		if d < 0 {
			d = -d
		}
		if d < s.minSpacing {
			return true
		}
	}
	return false
}

// advance accounts for a visited element
func (s *State) advance(words int) {
	s.CumulativeWords += words
}

// AnchorUsed reports whether a normalised anchor was already placed
func (s *State) AnchorUsed(normalized string) bool {
	return s.usedAnchors[normalized]
}

// AnchorFailed reports whether a normalised anchor already missed in this pass
func (s *State) AnchorFailed(normalized string) bool {
	return s.failedAnchors[normalized]
}

// failAnchor retires an anchor after a missed injection
func (s *State) failAnchor(normalized string) {
	s.failedAnchors[normalized] = true
}

// cursorAt is the cursor value at which a link in the element being
// visited counts as placed: the middle of the element
func (s *State) cursorAt(elementWords int) int {
	return s.CumulativeWords + elementWords/2
}

// TargetUsed reports whether a target URL already received a link
func (s *State) TargetUsed(url string) bool {
	return s.usedTargets[trimSlash(url)]
}

// markTarget records a target as linked without placing a new link
func (s *State) markTarget(url string) {
	s.usedTargets[trimSlash(url)] = true
}

// recordLink books a successful injection at cursorAt(elementWords)
func (s *State) recordLink(zone, normalized, url string, elementWords, docPos int) {
	s.ZoneCounts[zone]++
	s.Injected++
	s.LastLinkPosition = s.cursorAt(elementWords)
	s.usedAnchors[normalized] = true
	s.markTarget(url)
	s.placed = append(s.placed, docPos)
}
