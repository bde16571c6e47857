package interlinker

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func isHeading(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.H2, atom.H3, atom.H4:
		return true
	}
	return false
}

// nearestHeading returns the text of the closest h2-h4 above n. The
// containing section or article is searched first, then previous siblings
// of n and of each of its ancestors.
func nearestHeading(n *html.Node) string {
	for anc := n.Parent; anc != nil; anc = anc.Parent {
		if anc.Type == html.ElementNode && (anc.DataAtom == atom.Section || anc.DataAtom == atom.Article) {
			if h := lastHeadingBefore(anc, n); h != nil {
				return nodeText(h)
			}
			break
		}
	}

	for cur := n; cur != nil; cur = cur.Parent {
		for sib := cur.PrevSibling; sib != nil; sib = sib.PrevSibling {
			if isHeading(sib) {
				return nodeText(sib)
			}
		}
	}
	return ""
}

// lastHeadingBefore walks root in document order and returns the last
// heading seen before target
func lastHeadingBefore(root, target *html.Node) *html.Node {
	var last *html.Node
	found := false
	var f func(*html.Node)
	f = func(n *html.Node) {
		if found {
			return
		}
		if n == target {
			found = true
			return
		}
		if isHeading(n) {
			last = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(root)
	return last
}

// headingOverlap is the fraction of the phrase's non-trivial words
// (longer than three characters) that also appear in the heading
func headingOverlap(phrase, heading string) float64 {
	if heading == "" {
		return 0
	}
	hs := wordSet(words(heading))

	var significant []string
	for _, w := range words(phrase) {
		if len(w) > 3 {
			significant = append(significant, w)
		}
	}
	return overlapRatio(significant, hs)
}

// rankedChoice is a candidate in the order it will be tried by the injector
type rankedChoice struct {
	candidate AnchorCandidate
	overlap   float64
	fallback  bool // Chosen although it overlaps the heading
}

// orderByHeadingOverlap keeps ranked candidates that do not echo the
// heading. When none qualifies the ranked list is returned unchanged and
// flagged as a fallback.
func orderByHeadingOverlap(ranked []AnchorCandidate, heading string, maxOverlap float64) []rankedChoice {
	choices := make([]rankedChoice, 0, len(ranked))
	for _, c := range ranked {
		overlap := headingOverlap(c.Text, heading)
		if overlap <= maxOverlap {
			choices = append(choices, rankedChoice{candidate: c, overlap: overlap})
		}
	}
	if len(choices) > 0 {
		return choices
	}

	for _, c := range ranked {
		choices = append(choices, rankedChoice{
			candidate: c,
			overlap:   headingOverlap(c.Text, heading),
			fallback:  true,
		})
	}
	return choices
}

// selectByHeadingOverlap returns the first candidate whose heading overlap
// is within maxOverlap, else the best-scored one
func selectByHeadingOverlap(ranked []AnchorCandidate, heading string, maxOverlap float64) (AnchorCandidate, bool) {
	choices := orderByHeadingOverlap(ranked, heading, maxOverlap)
	if len(choices) == 0 {
		return AnchorCandidate{}, false
	}
	return choices[0].candidate, true
}
