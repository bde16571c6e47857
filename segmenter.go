package interlinker

import (
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// BlockElement is a paragraph or list item eligible for link injection
type BlockElement struct {
	Index              int     // Position among all enumerated block elements
	Node               *html.Node
	Text               string  // Whitespace-collapsed text content
	Position           float64 // 0-100 percentile within the document
	LinkCount          int
	WordCount          int
	DocumentWordOffset int // Words of document text before this one
	Zone               string

	cursorWords int // Words this element adds to the spacing cursor
}

type matcher interface {
	Match(n *html.Node) bool
}

// compileSelectors compiles skip selectors. Malformed selectors are logged
// and dropped, which makes them match nothing.
func compileSelectors(selectors []string, logger *slog.Logger) []matcher {
	matchers := make([]matcher, 0, len(selectors))
	for _, sel := range selectors {
		sel = strings.TrimSpace(sel)
		if sel == "" {
			continue
		}
		compiled, err := cascadia.Compile(sel)
		if err != nil {
			logger.Warn("ignoring invalid skip selector", "selector", sel, "error", err)
			continue
		}
		matchers = append(matchers, compiled)
	}
	return matchers
}

// isBlock reports whether n is a paragraph or list item
func isBlock(n *html.Node) bool {
	return n.Type == html.ElementNode && (n.DataAtom == atom.P || n.DataAtom == atom.Li)
}

// blockNodes returns every paragraph and list item under root in document order
func blockNodes(root *html.Node) []*html.Node {
	var nodes []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			}
		}
		if isBlock(n) {
			nodes = append(nodes, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return nodes
}

// segment enumerates block elements and keeps the eligible ones.
// Positions and word offsets are computed against the unfiltered list.
// A block nested in another block shares its words with the outer one, so
// its offset is taken inside the outer block and only outermost blocks
// advance the document word count.
func (e *Engine) segment(root *html.Node) []*BlockElement {
	nodes := blockNodes(root)
	total := len(nodes)
	if total == 0 {
		return nil
	}

	var eligible []*BlockElement
	offsets := make(map[*html.Node]int, total)
	docWords := 0
	for i, n := range nodes {
		text := nodeText(n)
		words := wordCount(text)
		offset := docWords
		if outer := enclosingBlock(n, offsets); outer != nil {
			offset = offsets[outer] + tokenIndex(textBefore(outer, n))
		} else {
			docWords += words
		}
		offsets[n] = offset

		if e.skipped(n) {
			e.logger.Debug("skipping element in excluded zone", "index", i)
			continue
		}
		if len(text) < e.config.MinParagraphLength {
			continue
		}
		links := countLinks(n)
		if links >= e.config.MaxLinksPerParagraph {
			e.logger.Debug("skipping saturated element", "index", i, "links", links)
			continue
		}

		position := float64(i) / float64(total) * 100
		eligible = append(eligible, &BlockElement{
			Index:              i,
			Node:               n,
			Text:               text,
			Position:           position,
			LinkCount:          links,
			WordCount:          words,
			DocumentWordOffset: offset,
			Zone:               ZoneFor(position, e.config.Zones).Name,
			cursorWords:        words,
		})
	}

	// Words of a block inside an eligible block are already counted when
	// the outer block is visited
	kept := make(map[*html.Node]bool, len(eligible))
	for _, el := range eligible {
		kept[el.Node] = true
	}
	for _, el := range eligible {
		for p := el.Node.Parent; p != nil; p = p.Parent {
			if kept[p] {
				el.cursorWords = 0
				break
			}
		}
	}

	return eligible
}

// enclosingBlock returns the outermost enumerated block containing n
func enclosingBlock(n *html.Node, enumerated map[*html.Node]int) *html.Node {
	var outer *html.Node
	for p := n.Parent; p != nil; p = p.Parent {
		if _, ok := enumerated[p]; ok {
			outer = p
		}
	}
	return outer
}

// skipped reports whether n or one of its ancestors matches a skip selector
func (e *Engine) skipped(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		for _, m := range e.skip {
			if m.Match(cur) {
				return true
			}
		}
	}
	return false
}

// nodeText returns the text content of n with whitespace collapsed
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return strings.TrimSpace(collapseWhitespace(sb.String()))
}

// textBefore returns the raw text under root that precedes target in
// document order, with the same exclusions as nodeText
func textBefore(root, target *html.Node) string {
	var sb strings.Builder
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
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	for c := root.FirstChild; c != nil && !found; c = c.NextSibling {
		f(c)
	}
	return sb.String()
}

// tokenIndex is the index of the token that starts right after prefix.
// A prefix ending inside a token, like "(" before a word, shares that token.
func tokenIndex(prefix string) int {
	n := wordCount(prefix)
	if r, _ := utf8.DecodeLastRuneInString(prefix); n > 0 && !unicode.IsSpace(r) {
		n--
	}
	return n
}

// countLinks counts anchor elements under n
func countLinks(n *html.Node) int {
	count := 0
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			count++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return count
}

// existingHrefs collects the href of every anchor under root
func existingHrefs(root *html.Node) map[string]bool {
	hrefs := make(map[string]bool)
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			for _, attr := range n.Attr {
				if attr.Key == "href" && attr.Val != "" {
					hrefs[trimSlash(attr.Val)] = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(root)
	return hrefs
}
