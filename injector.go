package interlinker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// phrasePattern builds a case-insensitive matcher for phrase. Word
// boundaries are only asserted on edges that are word characters, and any
// run of whitespace between words matches.
func phrasePattern(phrase string) (*regexp.Regexp, error) {
	fields := strings.Fields(phrase)
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = regexp.QuoteMeta(f)
	}

	var sb strings.Builder
	sb.WriteString("(?i)")
	if r, _ := utf8.DecodeRuneInString(phrase); isASCIIWord(r) {
		sb.WriteString(`\b`)
	}
	sb.WriteString(strings.Join(quoted, `\s+`))
	if r, _ := utf8.DecodeLastRuneInString(phrase); isASCIIWord(r) {
		sb.WriteString(`\b`)
	}
	return regexp.Compile(sb.String())
}

func isASCIIWord(r rune) bool {
	return r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// insideAnchor reports whether n has an anchor ancestor
func insideAnchor(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.DataAtom == atom.A {
			return true
		}
	}
	return false
}

// linkableTextNodes returns text nodes under el that are not already
// linked, in document order
func linkableTextNodes(el *html.Node) []*html.Node {
	var nodes []*html.Node
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.A, atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		if n.Type == html.TextNode {
			nodes = append(nodes, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(el)
	return nodes
}

// injectLink wraps the first unlinked occurrence of phrase inside el in an
// anchor pointing at href and returns the token offset of that occurrence
// within the element text. It reports false when no such occurrence
// exists, for instance when the phrase spans an inline tag boundary.
func injectLink(el *html.Node, phrase, href string) (int, bool) {
	if strings.TrimSpace(phrase) == "" || insideAnchor(el) {
		return 0, false
	}
	re, err := phrasePattern(phrase)
	if err != nil {
		return 0, false
	}

	for _, text := range linkableTextNodes(el) {
		loc := re.FindStringIndex(text.Data)
		if loc == nil {
			continue
		}
		offset := tokenIndex(textBefore(el, text) + text.Data[:loc[0]])
		splitAndLink(text, loc[0], loc[1], href)
		return offset, true
	}
	return 0, false
}

// splitAndLink replaces text with before, <a href>match</a> and after
func splitAndLink(text *html.Node, start, end int, href string) {
	parent := text.Parent
	data := text.Data

	anchor := &html.Node{
		Type:     html.ElementNode,
		Data:     "a",
		DataAtom: atom.A,
		Attr:     []html.Attribute{{Key: "href", Val: href}},
	}
	anchor.AppendChild(&html.Node{Type: html.TextNode, Data: data[start:end]})

	if start > 0 {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: data[:start]}, text)
	}
	parent.InsertBefore(anchor, text)
	if end < len(data) {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: data[end:]}, text)
	}
	parent.RemoveChild(text)
}
