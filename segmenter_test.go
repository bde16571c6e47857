package interlinker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parseTestDoc(t *testing.T, content string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(content))
	require.NoError(t, err)
	return doc
}

const longText = "This paragraph is comfortably longer than the sixty character minimum length."

func TestSegmentPositionsUseUnfilteredList(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	doc := parseTestDoc(t, `<html><body>
		<p>Too short.</p>
		<p>`+longText+`</p>
		<nav><p>`+longText+`</p></nav>
		<ul><li>`+longText+`</li></ul>
	</body></html>`)

	elements := e.segment(doc)
	require.Len(t, elements, 2)

	assert.Equal(t, 1, elements[0].Index)
	assert.InDelta(t, 25.0, elements[0].Position, 0.001)
	assert.Equal(t, "early-body", elements[0].Zone)
	assert.Equal(t, 2, elements[0].DocumentWordOffset)

	assert.Equal(t, 3, elements[1].Index)
	assert.InDelta(t, 75.0, elements[1].Position, 0.001)
	assert.Equal(t, "late-body", elements[1].Zone)
	assert.Equal(t, 2+2*wordCount(longText), elements[1].DocumentWordOffset)
}

func TestSegmentExcludesSaturatedElements(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	doc := parseTestDoc(t, `<html><body>
		<p>`+longText+` <a href="/a">one</a> and <a href="/b">two</a></p>
		<p>`+longText+` <a href="/a">one</a></p>
	</body></html>`)

	elements := e.segment(doc)
	require.Len(t, elements, 1)
	assert.Equal(t, 1, elements[0].Index)
	assert.Equal(t, 1, elements[0].LinkCount)
}

func TestSegmentSkipSelectorsMatchAncestors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"footer", `<footer><div><p>` + longText + `</p></div></footer>`},
		{"faq class", `<section class="faq"><p>` + longText + `</p></section>`},
		{"faq schema", `<div itemtype="https://schema.org/FAQPage"><p>` + longText + `</p></div>`},
		{"references", `<ol id="references"><li>` + longText + `</li></ol>`},
		{"blockquote", `<blockquote><p>` + longText + `</p></blockquote>`},
	}

	e := newTestEngine(t, DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseTestDoc(t, "<html><body>"+tt.content+"</body></html>")
			assert.Empty(t, e.segment(doc))
		})
	}
}

func TestSegmentEmptySkipList(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SkipSelectors = []string{}
	e := newTestEngine(t, cfg)

	doc := parseTestDoc(t, `<html><body><nav><p>`+longText+`</p></nav></body></html>`)
	assert.Len(t, e.segment(doc), 1)
}

func TestNodeTextCollapsesWhitespace(t *testing.T) {
	doc := parseTestDoc(t, "<html><body><p>  Hello\n\t<b>bold</b>   world <script>var x;</script></p></body></html>")
	nodes := blockNodes(doc)
	require.Len(t, nodes, 1)
	assert.Equal(t, "Hello bold world", nodeText(nodes[0]))
}

func TestExistingHrefs(t *testing.T) {
	doc := parseTestDoc(t, `<html><body><a href="https://example.com/a/">A</a><a href="">empty</a><a>none</a></body></html>`)
	hrefs := existingHrefs(doc)
	assert.Equal(t, map[string]bool{"https://example.com/a": true}, hrefs)
}

func TestSegmentNestedBlocks(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	doc := parseTestDoc(t, `<html><body><ul>
		<li>Intro words here <p>`+longText+`</p></li>
		<li><p>`+longText+`</p></li>
	</ul></body></html>`)

	elements := e.segment(doc)
	require.Len(t, elements, 4)

	n := wordCount(longText)
	offsets := []int{elements[0].DocumentWordOffset, elements[1].DocumentWordOffset, elements[2].DocumentWordOffset, elements[3].DocumentWordOffset}
	assert.Equal(t, []int{0, 3, 3 + n, 3 + n}, offsets)

	// Only the outer items advance the spacing cursor
	cursor := []int{elements[0].cursorWords, elements[1].cursorWords, elements[2].cursorWords, elements[3].cursorWords}
	assert.Equal(t, []int{3 + n, 0, n, 0}, cursor)
}

func TestSegmentNestedInsideSaturatedBlock(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	doc := parseTestDoc(t, `<html><body><ul>
		<li><a href="/a">one</a> <a href="/b">two</a> <p>`+longText+`</p></li>
	</ul></body></html>`)

	elements := e.segment(doc)
	require.Len(t, elements, 1)
	assert.Equal(t, 1, elements[0].Index)
	assert.Equal(t, 2, elements[0].DocumentWordOffset)
	assert.Equal(t, wordCount(longText), elements[0].cursorWords)
}

func TestTokenIndex(t *testing.T) {
	assert.Equal(t, 0, tokenIndex(""))
	assert.Equal(t, 0, tokenIndex("   "))
	assert.Equal(t, 2, tokenIndex("Plan a "))
	assert.Equal(t, 1, tokenIndex("use ("))
}
