package interlinker

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func firstBlock(t *testing.T, content string) *html.Node {
	t.Helper()
	nodes := blockNodes(parseTestDoc(t, "<html><body>"+content+"</body></html>"))
	require.NotEmpty(t, nodes)
	return nodes[0]
}

func renderNode(t *testing.T, n *html.Node) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, html.Render(&buf, n))
	return buf.String()
}

func TestInjectLink(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		phrase string
		want   string
		offset int
		ok     bool
	}{
		{
			name:   "first occurrence only",
			input:  "<p>Plan a content strategy. Then review the content strategy.</p>",
			phrase: "content strategy",
			want:   `<p>Plan a <a href="/t">content strategy</a>. Then review the content strategy.</p>`,
			offset: 2,
			ok:     true,
		},
		{
			name:   "case insensitive keeps original casing",
			input:  "<p>Our Content Strategy matters.</p>",
			phrase: "content strategy",
			want:   `<p>Our <a href="/t">Content Strategy</a> matters.</p>`,
			offset: 1,
			ok:     true,
		},
		{
			name:   "whitespace between words",
			input:  "<p>a content\n   strategy here</p>",
			phrase: "content strategy",
			want:   "<p>a <a href=\"/t\">content\n   strategy</a> here</p>",
			offset: 1,
			ok:     true,
		},
		{
			name:   "skips linked text",
			input:  `<p><a href="/x">content strategy</a> and a content strategy</p>`,
			phrase: "content strategy",
			want:   `<p><a href="/x">content strategy</a> and a <a href="/t">content strategy</a></p>`,
			offset: 4,
			ok:     true,
		},
		{
			name:   "only linked occurrence",
			input:  `<p>See <a href="/x">the content strategy guide</a> now</p>`,
			phrase: "content strategy",
			ok:     false,
		},
		{
			name:   "word boundary",
			input:  "<p>the contents strategy and mycontent strategy</p>",
			phrase: "content strategy",
			ok:     false,
		},
		{
			name:   "spans inline tag",
			input:  "<p>a <em>content</em> strategy</p>",
			phrase: "content strategy",
			ok:     false,
		},
		{
			name:   "inside inline element",
			input:  "<p>a <strong>content strategy</strong> works</p>",
			phrase: "content strategy",
			want:   `<p>a <strong><a href="/t">content strategy</a></strong> works</p>`,
			offset: 1,
			ok:     true,
		},
		{
			name:   "starts inside a token",
			input:  "<p>use (advanced templates) today</p>",
			phrase: "advanced templates",
			want:   `<p>use (<a href="/t">advanced templates</a>) today</p>`,
			offset: 1,
			ok:     true,
		},
		{
			name:   "regexp metacharacters",
			input:  "<p>use C++ (advanced) templates</p>",
			phrase: "C++ (advanced) templates",
			want:   `<p>use <a href="/t">C++ (advanced) templates</a></p>`,
			offset: 1,
			ok:     true,
		},
		{
			name:   "escaped entities",
			input:  "<p>Tom &amp; Jerry cartoons</p>",
			phrase: "Tom & Jerry cartoons",
			want:   `<p><a href="/t">Tom &amp; Jerry cartoons</a></p>`,
			offset: 0,
			ok:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := firstBlock(t, tt.input)
			before := renderNode(t, el)

			offset, ok := injectLink(el, tt.phrase, "/t")
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, renderNode(t, el))
				assert.Equal(t, tt.offset, offset)
			} else {
				assert.Equal(t, before, renderNode(t, el))
			}
		})
	}
}

func TestInjectLinkInsideAnchor(t *testing.T) {
	doc := parseTestDoc(t, `<html><body><a href="/x"><p>content strategy</p></a></body></html>`)
	nodes := blockNodes(doc)
	require.Len(t, nodes, 1)
	_, ok := injectLink(nodes[0], "content strategy", "/t")
	assert.False(t, ok)
}

func TestInjectLinkOffsetSkipsLinkedOccurrence(t *testing.T) {
	el := firstBlock(t, `<p>Our <a href="/x">content strategy</a> page covers the content strategy basics.</p>`)
	offset, ok := injectLink(el, "content strategy", "/t")
	require.True(t, ok)
	// "Our content strategy page covers the" precedes the linked copy
	assert.Equal(t, 6, offset)
}

func TestPhrasePattern(t *testing.T) {
	re, err := phrasePattern("élan vital")
	require.NoError(t, err)
	assert.Equal(t, `(?i)élan\s+vital\b`, re.String())

	re, err = phrasePattern("done.")
	require.NoError(t, err)
	assert.Equal(t, `(?i)\bdone\.`, re.String())
}
