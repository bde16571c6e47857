package interlinker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestHeading(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "section heading",
			content: `<section><h2>Soil Basics</h2><div><p id="t">text</p></div></section>`,
			want:    "Soil Basics",
		},
		{
			name:    "last heading in article",
			content: `<article><h2>One</h2><p>a</p><h3>Two</h3><div><p id="t">text</p></div><h3>Three</h3></article>`,
			want:    "Two",
		},
		{
			name:    "previous sibling",
			content: `<h4>Watering</h4><p>first</p><p id="t">text</p>`,
			want:    "Watering",
		},
		{
			name:    "ancestor sibling",
			content: `<h2>Roots</h2><div><ul><li id="t">text</li></ul></div>`,
			want:    "Roots",
		},
		{
			name:    "h1 ignored",
			content: `<h1>Title</h1><p id="t">text</p>`,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := blockNodes(parseTestDoc(t, "<html><body>"+tt.content+"</body></html>"))
			var target = nodes[len(nodes)-1]
			for _, n := range nodes {
				for _, a := range n.Attr {
					if a.Key == "id" && a.Val == "t" {
						target = n
					}
				}
			}
			assert.Equal(t, tt.want, nearestHeading(target))
		})
	}
}

func TestHeadingOverlap(t *testing.T) {
	assert.InDelta(t, 1.0, headingOverlap("garden soil health", "Garden Soil Health"), 0.001)
	assert.InDelta(t, 0.5, headingOverlap("garden drainage", "Better Garden Layouts"), 0.001)
	assert.Zero(t, headingOverlap("garden soil health", ""))
	assert.Zero(t, headingOverlap("a to b", "a to b"))
}

func TestSelectByHeadingOverlap(t *testing.T) {
	ranked := []AnchorCandidate{
		{Text: "garden soil health", Quality: 90},
		{Text: "composting kitchen scraps", Quality: 85},
	}

	got, ok := selectByHeadingOverlap(ranked, "Garden Soil Health", 0.4)
	require.True(t, ok)
	assert.Equal(t, "composting kitchen scraps", got.Text)

	choices := orderByHeadingOverlap(ranked, "Garden Soil and Composting Kitchen Scraps", 0.4)
	require.Len(t, choices, 2)
	assert.True(t, choices[0].fallback)
	assert.Equal(t, "garden soil health", choices[0].candidate.Text)

	_, ok = selectByHeadingOverlap(nil, "anything", 0.4)
	assert.False(t, ok)
}
