package interlinker

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// document is a parsed input. Fragments are parsed in a body context and
// rendered back without the synthetic wrapper.
type document struct {
	root     *html.Node
	fragment bool
}

func isFullDocument(content string) bool {
	lower := strings.ToLower(content)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<body") || strings.Contains(lower, "<!doctype")
}

func parseDocument(content string) (*document, error) {
	if isFullDocument(content) {
		root, err := html.Parse(strings.NewReader(content))
		if err != nil {
			return nil, err
		}
		return &document{root: root}, nil
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return &document{root: body, fragment: true}, nil
}

func (d *document) render() (string, error) {
	var buf bytes.Buffer
	if !d.fragment {
		if err := html.Render(&buf, d.root); err != nil {
			return "", fmt.Errorf("failed to render document: %w", err)
		}
		return buf.String(), nil
	}

	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("failed to render fragment: %w", err)
		}
	}
	return buf.String(), nil
}
