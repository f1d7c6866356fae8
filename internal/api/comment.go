package api

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CleanComment converts comment markup to plain text: <br> becomes a newline,
// tags are dropped, and entities are decoded.
func CleanComment(markup string) string {
	if markup == "" {
		return ""
	}
	ctx := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return markup
	}
	var b strings.Builder
	for _, n := range nodes {
		writeText(&b, n)
	}
	return b.String()
}

func writeText(b *strings.Builder, node *html.Node) {
	switch {
	case node.Type == html.TextNode:
		b.WriteString(node.Data)
		return
	case node.Type == html.ElementNode && node.DataAtom == atom.Br:
		b.WriteString("\n")
		return
	}
	for n := range node.ChildNodes() {
		writeText(b, n)
	}
}
