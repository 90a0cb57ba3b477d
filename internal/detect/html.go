package detect

import (
	"strings"

	"golang.org/x/net/html"
)

func parse(markup string) (*html.Node, bool) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, false
	}
	return doc, true
}

// walk visits n and its descendants depth first. Returning false from fn stops the walk.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, classes []string) bool {
	for _, c := range strings.Fields(getAttr(n, "class")) {
		for _, want := range classes {
			if c == want {
				return true
			}
		}
	}
	return false
}

// hasAncestorPair reports whether n has an inner ancestor that itself sits below an
// outer element.
func hasAncestorPair(n *html.Node, inner, outer string) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode || p.Data != inner {
			continue
		}
		for q := p.Parent; q != nil; q = q.Parent {
			if q.Type == html.ElementNode && q.Data == outer {
				return true
			}
		}
	}
	return false
}

// Text returns the whitespace-collapsed text content of n.
func Text(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
		return true
	})
	return strings.Join(strings.Fields(b.String()), " ")
}
