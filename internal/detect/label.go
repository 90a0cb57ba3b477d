package detect

import (
	"strings"

	"golang.org/x/net/html"
)

// UnknownLabel is returned when no label can be extracted.
const UnknownLabel = "unknown"

// ExtractLabel returns the text of the first tag element (h1 when tag is empty).
func ExtractLabel(markup, tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		tag = "h1"
	}
	doc, ok := parse(markup)
	if !ok {
		return UnknownLabel
	}

	label := ""
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == tag {
			label = Text(n)
			return false
		}
		return true
	})
	if label == "" {
		return UnknownLabel
	}
	return label
}
