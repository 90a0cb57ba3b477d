package detect

import (
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/pagewatcher/internal/config"
)

// HasStatusMarker reports whether a td inside a tbody row carries one of classes.
// With no classes config.DefaultMarkerClasses apply.
func HasStatusMarker(markup string, classes ...string) bool {
	if len(classes) == 0 {
		classes = config.DefaultMarkerClasses
	}
	doc, ok := parse(markup)
	if !ok {
		return false
	}

	found := false
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "td" && hasClass(n, classes) && hasAncestorPair(n, "tr", "tbody") {
			found = true
			return false
		}
		return true
	})
	return found
}
