package detect

import "golang.org/x/net/html"

// HasElementPath reports whether markup contains elements nested as path, each a
// descendant of the previous one ("tbody", "tr", "td"). An empty path always matches.
func HasElementPath(markup string, path ...string) bool {
	if len(path) == 0 {
		return true
	}
	doc, ok := parse(markup)
	if !ok {
		return false
	}
	return matchPath(doc, path)
}

func matchPath(n *html.Node, path []string) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == path[0] {
			if len(path) == 1 || matchPath(c, path[1:]) {
				return true
			}
		}
		if matchPath(c, path) {
			return true
		}
	}
	return false
}
