package fetch

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/pagewatcher/internal/detect"
)

// FetchNext resolves the control on the primary page and fetches its destination.
func (f *HTTPFetcher) FetchNext(ctx context.Context, pageURL, primary, control string) (string, error) {
	href, err := FindControl(primary, control)
	if err != nil {
		return "", err
	}
	next, err := resolve(pageURL, href)
	if err != nil {
		return "", ErrNoControl
	}
	return f.Fetch(ctx, next)
}

// FindControl returns the href of the first anchor whose class, id or rel token,
// or whose text, equals control (case-insensitive).
func FindControl(markup, control string) (string, error) {
	control = strings.TrimSpace(control)
	if control == "" {
		return "", ErrNoControl
	}
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", ErrNoControl
	}

	var href string
	var find func(*html.Node) bool
	find = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "a" && matchesControl(n, control) {
			if h := usableHref(attr(n, "href")); h != "" {
				href = h
				return true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if find(c) {
				return true
			}
		}
		return false
	}
	if !find(doc) {
		return "", ErrNoControl
	}
	return href, nil
}

func matchesControl(n *html.Node, control string) bool {
	if strings.EqualFold(attr(n, "id"), control) {
		return true
	}
	for _, name := range []string{"class", "rel"} {
		for _, tok := range strings.Fields(attr(n, name)) {
			if strings.EqualFold(tok, control) {
				return true
			}
		}
	}
	return strings.EqualFold(detect.Text(n), control)
}

func usableHref(h string) string {
	h = strings.TrimSpace(h)
	if h == "" || h == "#" || strings.HasPrefix(strings.ToLower(h), "javascript:") {
		return ""
	}
	return h
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func resolve(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(ref).String(), nil
}
