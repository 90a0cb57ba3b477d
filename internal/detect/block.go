package detect

import "strings"

// ContainsBlockText reports whether markup contains the literal phrase.
// An empty phrase never matches.
func ContainsBlockText(markup, text string) bool {
	return text != "" && strings.Contains(markup, text)
}
