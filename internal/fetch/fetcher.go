// Package fetch retrieves target pages over HTTP.
package fetch

import (
	"context"
	"errors"

	"git.home.luguber.info/inful/pagewatcher/internal/config"
)

// ErrNoControl is returned by FetchNext when the page has no matching control.
var ErrNoControl = errors.New("fetch: pagination control not found")

// Fetcher returns page markup.
type Fetcher interface {
	// Fetch returns the decoded markup at url, retrying transient failures.
	Fetch(ctx context.Context, url string) (string, error)
	// FetchNext follows the control named control on the page at url whose
	// markup is primary, and returns the markup it leads to.
	FetchNext(ctx context.Context, url, primary, control string) (string, error)
}

// TargetScoper is implemented by fetchers that carry per-target settings such as
// the wait condition and the metrics label.
type TargetScoper interface {
	ForTarget(t config.Target) Fetcher
}

// ForTarget scopes f to t when f supports it.
func ForTarget(f Fetcher, t config.Target) Fetcher {
	if s, ok := f.(TargetScoper); ok {
		return s.ForTarget(t)
	}
	return f
}
