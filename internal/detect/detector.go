package detect

import "git.home.luguber.info/inful/pagewatcher/internal/config"

// Detector classifies fetched markup as available or not.
type Detector interface {
	Available(markup string) bool
}

// MarkerDetector reports availability when a status marker cell is present.
type MarkerDetector struct {
	Classes []string
}

func (d MarkerDetector) Available(markup string) bool {
	return HasStatusMarker(markup, d.Classes...)
}

// BlockTextDetector reports availability while the sold-out phrase is absent.
type BlockTextDetector struct {
	Text string
}

func (d BlockTextDetector) Available(markup string) bool {
	return !ContainsBlockText(markup, d.Text)
}

// ForTarget selects the detector configured for t.
func ForTarget(t config.Target) Detector {
	if t.Detector == config.DetectorBlockText {
		return BlockTextDetector{Text: t.BlockText}
	}
	return MarkerDetector{Classes: t.MarkerClasses}
}
