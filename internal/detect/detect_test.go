package detect

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagewatcher/internal/config"
)

const calendarOpen = `<html><head><title>x</title></head><body>
<h1>
  The  Tower
  Residence
</h1>
<table><thead><tr><td class="status_2">header</td></tr></thead>
<tbody>
  <tr><td class="day status_1">1</td><td class="day status_3">2</td></tr>
</tbody></table>
</body></html>`

const calendarFull = `<html><body><h1>Tower</h1>
<table><tbody><tr><td class="day status_1">1</td><td class="status_9">2</td></tr></tbody></table>
<p>満席</p></body></html>`

func TestFingerprint(t *testing.T) {
	a := Fingerprint(calendarOpen)
	require.Len(t, a, 64)
	require.Equal(t, a, Fingerprint(calendarOpen))
	require.NotEqual(t, a, Fingerprint(calendarOpen+" "))

	// sha256("") is well known
	require.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Fingerprint(""))
}

func TestFingerprint_DropsInvalidUTF8(t *testing.T) {
	require.Equal(t, Fingerprint("abc"), Fingerprint("a\xffb\xfec"))
}

func TestHasStatusMarker(t *testing.T) {
	require.True(t, HasStatusMarker(calendarOpen))
	require.False(t, HasStatusMarker(calendarFull))
	require.True(t, HasStatusMarker(calendarOpen, config.DefaultMarkerClasses...))
	require.True(t, HasStatusMarker(calendarFull, "status_9"))
	require.False(t, HasStatusMarker(""))
	require.False(t, HasStatusMarker("<<<not html"))
}

func TestHasStatusMarker_IgnoresCellsOutsideTableBody(t *testing.T) {
	markup := `<table><thead><tr><td class="status_2">x</td></tr></thead></table>
<div class="status_3">y</div>`
	require.False(t, HasStatusMarker(markup))
}

func TestExtractLabel(t *testing.T) {
	require.Equal(t, "The Tower Residence", ExtractLabel(calendarOpen, ""))
	require.Equal(t, "x", ExtractLabel(calendarOpen, "title"))
	require.Equal(t, UnknownLabel, ExtractLabel(calendarOpen, "h2"))
	require.Equal(t, UnknownLabel, ExtractLabel("<h1>   </h1>", "h1"))
}

func TestContainsBlockText(t *testing.T) {
	require.True(t, ContainsBlockText(calendarFull, "満席"))
	require.False(t, ContainsBlockText(calendarOpen, "満席"))
	require.False(t, ContainsBlockText(calendarFull, ""))
}

func TestHasElementPath(t *testing.T) {
	require.True(t, HasElementPath(calendarOpen, "tbody", "tr", "td"))
	require.True(t, HasElementPath(calendarOpen, "body", "td"))
	require.False(t, HasElementPath(calendarOpen, "tbody", "h1"))
	require.False(t, HasElementPath("<p>loading…</p>", "tbody", "tr", "td"))
	require.True(t, HasElementPath("anything"))
}

func TestForTarget(t *testing.T) {
	marker := ForTarget(config.Target{Detector: config.DetectorMarker})
	require.IsType(t, MarkerDetector{}, marker)
	require.True(t, marker.Available(calendarOpen))
	require.False(t, marker.Available(calendarFull))

	block := ForTarget(config.Target{Detector: config.DetectorBlockText, BlockText: "満席"})
	require.IsType(t, BlockTextDetector{}, block)
	require.True(t, block.Available(calendarOpen))
	require.False(t, block.Available(calendarFull))
}
