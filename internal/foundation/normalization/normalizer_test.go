package normalization

import (
	"testing"
)

type testMode string

const (
	modeSingle testMode = "single_shot"
	modeToggle testMode = "toggle"
)

func newModeNormalizer() *Normalizer[testMode] {
	return NewNormalizer("mode", map[string]testMode{
		"single_shot": modeSingle,
		"toggle":      modeToggle,
	}, modeSingle)
}

func TestNormalizer_Normalize(t *testing.T) {
	n := newModeNormalizer()

	tests := []struct {
		name     string
		input    string
		expected testMode
	}{
		{"exact match", "toggle", modeToggle},
		{"case insensitive", "TOGGLE", modeToggle},
		{"with spaces", "  toggle  ", modeToggle},
		{"dash folded", "Single-Shot", modeSingle},
		{"empty uses default", "", modeSingle},
		{"invalid uses default", "sometimes", modeSingle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizer_Parse(t *testing.T) {
	n := newModeNormalizer()

	if got, err := n.Parse(""); err != nil || got != modeSingle {
		t.Fatalf("empty input should yield default, got %v %v", got, err)
	}
	if got, err := n.Parse("Toggle"); err != nil || got != modeToggle {
		t.Fatalf("expected toggle, got %v %v", got, err)
	}
	if _, err := n.Parse("sometimes"); err == nil {
		t.Fatal("expected error for unknown value")
	}
}

func TestNormalizer_ValidKeysSorted(t *testing.T) {
	keys := newModeNormalizer().ValidKeys()
	if len(keys) != 2 || keys[0] != "single_shot" || keys[1] != "toggle" {
		t.Fatalf("unexpected keys %v", keys)
	}
}
