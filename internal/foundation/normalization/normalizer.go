// Package normalization turns loosely written configuration strings into typed enums.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer provides type-safe string-to-enum normalization with error handling.
type Normalizer[T comparable] struct {
	name         string
	validValues  map[string]T
	defaultValue T
	validKeys    []string // Cached for error messages
}

// NewNormalizer creates a normalizer with a map of valid string->value pairs.
// The keys in the values map are normalized the same way as inputs.
func NewNormalizer[T comparable](name string, values map[string]T, defaultValue T) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	validKeys := make([]string, 0, len(values))
	for k, v := range values {
		nk := Clean(k)
		normalized[nk] = v
		validKeys = append(validKeys, nk)
	}
	sort.Strings(validKeys)

	return &Normalizer[T]{
		name:         name,
		validValues:  normalized,
		defaultValue: defaultValue,
		validKeys:    validKeys,
	}
}

// Normalize converts raw to the enum type, returning the default when unrecognized.
// An empty input also yields the default.
func (n *Normalizer[T]) Normalize(raw string) T {
	if value, ok := n.validValues[Clean(raw)]; ok {
		return value
	}
	return n.defaultValue
}

// Parse is Normalize with an error for unrecognized non-empty input.
func (n *Normalizer[T]) Parse(raw string) (T, error) {
	cleaned := Clean(raw)
	if cleaned == "" {
		return n.defaultValue, nil
	}
	if value, ok := n.validValues[cleaned]; ok {
		return value, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q, valid options: %v", n.name, raw, n.validKeys)
}

// ValidKeys returns all valid normalized keys.
func (n *Normalizer[T]) ValidKeys() []string {
	out := make([]string, len(n.validKeys))
	copy(out, n.validKeys)
	return out
}

// Clean lowercases, trims and folds '-' to '_' so "Single-Shot" matches "single_shot".
func Clean(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}
