// internal/core/domain/confidence.go
package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// Confidence levels for stage outputs.
// Represents how much downstream stages can trust an upstream result.
const (
	// ConfidenceLow is the default gate threshold: below it, a run stops early.
	ConfidenceLow float64 = 0.3

	// ConfidenceMedium indicates partial metadata (e.g. no abstract).
	ConfidenceMedium float64 = 0.6

	// ConfidenceHigh indicates complete metadata from a primary source.
	ConfidenceHigh float64 = 0.8

	// ConfidenceVerified indicates a result cross-checked against a second source.
	ConfidenceVerified float64 = 1.0
)

// DefaultConfidenceThreshold is the gate threshold used when none is configured.
const DefaultConfidenceThreshold = ConfidenceLow

// Confident is implemented by stage contents that carry a confidence score.
type Confident interface {
	Confidence() float64
}

// GetConfidenceLabel returns a human-readable label for a confidence value.
func GetConfidenceLabel(confidence float64) string {
	switch {
	case confidence >= ConfidenceVerified:
		return "verified"
	case confidence >= ConfidenceHigh:
		return "high"
	case confidence >= ConfidenceMedium:
		return "medium"
	case confidence >= ConfidenceLow:
		return "low"
	default:
		return "unknown"
	}
}

// ConfidenceOf extracts a confidence score from stage content. It understands
// Confident values and maps with a "confidence_score" or "confidence" key.
func ConfidenceOf(content any) (float64, bool) {
	switch v := content.(type) {
	case nil:
		return 0, false
	case Confident:
		c := v.Confidence()
		if math.IsNaN(c) {
			return 0, false
		}
		return clampConfidence(c), true
	case map[string]any:
		for _, key := range []string{"confidence_score", "confidence"} {
			if f, ok := toFloat(v[key]); ok {
				return clampConfidence(f), true
			}
		}
	}
	return 0, false
}

// toFloat rejects NaN: it compares false against any threshold.
func toFloat(v any) (float64, bool) {
	f, ok := rawFloat(v)
	if !ok || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func rawFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
