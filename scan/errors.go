package scan

import "errors"

// Sentinel errors the planner wraps into its failures; the root
// icecore package classifies these via errors.Is when translating a
// planning failure into an icecore.Error kind.
var (
	ErrUnsupportedFeature = errors.New("unsupported feature")
	ErrInvariantViolation = errors.New("invariant violation")
)
