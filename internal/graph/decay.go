package graph

import (
	"math"
	"time"
)

const ln2 = 0.6931471805599453

// decayFactor returns exp(-ln2 * age/halfLife), clamped to [0,1]. A
// non-positive halfLife or age returns 1 (no decay).
func decayFactor(age, halfLife time.Duration) float64 {
	if age <= 0 || halfLife <= 0 {
		return 1
	}
	ratio := float64(age) / float64(halfLife)
	factor := math.Exp(-ln2 * ratio)
	if factor < 0 {
		return 0
	}
	if factor > 1 {
		return 1
	}
	return factor
}
