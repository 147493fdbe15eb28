package billing

import "math"

// roundEpsilon nudges values off binary-representation boundaries before
// rounding so that e.g. 1.005, stored as 1.00499999..., still rounds up to
// 1.01 the way a paper calculation would.
const roundEpsilon = 1e-9

// Round2 rounds a monetary value to two decimal places using half-up
// rounding. Every monetary value must pass through Round2 before it is
// stored or returned; ad-hoc math.Round calls drift across hundreds of
// line items.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 {
		return -math.Floor((-v+roundEpsilon)*100+0.5) / 100
	}
	return math.Floor((v+roundEpsilon)*100+0.5) / 100
}
