// Package irt implements the three-parameter logistic (3PL) item response
// model used to estimate learner ability and rank items for adaptive picks.
package irt

import "math"

const (
	// MinTheta and MaxTheta bound every ability estimate.
	MinTheta = -3.0
	MaxTheta = 3.0

	// MaxLearningRate caps the per-answer step size.
	MaxLearningRate = 0.5

	// minDiscrimination keeps the 1/a step scale finite.
	minDiscrimination = 0.2

	// pFloor and pCeil keep P(θ)·(1−P(θ)) away from zero.
	pFloor = 0.01
	pCeil  = 0.99
)

// Params are the 3PL item parameters.
type Params struct {
	// A is the discrimination: how sharply the item separates learners.
	A float64 `json:"a"`
	// B is the difficulty on the θ scale.
	B float64 `json:"b"`
	// C is the guessing floor (lower asymptote), in [0, 1).
	C float64 `json:"c"`
}

// Probability returns the 3PL probability of a correct response at ability
// theta. The result is always within [c, 1].
func Probability(theta float64, p Params) float64 {
	c := clamp(p.C, 0, 1)
	return c + (1-c)/(1+math.Exp(-p.A*(theta-p.B)))
}

// Information returns the item information value a²·P·(1−P) at theta, with P
// clamped to [0.01, 0.99] so the value stays finite near the asymptotes.
func Information(theta float64, p Params) float64 {
	prob := clamp(Probability(theta, p), pFloor, pCeil)
	return p.A * p.A * prob * (1 - prob)
}

// UpdateAbility moves theta toward the observed outcome. The step is
// min(0.5, 1/√(I+1)) scaled by 1/a, and the result is clamped to [-3, 3].
// It is a pure function of its inputs.
func UpdateAbility(theta float64, p Params, correct bool) float64 {
	prob := clamp(Probability(theta, p), pFloor, pCeil)
	info := Information(theta, p)

	rate := 1 / math.Sqrt(info+1)
	if rate > MaxLearningRate {
		rate = MaxLearningRate
	}

	a := math.Abs(p.A)
	if a < minDiscrimination {
		a = minDiscrimination
	}

	outcome := 0.0
	if correct {
		outcome = 1.0
	}

	return ClampTheta(theta + rate*(outcome-prob)/a)
}

// ClampTheta bounds an ability estimate to [-3, 3].
func ClampTheta(theta float64) float64 {
	if math.IsNaN(theta) {
		return 0
	}
	return clamp(theta, MinTheta, MaxTheta)
}

// DefaultParams derives item parameters from a 1–5 difficulty tier and the
// number of answer options when no calibrated values exist.
func DefaultParams(tier, options int) Params {
	if tier < 1 {
		tier = 1
	}
	if tier > 5 {
		tier = 5
	}
	c := 0.0
	if options > 1 {
		c = 1 / float64(options)
	}
	return Params{A: 1, B: float64(tier - 3), C: c}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
