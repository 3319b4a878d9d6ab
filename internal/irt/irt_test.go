package irt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func paramGrid() []Params {
	var out []Params
	for _, a := range []float64{0.05, 0.5, 1, 1.7, 3} {
		for _, b := range []float64{-3, -1, 0, 1.5, 3} {
			for _, c := range []float64{0, 0.2, 0.25, 0.5} {
				out = append(out, Params{A: a, B: b, C: c})
			}
		}
	}
	return out
}

func thetaGrid() []float64 {
	return []float64{-3, -2.5, -1, -0.1, 0, 0.3, 1, 2.2, 3}
}

func TestProbability_Bounds(t *testing.T) {
	for _, p := range paramGrid() {
		for _, theta := range thetaGrid() {
			prob := Probability(theta, p)
			if prob < p.C-1e-12 || prob > 1+1e-12 {
				t.Fatalf("Probability(%v, %+v) = %v, want within [c, 1]", theta, p, prob)
			}
		}
	}
}

func TestProbability_AtDifficulty(t *testing.T) {
	p := Params{A: 1.2, B: 0.5, C: 0.2}
	// At θ = b the logistic term is 1/2.
	assert.InDelta(t, 0.2+0.8*0.5, Probability(0.5, p), 1e-9)
}

func TestInformation_NonNegative(t *testing.T) {
	for _, p := range paramGrid() {
		for _, theta := range thetaGrid() {
			info := Information(theta, p)
			if info < 0 || math.IsNaN(info) || math.IsInf(info, 0) {
				t.Fatalf("Information(%v, %+v) = %v, want finite >= 0", theta, p, info)
			}
		}
	}
}

func TestInformation_PeaksNearDifficulty(t *testing.T) {
	p := Params{A: 1.5, B: 0, C: 0}
	assert.Greater(t, Information(0, p), Information(2.5, p))
	assert.Greater(t, Information(0, p), Information(-2.5, p))
}

func TestUpdateAbility_Bounded(t *testing.T) {
	for _, p := range paramGrid() {
		for _, theta := range thetaGrid() {
			for _, correct := range []bool{true, false} {
				got := UpdateAbility(theta, p, correct)
				if got < MinTheta || got > MaxTheta {
					t.Fatalf("UpdateAbility(%v, %+v, %v) = %v, out of range", theta, p, correct, got)
				}
			}
		}
	}
}

func TestUpdateAbility_Deterministic(t *testing.T) {
	p := Params{A: 1.3, B: 0.4, C: 0.25}
	first := UpdateAbility(0.1, p, true)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, UpdateAbility(0.1, p, true))
	}
}

func TestUpdateAbility_Direction(t *testing.T) {
	p := Params{A: 1, B: 0, C: 0.25}
	assert.Greater(t, UpdateAbility(0, p, true), 0.0)
	assert.Less(t, UpdateAbility(0, p, false), 0.0)
}

func TestUpdateAbility_ClampsAtEdges(t *testing.T) {
	p := Params{A: 0.1, B: -3, C: 0}
	assert.Equal(t, MaxTheta, UpdateAbility(2.99, Params{A: 0.2, B: 3, C: 0}, true))
	assert.Equal(t, MinTheta, UpdateAbility(-2.99, p, false))
}

func TestClampTheta_NaN(t *testing.T) {
	assert.Equal(t, 0.0, ClampTheta(math.NaN()))
	assert.Equal(t, MaxTheta, ClampTheta(10))
	assert.Equal(t, MinTheta, ClampTheta(-10))
}

func TestDefaultParams(t *testing.T) {
	tests := []struct {
		name    string
		tier    int
		options int
		want    Params
	}{
		{"easy four options", 1, 4, Params{A: 1, B: -2, C: 0.25}},
		{"middle true false", 3, 2, Params{A: 1, B: 0, C: 0.5}},
		{"hard open answer", 5, 0, Params{A: 1, B: 2, C: 0}},
		{"tier clamped", 9, 4, Params{A: 1, B: 2, C: 0.25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultParams(tt.tier, tt.options))
		})
	}
}
