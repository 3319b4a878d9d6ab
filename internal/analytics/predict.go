package analytics

import (
	"errors"
	"math"
)

const (
	// RegressionWindow is how many recent trend points the forecast fits.
	RegressionWindow = 10

	// MinPredictionPoints is the fewest points a forecast extrapolates from.
	MinPredictionPoints = 3

	// DefaultTargetDays is the forecast horizon when none is given.
	DefaultTargetDays = 30
)

// ErrInsufficientData marks analytics computed from too little history.
var ErrInsufficientData = errors.New("insufficient data")

// Signals are the learner-level inputs that shape forecast advice.
type Signals struct {
	Velocity float64
	Accuracy float64
}

// Prediction is a score forecast with a confidence interval.
type Prediction struct {
	TargetDays      int      `json:"target_days"`
	Predicted       int      `json:"predicted"`
	Lower           int      `json:"lower"`
	Upper           int      `json:"upper"`
	Slope           float64  `json:"slope"`
	Probability     float64  `json:"probability"`
	LowConfidence   bool     `json:"low_confidence"`
	Reason          string   `json:"reason,omitempty"`
	Recommendations []string `json:"recommendations"`
}

// Err returns ErrInsufficientData for low-confidence forecasts.
func (p Prediction) Err() error {
	if p.LowConfidence {
		return ErrInsufficientData
	}
	return nil
}

// PredictScore fits ordinary least squares over the last RegressionWindow
// points (x = point index) and projects targetDays past the last point. With
// fewer than MinPredictionPoints it returns the current score flagged as low
// confidence.
func PredictScore(trend []TrendPoint, targetDays int, sig Signals) Prediction {
	if targetDays <= 0 {
		targetDays = DefaultTargetDays
	}
	pred := Prediction{TargetDays: targetDays, Recommendations: advice(sig)}

	if len(trend) < MinPredictionPoints {
		current := 0
		if len(trend) > 0 {
			current = trend[len(trend)-1].Score
		}
		pred.Predicted, pred.Lower, pred.Upper = current, current, current
		pred.LowConfidence = true
		pred.Reason = ErrInsufficientData.Error()
		pred.Probability = 0.4
		return pred
	}

	pts := trend
	if len(pts) > RegressionWindow {
		pts = pts[len(pts)-RegressionWindow:]
	}
	ys := make([]float64, len(pts))
	for i, p := range pts {
		ys[i] = float64(p.Score)
	}
	slope, intercept := fitLine(ys)
	sd := residualSD(ys, slope, intercept)

	x := float64(len(ys)-1) + float64(targetDays)
	y := intercept + slope*x

	pred.Slope = slope
	pred.Predicted = clampScore(y)
	pred.Lower = clampScore(y - sd)
	pred.Upper = clampScore(y + sd)
	if slope > 0 {
		pred.Probability = 0.7
	} else {
		pred.Probability = 0.4
	}
	return pred
}

// fitLine returns the OLS slope and intercept of ys against their indices.
func fitLine(ys []float64) (slope, intercept float64) {
	n := float64(len(ys))
	var sx, sy, sxx, sxy float64
	for i, y := range ys {
		x := float64(i)
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0, sy / n
	}
	slope = (n*sxy - sx*sy) / den
	intercept = (sy - slope*sx) / n
	return slope, intercept
}

func residualSD(ys []float64, slope, intercept float64) float64 {
	if len(ys) <= 2 {
		return 0
	}
	var ss float64
	for i, y := range ys {
		r := y - (intercept + slope*float64(i))
		ss += r * r
	}
	return math.Sqrt(ss / float64(len(ys)-2))
}

func clampScore(v float64) int {
	return int(math.Round(math.Max(0, math.Min(600, v))))
}

func advice(sig Signals) []string {
	out := []string{}
	if sig.Velocity <= 0 {
		out = append(out, "Your score has not improved recently. Add one more practice session per week and review missed questions.")
	}
	if sig.Accuracy < 0.6 {
		out = append(out, "Accuracy is below 60%. Slow down and focus on your weak topics before taking another full exam.")
	}
	return out
}
