package analytics

import (
	"math"
	"time"

	"github.com/abhisek/adaptest/internal/profile"
)

// TrackGoal recomputes a goal's progress fields from the current score and
// velocity. A goal is on track when velocity over the remaining days covers
// the remaining gap.
func TrackGoal(g profile.Goal, current int, velocity float64, now time.Time) profile.Goal {
	g.DaysRemaining = int(math.Max(0, math.Ceil(g.TargetDate.Sub(now).Hours()/24)))

	gap := float64(g.TargetScore - current)
	switch {
	case gap <= 0:
		g.RequiredDailyGain = 0
	case g.DaysRemaining == 0:
		g.RequiredDailyGain = gap
	default:
		g.RequiredDailyGain = gap / float64(g.DaysRemaining)
	}

	span := float64(g.TargetScore - g.StartScore)
	if span <= 0 {
		g.ProgressPct = 100
	} else {
		g.ProgressPct = math.Max(0, math.Min(100, float64(current-g.StartScore)/span*100))
	}

	g.OnTrack = gap <= 0 || velocity*float64(g.DaysRemaining) >= gap
	return g
}
