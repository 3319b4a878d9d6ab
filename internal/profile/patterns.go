package profile

import (
	"time"
)

// Speed classifies how quickly a learner improves.
type Speed string

const (
	SpeedFast    Speed = "fast"
	SpeedAverage Speed = "average"
	SpeedSlow    Speed = "slow"
)

// Time-of-day buckets used for BestTimeOfDay.
const (
	Morning   = "morning"
	Afternoon = "afternoon"
	Evening   = "evening"
	Night     = "night"
)

const (
	// minBucketSamples is the smallest sample for a time-of-day bucket or a
	// difficulty tier to be considered.
	minBucketSamples = 5

	// speedWindow is the size of the early and late slices compared for speed.
	speedWindow = 30
)

// LearningPattern summarizes how a learner studies.
type LearningPattern struct {
	BestTimeOfDay       string    `json:"best_time_of_day,omitempty"`
	AvgSessionMinutes   float64   `json:"avg_session_minutes"`
	PreferredDifficulty int       `json:"preferred_difficulty,omitempty"`
	Speed               Speed     `json:"speed"`
	Consistency         float64   `json:"consistency"`
	ComputedAt          time.Time `json:"computed_at"`
}

// ComputePatterns derives learning patterns from answer history.
func ComputePatterns(history []HistoryEntry, now time.Time) LearningPattern {
	return LearningPattern{
		BestTimeOfDay:       bestTimeOfDay(history),
		AvgSessionMinutes:   avgSessionMinutes(history),
		PreferredDifficulty: preferredDifficulty(history),
		Speed:               learningSpeed(history),
		Consistency:         consistency(history),
		ComputedAt:          now,
	}
}

// TimeOfDay returns the bucket an hour of the day falls into.
func TimeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour <= 11:
		return Morning
	case hour >= 12 && hour <= 16:
		return Afternoon
	case hour >= 17 && hour <= 21:
		return Evening
	default:
		return Night
	}
}

type tally struct {
	n, correct int
}

func (t tally) accuracy() float64 {
	if t.n == 0 {
		return 0
	}
	return float64(t.correct) / float64(t.n)
}

func bestTimeOfDay(history []HistoryEntry) string {
	buckets := map[string]*tally{}
	for _, h := range history {
		b := TimeOfDay(h.Timestamp.Hour())
		if buckets[b] == nil {
			buckets[b] = &tally{}
		}
		buckets[b].n++
		if h.Correct {
			buckets[b].correct++
		}
	}

	best, bestAcc := "", -1.0
	for _, b := range []string{Morning, Afternoon, Evening, Night} {
		t := buckets[b]
		if t == nil || t.n < minBucketSamples {
			continue
		}
		if acc := t.accuracy(); acc > bestAcc {
			best, bestAcc = b, acc
		}
	}
	return best
}

func avgSessionMinutes(history []HistoryEntry) float64 {
	perDay := map[string]float64{}
	for _, h := range history {
		perDay[h.Timestamp.Format(dayLayout)] += h.TimeSpentSecs
	}
	if len(perDay) == 0 {
		return 0
	}
	var total float64
	for _, secs := range perDay {
		total += secs
	}
	return total / float64(len(perDay)) / 60
}

func preferredDifficulty(history []HistoryEntry) int {
	tiers := map[int]*tally{}
	for _, h := range history {
		if tiers[h.Difficulty] == nil {
			tiers[h.Difficulty] = &tally{}
		}
		tiers[h.Difficulty].n++
		if h.Correct {
			tiers[h.Difficulty].correct++
		}
	}

	best, bestAcc := 0, -1.0
	for tier := 1; tier <= 5; tier++ {
		t := tiers[tier]
		if t == nil || t.n < minBucketSamples {
			continue
		}
		if acc := t.accuracy(); acc > bestAcc {
			best, bestAcc = tier, acc
		}
	}
	return best
}

// learningSpeed compares difficulty-weighted correctness of the earliest and
// latest answers. Without enough history the learner is rated average.
func learningSpeed(history []HistoryEntry) Speed {
	if len(history) < 2*speedWindow {
		return SpeedAverage
	}
	gain := weightedScore(history[len(history)-speedWindow:]) - weightedScore(history[:speedWindow])
	switch {
	case gain > 0.5:
		return SpeedFast
	case gain > 0.2:
		return SpeedAverage
	default:
		return SpeedSlow
	}
}

// weightedScore is the mean of difficulty over correct answers, zero for misses.
func weightedScore(entries []HistoryEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	var sum float64
	for _, h := range entries {
		if h.Correct {
			sum += float64(h.Difficulty)
		}
	}
	return sum / float64(len(entries))
}

func consistency(history []HistoryEntry) float64 {
	if len(history) == 0 {
		return 0
	}
	days := map[string]bool{}
	first, last := history[0].Timestamp, history[0].Timestamp
	for _, h := range history {
		days[h.Timestamp.Format(dayLayout)] = true
		if h.Timestamp.Before(first) {
			first = h.Timestamp
		}
		if h.Timestamp.After(last) {
			last = h.Timestamp
		}
	}
	span := daysBetween(first, last) + 1
	return float64(len(days)) / float64(span) * 100
}
