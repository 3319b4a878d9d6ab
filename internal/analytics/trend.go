package analytics

import (
	"sort"
	"time"

	"github.com/abhisek/adaptest/internal/exam"
	"github.com/abhisek/adaptest/internal/sections"
)

// VelocityWindow is the look-back used for score velocity.
const VelocityWindow = 30 * 24 * time.Hour

// TrendPoint is the total score of one completed attempt.
type TrendPoint struct {
	Date      time.Time `json:"date"`
	Score     int       `json:"score"`
	AttemptID string    `json:"attempt_id"`
	Kind      exam.Kind `json:"kind"`
}

// Summary condenses a trend.
type Summary struct {
	Current   int `json:"current"`
	Highest   int `json:"highest"`
	Lowest    int `json:"lowest"`
	Change30d int `json:"change_30d"`
	Change90d int `json:"change_90d"`
	Attempts  int `json:"attempts"`
}

// BuildTrend returns completed, scored attempts as an ascending score series.
func BuildTrend(attempts []exam.Attempt) []TrendPoint {
	var out []TrendPoint
	for _, a := range attempts {
		if a.Status != exam.StatusCompleted || a.Result == nil || a.CompletedAt == nil {
			continue
		}
		out = append(out, TrendPoint{
			Date:      *a.CompletedAt,
			Score:     a.Result.TotalScore,
			AttemptID: a.ID,
			Kind:      a.Kind,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Summarize returns current, highest and lowest scores and the change over
// the last 30 and 90 days (last minus first point inside each window).
func Summarize(trend []TrendPoint, now time.Time) Summary {
	if len(trend) == 0 {
		return Summary{}
	}
	s := Summary{
		Current:  trend[len(trend)-1].Score,
		Highest:  trend[0].Score,
		Lowest:   trend[0].Score,
		Attempts: len(trend),
	}
	for _, p := range trend {
		s.Highest = max(s.Highest, p.Score)
		s.Lowest = min(s.Lowest, p.Score)
	}
	s.Change30d = windowChange(trend, now, 30)
	s.Change90d = windowChange(trend, now, 90)
	return s
}

func windowChange(trend []TrendPoint, now time.Time, days int) int {
	w := window(trend, now.AddDate(0, 0, -days))
	if len(w) < 2 {
		return 0
	}
	return w[len(w)-1].Score - w[0].Score
}

func window(trend []TrendPoint, since time.Time) []TrendPoint {
	for i, p := range trend {
		if !p.Date.Before(since) {
			return trend[i:]
		}
	}
	return nil
}

// Velocity returns score points gained per day between the first and last
// trend points within the last 30 days.
func Velocity(trend []TrendPoint, now time.Time) float64 {
	w := window(trend, now.Add(-VelocityWindow))
	if len(w) < 2 {
		return 0
	}
	days := w[len(w)-1].Date.Sub(w[0].Date).Hours() / 24
	if days <= 0 {
		return 0
	}
	return float64(w[len(w)-1].Score-w[0].Score) / days
}

// SectionRank is a section's average performance across attempts.
type SectionRank struct {
	Section     sections.Section `json:"section"`
	Rank        int              `json:"rank"`
	AvgScore    float64          `json:"avg_score"`
	AvgAccuracy float64          `json:"avg_accuracy"`
	Attempts    int              `json:"attempts"`
}

// RankSections averages section results over completed attempts and ranks
// sections best first. Sections never examined rank last.
func RankSections(attempts []exam.Attempt) []SectionRank {
	type acc struct {
		score, accuracy float64
		n               int
	}
	totals := make(map[sections.Section]*acc)
	for _, a := range attempts {
		if a.Status != exam.StatusCompleted || a.Result == nil {
			continue
		}
		for _, sr := range a.Result.Sections {
			if sr.Total == 0 {
				continue
			}
			t := totals[sr.Section]
			if t == nil {
				t = &acc{}
				totals[sr.Section] = t
			}
			t.score += float64(sr.Score)
			t.accuracy += sr.Accuracy
			t.n++
		}
	}

	out := make([]SectionRank, 0, 4)
	for _, s := range sections.All() {
		r := SectionRank{Section: s}
		if t := totals[s]; t != nil {
			r.AvgScore = t.score / float64(t.n)
			r.AvgAccuracy = t.accuracy / float64(t.n)
			r.Attempts = t.n
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if (out[i].Attempts == 0) != (out[j].Attempts == 0) {
			return out[j].Attempts == 0
		}
		return out[i].AvgScore > out[j].AvgScore
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
