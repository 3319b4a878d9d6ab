package analytics

import (
	"fmt"
	"time"
)

// MilestoneType names a family of thresholds.
type MilestoneType string

const (
	MilestoneScore     MilestoneType = "score"
	MilestoneStreak    MilestoneType = "streak"
	MilestoneQuestions MilestoneType = "questions"
	MilestoneHours     MilestoneType = "hours"
)

var thresholds = map[MilestoneType][]int{
	MilestoneScore:     {300, 400, 500, 550},
	MilestoneStreak:    {3, 7, 14, 30},
	MilestoneQuestions: {100, 500, 1000, 5000},
	MilestoneHours:     {10, 50, 100},
}

// Milestone is an achievement recorded once per (type, value).
type Milestone struct {
	Type       MilestoneType `json:"type"`
	Value      int           `json:"value"`
	AchievedAt time.Time     `json:"achieved_at"`
	Message    string        `json:"message"`
}

// Key identifies a milestone for deduplication.
func (m Milestone) Key() string {
	return fmt.Sprintf("%s:%d", m.Type, m.Value)
}

// Progress is the learner state milestones are checked against.
type Progress struct {
	BestScore         int
	StreakDays        int
	QuestionsAnswered int
	StudyHours        float64
}

// DetectMilestones appends every newly crossed threshold to existing and
// returns the full log plus the new entries. Existing entries are never
// altered or repeated.
func DetectMilestones(existing []Milestone, p Progress, now time.Time) (all, added []Milestone) {
	seen := make(map[string]bool, len(existing))
	for _, m := range existing {
		seen[m.Key()] = true
	}
	values := map[MilestoneType]float64{
		MilestoneScore:     float64(p.BestScore),
		MilestoneStreak:    float64(p.StreakDays),
		MilestoneQuestions: float64(p.QuestionsAnswered),
		MilestoneHours:     p.StudyHours,
	}

	all = append([]Milestone(nil), existing...)
	for _, typ := range []MilestoneType{MilestoneScore, MilestoneStreak, MilestoneQuestions, MilestoneHours} {
		for _, th := range thresholds[typ] {
			if values[typ] < float64(th) {
				break
			}
			m := Milestone{Type: typ, Value: th, AchievedAt: now, Message: milestoneMessage(typ, th)}
			if seen[m.Key()] {
				continue
			}
			seen[m.Key()] = true
			all = append(all, m)
			added = append(added, m)
		}
	}
	return all, added
}

func milestoneMessage(typ MilestoneType, v int) string {
	switch typ {
	case MilestoneScore:
		return fmt.Sprintf("Reached a score of %d", v)
	case MilestoneStreak:
		return fmt.Sprintf("Studied %d days in a row", v)
	case MilestoneQuestions:
		return fmt.Sprintf("Answered %d questions", v)
	case MilestoneHours:
		return fmt.Sprintf("Studied for %d hours", v)
	}
	return fmt.Sprintf("%s %d", typ, v)
}
