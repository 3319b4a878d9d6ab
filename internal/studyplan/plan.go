package studyplan

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/abhisek/adaptest/internal/profile"
	"github.com/abhisek/adaptest/internal/sections"
)

// Category represents the reason a section was given study time.
type Category string

const (
	CategoryFocus     Category = "focus"
	CategoryReinforce Category = "reinforce"
	CategoryMaintain  Category = "maintain"
)

// Weekly time split across categories (60/30/10).
const (
	focusShare     = 0.6
	reinforceShare = 0.3
	maintainShare  = 0.1
)

// MaxWeeks bounds plan length.
const MaxWeeks = 52

// Block is time allotted to one section within a week.
type Block struct {
	Section  sections.Section `json:"section"`
	Category Category         `json:"category"`
	Minutes  int              `json:"minutes"`
	Topics   []string         `json:"topics,omitempty"`
}

// Week is one week of the plan.
type Week struct {
	Number      int       `json:"number"`
	StartsOn    time.Time `json:"starts_on"`
	TargetScore int       `json:"target_score"`
	Blocks      []Block   `json:"blocks"`
}

// Plan is a week-by-week study schedule toward a goal score.
type Plan struct {
	GoalScore    int       `json:"goal_score"`
	CurrentScore int       `json:"current_score"`
	WeeklyGain   float64   `json:"weekly_gain"`
	DailyMinutes int       `json:"daily_minutes"`
	Weeks        []Week    `json:"weeks"`
	CreatedAt    time.Time `json:"created_at"`
}

// ValidationError reports a bad plan request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Build creates a plan that spends 60% of each week on the section most in
// need, 30% on the runner-up, and 10% keeping the strongest sections warm.
// The two weakest sections alternate as focus week to week.
func Build(p profile.Profile, goalScore, weeks, currentScore int, now time.Time) (Plan, error) {
	if goalScore <= 0 || goalScore > 600 {
		return Plan{}, &ValidationError{Field: "goal_score", Message: "must be between 1 and 600"}
	}
	if weeks < 1 || weeks > MaxWeeks {
		return Plan{}, &ValidationError{Field: "weeks", Message: fmt.Sprintf("must be between 1 and %d", MaxWeeks)}
	}
	if currentScore < 0 {
		currentScore = 0
	}

	gap := max(goalScore-currentScore, 0)
	weeklyGain := float64(gap) / float64(weeks)
	daily := DailyMinutes(weeklyGain)
	weeklyMinutes := daily * 7

	ranked := rankByNeed(p)
	plan := Plan{
		GoalScore:    goalScore,
		CurrentScore: currentScore,
		WeeklyGain:   weeklyGain,
		DailyMinutes: daily,
		CreatedAt:    now,
	}

	for i := 0; i < weeks; i++ {
		focus, reinforce := ranked[0], ranked[1]
		if i%2 == 1 {
			focus, reinforce = reinforce, focus
		}
		maintain := ranked[2+i%2]

		target := currentScore + int(math.Round(weeklyGain*float64(i+1)))
		plan.Weeks = append(plan.Weeks, Week{
			Number:      i + 1,
			StartsOn:    now.AddDate(0, 0, 7*i),
			TargetScore: min(target, goalScore),
			Blocks: []Block{
				{Section: focus, Category: CategoryFocus, Minutes: share(weeklyMinutes, focusShare), Topics: weakTopics(p, focus)},
				{Section: reinforce, Category: CategoryReinforce, Minutes: share(weeklyMinutes, reinforceShare), Topics: weakTopics(p, reinforce)},
				{Section: maintain, Category: CategoryMaintain, Minutes: share(weeklyMinutes, maintainShare)},
			},
		})
	}
	return plan, nil
}

// DailyMinutes returns the study time needed per day for a weekly score gain.
func DailyMinutes(weeklyGain float64) int {
	switch {
	case weeklyGain <= 0:
		return 15
	case weeklyGain <= 10:
		return 20
	case weeklyGain <= 25:
		return 40
	default:
		return 60
	}
}

func share(total int, frac float64) int {
	return int(math.Round(float64(total) * frac))
}

// rankByNeed orders sections weakest first. Sections with more weak topics
// win ties, then exam order.
func rankByNeed(p profile.Profile) []sections.Section {
	weakCount := make(map[sections.Section]int)
	for _, w := range p.WeakTopics {
		weakCount[w.Section]++
	}
	ranked := sections.All()
	order := make(map[sections.Section]int, len(ranked))
	for i, s := range ranked {
		order[s] = i
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		ai, aj := p.Ability(ranked[i]), p.Ability(ranked[j])
		if ai != aj {
			return ai < aj
		}
		if weakCount[ranked[i]] != weakCount[ranked[j]] {
			return weakCount[ranked[i]] > weakCount[ranked[j]]
		}
		return order[ranked[i]] < order[ranked[j]]
	})
	return ranked
}

// weakTopics returns up to three weak topics of a section, worst first.
func weakTopics(p profile.Profile, s sections.Section) []string {
	var ts []profile.TopicStat
	for _, w := range p.WeakTopics {
		if w.Section == s {
			ts = append(ts, w)
		}
	}
	sort.SliceStable(ts, func(i, j int) bool { return ts[i].Rate > ts[j].Rate })
	var out []string
	for i := 0; i < len(ts) && i < 3; i++ {
		out = append(out, ts[i].Topic)
	}
	return out
}
