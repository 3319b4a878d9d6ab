package analytics

import (
	"time"

	"github.com/abhisek/adaptest/internal/exam"
	"github.com/abhisek/adaptest/internal/profile"
	"github.com/abhisek/adaptest/internal/sections"
)

// StudyTime breaks study minutes down by section and time of day.
type StudyTime struct {
	TotalMinutes float64                      `json:"total_minutes"`
	BySection    map[sections.Section]float64 `json:"by_section"`
	ByTimeOfDay  map[string]float64           `json:"by_time_of_day"`
}

// StudyTimeDistribution sums answer time from a profile history.
func StudyTimeDistribution(history []profile.HistoryEntry) StudyTime {
	st := StudyTime{
		BySection:   make(map[sections.Section]float64, 4),
		ByTimeOfDay: make(map[string]float64, 4),
	}
	for _, s := range sections.All() {
		st.BySection[s] = 0
	}
	for _, h := range history {
		mins := h.TimeSpentSecs / 60
		st.TotalMinutes += mins
		st.BySection[h.Section] += mins
		st.ByTimeOfDay[profile.TimeOfDay(h.Timestamp.Hour())] += mins
	}
	return st
}

// Snapshot is the full dashboard payload for one learner. It is derived
// wholesale from the profile and attempts; only the milestone log carries
// over between refreshes.
type Snapshot struct {
	UserID        string                       `json:"user_id"`
	CurrentScore  int                          `json:"current_score"`
	Band          string                       `json:"band"`
	Ability       float64                      `json:"ability"`
	Abilities     map[sections.Section]float64 `json:"abilities"`
	Trend         []TrendPoint                 `json:"trend"`
	Summary       Summary                      `json:"summary"`
	Sections      []SectionRank                `json:"sections"`
	StudyTime     StudyTime                    `json:"study_time"`
	Velocity      float64                      `json:"velocity"`
	Peers         PeerComparison               `json:"peers"`
	Goal          *profile.Goal                `json:"goal,omitempty"`
	Prediction    Prediction                   `json:"prediction"`
	Milestones    []Milestone                  `json:"milestones"`
	NewMilestones []Milestone                  `json:"new_milestones,omitempty"`
	RefreshedAt   time.Time                    `json:"refreshed_at"`
}

// Input gathers everything a refresh needs.
type Input struct {
	Profile    profile.Profile
	Attempts   []exam.Attempt
	PeerScores []int
	Previous   *Snapshot
	TargetDays int
	Now        time.Time
}

// Build recomputes a snapshot from its inputs.
func Build(in Input) Snapshot {
	trend := BuildTrend(in.Attempts)
	summary := Summarize(trend, in.Now)
	velocity := Velocity(trend, in.Now)

	snap := Snapshot{
		UserID:       in.Profile.UserID,
		CurrentScore: summary.Current,
		Band:         exam.Band(summary.Current),
		Ability:      in.Profile.Overall,
		Abilities:    in.Profile.Abilities,
		Trend:        trend,
		Summary:      summary,
		Sections:     RankSections(in.Attempts),
		StudyTime:    StudyTimeDistribution(in.Profile.History),
		Velocity:     velocity,
		Peers:        ComparePeers(summary.Current, in.PeerScores),
		Prediction: PredictScore(trend, in.TargetDays, Signals{
			Velocity: velocity,
			Accuracy: in.Profile.Accuracy(),
		}),
		RefreshedAt: in.Now,
	}
	if snap.Trend == nil {
		snap.Trend = []TrendPoint{}
	}

	if in.Profile.Goal != nil {
		g := TrackGoal(*in.Profile.Goal, summary.Current, velocity, in.Now)
		snap.Goal = &g
	}

	var previous []Milestone
	if in.Previous != nil {
		previous = in.Previous.Milestones
	}
	snap.Milestones, snap.NewMilestones = DetectMilestones(previous, Progress{
		BestScore:         summary.Highest,
		StreakDays:        in.Profile.StudyStreakDays,
		QuestionsAnswered: in.Profile.TotalAnswered,
		StudyHours:        in.Profile.TotalStudySecs / 3600,
	}, in.Now)
	if snap.Milestones == nil {
		snap.Milestones = []Milestone{}
	}
	return snap
}
