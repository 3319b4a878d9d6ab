package profile

import (
	"fmt"
	"time"

	"github.com/abhisek/adaptest/internal/irt"
	"github.com/abhisek/adaptest/internal/sections"
)

const (
	// MaxHistory is the number of answers kept in a profile's history.
	MaxHistory = 500

	// MaxTopics caps each of the weak and strong topic lists.
	MaxTopics = 20

	// PatternInterval is how many answers pass between pattern recomputations.
	PatternInterval = 100

	// minTopicAttempts is the evidence needed before a topic can be pruned.
	minTopicAttempts = 10

	weakPruneBelow   = 0.30
	strongPruneBelow = 0.70

	dayLayout = "2006-01-02"
)

// HistoryEntry is one answered question.
type HistoryEntry struct {
	Section       sections.Section `json:"section"`
	QuestionID    string           `json:"question_id"`
	Topic         string           `json:"topic"`
	Correct       bool             `json:"correct"`
	TimeSpentSecs float64          `json:"time_spent_secs"`
	Difficulty    int              `json:"difficulty"`
	Timestamp     time.Time        `json:"timestamp"`
}

// TopicStat tracks a rolling rate for a topic. For weak topics Rate is the
// error rate; for strong topics it is the success rate.
type TopicStat struct {
	Topic    string           `json:"topic"`
	Section  sections.Section `json:"section"`
	Rate     float64          `json:"rate"`
	Attempts int              `json:"attempts"`
	LastSeen time.Time        `json:"last_seen"`
}

// Goal is a target score with a deadline. The progress fields are filled in
// by analytics on every refresh.
type Goal struct {
	TargetScore       int       `json:"target_score"`
	TargetDate        time.Time `json:"target_date"`
	StartScore        int       `json:"start_score"`
	SetAt             time.Time `json:"set_at"`
	RequiredDailyGain float64   `json:"required_daily_gain"`
	ProgressPct       float64   `json:"progress_pct"`
	DaysRemaining     int       `json:"days_remaining"`
	OnTrack           bool      `json:"on_track"`
}

// Profile is the learner's ability vector and learning history. Profiles are
// values: every update returns a new Profile and never mutates its input.
type Profile struct {
	UserID       string                       `json:"user_id"`
	Abilities    map[sections.Section]float64 `json:"abilities"`
	Overall      float64                      `json:"overall"`
	History      []HistoryEntry               `json:"history"`
	WeakTopics   []TopicStat                  `json:"weak_topics"`
	StrongTopics []TopicStat                  `json:"strong_topics"`
	Patterns     LearningPattern              `json:"patterns"`
	Goal         *Goal                        `json:"goal,omitempty"`

	TotalAnswered        int       `json:"total_answered"`
	TotalCorrect         int       `json:"total_correct"`
	TotalStudySecs       float64   `json:"total_study_secs"`
	StudyStreakDays      int       `json:"study_streak_days"`
	LastStudyDay         string    `json:"last_study_day,omitempty"`
	AnswersSincePatterns int       `json:"answers_since_patterns"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// AnswerInput is one graded response fed into a profile.
type AnswerInput struct {
	Section       sections.Section
	QuestionID    string
	Topic         string
	Difficulty    int
	Params        irt.Params
	Correct       bool
	TimeSpentSecs float64
}

// ValidationError reports an invalid profile update.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// New returns an empty profile with a neutral ability in every section.
func New(userID string, now time.Time) Profile {
	abilities := make(map[sections.Section]float64, 4)
	for _, s := range sections.All() {
		abilities[s] = 0
	}
	return Profile{
		UserID:    userID,
		Abilities: abilities,
		Patterns:  LearningPattern{Speed: SpeedAverage},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Ability returns the learner's estimate for a section.
func (p Profile) Ability(s sections.Section) float64 {
	return p.Abilities[s]
}

// Accuracy returns the lifetime share of correct answers.
func (p Profile) Accuracy() float64 {
	if p.TotalAnswered == 0 {
		return 0
	}
	return float64(p.TotalCorrect) / float64(p.TotalAnswered)
}

// RecentQuestionIDs returns answered question IDs, oldest first.
func (p Profile) RecentQuestionIDs() []string {
	ids := make([]string, len(p.History))
	for i, h := range p.History {
		ids[i] = h.QuestionID
	}
	return ids
}

// WeakTopicNames returns the topic names from the weak list.
func (p Profile) WeakTopicNames() []string {
	names := make([]string, len(p.WeakTopics))
	for i, t := range p.WeakTopics {
		names[i] = t.Topic
	}
	return names
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	out := p
	out.Abilities = make(map[sections.Section]float64, len(p.Abilities))
	for k, v := range p.Abilities {
		out.Abilities[k] = v
	}
	out.History = append([]HistoryEntry(nil), p.History...)
	out.WeakTopics = append([]TopicStat(nil), p.WeakTopics...)
	out.StrongTopics = append([]TopicStat(nil), p.StrongTopics...)
	if p.Goal != nil {
		g := *p.Goal
		out.Goal = &g
	}
	return out
}

// RecordAnswer folds one graded answer into a copy of p: history, section
// ability, topic lists, counters, the study streak and, every
// PatternInterval answers, the learning patterns.
func RecordAnswer(p Profile, in AnswerInput, now time.Time) Profile {
	out := p.Clone()
	if out.Abilities == nil {
		out.Abilities = make(map[sections.Section]float64, 4)
	}

	out.History = append(out.History, HistoryEntry{
		Section:       in.Section,
		QuestionID:    in.QuestionID,
		Topic:         in.Topic,
		Correct:       in.Correct,
		TimeSpentSecs: in.TimeSpentSecs,
		Difficulty:    in.Difficulty,
		Timestamp:     now,
	})
	if len(out.History) > MaxHistory {
		out.History = out.History[len(out.History)-MaxHistory:]
	}

	out.Abilities[in.Section] = irt.UpdateAbility(out.Abilities[in.Section], in.Params, in.Correct)
	out.Overall = overall(out.Abilities)

	if in.Topic != "" {
		out.WeakTopics = updateTopics(out.WeakTopics, in, !in.Correct, weakPruneBelow, now)
		out.StrongTopics = updateTopics(out.StrongTopics, in, in.Correct, strongPruneBelow, now)
	}

	out.TotalAnswered++
	if in.Correct {
		out.TotalCorrect++
	}
	if in.TimeSpentSecs > 0 {
		out.TotalStudySecs += in.TimeSpentSecs
	}
	out.StudyStreakDays, out.LastStudyDay = advanceStreak(out.StudyStreakDays, out.LastStudyDay, now)

	out.AnswersSincePatterns++
	if out.AnswersSincePatterns >= PatternInterval {
		out.Patterns = ComputePatterns(out.History, now)
		out.AnswersSincePatterns = 0
	}

	out.UpdatedAt = now
	return out
}

// SetGoal returns a copy of p with a new goal. currentScore is recorded as the
// starting point for progress tracking.
func SetGoal(p Profile, targetScore int, targetDate time.Time, currentScore int, now time.Time) (Profile, error) {
	if targetScore < 0 || targetScore > 600 {
		return p, &ValidationError{Field: "target_score", Message: "must be between 0 and 600"}
	}
	if !targetDate.After(now) {
		return p, &ValidationError{Field: "target_date", Message: "must be in the future"}
	}
	out := p.Clone()
	out.Goal = &Goal{
		TargetScore:   targetScore,
		TargetDate:    targetDate,
		StartScore:    currentScore,
		SetAt:         now,
		DaysRemaining: daysBetween(now, targetDate),
	}
	if out.Goal.DaysRemaining > 0 {
		out.Goal.RequiredDailyGain = float64(targetScore-currentScore) / float64(out.Goal.DaysRemaining)
	}
	out.UpdatedAt = now
	return out, nil
}

func overall(abilities map[sections.Section]float64) float64 {
	var sum float64
	for _, s := range sections.All() {
		sum += abilities[s]
	}
	return irt.ClampTheta(sum / float64(len(sections.All())))
}

// updateTopics applies one outcome to a topic list. hit is the event the list
// counts (an error for weak topics, a success for strong ones). A topic joins
// the list on its first hit.
func updateTopics(list []TopicStat, in AnswerInput, hit bool, pruneBelow float64, now time.Time) []TopicStat {
	outcome := 0.0
	if hit {
		outcome = 1
	}

	idx := -1
	for i := range list {
		if list[i].Topic == in.Topic && list[i].Section == in.Section {
			idx = i
			break
		}
	}

	if idx < 0 {
		if !hit {
			return list
		}
		list = append(list, TopicStat{
			Topic:    in.Topic,
			Section:  in.Section,
			Rate:     1,
			Attempts: 1,
			LastSeen: now,
		})
		if len(list) > MaxTopics {
			list = evictOldest(list)
		}
		return list
	}

	t := list[idx]
	t.Rate = (t.Rate*float64(t.Attempts) + outcome) / float64(t.Attempts+1)
	t.Attempts++
	t.LastSeen = now
	if t.Attempts >= minTopicAttempts && t.Rate < pruneBelow {
		return append(list[:idx:idx], list[idx+1:]...)
	}
	list[idx] = t
	return list
}

func evictOldest(list []TopicStat) []TopicStat {
	oldest := 0
	for i := range list {
		if list[i].LastSeen.Before(list[oldest].LastSeen) {
			oldest = i
		}
	}
	return append(list[:oldest:oldest], list[oldest+1:]...)
}

func advanceStreak(streak int, lastDay string, now time.Time) (int, string) {
	today := now.Format(dayLayout)
	switch lastDay {
	case today:
		if streak == 0 {
			streak = 1
		}
		return streak, today
	case now.AddDate(0, 0, -1).Format(dayLayout):
		return streak + 1, today
	}
	return 1, today
}

// daysBetween returns whole calendar days from a to b, never negative.
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	d := int(bd.Sub(ad).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
