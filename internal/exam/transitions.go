package exam

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/abhisek/adaptest/internal/questionbank"
	"github.com/abhisek/adaptest/internal/sections"
)

// Integrity thresholds above which an attempt is flagged for review.
const (
	SuspiciousTabSwitches     = 5
	SuspiciousFullscreenExits = 3
)

// Policy bounds how long an attempt may run, pause, or wait to start.
type Policy struct {
	// Grace is added to the time limit before an active attempt expires.
	Grace time.Duration
	// MaxPause is the longest a single pause may last.
	MaxPause time.Duration
	// StaleAfter expires attempts that were created but never started.
	StaleAfter time.Duration
}

// DefaultPolicy returns the standard expiry policy.
func DefaultPolicy() Policy {
	return Policy{
		Grace:      2 * time.Minute,
		MaxPause:   30 * time.Minute,
		StaleAfter: 24 * time.Hour,
	}
}

// Activity is a proctoring signal reported by the client.
type Activity string

const (
	ActivityTabSwitch      Activity = "tab_switch"
	ActivityFullscreenExit Activity = "fullscreen_exit"
)

// NewAttempt builds a not-started attempt over questions, which must already
// be grouped by section in layout order. Shuffling follows cfg.Rules and uses
// rng.
func NewAttempt(id, userID string, cfg Config, questions []questionbank.Question, rng *rand.Rand, now time.Time) Attempt {
	items := make([]Item, 0, len(questions))
	for _, q := range questions {
		it := Item{QuestionID: q.ID, Section: q.Section}
		if len(q.Options) > 0 {
			it.OptionOrder = make([]string, len(q.Options))
			for i, o := range q.Options {
				it.OptionOrder[i] = o.ID
			}
			if cfg.Rules.ShuffleOptions && q.Type == questionbank.TypeMultipleChoice {
				rng.Shuffle(len(it.OptionOrder), func(i, j int) {
					it.OptionOrder[i], it.OptionOrder[j] = it.OptionOrder[j], it.OptionOrder[i]
				})
			}
		}
		items = append(items, it)
	}

	if cfg.Rules.ShuffleQuestions {
		shuffleWithinSections(items, rng)
	}

	return Attempt{
		ID:        id,
		UserID:    userID,
		ConfigID:  cfg.ID,
		Kind:      cfg.Kind,
		Items:     items,
		Status:    StatusNotStarted,
		TimeLimit: cfg.TimeLimit(),
		CreatedAt: now,
	}
}

// shuffleWithinSections permutes each run of same-section items in place,
// keeping the section order intact.
func shuffleWithinSections(items []Item, rng *rand.Rand) {
	start := 0
	for i := 1; i <= len(items); i++ {
		if i < len(items) && items[i].Section == items[start].Section {
			continue
		}
		run := items[start:i]
		rng.Shuffle(len(run), func(a, b int) { run[a], run[b] = run[b], run[a] })
		start = i
	}
}

// Start moves a not-started attempt into progress.
func Start(a Attempt, now time.Time) (Attempt, error) {
	if a.Status != StatusNotStarted {
		return a, &StateError{Op: "start", Status: a.Status}
	}
	out := a.clone()
	out.Status = StatusInProgress
	out.StartedAt = &now
	return out, nil
}

// Pause suspends an in-progress attempt when the rules allow it.
func Pause(a Attempt, rules Rules, now time.Time) (Attempt, error) {
	if a.Status != StatusInProgress {
		return a, &StateError{Op: "pause", Status: a.Status}
	}
	if !rules.AllowPause {
		return a, &StateError{Op: "pause", Status: a.Status, Reason: "pausing is not allowed for this exam"}
	}
	out := a.clone()
	out.Status = StatusPaused
	out.PausedAt = &now
	return out, nil
}

// Resume continues a paused attempt and adds the pause to PausedTotal.
func Resume(a Attempt, now time.Time) (Attempt, error) {
	if a.Status != StatusPaused {
		return a, &StateError{Op: "resume", Status: a.Status}
	}
	out := a.clone()
	if out.PausedAt != nil {
		if d := now.Sub(*out.PausedAt); d > 0 {
			out.PausedTotal += d
		}
	}
	out.PausedAt = nil
	out.Status = StatusInProgress
	return out, nil
}

// SubmitAnswer grades a response to q and stores it, replacing any earlier
// answer to the same question. Resubmitting is allowed until completion.
func SubmitAnswer(a Attempt, q *questionbank.Question, response string, timeSpentSecs float64, now time.Time) (Attempt, Answer, error) {
	if a.Status != StatusInProgress {
		return a, Answer{}, &StateError{Op: "submit answer to", Status: a.Status}
	}
	idx := a.itemIndex(q.ID)
	if idx < 0 {
		return a, Answer{}, ErrNotInAttempt
	}
	if timeSpentSecs < 0 {
		timeSpentSecs = 0
	}

	ans := Answer{
		QuestionID:    q.ID,
		Section:       a.Items[idx].Section,
		Response:      response,
		Correct:       q.IsCorrect(response),
		TimeSpentSecs: timeSpentSecs,
		AnsweredAt:    now,
	}

	out := a.clone()
	replaced := false
	for i := range out.Answers {
		if out.Answers[i].QuestionID == q.ID {
			out.Answers[i] = ans
			replaced = true
			break
		}
	}
	if !replaced {
		out.Answers = append(out.Answers, ans)
	}
	if idx+1 > out.Cursor {
		out.Cursor = min(idx+1, len(out.Items))
	}
	return out, ans, nil
}

// Complete finishes an in-progress or paused attempt and scores it.
func Complete(a Attempt, cfg Config, now time.Time) (Attempt, error) {
	if a.Status != StatusInProgress && a.Status != StatusPaused {
		return a, &StateError{Op: "complete", Status: a.Status}
	}
	out := a.clone()
	if out.Status == StatusPaused && out.PausedAt != nil {
		out.PausedTotal += now.Sub(*out.PausedAt)
		out.PausedAt = nil
	}
	out.Status = StatusCompleted
	out.CompletedAt = &now
	out.EndReason = EndCompleted
	res := Score(cfg, out)
	out.Result = &res
	return out, nil
}

// Abandon ends any non-terminal attempt without scoring it.
func Abandon(a Attempt, now time.Time) (Attempt, error) {
	if a.Status.Terminal() {
		return a, &StateError{Op: "abandon", Status: a.Status}
	}
	return end(a, StatusAbandoned, EndAbandoned, now), nil
}

// CheckExpiry marks an attempt expired when it ran past its limit plus grace,
// paused longer than allowed, or was never started within the stale window.
// It reports whether the attempt changed.
func CheckExpiry(a Attempt, now time.Time, p Policy) (Attempt, bool) {
	switch a.Status {
	case StatusInProgress:
		if a.TimeLimit > 0 && a.ActiveTime(now) > a.TimeLimit+p.Grace {
			return end(a, StatusExpired, EndTimeLimit, now), true
		}
	case StatusPaused:
		if p.MaxPause > 0 && a.PausedAt != nil && now.Sub(*a.PausedAt) > p.MaxPause {
			return end(a, StatusExpired, EndPauseLimit, now), true
		}
	case StatusNotStarted:
		if p.StaleAfter > 0 && now.Sub(a.CreatedAt) > p.StaleAfter {
			return end(a, StatusExpired, EndStale, now), true
		}
	}
	return a, false
}

// ReportActivity records a proctoring signal on an active attempt.
func ReportActivity(a Attempt, kind Activity) (Attempt, error) {
	if a.Status != StatusInProgress && a.Status != StatusPaused {
		return a, &StateError{Op: "report activity on", Status: a.Status}
	}
	out := a.clone()
	switch kind {
	case ActivityTabSwitch:
		out.Integrity.TabSwitches++
	case ActivityFullscreenExit:
		out.Integrity.FullscreenExits++
	default:
		return a, fmt.Errorf("%w %q", ErrUnknownActivity, kind)
	}
	out.Integrity.Suspicious = out.Integrity.TabSwitches >= SuspiciousTabSwitches ||
		out.Integrity.FullscreenExits >= SuspiciousFullscreenExits
	return out, nil
}

func end(a Attempt, status Status, reason EndReason, now time.Time) Attempt {
	out := a.clone()
	if out.Status == StatusPaused && out.PausedAt != nil {
		out.PausedTotal += now.Sub(*out.PausedAt)
		out.PausedAt = nil
	}
	out.Status = status
	out.EndReason = reason
	out.CompletedAt = &now
	return out
}

// SectionOf returns the section of a question in the attempt.
func (a Attempt) SectionOf(questionID string) (sections.Section, bool) {
	if i := a.itemIndex(questionID); i >= 0 {
		return a.Items[i].Section, true
	}
	return "", false
}
