package exam

import (
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/adaptest/internal/sections"
)

// Status is the lifecycle state of an attempt.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
	StatusExpired    Status = "expired"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned || s == StatusExpired
}

// EndReason records why an attempt left the active states.
type EndReason string

const (
	EndCompleted  EndReason = "completed"
	EndAbandoned  EndReason = "abandoned"
	EndTimeLimit  EndReason = "time_limit"
	EndPauseLimit EndReason = "pause_limit"
	EndStale      EndReason = "never_started"
)

// ErrInvalidState is matched by every *StateError.
var ErrInvalidState = errors.New("invalid attempt state")

// ErrNotInAttempt is returned when an answer names a question the attempt
// does not contain.
var ErrNotInAttempt = errors.New("question is not part of this attempt")

// ErrUnknownActivity is returned for an unrecognized proctoring signal.
var ErrUnknownActivity = errors.New("unknown activity")

// StateError reports a transition that the attempt's current status forbids.
type StateError struct {
	Op     string
	Status Status
	Reason string
}

func (e *StateError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot %s attempt in status %s: %s", e.Op, e.Status, e.Reason)
	}
	return fmt.Sprintf("cannot %s attempt in status %s", e.Op, e.Status)
}

func (e *StateError) Unwrap() error { return ErrInvalidState }

// Item is one question slot in an attempt. OptionOrder holds the option IDs
// in the order they are shown to this learner.
type Item struct {
	QuestionID  string           `json:"question_id"`
	Section     sections.Section `json:"section"`
	OptionOrder []string         `json:"option_order,omitempty"`
}

// Answer is the learner's latest response to one item.
type Answer struct {
	QuestionID    string           `json:"question_id"`
	Section       sections.Section `json:"section"`
	Response      string           `json:"response"`
	Correct       bool             `json:"correct"`
	TimeSpentSecs float64          `json:"time_spent_secs"`
	AnsweredAt    time.Time        `json:"answered_at"`
}

// Integrity holds advisory proctoring counters. They never block scoring.
type Integrity struct {
	TabSwitches     int  `json:"tab_switches"`
	FullscreenExits int  `json:"fullscreen_exits"`
	Suspicious      bool `json:"suspicious"`
}

// Attempt is one learner's sitting of an exam config. Attempts are values:
// each transition returns a new Attempt.
type Attempt struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	ConfigID    string        `json:"config_id"`
	Kind        Kind          `json:"kind"`
	Items       []Item        `json:"items"`
	Answers     []Answer      `json:"answers"`
	Cursor      int           `json:"cursor"`
	Status      Status        `json:"status"`
	TimeLimit   time.Duration `json:"time_limit"`
	CreatedAt   time.Time     `json:"created_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	PausedAt    *time.Time    `json:"paused_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	PausedTotal time.Duration `json:"paused_total"`
	Integrity   Integrity     `json:"integrity"`
	EndReason   EndReason     `json:"end_reason,omitempty"`
	Result      *Result       `json:"result,omitempty"`
}

// QuestionIDs returns the item question IDs in presentation order.
func (a Attempt) QuestionIDs() []string {
	ids := make([]string, len(a.Items))
	for i, it := range a.Items {
		ids[i] = it.QuestionID
	}
	return ids
}

// AnswerFor returns the stored answer for a question, if any.
func (a Attempt) AnswerFor(questionID string) (Answer, bool) {
	for _, ans := range a.Answers {
		if ans.QuestionID == questionID {
			return ans, true
		}
	}
	return Answer{}, false
}

// ActiveTime returns time spent in progress, excluding pauses.
func (a Attempt) ActiveTime(now time.Time) time.Duration {
	if a.StartedAt == nil {
		return 0
	}
	end := now
	if a.CompletedAt != nil {
		end = *a.CompletedAt
	}
	active := end.Sub(*a.StartedAt) - a.PausedTotal
	if a.Status == StatusPaused && a.PausedAt != nil {
		active -= end.Sub(*a.PausedAt)
	}
	if active < 0 {
		return 0
	}
	return active
}

// Remaining returns the time left before the limit, never negative.
func (a Attempt) Remaining(now time.Time) time.Duration {
	if a.TimeLimit <= 0 {
		return 0
	}
	left := a.TimeLimit - a.ActiveTime(now)
	if left < 0 {
		return 0
	}
	return left
}

func (a Attempt) clone() Attempt {
	out := a
	out.Items = append([]Item(nil), a.Items...)
	out.Answers = append([]Answer(nil), a.Answers...)
	return out
}

func (a Attempt) itemIndex(questionID string) int {
	for i, it := range a.Items {
		if it.QuestionID == questionID {
			return i
		}
	}
	return -1
}
