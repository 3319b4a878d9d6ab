package questionbank

import (
	"strings"
	"time"

	"github.com/abhisek/adaptest/internal/irt"
	"github.com/abhisek/adaptest/internal/sections"
)

// Type describes how a learner answers a question.
type Type string

const (
	TypeMultipleChoice Type = "multiple_choice"
	TypeFillInBlank    Type = "fill_in_blank"
	TypeTrueFalse      Type = "true_false"
)

// Valid reports whether t is a known question type.
func (t Type) Valid() bool {
	switch t {
	case TypeMultipleChoice, TypeFillInBlank, TypeTrueFalse:
		return true
	}
	return false
}

// ReviewStatus tracks editorial review of a question.
type ReviewStatus string

const (
	StatusDraft    ReviewStatus = "draft"
	StatusPending  ReviewStatus = "pending"
	StatusApproved ReviewStatus = "approved"
	StatusRejected ReviewStatus = "rejected"
)

// Valid reports whether s is a known review status.
func (s ReviewStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Option is one selectable answer. IDs are stable across shuffles so the
// correct-answer mapping survives reordering.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Stats holds mutable usage counters for a question.
type Stats struct {
	TimesUsed       int     `json:"times_used"`
	TimesCorrect    int     `json:"times_correct"`
	AvgResponseSecs float64 `json:"avg_response_secs"`
}

// CorrectRate returns the observed share of correct responses.
func (s Stats) CorrectRate() float64 {
	if s.TimesUsed == 0 {
		return 0
	}
	return float64(s.TimesCorrect) / float64(s.TimesUsed)
}

// Record folds one response into the counters and rolling mean.
func (s Stats) Record(correct bool, timeSpentSecs float64) Stats {
	s.AvgResponseSecs = (s.AvgResponseSecs*float64(s.TimesUsed) + timeSpentSecs) / float64(s.TimesUsed+1)
	s.TimesUsed++
	if correct {
		s.TimesCorrect++
	}
	return s
}

// Provenance records how an AI-generated question was produced.
type Provenance struct {
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	GeneratedAt  time.Time `json:"generated_at"`
	QualityScore float64   `json:"quality_score"`
}

// Question is a single item in the pool. Content fields are immutable once
// stored; IRT and Stats are updated as the item is used.
type Question struct {
	ID            string           `json:"id"`
	Section       sections.Section `json:"section"`
	Type          Type             `json:"type"`
	Difficulty    int              `json:"difficulty"`
	Topic         string           `json:"topic"`
	Tags          []string         `json:"tags,omitempty"`
	Prompt        string           `json:"prompt"`
	Passage       string           `json:"passage,omitempty"`
	AudioURL      string           `json:"audio_url,omitempty"`
	ImageURL      string           `json:"image_url,omitempty"`
	Options       []Option         `json:"options,omitempty"`
	CorrectAnswer string           `json:"correct_answer"`
	Explanation   string           `json:"explanation,omitempty"`
	IsOfficial    bool             `json:"official"`
	ReviewStatus  ReviewStatus     `json:"review_status"`
	IRT           irt.Params       `json:"irt"`
	Stats         Stats            `json:"stats"`
	AI            *Provenance      `json:"ai,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// Params returns the item's IRT parameters, falling back to tier defaults
// when the item has not been calibrated.
func (q *Question) Params() irt.Params {
	if q.IRT.A > 0 {
		return q.IRT
	}
	return irt.DefaultParams(q.Difficulty, q.optionCount())
}

// QualityScore returns the AI quality score, or 1 for human-authored items.
func (q *Question) QualityScore() float64 {
	if q.AI == nil {
		return 1
	}
	return q.AI.QualityScore
}

// IsCorrect checks a learner response against the answer key. Choice
// questions compare option IDs; fill-in-blank compares normalized text and
// accepts any of several "|"-separated answers.
func (q *Question) IsCorrect(response string) bool {
	resp := normalize(response)
	if resp == "" {
		return false
	}
	if q.Type == TypeFillInBlank {
		for _, accepted := range strings.Split(q.CorrectAnswer, "|") {
			if normalize(accepted) == resp {
				return true
			}
		}
		return false
	}
	return resp == normalize(q.CorrectAnswer)
}

// HasOption reports whether id names one of the question's options.
func (q *Question) HasOption(id string) bool {
	for _, o := range q.Options {
		if strings.EqualFold(o.ID, id) {
			return true
		}
	}
	return false
}

func (q *Question) optionCount() int {
	switch q.Type {
	case TypeTrueFalse:
		return 2
	case TypeFillInBlank:
		return 0
	}
	return len(q.Options)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
