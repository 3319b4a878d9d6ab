package questionbank

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ValidationError describes why a question record was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validate checks that a question carries every required field and a
// consistent answer key.
func Validate(q *Question) error {
	if !q.Section.Valid() {
		return &ValidationError{Field: "section", Message: fmt.Sprintf("unknown section %q", q.Section)}
	}
	if !q.Type.Valid() {
		return &ValidationError{Field: "type", Message: fmt.Sprintf("unknown type %q", q.Type)}
	}
	if q.Difficulty < 1 || q.Difficulty > 5 {
		return &ValidationError{Field: "difficulty", Message: "must be between 1 and 5"}
	}
	if strings.TrimSpace(q.Prompt) == "" {
		return &ValidationError{Field: "prompt", Message: "is empty"}
	}
	if strings.TrimSpace(q.CorrectAnswer) == "" {
		return &ValidationError{Field: "correct_answer", Message: "is empty"}
	}
	if q.ReviewStatus != "" && !q.ReviewStatus.Valid() {
		return &ValidationError{Field: "review_status", Message: fmt.Sprintf("unknown status %q", q.ReviewStatus)}
	}

	switch q.Type {
	case TypeMultipleChoice:
		if len(q.Options) < 2 {
			return &ValidationError{Field: "options", Message: "multiple choice needs at least 2 options"}
		}
		seen := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			key := strings.ToLower(strings.TrimSpace(o.ID))
			if key == "" || strings.TrimSpace(o.Text) == "" {
				return &ValidationError{Field: "options", Message: "option id and text are required"}
			}
			if seen[key] {
				return &ValidationError{Field: "options", Message: fmt.Sprintf("duplicate option id %q", o.ID)}
			}
			seen[key] = true
		}
		if !q.HasOption(q.CorrectAnswer) {
			return &ValidationError{Field: "correct_answer", Message: "does not match any option id"}
		}
	case TypeTrueFalse:
		ans := strings.ToLower(strings.TrimSpace(q.CorrectAnswer))
		if ans != "true" && ans != "false" {
			return &ValidationError{Field: "correct_answer", Message: "must be \"true\" or \"false\""}
		}
	}

	if q.IRT.A < 0 {
		return &ValidationError{Field: "irt.a", Message: "must not be negative"}
	}
	if q.IRT.C < 0 || q.IRT.C >= 1 {
		return &ValidationError{Field: "irt.c", Message: "must be in [0, 1)"}
	}
	if q.AI != nil && (q.AI.QualityScore < 0 || q.AI.QualityScore > 1) {
		return &ValidationError{Field: "ai.quality_score", Message: "must be in [0, 1]"}
	}
	return nil
}

// Normalize fills defaults on a new question: an ID, a review status, true/false
// options, and tier-derived IRT parameters.
func Normalize(q *Question, now time.Time) {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.ReviewStatus == "" {
		q.ReviewStatus = StatusApproved
	}
	if q.Type == TypeTrueFalse && len(q.Options) == 0 {
		q.Options = []Option{{ID: "true", Text: "True"}, {ID: "false", Text: "False"}}
	}
	if q.IRT.A == 0 {
		q.IRT = q.Params()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
}
