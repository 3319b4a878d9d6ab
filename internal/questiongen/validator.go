package questiongen

import (
	"fmt"

	"github.com/abhisek/adaptest/internal/questionbank"
)

// Validator checks a generated question.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier for this validator, e.g. "structural".
	Name() string

	// Validate inspects the question and returns its findings. A nil
	// result means the question passed cleanly.
	Validate(q *questionbank.Question, in Input) []Finding
}

// Finding is one problem a validator noticed. Fatal findings reject the
// question; others only deduct Penalty from its quality score.
type Finding struct {
	Validator string
	Message   string
	Fatal     bool
	Penalty   float64
}

// ValidationError describes why a question failed validation.
type ValidationError struct {
	Validator string // Name of the validator that failed
	Message   string // Human-readable description of the failure
	Retryable bool   // Whether regeneration is likely to fix this
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

func fatal(v Validator, format string, args ...any) Finding {
	return Finding{Validator: v.Name(), Message: fmt.Sprintf(format, args...), Fatal: true, Penalty: 1}
}

func penalty(v Validator, amount float64, format string, args ...any) Finding {
	return Finding{Validator: v.Name(), Message: fmt.Sprintf(format, args...), Penalty: amount}
}

// Assess runs validators in order and folds their findings into a quality
// score in [0, 1]. The first fatal finding stops the chain and is returned
// as a *ValidationError.
func Assess(q *questionbank.Question, in Input, validators []Validator) (float64, []Finding, error) {
	score := 1.0
	var all []Finding
	for _, v := range validators {
		for _, f := range v.Validate(q, in) {
			if f.Fatal {
				return 0, append(all, f), &ValidationError{Validator: f.Validator, Message: f.Message, Retryable: true}
			}
			score -= f.Penalty
			all = append(all, f)
		}
	}
	if score < 0 {
		score = 0
	}
	return score, all, nil
}
