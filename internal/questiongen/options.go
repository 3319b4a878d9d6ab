package questiongen

import (
	"strings"
	"unicode/utf8"

	"github.com/abhisek/adaptest/internal/questionbank"
)

// choiceCount is the number of options a generated multiple-choice
// question must offer.
const choiceCount = 4

// OptionsValidator checks the answer options for the question type.
type OptionsValidator struct{}

func (v *OptionsValidator) Name() string { return "options" }

func (v *OptionsValidator) Validate(q *questionbank.Question, _ Input) []Finding {
	switch q.Type {
	case questionbank.TypeMultipleChoice:
		if len(q.Options) != choiceCount {
			return []Finding{fatal(v, "multiple choice needs exactly %d options, got %d", choiceCount, len(q.Options))}
		}
		seen := make(map[string]bool, len(q.Options))
		shortest, longest := -1, 0
		for _, o := range q.Options {
			text := strings.ToLower(strings.TrimSpace(o.Text))
			if text == "" {
				return []Finding{fatal(v, "option %s is empty", o.ID)}
			}
			if seen[text] {
				return []Finding{fatal(v, "duplicate option %q", o.Text)}
			}
			seen[text] = true
			n := utf8.RuneCountInString(text)
			if shortest < 0 || n < shortest {
				shortest = n
			}
			if n > longest {
				longest = n
			}
		}
		// A lone long option gives the answer away.
		if longest > 3*shortest && longest-shortest > 10 {
			return []Finding{penalty(v, 0.1, "option lengths are unbalanced (%d vs %d)", shortest, longest)}
		}
	case questionbank.TypeTrueFalse:
		if len(q.Options) != 0 && len(q.Options) != 2 {
			return []Finding{fatal(v, "true/false takes no custom options")}
		}
	case questionbank.TypeFillInBlank:
		if len(q.Options) != 0 {
			return []Finding{penalty(v, 0.05, "fill-in-blank should not list options")}
		}
		if !strings.Contains(q.Prompt, "___") {
			return []Finding{penalty(v, 0.2, "prompt does not mark the blank with ___")}
		}
	}
	return nil
}
