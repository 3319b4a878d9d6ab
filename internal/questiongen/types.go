package questiongen

import (
	"github.com/abhisek/adaptest/internal/questionbank"
	"github.com/abhisek/adaptest/internal/sections"
)

// Input describes the question to generate.
type Input struct {
	Section    sections.Section
	Type       questionbank.Type
	Difficulty int
	Topic      string

	// PriorQuestions are prompts already in the pool for this topic; the
	// model is asked not to repeat them.
	PriorQuestions []string

	// WeakTopics lists topics the learner struggles with, oldest first.
	WeakTopics []string
}

// tierLabel maps a difficulty tier to the wording used in the prompt.
func tierLabel(difficulty int) string {
	switch difficulty {
	case 1:
		return "beginner (A1)"
	case 2:
		return "elementary (A2)"
	case 3:
		return "intermediate (B1)"
	case 4:
		return "upper intermediate (B2)"
	default:
		return "advanced (C1)"
	}
}
