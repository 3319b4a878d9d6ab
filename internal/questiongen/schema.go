package questiongen

import "github.com/abhisek/adaptest/internal/llm"

// QuestionSchema defines the JSON schema for LLM question generation responses.
var QuestionSchema = &llm.Schema{
	Name:        "exam-question",
	Description: "A single English proficiency exam question with answer key and explanation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{
				"type":        "string",
				"description": "The question stem shown to the learner. Fill-in-blank stems mark the gap with ___",
			},
			"passage": map[string]any{
				"type":        "string",
				"description": "Reading passage or listening transcript the question refers to. Empty for vocabulary and grammar.",
			},
			"options": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "string",
				},
				"description": "Exactly 4 options for multiple_choice. Empty array for other types.",
			},
			"answer": map[string]any{
				"type":        "string",
				"description": "For multiple_choice: the text of the correct option. For true_false: \"true\" or \"false\". For fill_in_blank: the missing word or phrase; list alternatives separated by |.",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "Why the answer is correct and why the distractors are wrong",
			},
			"topic": map[string]any{
				"type":        "string",
				"description": "Short lowercase topic label, e.g. \"present perfect\"",
			},
			"tags": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Up to 5 lowercase keywords",
			},
			"difficulty": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"maximum":     5,
				"description": "Self-assessed difficulty from 1 (A1) to 5 (C1)",
			},
		},
		"required":             []any{"prompt", "passage", "options", "answer", "explanation", "topic", "tags", "difficulty"},
		"additionalProperties": false,
	},
}
