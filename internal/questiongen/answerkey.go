package questiongen

import (
	"strings"

	"github.com/abhisek/adaptest/internal/questionbank"
)

// AnswerKeyValidator checks that the answer key is consistent with the
// options and that the explanation supports it.
type AnswerKeyValidator struct{}

func (v *AnswerKeyValidator) Name() string { return "answer-key" }

func (v *AnswerKeyValidator) Validate(q *questionbank.Question, _ Input) []Finding {
	answer := strings.TrimSpace(q.CorrectAnswer)
	if answer == "" {
		return []Finding{fatal(v, "answer is empty")}
	}

	// keyText is what the explanation should mention.
	keyText := answer
	switch q.Type {
	case questionbank.TypeMultipleChoice:
		if !q.HasOption(answer) {
			return []Finding{fatal(v, "answer does not match any option")}
		}
		for _, o := range q.Options {
			if strings.EqualFold(o.ID, answer) {
				keyText = o.Text
			}
		}
	case questionbank.TypeTrueFalse:
		if a := strings.ToLower(answer); a != "true" && a != "false" {
			return []Finding{fatal(v, "true/false answer is %q", answer)}
		}
		return nil
	case questionbank.TypeFillInBlank:
		keyText = strings.TrimSpace(strings.Split(answer, "|")[0])
		if len(keyText) > 3 && strings.Contains(strings.ToLower(q.Prompt), strings.ToLower(keyText)) {
			return []Finding{penalty(v, 0.3, "prompt already contains the answer %q", keyText)}
		}
	}

	if q.Explanation != "" && !strings.Contains(strings.ToLower(q.Explanation), strings.ToLower(strings.TrimSpace(keyText))) {
		return []Finding{penalty(v, 0.1, "explanation does not mention the correct answer")}
	}
	return nil
}
