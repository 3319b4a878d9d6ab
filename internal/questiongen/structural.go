package questiongen

import (
	"strings"
	"unicode/utf8"

	"github.com/abhisek/adaptest/internal/questionbank"
	"github.com/abhisek/adaptest/internal/sections"
)

const (
	maxPromptRunes  = 600
	minPassageWords = 40
)

// StructuralValidator checks required content and section fit.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *questionbank.Question, in Input) []Finding {
	if strings.TrimSpace(q.Prompt) == "" {
		return []Finding{fatal(v, "prompt is empty")}
	}
	if q.Difficulty < 1 || q.Difficulty > 5 {
		return []Finding{fatal(v, "difficulty %d out of range", q.Difficulty)}
	}

	var out []Finding
	needsPassage := q.Section == sections.Reading || q.Section == sections.Listening
	words := len(strings.Fields(q.Passage))
	switch {
	case needsPassage && words == 0:
		return []Finding{fatal(v, "%s question has no passage", q.Section)}
	case needsPassage && words < minPassageWords:
		out = append(out, penalty(v, 0.2, "passage has only %d words", words))
	case !needsPassage && words > 0:
		out = append(out, penalty(v, 0.1, "%s question carries an unexpected passage", q.Section))
	}

	if utf8.RuneCountInString(q.Prompt) > maxPromptRunes {
		out = append(out, penalty(v, 0.1, "prompt is longer than %d characters", maxPromptRunes))
	}
	if strings.TrimSpace(q.Explanation) == "" {
		out = append(out, penalty(v, 0.25, "explanation is empty"))
	}
	if d := q.Difficulty - in.Difficulty; in.Difficulty > 0 && (d > 1 || d < -1) {
		out = append(out, penalty(v, 0.15, "self-assessed difficulty %d is far from requested %d", q.Difficulty, in.Difficulty))
	}
	if in.Topic != "" && !strings.Contains(strings.ToLower(q.Topic), strings.ToLower(in.Topic)) {
		out = append(out, penalty(v, 0.1, "topic %q does not match requested %q", q.Topic, in.Topic))
	}
	return out
}
