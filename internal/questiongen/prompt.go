package questiongen

import (
	"fmt"
	"strings"
)

const systemPrompt = `You write questions for an adaptive English proficiency exam with four sections: listening, vocabulary, grammar and reading.

Rules:
- Generate a single question for the requested section, type, topic and difficulty.
- The question must have exactly one defensible correct answer.
- Reading questions must include a passage of 80-250 words. Listening questions must include the transcript of the audio as the passage.
- Vocabulary and grammar questions leave the passage empty.
- For multiple_choice, provide exactly 4 distinct options of similar length. Distractors should reflect common learner mistakes.
- For true_false, leave options empty and answer "true" or "false".
- For fill_in_blank, mark the gap in the prompt with ___ and leave options empty.
- The explanation must name the correct answer and say briefly why the others are wrong.
- Do not repeat any question from the "already in the pool" list.`

// buildUserMessage constructs the user message from Input and Config limits.
func buildUserMessage(in Input, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Section: %s\n", in.Section.DisplayName())
	fmt.Fprintf(&b, "Type: %s\n", in.Type)
	fmt.Fprintf(&b, "Difficulty: %d, %s\n", in.Difficulty, tierLabel(in.Difficulty))
	if in.Topic != "" {
		fmt.Fprintf(&b, "Topic: %s\n", in.Topic)
	} else {
		b.WriteString("Topic: any topic that fits the section\n")
	}

	b.WriteString("\nAlready in the pool:\n")
	b.WriteString(buildDedup(in.PriorQuestions, cfg.MaxPriorQuestions))

	if len(in.WeakTopics) > 0 {
		b.WriteString("\n\nThe learner struggles with:\n")
		b.WriteString(buildList(in.WeakTopics, cfg.MaxWeakTopics))
	}

	return b.String()
}

// buildDedup formats prior prompts for the prompt, respecting the max limit.
// Returns "None" if there are no prior prompts.
func buildDedup(prior []string, max int) string {
	return buildList(prior, max)
}

// buildList numbers the last max entries of items.
func buildList(items []string, max int) string {
	if len(items) == 0 {
		return "None"
	}
	if max > 0 && len(items) > max {
		items = items[len(items)-max:]
	}

	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, it)
	}
	return strings.TrimRight(b.String(), "\n")
}
