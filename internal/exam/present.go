package exam

import (
	"github.com/abhisek/adaptest/internal/questionbank"
	"github.com/abhisek/adaptest/internal/sections"
)

// PresentedQuestion is a question as shown to the learner. The answer key is
// only included once review is allowed.
type PresentedQuestion struct {
	Index         int                   `json:"index"`
	QuestionID    string                `json:"question_id"`
	Section       sections.Section      `json:"section"`
	Type          questionbank.Type     `json:"type"`
	Topic         string                `json:"topic,omitempty"`
	Prompt        string                `json:"prompt"`
	Passage       string                `json:"passage,omitempty"`
	AudioURL      string                `json:"audio_url,omitempty"`
	ImageURL      string                `json:"image_url,omitempty"`
	Options       []questionbank.Option `json:"options,omitempty"`
	Response      string                `json:"response,omitempty"`
	Answered      bool                  `json:"answered"`
	CorrectAnswer string                `json:"correct_answer,omitempty"`
	Explanation   string                `json:"explanation,omitempty"`
	Correct       *bool                 `json:"correct,omitempty"`
}

// PresentQuestions returns the attempt's questions in item order with options
// in each item's stored order. Questions missing from the slice are skipped.
func PresentQuestions(a Attempt, cfg Config, questions []questionbank.Question) []PresentedQuestion {
	byID := make(map[string]*questionbank.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}
	review := a.Status == StatusCompleted && cfg.Rules.AllowReview

	out := make([]PresentedQuestion, 0, len(a.Items))
	for i, it := range a.Items {
		q, ok := byID[it.QuestionID]
		if !ok {
			continue
		}
		pq := PresentedQuestion{
			Index:      i,
			QuestionID: q.ID,
			Section:    it.Section,
			Type:       q.Type,
			Topic:      q.Topic,
			Prompt:     q.Prompt,
			Passage:    q.Passage,
			AudioURL:   q.AudioURL,
			ImageURL:   q.ImageURL,
			Options:    orderOptions(q.Options, it.OptionOrder),
		}
		if ans, ok := a.AnswerFor(q.ID); ok {
			pq.Response = ans.Response
			pq.Answered = true
			if review {
				correct := ans.Correct
				pq.Correct = &correct
			}
		}
		if review {
			pq.CorrectAnswer = q.CorrectAnswer
			pq.Explanation = q.Explanation
		}
		out = append(out, pq)
	}
	return out
}

// orderOptions arranges options by ID order. Options not named in order are
// appended in their original order.
func orderOptions(opts []questionbank.Option, order []string) []questionbank.Option {
	if len(order) == 0 {
		return append([]questionbank.Option(nil), opts...)
	}
	byID := make(map[string]questionbank.Option, len(opts))
	for _, o := range opts {
		byID[o.ID] = o
	}
	out := make([]questionbank.Option, 0, len(opts))
	used := make(map[string]bool, len(opts))
	for _, id := range order {
		if o, ok := byID[id]; ok && !used[id] {
			out = append(out, o)
			used[id] = true
		}
	}
	for _, o := range opts {
		if !used[o.ID] {
			out = append(out, o)
		}
	}
	return out
}
