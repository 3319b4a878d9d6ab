package questiongen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/adaptest/internal/llm"
	"github.com/abhisek/adaptest/internal/questionbank"
)

// Generator produces exam questions with an LLM provider.
type Generator struct {
	provider llm.Provider
	config   Config
	now      func() time.Time
}

// New creates a new Generator with the given provider and config.
func New(provider llm.Provider, cfg Config) *Generator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Generator{provider: provider, config: cfg, now: time.Now}
}

// questionOutput is the raw LLM response before validation.
type questionOutput struct {
	Prompt      string   `json:"prompt"`
	Passage     string   `json:"passage"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
	Topic       string   `json:"topic"`
	Tags        []string `json:"tags"`
	Difficulty  int      `json:"difficulty"`
}

// Generate produces a single question for the given input. The question
// is returned pending review with AI provenance; it is not saved.
func (g *Generator) Generate(ctx context.Context, in Input) (*questionbank.Question, error) {
	if !in.Section.Valid() {
		return nil, &ValidationError{Validator: "input", Message: fmt.Sprintf("unknown section %q", in.Section)}
	}
	if !in.Type.Valid() {
		return nil, &ValidationError{Validator: "input", Message: fmt.Sprintf("unknown type %q", in.Type)}
	}
	if in.Difficulty < 1 || in.Difficulty > 5 {
		return nil, &ValidationError{Validator: "input", Message: "difficulty must be between 1 and 5"}
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeQuestionGen)

	req := llm.Request{
		System:      systemPrompt,
		Messages:    llm.UserPrompt(buildUserMessage(in, g.config)),
		Schema:      QuestionSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var raw questionOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}

	q := toQuestion(raw, in)
	quality, _, err := Assess(q, in, g.config.Validators)
	if err != nil {
		return nil, err
	}
	if q.Type == questionbank.TypeFillInBlank {
		q.Options = nil
	}
	if quality < g.config.MinQuality {
		return nil, &ValidationError{
			Validator: "quality",
			Message:   fmt.Sprintf("quality %.2f below threshold %.2f", quality, g.config.MinQuality),
			Retryable: true,
		}
	}

	now := g.now()
	providerName := g.config.ProviderName
	if providerName == "" {
		providerName = "unknown"
	}
	q.ReviewStatus = questionbank.StatusPending
	q.AI = &questionbank.Provenance{
		Provider:     providerName,
		Model:        resp.Model,
		GeneratedAt:  now,
		QualityScore: quality,
	}
	questionbank.Normalize(q, now)
	if err := questionbank.Validate(q); err != nil {
		return nil, fmt.Errorf("generated question: %w", err)
	}
	return q, nil
}

// toQuestion maps model output onto a question. Multiple-choice options get
// letter IDs and the answer text is resolved to the matching ID.
func toQuestion(raw questionOutput, in Input) *questionbank.Question {
	q := &questionbank.Question{
		Section:       in.Section,
		Type:          in.Type,
		Difficulty:    raw.Difficulty,
		Topic:         strings.ToLower(strings.TrimSpace(raw.Topic)),
		Prompt:        strings.TrimSpace(raw.Prompt),
		Passage:       strings.TrimSpace(raw.Passage),
		CorrectAnswer: strings.TrimSpace(raw.Answer),
		Explanation:   strings.TrimSpace(raw.Explanation),
	}
	if q.Topic == "" {
		q.Topic = strings.ToLower(in.Topic)
	}
	for _, t := range raw.Tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			q.Tags = append(q.Tags, t)
		}
	}

	switch in.Type {
	case questionbank.TypeMultipleChoice:
		for i, text := range raw.Options {
			id := string(rune('a' + i))
			q.Options = append(q.Options, questionbank.Option{ID: id, Text: strings.TrimSpace(text)})
			if strings.EqualFold(strings.TrimSpace(text), q.CorrectAnswer) {
				q.CorrectAnswer = id
			}
		}
	case questionbank.TypeTrueFalse:
		q.CorrectAnswer = strings.ToLower(q.CorrectAnswer)
	case questionbank.TypeFillInBlank:
		for _, text := range raw.Options {
			q.Options = append(q.Options, questionbank.Option{Text: text})
		}
	}
	return q
}

// BatchReport summarizes a batch generation run.
type BatchReport struct {
	Requested int                     `json:"requested"`
	Saved     []questionbank.Question `json:"saved"`
	Errors    []string                `json:"errors,omitempty"`
}

// GenerateBatch generates count questions with at most Config.Concurrency
// requests in flight and saves the ones that pass validation. Individual
// failures are reported, not returned; the error is non-nil only when the
// context ends or nothing could be saved because of a repository failure.
func (g *Generator) GenerateBatch(ctx context.Context, repo questionbank.Repository, in Input, count int) (*BatchReport, error) {
	report := &BatchReport{Requested: count, Saved: []questionbank.Question{}}
	if count <= 0 {
		return report, nil
	}

	results := make([]*questionbank.Question, count)
	failures := make([]error, count)

	var eg errgroup.Group
	eg.SetLimit(g.config.Concurrency)
	for i := range count {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				failures[i] = err
				return nil
			}
			q, err := g.Generate(ctx, in)
			if err != nil {
				failures[i] = err
				return nil
			}
			results[i] = q
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("generate batch: %w", err)
	}

	var saveErr error
	for i, q := range results {
		if q == nil {
			report.Errors = append(report.Errors, fmt.Sprintf("question %d: %v", i+1, failures[i]))
			continue
		}
		if err := repo.Save(ctx, q); err != nil {
			saveErr = err
			report.Errors = append(report.Errors, fmt.Sprintf("question %d: save: %v", i+1, err))
			continue
		}
		report.Saved = append(report.Saved, *q)
	}
	if len(report.Saved) == 0 && saveErr != nil {
		return report, fmt.Errorf("save generated questions: %w", saveErr)
	}
	return report, nil
}
