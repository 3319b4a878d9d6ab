package questiongen

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/adaptest/internal/llm"
	"github.com/abhisek/adaptest/internal/questionbank"
	"github.com/abhisek/adaptest/internal/sections"
)

var genTime = time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

func grammarInput() Input {
	return Input{
		Section:    sections.Grammar,
		Type:       questionbank.TypeMultipleChoice,
		Difficulty: 2,
		Topic:      "present simple",
	}
}

func mcJSON() json.RawMessage {
	return json.RawMessage(`{
		"prompt": "She ___ to the office every day.",
		"passage": "",
		"options": ["go", "goes", "going", "gone"],
		"answer": "goes",
		"explanation": "\"goes\" agrees with the third person singular subject; the other forms do not.",
		"topic": "Present Simple",
		"tags": ["Verbs", "agreement"],
		"difficulty": 2
	}`)
}

func newTestGenerator(p llm.Provider, mutate ...func(*Config)) *Generator {
	cfg := DefaultConfig()
	cfg.ProviderName = "mock"
	for _, m := range mutate {
		m(&cfg)
	}
	g := New(p, cfg)
	g.now = func() time.Time { return genTime }
	return g
}

// savingRepo records saved questions; only Save is exercised.
type savingRepo struct {
	questionbank.Repository

	mu    sync.Mutex
	saved []questionbank.Question
	err   error
}

func (r *savingRepo) Save(_ context.Context, q *questionbank.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, *q)
	return nil
}

func TestGenerate_MultipleChoice(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: mcJSON()})
	q, err := newTestGenerator(mock).Generate(context.Background(), grammarInput())
	require.NoError(t, err)

	assert.NotEmpty(t, q.ID)
	assert.Equal(t, sections.Grammar, q.Section)
	assert.Equal(t, "b", q.CorrectAnswer)
	assert.Len(t, q.Options, 4)
	assert.Equal(t, "present simple", q.Topic)
	assert.Equal(t, []string{"verbs", "agreement"}, q.Tags)
	assert.Equal(t, questionbank.StatusPending, q.ReviewStatus)
	assert.Equal(t, genTime, q.CreatedAt)
	assert.Greater(t, q.IRT.A, 0.0)
	require.NotNil(t, q.AI)
	assert.Equal(t, "mock", q.AI.Provider)
	assert.Equal(t, "mock", q.AI.Model)
	assert.Equal(t, 1.0, q.AI.QualityScore)
	assert.True(t, q.IsCorrect("b"))

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Same(t, QuestionSchema, calls[0].Schema)
	assert.Contains(t, calls[0].Messages[0].Content, "Topic: present simple")
}

func TestGenerate_TrueFalseAndFillInBlank(t *testing.T) {
	tf := `{"prompt":"The word \"reluctant\" means eager.","passage":"","options":[],"answer":"False","explanation":"Reluctant means unwilling, so the answer is false.","topic":"adjectives","tags":[],"difficulty":3}`
	fill := `{"prompt":"I have lived here ___ 2019.","passage":"","options":[],"answer":"since|from","explanation":"Use since with a point in time.","topic":"prepositions","tags":["time"],"difficulty":2}`
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(tf)},
		llm.MockResponse{Content: json.RawMessage(fill)},
	)
	g := newTestGenerator(mock)

	q, err := g.Generate(context.Background(), Input{Section: sections.Vocabulary, Type: questionbank.TypeTrueFalse, Difficulty: 3})
	require.NoError(t, err)
	assert.Equal(t, "false", q.CorrectAnswer)
	assert.Len(t, q.Options, 2)

	q, err = g.Generate(context.Background(), Input{Section: sections.Grammar, Type: questionbank.TypeFillInBlank, Difficulty: 2})
	require.NoError(t, err)
	assert.True(t, q.IsCorrect("From"))
	assert.Empty(t, q.Options)
}

func TestGenerate_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		in        func() Input
		content   string
		validator string
	}{
		{
			name:      "answer not among options",
			in:        grammarInput,
			content:   `{"prompt":"She ___ every day.","passage":"","options":["go","going","gone","went"],"answer":"goes","explanation":"goes","topic":"present simple","tags":[],"difficulty":2}`,
			validator: "answer-key",
		},
		{
			name:      "duplicate options",
			in:        grammarInput,
			content:   `{"prompt":"She ___ every day.","passage":"","options":["goes","Goes","gone","went"],"answer":"goes","explanation":"goes","topic":"present simple","tags":[],"difficulty":2}`,
			validator: "options",
		},
		{
			name:      "three options",
			in:        grammarInput,
			content:   `{"prompt":"She ___ every day.","passage":"","options":["goes","gone","went"],"answer":"goes","explanation":"goes","topic":"present simple","tags":[],"difficulty":2}`,
			validator: "options",
		},
		{
			name: "reading without passage",
			in: func() Input {
				in := grammarInput()
				in.Section = sections.Reading
				in.Topic = ""
				return in
			},
			content:   `{"prompt":"What is the main idea?","passage":"","options":["a cat","a dog","a bird","a fish"],"answer":"a cat","explanation":"a cat","topic":"main idea","tags":[],"difficulty":2}`,
			validator: "structural",
		},
		{
			name: "low quality",
			in:   grammarInput,
			// Far difficulty, off topic, silent explanation and a passage on
			// a grammar item add up to more than half the score.
			content:   `{"prompt":"She ___ every day.","passage":"Some text.","options":["go","goes","going","gone"],"answer":"goes","explanation":"","topic":"articles","tags":[],"difficulty":5}`,
			validator: "quality",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(tt.content)})
			_, err := newTestGenerator(mock).Generate(context.Background(), tt.in())
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.validator, verr.Validator)
			assert.True(t, verr.Retryable)
		})
	}
}

func TestGenerate_PenaltiesLowerQuality(t *testing.T) {
	content := `{"prompt":"She ___ to work.","passage":"","options":["go","goes","going","gone"],"answer":"goes","explanation":"Third person singular takes -s.","topic":"present simple","tags":[],"difficulty":4}`
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(content)})
	q, err := newTestGenerator(mock).Generate(context.Background(), grammarInput())
	require.NoError(t, err)
	// Difficulty off by two and an explanation that never names "goes".
	assert.InDelta(t, 0.75, q.AI.QualityScore, 1e-9)
}

func TestGenerate_InvalidInputSkipsProvider(t *testing.T) {
	mock := llm.NewMockProvider()
	_, err := newTestGenerator(mock).Generate(context.Background(), Input{Section: "maths", Type: questionbank.TypeMultipleChoice, Difficulty: 2})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "input", verr.Validator)
	assert.Zero(t, mock.CallCount())
}

func TestGenerate_ProviderError(t *testing.T) {
	_, err := newTestGenerator(llm.NewMockProvider()).Generate(context.Background(), grammarInput())
	require.Error(t, err)
	assert.True(t, llm.IsKind(err, llm.KindUnavailable))
}

func TestGenerate_SchemaMismatch(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"prompt":"x"}`)})
	_, err := newTestGenerator(mock).Generate(context.Background(), grammarInput())
	require.Error(t, err)
	assert.True(t, llm.IsKind(err, llm.KindInvalidResponse))
}

func TestGenerateBatch(t *testing.T) {
	bad := `{"prompt":"She ___ every day.","passage":"","options":["go","going","gone","went"],"answer":"goes","explanation":"goes","topic":"present simple","tags":[],"difficulty":2}`
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(bad)})
	mock.Respond = func(llm.Request) llm.MockResponse {
		return llm.MockResponse{Content: mcJSON()}
	}
	repo := &savingRepo{}

	g := newTestGenerator(mock, func(c *Config) { c.Concurrency = 2 })
	report, err := g.GenerateBatch(context.Background(), repo, grammarInput(), 5)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Requested)
	assert.Len(t, report.Saved, 4)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "answer-key")
	assert.Len(t, repo.saved, 4)
	assert.Equal(t, 5, mock.CallCount())

	ids := map[string]bool{}
	for _, q := range repo.saved {
		ids[q.ID] = true
		assert.Equal(t, questionbank.StatusPending, q.ReviewStatus)
	}
	assert.Len(t, ids, 4)
}

func TestGenerateBatch_SaveFailure(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.Respond = func(llm.Request) llm.MockResponse { return llm.MockResponse{Content: mcJSON()} }
	repo := &savingRepo{err: errors.New("disk full")}

	report, err := newTestGenerator(mock).GenerateBatch(context.Background(), repo, grammarInput(), 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Len(t, report.Errors, 2)
}

func TestGenerateBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mock := llm.NewMockProvider()
	_, err := newTestGenerator(mock).GenerateBatch(ctx, &savingRepo{}, grammarInput(), 3)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, mock.CallCount())
}

func TestBuildUserMessage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPriorQuestions = 2
	in := grammarInput()
	in.PriorQuestions = []string{"first", "second", "third"}
	in.WeakTopics = []string{"articles"}

	msg := buildUserMessage(in, cfg)
	assert.Contains(t, msg, "Section: Grammar")
	assert.Contains(t, msg, "Difficulty: 2, elementary (A2)")
	assert.Contains(t, msg, "1. second\n2. third")
	assert.NotContains(t, msg, "first")
	assert.Contains(t, msg, "The learner struggles with:\n1. articles")

	bare := buildUserMessage(Input{Section: sections.Listening, Type: questionbank.TypeTrueFalse, Difficulty: 5}, cfg)
	assert.Contains(t, bare, "Already in the pool:\nNone")
	assert.Contains(t, bare, "any topic")
	assert.False(t, strings.Contains(bare, "struggles"))
}

func TestAssess_FatalStopsChain(t *testing.T) {
	q := &questionbank.Question{Section: sections.Grammar, Type: questionbank.TypeMultipleChoice, Difficulty: 2}
	score, findings, err := Assess(q, grammarInput(), DefaultConfig().Validators)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "structural", verr.Validator)
	assert.Zero(t, score)
	assert.Len(t, findings, 1)
}
