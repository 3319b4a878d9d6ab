package questionbank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/adaptest/internal/irt"
	"github.com/abhisek/adaptest/internal/sections"
)

// memRepo is an in-memory Repository for selector tests.
type memRepo struct {
	questions []Question
	saveErr   map[string]error
}

func (m *memRepo) Search(_ context.Context, f Filter, limit, offset int) ([]Question, int, error) {
	var out []Question
	for _, q := range m.questions {
		if f.Section != "" && q.Section != f.Section {
			continue
		}
		if f.ReviewStatus != "" && q.ReviewStatus != f.ReviewStatus {
			continue
		}
		if len(f.Difficulties) > 0 && !slices.Contains(f.Difficulties, q.Difficulty) {
			continue
		}
		if slices.Contains(f.ExcludeIDs, q.ID) {
			continue
		}
		out = append(out, q)
	}
	total := len(out)
	if offset > len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *memRepo) Get(_ context.Context, id string) (*Question, error) {
	for i := range m.questions {
		if m.questions[i].ID == id {
			return &m.questions[i], nil
		}
	}
	return nil, errors.New("not found")
}

func (m *memRepo) GetMany(ctx context.Context, ids []string) ([]Question, error) {
	var out []Question
	for _, id := range ids {
		if q, err := m.Get(ctx, id); err == nil {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (m *memRepo) Save(_ context.Context, q *Question) error {
	if err := m.saveErr[q.Prompt]; err != nil {
		return err
	}
	m.questions = append(m.questions, *q)
	return nil
}

func (m *memRepo) RecordUsage(_ context.Context, _ string, _ bool, _ float64) error {
	return nil
}

func mcQuestion(id string, b float64, used int) Question {
	return Question{
		ID:            id,
		Section:       sections.Grammar,
		Type:          TypeMultipleChoice,
		Difficulty:    3,
		Topic:         "tenses",
		Prompt:        "Pick the right form",
		Options:       []Option{{ID: "A", Text: "go"}, {ID: "B", Text: "went"}, {ID: "C", Text: "gone"}, {ID: "D", Text: "going"}},
		CorrectAnswer: "B",
		ReviewStatus:  StatusApproved,
		IRT:           irt.Params{A: 1, B: b, C: 0.25},
		Stats:         Stats{TimesUsed: used},
	}
}

func TestRank_PrefersItemsNearAbility(t *testing.T) {
	pool := []Question{
		mcQuestion("far", 2.5, 0),
		mcQuestion("near", 0.7, 0),
		mcQuestion("mid", 1.8, 0),
	}
	ranked := Rank(pool, Criteria{Theta: 0})
	require.Len(t, ranked, 3)
	assert.Equal(t, "near", ranked[0].Question.ID)
	assert.Equal(t, "far", ranked[2].Question.ID)
}

func TestRank_WeakTopicBoost(t *testing.T) {
	boosted := mcQuestion("weak", 1.0, 0)
	boosted.Topic = "Articles"
	plain := mcQuestion("plain", 0.5, 0)

	ranked := Rank([]Question{plain, boosted}, Criteria{Theta: 0, WeakTopics: []string{"articles"}})
	assert.Equal(t, "weak", ranked[0].Question.ID)

	unboosted := Rank([]Question{plain, boosted}, Criteria{Theta: 0})
	assert.Equal(t, "plain", unboosted[0].Question.ID)
}

func TestRank_TiesBrokenByUsage(t *testing.T) {
	pool := []Question{
		mcQuestion("busy", 0, 40),
		mcQuestion("fresh", 0, 2),
	}
	ranked := Rank(pool, Criteria{Theta: 0})
	assert.Equal(t, "fresh", ranked[0].Question.ID)
}

func TestSelectAdaptive_ExcludesRecentWindow(t *testing.T) {
	repo := &memRepo{}
	var recent []string
	for i := 0; i < 60; i++ {
		id := fmt.Sprintf("q%02d", i)
		repo.questions = append(repo.questions, mcQuestion(id, 0, 0))
		recent = append(recent, id)
	}
	sel := NewSelector(repo)

	got, err := sel.SelectAdaptive(context.Background(), Criteria{
		Section: sections.Grammar,
		Recent:  recent,
	}, 20)
	require.NoError(t, err)

	// Only the 10 oldest answers fall outside the 50-answer window.
	require.Len(t, got, 10)
	for _, q := range got {
		assert.True(t, slices.Index(recent, q.ID) < 10, "question %s is within the recent window", q.ID)
	}
}

func TestSelectAdaptive_AvoidIsSoft(t *testing.T) {
	repo := &memRepo{questions: []Question{
		mcQuestion("a", 0, 0),
		mcQuestion("b", 0, 1),
		mcQuestion("c", 0, 2),
	}}
	sel := NewSelector(repo)

	got, err := sel.SelectAdaptive(context.Background(), Criteria{
		Section: sections.Grammar,
		Avoid:   map[string]bool{"a": true, "b": true},
	}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
}

func TestSelectAdaptive_RanksWholePool(t *testing.T) {
	repo := &memRepo{}
	for i := 0; i < CandidatePageSize; i++ {
		q := mcQuestion(fmt.Sprintf("far-%03d", i), 3, 0)
		q.Difficulty = 5
		repo.questions = append(repo.questions, q)
	}
	best := mcQuestion("best", 0, 10)
	best.IRT.A = 2
	repo.questions = append(repo.questions, best)

	got, err := NewSelector(repo).SelectAdaptive(context.Background(), Criteria{Section: sections.Grammar}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "best", got[0].ID, "information outranks usage past the first page")
}

func TestSelectByDifficulty(t *testing.T) {
	easy := mcQuestion("easy", -2, 5)
	easy.Difficulty = 1
	easier := mcQuestion("easier", -2, 1)
	easier.Difficulty = 2
	hard := mcQuestion("hard", 2, 0)
	hard.Difficulty = 5
	sel := NewSelector(&memRepo{questions: []Question{easy, easier, hard}})

	got, err := sel.SelectByDifficulty(context.Background(), sections.Grammar, []int{1, 2}, 5, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "easier", got[0].ID)
	assert.Equal(t, "easy", got[1].ID)
}

func TestEffectiveTheta(t *testing.T) {
	assert.Equal(t, 0.4, effectiveTheta(0.4, 0))
	assert.InDelta(t, 0.5, effectiveTheta(0, 600), 1e-9)
	assert.InDelta(t, 0.25, effectiveTheta(0, 400), 1e-9)
}

func TestIsCorrect(t *testing.T) {
	mc := mcQuestion("x", 0, 0)
	assert.True(t, mc.IsCorrect("b"))
	assert.True(t, mc.IsCorrect(" B "))
	assert.False(t, mc.IsCorrect("A"))
	assert.False(t, mc.IsCorrect(""))

	blank := Question{Type: TypeFillInBlank, CorrectAnswer: "has been|'s been"}
	assert.True(t, blank.IsCorrect("Has   been"))
	assert.True(t, blank.IsCorrect("'s been"))
	assert.False(t, blank.IsCorrect("was"))
}

func TestStats_Record(t *testing.T) {
	s := Stats{}.Record(true, 10).Record(false, 20)
	assert.Equal(t, 2, s.TimesUsed)
	assert.Equal(t, 1, s.TimesCorrect)
	assert.InDelta(t, 15.0, s.AvgResponseSecs, 1e-9)
	assert.InDelta(t, 0.5, s.CorrectRate(), 1e-9)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(q *Question)
		field  string
	}{
		{"valid", func(q *Question) {}, ""},
		{"bad section", func(q *Question) { q.Section = "math" }, "section"},
		{"bad difficulty", func(q *Question) { q.Difficulty = 0 }, "difficulty"},
		{"empty prompt", func(q *Question) { q.Prompt = " " }, "prompt"},
		{"answer not an option", func(q *Question) { q.CorrectAnswer = "Z" }, "correct_answer"},
		{"duplicate option", func(q *Question) { q.Options[1].ID = "a" }, "options"},
		{"guessing out of range", func(q *Question) { q.IRT.C = 1 }, "irt.c"},
		{"true false answer", func(q *Question) {
			q.Type = TypeTrueFalse
			q.CorrectAnswer = "maybe"
		}, "correct_answer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := mcQuestion("v", 0, 0)
			tt.mutate(&q)
			err := Validate(&q)
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestNormalize_Defaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	q := Question{Section: sections.Reading, Type: TypeTrueFalse, Difficulty: 4, Prompt: "p", CorrectAnswer: "true"}
	Normalize(&q, now)

	assert.NotEmpty(t, q.ID)
	assert.Equal(t, StatusApproved, q.ReviewStatus)
	assert.Len(t, q.Options, 2)
	assert.Equal(t, irt.Params{A: 1, B: 1, C: 0.5}, q.IRT)
	assert.Equal(t, now, q.CreatedAt)
}

func TestCheckVersion(t *testing.T) {
	assert.NoError(t, CheckVersion("v1.2.0"))
	assert.NoError(t, CheckVersion("1.0.0"))
	assert.Error(t, CheckVersion(""))
	assert.Error(t, CheckVersion("banana"))
	assert.Error(t, CheckVersion("v2.0.0"))
}

func TestImport_CountsFailuresWithoutAborting(t *testing.T) {
	repo := &memRepo{saveErr: map[string]error{"explodes on save": errors.New("disk full")}}
	env := Envelope{
		Version: "v1.0.0",
		Questions: []json.RawMessage{
			json.RawMessage(`{"section":"reading","type":"true_false","difficulty":2,"prompt":"The sky is green.","correct_answer":"false"}`),
			json.RawMessage(`{"section":"reading","type":"true_false","difficulty":9,"prompt":"bad tier","correct_answer":"false"}`),
			json.RawMessage(`{not json`),
			json.RawMessage(`{"section":"grammar","type":"multiple_choice","difficulty":3,"prompt":"no options","correct_answer":"A"}`),
			json.RawMessage(`{"section":"vocabulary","type":"fill_in_blank","difficulty":1,"prompt":"explodes on save","correct_answer":"x"}`),
			json.RawMessage(`{"section":"vocabulary","type":"fill_in_blank","difficulty":1,"prompt":"A ___ of bees","correct_answer":"swarm","official":true}`),
		},
	}

	report, err := Import(context.Background(), repo, env, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 6, report.Total)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 4, report.Failed)
	require.Len(t, report.Errors, 4)
	assert.Equal(t, []int{1, 2, 3, 4}, []int{report.Errors[0].Index, report.Errors[1].Index, report.Errors[2].Index, report.Errors[3].Index})
	require.Len(t, repo.questions, 2)
	assert.True(t, repo.questions[1].IsOfficial)
}

func TestImport_RejectsUnsupportedVersion(t *testing.T) {
	_, err := Import(context.Background(), &memRepo{}, Envelope{Version: "v3.1.0"}, time.Now())
	assert.Error(t, err)
}
