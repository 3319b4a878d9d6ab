package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/adaptest/internal/analytics"
	"github.com/abhisek/adaptest/internal/profile"
	"github.com/abhisek/adaptest/internal/questionbank"
	"github.com/abhisek/adaptest/internal/questiongen"
	"github.com/abhisek/adaptest/internal/sections"
	"github.com/abhisek/adaptest/internal/studyplan"
)

var day = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

func TestDashboard(t *testing.T) {
	p := profile.New("ana", day)
	p.TotalAnswered = 150
	goal := profile.Goal{TargetScore: 450, StartScore: 300, TargetDate: day.AddDate(0, 1, 0)}
	p.Goal = &goal
	snap := analytics.Build(analytics.Input{Profile: p, Now: day})

	out := Dashboard(snap)
	assert.Contains(t, out, "ana")
	assert.Contains(t, out, "0 / 600")
	assert.Contains(t, out, "Listening")
	assert.Contains(t, out, "450 by 2026-10-01")
	assert.Contains(t, out, "Not enough peer data")
	assert.Contains(t, out, "questions", "milestone for 100 answers")
}

func TestPlan(t *testing.T) {
	p := profile.New("ana", day)
	plan, err := studyplan.Build(p, 400, 2, 300, day)
	assert.NoError(t, err)

	out := Plan(plan)
	assert.Contains(t, out, "300 → 400")
	assert.Contains(t, out, "Week")
	assert.Contains(t, out, "Sep 01")
}

func TestRecommendations(t *testing.T) {
	assert.Contains(t, Recommendations(nil), "No recommendations")
	out := Recommendations([]studyplan.Recommendation{{Message: "Practice articles"}})
	assert.Contains(t, out, "1. Practice articles")
}

func TestGenerationAndImport(t *testing.T) {
	gen := Generation(&questiongen.BatchReport{
		Requested: 2,
		Saved: []questionbank.Question{{
			Section: sections.Grammar,
			Topic:   "articles",
			Prompt:  "Choose ___ correct article for this long sentence about a very particular thing.",
			AI:      &questionbank.Provenance{QualityScore: 0.85},
		}},
		Errors: []string{"question 2: answer-key: answer matches no option"},
	})
	assert.Contains(t, gen, "Generated 1 of 2")
	assert.Contains(t, gen, "q=0.85")
	assert.Contains(t, gen, "…")
	assert.Contains(t, gen, "question 2")

	imp := Import(&questionbank.ImportReport{Total: 3, Succeeded: 2, Failed: 1,
		Errors: []questionbank.RecordError{{Index: 1, Message: "difficulty out of range"}}})
	assert.Contains(t, imp, "#1")
	assert.Contains(t, imp, "difficulty out of range")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
