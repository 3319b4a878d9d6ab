package studyplan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/adaptest/internal/profile"
	"github.com/abhisek/adaptest/internal/sections"
)

var now0 = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func learner() profile.Profile {
	p := profile.New("u1", now0)
	p.Abilities[sections.Listening] = 0.5
	p.Abilities[sections.Vocabulary] = -1.0
	p.Abilities[sections.Grammar] = -0.2
	p.Abilities[sections.Reading] = 1.2
	p.TotalAnswered = 40
	p.WeakTopics = []profile.TopicStat{
		{Topic: "phrasal verbs", Section: sections.Vocabulary, Rate: 0.6, Attempts: 5},
		{Topic: "collocations", Section: sections.Vocabulary, Rate: 0.8, Attempts: 4},
		{Topic: "articles", Section: sections.Grammar, Rate: 0.5, Attempts: 6},
	}
	return p
}

func TestBuild_SixtyThirtyTen(t *testing.T) {
	plan, err := Build(learner(), 400, 4, 300, now0)
	require.NoError(t, err)

	assert.InDelta(t, 25.0, plan.WeeklyGain, 1e-9)
	assert.Equal(t, 40, plan.DailyMinutes)
	require.Len(t, plan.Weeks, 4)

	w1 := plan.Weeks[0]
	require.Len(t, w1.Blocks, 3)
	assert.Equal(t, Block{Section: sections.Vocabulary, Category: CategoryFocus, Minutes: 168, Topics: []string{"collocations", "phrasal verbs"}}, w1.Blocks[0])
	assert.Equal(t, sections.Grammar, w1.Blocks[1].Section)
	assert.Equal(t, 84, w1.Blocks[1].Minutes)
	assert.Equal(t, sections.Listening, w1.Blocks[2].Section)
	assert.Equal(t, 28, w1.Blocks[2].Minutes)
	assert.Equal(t, 325, w1.TargetScore)

	w2 := plan.Weeks[1]
	assert.Equal(t, sections.Grammar, w2.Blocks[0].Section, "focus alternates")
	assert.Equal(t, sections.Reading, w2.Blocks[2].Section)
	assert.Equal(t, now0.AddDate(0, 0, 7), w2.StartsOn)

	assert.Equal(t, 400, plan.Weeks[3].TargetScore)
}

func TestBuild_Validation(t *testing.T) {
	_, err := Build(learner(), 0, 4, 300, now0)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "goal_score", verr.Field)

	_, err = Build(learner(), 500, 0, 300, now0)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "weeks", verr.Field)
}

func TestBuild_GoalAlreadyReached(t *testing.T) {
	plan, err := Build(learner(), 300, 2, 450, now0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, plan.WeeklyGain)
	assert.Equal(t, 15, plan.DailyMinutes)
	assert.Equal(t, 300, plan.Weeks[0].TargetScore)
}

func TestDailyMinutes(t *testing.T) {
	assert.Equal(t, 15, DailyMinutes(0))
	assert.Equal(t, 20, DailyMinutes(10))
	assert.Equal(t, 40, DailyMinutes(10.5))
	assert.Equal(t, 60, DailyMinutes(30))
}

func TestRecommend(t *testing.T) {
	p := learner()
	p.Patterns.BestTimeOfDay = profile.Evening
	p.Patterns.Consistency = 30

	recs := Recommend(p, 10)
	require.Len(t, recs, 6)
	assert.Equal(t, KindTopic, recs[0].Kind)
	assert.Equal(t, "collocations", recs[0].Topic)
	assert.Equal(t, "articles", recs[2].Topic)
	assert.Equal(t, KindSection, recs[3].Kind)
	assert.Equal(t, sections.Vocabulary, recs[3].Section)
	assert.Equal(t, KindHabit, recs[4].Kind)
	assert.Contains(t, recs[5].Message, "evening")

	assert.Len(t, Recommend(p, 2), 2)
}

func TestRecommend_NewLearner(t *testing.T) {
	recs := Recommend(profile.New("u2", now0), 0)
	require.Len(t, recs, 1)
	assert.Equal(t, KindHabit, recs[0].Kind)
}
