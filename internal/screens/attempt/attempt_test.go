package attempt

import (
	"context"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/adaptest/internal/exam"
	"github.com/abhisek/adaptest/internal/questionbank"
	"github.com/abhisek/adaptest/internal/router"
	"github.com/abhisek/adaptest/internal/screens/result"
	"github.com/abhisek/adaptest/internal/sections"
	"github.com/abhisek/adaptest/internal/service"
)

type fakeClient struct {
	submitted []service.SubmitRequest
	submitErr error
	completed int
	paused    bool
	reports   []exam.Activity
	view      *service.ExamView
}

func (f *fakeClient) Get(context.Context, string, string) (*service.ExamView, error) {
	return f.view, nil
}

func (f *fakeClient) SubmitAnswer(_ context.Context, _, _ string, req service.SubmitRequest) (*service.AnswerResult, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = append(f.submitted, req)
	return &service.AnswerResult{
		Answer:        exam.Answer{QuestionID: req.QuestionID, Response: req.Response, Correct: req.Response == "a" || req.Response == "gone"},
		Answered:      len(f.submitted),
		Total:         2,
		RemainingSecs: 200,
	}, nil
}

func (f *fakeClient) Pause(context.Context, string, string) (*service.ExamView, error) {
	f.paused = true
	v := *f.view
	v.Attempt.Status = exam.StatusPaused
	return &v, nil
}

func (f *fakeClient) Resume(context.Context, string, string) (*service.ExamView, error) {
	f.paused = false
	v := *f.view
	v.Attempt.Status = exam.StatusInProgress
	v.RemainingSecs = 150
	return &v, nil
}

func (f *fakeClient) Complete(context.Context, string, string) (*service.ExamView, error) {
	f.completed++
	v := *f.view
	v.Attempt.Status = exam.StatusCompleted
	v.Attempt.Result = &exam.Result{TotalScore: 300, Band: "A2"}
	return &v, nil
}

func (f *fakeClient) ReportActivity(_ context.Context, _, _ string, kind exam.Activity) (*service.ExamView, error) {
	f.reports = append(f.reports, kind)
	return f.view, nil
}

func key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func special(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func fixture(allowPause bool) (*Screen, *fakeClient) {
	view := &service.ExamView{
		Attempt:       exam.Attempt{ID: "att-1", Status: exam.StatusInProgress, TimeLimit: 5 * time.Minute},
		Config:        exam.Config{Name: "Grammar practice", Rules: exam.Rules{AllowPause: allowPause}},
		RemainingSecs: 300,
	}
	client := &fakeClient{view: view}
	qs := []exam.PresentedQuestion{
		{QuestionID: "q1", Section: sections.Grammar, Type: questionbank.TypeMultipleChoice, Prompt: "She has ___ home.",
			Options: []questionbank.Option{{ID: "b", Text: "go"}, {ID: "a", Text: "gone"}}},
		{QuestionID: "q2", Section: sections.Grammar, Type: questionbank.TypeFillInBlank, Prompt: "They have ___ (go)."},
	}
	return New(client, "ana", view, qs), client
}

// run feeds msg to the screen and resolves returned commands until none
// are left, skipping timer ticks.
func run(t *testing.T, s *Screen, msg tea.Msg) tea.Msg {
	t.Helper()
	var last tea.Msg
	_, cmd := s.Update(msg)
	for cmd != nil {
		out := cmd()
		last = out
		switch out := out.(type) {
		case answeredMsg, pausedMsg, finishedMsg, activityMsg:
			_, cmd = s.Update(out)
		default:
			cmd = nil
		}
	}
	return last
}

func TestAnswerBothQuestionsThenResult(t *testing.T) {
	s, client := fixture(false)
	assert.Equal(t, "Grammar practice", s.Title())
	assert.Contains(t, s.View(80, 24), "She has ___ home.")

	run(t, s, key('2'))
	run(t, s, special(tea.KeyEnter))
	require.Len(t, client.submitted, 1)
	assert.Equal(t, "a", client.submitted[0].Response, "option 2 maps to its ID")
	assert.Equal(t, 1, s.idx)
	assert.Equal(t, "✓ Correct", s.feedback)

	for _, r := range "gone" {
		s.Update(key(r)) // skip the cursor blink command
	}
	last := run(t, s, special(tea.KeyEnter))
	require.Len(t, client.submitted, 2)
	assert.Equal(t, "gone", client.submitted[1].Response)
	assert.Equal(t, 1, client.completed)

	replace, ok := last.(router.ReplaceScreenMsg)
	require.True(t, ok, "finishing swaps in the result screen")
	res := replace.Screen.(*result.Screen)
	assert.Equal(t, 300, res.ExamView().Attempt.Result.TotalScore)
}

func TestEmptyFillInIsNotSubmitted(t *testing.T) {
	s, client := fixture(false)
	run(t, s, special(tea.KeyTab))
	assert.Equal(t, "Skipped.", s.feedback)
	run(t, s, special(tea.KeyEnter))
	assert.Empty(t, client.submitted)
}

func TestFinishNeedsConfirmation(t *testing.T) {
	s, client := fixture(false)
	run(t, s, special(tea.KeyEscape))
	assert.True(t, s.confirming)
	assert.Contains(t, s.View(80, 24), "2 question(s) are unanswered")

	run(t, s, key('n'))
	assert.False(t, s.confirming)
	assert.Zero(t, client.completed)

	run(t, s, special(tea.KeyEscape))
	run(t, s, key('y'))
	assert.Equal(t, 1, client.completed)
	assert.True(t, s.finished)
}

func TestPause(t *testing.T) {
	s, client := fixture(false)
	run(t, s, tea.KeyPressMsg{Code: 'p', Mod: tea.ModCtrl})
	assert.False(t, client.paused)
	assert.Equal(t, "This exam cannot be paused.", s.errMsg)

	s, client = fixture(true)
	run(t, s, tea.KeyPressMsg{Code: 'p', Mod: tea.ModCtrl})
	assert.True(t, client.paused)
	assert.Equal(t, "paused", s.Status())
	assert.Contains(t, s.View(80, 24), "Paused")

	run(t, s, special(tea.KeyEnter))
	assert.Empty(t, client.submitted, "answers are blocked while paused")

	run(t, s, tea.KeyPressMsg{Code: 'p', Mod: tea.ModCtrl})
	assert.False(t, client.paused)
	assert.Equal(t, "2:30", s.Status())
}

func TestTimerFinishesBeforeDeadline(t *testing.T) {
	s, client := fixture(false)
	s.remaining = 3

	_, cmd := s.Update(timerTickMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.Equal(t, 2, s.remaining)
	assert.Zero(t, client.completed)

	run(t, s, timerTickMsg(time.Now()))
	assert.Equal(t, 1, client.completed)
	assert.Equal(t, "Time is up.", s.feedback)
}

func TestBlurReportsTabSwitch(t *testing.T) {
	s, client := fixture(false)
	run(t, s, tea.BlurMsg{})
	assert.Equal(t, []exam.Activity{exam.ActivityTabSwitch}, client.reports)
}

func TestExpiredSubmissionShowsEndedAttempt(t *testing.T) {
	s, client := fixture(false)
	client.submitErr = &exam.StateError{}
	client.view.Attempt.Status = exam.StatusExpired

	run(t, s, key('1'))
	last := run(t, s, special(tea.KeyEnter))
	_, ok := last.(router.ReplaceScreenMsg)
	assert.True(t, ok)
	assert.Zero(t, client.completed)
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "5:00", formatClock(300))
	assert.Equal(t, "0:09", formatClock(9))
	assert.Equal(t, "0:00", formatClock(-4))
}
