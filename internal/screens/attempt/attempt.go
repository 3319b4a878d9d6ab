// Package attempt is the full-screen exam taking view.
package attempt

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/adaptest/internal/exam"
	"github.com/abhisek/adaptest/internal/questionbank"
	"github.com/abhisek/adaptest/internal/router"
	"github.com/abhisek/adaptest/internal/screen"
	"github.com/abhisek/adaptest/internal/screens/result"
	"github.com/abhisek/adaptest/internal/service"
	"github.com/abhisek/adaptest/internal/ui/components"
	"github.com/abhisek/adaptest/internal/ui/layout"
)

// Client is the part of the exam service the screen drives.
type Client interface {
	Get(ctx context.Context, userID, attemptID string) (*service.ExamView, error)
	SubmitAnswer(ctx context.Context, userID, attemptID string, req service.SubmitRequest) (*service.AnswerResult, error)
	Pause(ctx context.Context, userID, attemptID string) (*service.ExamView, error)
	Resume(ctx context.Context, userID, attemptID string) (*service.ExamView, error)
	Complete(ctx context.Context, userID, attemptID string) (*service.ExamView, error)
	ReportActivity(ctx context.Context, userID, attemptID string, kind exam.Activity) (*service.ExamView, error)
}

// finishMargin is how early the screen completes a timed attempt so the
// last answers are scored rather than lost to expiry.
const finishMargin = 1

// Screen walks a started attempt one question at a time.
type Screen struct {
	client    Client
	userID    string
	view      *service.ExamView
	questions []exam.PresentedQuestion

	idx       int
	choice    components.MultiChoice
	input     components.TextInput
	asked     time.Time
	remaining int
	answered  int
	correct   int

	paused     bool
	confirming bool
	busy       bool
	finished   bool
	feedback   string
	errMsg     string

	now func() time.Time
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.StatusProvider  = (*Screen)(nil)
)

// New creates the screen for an attempt that has already been started.
func New(client Client, userID string, view *service.ExamView, questions []exam.PresentedQuestion) *Screen {
	s := &Screen{
		client:    client,
		userID:    userID,
		view:      view,
		questions: questions,
		remaining: view.RemainingSecs,
		paused:    view.Attempt.Status == exam.StatusPaused,
		input:     components.NewTextInput("Type your answer...", 80),
		now:       time.Now,
	}
	for _, q := range questions {
		if q.Answered {
			s.answered++
		}
	}
	s.load(0)
	return s
}

func (s *Screen) Init() tea.Cmd {
	return tea.Batch(s.input.Init(), tick())
}

func (s *Screen) Title() string {
	return s.view.Config.Name
}

// Status shows the countdown in the header.
func (s *Screen) Status() string {
	if s.paused {
		return "paused"
	}
	return formatClock(s.remaining)
}

func (s *Screen) KeyHints() []layout.KeyHint {
	switch {
	case s.confirming:
		return []layout.KeyHint{
			{Key: "Y", Description: "Finish and score"},
			{Key: "N", Description: "Keep going"},
		}
	case s.paused:
		return []layout.KeyHint{{Key: "Ctrl+P", Description: "Resume"}}
	}
	hints := []layout.KeyHint{
		{Key: "Enter", Description: "Submit"},
		{Key: "Tab", Description: "Skip"},
	}
	if s.current().Type != questionbank.TypeFillInBlank {
		hints = append([]layout.KeyHint{{Key: "↑↓/1-4", Description: "Choose"}}, hints...)
	}
	if s.view.Config.Rules.AllowPause {
		hints = append(hints, layout.KeyHint{Key: "Ctrl+P", Description: "Pause"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Finish"})
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case timerTickMsg:
		return s, s.handleTick()
	case answeredMsg:
		return s, s.handleAnswered(msg)
	case pausedMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.view = msg.View
		s.paused = msg.View.Attempt.Status == exam.StatusPaused
		s.remaining = msg.View.RemainingSecs
		s.errMsg = ""
		return s, nil
	case finishedMsg:
		return s, s.handleFinished(msg)
	case activityMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		}
		return s, nil
	case tea.BlurMsg:
		if s.finished || s.paused {
			return s, nil
		}
		return s, s.report(exam.ActivityTabSwitch)
	case tea.KeyMsg:
		return s, s.handleKey(msg)
	}

	if s.acceptsText() {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) handleKey(msg tea.KeyMsg) tea.Cmd {
	if s.finished || s.busy {
		return nil
	}
	key := msg.String()

	if s.confirming {
		switch key {
		case "y", "Y", "enter":
			s.confirming = false
			return s.finish()
		case "n", "N", "esc":
			s.confirming = false
		}
		return nil
	}

	switch key {
	case "esc":
		s.confirming = true
		return nil
	case "ctrl+p":
		return s.togglePause()
	}
	if s.paused {
		return nil
	}

	switch key {
	case "tab":
		s.feedback = "Skipped."
		return s.advance()
	case "enter":
		return s.submit()
	}

	if s.acceptsText() {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return cmd
	}
	s.choice, _ = s.choice.Update(msg)
	return nil
}

func (s *Screen) handleTick() tea.Cmd {
	if s.finished {
		return nil
	}
	if !s.paused && s.remaining > 0 {
		s.remaining--
	}
	if !s.paused && !s.busy && s.view.Attempt.TimeLimit > 0 && s.remaining <= finishMargin {
		s.feedback = "Time is up."
		return s.finish()
	}
	return tick()
}

func (s *Screen) submit() tea.Cmd {
	q := s.current()
	response := ""
	if q.Type == questionbank.TypeFillInBlank {
		response = s.input.Value()
		if response == "" {
			return nil
		}
	} else {
		s.choice, _ = s.choice.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
		if !s.choice.Submitted {
			return nil
		}
		response = q.Options[s.choice.Selected].ID
	}

	s.busy = true
	req := service.SubmitRequest{
		QuestionID:    q.QuestionID,
		Response:      response,
		TimeSpentSecs: s.now().Sub(s.asked).Seconds(),
	}
	client, user, id := s.client, s.userID, s.view.Attempt.ID
	return func() tea.Msg {
		res, err := client.SubmitAnswer(context.Background(), user, id, req)
		return answeredMsg{Result: res, Err: err}
	}
}

func (s *Screen) handleAnswered(msg answeredMsg) tea.Cmd {
	s.busy = false
	if msg.Err != nil {
		if errors.Is(msg.Err, exam.ErrInvalidState) {
			// Expired or otherwise ended server-side.
			return s.fetchEnded()
		}
		s.errMsg = msg.Err.Error()
		s.choice.Submitted = false
		return nil
	}

	res := msg.Result
	s.questions[s.idx].Answered = true
	s.answered = res.Answered
	s.remaining = res.RemainingSecs
	if res.Answer.Correct {
		s.correct++
		s.feedback = "✓ Correct"
	} else {
		s.feedback = "✗ Not quite"
	}
	s.errMsg = ""
	return s.advance()
}

// advance moves to the next question, finishing after the last one.
func (s *Screen) advance() tea.Cmd {
	if s.idx+1 >= len(s.questions) {
		return s.finish()
	}
	s.load(s.idx + 1)
	return nil
}

func (s *Screen) load(idx int) {
	s.idx = idx
	s.asked = s.now()
	if len(s.questions) == 0 {
		return
	}
	q := s.questions[idx]
	opts := make([]string, len(q.Options))
	for i, o := range q.Options {
		opts[i] = o.Text
	}
	s.choice.Reset(opts)
	s.input.Reset()
}

func (s *Screen) togglePause() tea.Cmd {
	if !s.paused && !s.view.Config.Rules.AllowPause {
		s.errMsg = "This exam cannot be paused."
		return nil
	}
	s.busy = true
	client, user, id, paused := s.client, s.userID, s.view.Attempt.ID, s.paused
	return func() tea.Msg {
		ctx := context.Background()
		var (
			view *service.ExamView
			err  error
		)
		if paused {
			view, err = client.Resume(ctx, user, id)
		} else {
			view, err = client.Pause(ctx, user, id)
		}
		return pausedMsg{View: view, Err: err}
	}
}

func (s *Screen) finish() tea.Cmd {
	s.busy = true
	client, user, id := s.client, s.userID, s.view.Attempt.ID
	return func() tea.Msg {
		view, err := client.Complete(context.Background(), user, id)
		if errors.Is(err, exam.ErrInvalidState) {
			view, err = client.Get(context.Background(), user, id)
		}
		return finishedMsg{View: view, Err: err}
	}
}

func (s *Screen) fetchEnded() tea.Cmd {
	s.busy = true
	client, user, id := s.client, s.userID, s.view.Attempt.ID
	return func() tea.Msg {
		view, err := client.Get(context.Background(), user, id)
		return finishedMsg{View: view, Err: err}
	}
}

func (s *Screen) handleFinished(msg finishedMsg) tea.Cmd {
	s.busy = false
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return tick()
	}
	s.finished = true
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: result.New(msg.View)}
	}
}

func (s *Screen) report(kind exam.Activity) tea.Cmd {
	client, user, id := s.client, s.userID, s.view.Attempt.ID
	return func() tea.Msg {
		_, err := client.ReportActivity(context.Background(), user, id, kind)
		return activityMsg{Kind: kind, Err: err}
	}
}

func (s *Screen) current() exam.PresentedQuestion {
	if len(s.questions) == 0 {
		return exam.PresentedQuestion{}
	}
	return s.questions[s.idx]
}

func (s *Screen) acceptsText() bool {
	return !s.finished && !s.paused && !s.confirming && len(s.questions) > 0 &&
		s.current().Type == questionbank.TypeFillInBlank
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return timerTickMsg(t)
	})
}

func formatClock(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
