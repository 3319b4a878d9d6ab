package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"

	"github.com/abhisek/adaptest/internal/screen"
)

type stubScreen struct {
	title   string
	initRan bool
	got     []tea.Msg
}

func (s *stubScreen) Init() tea.Cmd {
	s.initRan = true
	return nil
}

func (s *stubScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	s.got = append(s.got, msg)
	return s, nil
}

func (s *stubScreen) View(int, int) string { return s.title }
func (s *stubScreen) Title() string        { return s.title }

func TestPushPop(t *testing.T) {
	exam := &stubScreen{title: "exam"}
	r := New(exam)

	help := &stubScreen{title: "help"}
	r.Update(PushScreenMsg{Screen: help})
	assert.Equal(t, 2, r.Depth())
	assert.True(t, help.initRan)
	assert.Equal(t, "help", r.View(80, 24))

	r.Update(PopScreenMsg{})
	assert.Equal(t, "exam", r.Active().Title())

	r.Pop()
	assert.Equal(t, 1, r.Depth(), "bottom screen stays")
}

func TestReplace(t *testing.T) {
	exam := &stubScreen{title: "exam"}
	r := New(exam)

	result := &stubScreen{title: "result"}
	r.Update(ReplaceScreenMsg{Screen: result})
	assert.Equal(t, 1, r.Depth())
	assert.Equal(t, "result", r.Active().Title())
	assert.True(t, result.initRan)
}

func TestForwardsToActive(t *testing.T) {
	exam := &stubScreen{title: "exam"}
	r := New(exam)
	r.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Len(t, exam.got, 1)
}
