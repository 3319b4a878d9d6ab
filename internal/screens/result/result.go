// Package result shows a finished attempt's score inside the terminal app.
package result

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptest/internal/screen"
	"github.com/abhisek/adaptest/internal/service"
	"github.com/abhisek/adaptest/internal/ui/layout"
	"github.com/abhisek/adaptest/internal/ui/report"
)

// Screen renders the result and quits on any key.
type Screen struct {
	view *service.ExamView
}

var _ screen.Screen = (*Screen)(nil)

func New(view *service.ExamView) *Screen {
	return &Screen{view: view}
}

func (s *Screen) Init() tea.Cmd { return nil }

func (s *Screen) Title() string { return s.view.Config.Name }

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{{Key: "any key", Description: "Exit"}}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		return s, tea.Quit
	}
	return s, nil
}

func (s *Screen) View(width, _ int) string {
	return lipgloss.NewStyle().Width(width).Padding(1, 2).Render(report.Result(s.view.Attempt))
}

// ExamView returns the finished attempt with its config.
func (s *Screen) ExamView() *service.ExamView {
	return s.view
}
