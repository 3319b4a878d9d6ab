// Package app hosts screens in a full-screen Bubble Tea program.
package app

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptest/internal/router"
	"github.com/abhisek/adaptest/internal/screen"
	"github.com/abhisek/adaptest/internal/ui/layout"
)

// Model is the root Bubble Tea model: a header, the active screen and a
// key-hint footer.
type Model struct {
	router *router.Router
	user   string
	width  int
	height int
}

// New creates the root model showing initial for learner user.
func New(initial screen.Screen, user string) Model {
	return Model{router: router.New(initial), user: user}
}

func (m Model) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	v.ReportFocus = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	status := m.user
	if sp, ok := active.(screen.StatusProvider); ok {
		status += " · " + sp.Status()
	}
	header := layout.RenderHeader(active.Title(), status, m.width)

	hints := []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	if hp, ok := active.(screen.KeyHintProvider); ok {
		hints = append(hp.KeyHints(), hints...)
	}
	footer := layout.RenderFooter(hints, m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Active returns the screen on top when the program ended.
func (m Model) Active() screen.Screen {
	return m.router.Active()
}

// Run starts the program and returns the last active screen.
func Run(initial screen.Screen, user string) (screen.Screen, error) {
	final, err := tea.NewProgram(New(initial, user)).Run()
	if err != nil {
		return nil, err
	}
	return final.(Model).Active(), nil
}
