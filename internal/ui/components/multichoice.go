package components

import (
	"fmt"
	"strconv"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptest/internal/ui/theme"
)

// MultiChoice is an option selector. The answer key is never shown; exam
// feedback comes from the server after submission.
type MultiChoice struct {
	Options   []string
	Selected  int
	Submitted bool
}

// NewMultiChoice creates a selector with the first option highlighted.
func NewMultiChoice(options []string) MultiChoice {
	return MultiChoice{Options: options}
}

// Update handles arrow and vim navigation, digit shortcuts and enter.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Submitted {
		return m, nil
	}
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key := kmsg.String(); key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
	case "enter":
		if len(m.Options) > 0 {
			m.Submitted = true
		}
	default:
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(m.Options) {
			m.Selected = n - 1
		}
	}
	return m, nil
}

// View renders the options with the cursor on the highlighted one.
func (m MultiChoice) View() string {
	var s string
	for i, opt := range m.Options {
		prefix := "  "
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == m.Selected {
			prefix = "▸ "
			style = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
		}
		s += style.Render(fmt.Sprintf("%s%d)  %s", prefix, i+1, opt)) + "\n"
	}
	return s
}

// Reset clears the selection for reuse on the next question.
func (m *MultiChoice) Reset(options []string) {
	m.Options = options
	m.Selected = 0
	m.Submitted = false
}
