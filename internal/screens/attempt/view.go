package attempt

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptest/internal/questionbank"
	"github.com/abhisek/adaptest/internal/ui/components"
	"github.com/abhisek/adaptest/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	if len(s.questions) == 0 {
		return center(width, theme.Hint.Render("This exam has no questions."))
	}
	if s.confirming {
		return s.renderConfirm(width)
	}
	if s.paused {
		return center(width, theme.Title.Render("Paused")+"\n\n"+
			theme.Hint.Render("The clock is stopped. Press Ctrl+P to resume."))
	}
	return s.renderQuestion(width)
}

func (s *Screen) renderQuestion(width int) string {
	q := s.current()
	var b strings.Builder

	left := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).
		Render(fmt.Sprintf("  %s", q.Section.DisplayName()))
	right := theme.Hint.Render(fmt.Sprintf("Q %d/%d  answered %d", s.idx+1, len(s.questions), s.answered))
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	b.WriteString(left + strings.Repeat(" ", gap) + right + "\n")

	frac := float64(s.answered) / float64(len(s.questions))
	b.WriteString("  " + components.NewProgressBar(frac, true, min(width-12, 40)).View() + "\n\n")

	body := lipgloss.NewStyle().Width(max(width-4, 20)).PaddingLeft(2)
	if q.Passage != "" {
		b.WriteString(body.Foreground(theme.TextDim).Render(q.Passage) + "\n\n")
	}
	if q.AudioURL != "" {
		b.WriteString(body.Render(theme.Hint.Render("♪ "+q.AudioURL)) + "\n\n")
	}
	b.WriteString(body.Foreground(theme.Text).Bold(true).Render(q.Prompt) + "\n\n")

	if q.Type == questionbank.TypeFillInBlank {
		b.WriteString("  " + s.input.View() + "\n")
	} else {
		for _, line := range strings.Split(strings.TrimRight(s.choice.View(), "\n"), "\n") {
			b.WriteString("  " + line + "\n")
		}
	}

	b.WriteString("\n")
	switch {
	case s.errMsg != "":
		b.WriteString("  " + theme.Bad.Render(s.errMsg) + "\n")
	case s.busy:
		b.WriteString("  " + theme.Hint.Render("Saving...") + "\n")
	case s.feedback != "":
		style := theme.Hint
		if strings.HasPrefix(s.feedback, "✓") {
			style = theme.Good
		} else if strings.HasPrefix(s.feedback, "✗") {
			style = theme.Bad
		}
		b.WriteString("  " + style.Render(s.feedback) + "\n")
	}
	return b.String()
}

func (s *Screen) renderConfirm(width int) string {
	unanswered := len(s.questions) - s.answered
	msg := "Finish the exam now?"
	if unanswered > 0 {
		msg += fmt.Sprintf("\n\n%d question(s) are unanswered and will count as wrong.", unanswered)
	}
	return center(width, theme.Card.Render(msg+"\n\n"+theme.Hint.Render("Y to finish, N to keep going")))
}

func center(width int, content string) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render("\n\n" + content)
}
