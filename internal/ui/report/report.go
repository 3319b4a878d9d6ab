// Package report renders learner analytics and batch results for the
// terminal.
package report

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/abhisek/adaptest/internal/analytics"
	"github.com/abhisek/adaptest/internal/irt"
	"github.com/abhisek/adaptest/internal/questionbank"
	"github.com/abhisek/adaptest/internal/questiongen"
	"github.com/abhisek/adaptest/internal/sections"
	"github.com/abhisek/adaptest/internal/studyplan"
	"github.com/abhisek/adaptest/internal/ui/components"
	"github.com/abhisek/adaptest/internal/ui/theme"
)

const barWidth = 24

func row(label, value string) string {
	return theme.Label.Render(label) + value
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		StyleFunc(func(r, _ int) lipgloss.Style {
			if r == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...)
}

// Dashboard renders an analytics snapshot.
func Dashboard(s analytics.Snapshot) string {
	var b strings.Builder

	b.WriteString(theme.Title.Render("Dashboard · "+s.UserID) + "\n")
	b.WriteString(row("Current score", theme.Value.Render(fmt.Sprintf("%d / 600", s.CurrentScore))) + "  " + theme.Highlight.Render(s.Band) + "\n")
	b.WriteString(row("Exams completed", theme.Value.Render(fmt.Sprint(s.Summary.Attempts))) + "\n")
	if s.Summary.Attempts > 0 {
		b.WriteString(row("Best / lowest", fmt.Sprintf("%d / %d", s.Summary.Highest, s.Summary.Lowest)) + "\n")
		b.WriteString(row("Change 30d", theme.Signed(s.Summary.Change30d, fmt.Sprintf("%+d", s.Summary.Change30d))) + "\n")
		b.WriteString(row("Velocity", fmt.Sprintf("%+.1f pts/day", s.Velocity)) + "\n")
	}

	b.WriteString(theme.Heading.Render("Ability by section") + "\n")
	for _, sec := range sections.All() {
		theta := s.Abilities[sec]
		frac := (theta - irt.MinTheta) / (irt.MaxTheta - irt.MinTheta)
		b.WriteString(row(sec.DisplayName(), components.NewProgressBar(frac, false, barWidth).View()) +
			theme.Hint.Render(fmt.Sprintf(" θ %+.2f", theta)) + "\n")
	}

	if len(s.Sections) > 0 && s.Summary.Attempts > 0 {
		t := newTable("#", "Section", "Avg score", "Accuracy", "Exams")
		for _, r := range s.Sections {
			t.Row(fmt.Sprint(r.Rank), r.Section.DisplayName(), fmt.Sprintf("%.0f", r.AvgScore),
				fmt.Sprintf("%.0f%%", r.AvgAccuracy*100), fmt.Sprint(r.Attempts))
		}
		b.WriteString(t.Render() + "\n")
	}

	if g := s.Goal; g != nil {
		b.WriteString(theme.Heading.Render("Goal") + "\n")
		b.WriteString(row("Target", fmt.Sprintf("%d by %s", g.TargetScore, g.TargetDate.Format("2006-01-02"))) + "\n")
		b.WriteString(row("Progress", components.NewProgressBar(g.ProgressPct/100, true, barWidth).View()) + "\n")
		status := theme.Good.Render("on track")
		if !g.OnTrack {
			status = theme.Bad.Render("behind")
		}
		b.WriteString(row("Needed", fmt.Sprintf("%.1f pts/day, %d days left, ", g.RequiredDailyGain, g.DaysRemaining)) + status + "\n")
	}

	p := s.Prediction
	b.WriteString(theme.Heading.Render(fmt.Sprintf("Forecast (%d days)", p.TargetDays)) + "\n")
	b.WriteString(row("Predicted", theme.Value.Render(fmt.Sprint(p.Predicted))) +
		theme.Hint.Render(fmt.Sprintf("  range %d–%d, %.0f%% likely", p.Lower, p.Upper, p.Probability*100)) + "\n")
	if p.LowConfidence {
		b.WriteString(theme.Hint.Render("Low confidence: "+p.Reason) + "\n")
	}
	for _, rec := range p.Recommendations {
		b.WriteString("• " + rec + "\n")
	}

	b.WriteString(theme.Heading.Render("Peers") + "\n")
	if s.Peers.LowConfidence {
		b.WriteString(theme.Hint.Render("Not enough peer data yet.") + "\n")
	} else {
		b.WriteString(row("Percentile", fmt.Sprintf("%.0f (of %d, %d within ±25)", s.Peers.Percentile, s.Peers.Population, s.Peers.Similar)) + "\n")
	}

	if len(s.Milestones) > 0 {
		b.WriteString(theme.Heading.Render("Milestones") + "\n")
		for _, m := range s.Milestones {
			b.WriteString(theme.Good.Render("★ ") + m.Message + theme.Hint.Render("  "+m.AchievedAt.Format("2006-01-02")) + "\n")
		}
	}
	return b.String()
}

// Plan renders a weekly study plan.
func Plan(p studyplan.Plan) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render(fmt.Sprintf("Study plan · %d → %d", p.CurrentScore, p.GoalScore)) + "\n")
	b.WriteString(row("Weekly gain", fmt.Sprintf("%.1f pts", p.WeeklyGain)) + "\n")
	b.WriteString(row("Daily study", fmt.Sprintf("%d min", p.DailyMinutes)) + "\n")

	t := newTable("Week", "Starts", "Target", "Focus", "Reinforce", "Maintain")
	for _, w := range p.Weeks {
		cells := []string{fmt.Sprint(w.Number), w.StartsOn.Format("Jan 02"), fmt.Sprint(w.TargetScore)}
		for _, blk := range w.Blocks {
			cell := fmt.Sprintf("%s %dm", blk.Section.DisplayName(), blk.Minutes)
			if len(blk.Topics) > 0 {
				cell += " (" + strings.Join(blk.Topics, ", ") + ")"
			}
			cells = append(cells, cell)
		}
		t.Row(cells...)
	}
	b.WriteString(t.Render() + "\n")
	return b.String()
}

// Recommendations renders a prioritised suggestion list.
func Recommendations(recs []studyplan.Recommendation) string {
	if len(recs) == 0 {
		return theme.Hint.Render("No recommendations right now.") + "\n"
	}
	var b strings.Builder
	b.WriteString(theme.Heading.Render("Recommendations") + "\n")
	for i, r := range recs {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, r.Message))
	}
	return b.String()
}

// Generation summarises a batch of generated questions.
func Generation(r *questiongen.BatchReport) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render(fmt.Sprintf("Generated %d of %d questions", len(r.Saved), r.Requested)) + "\n")
	for _, q := range r.Saved {
		b.WriteString(theme.Good.Render("✓ ") + truncate(q.Prompt, 60) +
			theme.Hint.Render(fmt.Sprintf("  [%s, q=%.2f]", q.Topic, q.QualityScore())) + "\n")
	}
	for _, e := range r.Errors {
		b.WriteString(theme.Bad.Render("✗ ") + e + "\n")
	}
	if len(r.Saved) > 0 {
		b.WriteString(theme.Hint.Render("Saved as pending review.") + "\n")
	}
	return b.String()
}

// Import summarises a question import.
func Import(r *questionbank.ImportReport) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Import") + "\n")
	b.WriteString(row("Records", fmt.Sprint(r.Total)) + "\n")
	b.WriteString(row("Imported", theme.Good.Render(fmt.Sprint(r.Succeeded))) + "\n")
	b.WriteString(row("Failed", theme.Signed(-r.Failed, fmt.Sprint(r.Failed))) + "\n")
	for _, e := range r.Errors {
		b.WriteString(theme.Bad.Render(fmt.Sprintf("  #%d ", e.Index)) + e.Message + "\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
