package report

import (
	"fmt"
	"strings"

	"github.com/abhisek/adaptest/internal/exam"
	"github.com/abhisek/adaptest/internal/ui/components"
	"github.com/abhisek/adaptest/internal/ui/theme"
)

// endedUnscored explains attempts that finished without a result.
var endedUnscored = map[exam.EndReason]string{
	exam.EndTimeLimit:  "Time ran out before the exam was finished, so it was not scored.",
	exam.EndPauseLimit: "The exam stayed paused too long and was closed without a score.",
	exam.EndAbandoned:  "The exam was abandoned.",
	exam.EndStale:      "The exam was never started.",
}

// Result renders the outcome of a finished attempt.
func Result(a exam.Attempt) string {
	var b strings.Builder
	r := a.Result
	if r == nil {
		msg, ok := endedUnscored[a.EndReason]
		if !ok {
			msg = fmt.Sprintf("The exam is %s.", a.Status)
		}
		b.WriteString(theme.Title.Render("No score") + "\n")
		b.WriteString(theme.Hint.Render(msg) + "\n")
		return b.String()
	}

	b.WriteString(theme.Title.Render("Result") + "\n")
	b.WriteString(row("Score", theme.Value.Render(fmt.Sprintf("%d / 600", r.TotalScore))+"  "+theme.Highlight.Render(r.Band)) + "\n")
	b.WriteString(row("Ability", fmt.Sprintf("θ %+.2f", r.Ability)) + "\n")
	if r.Flagged {
		b.WriteString(row("Integrity", theme.Bad.Render("flagged for review")) + "\n")
	}

	b.WriteString(theme.Heading.Render("Sections") + "\n")
	for _, sr := range r.Sections {
		if sr.Total == 0 {
			continue
		}
		b.WriteString(row(sr.Section.DisplayName(), components.NewProgressBar(sr.Accuracy, false, barWidth).View()) +
			theme.Hint.Render(fmt.Sprintf(" %d/%d  %d pts", sr.Correct, sr.Total, sr.Score)) + "\n")
	}

	if len(r.Recommendations) > 0 {
		b.WriteString(theme.Heading.Render("Next steps") + "\n")
		for _, rec := range r.Recommendations {
			b.WriteString("• " + rec + "\n")
		}
	}
	return b.String()
}
