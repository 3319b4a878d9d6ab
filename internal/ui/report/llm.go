package report

import (
	"fmt"
	"strings"

	"github.com/abhisek/adaptest/internal/llm"
	"github.com/abhisek/adaptest/internal/store"
	"github.com/abhisek/adaptest/internal/ui/theme"
)

// LLMEvents renders a list of logged provider calls.
func LLMEvents(events []store.LLMRequestEventRecord) string {
	if len(events) == 0 {
		return theme.Hint.Render("No LLM events found.") + "\n"
	}
	t := newTable("ID", "Time", "Purpose", "Model", "In", "Out", "Ms", "OK")
	for _, e := range events {
		ok := theme.Good.Render("✓")
		if !e.Success {
			ok = theme.Bad.Render("✗")
		}
		t.Row(
			fmt.Sprint(e.ID),
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Purpose,
			truncate(e.Model, 28),
			fmt.Sprint(e.InputTokens),
			fmt.Sprint(e.OutputTokens),
			fmt.Sprint(e.LatencyMs),
			ok,
		)
	}
	return t.Render() + "\n"
}

// LLMEvent renders one call with its captured transcript.
func LLMEvent(e store.LLMRequestEventRecord) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render(fmt.Sprintf("LLM event #%d", e.ID)) + "\n")
	b.WriteString(row("Time", e.Timestamp.Local().Format("2006-01-02 15:04:05")) + "\n")
	b.WriteString(row("Provider", e.Provider) + "\n")
	b.WriteString(row("Model", e.Model) + "\n")
	b.WriteString(row("Purpose", e.Purpose) + "\n")
	b.WriteString(row("Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens)) + "\n")
	b.WriteString(row("Latency", fmt.Sprintf("%dms", e.LatencyMs)) + "\n")
	if e.Success {
		b.WriteString(row("Status", theme.Good.Render("ok")) + "\n")
	} else {
		b.WriteString(row("Status", theme.Bad.Render(e.ErrorMessage)) + "\n")
	}

	for _, part := range []struct{ title, body string }{
		{"Request", e.RequestBody},
		{"Response", e.ResponseBody},
	} {
		b.WriteString(theme.Heading.Render(part.title) + "\n")
		if part.body == "" {
			b.WriteString(theme.Hint.Render("(not captured)") + "\n")
			continue
		}
		b.WriteString(part.body + "\n")
	}
	return b.String()
}

// LLMUsage renders token totals per purpose and an estimated cost per model.
func LLMUsage(byPurpose []store.LLMPurposeUsage, byModel []store.LLMModelUsage) string {
	if len(byPurpose) == 0 {
		return theme.Hint.Render("No LLM usage recorded yet.") + "\n"
	}
	var b strings.Builder

	b.WriteString(theme.Heading.Render("Usage by purpose") + "\n")
	pt := newTable("Purpose", "Calls", "Input", "Output", "Total", "Avg ms")
	var calls, in, out int
	for _, u := range byPurpose {
		pt.Row(u.Purpose, fmt.Sprint(u.Calls), fmt.Sprint(u.InputTokens), fmt.Sprint(u.OutputTokens),
			fmt.Sprint(u.InputTokens+u.OutputTokens), fmt.Sprint(u.AvgLatencyMs))
		calls += u.Calls
		in += u.InputTokens
		out += u.OutputTokens
	}
	pt.Row("total", fmt.Sprint(calls), fmt.Sprint(in), fmt.Sprint(out), fmt.Sprint(in+out), "")
	b.WriteString(pt.Render() + "\n")

	if len(byModel) == 0 {
		return b.String()
	}

	b.WriteString(theme.Heading.Render("Estimated cost (USD)") + "\n")
	mt := newTable("Model", "Calls", "Input", "Output", "Cost")
	var total float64
	var unknown []string
	for _, u := range byModel {
		cost := "?"
		if c := llm.LookupCost(u.Model); c != nil {
			usd := c.Cost(u.InputTokens, u.OutputTokens)
			total += usd
			cost = formatCost(usd)
		} else {
			unknown = append(unknown, u.Model)
		}
		mt.Row(truncate(u.Model, 32), fmt.Sprint(u.Calls), fmt.Sprint(u.InputTokens), fmt.Sprint(u.OutputTokens), cost)
	}
	label := "total"
	if len(unknown) > 0 {
		label = "total (partial)"
	}
	mt.Row(label, "", "", "", formatCost(total))
	b.WriteString(mt.Render() + "\n")

	if len(unknown) > 0 {
		b.WriteString(theme.Hint.Render("Pricing unavailable for: "+strings.Join(unknown, ", ")) + "\n")
	}
	return b.String()
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}
