package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/adaptest/internal/store"
)

func TestLLMEvents(t *testing.T) {
	assert.Contains(t, LLMEvents(nil), "No LLM events found.")

	out := LLMEvents([]store.LLMRequestEventRecord{
		{ID: 7, Timestamp: day, LLMRequestEventData: store.LLMRequestEventData{
			Model: "claude-haiku-4-5", Purpose: "question-gen", InputTokens: 120, OutputTokens: 80, Success: true,
		}},
	})
	assert.Contains(t, out, "question-gen")
	assert.Contains(t, out, "claude-haiku-4-5")
	assert.Contains(t, out, "✓")
}

func TestLLMEvent(t *testing.T) {
	out := LLMEvent(store.LLMRequestEventRecord{ID: 3, Timestamp: day, LLMRequestEventData: store.LLMRequestEventData{
		Provider: "mock", Model: "mock", ErrorMessage: "boom", RequestBody: "[user] hi",
	}})
	assert.Contains(t, out, "LLM event #3")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "[user] hi")
	assert.Contains(t, out, "(not captured)", "empty response body")
}

func TestLLMUsage(t *testing.T) {
	assert.Contains(t, LLMUsage(nil, nil), "No LLM usage recorded yet.")

	out := LLMUsage(
		[]store.LLMPurposeUsage{{Purpose: "question-gen", Calls: 2, InputTokens: 1_000_000, OutputTokens: 0}},
		[]store.LLMModelUsage{
			{Model: "claude-haiku-4-5", Calls: 1, InputTokens: 1_000_000},
			{Model: "homegrown-7b", Calls: 1},
		},
	)
	assert.Contains(t, out, "$1.00")
	assert.Contains(t, out, "total (partial)")
	assert.Contains(t, out, "Pricing unavailable for: homegrown-7b")
}

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "$0.0042", formatCost(0.0042))
	assert.Equal(t, "$1.50", formatCost(1.5))
}
