package components

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
)

func key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func TestMultiChoice_Navigation(t *testing.T) {
	m := NewMultiChoice([]string{"went", "goes", "gone", "going"})

	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	m, _ = m.Update(key('j'))
	assert.Equal(t, 2, m.Selected)

	m, _ = m.Update(key('k'))
	assert.Equal(t, 1, m.Selected)

	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	assert.Equal(t, 0, m.Selected, "clamped at top")

	m, _ = m.Update(key('4'))
	assert.Equal(t, 3, m.Selected)
	m, _ = m.Update(key('9'))
	assert.Equal(t, 3, m.Selected, "out of range digit ignored")

	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.True(t, m.Submitted)

	m, _ = m.Update(key('1'))
	assert.Equal(t, 3, m.Selected, "frozen after submit")

	m.Reset([]string{"a", "b"})
	assert.False(t, m.Submitted)
	assert.Equal(t, 0, m.Selected)
}

func TestMultiChoice_View(t *testing.T) {
	m := NewMultiChoice([]string{"went", "goes"})
	out := m.View()
	assert.Contains(t, out, "▸ 1)  went")
	assert.Contains(t, out, "2)  goes")
}

func TestMultiChoice_EmptyNeverSubmits(t *testing.T) {
	m := NewMultiChoice(nil)
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.False(t, m.Submitted)
}

func TestTextInput(t *testing.T) {
	in := NewTextInput("answer", 10)
	for _, r := range " gone " {
		in, _ = in.Update(key(r))
	}
	assert.Equal(t, "gone", in.Value())
	in.Reset()
	assert.Equal(t, "", in.Value())
}
