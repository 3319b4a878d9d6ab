// Package screen defines the contract between full-screen views and the
// terminal app that hosts them.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/adaptest/internal/ui/layout"
)

// Screen is one full-screen view.
type Screen interface {
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is implemented by screens with their own footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider is implemented by screens that show live status, such as
// a countdown, on the right of the header.
type StatusProvider interface {
	Status() string
}
