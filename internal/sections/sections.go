package sections

import "fmt"

// Section is one of the four exam domains.
type Section string

const (
	Listening  Section = "listening"
	Vocabulary Section = "vocabulary"
	Grammar    Section = "grammar"
	Reading    Section = "reading"
)

// All returns every section in exam order.
func All() []Section {
	return []Section{Listening, Vocabulary, Grammar, Reading}
}

// Valid reports whether s names a known section.
func (s Section) Valid() bool {
	switch s {
	case Listening, Vocabulary, Grammar, Reading:
		return true
	}
	return false
}

// DisplayName returns a human-readable name for the section.
func (s Section) DisplayName() string {
	switch s {
	case Listening:
		return "Listening"
	case Vocabulary:
		return "Vocabulary"
	case Grammar:
		return "Grammar"
	case Reading:
		return "Reading"
	default:
		return string(s)
	}
}

// Parse converts a raw string into a Section.
func Parse(raw string) (Section, error) {
	s := Section(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown section %q", raw)
	}
	return s, nil
}
