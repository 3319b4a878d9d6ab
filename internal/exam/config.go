package exam

import (
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/adaptest/internal/sections"
)

// Kind is the shape of an exam.
type Kind string

const (
	KindFull    Kind = "full"
	KindSection Kind = "section"
	KindMicro   Kind = "micro"
)

// Valid reports whether k is a known exam kind.
func (k Kind) Valid() bool {
	return k == KindFull || k == KindSection || k == KindMicro
}

const (
	// DefaultSectionQuestions is the section-practice length when none is given.
	DefaultSectionQuestions = 20

	// SectionSecsPerQuestion is the section-practice time allowance.
	SectionSecsPerQuestion = 90

	// MaxSectionQuestions bounds section-practice length.
	MaxSectionQuestions = 100
)

// MicroDurations lists the allowed micro-session lengths in minutes.
var MicroDurations = []int{5, 10, 15}

// Layout is the question count and time limit of one section.
type Layout struct {
	Section       sections.Section `json:"section"`
	QuestionCount int              `json:"question_count"`
	TimeLimit     time.Duration    `json:"time_limit"`
}

// Rules toggle attempt behavior.
type Rules struct {
	ShuffleQuestions bool `json:"shuffle_questions"`
	ShuffleOptions   bool `json:"shuffle_options"`
	AllowPause       bool `json:"allow_pause"`
	AllowReview      bool `json:"allow_review"`
	Adaptive         bool `json:"adaptive"`
}

// DifficultyBand is the tier range used for non-adaptive fills.
type DifficultyBand struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Tiers lists every tier in the band.
func (b DifficultyBand) Tiers() []int {
	lo, hi := max(b.Min, 1), min(b.Max, 5)
	var out []int
	for t := lo; t <= hi; t++ {
		out = append(out, t)
	}
	return out
}

// ParseDifficulty maps a named difficulty to a tier band.
func ParseDifficulty(name string) (DifficultyBand, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mixed":
		return DifficultyBand{Min: 1, Max: 5}, nil
	case "easy":
		return DifficultyBand{Min: 1, Max: 2}, nil
	case "medium":
		return DifficultyBand{Min: 2, Max: 4}, nil
	case "hard":
		return DifficultyBand{Min: 4, Max: 5}, nil
	}
	return DifficultyBand{}, fmt.Errorf("unknown difficulty %q", name)
}

// Usage holds running statistics for a config.
type Usage struct {
	TimesUsed      int        `json:"times_used"`
	TimesCompleted int        `json:"times_completed"`
	AverageScore   float64    `json:"average_score"`
	LastUsedAt     *time.Time `json:"last_used_at,omitempty"`
}

// RecordUse counts a new attempt against the config.
func (u Usage) RecordUse(now time.Time) Usage {
	u.TimesUsed++
	u.LastUsedAt = &now
	return u
}

// RecordCompletion folds a completed attempt's total score into the mean.
func (u Usage) RecordCompletion(total int) Usage {
	u.AverageScore = (u.AverageScore*float64(u.TimesCompleted) + float64(total)) / float64(u.TimesCompleted+1)
	u.TimesCompleted++
	return u
}

// Config is a reusable exam template.
type Config struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Kind       Kind           `json:"kind"`
	Layouts    []Layout       `json:"layouts"`
	Rules      Rules          `json:"rules"`
	Difficulty DifficultyBand `json:"difficulty"`
	Usage      Usage          `json:"usage"`
	CreatedAt  time.Time      `json:"created_at"`
}

// TimeLimit returns the total time allowed across sections.
func (c Config) TimeLimit() time.Duration {
	var d time.Duration
	for _, l := range c.Layouts {
		d += l.TimeLimit
	}
	return d
}

// QuestionCount returns the total number of questions across sections.
func (c Config) QuestionCount() int {
	var n int
	for _, l := range c.Layouts {
		n += l.QuestionCount
	}
	return n
}

// FullConfig returns the official four-section exam layout.
func FullConfig() Config {
	return Config{
		Name: "Full exam",
		Kind: KindFull,
		Layouts: []Layout{
			{Section: sections.Listening, QuestionCount: 25, TimeLimit: 25 * time.Minute},
			{Section: sections.Vocabulary, QuestionCount: 20, TimeLimit: 15 * time.Minute},
			{Section: sections.Grammar, QuestionCount: 20, TimeLimit: 15 * time.Minute},
			{Section: sections.Reading, QuestionCount: 25, TimeLimit: 35 * time.Minute},
		},
		Rules: Rules{
			ShuffleOptions: true,
			AllowPause:     false,
			AllowReview:    true,
			Adaptive:       true,
		},
		Difficulty: DifficultyBand{Min: 1, Max: 5},
	}
}

// SectionConfig returns a single-section practice exam. A non-positive count
// selects DefaultSectionQuestions.
func SectionConfig(section sections.Section, count int) (Config, error) {
	if !section.Valid() {
		return Config{}, fmt.Errorf("unknown section %q", section)
	}
	if count <= 0 {
		count = DefaultSectionQuestions
	}
	if count > MaxSectionQuestions {
		return Config{}, fmt.Errorf("section practice is limited to %d questions", MaxSectionQuestions)
	}
	return Config{
		Name: section.DisplayName() + " practice",
		Kind: KindSection,
		Layouts: []Layout{{
			Section:       section,
			QuestionCount: count,
			TimeLimit:     time.Duration(count*SectionSecsPerQuestion) * time.Second,
		}},
		Rules: Rules{
			ShuffleQuestions: true,
			ShuffleOptions:   true,
			AllowPause:       true,
			AllowReview:      true,
			Adaptive:         true,
		},
		Difficulty: DifficultyBand{Min: 1, Max: 5},
	}, nil
}

// MicroConfig returns a short session of one question per minute. With an
// empty section the questions rotate over all four sections.
func MicroConfig(minutes int, section sections.Section) (Config, error) {
	allowed := false
	for _, m := range MicroDurations {
		if m == minutes {
			allowed = true
		}
	}
	if !allowed {
		return Config{}, fmt.Errorf("micro sessions last 5, 10 or 15 minutes, got %d", minutes)
	}
	if section != "" && !section.Valid() {
		return Config{}, fmt.Errorf("unknown section %q", section)
	}

	var layouts []Layout
	if section != "" {
		layouts = []Layout{{Section: section, QuestionCount: minutes, TimeLimit: time.Duration(minutes) * time.Minute}}
	} else {
		counts := make(map[sections.Section]int)
		all := sections.All()
		for i := 0; i < minutes; i++ {
			counts[all[i%len(all)]]++
		}
		for _, s := range all {
			if counts[s] == 0 {
				continue
			}
			layouts = append(layouts, Layout{Section: s, QuestionCount: counts[s], TimeLimit: time.Duration(counts[s]) * time.Minute})
		}
	}

	return Config{
		Name:    fmt.Sprintf("%d-minute session", minutes),
		Kind:    KindMicro,
		Layouts: layouts,
		Rules: Rules{
			ShuffleQuestions: true,
			ShuffleOptions:   true,
			AllowPause:       true,
			AllowReview:      true,
			Adaptive:         true,
		},
		Difficulty: DifficultyBand{Min: 1, Max: 5},
	}, nil
}
