package studyplan

import (
	"fmt"
	"sort"

	"github.com/abhisek/adaptest/internal/profile"
	"github.com/abhisek/adaptest/internal/sections"
)

// Kind groups recommendations.
type Kind string

const (
	KindTopic   Kind = "topic"
	KindSection Kind = "section"
	KindHabit   Kind = "habit"
)

// DefaultLimit is the number of recommendations returned when none is given.
const DefaultLimit = 5

// weakSectionTheta is the ability below which a whole section is flagged.
const weakSectionTheta = -0.5

// Recommendation is one actionable suggestion. Lower Priority values come first.
type Recommendation struct {
	Kind     Kind             `json:"kind"`
	Section  sections.Section `json:"section,omitempty"`
	Topic    string           `json:"topic,omitempty"`
	Priority int              `json:"priority"`
	Message  string           `json:"message"`
}

// Recommend derives topic, section and habit suggestions from a profile.
func Recommend(p profile.Profile, limit int) []Recommendation {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var out []Recommendation

	weak := append([]profile.TopicStat(nil), p.WeakTopics...)
	sort.SliceStable(weak, func(i, j int) bool {
		if weak[i].Rate != weak[j].Rate {
			return weak[i].Rate > weak[j].Rate
		}
		return weak[i].Attempts > weak[j].Attempts
	})
	for _, w := range weak {
		out = append(out, Recommendation{
			Kind:     KindTopic,
			Section:  w.Section,
			Topic:    w.Topic,
			Priority: 1,
			Message: fmt.Sprintf("Practice %s (%s): you missed %.0f%% of %d questions.",
				w.Topic, w.Section.DisplayName(), w.Rate*100, w.Attempts),
		})
	}

	for _, s := range rankByNeed(p) {
		if p.Ability(s) >= weakSectionTheta {
			continue
		}
		out = append(out, Recommendation{
			Kind:     KindSection,
			Section:  s,
			Priority: 2,
			Message:  fmt.Sprintf("Take a %s section practice to lift your weakest area.", s.DisplayName()),
		})
	}

	if p.TotalAnswered > 0 && p.Patterns.Consistency > 0 && p.Patterns.Consistency < 50 {
		out = append(out, Recommendation{
			Kind:     KindHabit,
			Priority: 3,
			Message:  "Short daily sessions beat occasional long ones. Try a 10-minute session every day.",
		})
	}
	if p.Patterns.BestTimeOfDay != "" {
		out = append(out, Recommendation{
			Kind:     KindHabit,
			Priority: 3,
			Message:  fmt.Sprintf("Your accuracy is highest in the %s. Schedule practice then.", p.Patterns.BestTimeOfDay),
		})
	}
	if p.TotalAnswered == 0 {
		out = append(out, Recommendation{
			Kind:     KindHabit,
			Priority: 1,
			Message:  "Take a full practice exam to calibrate your starting level.",
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
