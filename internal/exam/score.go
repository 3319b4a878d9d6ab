package exam

import (
	"fmt"
	"math"

	"github.com/abhisek/adaptest/internal/irt"
	"github.com/abhisek/adaptest/internal/sections"
)

const (
	// SectionMax is the top score of one section; four sections make 600.
	SectionMax = 150

	// MaxTotal is the top total score.
	MaxTotal = 4 * SectionMax

	strengthAccuracy = 0.80
	weaknessAccuracy = 0.60
)

// SectionResult is the score of one section.
type SectionResult struct {
	Section  sections.Section `json:"section"`
	Correct  int              `json:"correct"`
	Total    int              `json:"total"`
	Accuracy float64          `json:"accuracy"`
	Score    int              `json:"score"`
}

// Result is the immutable outcome of a completed attempt.
type Result struct {
	Kind            Kind               `json:"kind"`
	Sections        []SectionResult    `json:"sections"`
	TotalScore      int                `json:"total_score"`
	Band            string             `json:"band"`
	Ability         float64            `json:"ability"`
	Strengths       []sections.Section `json:"strengths"`
	Weaknesses      []sections.Section `json:"weaknesses"`
	Recommendations []string           `json:"recommendations"`
	Flagged         bool               `json:"flagged"`
}

// Section returns the result for s, if it was part of the exam.
func (r Result) Section(s sections.Section) (SectionResult, bool) {
	for _, sr := range r.Sections {
		if sr.Section == s {
			return sr, true
		}
	}
	return SectionResult{}, false
}

// Band maps a 0–600 total score to a CEFR-style band.
func Band(total int) string {
	switch {
	case total >= 540:
		return "C1"
	case total >= 450:
		return "B2"
	case total >= 360:
		return "B1"
	case total >= 240:
		return "A2"
	default:
		return "A1"
	}
}

// SectionScore converts a section's correct count to the 0–150 scale.
func SectionScore(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * SectionMax))
}

// AbilityFromScore maps a total score onto the θ scale.
func AbilityFromScore(total int) float64 {
	return irt.ClampTheta(float64(total-300) / 100)
}

// Score computes the result of an attempt from its items and answers alone.
// Unanswered items count as incorrect. Sections with no items score zero and
// are neither strengths nor weaknesses.
func Score(cfg Config, a Attempt) Result {
	totals := make(map[sections.Section]int)
	for _, it := range a.Items {
		totals[it.Section]++
	}
	correct := make(map[sections.Section]int)
	for _, ans := range a.Answers {
		if ans.Correct {
			correct[ans.Section]++
		}
	}

	res := Result{
		Kind:            cfg.Kind,
		Strengths:       []sections.Section{},
		Weaknesses:      []sections.Section{},
		Recommendations: []string{},
		Flagged:         a.Integrity.Suspicious,
	}
	for _, s := range sections.All() {
		sr := SectionResult{Section: s, Correct: correct[s], Total: totals[s]}
		if sr.Total > 0 {
			sr.Accuracy = float64(sr.Correct) / float64(sr.Total)
			sr.Score = SectionScore(sr.Correct, sr.Total)
			switch {
			case sr.Accuracy >= strengthAccuracy:
				res.Strengths = append(res.Strengths, s)
			case sr.Accuracy < weaknessAccuracy:
				res.Weaknesses = append(res.Weaknesses, s)
				res.Recommendations = append(res.Recommendations, recommendationFor(s, sr.Accuracy))
			}
		}
		res.TotalScore += sr.Score
		res.Sections = append(res.Sections, sr)
	}

	res.Band = Band(res.TotalScore)
	res.Ability = AbilityFromScore(res.TotalScore)
	return res
}

func recommendationFor(s sections.Section, accuracy float64) string {
	pct := int(math.Round(accuracy * 100))
	switch s {
	case sections.Listening:
		return fmt.Sprintf("Listening accuracy was %d%%. Practice with short audio clips daily and summarize what you heard.", pct)
	case sections.Vocabulary:
		return fmt.Sprintf("Vocabulary accuracy was %d%%. Review word families and collocations with spaced flashcards.", pct)
	case sections.Grammar:
		return fmt.Sprintf("Grammar accuracy was %d%%. Focus on your weak grammar topics with targeted drills.", pct)
	case sections.Reading:
		return fmt.Sprintf("Reading accuracy was %d%%. Read one passage a day and practice skimming for main ideas.", pct)
	}
	return fmt.Sprintf("%s accuracy was %d%%. Schedule extra practice for this section.", s.DisplayName(), pct)
}
