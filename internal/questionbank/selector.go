package questionbank

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/abhisek/adaptest/internal/irt"
	"github.com/abhisek/adaptest/internal/sections"
)

const (
	// RecentWindow is how many of the learner's latest answers are never
	// served again by adaptive selection.
	RecentWindow = 50

	// WeakTopicBoost multiplies the information value of weak-topic items.
	WeakTopicBoost = 1.5

	// CandidatePageSize is how many items each pool query loads.
	CandidatePageSize = 500

	// maxTargetStretch bounds how far a target score pulls the selection θ.
	maxTargetStretch = 0.5
)

// Filter is the explicit search query over the question pool. Zero values
// mean "any".
type Filter struct {
	Section      sections.Section
	Type         Type
	Difficulties []int
	Topic        string
	Tags         []string
	OfficialOnly bool
	ReviewStatus ReviewStatus
	MinQuality   float64
	ExcludeIDs   []string
}

// Repository is the question pool persistence contract.
type Repository interface {
	// Search returns one page of matching questions and the total match count.
	Search(ctx context.Context, f Filter, limit, offset int) ([]Question, int, error)

	// Get returns a question by ID, or store.ErrNotFound.
	Get(ctx context.Context, id string) (*Question, error)

	// GetMany returns the questions with the given IDs, in no particular order.
	GetMany(ctx context.Context, ids []string) ([]Question, error)

	// Save inserts or replaces a question.
	Save(ctx context.Context, q *Question) error

	// RecordUsage folds one response into a question's usage statistics.
	RecordUsage(ctx context.Context, id string, correct bool, timeSpentSecs float64) error
}

// Criteria describes an adaptive pick for one section.
type Criteria struct {
	Section     sections.Section
	Theta       float64
	TargetScore int
	WeakTopics  []string
	// Recent holds the learner's latest answered question IDs; the last
	// RecentWindow of them are never selected.
	Recent []string
	// Avoid holds IDs to skip where possible (e.g. earlier attempts).
	Avoid map[string]bool
}

// Candidate is a question with its ranking value.
type Candidate struct {
	Question Question
	Value    float64
}

// Selector searches the pool and ranks items for adaptive exams.
type Selector struct {
	repo Repository
}

// NewSelector creates a Selector over repo.
func NewSelector(repo Repository) *Selector {
	return &Selector{repo: repo}
}

// Search runs a filtered, paginated query.
func (s *Selector) Search(ctx context.Context, f Filter, limit, offset int) ([]Question, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	qs, total, err := s.repo.Search(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("search questions: %w", err)
	}
	return qs, total, nil
}

// SelectAdaptive returns up to count approved questions for the criteria
// section, ranked by information value at the learner's ability. The whole
// section pool is ranked.
func (s *Selector) SelectAdaptive(ctx context.Context, c Criteria, count int) ([]Question, error) {
	if count <= 0 {
		return nil, nil
	}
	pool, err := s.loadAll(ctx, Filter{
		Section:      c.Section,
		ReviewStatus: StatusApproved,
		ExcludeIDs:   recentIDs(c.Recent),
	})
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	return pick(Rank(pool, c), c.Avoid, count), nil
}

// loadAll pages through every question matching f.
func (s *Selector) loadAll(ctx context.Context, f Filter) ([]Question, error) {
	var pool []Question
	for offset := 0; ; {
		page, total, err := s.repo.Search(ctx, f, CandidatePageSize, offset)
		if err != nil {
			return nil, err
		}
		pool = append(pool, page...)
		offset += len(page)
		if len(page) == 0 || offset >= total {
			return pool, nil
		}
	}
}

// SelectByDifficulty returns up to count approved questions within the given
// difficulty tiers, least-used first.
func (s *Selector) SelectByDifficulty(ctx context.Context, section sections.Section, tiers []int, count int, avoid map[string]bool) ([]Question, error) {
	if count <= 0 {
		return nil, nil
	}
	pool, _, err := s.repo.Search(ctx, Filter{
		Section:      section,
		Difficulties: tiers,
		ReviewStatus: StatusApproved,
	}, CandidatePageSize, 0)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	ranked := make([]Candidate, len(pool))
	for i, q := range pool {
		ranked[i] = Candidate{Question: q}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return lessUsage(ranked[i].Question, ranked[j].Question)
	})
	return pick(ranked, avoid, count), nil
}

// Rank scores questions by information value at the criteria's effective θ,
// boosting weak-topic matches. Ties go to the least-used question.
func Rank(pool []Question, c Criteria) []Candidate {
	theta := effectiveTheta(c.Theta, c.TargetScore)

	weak := make(map[string]bool, len(c.WeakTopics))
	for _, t := range c.WeakTopics {
		weak[strings.ToLower(t)] = true
	}

	out := make([]Candidate, 0, len(pool))
	for _, q := range pool {
		value := irt.Information(theta, q.Params())
		if weak[strings.ToLower(q.Topic)] {
			value *= WeakTopicBoost
		}
		out = append(out, Candidate{Question: q, Value: value})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return lessUsage(out[i].Question, out[j].Question)
	})
	return out
}

// effectiveTheta nudges θ toward the ability implied by a target score so
// learners aiming higher see slightly harder items.
func effectiveTheta(theta float64, targetScore int) float64 {
	if targetScore <= 0 {
		return theta
	}
	target := (float64(targetScore) - 300) / 100
	shift := (target - theta) * 0.25
	if shift > maxTargetStretch {
		shift = maxTargetStretch
	}
	if shift < -maxTargetStretch {
		shift = -maxTargetStretch
	}
	return irt.ClampTheta(theta + shift)
}

// pick takes the first count candidates not in avoid, then tops up from the
// avoided ones when the pool runs short.
func pick(ranked []Candidate, avoid map[string]bool, count int) []Question {
	out := make([]Question, 0, count)
	var fallback []Question
	for _, c := range ranked {
		if len(out) == count {
			return out
		}
		if avoid[c.Question.ID] {
			fallback = append(fallback, c.Question)
			continue
		}
		out = append(out, c.Question)
	}
	for _, q := range fallback {
		if len(out) == count {
			break
		}
		out = append(out, q)
	}
	return out
}

func lessUsage(a, b Question) bool {
	if a.Stats.TimesUsed != b.Stats.TimesUsed {
		return a.Stats.TimesUsed < b.Stats.TimesUsed
	}
	return a.ID < b.ID
}

func recentIDs(ids []string) []string {
	if len(ids) > RecentWindow {
		return ids[len(ids)-RecentWindow:]
	}
	return ids
}
