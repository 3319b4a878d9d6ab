package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhisek/adaptest/internal/profile"
	"github.com/abhisek/adaptest/internal/questionbank"
	"github.com/abhisek/adaptest/internal/questiongen"
	"github.com/abhisek/adaptest/internal/sections"
	"github.com/abhisek/adaptest/internal/store"
)

const (
	// DefaultPageSize is the search page size when none is given.
	DefaultPageSize = 20

	// MaxPageSize bounds question search pages.
	MaxPageSize = 100

	// MaxGenerateCount bounds one generation request.
	MaxGenerateCount = 20
)

// SearchResult is one page of matching questions.
type SearchResult struct {
	Questions []questionbank.Question `json:"questions"`
	Total     int                     `json:"total"`
	Limit     int                     `json:"limit"`
	Offset    int                     `json:"offset"`
}

// GenerateRequest asks for a batch of AI-generated questions.
type GenerateRequest struct {
	Section    sections.Section  `json:"section"`
	Type       questionbank.Type `json:"type"`
	Difficulty int               `json:"difficulty"`
	Topic      string            `json:"topic,omitempty"`
	Count      int               `json:"count"`

	// UserID, when set, steers generation toward the learner's weak topics.
	UserID string `json:"-"`
}

// QuestionService manages the question pool.
type QuestionService struct {
	questions *store.QuestionRepo
	profiles  *store.ProfileRepo
	selector  *questionbank.Selector
	generator *questiongen.Generator
	logger    *slog.Logger
	now       func() time.Time
}

func newQuestionService(d Deps) *QuestionService {
	questions := d.Store.QuestionRepo()
	return &QuestionService{
		questions: questions,
		profiles:  d.Store.ProfileRepo(),
		selector:  questionbank.NewSelector(questions),
		generator: d.Generator,
		logger:    d.Logger,
		now:       d.Now,
	}
}

// Search runs a filtered, paginated query over the pool.
func (s *QuestionService) Search(ctx context.Context, f questionbank.Filter, limit, offset int) (*SearchResult, error) {
	if f.Section != "" && !f.Section.Valid() {
		return nil, invalid("unknown section %q", f.Section)
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, invalid("unknown type %q", f.Type)
	}
	if f.ReviewStatus != "" && !f.ReviewStatus.Valid() {
		return nil, invalid("unknown review status %q", f.ReviewStatus)
	}
	for _, d := range f.Difficulties {
		if d < 1 || d > 5 {
			return nil, invalid("difficulty %d out of range", d)
		}
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	qs, total, err := s.selector.Search(ctx, f, limit, offset)
	if err != nil {
		return nil, err
	}
	if qs == nil {
		qs = []questionbank.Question{}
	}
	return &SearchResult{Questions: qs, Total: total, Limit: limit, Offset: max(offset, 0)}, nil
}

// Get returns one question with its answer key.
func (s *QuestionService) Get(ctx context.Context, id string) (*questionbank.Question, error) {
	q, err := s.questions.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("question %s: %w", id, err)
	}
	return q, nil
}

// Import validates and saves every record of an envelope independently.
func (s *QuestionService) Import(ctx context.Context, env questionbank.Envelope) (*questionbank.ImportReport, error) {
	if err := questionbank.CheckVersion(env.Version); err != nil {
		return nil, invalid("%v", err)
	}
	report, err := questionbank.Import(ctx, s.questions, env, s.now())
	if err != nil {
		return report, err
	}
	s.logger.Info("questions imported",
		"total", report.Total, "succeeded", report.Succeeded, "failed", report.Failed)
	return report, nil
}

// Review moves a question to a new review status, e.g. approving an
// AI-generated draft so adaptive selection can serve it.
func (s *QuestionService) Review(ctx context.Context, id string, status questionbank.ReviewStatus) error {
	if !status.Valid() {
		return invalid("unknown review status %q", status)
	}
	if err := s.questions.UpdateReviewStatus(ctx, id, status); err != nil {
		return fmt.Errorf("question %s: %w", id, err)
	}
	return nil
}

// Generate produces a batch of questions with the configured LLM and saves
// them pending review.
func (s *QuestionService) Generate(ctx context.Context, req GenerateRequest) (*questiongen.BatchReport, error) {
	if s.generator == nil {
		return nil, ErrGenerationDisabled
	}
	if req.Count < 1 || req.Count > MaxGenerateCount {
		return nil, invalid("count must be between 1 and %d", MaxGenerateCount)
	}
	if !req.Section.Valid() {
		return nil, invalid("unknown section %q", req.Section)
	}
	if req.Type != "" && !req.Type.Valid() {
		return nil, invalid("unknown type %q", req.Type)
	}
	if req.Difficulty < 1 || req.Difficulty > 5 {
		return nil, invalid("difficulty must be between 1 and 5")
	}

	in := questiongen.Input{
		Section:    req.Section,
		Type:       req.Type,
		Difficulty: req.Difficulty,
		Topic:      req.Topic,
	}
	if in.Type == "" {
		in.Type = questionbank.TypeMultipleChoice
	}

	prior, _, err := s.questions.Search(ctx, questionbank.Filter{Section: req.Section, Topic: req.Topic}, questiongen.DefaultConfig().MaxPriorQuestions, 0)
	if err != nil {
		return nil, fmt.Errorf("load prior questions: %w", err)
	}
	for _, q := range prior {
		in.PriorQuestions = append(in.PriorQuestions, q.Prompt)
	}

	if req.UserID != "" {
		p, err := s.profiles.Get(ctx, req.UserID)
		switch {
		case err == nil:
			in.WeakTopics = weakTopicsIn(*p, req.Section)
		case !errors.Is(err, store.ErrNotFound):
			return nil, fmt.Errorf("load profile: %w", err)
		}
	}

	report, err := s.generator.GenerateBatch(ctx, s.questions, in, req.Count)
	if err != nil {
		return report, err
	}
	s.logger.Info("questions generated",
		"section", req.Section, "requested", report.Requested,
		"saved", len(report.Saved), "failed", len(report.Errors))
	return report, nil
}

func weakTopicsIn(p profile.Profile, section sections.Section) []string {
	var out []string
	for _, t := range p.WeakTopics {
		if t.Section == section {
			out = append(out, t.Topic)
		}
	}
	return out
}
