package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/adaptest/internal/exam"
	"github.com/abhisek/adaptest/internal/profile"
	"github.com/abhisek/adaptest/internal/questionbank"
	"github.com/abhisek/adaptest/internal/sections"
	"github.com/abhisek/adaptest/internal/store"
)

// avoidLookback is how many earlier attempts feed the soft exclusion set.
const avoidLookback = 10

// CreateExamRequest describes the exam a learner asked for.
type CreateExamRequest struct {
	Kind       exam.Kind        `json:"type"`
	Difficulty string           `json:"difficulty,omitempty"`
	Section    sections.Section `json:"section,omitempty"`
	Count      int              `json:"count,omitempty"`
	Duration   int              `json:"duration,omitempty"` // minutes, micro sessions only
}

// SubmitRequest is one answer from the learner.
type SubmitRequest struct {
	QuestionID    string  `json:"question_id"`
	Response      string  `json:"response"`
	TimeSpentSecs float64 `json:"time_spent_secs"`
}

// ExamView is an attempt together with its config and clock.
type ExamView struct {
	Attempt       exam.Attempt `json:"attempt"`
	Config        exam.Config  `json:"config"`
	RemainingSecs int          `json:"remaining_secs"`
}

// AnswerResult reports a graded answer and the learner's updated ability.
type AnswerResult struct {
	Answer        exam.Answer `json:"answer"`
	Ability       float64     `json:"ability"`
	Answered      int         `json:"answered"`
	Total         int         `json:"total"`
	RemainingSecs int         `json:"remaining_secs"`
}

// ExamService runs the attempt lifecycle.
type ExamService struct {
	questions *store.QuestionRepo
	attempts  *store.AttemptRepo
	configs   *store.ConfigRepo
	events    store.EventRepo
	selector  *questionbank.Selector
	learners  *LearnerService
	policy    exam.Policy
	logger    *slog.Logger
	now       func() time.Time
	locks     *keyedMutex

	rngMu sync.Mutex
	rng   *rand.Rand
}

func newExamService(d Deps, learners *LearnerService, locks *keyedMutex) *ExamService {
	questions := d.Store.QuestionRepo()
	return &ExamService{
		questions: questions,
		attempts:  d.Store.AttemptRepo(),
		configs:   d.Store.ConfigRepo(),
		events:    d.Store.EventRepo(),
		selector:  questionbank.NewSelector(questions),
		learners:  learners,
		policy:    d.Policy,
		logger:    d.Logger,
		now:       d.Now,
		locks:     locks,
		rng:       d.Rand,
	}
}

// BuildConfig turns a request into an exam config. A named difficulty other
// than "mixed" fills sections by tier instead of adaptively.
func BuildConfig(req CreateExamRequest) (exam.Config, error) {
	band, err := exam.ParseDifficulty(req.Difficulty)
	if err != nil {
		return exam.Config{}, invalid("%v", err)
	}

	var cfg exam.Config
	switch req.Kind {
	case exam.KindFull:
		cfg = exam.FullConfig()
	case exam.KindSection:
		if req.Section == "" {
			return exam.Config{}, invalid("section practice needs a section")
		}
		cfg, err = exam.SectionConfig(req.Section, req.Count)
	case exam.KindMicro:
		cfg, err = exam.MicroConfig(req.Duration, req.Section)
	default:
		return exam.Config{}, invalid("unknown exam type %q", req.Kind)
	}
	if err != nil {
		return exam.Config{}, invalid("%v", err)
	}

	if band != (exam.DifficultyBand{Min: 1, Max: 5}) {
		cfg.Difficulty = band
		cfg.Rules.Adaptive = false
		cfg.Name = fmt.Sprintf("%s (%s)", cfg.Name, req.Difficulty)
	}
	return cfg, nil
}

// CreateExam resolves the config, selects questions for every section and
// stores a new not-started attempt.
func (s *ExamService) CreateExam(ctx context.Context, userID string, req CreateExamRequest) (*ExamView, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	cfg, err := BuildConfig(req)
	if err != nil {
		return nil, err
	}
	cfg, err = s.resolveConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	p, err := s.learners.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	avoid, err := s.previousQuestions(ctx, userID)
	if err != nil {
		return nil, err
	}
	questions, err := s.selectQuestions(ctx, cfg, p, avoid)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("create %s exam: %w", cfg.Kind, ErrNoQuestions)
	}
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	now := s.now()
	s.rngMu.Lock()
	a := exam.NewAttempt(uuid.NewString(), userID, cfg, questions, s.rng, now)
	s.rngMu.Unlock()

	if err := s.attempts.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("save attempt: %w", err)
	}
	s.updateConfigUsage(ctx, cfg.ID, func(u exam.Usage) exam.Usage { return u.RecordUse(now) })
	s.appendEvent(ctx, a, "created", cfg.Name)

	s.logger.Info("exam created",
		"attempt_id", a.ID, "user_id", userID, "kind", cfg.Kind,
		"questions", len(a.Items), "adaptive", cfg.Rules.Adaptive)
	return newView(a, cfg, now), nil
}

// resolveConfig reuses a stored config with the same name or saves cfg as
// a new one.
func (s *ExamService) resolveConfig(ctx context.Context, cfg exam.Config) (exam.Config, error) {
	existing, err := s.configs.FindByName(ctx, cfg.Name)
	if err == nil {
		return *existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return exam.Config{}, fmt.Errorf("find exam config: %w", err)
	}
	cfg.ID = uuid.NewString()
	cfg.CreatedAt = s.now()
	if err := s.configs.Save(ctx, cfg); err != nil {
		return exam.Config{}, fmt.Errorf("save exam config: %w", err)
	}
	return cfg, nil
}

// previousQuestions collects question IDs from the learner's latest
// attempts; selection skips them where the pool allows.
func (s *ExamService) previousQuestions(ctx context.Context, userID string) (map[string]bool, error) {
	prev, err := s.attempts.ListByUser(ctx, userID, nil, avoidLookback)
	if err != nil {
		return nil, err
	}
	avoid := make(map[string]bool)
	for _, a := range prev {
		for _, id := range a.QuestionIDs() {
			avoid[id] = true
		}
	}
	return avoid, nil
}

// selectQuestions fills each layout in order. Adaptive configs rank by
// information at the learner's section ability; others fill by tier. Short
// sections are topped up from any tier.
func (s *ExamService) selectQuestions(ctx context.Context, cfg exam.Config, p profile.Profile, avoid map[string]bool) ([]questionbank.Question, error) {
	var target int
	if p.Goal != nil {
		target = p.Goal.TargetScore
	}

	var out []questionbank.Question
	for _, l := range cfg.Layouts {
		var picked []questionbank.Question
		var err error
		if cfg.Rules.Adaptive {
			picked, err = s.selector.SelectAdaptive(ctx, questionbank.Criteria{
				Section:     l.Section,
				Theta:       p.Ability(l.Section),
				TargetScore: target,
				WeakTopics:  p.WeakTopicNames(),
				Recent:      p.RecentQuestionIDs(),
				Avoid:       avoid,
			}, l.QuestionCount)
		} else {
			picked, err = s.selector.SelectByDifficulty(ctx, l.Section, cfg.Difficulty.Tiers(), l.QuestionCount, avoid)
		}
		if err != nil {
			return nil, fmt.Errorf("select %s questions: %w", l.Section, err)
		}

		if len(picked) < l.QuestionCount {
			picked, err = s.topUp(ctx, l, picked, avoid)
			if err != nil {
				return nil, err
			}
		}
		if len(picked) < l.QuestionCount {
			s.logger.Warn("question pool short",
				"section", l.Section, "wanted", l.QuestionCount, "got", len(picked))
		}
		out = append(out, picked...)
	}
	return out, nil
}

func (s *ExamService) topUp(ctx context.Context, l exam.Layout, picked []questionbank.Question, avoid map[string]bool) ([]questionbank.Question, error) {
	have := make(map[string]bool, len(picked))
	for _, q := range picked {
		have[q.ID] = true
	}
	extra, err := s.selector.SelectByDifficulty(ctx, l.Section, nil, l.QuestionCount+len(picked), avoid)
	if err != nil {
		return nil, fmt.Errorf("top up %s questions: %w", l.Section, err)
	}
	for _, q := range extra {
		if len(picked) == l.QuestionCount {
			break
		}
		if !have[q.ID] {
			picked = append(picked, q)
			have[q.ID] = true
		}
	}
	return picked, nil
}

// Get returns an attempt, expiring it first if its time ran out.
func (s *ExamService) Get(ctx context.Context, userID, attemptID string) (*ExamView, error) {
	a, cfg, err := s.mutate(ctx, userID, attemptID, "", nil)
	if err != nil {
		return nil, err
	}
	return newView(a, cfg, s.now()), nil
}

// List returns the learner's attempts, newest first.
func (s *ExamService) List(ctx context.Context, userID string, statuses []exam.Status, limit int) ([]exam.Attempt, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.attempts.ListByUser(ctx, userID, statuses, limit)
}

// Questions returns the attempt's questions in presentation order.
func (s *ExamService) Questions(ctx context.Context, userID, attemptID string) ([]exam.PresentedQuestion, error) {
	a, cfg, err := s.mutate(ctx, userID, attemptID, "", nil)
	if err != nil {
		return nil, err
	}
	qs, err := s.questions.GetMany(ctx, a.QuestionIDs())
	if err != nil {
		return nil, fmt.Errorf("load attempt questions: %w", err)
	}
	return exam.PresentQuestions(a, cfg, qs), nil
}

// Start begins a not-started attempt.
func (s *ExamService) Start(ctx context.Context, userID, attemptID string) (*ExamView, error) {
	return s.transition(ctx, userID, attemptID, "start", func(a exam.Attempt, _ exam.Config, now time.Time) (exam.Attempt, error) {
		return exam.Start(a, now)
	})
}

// Pause suspends an in-progress attempt when its rules allow it.
func (s *ExamService) Pause(ctx context.Context, userID, attemptID string) (*ExamView, error) {
	return s.transition(ctx, userID, attemptID, "pause", func(a exam.Attempt, cfg exam.Config, now time.Time) (exam.Attempt, error) {
		return exam.Pause(a, cfg.Rules, now)
	})
}

// Resume continues a paused attempt.
func (s *ExamService) Resume(ctx context.Context, userID, attemptID string) (*ExamView, error) {
	return s.transition(ctx, userID, attemptID, "resume", func(a exam.Attempt, _ exam.Config, now time.Time) (exam.Attempt, error) {
		return exam.Resume(a, now)
	})
}

// Abandon ends an attempt without scoring it.
func (s *ExamService) Abandon(ctx context.Context, userID, attemptID string) (*ExamView, error) {
	return s.transition(ctx, userID, attemptID, "abandon", func(a exam.Attempt, _ exam.Config, now time.Time) (exam.Attempt, error) {
		return exam.Abandon(a, now)
	})
}

// ReportActivity records a proctoring signal such as a tab switch.
func (s *ExamService) ReportActivity(ctx context.Context, userID, attemptID string, kind exam.Activity) (*ExamView, error) {
	view, err := s.transition(ctx, userID, attemptID, "activity", func(a exam.Attempt, _ exam.Config, _ time.Time) (exam.Attempt, error) {
		out, err := exam.ReportActivity(a, kind)
		if errors.Is(err, exam.ErrUnknownActivity) {
			return a, invalid("%v", err)
		}
		return out, err
	})
	if err != nil {
		return nil, err
	}
	if view.Attempt.Integrity.Suspicious {
		s.logger.Warn("attempt flagged", "attempt_id", attemptID, "user_id", userID,
			"tab_switches", view.Attempt.Integrity.TabSwitches,
			"fullscreen_exits", view.Attempt.Integrity.FullscreenExits)
	}
	return view, nil
}

// Complete finishes and scores an attempt, then refreshes the learner's
// analytics. A failed refresh is logged and does not undo completion.
func (s *ExamService) Complete(ctx context.Context, userID, attemptID string) (*ExamView, error) {
	view, err := s.transition(ctx, userID, attemptID, "complete", func(a exam.Attempt, cfg exam.Config, now time.Time) (exam.Attempt, error) {
		return exam.Complete(a, cfg, now)
	})
	if err != nil {
		return nil, err
	}

	total := view.Attempt.Result.TotalScore
	s.updateConfigUsage(ctx, view.Config.ID, func(u exam.Usage) exam.Usage { return u.RecordCompletion(total) })
	if _, err := s.learners.Refresh(ctx, userID); err != nil {
		s.logger.Warn("analytics refresh failed", "user_id", userID, "error", err)
	}
	s.logger.Info("exam completed", "attempt_id", attemptID, "user_id", userID,
		"score", total, "band", view.Attempt.Result.Band)
	return view, nil
}

// SubmitAnswer grades one response. The first answer to each question also
// updates the learner profile and the question's usage statistics; later
// resubmissions only replace the stored answer.
func (s *ExamService) SubmitAnswer(ctx context.Context, userID, attemptID string, req SubmitRequest) (*AnswerResult, error) {
	if req.QuestionID == "" {
		return nil, invalid("question_id is required")
	}

	var (
		q      *questionbank.Question
		ans    exam.Answer
		repeat bool
	)
	a, _, err := s.mutate(ctx, userID, attemptID, "answer", func(a exam.Attempt, _ exam.Config, now time.Time) (exam.Attempt, error) {
		if a.Status != exam.StatusInProgress {
			return a, &exam.StateError{Op: "submit answer to", Status: a.Status}
		}
		if _, ok := a.SectionOf(req.QuestionID); !ok {
			return a, exam.ErrNotInAttempt
		}
		_, repeat = a.AnswerFor(req.QuestionID)
		var err error
		if q, err = s.questions.Get(ctx, req.QuestionID); err != nil {
			return a, err
		}
		var out exam.Attempt
		out, ans, err = exam.SubmitAnswer(a, q, req.Response, req.TimeSpentSecs, now)
		return out, err
	})
	if err != nil {
		return nil, err
	}

	res := &AnswerResult{
		Answer:        ans,
		Answered:      len(a.Answers),
		Total:         len(a.Items),
		RemainingSecs: remainingSecs(a, s.now()),
	}
	if repeat {
		p, err := s.learners.loadProfile(ctx, userID)
		if err != nil {
			return nil, err
		}
		res.Ability = p.Ability(ans.Section)
		return res, nil
	}

	if err := s.questions.RecordUsage(ctx, q.ID, ans.Correct, ans.TimeSpentSecs); err != nil {
		s.logger.Warn("record question usage failed", "question_id", q.ID, "error", err)
	}
	p, err := s.learners.recordAnswer(ctx, userID, profile.AnswerInput{
		Section:       ans.Section,
		QuestionID:    q.ID,
		Topic:         q.Topic,
		Difficulty:    q.Difficulty,
		Params:        q.Params(),
		Correct:       ans.Correct,
		TimeSpentSecs: ans.TimeSpentSecs,
	})
	if err != nil {
		return nil, err
	}
	res.Ability = p.Ability(ans.Section)
	return res, nil
}

type transitionFunc func(a exam.Attempt, cfg exam.Config, now time.Time) (exam.Attempt, error)

func (s *ExamService) transition(ctx context.Context, userID, attemptID, action string, fn transitionFunc) (*ExamView, error) {
	a, cfg, err := s.mutate(ctx, userID, attemptID, action, fn)
	if err != nil {
		return nil, err
	}
	return newView(a, cfg, s.now()), nil
}

// mutate loads an attempt under its lock, applies lazy expiry and then fn.
// Any change is saved and logged as an attempt event. A nil fn only reads.
func (s *ExamService) mutate(ctx context.Context, userID, attemptID, action string, fn transitionFunc) (exam.Attempt, exam.Config, error) {
	if err := requireUser(userID); err != nil {
		return exam.Attempt{}, exam.Config{}, err
	}
	unlock := s.locks.Lock("attempt:" + attemptID)
	defer unlock()

	a, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return exam.Attempt{}, exam.Config{}, fmt.Errorf("attempt %s: %w", attemptID, err)
	}
	// Other learners' attempts are reported as missing.
	if a.UserID != userID {
		return exam.Attempt{}, exam.Config{}, fmt.Errorf("attempt %s: %w", attemptID, store.ErrNotFound)
	}
	cfg, err := s.configs.Get(ctx, a.ConfigID)
	if err != nil {
		return exam.Attempt{}, exam.Config{}, fmt.Errorf("exam config %s: %w", a.ConfigID, err)
	}

	now := s.now()
	cur := *a
	if expired, changed := exam.CheckExpiry(cur, now, s.policy); changed {
		if err := s.attempts.Save(ctx, expired); err != nil {
			return exam.Attempt{}, exam.Config{}, fmt.Errorf("save expired attempt: %w", err)
		}
		s.appendEvent(ctx, expired, "expired", string(expired.EndReason))
		s.logger.Info("attempt expired", "attempt_id", attemptID, "reason", expired.EndReason)
		cur = expired
	}
	if fn == nil {
		return cur, *cfg, nil
	}

	next, err := fn(cur, *cfg, now)
	if err != nil {
		return cur, *cfg, fmt.Errorf("%s attempt %s: %w", action, attemptID, err)
	}
	if err := s.attempts.Save(ctx, next); err != nil {
		return cur, *cfg, fmt.Errorf("save attempt: %w", err)
	}
	s.appendEvent(ctx, next, action, string(next.Status))
	return next, *cfg, nil
}

func (s *ExamService) updateConfigUsage(ctx context.Context, configID string, fn func(exam.Usage) exam.Usage) {
	unlock := s.locks.Lock("config:" + configID)
	defer unlock()

	cfg, err := s.configs.Get(ctx, configID)
	if err == nil {
		cfg.Usage = fn(cfg.Usage)
		err = s.configs.Save(ctx, *cfg)
	}
	if err != nil {
		s.logger.Warn("update config usage failed", "config_id", configID, "error", err)
	}
}

func (s *ExamService) appendEvent(ctx context.Context, a exam.Attempt, action, detail string) {
	err := s.events.AppendAttemptEvent(ctx, store.AttemptEventData{
		AttemptID: a.ID,
		UserID:    a.UserID,
		Action:    action,
		Detail:    detail,
	})
	if err != nil {
		s.logger.Warn("append attempt event failed", "attempt_id", a.ID, "action", action, "error", err)
	}
}

// Events returns the attempt's lifecycle log.
func (s *ExamService) Events(ctx context.Context, userID, attemptID string) ([]store.AttemptEventRecord, error) {
	if _, _, err := s.mutate(ctx, userID, attemptID, "", nil); err != nil {
		return nil, err
	}
	return s.events.AttemptEvents(ctx, attemptID)
}

func newView(a exam.Attempt, cfg exam.Config, now time.Time) *ExamView {
	return &ExamView{Attempt: a, Config: cfg, RemainingSecs: remainingSecs(a, now)}
}

func remainingSecs(a exam.Attempt, now time.Time) int {
	if a.Status.Terminal() {
		return 0
	}
	return int(math.Ceil(a.Remaining(now).Seconds()))
}
