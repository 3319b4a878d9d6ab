// Package service orchestrates exams, learner profiles, analytics and the
// question pool on top of the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/abhisek/adaptest/internal/exam"
	"github.com/abhisek/adaptest/internal/peers"
	"github.com/abhisek/adaptest/internal/questiongen"
	"github.com/abhisek/adaptest/internal/store"
)

var (
	// ErrInvalidInput wraps request validation failures.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoQuestions is returned when the pool cannot supply a single
	// question for the requested exam.
	ErrNoQuestions = errors.New("no questions available")

	// ErrGenerationDisabled is returned by question generation when no LLM
	// provider is configured.
	ErrGenerationDisabled = errors.New("question generation is not configured")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Deps holds what the services need. Only Store is required.
type Deps struct {
	Store     *store.Store
	Peers     peers.Index
	Generator *questiongen.Generator
	Policy    exam.Policy
	Logger    *slog.Logger

	// Now and Rand are overridable for tests.
	Now  func() time.Time
	Rand *rand.Rand
}

// Services bundles the three services over one set of dependencies.
type Services struct {
	Exams     *ExamService
	Learners  *LearnerService
	Questions *QuestionService
}

// New wires all services.
func New(d Deps) *Services {
	if d.Peers == nil {
		d.Peers = peers.NewStoreIndex(d.Store.SnapshotRepo())
	}
	if d.Policy == (exam.Policy{}) {
		d.Policy = exam.DefaultPolicy()
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Rand == nil {
		d.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	locks := &keyedMutex{}
	learners := &LearnerService{
		profiles:  d.Store.ProfileRepo(),
		attempts:  d.Store.AttemptRepo(),
		snapshots: d.Store.SnapshotRepo(),
		peers:     d.Peers,
		logger:    d.Logger,
		now:       d.Now,
		locks:     locks,
	}
	return &Services{
		Exams:     newExamService(d, learners, locks),
		Learners:  learners,
		Questions: newQuestionService(d),
	}
}

// keyedMutex serializes read-modify-write cycles per key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// Lock acquires the lock for key and returns its release function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func requireUser(userID string) error {
	if userID == "" {
		return invalid("learner id is required")
	}
	return nil
}

// ctxErr surfaces cancellation before work that cannot be undone.
func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("request cancelled: %w", err)
	}
	return nil
}
