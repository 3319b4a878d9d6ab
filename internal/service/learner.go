package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhisek/adaptest/internal/analytics"
	"github.com/abhisek/adaptest/internal/peers"
	"github.com/abhisek/adaptest/internal/profile"
	"github.com/abhisek/adaptest/internal/store"
	"github.com/abhisek/adaptest/internal/studyplan"
)

// LearnerService owns profiles, goals, plans and the analytics dashboard.
type LearnerService struct {
	profiles  *store.ProfileRepo
	attempts  *store.AttemptRepo
	snapshots *store.SnapshotRepo
	peers     peers.Index
	logger    *slog.Logger
	now       func() time.Time
	locks     *keyedMutex
}

// Profile returns the learner's profile. A learner with no answers gets a
// fresh, unsaved profile.
func (s *LearnerService) Profile(ctx context.Context, userID string) (profile.Profile, error) {
	if err := requireUser(userID); err != nil {
		return profile.Profile{}, err
	}
	return s.loadProfile(ctx, userID)
}

func (s *LearnerService) loadProfile(ctx context.Context, userID string) (profile.Profile, error) {
	p, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return profile.New(userID, s.now()), nil
	}
	if err != nil {
		return profile.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return *p, nil
}

// recordAnswer folds an answer into the stored profile.
func (s *LearnerService) recordAnswer(ctx context.Context, userID string, in profile.AnswerInput) (profile.Profile, error) {
	unlock := s.locks.Lock("profile:" + userID)
	defer unlock()

	p, err := s.loadProfile(ctx, userID)
	if err != nil {
		return profile.Profile{}, err
	}
	next := profile.RecordAnswer(p, in, s.now())
	if err := s.profiles.Save(ctx, next); err != nil {
		return profile.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return next, nil
}

// SetGoal stores a target score and date, starting from the current score.
func (s *LearnerService) SetGoal(ctx context.Context, userID string, targetScore int, targetDate time.Time) (profile.Profile, error) {
	if err := requireUser(userID); err != nil {
		return profile.Profile{}, err
	}
	current, err := s.currentScore(ctx, userID)
	if err != nil {
		return profile.Profile{}, err
	}

	unlock := s.locks.Lock("profile:" + userID)
	defer unlock()

	p, err := s.loadProfile(ctx, userID)
	if err != nil {
		return profile.Profile{}, err
	}
	next, err := profile.SetGoal(p, targetScore, targetDate, current, s.now())
	if err != nil {
		return profile.Profile{}, err
	}
	if err := s.profiles.Save(ctx, next); err != nil {
		return profile.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	s.logger.Info("goal set", "user_id", userID, "target_score", targetScore, "start_score", current)
	return next, nil
}

// Recommendations returns up to limit study suggestions.
func (s *LearnerService) Recommendations(ctx context.Context, userID string, limit int) ([]studyplan.Recommendation, error) {
	p, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return studyplan.Recommend(p, limit), nil
}

// StudyPlan builds a weekly plan from the current score toward goalScore.
func (s *LearnerService) StudyPlan(ctx context.Context, userID string, goalScore, weeks int) (studyplan.Plan, error) {
	p, err := s.Profile(ctx, userID)
	if err != nil {
		return studyplan.Plan{}, err
	}
	current, err := s.currentScore(ctx, userID)
	if err != nil {
		return studyplan.Plan{}, err
	}
	return studyplan.Build(p, goalScore, weeks, current, s.now())
}

// Dashboard recomputes and returns the learner's analytics snapshot.
func (s *LearnerService) Dashboard(ctx context.Context, userID string) (analytics.Snapshot, error) {
	if err := requireUser(userID); err != nil {
		return analytics.Snapshot{}, err
	}
	return s.Refresh(ctx, userID)
}

// Refresh rebuilds the snapshot from the profile and completed attempts,
// carries the milestone log forward, saves it and publishes the score to
// the peer index.
func (s *LearnerService) Refresh(ctx context.Context, userID string) (analytics.Snapshot, error) {
	unlock := s.locks.Lock("snapshot:" + userID)
	defer unlock()

	p, err := s.loadProfile(ctx, userID)
	if err != nil {
		return analytics.Snapshot{}, err
	}
	attempts, err := s.attempts.ListCompleted(ctx, userID)
	if err != nil {
		return analytics.Snapshot{}, fmt.Errorf("load completed attempts: %w", err)
	}
	previous, err := s.snapshots.Latest(ctx, userID)
	if err != nil {
		return analytics.Snapshot{}, err
	}
	others, err := s.peers.Scores(ctx, userID)
	if err != nil {
		// Peer comparison degrades to the neutral percentile.
		s.logger.Warn("peer scores unavailable", "error", err)
		others = nil
	}

	now := s.now()
	targetDays := analytics.DefaultTargetDays
	if p.Goal != nil {
		if d := int(p.Goal.TargetDate.Sub(now).Hours() / 24); d > 0 {
			targetDays = d
		}
	}

	snap := analytics.Build(analytics.Input{
		Profile:    p,
		Attempts:   attempts,
		PeerScores: others,
		Previous:   previous,
		TargetDays: targetDays,
		Now:        now,
	})
	if err := s.snapshots.Save(ctx, snap); err != nil {
		return analytics.Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	if snap.Summary.Attempts > 0 {
		if err := s.peers.Record(ctx, userID, snap.CurrentScore); err != nil {
			s.logger.Warn("record peer score failed", "user_id", userID, "error", err)
		}
	}
	for _, m := range snap.NewMilestones {
		s.logger.Info("milestone reached", "user_id", userID, "milestone", m.Key())
	}
	return snap, nil
}

// currentScore is the latest completed attempt's total, or 0.
func (s *LearnerService) currentScore(ctx context.Context, userID string) (int, error) {
	attempts, err := s.attempts.ListCompleted(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load completed attempts: %w", err)
	}
	for i := len(attempts) - 1; i >= 0; i-- {
		if attempts[i].Result != nil {
			return attempts[i].Result.TotalScore, nil
		}
	}
	return 0, nil
}
