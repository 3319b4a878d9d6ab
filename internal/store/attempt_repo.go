package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/adaptest/internal/exam"
)

// AttemptRepo persists exam attempts.
type AttemptRepo struct {
	s *Store
}

// Get returns an attempt by ID, or ErrNotFound.
func (r *AttemptRepo) Get(ctx context.Context, id string) (*exam.Attempt, error) {
	var data string
	err := r.s.queryRow(ctx, builder.Select("data").
		From(entsql.Table(attemptsTable.Name)).
		Where(entsql.EQ("id", id))).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("attempt %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	var a exam.Attempt
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return nil, fmt.Errorf("decode attempt %q: %w", id, err)
	}
	return &a, nil
}

// Save inserts or replaces an attempt.
func (r *AttemptRepo) Save(ctx context.Context, a exam.Attempt) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode attempt: %w", err)
	}

	var completedAt, totalScore any
	if a.CompletedAt != nil {
		completedAt = millis(*a.CompletedAt)
	}
	if a.Result != nil {
		totalScore = a.Result.TotalScore
	}

	err = r.s.exec(ctx, builder.Insert(attemptsTable.Name).
		Columns("id", "user_id", "config_id", "status", "created_at", "completed_at", "total_score", "data").
		Values(a.ID, a.UserID, a.ConfigID, string(a.Status), millis(a.CreatedAt), completedAt, totalScore, string(data)).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()))
	if err != nil {
		return fmt.Errorf("save attempt %q: %w", a.ID, err)
	}
	return nil
}

// ListByUser returns the learner's attempts, newest first. An empty statuses
// list matches every status; limit 0 means no limit.
func (r *AttemptRepo) ListByUser(ctx context.Context, userID string, statuses []exam.Status, limit int) ([]exam.Attempt, error) {
	sel := builder.Select("data").
		From(entsql.Table(attemptsTable.Name)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))
	if len(statuses) > 0 {
		names := make([]any, len(statuses))
		for i, st := range statuses {
			names[i] = string(st)
		}
		sel.Where(entsql.In("status", names...))
	}
	if limit > 0 {
		sel.Limit(limit)
	}
	return r.list(ctx, sel)
}

// ListCompleted returns the learner's scored attempts in completion order.
func (r *AttemptRepo) ListCompleted(ctx context.Context, userID string) ([]exam.Attempt, error) {
	return r.list(ctx, builder.Select("data").
		From(entsql.Table(attemptsTable.Name)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("status", string(exam.StatusCompleted)),
			entsql.NotNull("total_score"),
		)).
		OrderBy("completed_at"))
}

func (r *AttemptRepo) list(ctx context.Context, sel *entsql.Selector) ([]exam.Attempt, error) {
	rows, err := r.s.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []exam.Attempt
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		var a exam.Attempt
		if err := json.Unmarshal([]byte(data), &a); err != nil {
			return nil, fmt.Errorf("decode attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ConfigRepo persists exam configs.
type ConfigRepo struct {
	s *Store
}

// Get returns a config by ID, or ErrNotFound.
func (r *ConfigRepo) Get(ctx context.Context, id string) (*exam.Config, error) {
	return r.getBy(ctx, entsql.EQ("id", id), id)
}

// FindByName returns the config with the given name, or ErrNotFound.
func (r *ConfigRepo) FindByName(ctx context.Context, name string) (*exam.Config, error) {
	return r.getBy(ctx, entsql.EQ("name", name), name)
}

func (r *ConfigRepo) getBy(ctx context.Context, p *entsql.Predicate, key string) (*exam.Config, error) {
	var data string
	err := r.s.queryRow(ctx, builder.Select("data").
		From(entsql.Table(examConfigsTable.Name)).
		Where(p)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("exam config %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get exam config: %w", err)
	}
	var c exam.Config
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("decode exam config %q: %w", key, err)
	}
	return &c, nil
}

// Save inserts or replaces a config.
func (r *ConfigRepo) Save(ctx context.Context, c exam.Config) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode exam config: %w", err)
	}
	err = r.s.exec(ctx, builder.Insert(examConfigsTable.Name).
		Columns("id", "name", "kind", "created_at", "data").
		Values(c.ID, c.Name, string(c.Kind), millis(c.CreatedAt), string(data)).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()))
	if err != nil {
		return fmt.Errorf("save exam config %q: %w", c.ID, err)
	}
	return nil
}
