package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/adaptest/internal/profile"
)

// ProfileRepo persists learner profiles, one row per user.
type ProfileRepo struct {
	s *Store
}

// Get returns the learner's profile, or ErrNotFound.
func (r *ProfileRepo) Get(ctx context.Context, userID string) (*profile.Profile, error) {
	var data string
	err := r.s.queryRow(ctx, builder.Select("data").
		From(entsql.Table(profilesTable.Name)).
		Where(entsql.EQ("user_id", userID))).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %q: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	var p profile.Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("decode profile %q: %w", userID, err)
	}
	return &p, nil
}

// Save inserts or replaces the learner's profile.
func (r *ProfileRepo) Save(ctx context.Context, p profile.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	err = r.s.exec(ctx, builder.Insert(profilesTable.Name).
		Columns("user_id", "updated_at", "data").
		Values(p.UserID, millis(p.UpdatedAt), string(data)).
		OnConflict(entsql.ConflictColumns("user_id"), entsql.ResolveWithNewValues()))
	if err != nil {
		return fmt.Errorf("save profile %q: %w", p.UserID, err)
	}
	return nil
}
