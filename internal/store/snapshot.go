package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/adaptest/internal/analytics"
)

// SnapshotRepo keeps the latest analytics snapshot per learner.
type SnapshotRepo struct {
	s *Store
}

// Save replaces the learner's snapshot.
func (r *SnapshotRepo) Save(ctx context.Context, snap analytics.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot data: %w", err)
	}
	err = r.s.exec(ctx, builder.Insert(snapshotsTable.Name).
		Columns("user_id", "current_score", "attempts", "refreshed_at", "data").
		Values(snap.UserID, snap.CurrentScore, snap.Summary.Attempts, millis(snap.RefreshedAt), string(data)).
		OnConflict(entsql.ConflictColumns("user_id"), entsql.ResolveWithNewValues()))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Latest returns the learner's most recent snapshot, or nil if none exists.
func (r *SnapshotRepo) Latest(ctx context.Context, userID string) (*analytics.Snapshot, error) {
	var data string
	err := r.s.queryRow(ctx, builder.Select("data").
		From(entsql.Table(snapshotsTable.Name)).
		Where(entsql.EQ("user_id", userID))).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}

	var snap analytics.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot data: %w", err)
	}
	return &snap, nil
}

// PeerScores returns the current score of every other learner with at least
// one scored attempt.
func (r *SnapshotRepo) PeerScores(ctx context.Context, excludeUserID string) ([]int, error) {
	rows, err := r.s.query(ctx, builder.Select("current_score").
		From(entsql.Table(snapshotsTable.Name)).
		Where(entsql.And(
			entsql.NEQ("user_id", excludeUserID),
			entsql.GT("attempts", 0),
		)).
		OrderBy("current_score"))
	if err != nil {
		return nil, fmt.Errorf("query peer scores: %w", err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var score int
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("scan peer score: %w", err)
		}
		out = append(out, score)
	}
	return out, rows.Err()
}
