package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/adaptest/internal/questionbank"
)

// QuestionRepo implements questionbank.Repository on the questions table.
type QuestionRepo struct {
	s *Store
}

var _ questionbank.Repository = (*QuestionRepo)(nil)

// Search returns one page of matching questions, least used first, and the
// total number of matches.
func (r *QuestionRepo) Search(ctx context.Context, f questionbank.Filter, limit, offset int) ([]questionbank.Question, int, error) {
	pred := questionPredicate(f)

	count := builder.Select(entsql.Count("*")).From(entsql.Table(questionsTable.Name))
	if pred != nil {
		count.Where(pred)
	}
	var total int
	if err := r.s.queryRow(ctx, count).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count questions: %w", err)
	}

	sel := builder.Select("data").
		From(entsql.Table(questionsTable.Name)).
		OrderBy("times_used", "created_at", "id")
	if pred != nil {
		sel.Where(pred)
	}
	if limit > 0 || offset > 0 {
		if limit <= 0 {
			limit = -1
		}
		sel.Limit(limit)
	}
	if offset > 0 {
		sel.Offset(offset)
	}

	rows, err := r.s.query(ctx, sel)
	if err != nil {
		return nil, 0, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	out, err := scanQuestions(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Get returns a question by ID, or ErrNotFound.
func (r *QuestionRepo) Get(ctx context.Context, id string) (*questionbank.Question, error) {
	var data string
	err := r.s.queryRow(ctx, builder.Select("data").
		From(entsql.Table(questionsTable.Name)).
		Where(entsql.EQ("id", id))).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("question %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	var q questionbank.Question
	if err := json.Unmarshal([]byte(data), &q); err != nil {
		return nil, fmt.Errorf("decode question %q: %w", id, err)
	}
	return &q, nil
}

// GetMany returns the questions with the given IDs. Unknown IDs are skipped.
func (r *QuestionRepo) GetMany(ctx context.Context, ids []string) ([]questionbank.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.s.query(ctx, builder.Select("data").
		From(entsql.Table(questionsTable.Name)).
		Where(entsql.In("id", anySlice(ids)...)))
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

// Save inserts or replaces a question.
func (r *QuestionRepo) Save(ctx context.Context, q *questionbank.Question) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encode question: %w", err)
	}
	tags := make([]string, len(q.Tags))
	for i, t := range q.Tags {
		tags[i] = strings.ToLower(t)
	}
	tagJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	err = r.s.exec(ctx, builder.Insert(questionsTable.Name).
		Columns("id", "section", "type", "difficulty", "topic", "tags", "official",
			"review_status", "quality", "times_used", "created_at", "data").
		Values(q.ID, string(q.Section), string(q.Type), q.Difficulty, strings.ToLower(q.Topic),
			string(tagJSON), q.IsOfficial, string(q.ReviewStatus), q.QualityScore(),
			q.Stats.TimesUsed, millis(q.CreatedAt), string(data)).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()))
	if err != nil {
		return fmt.Errorf("save question %q: %w", q.ID, err)
	}
	return nil
}

// RecordUsage folds one response into a question's usage statistics.
func (r *QuestionRepo) RecordUsage(ctx context.Context, id string, correct bool, timeSpentSecs float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	q, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	q.Stats = q.Stats.Record(correct, timeSpentSecs)
	return r.Save(ctx, q)
}

// UpdateReviewStatus moves a question through editorial review.
func (r *QuestionRepo) UpdateReviewStatus(ctx context.Context, id string, status questionbank.ReviewStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid review status %q", status)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	q, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	q.ReviewStatus = status
	return r.Save(ctx, q)
}

func questionPredicate(f questionbank.Filter) *entsql.Predicate {
	var preds []*entsql.Predicate
	if f.Section != "" {
		preds = append(preds, entsql.EQ("section", string(f.Section)))
	}
	if f.Type != "" {
		preds = append(preds, entsql.EQ("type", string(f.Type)))
	}
	if len(f.Difficulties) > 0 {
		preds = append(preds, entsql.In("difficulty", anySlice(f.Difficulties)...))
	}
	if f.Topic != "" {
		preds = append(preds, entsql.EQ("topic", strings.ToLower(f.Topic)))
	}
	if len(f.Tags) > 0 {
		args := make([]any, len(f.Tags))
		marks := make([]string, len(f.Tags))
		for i, t := range f.Tags {
			args[i] = strings.ToLower(t)
			marks[i] = "?"
		}
		preds = append(preds, entsql.ExprP(
			`EXISTS (SELECT 1 FROM json_each("tags") WHERE json_each.value IN (`+strings.Join(marks, ", ")+`))`,
			args...,
		))
	}
	if f.OfficialOnly {
		preds = append(preds, entsql.EQ("official", true))
	}
	if f.ReviewStatus != "" {
		preds = append(preds, entsql.EQ("review_status", string(f.ReviewStatus)))
	}
	if f.MinQuality > 0 {
		preds = append(preds, entsql.GTE("quality", f.MinQuality))
	}
	if len(f.ExcludeIDs) > 0 {
		preds = append(preds, entsql.NotIn("id", anySlice(f.ExcludeIDs)...))
	}
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	}
	return entsql.And(preds...)
}

func scanQuestions(rows *sql.Rows) ([]questionbank.Question, error) {
	var out []questionbank.Question
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var q questionbank.Question
		if err := json.Unmarshal([]byte(data), &q); err != nil {
			return nil, fmt.Errorf("decode question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func anySlice[T any](xs []T) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}
