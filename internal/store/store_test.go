package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/abhisek/adaptest/internal/analytics"
	"github.com/abhisek/adaptest/internal/exam"
	"github.com/abhisek/adaptest/internal/irt"
	"github.com/abhisek/adaptest/internal/profile"
	"github.com/abhisek/adaptest/internal/questionbank"
	"github.com/abhisek/adaptest/internal/sections"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var base = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range Tables {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table.Name,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table.Name, err)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	if err := s.ProfileRepo().Save(ctx, profile.New("u1", base)); err != nil {
		t.Fatalf("save: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.ProfileRepo().Get(ctx, "u1"); err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sc, err := newSequenceCounter(s.DB())
	if err != nil {
		t.Fatalf("new sequence counter: %v", err)
	}

	for i := 0; i < 5; i++ {
		seq, err := sc.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if want := int64(i + 1); seq != want {
			t.Errorf("seq[%d] = %d, want %d", i, seq, want)
		}
	}
}

func TestProfileRoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProfileRepo()
	ctx := context.Background()

	_, err := repo.Get(ctx, "nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("get missing: err = %v, want ErrNotFound", err)
	}

	p := profile.New("u1", base)
	p = profile.RecordAnswer(p, profile.AnswerInput{
		Section:    sections.Grammar,
		QuestionID: "q1",
		Topic:      "tenses",
		Difficulty: 3,
		Params:     irt.Params{A: 1, B: 0, C: 0.25},
		Correct:    false,
	}, base.Add(time.Minute))
	if err := repo.Save(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TotalAnswered != 1 {
		t.Errorf("total answered = %d, want 1", got.TotalAnswered)
	}
	if got.Ability(sections.Grammar) != p.Ability(sections.Grammar) {
		t.Errorf("grammar ability = %v, want %v", got.Ability(sections.Grammar), p.Ability(sections.Grammar))
	}
	if len(got.WeakTopics) != 1 || got.WeakTopics[0].Topic != "tenses" {
		t.Errorf("weak topics = %+v", got.WeakTopics)
	}

	p.TotalAnswered = 9
	if err := repo.Save(ctx, p); err != nil {
		t.Fatalf("resave: %v", err)
	}
	got, _ = repo.Get(ctx, "u1")
	if got.TotalAnswered != 9 {
		t.Errorf("after upsert total answered = %d, want 9", got.TotalAnswered)
	}
}

func seedQuestions(t *testing.T, repo *QuestionRepo) {
	t.Helper()
	qs := []questionbank.Question{
		{ID: "g1", Section: sections.Grammar, Type: questionbank.TypeMultipleChoice, Difficulty: 1, Topic: "Articles", Tags: []string{"Basics"}, ReviewStatus: questionbank.StatusApproved, IsOfficial: true, CreatedAt: base},
		{ID: "g2", Section: sections.Grammar, Type: questionbank.TypeFillInBlank, Difficulty: 3, Topic: "tenses", Tags: []string{"verbs", "past"}, ReviewStatus: questionbank.StatusApproved, CreatedAt: base.Add(time.Minute)},
		{ID: "g3", Section: sections.Grammar, Type: questionbank.TypeMultipleChoice, Difficulty: 5, Topic: "tenses", ReviewStatus: questionbank.StatusPending, CreatedAt: base.Add(2 * time.Minute),
			AI: &questionbank.Provenance{Provider: "openai", Model: "gpt-4o", QualityScore: 0.6}},
		{ID: "r1", Section: sections.Reading, Type: questionbank.TypeTrueFalse, Difficulty: 3, Topic: "inference", ReviewStatus: questionbank.StatusApproved, CreatedAt: base},
	}
	for i := range qs {
		if err := repo.Save(context.Background(), &qs[i]); err != nil {
			t.Fatalf("save %s: %v", qs[i].ID, err)
		}
	}
}

func ids(qs []questionbank.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}

func TestQuestionSearch(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuestionRepo()
	seedQuestions(t, repo)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter questionbank.Filter
		want   []string
	}{
		{"section", questionbank.Filter{Section: sections.Reading}, []string{"r1"}},
		{"difficulty set", questionbank.Filter{Section: sections.Grammar, Difficulties: []int{1, 5}}, []string{"g1", "g3"}},
		{"topic ignores case", questionbank.Filter{Topic: "ARTICLES"}, []string{"g1"}},
		{"tags any of", questionbank.Filter{Tags: []string{"past", "basics"}}, []string{"g1", "g2"}},
		{"official only", questionbank.Filter{OfficialOnly: true}, []string{"g1"}},
		{"review status", questionbank.Filter{ReviewStatus: questionbank.StatusPending}, []string{"g3"}},
		{"min quality", questionbank.Filter{Section: sections.Grammar, MinQuality: 0.8}, []string{"g1", "g2"}},
		{"type", questionbank.Filter{Type: questionbank.TypeFillInBlank}, []string{"g2"}},
		{"exclude", questionbank.Filter{Section: sections.Grammar, ExcludeIDs: []string{"g2"}}, []string{"g1", "g3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := repo.Search(ctx, tt.filter, 10, 0)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if total != len(tt.want) {
				t.Errorf("total = %d, want %d", total, len(tt.want))
			}
			gotIDs := ids(got)
			if len(gotIDs) != len(tt.want) {
				t.Fatalf("ids = %v, want %v", gotIDs, tt.want)
			}
			for i := range gotIDs {
				if gotIDs[i] != tt.want[i] {
					t.Errorf("ids = %v, want %v", gotIDs, tt.want)
					break
				}
			}
		})
	}
}

func TestQuestionSearchPaginates(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuestionRepo()
	seedQuestions(t, repo)

	page, total, err := repo.Search(context.Background(), questionbank.Filter{Section: sections.Grammar}, 2, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(page) != 1 || page[0].ID != "g3" {
		t.Errorf("page = %v, want [g3]", ids(page))
	}
}

func TestQuestionRecordUsage(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuestionRepo()
	seedQuestions(t, repo)
	ctx := context.Background()

	if err := repo.RecordUsage(ctx, "g1", true, 30); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := repo.RecordUsage(ctx, "g1", false, 60); err != nil {
		t.Fatalf("record: %v", err)
	}
	q, err := repo.Get(ctx, "g1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if q.Stats.TimesUsed != 2 || q.Stats.TimesCorrect != 1 {
		t.Errorf("stats = %+v", q.Stats)
	}
	if q.Stats.AvgResponseSecs != 45 {
		t.Errorf("avg response = %v, want 45", q.Stats.AvgResponseSecs)
	}

	// Least-used ordering now puts g1 last.
	got, _, _ := repo.Search(ctx, questionbank.Filter{Section: sections.Grammar}, 10, 0)
	if got[len(got)-1].ID != "g1" {
		t.Errorf("order = %v, want g1 last", ids(got))
	}

	if err := repo.RecordUsage(ctx, "missing", true, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing question: err = %v, want ErrNotFound", err)
	}
}

func TestQuestionUpdateReviewStatus(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuestionRepo()
	seedQuestions(t, repo)
	ctx := context.Background()

	if err := repo.UpdateReviewStatus(ctx, "g3", questionbank.StatusApproved); err != nil {
		t.Fatalf("update: %v", err)
	}
	_, total, _ := repo.Search(ctx, questionbank.Filter{ReviewStatus: questionbank.StatusPending}, 10, 0)
	if total != 0 {
		t.Errorf("pending after approval = %d, want 0", total)
	}
	if err := repo.UpdateReviewStatus(ctx, "g3", "bogus"); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestQuestionGetMany(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuestionRepo()
	seedQuestions(t, repo)

	got, err := repo.GetMany(context.Background(), []string{"r1", "g2", "nope"})
	if err != nil {
		t.Fatalf("get many: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %v, want r1 and g2", ids(got))
	}
}

func saveConfig(t *testing.T, s *Store) exam.Config {
	t.Helper()
	cfg := exam.FullConfig()
	cfg.ID = "cfg-full"
	cfg.CreatedAt = base
	if err := s.ConfigRepo().Save(context.Background(), cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	return cfg
}

func TestConfigFindByName(t *testing.T) {
	s := openTestStore(t)
	cfg := saveConfig(t, s)
	ctx := context.Background()

	got, err := s.ConfigRepo().FindByName(ctx, cfg.Name)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != cfg.ID || got.QuestionCount() != cfg.QuestionCount() {
		t.Errorf("config = %+v", got)
	}
	if _, err := s.ConfigRepo().FindByName(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: err = %v, want ErrNotFound", err)
	}
}

func TestAttemptListing(t *testing.T) {
	s := openTestStore(t)
	cfg := saveConfig(t, s)
	repo := s.AttemptRepo()
	ctx := context.Background()

	for i, status := range []exam.Status{exam.StatusCompleted, exam.StatusInProgress, exam.StatusCompleted, exam.StatusAbandoned} {
		a := exam.Attempt{
			ID:        "a" + string(rune('1'+i)),
			UserID:    "u1",
			ConfigID:  cfg.ID,
			Kind:      cfg.Kind,
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if status == exam.StatusCompleted {
			// a3 completes before a1.
			done := base.Add(time.Duration(10-i) * time.Hour)
			a.CompletedAt = &done
			a.Result = &exam.Result{TotalScore: 100 * (i + 1)}
		}
		if err := repo.Save(ctx, a); err != nil {
			t.Fatalf("save %s: %v", a.ID, err)
		}
	}

	all, err := repo.ListByUser(ctx, "u1", nil, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 4 || all[0].ID != "a4" {
		t.Errorf("list order wrong: first = %s, len = %d", all[0].ID, len(all))
	}

	active, _ := repo.ListByUser(ctx, "u1", []exam.Status{exam.StatusInProgress, exam.StatusPaused}, 0)
	if len(active) != 1 || active[0].ID != "a2" {
		t.Errorf("active = %+v", active)
	}

	done, err := repo.ListCompleted(ctx, "u1")
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	if len(done) != 2 || done[0].ID != "a3" || done[1].ID != "a1" {
		t.Errorf("completed order wrong: %+v", done)
	}
	if done[0].Result.TotalScore != 300 {
		t.Errorf("result not preserved: %+v", done[0].Result)
	}
}

func TestAttemptRequiresConfig(t *testing.T) {
	s := openTestStore(t)
	err := s.AttemptRepo().Save(context.Background(), exam.Attempt{ID: "x", UserID: "u1", ConfigID: "missing", CreatedAt: base})
	if err == nil {
		t.Fatal("expected foreign key violation")
	}
}

func TestSnapshotSaveAndLatest(t *testing.T) {
	s := openTestStore(t)
	repo := s.SnapshotRepo()
	ctx := context.Background()

	snap, err := repo.Latest(ctx, "u1")
	if err != nil {
		t.Fatalf("latest (empty): %v", err)
	}
	if snap != nil {
		t.Fatal("expected nil snapshot when none exist")
	}

	for i, score := range []int{320, 410} {
		err := repo.Save(ctx, analytics.Snapshot{
			UserID:       "u1",
			CurrentScore: score,
			Summary:      analytics.Summary{Current: score, Attempts: i + 1},
			RefreshedAt:  base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	snap, err = repo.Latest(ctx, "u1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if snap.CurrentScore != 410 {
		t.Errorf("current score = %d, want 410", snap.CurrentScore)
	}
}

func TestPeerScores(t *testing.T) {
	s := openTestStore(t)
	repo := s.SnapshotRepo()
	ctx := context.Background()

	peers := []analytics.Snapshot{
		{UserID: "u1", CurrentScore: 300, Summary: analytics.Summary{Attempts: 1}},
		{UserID: "u2", CurrentScore: 450, Summary: analytics.Summary{Attempts: 2}},
		{UserID: "u3", CurrentScore: 200, Summary: analytics.Summary{Attempts: 1}},
		{UserID: "u4", CurrentScore: 0},
	}
	for _, p := range peers {
		if err := repo.Save(ctx, p); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	got, err := repo.PeerScores(ctx, "u1")
	if err != nil {
		t.Fatalf("peer scores: %v", err)
	}
	if len(got) != 2 || got[0] != 200 || got[1] != 450 {
		t.Errorf("peer scores = %v, want [200 450]", got)
	}
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "openai", Model: "gpt-4o", Purpose: "question-gen", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true, RequestBody: "req"},
		{Provider: "openai", Model: "gpt-4o", Purpose: "question-gen", InputTokens: 300, OutputTokens: 150, LatencyMs: 400, Success: true},
		{Provider: "anthropic", Model: "claude-sonnet-4-20250514", Purpose: "explain", InputTokens: 10, OutputTokens: 5, LatencyMs: 100, ErrorMessage: "boom"},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	recent, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recent) != 2 || recent[0].Purpose != "explain" {
		t.Errorf("recent = %+v", recent)
	}
	if recent[0].Success {
		t.Error("failed request should not be marked successful")
	}

	after, _ := repo.QueryLLMEvents(ctx, QueryOpts{After: recent[1].Sequence})
	if len(after) != 1 {
		t.Errorf("after sequence %d: got %d events, want 1", recent[1].Sequence, len(after))
	}

	first, err := repo.GetLLMEvent(ctx, recent[1].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first == nil || first.InputTokens != 300 {
		t.Errorf("get = %+v", first)
	}
	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil || missing != nil {
		t.Errorf("missing event = %+v, %v", missing, err)
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("purposes = %+v", byPurpose)
	}
	qg := byPurpose[1]
	if qg.Purpose != "question-gen" || qg.Calls != 2 || qg.InputTokens != 400 || qg.OutputTokens != 200 || qg.AvgLatencyMs != 300 {
		t.Errorf("question-gen usage = %+v", qg)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 2 || byModel[1].Model != "gpt-4o" || byModel[1].Calls != 2 {
		t.Errorf("model usage = %+v", byModel)
	}
}

func TestAttemptEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, action := range []string{"create", "start", "complete"} {
		if err := repo.AppendAttemptEvent(ctx, AttemptEventData{AttemptID: "a1", UserID: "u1", Action: action}); err != nil {
			t.Fatalf("append %s: %v", action, err)
		}
	}
	_ = repo.AppendAttemptEvent(ctx, AttemptEventData{AttemptID: "a2", UserID: "u1", Action: "create"})

	got, err := repo.AttemptEvents(ctx, "a1")
	if err != nil {
		t.Fatalf("attempt events: %v", err)
	}
	if len(got) != 3 || got[0].Action != "create" || got[2].Action != "complete" {
		t.Errorf("events = %+v", got)
	}
	if got[0].Sequence >= got[1].Sequence {
		t.Error("sequence should increase")
	}
}
