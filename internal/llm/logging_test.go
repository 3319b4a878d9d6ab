package llm

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abhisek/adaptest/internal/store"
)

func TestLoggingProvider_RecordsEvents(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "llm.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"x":1,"y":2}`), Usage: Usage{InputTokens: 12, OutputTokens: 8}},
		MockResponse{Err: &Error{Kind: KindUnavailable, Err: errors.New("down")}},
	)
	p := WithLogging(mock, s.EventRepo(), nil)
	ctx := WithPurpose(context.Background(), PurposeQuestionGen)

	if _, err := p.Generate(ctx, Request{System: "sys", Messages: UserPrompt("make one"), Schema: pointSchema}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := p.Generate(ctx, Request{Messages: UserPrompt("again")}); err == nil {
		t.Fatal("expected error from second call")
	}

	events, err := s.EventRepo().QueryLLMEvents(context.Background(), store.QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}

	failed, ok := events[0], events[1]
	if failed.Success || !strings.Contains(failed.ErrorMessage, "down") {
		t.Errorf("failed event = %+v", failed)
	}
	if !ok.Success || ok.Purpose != PurposeQuestionGen || ok.InputTokens != 12 || ok.Model != "mock" {
		t.Errorf("ok event = %+v", ok)
	}
	if !strings.Contains(ok.RequestBody, "[system]\nsys") || !strings.Contains(ok.RequestBody, "[schema: test-point]") {
		t.Errorf("request body = %q", ok.RequestBody)
	}
	if ok.ResponseBody != `{"x":1,"y":2}` {
		t.Errorf("response body = %q", ok.ResponseBody)
	}
}
