package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func retryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		Multiplier:  2.0,
	}
}

var okResponse = MockResponse{Content: json.RawMessage(`{"ok":true}`)}

func TestRetry_TransientThenSuccess(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &Error{Kind: KindUnavailable, Err: errors.New("down")}},
		MockResponse{Err: &Error{Kind: KindRateLimited}},
		okResponse,
	)
	resp, err := WithRetry(mock, retryConfig()).Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"ok":true}` {
		t.Fatalf("content = %s", resp.Content)
	}
	if mock.CallCount() != 3 {
		t.Fatalf("calls = %d, want 3", mock.CallCount())
	}
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	down := MockResponse{Err: &Error{Kind: KindUnavailable}}
	mock := NewMockProvider(down, down, down, okResponse)

	_, err := WithRetry(mock, retryConfig()).Generate(context.Background(), Request{})
	if !IsKind(err, KindUnavailable) {
		t.Fatalf("err = %v, want unavailable", err)
	}
	if mock.CallCount() != 3 {
		t.Fatalf("calls = %d, want 3", mock.CallCount())
	}
}

func TestRetry_InvalidResponseRetriedOnce(t *testing.T) {
	bad := MockResponse{Err: &Error{Kind: KindInvalidResponse}}
	mock := NewMockProvider(bad, bad, okResponse)

	_, err := WithRetry(mock, retryConfig()).Generate(context.Background(), Request{})
	if !IsKind(err, KindInvalidResponse) {
		t.Fatalf("err = %v, want invalid response", err)
	}
	if mock.CallCount() != 2 {
		t.Fatalf("calls = %d, want 2", mock.CallCount())
	}
}

func TestRetry_NeverRetriesTruncation(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &Error{Kind: KindTruncated}}, okResponse)

	_, err := WithRetry(mock, retryConfig()).Generate(context.Background(), Request{})
	if !IsKind(err, KindTruncated) {
		t.Fatalf("err = %v, want truncated", err)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("calls = %d, want 1", mock.CallCount())
	}
}

func TestRetry_StopsOnCancelledContext(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: context.Canceled}, okResponse)

	_, err := WithRetry(mock, retryConfig()).Generate(context.Background(), Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("calls = %d, want 1", mock.CallCount())
	}
}

func TestRetry_BackoffHonoursRetryAfter(t *testing.T) {
	r := &RetryProvider{config: retryConfig()}
	if got := r.backoff(0, &Error{Kind: KindRateLimited, RetryAfter: 3 * time.Second}); got != 3*time.Second {
		t.Fatalf("backoff = %v, want 3s", got)
	}
	for attempt := range 10 {
		got := r.backoff(attempt, errors.New("x"))
		if got < 0 || got > 12*time.Millisecond {
			t.Fatalf("attempt %d: backoff %v outside jittered cap", attempt, got)
		}
	}
}

type slowProvider struct{}

func (slowProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowProvider) ModelID() string { return "slow" }

func TestWithTimeout(t *testing.T) {
	_, err := WithTimeout(slowProvider{}, 5*time.Millisecond).Generate(context.Background(), Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if p := WithTimeout(slowProvider{}, 0); p.ModelID() != "slow" {
		t.Fatal("zero timeout should return the provider unchanged")
	}
}
