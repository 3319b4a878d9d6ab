package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorKind classifies provider failures for retry decisions.
type ErrorKind int

const (
	// KindUnavailable covers outages, 5xx and transport failures.
	KindUnavailable ErrorKind = iota
	// KindRateLimited is a 429 from the provider.
	KindRateLimited
	// KindInvalidResponse means the output did not match the schema.
	KindInvalidResponse
	// KindTruncated means structured output hit MaxTokens.
	KindTruncated
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate limited"
	case KindInvalidResponse:
		return "invalid response"
	case KindTruncated:
		return "truncated"
	}
	return "unavailable"
}

// Error is returned by every provider adapter.
type Error struct {
	Kind       ErrorKind
	RetryAfter time.Duration   // rate limits only
	Content    json.RawMessage // offending output, when there is one
	Err        error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "llm: " + e.Kind.String()
	}
	return fmt.Sprintf("llm: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// fromStatus maps an SDK error carrying an HTTP status code.
func fromStatus(status int, err error) error {
	if status == http.StatusTooManyRequests {
		return &Error{Kind: KindRateLimited, Err: err}
	}
	return &Error{Kind: KindUnavailable, Err: err}
}

func invalidResponse(raw json.RawMessage, format string, args ...any) error {
	return &Error{Kind: KindInvalidResponse, Content: raw, Err: fmt.Errorf(format, args...)}
}
