package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"
)

func newTestAnthropicProvider(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := anthropic.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(server.URL),
		option.WithMaxRetries(0),
	)
	return &AnthropicProvider{client: &client, model: "claude-haiku-4-5-20251001"}
}

func anthropicReply(text, stop string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"content":     []map[string]any{{"type": "text", "text": text}},
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": stop,
			"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
		})
	}
}

func TestAnthropicProvider_StructuredOutput(t *testing.T) {
	p := newTestAnthropicProvider(t, anthropicReply(`{"x":3,"y":4}`, "end_turn"))

	resp, err := p.Generate(context.Background(), Request{
		System:    "You write exam questions.",
		Messages:  UserPrompt("Give me a point."),
		Schema:    pointSchema,
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.InputTokens != 50 || resp.Usage.TotalTokens != 80 {
		t.Fatalf("usage = %+v", resp.Usage)
	}
	if resp.StopReason != StopEnd {
		t.Fatalf("stop reason = %q", resp.StopReason)
	}
}

func TestAnthropicProvider_SchemaMismatch(t *testing.T) {
	p := newTestAnthropicProvider(t, anthropicReply(`{"x":"three"}`, "end_turn"))
	_, err := p.Generate(context.Background(), Request{Messages: UserPrompt("x"), Schema: pointSchema, MaxTokens: 64})
	if !IsKind(err, KindInvalidResponse) {
		t.Fatalf("err = %v, want invalid response", err)
	}
}

func TestAnthropicProvider_Truncated(t *testing.T) {
	p := newTestAnthropicProvider(t, anthropicReply(`{"x":3,`, "max_tokens"))
	_, err := p.Generate(context.Background(), Request{Messages: UserPrompt("x"), Schema: pointSchema, MaxTokens: 4})
	if !IsKind(err, KindTruncated) {
		t.Fatalf("err = %v, want truncated", err)
	}
}

func TestAnthropicProvider_RateLimit(t *testing.T) {
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "rate_limit_error", "message": "slow down"},
		})
	})
	_, err := p.Generate(context.Background(), Request{Messages: UserPrompt("x"), MaxTokens: 16})
	if !IsKind(err, KindRateLimited) {
		t.Fatalf("err = %v, want rate limited", err)
	}
}

func newTestChatProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return newChatProvider("test-key", server.URL+"/v1", "gpt-4o-mini")
}

func chatReply(content, finish string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1234567890,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": finish,
			}},
			"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
		})
	}
}

func TestOpenAIProvider_SendsSchemaAndSystem(t *testing.T) {
	var got struct {
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
		ResponseFormat *struct {
			JSONSchema struct {
				Name string `json:"name"`
			} `json:"json_schema"`
		} `json:"response_format"`
	}
	p := newTestChatProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		chatReply(`{"x":1,"y":2}`, "stop")(w, r)
	})

	resp, err := p.Generate(context.Background(), Request{
		System:    "system prompt",
		Messages:  UserPrompt("hi"),
		Schema:    pointSchema,
		MaxTokens: 128,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.TotalTokens != 65 || resp.Model != "gpt-4o-mini" {
		t.Fatalf("response = %+v", resp)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("messages = %+v", got.Messages)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.JSONSchema.Name != "test-point" {
		t.Fatalf("response format = %+v", got.ResponseFormat)
	}
}

func TestOpenAIProvider_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   ErrorKind
	}{
		{"rate limit", http.StatusTooManyRequests, KindRateLimited},
		{"server error", http.StatusBadGateway, KindUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestChatProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"message": "nope", "type": "error"},
				})
			})
			_, err := p.Generate(context.Background(), Request{Messages: UserPrompt("x")})
			if !IsKind(err, tt.want) {
				t.Fatalf("err = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	p := newTestChatProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	})
	_, err := p.Generate(context.Background(), Request{Messages: UserPrompt("x")})
	if !IsKind(err, KindInvalidResponse) {
		t.Fatalf("err = %v, want invalid response", err)
	}
}

func TestNewOpenRouterProvider(t *testing.T) {
	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or-test", Model: "google/gemini-2.5-flash"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "google/gemini-2.5-flash" {
		t.Errorf("model = %q", p.ModelID())
	}
	if _, err := NewOpenRouterProvider(OpenRouterConfig{Model: "x"}); err == nil {
		t.Fatal("expected error for empty API key")
	}
}

func TestGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt":  map[string]any{"type": "string", "description": "question stem"},
			"tier":    map[string]any{"type": "integer"},
			"section": map[string]any{"type": "string", "enum": []string{"grammar", "reading"}},
			"options": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string"},
				"minItems": 2,
			},
		},
		"required": []any{"prompt", "tier"},
	}

	s := geminiSchema(def)
	if len(s.Properties) != 4 {
		t.Fatalf("properties = %d, want 4", len(s.Properties))
	}
	if s.Properties["prompt"].Description != "question stem" {
		t.Errorf("description lost")
	}
	if s.Properties["tier"].Type != "INTEGER" {
		t.Errorf("tier type = %q", s.Properties["tier"].Type)
	}
	if strings.Join(s.Properties["section"].Enum, ",") != "grammar,reading" {
		t.Errorf("enum = %v", s.Properties["section"].Enum)
	}
	opts := s.Properties["options"]
	if opts.Items == nil || opts.MinItems == nil || *opts.MinItems != 2 {
		t.Errorf("array schema = %+v", opts)
	}
	if strings.Join(s.Required, ",") != "prompt,tier" {
		t.Errorf("required = %v", s.Required)
	}
}
