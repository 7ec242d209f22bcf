package provider_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fitcoachhq/lead-funnel-go/internal/domain"
	"github.com/fitcoachhq/lead-funnel-go/internal/infra/provider"
	"github.com/fitcoachhq/lead-funnel-go/internal/infra/resilience"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *provider.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond}
	cb := resilience.NewCircuitBreaker("test-provider")
	bh := resilience.NewBulkhead(4)
	return provider.NewClient(srv.Client(), srv.URL, "test-key", "gpt-4o-mini", cb, cfg, bh, zap.NewNop())
}

func completionBody(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
		"usage": map[string]int{
			"prompt_tokens":     120,
			"completion_tokens": 40,
			"total_tokens":      160,
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestSend_ParsesStructuredReply(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("expected bearer auth, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody(`{"message":"Our plans start at $49/month.","type":"text"}`)))
	})

	reply, usage, err := client.Send(context.Background(), nil, "how much does it cost?")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if reply.Message != "Our plans start at $49/month." {
		t.Errorf("unexpected message: %q", reply.Message)
	}
	if reply.Type != domain.ReplyText {
		t.Errorf("expected text type, got %q", reply.Type)
	}
	if usage.TotalTokens != 160 {
		t.Errorf("expected 160 total tokens, got %d", usage.TotalTokens)
	}
}

func TestSend_ToleratesPlainTextContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("Sure! We have four programs to choose from.")))
	})

	reply, _, err := client.Send(context.Background(), nil, "what do you offer?")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if reply.Type != domain.ReplyText {
		t.Errorf("expected degraded text reply, got %q", reply.Type)
	}
	if reply.Message != "Sure! We have four programs to choose from." {
		t.Errorf("expected raw content preserved, got %q", reply.Message)
	}
}

func TestSend_StripsCodeFences(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("```json\n{\"message\":\"Hello!\",\"type\":\"text\"}\n```")))
	})

	reply, _, err := client.Send(context.Background(), nil, "hi")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if reply.Message != "Hello!" {
		t.Errorf("expected fenced JSON to parse, got %q", reply.Message)
	}
}

func TestSend_UnknownTypeDegradesToText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody(`{"message":"ok","type":"hologram"}`)))
	})

	reply, _, err := client.Send(context.Background(), nil, "hi")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if reply.Type != domain.ReplyText {
		t.Errorf("expected unknown type coerced to text, got %q", reply.Type)
	}
}

func TestSend_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody(`{"message":"recovered","type":"text"}`)))
	})

	reply, _, err := client.Send(context.Background(), nil, "hi")
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if reply.Message != "recovered" {
		t.Errorf("unexpected message: %q", reply.Message)
	}
}

func TestSend_ExhaustedRetriesReturnExternalError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, _, err := client.Send(context.Background(), nil, "hi")

	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if ext.Service != "provider" {
		t.Errorf("expected provider service tag, got %q", ext.Service)
	}
}

func TestSend_MapsHistoryRoles(t *testing.T) {
	var got struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody(`{"message":"ok","type":"text"}`)))
	})

	history := []domain.Message{
		{Role: domain.RoleUser, Text: "hi"},
		{Role: domain.RoleAssistant, Text: "hello!"},
	}

	if _, _, err := client.Send(context.Background(), history, "tell me more"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if len(got.Messages) != 4 {
		t.Fatalf("expected system + 2 history + new message, got %d", len(got.Messages))
	}
	if got.Messages[0].Role != "system" {
		t.Errorf("expected system prompt first, got %q", got.Messages[0].Role)
	}
	if got.Messages[2].Role != "assistant" {
		t.Errorf("expected assistant role preserved, got %q", got.Messages[2].Role)
	}
	if got.Messages[3].Content != "tell me more" {
		t.Errorf("expected new message last, got %q", got.Messages[3].Content)
	}
}
