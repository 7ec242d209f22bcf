// Package provider implements the chat completion adapter over an
// OpenAI-compatible API.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fitcoachhq/lead-funnel-go/internal/domain"
	"github.com/fitcoachhq/lead-funnel-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("provider")

// systemPrompt instructs the model to answer as the coaching assistant and
// to emit the structured reply contract. A model that ignores the contract
// still produces a usable plain-text reply; see parseReply.
const systemPrompt = `You are a friendly fitness coaching assistant for an online coaching business.
Keep answers short, encouraging and focused on helping the visitor pick a program.
Respond with a JSON object: {"message": "...", "type": "text"}.
Valid types: text, program_list, recommendation, nutrition_guide, lead_capture, workout_info.`

// Client calls an OpenAI-compatible chat completions endpoint. The HTTP
// client's timeout bounds each attempt; retries and the circuit breaker
// live here so callers only see the final outcome.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
	logger     *zap.Logger
}

// NewClient creates a completion client.
func NewClient(httpClient *http.Client, baseURL, apiKey, model string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, bulkhead *resilience.Bulkhead, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   bulkhead,
		logger:     logger,
	}
}

// --- wire format ---

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Send forwards the conversation to the completion API and returns the
// parsed structured reply. Errors surface as ErrExternalService after
// retries are exhausted; the caller owns any canned fallback.
func (c *Client) Send(ctx context.Context, history []domain.Message, newMessage string) (*domain.StructuredReply, domain.TokenUsage, error) {
	ctx, span := tracer.Start(ctx, "Provider.Send")
	defer span.End()
	span.SetAttributes(attribute.Int("history.len", len(history)))

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, domain.TokenUsage{}, &domain.ErrExternalService{Service: "provider", Err: err}
	}
	defer c.bulkhead.Release()

	payload := chatRequest{
		Model:       c.model,
		Messages:    buildMessages(history, newMessage),
		Temperature: 0.7,
	}

	var chatResp chatResponse

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(payload)
			if err != nil {
				return fmt.Errorf("marshal completion request: %w", err)
			}

			url := fmt.Sprintf("%s/v1/chat/completions", c.baseURL)
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("create http request: %w", err)
			}
			httpReq.Header.Set("Content-Type", "application/json")
			httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return fmt.Errorf("http call to provider: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("provider returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&chatResp)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return nil, nil
	})
	if err != nil {
		c.logger.Warn("provider: completion failed", zap.Error(err))
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, domain.TokenUsage{}, &domain.ErrCircuitOpen{Service: "provider"}
		}
		return nil, domain.TokenUsage{}, &domain.ErrExternalService{Service: "provider", Err: err}
	}

	if len(chatResp.Choices) == 0 {
		return nil, domain.TokenUsage{}, &domain.ErrExternalService{
			Service: "provider",
			Err:     fmt.Errorf("completion returned no choices"),
		}
	}

	usage := domain.TokenUsage{
		PromptTokens:     chatResp.Usage.PromptTokens,
		CompletionTokens: chatResp.Usage.CompletionTokens,
		TotalTokens:      chatResp.Usage.TotalTokens,
	}

	return parseReply(chatResp.Choices[0].Message.Content), usage, nil
}

// buildMessages prepends the system prompt and maps the transcript to the
// wire roles.
func buildMessages(history []domain.Message, newMessage string) []chatMessage {
	msgs := make([]chatMessage, 0, len(history)+2)
	msgs = append(msgs, chatMessage{Role: "system", Content: systemPrompt})

	for _, m := range history {
		role := "user"
		if m.Role == domain.RoleAssistant {
			role = "assistant"
		}
		msgs = append(msgs, chatMessage{Role: role, Content: m.Text})
	}

	msgs = append(msgs, chatMessage{Role: "user", Content: newMessage})
	return msgs
}

// parseReply decodes the model output. Models sometimes wrap JSON in code
// fences or ignore the contract entirely; both degrade to a plain text
// reply instead of an error.
func parseReply(content string) *domain.StructuredReply {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var reply domain.StructuredReply
	if err := json.Unmarshal([]byte(trimmed), &reply); err == nil && reply.Message != "" {
		if !validReplyType(reply.Type) {
			reply.Type = domain.ReplyText
		}
		return &reply
	}

	return &domain.StructuredReply{
		Message: content,
		Type:    domain.ReplyText,
	}
}

func validReplyType(t domain.ReplyType) bool {
	switch t {
	case domain.ReplyText, domain.ReplyProgramList, domain.ReplyRecommendation,
		domain.ReplyNutritionGuide, domain.ReplyLeadCapture, domain.ReplyWorkoutInfo:
		return true
	}
	return false
}
