package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/rivalscope/internal/domain/sentiment"
	"github.com/bryanwahyu/rivalscope/internal/infra/ai/prompt"
)

const (
	maxTokens    = 64
	defaultModel = "gpt-4o-mini"
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Timeout bounds a single completion call.
	Timeout time.Duration

	// The circuit opens after BreakerFailures failures within the last
	// BreakerWindow calls and stays open for BreakerDelay.
	BreakerFailures uint
	BreakerWindow   uint
	BreakerDelay    time.Duration

	Log logrus.FieldLogger
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.BreakerWindow == 0 {
		c.BreakerWindow = 10
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerFailures > c.BreakerWindow {
		c.BreakerFailures = c.BreakerWindow
	}
	if c.BreakerDelay <= 0 {
		c.BreakerDelay = 30 * time.Second
	}
	return c
}

type reply struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Client is the sentiment oracle backed by a chat completion model.
type Client struct {
	*openai.Client
	Model   string
	Timeout time.Duration
	breaker circuitbreaker.CircuitBreaker[reply]
}

func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	builder := circuitbreaker.NewBuilder[reply]().
		WithFailureThresholdRatio(cfg.BreakerFailures, cfg.BreakerWindow).
		WithDelay(cfg.BreakerDelay).
		WithSuccessThreshold(1)
	if cfg.Log != nil {
		log := cfg.Log
		builder = builder.OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			log.WithFields(logrus.Fields{
				"from": e.OldState,
				"to":   e.NewState,
			}).Warn("sentiment circuit breaker state change")
		})
	}

	return &Client{
		Client:  openai.NewClientWithConfig(oc),
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
		breaker: builder.Build(),
	}
}

// Score implements sentiment.Oracle.
func (c *Client) Score(ctx context.Context, text string) (sentiment.Label, float64, error) {
	r, err := failsafe.With[reply](c.breaker).WithContext(ctx).Get(func() (reply, error) {
		return c.complete(ctx, text)
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return sentiment.Neutral, 0, fmt.Errorf("%w: circuit open", sentiment.ErrUnavailable)
		}
		return sentiment.Neutral, 0, err
	}
	return sentiment.ParseLabel(strings.ToLower(strings.TrimSpace(r.Label))), r.Confidence, nil
}

// Check reports an open breaker without calling the API.
func (c *Client) Check(context.Context) error {
	if c.breaker.IsOpen() {
		return fmt.Errorf("%w: circuit open", sentiment.ErrUnavailable)
	}
	return nil
}

func (c *Client) complete(ctx context.Context, text string) (reply, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.Model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSentimentSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetSentimentUserPrompt(text)},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(c.Model) {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		if isQuota(err) {
			return reply{}, fmt.Errorf("%w: %v", sentiment.ErrQuotaExceeded, err)
		}
		return reply{}, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return reply{}, errors.New("empty completion")
	}

	var r reply
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &r); err != nil {
		return reply{}, fmt.Errorf("decode sentiment reply: %w", err)
	}
	return r, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func isQuota(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.Type == "insufficient_quota"
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}
