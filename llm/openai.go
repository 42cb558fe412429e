package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// OpenAIClient talks to an OpenAI-compatible /v1/chat/completions endpoint.
type OpenAIClient struct {
	Endpoint string
	APIKey   string
	Model    string

	client *http.Client
	logger *zap.Logger
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatChoice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type chatResponse struct {
	Choices []chatChoice   `json:"choices"`
	Usage   map[string]int `json:"usage"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewOpenAIClient builds a client with sane defaults. The endpoint should be
// the API root, e.g. https://api.openai.com; the completions path is appended.
func NewOpenAIClient(endpoint, apiKey, model string, logger *zap.Logger) *OpenAIClient {
	if endpoint == "" {
		endpoint = "https://api.openai.com"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIClient{
		Endpoint: strings.TrimRight(endpoint, "/"),
		APIKey:   apiKey,
		Model:    model,
		client: &http.Client{
			Timeout: 3 * time.Minute,
		},
		logger: logger,
	}
}

// Chat sends a chat completion request and returns the first choice.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message, opts *Options) (*Response, error) {
	payload := chatRequest{
		Model:    c.model(opts),
		Messages: messages,
	}
	if opts != nil {
		payload.Temperature = opts.Temperature
		payload.MaxTokens = opts.MaxTokens
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("chat request",
		zap.String("model", payload.Model),
		zap.Int("messages", len(payload.Messages)),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		detail := strings.TrimSpace(string(msg))
		if detail != "" {
			return nil, fmt.Errorf("generation service error: %s: %s", resp.Status, truncate(detail, 512))
		}
		return nil, fmt.Errorf("generation service error: %s", resp.Status)
	}
	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("generation service error: %s", decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("generation service returned no choices")
	}
	choice := decoded.Choices[0]
	c.logger.Debug("chat response",
		zap.String("finish_reason", choice.FinishReason),
		zap.Int("chars", len(choice.Message.Content)),
	)
	return &Response{
		Text:         choice.Message.Content,
		FinishReason: choice.FinishReason,
		Usage:        decoded.Usage,
	}, nil
}

func (c *OpenAIClient) getHTTPClient() *http.Client {
	if c.client != nil {
		return c.client
	}
	c.client = &http.Client{Timeout: 60 * time.Second}
	return c.client
}

func (c *OpenAIClient) model(opts *Options) string {
	if opts != nil && opts.Model != "" {
		return opts.Model
	}
	return c.Model
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
