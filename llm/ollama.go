package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// OllamaClient talks to a local Ollama server. It implements Client so the
// workflow can run against a local model instead of a hosted one.
type OllamaClient struct {
	Endpoint string
	Model    string
	client   *http.Client
	logger   *zap.Logger
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Message         *ollamaChatMessage `json:"message"`
	DoneReason      string             `json:"done_reason"`
	EvalCount       int                `json:"eval_count"`
	PromptEvalCount int                `json:"prompt_eval_count"`
}

// NewOllamaClient builds a new Ollama client.
func NewOllamaClient(endpoint, model string, logger *zap.Logger) *OllamaClient {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OllamaClient{
		Endpoint: endpoint,
		Model:    model,
		client: &http.Client{
			Timeout: 3 * time.Minute,
		},
		logger: logger,
	}
}

// Chat implements Client via the non-streaming /api/chat endpoint.
func (c *OllamaClient) Chat(ctx context.Context, messages []Message, opts *Options) (*Response, error) {
	msgs := make([]ollamaChatMessage, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, ollamaChatMessage{Role: m.Role, Content: m.Content})
	}
	payload := map[string]interface{}{
		"model":    c.model(opts),
		"messages": msgs,
		"stream":   false,
	}
	c.applyOptions(payload, opts)
	return c.doRequest(ctx, "/api/chat", payload)
}

func (c *OllamaClient) doRequest(ctx context.Context, path string, payload map[string]interface{}) (*Response, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+path, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ollama %s returned %d: %s", path, resp.StatusCode, truncate(string(body), 512))
	}

	var parsed ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}
	if parsed.Message == nil {
		return nil, fmt.Errorf("ollama %s returned no message", path)
	}

	c.logger.Debug("ollama chat complete",
		zap.String("model", c.model(nil)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("eval_count", parsed.EvalCount),
	)
	return &Response{
		Text:         parsed.Message.Content,
		FinishReason: parsed.DoneReason,
		Usage: map[string]int{
			"prompt_tokens":     parsed.PromptEvalCount,
			"completion_tokens": parsed.EvalCount,
		},
	}, nil
}

// applyOptions maps generic options into Ollama's options block.
func (c *OllamaClient) applyOptions(payload map[string]interface{}, opts *Options) {
	if opts == nil {
		return
	}
	options := map[string]interface{}{
		"temperature": opts.Temperature,
	}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}
	payload["options"] = options
}

func (c *OllamaClient) getHTTPClient() *http.Client {
	if c.client == nil {
		c.client = &http.Client{Timeout: 3 * time.Minute}
	}
	return c.client
}

func (c *OllamaClient) model(opts *Options) string {
	if opts != nil && opts.Model != "" {
		return opts.Model
	}
	if c.Model != "" {
		return c.Model
	}
	return "llama3"
}
