package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOllamaChatSendsMessages(t *testing.T) {
	client := NewOllamaClient("http://fake", "test-model", nil)
	client.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) *http.Response {
			assert.Equal(t, "/api/chat", req.URL.Path)
			var payload map[string]interface{}
			assert.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
			assert.Equal(t, "test-model", payload["model"])
			assert.Equal(t, false, payload["stream"])
			msgs, ok := payload["messages"].([]interface{})
			assert.True(t, ok)
			assert.Len(t, msgs, 2)
			return &http.Response{
				StatusCode: 200,
				Body: io.NopCloser(strings.NewReader(
					`{"message":{"role":"assistant","content":"hello"},"done_reason":"stop","eval_count":5,"prompt_eval_count":11}`,
				)),
			}
		}),
	}

	resp, err := client.Chat(context.Background(), []Message{
		System("you are a test"),
		User("hi"),
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, "hello", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 5, resp.Usage["completion_tokens"])
	assert.Equal(t, 11, resp.Usage["prompt_tokens"])
}

func TestOllamaChatSurfacesHTTPError(t *testing.T) {
	client := NewOllamaClient("http://fake", "test-model", nil)
	client.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) *http.Response {
			return &http.Response{
				StatusCode: 500,
				Body:       io.NopCloser(strings.NewReader(`{"error":"model not loaded"}`)),
			}
		}),
	}

	_, err := client.Chat(context.Background(), []Message{User("hi")}, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestOllamaChatRejectsEmptyMessage(t *testing.T) {
	client := NewOllamaClient("http://fake", "test-model", nil)
	client.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) *http.Response {
			return &http.Response{
				StatusCode: 200,
				Body:       io.NopCloser(strings.NewReader(`{"done_reason":"stop"}`)),
			}
		}),
	}

	_, err := client.Chat(context.Background(), []Message{User("hi")}, nil)
	assert.Error(t, err)
}

func TestOllamaOptionsMapToNumPredict(t *testing.T) {
	client := NewOllamaClient("http://fake", "default-model", nil)
	client.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) *http.Response {
			var payload map[string]interface{}
			assert.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
			assert.Equal(t, "override", payload["model"])
			options, ok := payload["options"].(map[string]interface{})
			assert.True(t, ok)
			assert.InDelta(t, 0.5, options["temperature"], 1e-9)
			assert.EqualValues(t, 128, options["num_predict"])
			return &http.Response{
				StatusCode: 200,
				Body: io.NopCloser(strings.NewReader(
					`{"message":{"role":"assistant","content":"ok"}}`,
				)),
			}
		}),
	}

	resp, err := client.Chat(context.Background(), []Message{User("hi")},
		&Options{Model: "override", Temperature: 0.5, MaxTokens: 128})
	assert.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
}
