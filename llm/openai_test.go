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

type roundTripFunc func(*http.Request) *http.Response

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

func TestChatSendsMessagesAndAuth(t *testing.T) {
	client := NewOpenAIClient("http://fake", "secret", "test-model", nil)
	client.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) *http.Response {
			assert.Equal(t, "/v1/chat/completions", req.URL.Path)
			assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
			var payload chatRequest
			assert.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
			assert.Equal(t, "test-model", payload.Model)
			assert.Len(t, payload.Messages, 2)
			assert.Equal(t, "system", payload.Messages[0].Role)
			return &http.Response{
				StatusCode: 200,
				Body: io.NopCloser(strings.NewReader(
					`{"choices":[{"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}],"usage":{"total_tokens":3}}`,
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
	assert.Equal(t, 3, resp.Usage["total_tokens"])
}

func TestChatSurfacesHTTPError(t *testing.T) {
	client := NewOpenAIClient("http://fake", "", "test-model", nil)
	client.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) *http.Response {
			return &http.Response{
				StatusCode: 401,
				Status:     "401 Unauthorized",
				Body:       io.NopCloser(strings.NewReader(`{"error":{"message":"bad key"}}`)),
			}
		}),
	}

	_, err := client.Chat(context.Background(), []Message{User("hi")}, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestChatOptionsOverrideModel(t *testing.T) {
	client := NewOpenAIClient("http://fake", "", "default-model", nil)
	client.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) *http.Response {
			var payload chatRequest
			assert.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
			assert.Equal(t, "override", payload.Model)
			assert.InDelta(t, 0.5, payload.Temperature, 1e-9)
			return &http.Response{
				StatusCode: 200,
				Body: io.NopCloser(strings.NewReader(
					`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`,
				)),
			}
		}),
	}

	resp, err := client.Chat(context.Background(), []Message{User("hi")}, &Options{Model: "override", Temperature: 0.5})
	assert.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
}
