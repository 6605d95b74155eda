package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"mealresolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockHTTPClient struct {
	response *http.Response
	err      error
	requests []*http.Request
	bodies   []string
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.requests = append(m.requests, req)
	b, _ := io.ReadAll(req.Body)
	m.bodies = append(m.bodies, string(b))
	return m.response, m.err
}

func createMockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

var prompt = mealresolver.Prompt{System: "Return JSON.", User: "2 eggs"}

func TestClient_Complete(t *testing.T) {
	t.Run("sends chat request and returns first choice", func(t *testing.T) {
		hc := &mockHTTPClient{response: createMockResponse(http.StatusOK,
			`{"choices":[{"message":{"role":"assistant","content":"{\"items\":[]}"},"finish_reason":"stop"}],"usage":{"prompt_tokens":90,"completion_tokens":12}}`)}
		c := NewClient(ClientOpts{APIKey: "sk-test", BaseURL: "https://llm.example/v1/", HTTPClient: hc})

		got, err := c.Complete(context.Background(), prompt)
		require.NoError(t, err)
		assert.Equal(t, `{"items":[]}`, got)

		require.Len(t, hc.requests, 1)
		req := hc.requests[0]
		assert.Equal(t, "https://llm.example/v1/chat/completions", req.URL.String())
		assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))

		var sent chatRequest
		require.NoError(t, json.Unmarshal([]byte(hc.bodies[0]), &sent))
		assert.Equal(t, defaultModelID, sent.Model)
		assert.InDelta(t, 0.2, sent.Temperature, 1e-6)
		assert.Equal(t, []chatMessage{
			{Role: "system", Content: "Return JSON."},
			{Role: "user", Content: "2 eggs"},
		}, sent.Messages)
	})

	t.Run("no choices gives empty text", func(t *testing.T) {
		hc := &mockHTTPClient{response: createMockResponse(http.StatusOK, `{"choices":[]}`)}
		got, err := NewClient(ClientOpts{APIKey: "k", HTTPClient: hc}).Complete(context.Background(), prompt)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("missing key fails before any request", func(t *testing.T) {
		hc := &mockHTTPClient{}
		_, err := NewClient(ClientOpts{HTTPClient: hc}).Complete(context.Background(), prompt)
		assert.ErrorIs(t, err, mealresolver.ErrConfiguration)
		assert.Empty(t, hc.requests)
	})

	t.Run("non 200 status", func(t *testing.T) {
		hc := &mockHTTPClient{response: createMockResponse(http.StatusUnauthorized, `{"error":{"message":"bad key"}}`)}
		_, err := NewClient(ClientOpts{APIKey: "k", HTTPClient: hc}).Complete(context.Background(), prompt)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})

	t.Run("transport error", func(t *testing.T) {
		hc := &mockHTTPClient{err: errors.New("timeout")}
		_, err := NewClient(ClientOpts{APIKey: "k", HTTPClient: hc}).Complete(context.Background(), prompt)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to make request")
	})
}

func TestClient_CheckCredentials(t *testing.T) {
	err := NewClient(ClientOpts{APIKey: "  "}).CheckCredentials()
	assert.ErrorIs(t, err, mealresolver.ErrConfiguration)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	assert.NoError(t, NewClient(ClientOpts{APIKey: "k"}).CheckCredentials())
}
