package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"mealresolver"
)

const (
	defaultEndpoint    = "https://api.openai.com/v1"
	defaultModelID     = "gpt-4o-mini"
	defaultTemperature = 0.2
)

type Client struct {
	apiKey      string
	endpoint    string
	model       string
	temperature float32
	maxTokens   int32
	httpClient  mealresolver.HTTPClient
}

type ClientOpts struct {
	APIKey      string
	BaseURL     string
	ModelID     string
	Temperature float32
	MaxTokens   int32
	HTTPClient  mealresolver.HTTPClient
}

func NewClient(opts ClientOpts) *Client {
	c := &Client{
		apiKey:      opts.APIKey,
		endpoint:    strings.TrimRight(opts.BaseURL, "/"),
		model:       opts.ModelID,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		httpClient:  opts.HTTPClient,
	}
	if c.endpoint == "" {
		c.endpoint = defaultEndpoint
	}
	c.endpoint += "/chat/completions"
	if c.model == "" {
		c.model = defaultModelID
	}
	if c.temperature == 0 {
		c.temperature = defaultTemperature
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	return c
}

func (c *Client) CheckCredentials() error {
	if strings.TrimSpace(c.apiKey) == "" {
		return mealresolver.MissingCredential("OPENAI_API_KEY")
	}
	return nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int32         `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete sends one system and one user message to the chat completions endpoint.
// An empty choice list yields empty text, which the extractor treats as unparsable.
func (c *Client) Complete(ctx context.Context, prompt mealresolver.Prompt) (string, error) {
	if err := c.CheckCredentials(); err != nil {
		return "", err
	}

	slog.Info("LLM_CLIENT: Invoked", "provider", "openai", "model", c.model)

	reqBytes, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completion failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	slog.Info("LLM_CLIENT: OpenAI invoke succeeded",
		"choices", len(cr.Choices),
		"input_tokens", cr.Usage.PromptTokens,
		"output_tokens", cr.Usage.CompletionTokens,
	)

	if len(cr.Choices) == 0 {
		return "", nil
	}
	return cr.Choices[0].Message.Content, nil
}
