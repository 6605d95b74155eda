package ollama

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

type options struct {
	Temperature   float64 `json:"temperature,omitempty"`
	TopP          float64 `json:"top_p,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
	NumCtx        int     `json:"num_ctx,omitempty"`
	NumPredict    int     `json:"num_predict,omitempty"`
}

type Client struct {
	endpoint   string
	model      string
	httpClient mealresolver.HTTPClient
	options    options
}

type ClientOpts struct {
	BaseEndpoint string
	ModelID      string
	Temperature  float64
	TopP         float64
	MaxTokens    int
	HTTPClient   mealresolver.HTTPClient
}

func NewClient(opts ClientOpts) (*Client, error) {
	if strings.TrimSpace(opts.ModelID) == "" {
		return nil, fmt.Errorf("invalid model id")
	}
	if opts.HTTPClient == nil {
		return nil, fmt.Errorf("http client is required")
	}

	o := options{
		Temperature:   0.2,
		TopP:          0.9,
		RepeatPenalty: 1.05,
		NumCtx:        8192,
		NumPredict:    opts.MaxTokens,
	}
	if opts.Temperature > 0 {
		o.Temperature = opts.Temperature
	}
	if opts.TopP > 0 {
		o.TopP = opts.TopP
	}

	return &Client{
		model:      opts.ModelID,
		httpClient: opts.HTTPClient,
		endpoint:   strings.TrimRight(opts.BaseEndpoint, "/") + "/api/chat",
		options:    o,
	}, nil
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireResponse struct {
	Message Message `json:"message"`
	// other metadata omitted but available
}

type wireRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Format   string    `json:"format,omitempty"`
	Stream   bool      `json:"stream"`
	Options  options   `json:"options,omitempty"`
}

// Complete sends the prompt to the Ollama chat API and returns the model's content verbatim.
func (c *Client) Complete(ctx context.Context, prompt mealresolver.Prompt) (string, error) {
	slog.Info("LLM_CLIENT: Invoked", "provider", "ollama", "model", c.model)

	reqBody := wireRequest{
		Model:    c.model,
		Messages: buildMessages(prompt),
		Format:   "json",
		Stream:   false,
		Options:  c.options,
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("LLM_CLIENT: %s: %s", resp.Status, string(body))
	}

	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		slog.Warn("LLM_CLIENT: decode failed, returning raw", "err", err, "body_len", len(body))
		return string(body), nil
	}

	return wr.Message.Content, nil
}

// buildMessages converts the prompt into Ollama chat messages, skipping empty parts.
func buildMessages(prompt mealresolver.Prompt) []Message {
	messages := make([]Message, 0, 2)
	if sp := strings.TrimSpace(prompt.System); sp != "" {
		messages = append(messages, Message{Role: "system", Content: sp})
	}
	messages = append(messages, Message{Role: "user", Content: prompt.User})
	return messages
}
