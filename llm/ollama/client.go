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

	"nutricoach"
)

const (
	defaultModelID      = "llama3.2"
	defaultSystemPrompt = "You are a friendly and professional nutritionist."
)

type options struct {
	Temperature   float64 `json:"temperature,omitempty"`
	TopP          float64 `json:"top_p,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
	NumPredict    int     `json:"num_predict,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  options   `json:"options,omitempty"`
}

type wireResponse struct {
	Message    message `json:"message"`
	DoneReason string  `json:"done_reason"`
	// other metadata omitted but available
}

// Client implements nutricoach.TextGenerator against the Ollama chat API.
type Client struct {
	endpoint     string
	model        string
	systemPrompt string
	httpClient   nutricoach.HTTPClient
	options      options
}

type ClientOpts struct {
	BaseEndpoint string
	ModelID      string
	SystemPrompt string
	Temperature  float64
	TopP         float64
	MaxTokens    int
	HTTPClient   nutricoach.HTTPClient
}

func NewClient(opts ClientOpts) (*Client, error) {
	if strings.TrimSpace(opts.BaseEndpoint) == "" {
		return nil, fmt.Errorf("ollama endpoint is required")
	}
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = defaultSystemPrompt
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Client{
		model:        opts.ModelID,
		systemPrompt: opts.SystemPrompt,
		httpClient:   opts.HTTPClient,
		endpoint:     strings.TrimRight(opts.BaseEndpoint, "/") + "/api/chat",
		options: options{
			Temperature:   opts.Temperature,
			TopP:          opts.TopP,
			RepeatPenalty: 1.05,
			NumPredict:    opts.MaxTokens,
		},
	}, nil
}

func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	slog.Info("LLM_CLIENT: Invoked", "provider", "ollama", "model", c.model, "prompt_len", len(prompt))

	reqBody := wireRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: c.systemPrompt},
			{Role: "user", Content: prompt},
		},
		Stream:  false,
		Options: c.options,
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
		return "", fmt.Errorf("ollama returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return "", fmt.Errorf("failed to decode ollama response: %w", err)
	}

	if strings.TrimSpace(wr.Message.Content) == "" {
		diag := ""
		if wr.DoneReason != "" {
			diag = "done reason: " + wr.DoneReason
		}
		return "", &nutricoach.NoContentError{Diagnostic: diag}
	}

	slog.Info("LLM_CLIENT: Ollama invoke succeeded", "done_reason", wr.DoneReason, "text_len", len(wr.Message.Content))
	return wr.Message.Content, nil
}
