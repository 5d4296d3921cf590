// Package openai implements the completion client against the OpenAI chat
// completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"nutricoach"
)

const (
	defaultEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultModelID  = "gpt-4o-mini"

	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
)

type options struct {
	MaxTokens   int32   `json:"max_tokens,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
	TopP        float32 `json:"top_p,omitempty"`
}

type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient nutricoach.HTTPClient
	options    options
}

type ClientOpts struct {
	Endpoint    string
	APIKey      string
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
	HTTPClient  nutricoach.HTTPClient
}

func NewClient(opts ClientOpts) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("missing API key")
	}
	if opts.Endpoint == "" {
		opts.Endpoint = defaultEndpoint
	}
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Client{
		endpoint:   opts.Endpoint,
		apiKey:     opts.APIKey,
		model:      opts.ModelID,
		httpClient: opts.HTTPClient,
		options: options{
			MaxTokens:   opts.MaxTokens,
			Temperature: opts.Temperature,
			TopP:        opts.TopP,
		},
	}, nil
}

type wireRequest struct {
	Model       string               `json:"model"`
	Messages    []nutricoach.Message `json:"messages"`
	MaxTokens   int32                `json:"max_tokens,omitempty"`
	Temperature float32              `json:"temperature,omitempty"`
	TopP        float32              `json:"top_p,omitempty"`
}

type wireResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	// other metadata omitted but available
}

// Complete sends the messages to the chat completions endpoint and returns
// the first choice's content verbatim. Parsing decisions (JSON vs prose) are
// delegated to the caller.
func (c *Client) Complete(ctx context.Context, messages []nutricoach.Message) (string, error) {
	slog.Info("LLM_CLIENT: Invoked", "messages_len", len(messages))

	reqBody := wireRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.options.MaxTokens,
		Temperature: c.options.Temperature,
		TopP:        c.options.TopP,
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
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

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
		return "", fmt.Errorf("LLM_CLIENT: decode failed: %w", err)
	}

	if len(wr.Choices) == 0 || wr.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("LLM_CLIENT: no completion content in response")
	}

	content := wr.Choices[0].Message.Content
	slog.Info("LLM_CLIENT: Completion received", "content_len", len(content))
	return content, nil
}
