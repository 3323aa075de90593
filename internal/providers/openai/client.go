// Package openai is a thin client for OpenAI-compatible chat completion
// endpoints. It serves both text generation (brand names, campaign messages,
// prompt optimization) and vision analysis of generated banners.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultModel   = "gpt-4.1-nano"
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 60 * time.Second
)

// Options configures the chat completion client.
type Options struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
	HTTPClient   *http.Client
}

// Client performs HTTP calls to a chat completion endpoint.
type Client struct {
	apiKey       string
	model        string
	baseURL      string
	organization string
	httpClient   *http.Client
}

// ImageAttachment is an inline image passed alongside a prompt.
type ImageAttachment struct {
	Data []byte
	MIME string
}

// CompletionRequest captures one chat completion call.
type CompletionRequest struct {
	System      string
	Prompt      string
	Images      []ImageAttachment
	Temperature float64
	MaxTokens   int
	JSONMode    bool
}

// Completer is the consumer-side contract for chat completion calls.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature,omitempty"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	ResponseFormat *chatFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewClient constructs a client with sane defaults.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai: api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:       strings.TrimSpace(opts.APIKey),
		model:        model,
		baseURL:      baseURL,
		organization: strings.TrimSpace(opts.Organization),
		httpClient:   httpClient,
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Complete sends one chat completion request and returns the raw assistant text.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	payload := chatRequest{
		Model:       c.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONMode {
		payload.ResponseFormat = &chatFormat{Type: "json_object"}
	}
	if req.System != "" {
		payload.Messages = append(payload.Messages, chatMessage{Role: "system", Content: req.System})
	}
	payload.Messages = append(payload.Messages, chatMessage{Role: "user", Content: userContent(req)})

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("openai: encode request: %w", err)
	}
	endpoint := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", c.organization)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai: read response: %w", err)
	}
	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("openai: %s (%s)", decoded.Error.Message, decoded.Error.Type)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("openai: empty choices in response")
	}
	return decoded.Choices[0].Message.Content, nil
}

// userContent renders the user message either as a plain string or, when
// images are attached, as the multi-part content array the vision models
// expect, with images inlined as data URLs.
func userContent(req CompletionRequest) any {
	if len(req.Images) == 0 {
		return req.Prompt
	}
	parts := []chatContentPart{{Type: "text", Text: req.Prompt}}
	for _, img := range req.Images {
		mime := img.MIME
		if mime == "" {
			mime = "image/png"
		}
		encoded := base64.StdEncoding.EncodeToString(img.Data)
		parts = append(parts, chatContentPart{
			Type:     "image_url",
			ImageURL: &chatImageURL{URL: fmt.Sprintf("data:%s;base64,%s", mime, encoded)},
		})
	}
	return parts
}

var _ Completer = (*Client)(nil)
