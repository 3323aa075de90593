// Package atlas wraps the AtlasCloud text-to-image API behind a synchronous
// Generate call. Each call submits a prediction, polls it to completion and
// downloads the resulting image.
package atlas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"easyads/internal/infra"

	_ "image/jpeg"
	_ "image/png"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("atlas: api key is required")

// Pixel sizes submitted to the provider per supported aspect ratio.
var aspectRatioSizes = map[string]string{
	"1:1":  "2048*2048",
	"9:16": "1152*2048",
	"16:9": "2048*1152",
	"3:2":  "2048*1365",
	"4:3":  "2048*1536",
	"2:3":  "1365*2048",
}

const (
	defaultModel            = "bytedance/seedream-v4"
	defaultBaseURL          = "https://api.atlascloud.ai/api/v1"
	defaultMaxRetries       = 3
	defaultPollInterval     = 2 * time.Second
	defaultMaxWait          = 300 * time.Second
	defaultRateLimitBackoff = 30 * time.Second
	defaultRetryBaseDelay   = time.Second
)

// Options configures the AtlasCloud client.
type Options struct {
	APIKey            string
	BaseURL           string
	Model             string
	HTTPClient        *http.Client
	Logger            *infra.Logger
	MaxRetries        int
	PollInterval      time.Duration
	MaxWait           time.Duration
	RateLimitBackoff  time.Duration
	RetryBaseDelay    time.Duration
	StrictAspectRatio bool
}

// Client performs HTTP calls to the AtlasCloud prediction API.
type Client struct {
	apiKey           string
	baseURL          string
	model            string
	httpClient       *http.Client
	logger           *infra.Logger
	maxRetries       int
	pollInterval     time.Duration
	maxWait          time.Duration
	rateLimitBackoff time.Duration
	retryBaseDelay   time.Duration
	strictRatio      bool
}

// Image is the normalized result of a generation call.
type Image struct {
	Data   []byte
	Format string
	Width  int
	Height int
	URL    string
}

type submitRequest struct {
	Model              string `json:"model"`
	EnableBase64Output bool   `json:"enable_base64_output"`
	EnableSyncMode     bool   `json:"enable_sync_mode"`
	Prompt             string `json:"prompt"`
	Size               string `json:"size"`
}

type submitResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Data    struct {
		ID string `json:"id"`
	} `json:"data"`
}

type predictionResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Data    struct {
		ID      string   `json:"id"`
		Status  string   `json:"status"`
		Outputs []string `json:"outputs"`
		Error   string   `json:"error"`
	} `json:"data"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	c := &Client{
		apiKey:           strings.TrimSpace(opts.APIKey),
		baseURL:          baseURL,
		model:            model,
		httpClient:       httpClient,
		logger:           logger,
		maxRetries:       opts.MaxRetries,
		pollInterval:     opts.PollInterval,
		maxWait:          opts.MaxWait,
		rateLimitBackoff: opts.RateLimitBackoff,
		retryBaseDelay:   opts.RetryBaseDelay,
		strictRatio:      opts.StrictAspectRatio,
	}
	if c.maxRetries <= 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.pollInterval <= 0 {
		c.pollInterval = defaultPollInterval
	}
	if c.maxWait <= 0 {
		c.maxWait = defaultMaxWait
	}
	if c.rateLimitBackoff <= 0 {
		c.rateLimitBackoff = defaultRateLimitBackoff
	}
	if c.retryBaseDelay <= 0 {
		c.retryBaseDelay = defaultRetryBaseDelay
	}
	return c
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Generate runs one full submit/poll/fetch cycle, retrying transient
// failures up to the configured attempt budget. Unknown aspect ratios fall
// back to 1:1 unless the client was built in strict mode.
func (c *Client) Generate(ctx context.Context, prompt, aspectRatio string) (*Image, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("atlas: prompt is required")
	}
	size, ok := aspectRatioSizes[aspectRatio]
	if !ok {
		if c.strictRatio {
			return nil, fmt.Errorf("atlas: unsupported aspect ratio %q", aspectRatio)
		}
		c.logger.Warn().Str("aspect_ratio", aspectRatio).Msg("atlas: unknown aspect ratio, defaulting to 1:1")
		aspectRatio = "1:1"
		size = aspectRatioSizes[aspectRatio]
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		img, err := c.attempt(ctx, prompt, size, aspectRatio, attempt)
		if err == nil {
			return img, nil
		}
		lastErr = err

		var genErr *GenerationError
		if errors.As(err, &genErr) && genErr.Kind == KindTimeout {
			return nil, genErr
		}

		switch Classify(err.Error()) {
		case KindSensitiveContent:
			return nil, &GenerationError{
				Kind:    KindSensitiveContent,
				Message: "content flagged as sensitive, review the campaign brief",
			}
		case KindInvalidCredentials:
			return nil, &GenerationError{Kind: KindInvalidCredentials, Message: "invalid api token"}
		case KindRateLimited:
			if attempt == c.maxRetries-1 {
				return nil, &GenerationError{Kind: KindRateLimited, Message: "retry budget exhausted while rate limited"}
			}
			c.logger.Warn().Dur("backoff", c.rateLimitBackoff).Msg("atlas: rate limited, backing off")
			if err := sleepCtx(ctx, c.rateLimitBackoff); err != nil {
				return nil, err
			}
		default:
			if attempt == c.maxRetries-1 {
				return nil, &GenerationError{Kind: KindUnknown, Message: err.Error()}
			}
			delay := c.retryBaseDelay << attempt
			c.logger.Warn().Err(err).Int("attempt", attempt+1).Dur("backoff", delay).Msg("atlas: generation failed, retrying")
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, err
			}
		}
	}
	return nil, &GenerationError{Kind: KindUnknown, Message: lastErr.Error()}
}

func (c *Client) attempt(ctx context.Context, prompt, size, aspectRatio string, attempt int) (*Image, error) {
	start := time.Now()
	predictionID, err := c.submit(ctx, prompt, size)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().
		Str("prediction_id", predictionID).
		Str("aspect_ratio", aspectRatio).
		Int("attempt", attempt+1).
		Msg("atlas: prediction submitted")

	resultURL, err := c.poll(ctx, predictionID)
	if err != nil {
		return nil, err
	}

	img, err := c.fetch(ctx, resultURL)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().
		Str("prediction_id", predictionID).
		Dur("elapsed", time.Since(start)).
		Int("width", img.Width).
		Int("height", img.Height).
		Msg("atlas: generated image")
	return img, nil
}

func (c *Client) submit(ctx context.Context, prompt, size string) (string, error) {
	payload := submitRequest{
		Model:  c.model,
		Prompt: prompt,
		Size:   size,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("atlas: encode request: %w", err)
	}
	endpoint := c.baseURL + "/model/generateImage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("atlas: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("atlas: submit request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("atlas: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("atlas: submit status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded submitResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("atlas: decode response: %w", err)
	}
	if msg := apiError(decoded.Code, decoded.Error, decoded.Message); msg != "" {
		return "", fmt.Errorf("atlas: api error: %s", msg)
	}
	if decoded.Data.ID == "" {
		return "", errors.New("atlas: empty prediction id")
	}
	return decoded.Data.ID, nil
}

// poll fetches the prediction until it reaches a terminal status or the wait
// budget elapses. Transport-level faults are treated as transient and retried
// at the poll interval without consuming a top-level attempt.
func (c *Client) poll(ctx context.Context, predictionID string) (string, error) {
	endpoint := fmt.Sprintf("%s/model/prediction/%s", c.baseURL, predictionID)
	start := time.Now()
	for {
		if elapsed := time.Since(start); elapsed > c.maxWait {
			return "", &GenerationError{
				Kind:    KindTimeout,
				Message: fmt.Sprintf("generation timed out after %s", c.maxWait),
			}
		}

		result, err := c.fetchPrediction(ctx, endpoint)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			c.logger.Warn().Err(err).Str("prediction_id", predictionID).Msg("atlas: poll request failed, retrying")
			if err := sleepCtx(ctx, c.pollInterval); err != nil {
				return "", err
			}
			continue
		}
		if msg := apiError(result.Code, result.Error, result.Message); msg != "" {
			return "", fmt.Errorf("atlas: api error: %s", msg)
		}

		switch result.Data.Status {
		case "completed":
			if len(result.Data.Outputs) == 0 {
				return "", errors.New("atlas: no outputs in completed result")
			}
			return result.Data.Outputs[0], nil
		case "failed":
			msg := result.Data.Error
			if msg == "" {
				msg = "generation failed"
			}
			return "", fmt.Errorf("atlas: %s", msg)
		default:
			if err := sleepCtx(ctx, c.pollInterval); err != nil {
				return "", err
			}
		}
	}
}

func (c *Client) fetchPrediction(ctx context.Context, endpoint string) (*predictionResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("atlas: build poll request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("atlas: poll request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("atlas: read poll response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("atlas: poll status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var decoded predictionResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("atlas: decode poll response: %w", err)
	}
	return &decoded, nil
}

func (c *Client) fetch(ctx context.Context, imageURL string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("atlas: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("atlas: download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("atlas: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("atlas: read image: %w", err)
	}
	format := resp.Header.Get("Content-Type")
	if format == "" {
		format = "image/png"
	}
	img := &Image{Data: data, Format: format, URL: imageURL}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		img.Width, img.Height = cfg.Width, cfg.Height
	}
	return img, nil
}

func apiError(code int, errText, message string) string {
	if errText != "" {
		return errText
	}
	if code != 0 && code != 200 {
		if message != "" {
			return message
		}
		return fmt.Sprintf("code %d", code)
	}
	return ""
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
