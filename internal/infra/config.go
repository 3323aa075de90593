package infra

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	Port              string
	OutputsDir        string
	OutputsBaseURL    string
	AssetsDir         string
	AllowedOrigins    []string
	AtlasAPIKey       string
	AtlasBaseURL      string
	AtlasModel        string
	AtlasMaxRetries   int
	AtlasStrictRatio  bool
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIVisionModel string
	OpenAIBaseURL     string
	OpenAIOrg         string
	AspectRatios      []string
	MaxConcurrentJobs int
	HTTPReadTimeout   time.Duration
	HTTPWriteTimeout  time.Duration
	HTTPIdleTimeout   time.Duration
	RateLimitPerMin   int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		OutputsDir:        getEnv("OUTPUTS_DIR", "./outputs"),
		OutputsBaseURL:    os.Getenv("OUTPUTS_BASE_URL"),
		AssetsDir:         getEnv("ASSETS_DIR", "./assets"),
		AllowedOrigins:    splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		AtlasAPIKey:       os.Getenv("ATLASCLOUD_API_KEY"),
		AtlasBaseURL:      getEnv("ATLASCLOUD_BASE_URL", "https://api.atlascloud.ai/api/v1"),
		AtlasModel:        getEnv("ATLASCLOUD_MODEL", "bytedance/seedream-v4"),
		AtlasMaxRetries:   getEnvInt("ATLASCLOUD_MAX_RETRIES", 3),
		AtlasStrictRatio:  getEnvBool("ATLASCLOUD_STRICT_ASPECT_RATIO", false),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4.1-nano"),
		OpenAIVisionModel: getEnv("OPENAI_VISION_MODEL", "gpt-4.1-nano"),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:         os.Getenv("OPENAI_ORG"),
		AspectRatios:      splitList(getEnv("ASPECT_RATIOS", "1:1")),
		MaxConcurrentJobs: getEnvInt("MAX_CONCURRENT_JOBS", 4),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.AtlasAPIKey == "" {
		return nil, fmt.Errorf("ATLASCLOUD_API_KEY is required")
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	if cfg.OutputsBaseURL == "" {
		cfg.OutputsBaseURL = fmt.Sprintf("http://localhost:%s/outputs", cfg.Port)
	}
	if _, err := url.Parse(cfg.OutputsBaseURL); err != nil {
		return nil, fmt.Errorf("OUTPUTS_BASE_URL is invalid: %w", err)
	}
	cfg.OutputsBaseURL = strings.TrimRight(cfg.OutputsBaseURL, "/")

	if len(cfg.AspectRatios) == 0 {
		cfg.AspectRatios = []string{"1:1"}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		items = append(items, part)
	}
	return items
}
