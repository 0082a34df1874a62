package openai

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Config for the OpenAI-compatible client.
type Config struct {
	APIKey         string        // injected from LLM_API_KEY
	BaseURL        string        // default https://api.openai.com/v1
	TextModel      string        // e.g., "gpt-4o-mini"
	VisionModel    string        // e.g., "gpt-4o"
	MaxTokens      int           // default 1000
	Temperature    float32       // 0..2
	Timeout        time.Duration // per request
	MaxPromptChars int
}

type Client struct {
	cfg Config
	api *openai.Client
	log *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.TextModel == "" {
		cfg.TextModel = "gpt-4o-mini"
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = "gpt-4o"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Client{
		cfg: cfg,
		api: openai.NewClientWithConfig(oc),
		log: logger,
	}
}
