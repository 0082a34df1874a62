// Package gemini reads payslips with Google Gemini multimodal models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/joseph-ayodele/payslips-tracker/internal/llm"
)

type Config struct {
	APIKey      string
	BaseURL     string // optional override, used by tests
	Model       string // default gemini-2.0-flash
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// Client implements llm.VisionExtractor.
type Client struct {
	cfg    Config
	models *genai.Models
	log    *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	cc := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{cfg: cfg, models: client.Models, log: logger}, nil
}

func (c *Client) ExtractDocument(ctx context.Context, data []byte, mimeType string) (llm.PayslipFields, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()
	c.log.Info("llm.vision.start",
		"req_id", rid,
		"provider", "gemini",
		"model", c.cfg.Model,
		"mime", mimeType,
		"bytes", len(data),
	)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(llm.BuildVisionPrompt()),
			genai.NewPartFromBytes(data, mimeType),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		MaxOutputTokens:  int32(c.cfg.MaxTokens),
		Temperature:      genai.Ptr(c.cfg.Temperature),
	}

	resp, err := c.models.GenerateContent(ctx, c.cfg.Model, contents, config)
	if err != nil {
		mapped := mapError(err)
		c.log.Error("llm.vision.http_error",
			"req_id", rid, "provider", "gemini", "error", mapped,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.PayslipFields{}, nil, mapped
	}

	fields, raw, err := llm.DecodeFields(resp.Text(), c.log)
	if err != nil {
		c.log.Error("llm.vision.decode_failed",
			"req_id", rid, "provider", "gemini", "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.PayslipFields{}, raw, err
	}
	c.log.Info("llm.vision.ok",
		"req_id", rid,
		"provider", "gemini",
		"gross_pay", llm.Amount(fields.GrossPay),
		"net_pay", llm.Amount(fields.NetPay),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fields, raw, nil
}

func mapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		return llm.StatusError(apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr.Code != 0 {
		return llm.StatusError(apiErrPtr.Code, apiErrPtr.Message)
	}
	return fmt.Errorf("gemini request failed: %w", err)
}
