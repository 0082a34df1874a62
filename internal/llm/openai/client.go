package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/payslips-tracker/internal/llm"
)

// MapText implements llm.SchemaMapper with a single text-only chat completion.
func (c *Client) MapText(ctx context.Context, text string) (llm.PayslipFields, []byte, error) {
	rid := uuid.New().String()
	c.log.Info("llm.map_text.start",
		"req_id", rid,
		"model", c.cfg.TextModel,
		"text_len", len(text),
	)

	req := openai.ChatCompletionRequest{
		Model:       c.cfg.TextModel,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: llm.SchemaInstruction},
			{Role: openai.ChatMessageRoleUser, Content: llm.BuildUserPrompt(text, c.cfg.MaxPromptChars)},
		},
	}
	return c.complete(ctx, rid, "llm.map_text", req)
}

// ExtractDocument implements llm.VisionExtractor: instruction plus the inline document in one message.
func (c *Client) ExtractDocument(ctx context.Context, data []byte, mimeType string) (llm.PayslipFields, []byte, error) {
	rid := uuid.New().String()
	c.log.Info("llm.vision.start",
		"req_id", rid,
		"model", c.cfg.VisionModel,
		"mime", mimeType,
		"bytes", len(data),
	)

	req := openai.ChatCompletionRequest{
		Model:       c.cfg.VisionModel,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: llm.BuildVisionPrompt()},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    llm.DataURL(data, mimeType),
					Detail: openai.ImageURLDetailHigh,
				}},
			},
		}},
	}
	return c.complete(ctx, rid, "llm.vision", req)
}

func (c *Client) complete(ctx context.Context, rid, event string, req openai.ChatCompletionRequest) (llm.PayslipFields, []byte, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		mapped := mapError(err)
		c.log.Error(event+".http_error",
			"req_id", rid, "error", mapped,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.PayslipFields{}, nil, mapped
	}
	if len(resp.Choices) == 0 {
		c.log.Error(event+".no_choices",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.PayslipFields{}, nil, fmt.Errorf("%w: no choices in response", llm.ErrMalformedResponse)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	fields, raw, err := llm.DecodeFields(content, c.log)
	if err != nil {
		c.log.Error(event+".decode_failed",
			"req_id", rid, "error", err, "content_len", len(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.PayslipFields{}, raw, err
	}

	c.log.Info(event+".ok",
		"req_id", rid,
		"model", req.Model,
		"gross_pay", llm.Amount(fields.GrossPay),
		"net_pay", llm.Amount(fields.NetPay),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fields, raw, nil
}

func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return llm.StatusError(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		msg := ""
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return llm.StatusError(reqErr.HTTPStatusCode, msg)
	}
	return fmt.Errorf("model request failed: %w", err)
}
