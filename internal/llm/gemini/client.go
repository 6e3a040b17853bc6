// Package gemini implements llm.Generator on Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/joseph-ayodele/exam-grader/internal/llm"
)

type Client struct {
	cfg    Config
	client *genai.Client
	logger *slog.Logger
}

// NewClient dials the Gemini API once; the client is shared for the process lifetime.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini: api key is empty")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if logger == nil {
		logger = slog.Default()
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(strings.TrimSpace(cfg.APIKey)))
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &Client{cfg: cfg, client: cl, logger: logger}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Generate sends the page images followed by the instruction and returns the
// first text part of the response. It performs no retries.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) ([]byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	schema, err := ToGenaiSchema(req.Schema)
	if err != nil {
		return nil, fmt.Errorf("gemini: convert schema: %w", err)
	}

	m := c.client.GenerativeModel(c.cfg.Model)
	temp := c.cfg.Temperature
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	parts := make([]genai.Part, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, genai.Blob{MIMEType: img.MIMEType(), Data: img.Data})
	}
	parts = append(parts, genai.Text(req.Instruction))

	c.logger.Debug("gemini.generate.request",
		"req_id", rid,
		"model", c.cfg.Model,
		"images", len(req.Images),
	)

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		c.logger.Error("gemini.generate.error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("gemini: generate: %w", err)
	}

	txt := firstText(resp)
	if txt == "" {
		return nil, fmt.Errorf("gemini: empty response (finish reason %s)", finishReason(resp))
	}

	c.logger.Debug("gemini.generate.response",
		"req_id", rid,
		"bytes", len(txt),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return []byte(txt), nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func finishReason(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "none"
	}
	return fmt.Sprint(resp.Candidates[0].FinishReason)
}
