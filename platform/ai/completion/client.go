// Package completion provides a chat-style request/response client over any
// ADK model.LLM. Callers build a Request with an optional inline image and get
// back the concatenated text of the model's reply.
package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// ErrEmptyResponse is returned when the model replied without any text.
var ErrEmptyResponse = errors.New("completion: empty response")

// Image is an inline image payload.
type Image struct {
	MIMEType string
	Data     []byte
}

// Request describes a single completion call.
type Request struct {
	System      string
	Prompt      string
	Image       *Image
	Temperature float32
	MaxTokens   int32
	JSON        bool
}

// Service is the completion contract consumed by the matching and listings
// packages.
type Service interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Client implements Service on top of an ADK model.LLM.
type Client struct {
	llm     model.LLM
	timeout time.Duration
}

// New creates a completion client. A zero timeout disables the per-call deadline.
func New(llm model.LLM, timeout time.Duration) *Client {
	return &Client{llm: llm, timeout: timeout}
}

// Complete sends the request and returns the reply text.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" && req.Image == nil {
		return "", fmt.Errorf("completion: empty request")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	llmReq := &model.LLMRequest{
		Model:    c.llm.Name(),
		Contents: []*genai.Content{buildUserContent(req)},
		Config:   buildConfig(req),
	}

	var output strings.Builder
	for resp, err := range c.llm.GenerateContent(ctx, llmReq, false) {
		if err != nil {
			return "", fmt.Errorf("completion: %s: %w", c.llm.Name(), err)
		}
		if resp == nil || resp.Content == nil {
			continue
		}
		for _, part := range resp.Content.Parts {
			if part != nil {
				output.WriteString(part.Text)
			}
		}
	}

	text := strings.TrimSpace(output.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func buildUserContent(req Request) *genai.Content {
	parts := make([]*genai.Part, 0, 2)
	if req.Image != nil && len(req.Image.Data) > 0 {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: req.Image.MIMEType,
				Data:     req.Image.Data,
			},
		})
	}
	if strings.TrimSpace(req.Prompt) != "" {
		parts = append(parts, genai.NewPartFromText(req.Prompt))
	}
	return &genai.Content{Role: genai.RoleUser, Parts: parts}
}

func buildConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: req.MaxTokens,
	}
	if strings.TrimSpace(req.System) != "" {
		cfg.SystemInstruction = &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText(req.System)},
		}
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

// ExtractJSON strips markdown code fences and any prose around the outermost
// JSON object in a model reply.
func ExtractJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```JSON")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		return trimmed[start : end+1]
	}
	return trimmed
}
