// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/html2md/internal/httputil"
	"github.com/pdiddy/html2md/pkg/types"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// ClaudeBackend calls the Claude Messages API. The response shape is enforced
// by forcing a single tool call whose input schema is the structured result.
type ClaudeBackend struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxTokens  int
	MaxRetries int
	UserAgent  string
	Client     *http.Client
}

type claudeRequest struct {
	Model      string           `json:"model"`
	MaxTokens  int              `json:"max_tokens"`
	System     string           `json:"system"`
	Messages   []claudeMessage  `json:"messages"`
	Tools      []claudeTool     `json:"tools"`
	ToolChoice claudeToolChoice `json:"tool_choice"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type claudeToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type claudeResponse struct {
	Content    []claudeContent `json:"content"`
	StopReason string          `json:"stop_reason"`
}

// claudeContent is a content block in the Claude API response. Input is set
// on tool_use blocks, Text on text blocks.
type claudeContent struct {
	Type  string          `json:"type"`
	Text  string          `json:"text"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// Name implements Backend.
func (c *ClaudeBackend) Name() string { return string(types.BackendClaude) }

// Convert sends html to Claude and reads the forced tool call's input.
func (c *ClaudeBackend) Convert(ctx context.Context, html string) (types.ConversionResult, error) {
	prompt, err := renderPrompt(html)
	if err != nil {
		return types.ConversionResult{}, fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := claudeRequest{
		Model:     c.Model,
		MaxTokens: c.MaxTokens,
		System:    systemPrompt,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt},
		},
		Tools: []claudeTool{{
			Name:        schemaName,
			Description: "Record the Markdown conversion of the document's main content.",
			InputSchema: responseSchema,
		}},
		ToolChoice: claudeToolChoice{Type: "tool", Name: schemaName},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return types.ConversionResult{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, orDefault(c.BaseURL, claudeAPIURL), bytes.NewReader(bodyBytes))
	if err != nil {
		return types.ConversionResult{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		return types.ConversionResult{}, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.ConversionResult{}, readAPIError("Claude", resp)
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return types.ConversionResult{}, fmt.Errorf("decoding Claude response: %w", err)
	}

	if cResp.StopReason == "max_tokens" {
		return types.ConversionResult{}, fmt.Errorf("%w (%d tokens)", ErrTruncated, c.MaxTokens)
	}
	if cResp.StopReason == "refusal" {
		return types.ConversionResult{}, ErrRefused
	}

	for _, block := range cResp.Content {
		if block.Type == "tool_use" && block.Name == schemaName {
			return parseStructured(block.Input)
		}
	}

	return types.ConversionResult{}, fmt.Errorf("%w: no %s tool call in Claude response", ErrMalformedResponse, schemaName)
}
