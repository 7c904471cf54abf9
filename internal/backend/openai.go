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

// openAIAPIURL is the Chat Completions endpoint. Package-level var for test substitution.
var openAIAPIURL = "https://api.openai.com/v1/chat/completions"

// OpenAIBackend calls the OpenAI Chat Completions API with a strict
// json_schema response format.
type OpenAIBackend struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxTokens  int
	MaxRetries int
	UserAgent  string
	Client     *http.Client
}

type openAIRequest struct {
	Model          string               `json:"model"`
	Messages       []openAIMessage      `json:"messages"`
	MaxTokens      int                  `json:"max_tokens"`
	ResponseFormat openAIResponseFormat `json:"response_format"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type       string           `json:"type"`
	JSONSchema openAIJSONSchema `json:"json_schema"`
}

type openAIJSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
}

type openAIChoice struct {
	Message struct {
		Content *string `json:"content"`
		Refusal *string `json:"refusal"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// Name implements Backend.
func (o *OpenAIBackend) Name() string { return string(types.BackendOpenAI) }

// Convert sends html to the model and parses the structured reply.
func (o *OpenAIBackend) Convert(ctx context.Context, html string) (types.ConversionResult, error) {
	prompt, err := renderPrompt(html)
	if err != nil {
		return types.ConversionResult{}, fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := openAIRequest{
		Model: o.Model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens: o.MaxTokens,
		ResponseFormat: openAIResponseFormat{
			Type: "json_schema",
			JSONSchema: openAIJSONSchema{
				Name:   schemaName,
				Strict: true,
				Schema: responseSchema,
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return types.ConversionResult{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, orDefault(o.BaseURL, openAIAPIURL), bytes.NewReader(bodyBytes))
	if err != nil {
		return types.ConversionResult{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.APIKey)
	if o.UserAgent != "" {
		req.Header.Set("User-Agent", o.UserAgent)
	}

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, o.MaxRetries)
	if err != nil {
		return types.ConversionResult{}, fmt.Errorf("calling OpenAI API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.ConversionResult{}, readAPIError("OpenAI", resp)
	}

	var oResp openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&oResp); err != nil {
		return types.ConversionResult{}, fmt.Errorf("decoding OpenAI response: %w", err)
	}

	if len(oResp.Choices) == 0 {
		return types.ConversionResult{}, fmt.Errorf("%w: no choices in OpenAI response", ErrMalformedResponse)
	}

	choice := oResp.Choices[0]
	if choice.Message.Refusal != nil && *choice.Message.Refusal != "" {
		return types.ConversionResult{}, fmt.Errorf("%w: %s", ErrRefused, *choice.Message.Refusal)
	}
	if choice.FinishReason == "length" {
		return types.ConversionResult{}, fmt.Errorf("%w (%d tokens)", ErrTruncated, o.MaxTokens)
	}
	if choice.Message.Content == nil {
		return types.ConversionResult{}, fmt.Errorf("%w: empty message content", ErrMalformedResponse)
	}

	return parseStructured([]byte(*choice.Message.Content))
}
