// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package backend converts one HTML document to Markdown. The API backends ask
// a language model for a structured response holding a single
// markdown_content field; the local and markitdown backends convert without a
// remote service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/html2md/internal/container"
	"github.com/pdiddy/html2md/pkg/types"
)

const (
	defaultOpenAIModel = "gpt-4o-mini"
	defaultClaudeModel = "claude-sonnet-4-5-20250929"
	defaultMaxTokens   = 16384

	// errorBodyLimit bounds how much of a failed API response is quoted in errors.
	errorBodyLimit = 2048
)

var (
	// ErrMalformedResponse reports a response that does not match the
	// {"markdown_content": string} shape.
	ErrMalformedResponse = errors.New("response does not match the expected structure")

	// ErrTruncated reports a response cut off at the max_tokens ceiling.
	ErrTruncated = errors.New("response truncated at max_tokens limit")

	// ErrRefused reports that the model declined the request.
	ErrRefused = errors.New("model refused the request")

	// ErrMissingAPIKey reports an API backend configured without credentials.
	ErrMissingAPIKey = errors.New("API key not configured")
)

// Backend converts HTML to Markdown. Implementations must be safe for
// concurrent use; the orchestrator shares one Backend across workers.
type Backend interface {
	// Name identifies the backend in logs and reports.
	Name() string

	// Convert returns the Markdown conversion of html.
	Convert(ctx context.Context, html string) (types.ConversionResult, error)
}

// Options carries the process-scoped collaborators shared by backends.
type Options struct {
	// Client is used by the API backends. Nil means http.DefaultClient.
	Client *http.Client

	// UserAgent is sent with API requests when non-empty.
	UserAgent string

	// Runtime runs the markitdown container. Nil means detect docker or podman.
	Runtime container.Runtime
}

// New builds the backend selected by cfg.Backend. An empty selection means openai.
func New(ctx context.Context, cfg types.AIConfig, opts Options) (Backend, error) {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	switch cfg.Backend {
	case types.BackendOpenAI, "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai backend: %w", ErrMissingAPIKey)
		}
		return &OpenAIBackend{
			APIKey:     cfg.APIKey,
			Model:      orDefault(cfg.Model, defaultOpenAIModel),
			BaseURL:    cfg.BaseURL,
			MaxTokens:  maxTokens,
			MaxRetries: cfg.MaxRetries,
			UserAgent:  opts.UserAgent,
			Client:     opts.Client,
		}, nil

	case types.BackendClaude:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("claude backend: %w", ErrMissingAPIKey)
		}
		return &ClaudeBackend{
			APIKey:     cfg.APIKey,
			Model:      orDefault(cfg.Model, defaultClaudeModel),
			BaseURL:    cfg.BaseURL,
			MaxTokens:  maxTokens,
			MaxRetries: cfg.MaxRetries,
			UserAgent:  opts.UserAgent,
			Client:     opts.Client,
		}, nil

	case types.BackendLocal:
		return NewLocalBackend(), nil

	case types.BackendMarkitdown:
		rt := opts.Runtime
		if rt == nil {
			detected, err := container.Detect(ctx)
			if err != nil {
				return nil, err
			}
			rt = detected
		}
		return NewMarkitdownBackend(ctx, rt)

	default:
		return nil, fmt.Errorf("unknown backend %q: use openai, claude, local, or markitdown", cfg.Backend)
	}
}

// parseStructured decodes a model's structured output. The payload must be a
// single JSON object whose only key is markdown_content holding a string.
func parseStructured(data []byte) (types.ConversionResult, error) {
	var raw struct {
		MarkdownContent *string `json:"markdown_content"`
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return types.ConversionResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return types.ConversionResult{}, fmt.Errorf("%w: trailing data after object", ErrMalformedResponse)
	}
	if raw.MarkdownContent == nil {
		return types.ConversionResult{}, fmt.Errorf("%w: missing markdown_content", ErrMalformedResponse)
	}

	return types.ConversionResult{MarkdownContent: *raw.MarkdownContent}, nil
}

// readAPIError formats a non-200 API response.
func readAPIError(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	return fmt.Errorf("%s API returned %d: %s", provider, resp.StatusCode, bytes.TrimSpace(body))
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
