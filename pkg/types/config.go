package types

import "time"

// HTTPConfig holds shared HTTP settings used by backends that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero means no client-side timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "html2md/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// BackendKind identifies the conversion backend.
type BackendKind string

const (
	BackendOpenAI     BackendKind = "openai"
	BackendClaude     BackendKind = "claude"
	BackendLocal      BackendKind = "local"
	BackendMarkitdown BackendKind = "markitdown"
)

// AIConfig holds settings for backends that call a Generative AI API.
type AIConfig struct {
	// Backend selects the conversion backend: openai, claude, local, or markitdown.
	Backend BackendKind `json:"backend" yaml:"backend"`

	// Model is the AI model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint. Empty uses the provider default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxTokens caps the response size (default 16384).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// MaxRetries is the number of retries on rate-limited API calls (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ConversionConfig holds settings for a conversion run.
type ConversionConfig struct {
	AIConfig   `yaml:",inline"`
	HTTPConfig `yaml:",inline"`

	// Recursive enables descent into subdirectories when the input is a directory.
	Recursive bool `json:"recursive" yaml:"recursive"`

	// OutputDir is the root directory for Markdown output (default "output").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Workers bounds the number of jobs converted at once (default 1).
	Workers int `json:"workers" yaml:"workers"`

	// SkipExisting leaves jobs whose output file already exists untouched.
	SkipExisting bool `json:"skip_existing" yaml:"skip_existing"`
}
