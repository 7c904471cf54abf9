// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Job is one input-file-to-output-file conversion unit.
type Job struct {
	// Input is the path of the HTML file to convert.
	Input string `json:"input" yaml:"input"`

	// Output is the path the Markdown is written to.
	Output string `json:"output" yaml:"output"`

	// Rel is Input relative to the resolved input root. For a single-file
	// input it is the file's base name.
	Rel string `json:"rel" yaml:"rel"`
}

// ConversionResult is the structured response expected from a backend.
type ConversionResult struct {
	MarkdownContent string `json:"markdown_content" yaml:"markdown_content"`
}

// JobStatus records the outcome of a single job.
type JobStatus string

const (
	JobConverted JobStatus = "converted"
	JobFailed    JobStatus = "failed"
	JobUnchanged JobStatus = "unchanged"
)

// JobResult is the outcome of processing one Job.
type JobResult struct {
	Job    Job       `json:"job" yaml:"job"`
	Status JobStatus `json:"status" yaml:"status"`

	// Err is set when Status is JobFailed.
	Err error `json:"-" yaml:"-"`

	// Bytes is the size of the written Markdown.
	Bytes int `json:"bytes" yaml:"bytes"`

	// Duration covers reading, converting, and writing.
	Duration time.Duration `json:"duration" yaml:"duration"`

	// InputSHA256 and OutputSHA256 are hex digests of the HTML read and the
	// Markdown written. OutputSHA256 is empty unless Status is JobConverted.
	InputSHA256  string `json:"input_sha256,omitempty" yaml:"input_sha256,omitempty"`
	OutputSHA256 string `json:"output_sha256,omitempty" yaml:"output_sha256,omitempty"`
}

// ErrMessage returns the failure message, or "" when the job did not fail.
func (r JobResult) ErrMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Run describes one invocation over an input path.
type Run struct {
	ID         string      `json:"id" yaml:"id"`
	Input      string      `json:"input" yaml:"input"`
	OutputDir  string      `json:"output_dir" yaml:"output_dir"`
	Recursive  bool        `json:"recursive" yaml:"recursive"`
	Backend    BackendKind `json:"backend" yaml:"backend"`
	Model      string      `json:"model,omitempty" yaml:"model,omitempty"`
	StartedAt  time.Time   `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time   `json:"finished_at" yaml:"finished_at"`
}
