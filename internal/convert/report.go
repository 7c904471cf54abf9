// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/html2md/pkg/types"
)

// Report is the YAML record of one run written by --report.
type Report struct {
	Run       types.Run    `yaml:"run"`
	Converted int          `yaml:"converted"`
	Unchanged int          `yaml:"unchanged"`
	Failed    int          `yaml:"failed"`
	Jobs      []ReportItem `yaml:"jobs"`
}

// ReportItem is one job's line in a Report.
type ReportItem struct {
	Input        string          `yaml:"input"`
	Output       string          `yaml:"output"`
	Status       types.JobStatus `yaml:"status"`
	Error        string          `yaml:"error,omitempty"`
	Bytes        int             `yaml:"bytes,omitempty"`
	DurationMS   int64           `yaml:"duration_ms"`
	InputSHA256  string          `yaml:"input_sha256,omitempty"`
	OutputSHA256 string          `yaml:"output_sha256,omitempty"`
}

// NewReport summarizes a finished batch.
func NewReport(run types.Run, batch BatchResult) Report {
	rep := Report{
		Run:       run,
		Converted: batch.Converted,
		Unchanged: batch.Unchanged,
		Failed:    batch.Failed,
		Jobs:      make([]ReportItem, 0, len(batch.Results)),
	}
	for _, r := range batch.Results {
		rep.Jobs = append(rep.Jobs, ReportItem{
			Input:        r.Job.Input,
			Output:       r.Job.Output,
			Status:       r.Status,
			Error:        r.ErrMessage(),
			Bytes:        r.Bytes,
			DurationMS:   r.Duration.Milliseconds(),
			InputSHA256:  r.InputSHA256,
			OutputSHA256: r.OutputSHA256,
		})
	}
	return rep
}

// WriteReport marshals rep to YAML at path.
func WriteReport(path string, rep Report) error {
	data, err := yaml.Marshal(&rep)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return writeFileAtomic(path, data)
}
