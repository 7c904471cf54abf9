// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert runs conversion jobs: it reads each HTML input, asks a
// backend for the Markdown, and writes the result to the job's output path.
// Failures are isolated per job; a batch always attempts every job.
package convert

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/html2md/internal/backend"
	"github.com/pdiddy/html2md/pkg/types"
)

// ErrBinaryInput reports an input file whose content is not text.
var ErrBinaryInput = errors.New("input is not a text document")

// ConversionError reports that the backend could not convert one file.
type ConversionError struct {
	Path string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("converting %s: %v", e.Path, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Recorder receives every job result as it completes. Implementations must
// be safe for concurrent use when Options.Workers > 1.
type Recorder interface {
	Record(ctx context.Context, result types.JobResult) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, result types.JobResult) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, result types.JobResult) error {
	return f(ctx, result)
}

// Options tunes a batch run.
type Options struct {
	// Workers bounds concurrent jobs. Values below 1 mean 1 (sequential).
	Workers int

	// SkipExisting marks jobs whose output exists as unchanged without
	// calling the backend.
	SkipExisting bool

	// Recorder, when set, is called once per job.
	Recorder Recorder
}

// BatchResult holds the outcome of a batch conversion run. Results is in job
// order regardless of how many workers ran.
type BatchResult struct {
	Results   []types.JobResult
	Converted int
	Unchanged int
	Failed    int
}

// Total returns the total number of jobs processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Unchanged + r.Failed
}

// HasFailures reports whether any job failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ConvertJob converts a single job. It never panics on bad input and never
// leaves a partial output file; the returned result carries any error.
func ConvertJob(ctx context.Context, b backend.Backend, job types.Job, opts Options) types.JobResult {
	start := time.Now()
	result := types.JobResult{Job: job, Status: types.JobFailed}
	done := func() types.JobResult {
		result.Duration = time.Since(start)
		return result
	}

	if err := ctx.Err(); err != nil {
		result.Err = err
		return done()
	}

	if opts.SkipExisting {
		if _, err := os.Stat(job.Output); err == nil {
			result.Status = types.JobUnchanged
			return done()
		}
	}

	data, err := os.ReadFile(job.Input)
	if err != nil {
		result.Err = fmt.Errorf("reading %s: %w", job.Input, err)
		return done()
	}
	result.InputSHA256 = digest(data)

	if mt := mimetype.Detect(data); !isText(mt, data) {
		result.Err = &ConversionError{Path: job.Input, Err: fmt.Errorf("%w (detected %s)", ErrBinaryInput, mt.String())}
		return done()
	}

	res, err := b.Convert(ctx, string(data))
	if err != nil {
		result.Err = &ConversionError{Path: job.Input, Err: err}
		return done()
	}

	out := []byte(res.MarkdownContent)
	if err := writeFileAtomic(job.Output, out); err != nil {
		result.Err = err
		return done()
	}

	result.Status = types.JobConverted
	result.Bytes = len(out)
	result.OutputSHA256 = digest(out)
	return done()
}

// ConvertBatch runs every job, printing one line per outcome to w followed by
// a summary. It returns once all jobs have finished.
func ConvertBatch(ctx context.Context, b backend.Backend, jobs []types.Job, opts Options, w io.Writer) BatchResult {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	out := &syncWriter{w: w}
	results := make([]types.JobResult, len(jobs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, job := range jobs {
		g.Go(func() error {
			res := ConvertJob(ctx, b, job, opts)
			results[i] = res
			out.printResult(res)
			if opts.Recorder != nil {
				if err := opts.Recorder.Record(ctx, res); err != nil {
					out.printf("warning: recording %s: %v\n", job.Input, err)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	batch := BatchResult{Results: results}
	for _, r := range results {
		switch r.Status {
		case types.JobConverted:
			batch.Converted++
		case types.JobUnchanged:
			batch.Unchanged++
		default:
			batch.Failed++
		}
	}

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d unchanged, %d failed (total: %d)\n",
		batch.Converted, batch.Unchanged, batch.Failed, batch.Total())
	return batch
}

// syncWriter serializes progress lines from concurrent workers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
}

func (s *syncWriter) printResult(r types.JobResult) {
	switch r.Status {
	case types.JobConverted:
		s.printf("Converted %s to %s\n", r.Job.Input, r.Job.Output)
	case types.JobUnchanged:
		s.printf("Unchanged %s (%s exists)\n", r.Job.Input, r.Job.Output)
	default:
		s.printf("Error converting %s: %v\n", r.Job.Input, cause(r.Err))
	}
}

// cause strips the ConversionError wrapper, whose message repeats the path.
func cause(err error) error {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce.Err
	}
	return err
}

// isText reports whether mt is text/plain or one of its descendants
// (text/html, application/xhtml+xml, and so on). Content with no recognized
// signature counts as text when it is valid UTF-8, so a stray control byte in
// a page does not reject it.
func isText(mt *mimetype.MIME, data []byte) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return mt.Is("application/octet-stream") && utf8.Valid(data)
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
