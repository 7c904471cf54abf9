// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve turns an input path into the ordered list of conversion jobs.
// A regular file yields one job; a directory yields one job per .html file,
// either direct children only or all descendants.
package resolve

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pdiddy/html2md/pkg/types"
)

const (
	htmlExt     = ".html"
	markdownExt = ".md"
)

// ErrInvalidInputPath reports an input that is neither a regular file nor a directory.
var ErrInvalidInputPath = errors.New("not a valid file or directory")

// Notify receives a warning for each subdirectory skipped during a recursive
// walk because it could not be read. Callers may replace it (e.g. os.Stderr).
var Notify io.Writer = io.Discard

// Jobs classifies input and returns its jobs with output paths rooted at
// outputDir. Directory jobs are sorted by relative path, compared one path
// component at a time.
func Jobs(input, outputDir string, recursive bool) ([]types.Job, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, ErrInvalidInputPath)
	}

	switch {
	case info.Mode().IsRegular():
		return []types.Job{singleFileJob(input, outputDir)}, nil
	case info.IsDir():
		return directoryJobs(input, outputDir, recursive)
	default:
		return nil, fmt.Errorf("%s: %w", input, ErrInvalidInputPath)
	}
}

// singleFileJob maps input to outputDir/<stem>.md.
func singleFileJob(input, outputDir string) types.Job {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return types.Job{
		Input:  input,
		Output: filepath.Join(outputDir, stem+markdownExt),
		Rel:    base,
	}
}

func directoryJobs(root, outputDir string, recursive bool) ([]types.Job, error) {
	var rels []string
	var err error
	if recursive {
		rels, err = walkHTML(root)
	} else {
		rels, err = listHTML(root)
	}
	if err != nil {
		return nil, err
	}

	slices.SortFunc(rels, compareRel)

	jobs := make([]types.Job, 0, len(rels))
	for _, rel := range rels {
		jobs = append(jobs, types.Job{
			Input:  filepath.Join(root, rel),
			Output: filepath.Join(outputDir, outputRel(rel)),
			Rel:    rel,
		})
	}
	return jobs, nil
}

// outputRel replaces the .html suffix of rel with .md. A file named just
// ".html" keeps its name and gains the suffix.
func outputRel(rel string) string {
	if filepath.Base(rel) == htmlExt {
		return rel + markdownExt
	}
	return strings.TrimSuffix(rel, htmlExt) + markdownExt
}

// listHTML returns the .html files directly inside dir.
func listHTML(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var rels []string
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), htmlExt) {
			continue
		}
		if isFile(filepath.Join(dir, entry.Name()), entry) {
			rels = append(rels, entry.Name())
		}
	}
	return rels, nil
}

// walkHTML returns every .html file under root, relative to root. Entries
// below root that cannot be read are reported to Notify and skipped; only an
// error on root itself fails the walk.
func walkHTML(root string) ([]string, error) {
	var rels []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			fmt.Fprintf(Notify, "warning: skipping %s: %v\n", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), htmlExt) {
			return nil
		}
		if !isFile(path, d) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rels = append(rels, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return rels, nil
}

// isFile reports whether the entry is a regular file, following symlinks.
func isFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// compareRel orders relative paths by their components, so "a/b.html"
// sorts before "a.html".
func compareRel(a, b string) int {
	return slices.Compare(splitPath(a), splitPath(b))
}

func splitPath(p string) []string {
	return strings.Split(filepath.ToSlash(p), "/")
}
