// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/html2md/pkg/types"
)

// makeTree creates each relative path under root as a small file. Paths
// ending in "/" are created as directories.
func makeTree(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		if p[len(p)-1] == '/' {
			require.NoError(t, os.MkdirAll(full, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("<p>x</p>"), 0o644))
	}
}

func rels(jobs []types.Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = filepath.ToSlash(j.Rel)
	}
	return out
}

func TestJobs_SingleFile(t *testing.T) {
	dir := t.TempDir()
	makeTree(t, dir, "page.htm")
	input := filepath.Join(dir, "page.htm")

	jobs, err := Jobs(input, "out", false)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	assert.Equal(t, input, jobs[0].Input)
	assert.Equal(t, filepath.Join("out", "page.md"), jobs[0].Output)
	assert.Equal(t, "page.htm", jobs[0].Rel)
}

func TestJobs_SingleFileIgnoresRecursiveFlag(t *testing.T) {
	dir := t.TempDir()
	makeTree(t, dir, "notes.txt")

	jobs, err := Jobs(filepath.Join(dir, "notes.txt"), "out", true)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, filepath.Join("out", "notes.md"), jobs[0].Output)
}

func TestJobs_Directory(t *testing.T) {
	tests := []struct {
		name      string
		recursive bool
		want      []string
	}{
		{
			name:      "flat lists direct children only",
			recursive: false,
			want:      []string{"a.html", "b.html", "z.html"},
		},
		{
			name:      "recursive descends and sorts by component",
			recursive: true,
			want: []string{
				"a/b.html",
				"a/deep/c.html",
				"a.html",
				"b.html",
				"z.html",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			makeTree(t, root,
				"z.html", "a.html", "b.html",
				"readme.md", "style.css",
				"a/b.html", "a/deep/c.html", "a/deep/skip.txt",
				"dir.html/",
			)

			jobs, err := Jobs(root, "out", tt.recursive)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rels(jobs))
		})
	}
}

func TestJobs_MirrorsOutputLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "site")
	makeTree(t, root, "index.html", "blog/post.html")

	jobs, err := Jobs(root, "out", true)
	require.NoError(t, err)

	want := []types.Job{
		{
			Input:  filepath.Join(root, "blog", "post.html"),
			Output: filepath.Join("out", "blog", "post.md"),
			Rel:    filepath.Join("blog", "post.html"),
		},
		{
			Input:  filepath.Join(root, "index.html"),
			Output: filepath.Join("out", "index.md"),
			Rel:    "index.html",
		},
	}
	assert.Equal(t, want, jobs)
}

func TestJobs_SkipsUnreadableSubdirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read directories without permission bits")
	}
	root := t.TempDir()
	makeTree(t, root, "a.html", "ok/b.html", "locked/c.html")

	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	var warn bytes.Buffer
	Notify = &warn
	t.Cleanup(func() { Notify = io.Discard })

	jobs, err := Jobs(root, "out", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.html", "ok/b.html"}, rels(jobs))
	assert.Contains(t, warn.String(), locked)
}

func TestJobs_UnreadableRootFails(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read directories without permission bits")
	}
	root := t.TempDir()
	makeTree(t, root, "a.html")
	require.NoError(t, os.Chmod(root, 0o000))
	t.Cleanup(func() { os.Chmod(root, 0o755) })

	jobs, err := Jobs(root, "out", true)
	require.Error(t, err)
	assert.Empty(t, jobs)
}

func TestJobs_BareExtensionName(t *testing.T) {
	root := t.TempDir()
	makeTree(t, root, ".html", "sub/.html")

	jobs, err := Jobs(root, "out", true)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, filepath.Join("out", ".html.md"), jobs[0].Output)
	assert.Equal(t, filepath.Join("out", "sub", ".html.md"), jobs[1].Output)

	single, err := Jobs(filepath.Join(root, ".html"), "out", false)
	require.NoError(t, err)
	assert.Equal(t, jobs[0].Output, single[0].Output)
}

func TestJobs_EmptyDirectory(t *testing.T) {
	jobs, err := Jobs(t.TempDir(), "out", true)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestJobs_FollowsSymlinkedFiles(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(t.TempDir(), "real.html")
	require.NoError(t, os.WriteFile(target, []byte("<p>x</p>"), 0o644))
	if err := os.Symlink(target, filepath.Join(root, "link.html")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	jobs, err := Jobs(root, "out", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"link.html"}, rels(jobs))
}

func TestJobs_InvalidPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")

	jobs, err := Jobs(missing, "out", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInputPath)
	assert.Contains(t, err.Error(), missing)
	assert.Empty(t, jobs)
}

func TestCompareRel(t *testing.T) {
	assert.Negative(t, compareRel("a/b.html", "a.html"))
	assert.Negative(t, compareRel("a.html", "b.html"))
	assert.Positive(t, compareRel("index.html", "blog/post.html"))
	assert.Zero(t, compareRel("x/y.html", "x/y.html"))
}
