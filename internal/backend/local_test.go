// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBackend_Convert(t *testing.T) {
	html := `<html><head><style>body{}</style></head><body>
<header><a href="/">Site</a></header>
<nav><ul><li>Home</li><li>About</li></ul></nav>
<main><h1>Title</h1><p>Hello <strong>world</strong>.</p></main>
<footer>Copyright footer</footer>
</body></html>`

	res, err := NewLocalBackend().Convert(context.Background(), html)
	require.NoError(t, err)

	md := res.MarkdownContent
	assert.Contains(t, md, "# Title")
	assert.Contains(t, md, "**world**")
	assert.NotContains(t, md, "About")
	assert.NotContains(t, md, "Copyright footer")
	assert.NotContains(t, md, "body{}")
}

func TestLocalBackend_Deterministic(t *testing.T) {
	b := NewLocalBackend()
	html := "<h2>Same</h2><p>input</p>"

	first, err := b.Convert(context.Background(), html)
	require.NoError(t, err)
	second, err := b.Convert(context.Background(), html)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLocalBackend_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocalBackend().Convert(ctx, "<p>x</p>")
	assert.True(t, errors.Is(err, context.Canceled))
}
