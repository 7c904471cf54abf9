// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/html2md/internal/container"
	"github.com/pdiddy/html2md/pkg/types"
)

const imageMarkitdown = "markitdown:latest"

// markitdownArgs tells markitdown that stdin is HTML.
var markitdownArgs = []string{"-x", "html"}

// MarkitdownBackend converts HTML by piping it through the markitdown
// container image on a docker or podman runtime.
type MarkitdownBackend struct {
	runtime container.Runtime
}

// NewMarkitdownBackend verifies that the markitdown image exists locally.
func NewMarkitdownBackend(ctx context.Context, rt container.Runtime) (*MarkitdownBackend, error) {
	if err := rt.ImageExists(ctx, imageMarkitdown); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownBackend{runtime: rt}, nil
}

// Name implements Backend.
func (m *MarkitdownBackend) Name() string { return string(types.BackendMarkitdown) }

// Convert implements Backend.
func (m *MarkitdownBackend) Convert(ctx context.Context, html string) (types.ConversionResult, error) {
	var out bytes.Buffer
	if err := m.runtime.Run(ctx, imageMarkitdown, markitdownArgs, strings.NewReader(html), &out); err != nil {
		return types.ConversionResult{}, fmt.Errorf("converting with markitdown: %w", err)
	}
	if out.Len() == 0 {
		return types.ConversionResult{}, fmt.Errorf("markitdown produced empty output")
	}
	return types.ConversionResult{MarkdownContent: out.String()}, nil
}
