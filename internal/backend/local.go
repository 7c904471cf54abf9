// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"

	"github.com/pdiddy/html2md/pkg/types"
)

// boilerplateTags are dropped before conversion so the local output keeps
// the main content, like the API backends are instructed to.
var boilerplateTags = []string{"nav", "header", "footer", "aside", "script", "style", "noscript", "form"}

// LocalBackend converts HTML with html-to-markdown, without any network call.
type LocalBackend struct {
	conv *converter.Converter
}

// NewLocalBackend returns a CommonMark converter with boilerplate tags removed.
func NewLocalBackend() *LocalBackend {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
	for _, tag := range boilerplateTags {
		conv.Register.TagType(tag, converter.TagTypeRemove, converter.PriorityStandard)
	}
	return &LocalBackend{conv: conv}
}

// Name implements Backend.
func (l *LocalBackend) Name() string { return string(types.BackendLocal) }

// Convert implements Backend.
func (l *LocalBackend) Convert(ctx context.Context, html string) (types.ConversionResult, error) {
	if err := ctx.Err(); err != nil {
		return types.ConversionResult{}, err
	}
	md, err := l.conv.ConvertString(html)
	if err != nil {
		return types.ConversionResult{}, fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return types.ConversionResult{MarkdownContent: strings.TrimSpace(md) + "\n"}, nil
}
