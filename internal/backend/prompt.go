// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"bytes"
	"text/template"
)

const (
	systemPrompt = "You are a helpful assistant that converts HTML to Markdown."

	// schemaName names the structured response in both providers' requests.
	schemaName = "markdown_response"
)

// conversionPromptTmpl is the user message sent with each document.
var conversionPromptTmpl = template.Must(template.New("conversion").Parse(`Convert the following HTML to Markdown, focusing only on the main content. Ignore navigation items, headers, footers, and other non-essential elements. Preserve the important content structure:

{{.HTML}}`))

// responseSchema is the JSON Schema of types.ConversionResult.
var responseSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"markdown_content": map[string]any{
			"type":        "string",
			"description": "The main content of the document as Markdown.",
		},
	},
	"required":             []string{"markdown_content"},
	"additionalProperties": false,
}

// renderPrompt executes the conversion prompt template with the given HTML.
func renderPrompt(html string) (string, error) {
	var buf bytes.Buffer
	if err := conversionPromptTmpl.Execute(&buf, struct{ HTML string }{HTML: html}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
