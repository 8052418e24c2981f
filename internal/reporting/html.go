package reporting

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// RenderSummaryHTML renders the Markdown summary to an HTML fragment.
func RenderSummaryHTML(r *Report) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(RenderSummaryMarkdown(r)), &buf); err != nil {
		return "", fmt.Errorf("render summary html: %w", err)
	}
	return buf.String(), nil
}
