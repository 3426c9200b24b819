package utils

import (
	"bytes"

	"github.com/yuin/goldmark"
)

var markdown = goldmark.New()

// RenderMarkdown converts a chat answer to HTML. On failure the input is
// returned untouched.
func RenderMarkdown(source string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		Logger.Sugar().Warnw("markdown render failed", "err", err)
		return source
	}
	return buf.String()
}
