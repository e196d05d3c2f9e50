// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/muesli/termenv"

	"github.com/jeranaias/modelgrid-tui/internal/model"
)

// =============================================================================
// FILE PART PREVIEW
// =============================================================================

// previewLimit bounds how much of a surfaced text file is rendered
// inline.
const previewLimit = 2048

// mimeLexers maps surfaced text mime types to chroma lexer names.
var mimeLexers = map[string]string{
	"text/csv":               "csv",
	"application/json":       "json",
	"text/x-python":          "python",
	"application/javascript": "javascript",
	"text/html":              "html",
	"text/markdown":          "markdown",
}

// renderFilePreview returns an inline preview for a surfaced file
// part. Text files get a syntax-highlighted excerpt; binary files get
// a size chip only.
func renderFilePreview(part model.Part) string {
	if !utf8.Valid(part.Data) || len(part.Data) == 0 {
		return ""
	}
	lexer, ok := mimeLexers[part.MimeType]
	if !ok && !strings.HasPrefix(part.MimeType, "text/") {
		return ""
	}
	if lexer == "" {
		lexer = "plaintext"
	}

	content := string(part.Data)
	if len(content) > previewLimit {
		content = content[:previewLimit] + "\n…"
	}

	formatter := "terminal16m"
	switch termenv.ColorProfile() {
	case termenv.ANSI256:
		formatter = "terminal256"
	case termenv.ANSI:
		formatter = "terminal16"
	case termenv.Ascii:
		return content
	}

	var sb strings.Builder
	if err := quick.Highlight(&sb, content, lexer, formatter, "monokai"); err != nil {
		return content
	}
	return strings.TrimRight(sb.String(), "\n")
}
