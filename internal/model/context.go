package model

import (
	"bytes"
	"fmt"
	"strings"
)

// SourceContext is the source line a diagnostic points at, with enough
// information to draw a caret underline beneath the offending span.
type SourceContext struct {
	LineNumber      int    `json:"line_number"`
	LineText        string `json:"line_text"`
	UnderlineColumn int    `json:"underline_column"`
	UnderlineLength int    `json:"underline_length"`
}

// NewSourceContext builds the context for r within source. Spans covering
// several lines are underlined to the end of their first line.
func NewSourceContext(source []byte, r CodeRange) *SourceContext {
	line := lineAt(source, r.StartLine)
	col := r.StartColumn
	if col > len(line) {
		col = len(line)
	}
	length := r.EndColumn - r.StartColumn
	if r.EndLine != r.StartLine {
		length = len(line) - col
	}
	if length < 1 {
		length = 1
	}
	return &SourceContext{
		LineNumber:      r.StartLine,
		LineText:        line,
		UnderlineColumn: col,
		UnderlineLength: length,
	}
}

func lineAt(source []byte, line int) string {
	if line < 1 {
		return ""
	}
	for i := 1; i < line; i++ {
		idx := bytes.IndexByte(source, '\n')
		if idx < 0 {
			return ""
		}
		source = source[idx+1:]
	}
	if idx := bytes.IndexByte(source, '\n'); idx >= 0 {
		source = source[:idx]
	}
	return strings.TrimRight(string(source), "\r")
}

// Render draws the line with a gutter and a caret underline:
//
//	  12 | let x = foo();
//	     |         ^^^
func (c *SourceContext) Render() string {
	gutter := fmt.Sprintf("%4d | ", c.LineNumber)
	pad := strings.Repeat(" ", len(gutter)-2) + "| "
	var indent strings.Builder
	for i, r := range c.LineText {
		if i >= c.UnderlineColumn {
			break
		}
		if r == '\t' {
			indent.WriteByte('\t')
		} else {
			indent.WriteByte(' ')
		}
	}
	return gutter + c.LineText + "\n" + pad + indent.String() + strings.Repeat("^", c.UnderlineLength)
}
