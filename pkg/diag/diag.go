// Package diag renders positioned compiler errors against their source.
package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kartiknair/beginc/pkg/token"
)

// Positioned is implemented by the lexer, parser and analyzer errors.
type Positioned interface {
	error
	Position() token.Pos
}

// Render returns err's message followed by the surrounding source lines
// and a caret under the offending column. Errors without a position are
// rendered as their message alone.
func Render(err error, source string) string {
	var positioned Positioned
	if !errors.As(err, &positioned) {
		return err.Error()
	}

	return SourceContext(source, positioned.Position()) + "\n" + err.Error()
}

// SourceContext shows up to one line before and after pos.
func SourceContext(source string, pos token.Pos) string {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	sourceLines := strings.Split(source, "\n")
	numLines := len(sourceLines)

	line := pos.Line
	if line < 1 {
		line = 1
	} else if line > numLines {
		line = numLines
	}
	current := sourceLines[line-1]

	column := pos.Column
	if column < 1 {
		column = 1
	} else if column > len(current)+1 {
		column = len(current) + 1
	}

	// Keep tabs so the caret lines up with the rendered source.
	offsetHighlight := make([]byte, column)
	for i := 0; i < column-1; i++ {
		if current[i] == '\t' {
			offsetHighlight[i] = '\t'
		} else {
			offsetHighlight[i] = ' '
		}
	}
	offsetHighlight[column-1] = '^'

	var sb strings.Builder
	if line > 1 {
		fmt.Fprintf(&sb, "\n%4d | %s", line-1, sourceLines[line-2])
	}
	fmt.Fprintf(&sb, "\n%4d | %s", line, current)
	fmt.Fprintf(&sb, "\n     | %s", string(offsetHighlight))
	if line < numLines {
		fmt.Fprintf(&sb, "\n%4d | %s", line+1, sourceLines[line])
	}

	return sb.String()
}
