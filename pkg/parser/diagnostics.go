package parser

import "fmt"

// SourceLocation captures a source span for parser diagnostics.
type SourceLocation struct {
	Line      int
	Column    int
	EndLine   int
	EndColumn int
}

// ParseError includes a message plus the location of the offending text.
type ParseError struct {
	Message  string
	Location SourceLocation
}

func (e *ParseError) Error() string {
	if e.Location.Line == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (line %d, column %d)", e.Message, e.Location.Line, e.Location.Column)
}

// errorAt reports a problem covering text[col-1:end-1] on line.
func errorAt(line, col, end int, format string, args ...interface{}) *ParseError {
	if end < col {
		end = col
	}
	return &ParseError{
		Message: "parser: " + fmt.Sprintf(format, args...),
		Location: SourceLocation{
			Line:      line,
			Column:    col,
			EndLine:   line,
			EndColumn: end,
		},
	}
}
