// errors.go: failure types and caret-snippet rendering.
//
// Two error taxa flow out of the pipeline: syntax failures (lexer and parser,
// with a byte offset and expected-token context) and validation failures
// (validator, with a human-readable reason). Neither is recovered from; the
// first failure is returned to the caller.
//
// WrapErrorWithSource turns a syntax failure into a readable snippet with a
// caret pointing at the offending column:
//
//	SYNTAX ERROR at 1:11: expected ':' after system
//
//	   1 | cubic[m3m]{111}
//	     |           ^
package cdl

import (
	"fmt"
	"strings"
)

// LexError is an unrecognized-character or unterminated-construct failure
// raised while tokenizing. Pos is a byte offset into the source.
type LexError struct {
	Pos int
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Msg)
}

// SyntaxError is the parser's single structured failure: the byte offset of
// the offending token, the token kind seen, and the kinds that would have
// been accepted. No recovery is attempted.
type SyntaxError struct {
	Pos      int
	Msg      string
	Got      TokenType
	Expected []TokenType
}

func (e *SyntaxError) Error() string {
	if len(e.Expected) > 0 {
		names := make([]string, len(e.Expected))
		for i, tt := range e.Expected {
			names[i] = tt.String()
		}
		return fmt.Sprintf("syntax error at offset %d: %s (got %s, want %s)",
			e.Pos, e.Msg, e.Got, strings.Join(names, " or "))
	}
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Msg)
}

// ValidationError is a semantic failure over a well-formed tree: unknown
// system, point group outside the system's set, broken Miller-Bravais
// constraint, unknown catalog name.
type ValidationError struct {
	Msg   string
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s=%q)", e.Msg, e.Field, e.Value)
	}
	return e.Msg
}

// IsValidationError reports whether err is a semantic (vs syntax) failure.
func IsValidationError(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}

// WrapErrorWithSource returns an error whose message is a caret-annotated
// snippet of src for lex/syntax failures. Validation failures and everything
// else are returned unchanged (they carry no useful position).
func WrapErrorWithSource(err error, src string) error {
	switch e := err.(type) {
	case *LexError:
		line, col := lineColAt(src, e.Pos)
		return fmt.Errorf("%s", snippet(src, "SYNTAX ERROR", line, col, e.Msg))
	case *SyntaxError:
		line, col := lineColAt(src, e.Pos)
		return fmt.Errorf("%s", snippet(src, "SYNTAX ERROR", line, col, e.Msg))
	default:
		return err
	}
}

// lineColAt converts a byte offset into 1-based line and column.
func lineColAt(src string, pos int) (int, int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(src) {
		pos = len(src)
	}
	line := 1 + strings.Count(src[:pos], "\n")
	lastNL := strings.LastIndex(src[:pos], "\n")
	if lastNL < 0 {
		return line, pos + 1
	}
	return line, pos - lastNL
}

// snippet renders a header, the offending line with one line of context on
// each side, and a caret under the 1-based column. Coordinates are clamped so
// rendering never fails on short sources.
func snippet(src, header string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if line > len(lines) {
		line = len(lines)
	}
	lineTxt := lines[line-1]

	var b strings.Builder
	fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	caretPad := col - 1
	if caretPad > len(lineTxt) {
		caretPad = len(lineTxt)
	}
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", caretPad))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
