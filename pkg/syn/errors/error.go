package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"synesis-hq/synesis/pkg/syn/ast"
)

// Sentinel causes of fatal errors.
var (
	ErrInvalidEncoding = stderrors.New("input is not valid UTF-8")
	ErrByteOrderMark   = stderrors.New("input starts with a byte-order mark")
	ErrFileTooLarge    = stderrors.New("input exceeds the maximum file size")
)

// LexError reports a character sequence the lexer cannot tokenize.
// It abandons the enclosing block only.
type LexError struct {
	Location ast.Location
	Span     string // Offending characters
	Message  string
}

// Error implements the error interface.
func (e *LexError) Error() string {
	return fmt.Sprintf("%s: %s", e.Location, e.Message)
}

// Diagnostic converts the error to a diagnostic.
func (e *LexError) Diagnostic() *Diagnostic {
	return New(KindLexError, e.Location, "%s", e.Message)
}

// ParseError reports an unexpected token. The enclosing top-level block is
// abandoned; sibling blocks still parse.
type ParseError struct {
	Location ast.Location
	Expected []string // Descriptions of the acceptable tokens
	Found    string
	Message  string // Optional override of the generated message
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Location, e.message())
}

func (e *ParseError) message() string {
	if e.Message != "" {
		return e.Message
	}
	switch len(e.Expected) {
	case 0:
		return fmt.Sprintf("unexpected %s", e.Found)
	case 1:
		return fmt.Sprintf("expected %s, found %s", e.Expected[0], e.Found)
	default:
		return fmt.Sprintf("expected one of %s, found %s", strings.Join(e.Expected, ", "), e.Found)
	}
}

// Diagnostic converts the error to a diagnostic.
func (e *ParseError) Diagnostic() *Diagnostic {
	return New(KindParseError, e.Location, "%s", e.message())
}

// FatalError is an unrecoverable input problem (unreadable file, encoding
// failure). It is returned as an error, outside the diagnostic channel.
type FatalError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *FatalError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FatalError) Unwrap() error {
	return e.Err
}

// NewFatalError wraps err with the document path.
func NewFatalError(path string, err error) *FatalError {
	return &FatalError{Path: path, Err: err}
}
