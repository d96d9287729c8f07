package ast

import "fmt"

// Location represents the position of a node or token in a source document.
// Lines and columns are 1-based; columns count characters, not bytes.
type Location struct {
	File   string // Document identifier
	Line   int    // Line number (1-based)
	Column int    // Column number (1-based)
}

// String returns a human-readable representation of the location.
// Format: "file:line:column"
func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// IsValid returns true if the location has valid file and line information.
func (l Location) IsValid() bool {
	return l.File != "" && l.Line > 0
}

// Before reports whether l sorts before other in file, line, column order.
func (l Location) Before(other Location) bool {
	if l.File != other.File {
		return l.File < other.File
	}
	if l.Line != other.Line {
		return l.Line < other.Line
	}
	return l.Column < other.Column
}

// Offset returns a copy of l shifted right by n columns on the same line.
func (l Location) Offset(n int) Location {
	return Location{File: l.File, Line: l.Line, Column: l.Column + n}
}
