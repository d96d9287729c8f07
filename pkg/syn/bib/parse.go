package bib

import (
	"bytes"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/errors"
)

// skippedTypes are BibTeX entry types that carry no reference.
var skippedTypes = map[string]bool{
	"comment":  true,
	"string":   true,
	"preamble": true,
}

// Load reads and parses a bibliography file.
func Load(path string) (*Bibliography, *errors.DiagnosticList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.NewFatalError(path, err)
	}
	return Parse(data, path)
}

// Parse reads BibTeX-like entries:
//
//	@article{Key2024,
//	    author = {Doe, Jane and Roe, Rick},
//	    year = 2024,
//	    title = "A {Nested} Title"
//	}
//
// Entry types and field names are lower-cased, keys normalized. Text
// outside entries is ignored. Malformed entries are reported as ParseError
// and skipped; duplicate keys are reported as DuplicateBibKey.
func Parse(data []byte, path string) (*Bibliography, *errors.DiagnosticList, error) {
	if bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		return nil, nil, errors.NewFatalError(path, errors.ErrByteOrderMark)
	}
	if !utf8.Valid(data) {
		return nil, nil, errors.NewFatalError(path, errors.ErrInvalidEncoding)
	}

	s := &scanner{src: []rune(string(data)), line: 1, col: 1, path: path}
	b := New()
	diags := errors.NewDiagnosticList()

	for s.skipTo('@') {
		entry, err := s.entry()
		if err != nil {
			diags.Add(err.Diagnostic())
			continue
		}
		if entry != nil {
			b.Add(entry, diags)
		}
	}
	return b, diags, nil
}

// scanner walks the runes of a bibliography with line and column tracking.
type scanner struct {
	src       []rune
	pos       int
	line, col int
	path      string
}

func (s *scanner) loc() ast.Location {
	return ast.Location{File: s.path, Line: s.line, Column: s.col}
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.src)
}

func (s *scanner) peek() rune {
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) advance() rune {
	r := s.src[s.pos]
	s.pos++
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return r
}

func (s *scanner) skipSpace() {
	for !s.eof() && unicode.IsSpace(s.peek()) {
		s.advance()
	}
}

// skipTo advances to the next occurrence of r and reports whether one was
// found.
func (s *scanner) skipTo(r rune) bool {
	for !s.eof() && s.peek() != r {
		s.advance()
	}
	return !s.eof()
}

func (s *scanner) errorf(loc ast.Location, expected, found string) *errors.ParseError {
	return &errors.ParseError{Location: loc, Expected: []string{expected}, Found: found}
}

func (s *scanner) found() string {
	if s.eof() {
		return "end of file"
	}
	return "'" + string(s.peek()) + "'"
}

// entry parses one entry starting at '@'. It returns nil, nil for skipped
// entry types.
func (s *scanner) entry() (*ast.BibliographyEntry, *errors.ParseError) {
	start := s.loc()
	s.advance() // @

	var typ strings.Builder
	for !s.eof() && (unicode.IsLetter(s.peek()) || unicode.IsDigit(s.peek())) {
		typ.WriteRune(s.advance())
	}
	entryType := strings.ToLower(typ.String())
	if entryType == "" {
		return nil, s.errorf(start, "entry type after '@'", s.found())
	}

	s.skipSpace()
	open := s.peek()
	if open != '{' && open != '(' {
		return nil, s.errorf(s.loc(), "'{'", s.found())
	}
	closer := '}'
	if open == '(' {
		closer = ')'
	}

	if skippedTypes[entryType] {
		if _, ok := s.balanced(open, closer); !ok {
			return nil, s.errorf(start, "closing '"+string(closer)+"'", "end of file")
		}
		return nil, nil
	}
	s.advance()

	s.skipSpace()
	keyLoc := s.loc()
	var key strings.Builder
	for !s.eof() && s.peek() != ',' && s.peek() != closer {
		key.WriteRune(s.advance())
	}
	original := strings.TrimSpace(key.String())
	if original == "" {
		return nil, s.errorf(keyLoc, "citation key", s.found())
	}

	entry := &ast.BibliographyEntry{
		Key:         NormalizeKey(original),
		OriginalKey: original,
		Type:        entryType,
		Fields:      make(map[string]string),
		Location:    start,
	}

	for {
		s.skipSpace()
		switch {
		case s.eof():
			return nil, s.errorf(start, "closing '"+string(closer)+"'", "end of file")
		case s.peek() == closer:
			s.advance()
			return entry, nil
		case s.peek() == ',':
			s.advance()
			continue
		}

		name, value, err := s.field(closer)
		if err != nil {
			return nil, err
		}
		entry.Fields[name] = value
	}
}

// field parses "name = value".
func (s *scanner) field(closer rune) (string, string, *errors.ParseError) {
	nameLoc := s.loc()
	var name strings.Builder
	for !s.eof() && s.peek() != '=' && s.peek() != ',' && s.peek() != closer {
		name.WriteRune(s.advance())
	}
	fieldName := strings.ToLower(strings.TrimSpace(name.String()))
	if fieldName == "" || s.peek() != '=' {
		return "", "", s.errorf(nameLoc, "field 'name = value'", s.found())
	}
	s.advance() // =
	s.skipSpace()

	var parts []string
	for {
		part, err := s.value(closer)
		if err != nil {
			return "", "", err
		}
		parts = append(parts, part)

		s.skipSpace()
		if s.peek() != '#' {
			break
		}
		s.advance()
		s.skipSpace()
	}
	return fieldName, strings.Join(strings.Fields(strings.Join(parts, "")), " "), nil
}

// value parses a braced, quoted or bare value.
func (s *scanner) value(closer rune) (string, *errors.ParseError) {
	loc := s.loc()
	switch s.peek() {
	case '{':
		text, ok := s.balanced('{', '}')
		if !ok {
			return "", s.errorf(loc, "closing '}'", "end of file")
		}
		return text, nil

	case '"':
		s.advance()
		var sb strings.Builder
		depth := 0
		for !s.eof() {
			r := s.advance()
			switch {
			case r == '\\' && !s.eof():
				sb.WriteRune(r)
				sb.WriteRune(s.advance())
				continue
			case r == '{':
				depth++
			case r == '}':
				depth--
			case r == '"' && depth == 0:
				return strings.NewReplacer("{", "", "}", "").Replace(sb.String()), nil
			}
			sb.WriteRune(r)
		}
		return "", s.errorf(loc, "closing '\"'", "end of file")

	default:
		var sb strings.Builder
		for !s.eof() && s.peek() != ',' && s.peek() != closer && s.peek() != '#' && !unicode.IsSpace(s.peek()) {
			sb.WriteRune(s.advance())
		}
		if sb.Len() == 0 {
			return "", s.errorf(loc, "field value", s.found())
		}
		return sb.String(), nil
	}
}

// balanced consumes a delimited group starting at open and returns its
// content without the outer delimiters or inner braces.
func (s *scanner) balanced(open, closer rune) (string, bool) {
	s.advance()
	var sb strings.Builder
	depth := 1
	for !s.eof() {
		r := s.advance()
		switch r {
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return sb.String(), true
			}
		}
		if r != '{' && r != '}' {
			sb.WriteRune(r)
		}
	}
	return "", false
}
