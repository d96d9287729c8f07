package lexer

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/errors"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

type modeKind int

const (
	modeFieldBody modeKind = iota // "name: value" lines of SOURCE/ITEM/ONTOLOGY
	modeEntries                   // METADATA, VALUES, RELATIONS entries
	modeRawBlock                  // DESCRIPTION ... END DESCRIPTION
)

// mode is one level of the lexer's block stack. Structured lexing applies
// when the stack is empty.
type mode struct {
	kind        modeKind
	block       string // Keyword closing the mode, e.g. "ITEM"
	hasField    bool
	fieldIndent int
}

// Lexer converts a document into tokens. It works line by line: structured
// lines are split into keywords, identifiers and punctuation, while the
// bodies of SOURCE/ITEM/ONTOLOGY blocks, entry lists and DESCRIPTION blocks
// switch to raw-line modes in which free text is never tokenized.
type Lexer struct {
	file      string
	lines     []string
	modes     []*mode
	tokens    []Token
	lineStart bool
}

// Tokenize lexes src and returns the token stream terminated by TokenEOF.
// Lexical problems become TokenIllegal tokens; only encoding failures are
// returned as errors.
func Tokenize(file string, src []byte) ([]Token, error) {
	l, err := New(file, src)
	if err != nil {
		return nil, err
	}
	return l.Run(), nil
}

// New validates the encoding of src and prepares a lexer for it.
func New(file string, src []byte) (*Lexer, error) {
	if bytes.HasPrefix(src, bom) {
		return nil, errors.NewFatalError(file, errors.ErrByteOrderMark)
	}
	if !utf8.Valid(src) {
		return nil, errors.NewFatalError(file, errors.ErrInvalidEncoding)
	}

	text := strings.ReplaceAll(string(src), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	return &Lexer{
		file:  file,
		lines: strings.Split(text, "\n"),
	}, nil
}

// Run lexes every line and returns the tokens.
func (l *Lexer) Run() []Token {
	for i, line := range l.lines {
		l.lineStart = true
		l.lexLine(i+1, []rune(line))
	}

	last := l.lines[len(l.lines)-1]
	l.emit(Token{
		Kind:     TokenEOF,
		Location: l.loc(len(l.lines), utf8.RuneCountInString(last)+1),
	})
	return l.tokens
}

func (l *Lexer) loc(line, col int) ast.Location {
	return ast.Location{File: l.file, Line: line, Column: col}
}

func (l *Lexer) emit(t Token) {
	if t.Value == "" {
		t.Value = t.Text
	}
	t.LineStart = l.lineStart
	l.lineStart = false
	l.tokens = append(l.tokens, t)
}

func (l *Lexer) newline(line int, runes []rune) {
	if l.lineStart {
		return
	}
	l.emit(Token{Kind: TokenNewline, Location: l.loc(line, len(runes)+1)})
}

func (l *Lexer) top() *mode {
	if len(l.modes) == 0 {
		return nil
	}
	return l.modes[len(l.modes)-1]
}

func (l *Lexer) push(kind modeKind, block string) {
	l.modes = append(l.modes, &mode{kind: kind, block: block, fieldIndent: -1})
}

func (l *Lexer) pop() {
	l.modes = l.modes[:len(l.modes)-1]
}

func (l *Lexer) lexLine(n int, runes []rune) {
	indent := leadingSpace(runes)
	trimmed := strings.TrimSpace(string(runes))

	m := l.top()
	if m == nil {
		if trimmed == "" {
			return
		}
		l.lexStructured(n, runes, indent)
		return
	}

	if m.kind == modeRawBlock {
		if isEndLine(trimmed, m.block) {
			l.pop()
			l.lexStructured(n, runes, indent)
			return
		}
		l.lexRawLine(n, runes, indent)
		return
	}

	if trimmed == "" {
		return
	}
	if isEndLine(trimmed, m.block) {
		l.pop()
		l.lexStructured(n, runes, indent)
		return
	}
	if l.closesOuter(trimmed) || l.startsTopLevel(indent, trimmed, m) {
		// Unterminated block: hand the line to the enclosing mode.
		l.pop()
		l.lexLine(n, runes)
		return
	}

	switch m.kind {
	case modeFieldBody:
		l.lexFieldBodyLine(n, runes, indent, trimmed, m)
	case modeEntries:
		if strings.HasPrefix(trimmed, "#") {
			return
		}
		l.scan(n, runes, indent, true)
		l.newline(n, runes)
	}
}

// closesOuter reports whether trimmed is the END line of a mode below the top.
func (l *Lexer) closesOuter(trimmed string) bool {
	for i := len(l.modes) - 2; i >= 0; i-- {
		if isEndLine(trimmed, l.modes[i].block) {
			return true
		}
	}
	return false
}

// startsTopLevel reports whether an unindented line opens a new top-level
// block while m is still open.
func (l *Lexer) startsTopLevel(indent int, trimmed string, m *mode) bool {
	if indent != 0 {
		return false
	}
	word, rest := firstWord(trimmed)
	switch strings.ToUpper(word) {
	case "PROJECT", "TEMPLATE":
		return rest != ""
	case "SOURCE":
		return strings.HasPrefix(rest, "@")
	case "ONTOLOGY":
		return rest != "" && !isFieldsSection(rest)
	case "ITEM":
		return m.block != "SOURCE" && strings.HasPrefix(rest, "@")
	}
	return false
}

func (l *Lexer) lexFieldBodyLine(n int, runes []rune, indent int, trimmed string, m *mode) {
	if m.hasField && indent > m.fieldIndent {
		l.lexContinuation(n, runes, indent)
		return
	}
	if strings.HasPrefix(trimmed, "#") {
		return
	}
	if m.block == "SOURCE" && isNestedItemHeader(trimmed) {
		l.lexStructured(n, runes, indent)
		return
	}

	if end, ok := fieldNameEnd(runes, indent); ok {
		name := string(runes[indent:end])
		l.emit(Token{Kind: TokenFieldName, Text: name, Location: l.loc(n, indent+1), Indent: indent})
		l.emit(Token{Kind: TokenColon, Text: ":", Location: l.loc(n, end+1), Indent: indent})
		l.emitRest(n, runes, end+1, indent)
		l.newline(n, runes)
		m.hasField = true
		m.fieldIndent = indent
		return
	}

	l.scan(n, runes, indent, false)
	l.newline(n, runes)
}

// isNestedItemHeader reports whether trimmed is "ITEM" or "ITEM @key".
func isNestedItemHeader(trimmed string) bool {
	word, rest := firstWord(trimmed)
	if !strings.EqualFold(word, "ITEM") {
		return false
	}
	if rest == "" {
		return true
	}
	ref, tail := firstWord(rest)
	return strings.HasPrefix(ref, "@") && tail == ""
}

// fieldNameEnd returns the index of the ':' ending a field name that starts
// at from.
func fieldNameEnd(runes []rune, from int) (int, bool) {
	if from >= len(runes) || !isIdentStart(runes[from]) {
		return 0, false
	}
	i := from + 1
	for i < len(runes) && isIdentPart(runes[i]) && !isArrowAt(runes, i) {
		i++
	}
	if i < len(runes) && runes[i] == ':' {
		return i, true
	}
	return 0, false
}

func (l *Lexer) lexContinuation(n int, runes []rune, indent int) {
	text := strings.TrimRightFunc(string(runes[indent:]), unicode.IsSpace)
	l.emit(Token{Kind: TokenRawText, Text: text, Location: l.loc(n, indent+1), Indent: indent})
	l.newline(n, runes)
}

func (l *Lexer) lexRawLine(n int, runes []rune, indent int) {
	text := strings.TrimRightFunc(string(runes[indent:]), unicode.IsSpace)
	if text == "" {
		indent = 0
	}
	l.emit(Token{Kind: TokenRawText, Text: text, Location: l.loc(n, indent+1), Indent: indent})
	l.newline(n, runes)
}

// emitRest emits the remainder of the line from index from as raw text.
func (l *Lexer) emitRest(n int, runes []rune, from, indent int) {
	start := from
	for start < len(runes) && (runes[start] == ' ' || runes[start] == '\t') {
		start++
	}
	text := strings.TrimRightFunc(string(runes[start:]), unicode.IsSpace)
	if text == "" {
		return
	}
	l.emit(Token{Kind: TokenRawText, Text: text, Location: l.loc(n, start+1), Indent: indent})
}

// lexStructured lexes one structured line. Header lines that open a block
// body push the corresponding raw-line mode.
func (l *Lexer) lexStructured(n int, runes []rune, indent int) {
	trimmed := strings.TrimSpace(string(runes))
	word, rest := firstWord(trimmed)
	upper := strings.ToUpper(word)
	wordEnd := indent + utf8.RuneCountInString(word)

	switch upper {
	case "SOURCE", "ITEM", "ONTOLOGY":
		if isFieldsSection(rest) {
			break
		}
		l.emit(Token{Kind: TokenRecord, Text: word, Value: upper, Location: l.loc(n, indent+1), Indent: indent})
		if upper == "ONTOLOGY" {
			l.emitRest(n, runes, wordEnd, indent)
		} else {
			l.scan(n, runes, wordEnd, false)
		}
		l.newline(n, runes)
		l.push(modeFieldBody, upper)
		return

	case "METADATA", "VALUES", "RELATIONS":
		if rest != "" {
			break
		}
		l.emit(Token{Kind: TokenKeyword, Text: word, Value: upper, Location: l.loc(n, indent+1), Indent: indent})
		l.newline(n, runes)
		l.push(modeEntries, upper)
		return

	case "DESCRIPTION":
		l.emit(Token{Kind: TokenKeyword, Text: word, Value: upper, Location: l.loc(n, indent+1), Indent: indent})
		if rest == "" {
			l.newline(n, runes)
			l.push(modeRawBlock, upper)
			return
		}
		l.emitRest(n, runes, wordEnd, indent)
		l.newline(n, runes)
		return
	}

	l.scan(n, runes, indent, false)
	l.newline(n, runes)
}

// scan tokenizes runes[from:] in structured mode. With entries set, the
// text after the first ':' is emitted as raw text.
func (l *Lexer) scan(n int, runes []rune, from int, entries bool) {
	indent := leadingSpace(runes)
	i := from
	for i < len(runes) {
		r := runes[i]
		col := i + 1
		switch {
		case r == ' ' || r == '\t':
			i++

		case r == '#':
			return

		case r == ':':
			l.emit(Token{Kind: TokenColon, Text: ":", Location: l.loc(n, col), Indent: indent})
			if entries {
				l.emitRest(n, runes, i+1, indent)
				return
			}
			i++

		case isIdentStart(r):
			j := i + 1
			for j < len(runes) && isIdentPart(runes[j]) && !isArrowAt(runes, j) {
				j++
			}
			word := string(runes[i:j])
			if upper := strings.ToUpper(word); keywords[upper] {
				l.emit(Token{Kind: TokenKeyword, Text: word, Value: upper, Location: l.loc(n, col), Indent: indent})
			} else {
				l.emit(Token{Kind: TokenIdent, Text: word, Location: l.loc(n, col), Indent: indent})
			}
			i = j

		case isDigit(r) || (r == '-' && i+1 < len(runes) && isDigit(runes[i+1])):
			j := i + 1
			for j < len(runes) && isDigit(runes[j]) {
				j++
			}
			if j+1 < len(runes) && runes[j] == '.' && isDigit(runes[j+1]) {
				j++
				for j < len(runes) && isDigit(runes[j]) {
					j++
				}
			}
			l.emit(Token{Kind: TokenNumber, Text: string(runes[i:j]), Location: l.loc(n, col), Indent: indent})
			i = j

		case r == '"':
			i = l.scanString(n, runes, i, indent)

		case r == '@':
			j := i + 1
			for j < len(runes) && !unicode.IsSpace(runes[j]) && runes[j] != ',' && runes[j] != '#' {
				j++
			}
			if j == i+1 {
				l.illegal(n, col, "@", "empty bibliographic reference", indent)
			} else {
				l.emit(Token{Kind: TokenBibref, Text: string(runes[i:j]), Value: string(runes[i+1 : j]), Location: l.loc(n, col), Indent: indent})
			}
			i = j

		case isArrowAt(runes, i):
			l.emit(Token{Kind: TokenArrow, Text: "->", Location: l.loc(n, col), Indent: indent})
			i += 2

		case r == ',':
			l.emit(Token{Kind: TokenComma, Text: ",", Location: l.loc(n, col), Indent: indent})
			i++

		case r == '[':
			l.emit(Token{Kind: TokenLBracket, Text: "[", Location: l.loc(n, col), Indent: indent})
			i++

		case r == ']':
			l.emit(Token{Kind: TokenRBracket, Text: "]", Location: l.loc(n, col), Indent: indent})
			i++

		case r == '.' && i+1 < len(runes) && runes[i+1] == '.':
			l.emit(Token{Kind: TokenRange, Text: "..", Location: l.loc(n, col), Indent: indent})
			i += 2

		case r == '>' || r == '<' || r == '=':
			j := i + 1
			if r != '=' && j < len(runes) && runes[j] == '=' {
				j++
			}
			l.emit(Token{Kind: TokenComparator, Text: string(runes[i:j]), Location: l.loc(n, col), Indent: indent})
			i = j

		default:
			l.illegal(n, col, string(r), fmt.Sprintf("unexpected character %q", r), indent)
			i++
		}
	}
}

// scanString lexes a double-quoted string starting at runes[start] and
// returns the index after it. Strings do not span lines.
func (l *Lexer) scanString(n int, runes []rune, start, indent int) int {
	var sb strings.Builder
	i := start + 1
	for i < len(runes) {
		switch runes[i] {
		case '\\':
			if i+1 < len(runes) {
				sb.WriteRune(runes[i+1])
				i += 2
				continue
			}
			i++
		case '"':
			l.emit(Token{
				Kind:     TokenString,
				Text:     string(runes[start : i+1]),
				Value:    sb.String(),
				Location: l.loc(n, start+1),
				Indent:   indent,
			})
			return i + 1
		default:
			sb.WriteRune(runes[i])
			i++
		}
	}
	l.illegal(n, start+1, string(runes[start:]), "unterminated string", indent)
	return len(runes)
}

func (l *Lexer) illegal(n, col int, span, message string, indent int) {
	loc := l.loc(n, col)
	l.emit(Token{
		Kind:     TokenIllegal,
		Text:     span,
		Location: loc,
		Indent:   indent,
		Err:      &errors.LexError{Location: loc, Span: span, Message: message},
	})
}

func leadingSpace(runes []rune) int {
	i := 0
	for i < len(runes) && (runes[i] == ' ' || runes[i] == '\t') {
		i++
	}
	return i
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isArrowAt(runes []rune, i int) bool {
	return i+1 < len(runes) && runes[i] == '-' && runes[i+1] == '>'
}
