package parser

import (
	"fmt"
	"os"

	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/errors"
	"synesis-hq/synesis/pkg/syn/lexer"
)

// Parser parses Synesis documents into parse trees.
// It is safe for concurrent use; every call works on its own state.
type Parser struct {
	maxFileSize int64 // Maximum document size in bytes (default: 10MB)
}

// NewParser creates a new parser with default configuration.
func NewParser() *Parser {
	return &Parser{
		maxFileSize: 10 * 1024 * 1024, // 10MB
	}
}

// WithMaxFileSize sets the maximum document size limit.
func (p *Parser) WithMaxFileSize(size int64) *Parser {
	p.maxFileSize = size
	return p
}

// Parse reads the document at path and parses it.
// The returned error is non-nil only for fatal input problems; syntax
// problems are reported in the diagnostic list and the blocks that parsed
// cleanly are still returned.
func (p *Parser) Parse(path string) (*File, *errors.DiagnosticList, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, errors.NewFatalError(path, err)
	}
	if info.Size() > p.maxFileSize {
		return nil, nil, errors.NewFatalError(path,
			fmt.Errorf("%w: %d > %d bytes", errors.ErrFileTooLarge, info.Size(), p.maxFileSize))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.NewFatalError(path, err)
	}
	return p.ParseBytes(data, path)
}

// ParseBytes parses a document held in memory. path identifies the
// document in locations.
func (p *Parser) ParseBytes(data []byte, path string) (*File, *errors.DiagnosticList, error) {
	if int64(len(data)) > p.maxFileSize {
		return nil, nil, errors.NewFatalError(path,
			fmt.Errorf("%w: %d > %d bytes", errors.ErrFileTooLarge, len(data), p.maxFileSize))
	}

	tokens, err := lexer.Tokenize(path, data)
	if err != nil {
		return nil, nil, err
	}

	ps := &parser{
		path:   path,
		tokens: tokens,
		diags:  errors.NewDiagnosticList(),
	}
	return ps.parseFile(), ps.diags, nil
}

// ParseDocument parses data and builds its typed document in one step.
// Parse and build diagnostics are returned together.
func (p *Parser) ParseDocument(data []byte, path string, resolver FieldResolver) (*ast.Document, *errors.DiagnosticList, error) {
	file, diags, err := p.ParseBytes(data, path)
	if err != nil {
		return nil, nil, err
	}
	doc, buildDiags := Build(file, resolver)
	diags.Merge(buildDiags)
	return doc, diags, nil
}

// parser is the state of one LL(1) pass over a token stream.
type parser struct {
	path   string
	tokens []lexer.Token
	pos    int
	start  int // Index of the head token of the current top-level block
	diags  *errors.DiagnosticList
}

func (p *parser) peek() lexer.Token {
	return p.tokens[p.pos]
}

// peekAt returns the token n positions ahead, or EOF.
func (p *parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *parser) next() lexer.Token {
	tok := p.tokens[p.pos]
	if tok.Kind != lexer.TokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) at(kind lexer.TokenKind) bool {
	return p.peek().Kind == kind
}

// unexpected builds the error for the current token. Illegal tokens yield
// their lexical error instead of a parse error.
func (p *parser) unexpected(expected ...string) error {
	tok := p.peek()
	if tok.Kind == lexer.TokenIllegal && tok.Err != nil {
		return tok.Err
	}
	return &errors.ParseError{
		Location: tok.Location,
		Expected: expected,
		Found:    tok.Describe(),
	}
}

func (p *parser) expect(kind lexer.TokenKind) (lexer.Token, error) {
	if !p.at(kind) {
		return lexer.Token{}, p.unexpected(kind.String())
	}
	return p.next(), nil
}

func (p *parser) expectKeyword(kw string) (lexer.Token, error) {
	if !p.peek().IsKeyword(kw) {
		return lexer.Token{}, p.unexpected("'" + kw + "'")
	}
	return p.next(), nil
}

// expectName accepts an identifier or a keyword used as a name, such as a
// field called "code".
func (p *parser) expectName(what string) (lexer.Token, error) {
	switch p.peek().Kind {
	case lexer.TokenIdent, lexer.TokenKeyword:
		return p.next(), nil
	}
	return lexer.Token{}, p.unexpected(what)
}

// expectNewline consumes the end of a line. EOF also ends a line.
func (p *parser) expectNewline() error {
	switch p.peek().Kind {
	case lexer.TokenNewline:
		p.next()
		return nil
	case lexer.TokenEOF:
		return nil
	}
	return p.unexpected(lexer.TokenNewline.String())
}

// expectEnd consumes "END <kw>" and the end of the line.
func (p *parser) expectEnd(kw string) error {
	if _, err := p.expectKeyword("END"); err != nil {
		return err
	}
	if _, err := p.expectKeyword(kw); err != nil {
		return err
	}
	return p.expectNewline()
}

func (p *parser) report(err error) {
	switch e := err.(type) {
	case *errors.LexError:
		p.diags.Add(e.Diagnostic())
	case *errors.ParseError:
		p.diags.Add(e.Diagnostic())
	default:
		p.diags.Addf(errors.KindParseError, p.peek().Location, "%v", err)
	}
}

// atBlockStart reports whether the current token opens a top-level block.
func (p *parser) atBlockStart() bool {
	tok := p.peek()
	if !tok.LineStart {
		return false
	}
	switch {
	case tok.Kind == lexer.TokenRecord:
		return tok.Value != "ITEM" || tok.Indent == 0
	case tok.IsKeyword("PROJECT"):
		return true
	case tok.IsKeyword("TEMPLATE"):
		return p.peekAt(1).Kind == lexer.TokenIdent
	}
	return false
}

// sync skips to the next top-level block after an error in the current one.
func (p *parser) sync() {
	if p.pos == p.start {
		p.next()
	}
	for !p.at(lexer.TokenEOF) && !p.atBlockStart() {
		p.next()
	}
}

func (p *parser) parseFile() *File {
	file := &File{Path: p.path}
	for {
		switch tok := p.peek(); {
		case tok.Kind == lexer.TokenEOF:
			return file
		case tok.Kind == lexer.TokenNewline:
			p.next()
		default:
			p.start = p.pos
			block, err := p.parseBlock()
			if err != nil {
				p.report(err)
				p.sync()
				continue
			}
			file.Blocks = append(file.Blocks, block)
		}
	}
}

func (p *parser) parseBlock() (Block, error) {
	tok := p.peek()
	switch {
	case tok.IsKeyword("PROJECT"):
		return p.parseProject()
	case tok.IsKeyword("TEMPLATE"):
		return p.parseTemplate()
	case tok.Kind == lexer.TokenRecord:
		return p.parseRecord(false)
	}
	return nil, p.unexpected("'PROJECT'", "'TEMPLATE'", "'SOURCE'", "'ITEM'", "'ONTOLOGY'")
}

// parseEntries parses the entry lines of a METADATA, VALUES or RELATIONS
// list up to and including its END line. The list keyword has been consumed.
func (p *parser) parseEntries(block string) ([]*Entry, error) {
	if err := p.expectNewline(); err != nil {
		return nil, err
	}

	var entries []*Entry
	for {
		tok := p.peek()
		switch {
		case tok.Kind == lexer.TokenNewline:
			p.next()
		case tok.IsKeyword("END"):
			return entries, p.expectEnd(block)
		case tok.Kind == lexer.TokenEOF:
			return nil, p.unexpected("entry", "'END "+block+"'")
		default:
			entry, err := p.parseEntry()
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
	}
}

func (p *parser) parseEntry() (*Entry, error) {
	entry := &Entry{Location: p.peek().Location}

	if p.at(lexer.TokenLBracket) {
		p.next()
		index, err := p.expect(lexer.TokenNumber)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRBracket); err != nil {
			return nil, err
		}
		entry.Index = &index
	}

	switch p.peek().Kind {
	case lexer.TokenIdent, lexer.TokenKeyword, lexer.TokenNumber, lexer.TokenString:
		entry.Name = p.next()
	default:
		return nil, p.unexpected("entry name")
	}

	if p.at(lexer.TokenColon) {
		p.next()
		if p.at(lexer.TokenRawText) {
			text := p.next()
			entry.Text = &text
		}
	}
	return entry, p.expectNewline()
}

// parseDescription parses "DESCRIPTION text" or a DESCRIPTION block.
func (p *parser) parseDescription() ([]lexer.Token, error) {
	p.next()
	if p.at(lexer.TokenRawText) {
		line := p.next()
		return []lexer.Token{line}, p.expectNewline()
	}
	if err := p.expectNewline(); err != nil {
		return nil, err
	}

	var lines []lexer.Token
	for p.at(lexer.TokenRawText) {
		lines = append(lines, p.next())
		if err := p.expectNewline(); err != nil {
			return nil, err
		}
	}
	if !p.peek().IsKeyword("END") {
		return nil, p.unexpected("'END DESCRIPTION'")
	}
	return lines, p.expectEnd("DESCRIPTION")
}
