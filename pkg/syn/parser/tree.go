package parser

import (
	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/lexer"
)

// The parse tree mirrors the concrete syntax. It keeps the tokens the AST
// builder needs to recompute exact positions; nothing in it is typed yet.

// File is the parse tree of one document.
type File struct {
	Path   string
	Blocks []Block
}

// Block is one top-level construct of a document.
type Block interface {
	Pos() ast.Location
	block()
}

// ProjectBlock is a PROJECT ... END PROJECT block.
type ProjectBlock struct {
	Name        lexer.Token
	Template    *lexer.Token // String token
	Includes    []*IncludeDecl
	Metadata    []*Entry
	Description []lexer.Token // Raw lines
	Location    ast.Location
}

// IncludeDecl is an INCLUDE line.
type IncludeDecl struct {
	Kind     lexer.Token
	Path     lexer.Token
	Location ast.Location
}

// TemplateBlock is a TEMPLATE block with its sections and FIELD definitions.
type TemplateBlock struct {
	Name     lexer.Token
	Sections []*SectionBlock
	Fields   []*FieldBlock
	Location ast.Location
}

// SectionBlock is a "<scope> FIELDS ... END <scope> FIELDS" section.
type SectionBlock struct {
	Scope    lexer.Token
	Clauses  []*ClauseDecl
	Location ast.Location
}

// ClauseDecl is one cardinality line inside a section.
type ClauseDecl struct {
	Cardinality lexer.Token
	Bundle      bool
	Names       []lexer.Token
	Location    ast.Location
}

// FieldBlock is a FIELD ... END FIELD definition.
type FieldBlock struct {
	Name        lexer.Token
	Type        *lexer.Token
	Scope       *lexer.Token
	Format      *FormatDecl
	Arity       *ArityDecl
	Values      []*Entry
	Relations   []*Entry
	Description []lexer.Token
	Location    ast.Location
}

// FormatDecl is "FORMAT [min..max]".
type FormatDecl struct {
	Min      lexer.Token
	Max      lexer.Token
	Location ast.Location
}

// ArityDecl is "ARITY <op> <n>".
type ArityDecl struct {
	Op       lexer.Token
	Count    lexer.Token
	Location ast.Location
}

// Entry is one "[index] name: text" line of a METADATA, VALUES or RELATIONS
// list. Index and Text are optional.
type Entry struct {
	Index    *lexer.Token
	Name     lexer.Token
	Text     *lexer.Token
	Location ast.Location
}

// RecordBlock is a SOURCE, ITEM or ONTOLOGY block.
type RecordBlock struct {
	Keyword string // SOURCE, ITEM or ONTOLOGY
	// Bibref is set for SOURCE and ITEM headers that carry one.
	Bibref *lexer.Token
	// Concept is the raw concept name of an ONTOLOGY header.
	Concept *lexer.Token
	Fields  []*FieldEntry
	// Items holds ITEM blocks nested in a SOURCE.
	Items    []*RecordBlock
	Nested   bool
	Location ast.Location
}

// FieldEntry is one "name: value" field with its continuation lines.
// Lines holds the raw tokens in order: the inline value first, when present.
type FieldEntry struct {
	Name     lexer.Token
	Lines    []lexer.Token
	Location ast.Location
}

// Inline reports whether the first line follows the colon.
func (f *FieldEntry) Inline() bool {
	return len(f.Lines) > 0 && f.Lines[0].Location.Line == f.Name.Location.Line
}

func (b *ProjectBlock) Pos() ast.Location  { return b.Location }
func (b *TemplateBlock) Pos() ast.Location { return b.Location }
func (b *RecordBlock) Pos() ast.Location   { return b.Location }

func (*ProjectBlock) block()  {}
func (*TemplateBlock) block() {}
func (*RecordBlock) block()   {}
