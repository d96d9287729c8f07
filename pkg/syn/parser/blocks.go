package parser

import (
	"synesis-hq/synesis/pkg/syn/lexer"
)

// parseProject parses
//
//	PROJECT name
//	    TEMPLATE "path"
//	    INCLUDE BIBLIOGRAPHY|ANNOTATIONS|ONTOLOGY "path"
//	    METADATA ... END METADATA
//	    DESCRIPTION ... END DESCRIPTION
//	END PROJECT
func (p *parser) parseProject() (*ProjectBlock, error) {
	head := p.next()
	block := &ProjectBlock{Location: head.Location}

	switch p.peek().Kind {
	case lexer.TokenIdent, lexer.TokenString:
		block.Name = p.next()
	default:
		return nil, p.unexpected("project name")
	}
	if err := p.expectNewline(); err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		switch {
		case tok.Kind == lexer.TokenNewline:
			p.next()

		case tok.IsKeyword("TEMPLATE"):
			p.next()
			path, err := p.expect(lexer.TokenString)
			if err != nil {
				return nil, err
			}
			if err := p.expectNewline(); err != nil {
				return nil, err
			}
			block.Template = &path

		case tok.IsKeyword("INCLUDE"):
			p.next()
			include := &IncludeDecl{Location: tok.Location}
			kind := p.peek()
			if !kind.IsKeyword("BIBLIOGRAPHY") && !kind.IsKeyword("ANNOTATIONS") && !kind.IsKeyword("ONTOLOGY") {
				return nil, p.unexpected("'BIBLIOGRAPHY'", "'ANNOTATIONS'", "'ONTOLOGY'")
			}
			include.Kind = p.next()
			path, err := p.expect(lexer.TokenString)
			if err != nil {
				return nil, err
			}
			include.Path = path
			if err := p.expectNewline(); err != nil {
				return nil, err
			}
			block.Includes = append(block.Includes, include)

		case tok.IsKeyword("METADATA"):
			p.next()
			entries, err := p.parseEntries("METADATA")
			if err != nil {
				return nil, err
			}
			block.Metadata = append(block.Metadata, entries...)

		case tok.IsKeyword("DESCRIPTION"):
			lines, err := p.parseDescription()
			if err != nil {
				return nil, err
			}
			block.Description = append(block.Description, lines...)

		case tok.IsKeyword("END"):
			return block, p.expectEnd("PROJECT")

		default:
			return nil, p.unexpected("'TEMPLATE'", "'INCLUDE'", "'METADATA'", "'DESCRIPTION'", "'END PROJECT'")
		}
	}
}

// parseTemplate parses a TEMPLATE header followed by FIELDS sections and
// FIELD definitions. END TEMPLATE is optional; the template also ends at EOF
// or at the start of another top-level block. A broken section or FIELD is
// reported and skipped without abandoning the rest of the template.
func (p *parser) parseTemplate() (*TemplateBlock, error) {
	head := p.next()
	block := &TemplateBlock{Location: head.Location}

	switch p.peek().Kind {
	case lexer.TokenIdent, lexer.TokenString:
		block.Name = p.next()
	default:
		return nil, p.unexpected("template name")
	}
	if err := p.expectNewline(); err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		switch {
		case tok.Kind == lexer.TokenNewline:
			p.next()

		case tok.Kind == lexer.TokenEOF:
			return block, nil

		case tok.IsKeyword("END") && p.peekAt(1).IsKeyword("TEMPLATE"):
			return block, p.expectEnd("TEMPLATE")

		case p.atSectionStart():
			section, err := p.parseSection()
			if err != nil {
				p.report(err)
				p.syncTemplate()
				continue
			}
			block.Sections = append(block.Sections, section)

		case tok.IsKeyword("FIELD"):
			field, err := p.parseFieldBlock()
			if err != nil {
				p.report(err)
				p.syncTemplate()
				continue
			}
			block.Fields = append(block.Fields, field)

		case p.atBlockStart():
			return block, nil

		default:
			p.report(p.unexpected("'SOURCE FIELDS'", "'ITEM FIELDS'", "'ONTOLOGY FIELDS'", "'FIELD'", "'END TEMPLATE'"))
			p.syncTemplate()
		}
	}
}

func (p *parser) atSectionStart() bool {
	tok := p.peek()
	if !tok.IsKeyword("SOURCE") && !tok.IsKeyword("ITEM") && !tok.IsKeyword("ONTOLOGY") {
		return false
	}
	return p.peekAt(1).IsKeyword("FIELDS")
}

// syncTemplate skips to the next section, FIELD or template end.
func (p *parser) syncTemplate() {
	p.next()
	for !p.at(lexer.TokenEOF) {
		tok := p.peek()
		if tok.LineStart && (tok.IsKeyword("FIELD") || p.atSectionStart() || p.atBlockStart() ||
			(tok.IsKeyword("END") && p.peekAt(1).IsKeyword("TEMPLATE"))) {
			return
		}
		p.next()
	}
}

// parseSection parses
//
//	<scope> FIELDS
//	    REQUIRED|OPTIONAL|FORBIDDEN [BUNDLE] name, name ...
//	END <scope> FIELDS
func (p *parser) parseSection() (*SectionBlock, error) {
	scope := p.next()
	p.next() // FIELDS
	section := &SectionBlock{Scope: scope, Location: scope.Location}
	if err := p.expectNewline(); err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		switch {
		case tok.Kind == lexer.TokenNewline:
			p.next()

		case tok.IsKeyword("REQUIRED"), tok.IsKeyword("OPTIONAL"), tok.IsKeyword("FORBIDDEN"):
			clause, err := p.parseClause()
			if err != nil {
				return nil, err
			}
			section.Clauses = append(section.Clauses, clause)

		case tok.IsKeyword("END"):
			p.next()
			if _, err := p.expectKeyword(scope.Value); err != nil {
				return nil, err
			}
			if _, err := p.expectKeyword("FIELDS"); err != nil {
				return nil, err
			}
			return section, p.expectNewline()

		default:
			return nil, p.unexpected("'REQUIRED'", "'OPTIONAL'", "'FORBIDDEN'", "'END "+scope.Value+" FIELDS'")
		}
	}
}

func (p *parser) parseClause() (*ClauseDecl, error) {
	card := p.next()
	clause := &ClauseDecl{Cardinality: card, Location: card.Location}

	if p.peek().IsKeyword("BUNDLE") {
		p.next()
		clause.Bundle = true
	}

	for {
		name, err := p.expectName("field name")
		if err != nil {
			return nil, err
		}
		clause.Names = append(clause.Names, name)
		if !p.at(lexer.TokenComma) {
			break
		}
		p.next()
	}
	return clause, p.expectNewline()
}

// parseFieldBlock parses
//
//	FIELD name [TYPE type] [SCOPE scope]
//	    TYPE type | SCOPE scope
//	    FORMAT [min..max]
//	    ARITY <op> <n>
//	    VALUES ... END VALUES
//	    RELATIONS ... END RELATIONS
//	    DESCRIPTION ...
//	END FIELD
func (p *parser) parseFieldBlock() (*FieldBlock, error) {
	head := p.next()
	field := &FieldBlock{Location: head.Location}

	name, err := p.expectName("field name")
	if err != nil {
		return nil, err
	}
	field.Name = name

	for !p.at(lexer.TokenNewline) && !p.at(lexer.TokenEOF) {
		if err := p.parseFieldAttribute(field); err != nil {
			return nil, err
		}
	}
	if err := p.expectNewline(); err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		switch {
		case tok.Kind == lexer.TokenNewline:
			p.next()

		case tok.IsKeyword("TYPE"), tok.IsKeyword("SCOPE"):
			if err := p.parseFieldAttribute(field); err != nil {
				return nil, err
			}
			if err := p.expectNewline(); err != nil {
				return nil, err
			}

		case tok.IsKeyword("FORMAT"):
			format, err := p.parseFormat()
			if err != nil {
				return nil, err
			}
			field.Format = format

		case tok.IsKeyword("ARITY"):
			p.next()
			arity := &ArityDecl{Location: tok.Location}
			if arity.Op, err = p.expect(lexer.TokenComparator); err != nil {
				return nil, err
			}
			if arity.Count, err = p.expect(lexer.TokenNumber); err != nil {
				return nil, err
			}
			if err := p.expectNewline(); err != nil {
				return nil, err
			}
			field.Arity = arity

		case tok.IsKeyword("VALUES"):
			p.next()
			values, err := p.parseEntries("VALUES")
			if err != nil {
				return nil, err
			}
			field.Values = append(field.Values, values...)

		case tok.IsKeyword("RELATIONS"):
			p.next()
			relations, err := p.parseEntries("RELATIONS")
			if err != nil {
				return nil, err
			}
			field.Relations = append(field.Relations, relations...)

		case tok.IsKeyword("DESCRIPTION"):
			lines, err := p.parseDescription()
			if err != nil {
				return nil, err
			}
			field.Description = append(field.Description, lines...)

		case tok.IsKeyword("END"):
			return field, p.expectEnd("FIELD")

		default:
			return nil, p.unexpected("'TYPE'", "'SCOPE'", "'FORMAT'", "'ARITY'", "'VALUES'",
				"'RELATIONS'", "'DESCRIPTION'", "'END FIELD'")
		}
	}
}

// parseFieldAttribute parses "TYPE <type>" or "SCOPE <scope>".
func (p *parser) parseFieldAttribute(field *FieldBlock) error {
	tok := p.peek()
	switch {
	case tok.IsKeyword("TYPE"):
		p.next()
		value, err := p.expectName("field type")
		if err != nil {
			return err
		}
		field.Type = &value
	case tok.IsKeyword("SCOPE"):
		p.next()
		value, err := p.expectName("scope")
		if err != nil {
			return err
		}
		field.Scope = &value
	default:
		return p.unexpected("'TYPE'", "'SCOPE'")
	}
	return nil
}

// parseFormat parses "FORMAT [min..max]".
func (p *parser) parseFormat() (*FormatDecl, error) {
	head := p.next()
	format := &FormatDecl{Location: head.Location}

	var err error
	if _, err = p.expect(lexer.TokenLBracket); err != nil {
		return nil, err
	}
	if format.Min, err = p.expect(lexer.TokenNumber); err != nil {
		return nil, err
	}
	if _, err = p.expect(lexer.TokenRange); err != nil {
		return nil, err
	}
	if format.Max, err = p.expect(lexer.TokenNumber); err != nil {
		return nil, err
	}
	if _, err = p.expect(lexer.TokenRBracket); err != nil {
		return nil, err
	}
	return format, p.expectNewline()
}

// parseRecord parses a SOURCE, ITEM or ONTOLOGY block. Top-level SOURCE and
// ITEM headers require a bibliographic reference; nested ITEMs inherit the
// one of their SOURCE.
func (p *parser) parseRecord(nested bool) (*RecordBlock, error) {
	head := p.next()
	record := &RecordBlock{Keyword: head.Value, Nested: nested, Location: head.Location}

	switch head.Value {
	case "SOURCE", "ITEM":
		if p.at(lexer.TokenBibref) {
			ref := p.next()
			record.Bibref = &ref
		} else if !nested {
			return nil, p.unexpected(lexer.TokenBibref.String())
		}
	case "ONTOLOGY":
		if !p.at(lexer.TokenRawText) {
			return nil, p.unexpected("concept name")
		}
		concept := p.next()
		record.Concept = &concept
	}
	if err := p.expectNewline(); err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		switch {
		case tok.Kind == lexer.TokenNewline:
			p.next()

		case tok.Kind == lexer.TokenFieldName:
			entry, err := p.parseFieldEntry()
			if err != nil {
				return nil, err
			}
			record.Fields = append(record.Fields, entry)

		case tok.Kind == lexer.TokenRecord && tok.Value == "ITEM" && record.Keyword == "SOURCE" && !nested:
			item, err := p.parseRecord(true)
			if err != nil {
				return nil, err
			}
			record.Items = append(record.Items, item)

		case tok.IsKeyword("END"):
			return record, p.expectEnd(record.Keyword)

		default:
			return nil, p.unexpected("field name", "'END "+record.Keyword+"'")
		}
	}
}

// parseFieldEntry parses "name: value" and its continuation lines.
func (p *parser) parseFieldEntry() (*FieldEntry, error) {
	name := p.next()
	entry := &FieldEntry{Name: name, Location: name.Location}

	if _, err := p.expect(lexer.TokenColon); err != nil {
		return nil, err
	}
	if p.at(lexer.TokenRawText) {
		entry.Lines = append(entry.Lines, p.next())
	}
	if err := p.expectNewline(); err != nil {
		return nil, err
	}

	for p.at(lexer.TokenRawText) && p.peek().LineStart {
		entry.Lines = append(entry.Lines, p.next())
		if err := p.expectNewline(); err != nil {
			return nil, err
		}
	}
	return entry, nil
}
