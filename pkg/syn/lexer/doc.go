// Package lexer converts Synesis documents into tokens.
//
// Lexing is line oriented. Structured lines (block headers, template
// clauses, FIELD definitions) are split into keywords, identifiers, strings,
// numbers and punctuation. Keywords match case-insensitively and carry their
// upper-case spelling in Token.Value.
//
// Record bodies switch to raw-line mode. Inside SOURCE, ITEM and ONTOLOGY
// blocks each "name: value" line yields a TokenFieldName, a TokenColon and
// a TokenRawText holding the untouched value; lines indented deeper than the
// field name are continuation lines emitted as TokenRawText. Free text such
// as "n=2383, p<0.05" or "A -> B" therefore never turns into operators at
// this stage. DESCRIPTION blocks and METADATA, VALUES and RELATIONS entry
// lists use similar raw modes.
//
// Every token carries an ast.Location whose column counts runes, so tab
// characters and multi-byte letters occupy one column each.
//
// Basic usage:
//
//	tokens, err := lexer.Tokenize("data/items.syn", src)
//	if err != nil {
//	    // invalid UTF-8 or byte-order mark
//	}
//	for _, tok := range tokens {
//	    if tok.Kind == lexer.TokenIllegal {
//	        fmt.Println(tok.Err)
//	    }
//	}
package lexer
