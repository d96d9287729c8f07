package lexer

import (
	"fmt"

	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/errors"
)

// TokenKind is the lexical category of a token.
type TokenKind int

const (
	TokenEOF        TokenKind = iota // End of input
	TokenIllegal                     // Unlexable characters; carries a LexError
	TokenNewline                     // End of a line that produced tokens
	TokenKeyword                     // Reserved word, matched case-insensitively
	TokenRecord                      // SOURCE, ITEM or ONTOLOGY opening a field body
	TokenIdent                       // Identifier
	TokenString                      // "quoted string"
	TokenNumber                      // 12 or 1.5
	TokenBibref                      // @key
	TokenArrow                       // ->
	TokenComma                       // ,
	TokenColon                       // :
	TokenLBracket                    // [
	TokenRBracket                    // ]
	TokenRange                       // ..
	TokenComparator                  // = >= <= > <
	TokenFieldName                   // name before ':' in a field body
	TokenRawText                     // Untokenized rest of a line
)

var tokenNames = map[TokenKind]string{
	TokenEOF:        "end of file",
	TokenIllegal:    "illegal character",
	TokenNewline:    "end of line",
	TokenKeyword:    "keyword",
	TokenRecord:     "block keyword",
	TokenIdent:      "identifier",
	TokenString:     "string",
	TokenNumber:     "number",
	TokenBibref:     "bibliographic reference",
	TokenArrow:      "'->'",
	TokenComma:      "','",
	TokenColon:      "':'",
	TokenLBracket:   "'['",
	TokenRBracket:   "']'",
	TokenRange:      "'..'",
	TokenComparator: "comparator",
	TokenFieldName:  "field name",
	TokenRawText:    "text",
}

// String returns a human-readable name of the kind.
func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// Token is a lexical unit with its literal text and position.
type Token struct {
	Kind TokenKind
	// Text is the literal as written (strings keep their quotes).
	Text string
	// Value is the normalized payload: upper-case keyword, unquoted string,
	// bibliographic key without '@'. Otherwise equal to Text.
	Value    string
	Location ast.Location
	// Indent is the width of the leading whitespace of the token's line.
	Indent int
	// LineStart is set on the first token of each physical line.
	LineStart bool
	// Err is set on TokenIllegal tokens.
	Err *errors.LexError
}

// IsKeyword reports whether the token is the given keyword (upper-case).
func (t Token) IsKeyword(kw string) bool {
	return (t.Kind == TokenKeyword || t.Kind == TokenRecord) && t.Value == kw
}

// Describe renders the token for "found ..." parse messages.
func (t Token) Describe() string {
	switch t.Kind {
	case TokenEOF, TokenNewline:
		return t.Kind.String()
	case TokenKeyword, TokenRecord:
		return fmt.Sprintf("keyword '%s'", t.Value)
	case TokenRawText:
		return fmt.Sprintf("text %q", truncate(t.Text, 24))
	default:
		return fmt.Sprintf("%s '%s'", t.Kind, t.Text)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
