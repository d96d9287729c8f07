package lexer

import "strings"

var keywords = map[string]bool{
	"PROJECT":      true,
	"TEMPLATE":     true,
	"INCLUDE":      true,
	"BIBLIOGRAPHY": true,
	"ANNOTATIONS":  true,
	"ONTOLOGY":     true,
	"METADATA":     true,
	"DESCRIPTION":  true,
	"END":          true,
	"SOURCE":       true,
	"ITEM":         true,
	"FIELDS":       true,
	"FIELD":        true,
	"REQUIRED":     true,
	"OPTIONAL":     true,
	"FORBIDDEN":    true,
	"BUNDLE":       true,
	"TYPE":         true,
	"SCOPE":        true,
	"FORMAT":       true,
	"ARITY":        true,
	"VALUES":       true,
	"RELATIONS":    true,
	"QUOTATION":    true,
	"MEMO":         true,
	"CODE":         true,
	"CHAIN":        true,
	"TEXT":         true,
	"DATE":         true,
	"SCALE":        true,
	"ENUMERATED":   true,
	"ORDERED":      true,
	"TOPIC":        true,
}

// IsKeyword reports whether word (any case) is reserved.
func IsKeyword(word string) bool {
	return keywords[strings.ToUpper(word)]
}

// firstWord splits s (already left-trimmed) at the first whitespace.
func firstWord(s string) (word, rest string) {
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i:])
	}
	return s, ""
}

// isEndLine reports whether trimmed is exactly "END <block>".
func isEndLine(trimmed, block string) bool {
	word, rest := firstWord(trimmed)
	if !strings.EqualFold(word, "END") {
		return false
	}
	kw, tail := firstWord(rest)
	return strings.EqualFold(kw, block) && tail == ""
}

// isFieldsSection reports whether the words after a scope keyword open a
// template FIELDS section rather than a record body.
func isFieldsSection(rest string) bool {
	word, _ := firstWord(rest)
	return strings.EqualFold(word, "FIELDS")
}
