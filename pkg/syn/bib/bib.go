package bib

import (
	"fmt"
	"sort"
	"strings"

	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/errors"
)

// DefaultSuggestionDistance is the largest edit distance at which an
// unresolved reference gets a "Did you mean" suggestion.
const DefaultSuggestionDistance = 3

// NormalizeKey is the canonical form of a bibliography key: trimmed and
// lower-cased.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// NormalizeRef converts a reference as written in annotations ("@Key" or
// "Key") to its canonical key.
func NormalizeRef(ref string) string {
	return NormalizeKey(strings.TrimPrefix(strings.TrimSpace(ref), "@"))
}

// Bibliography is the set of entries of one compilation, indexed by
// normalized key. It is read-only after loading.
type Bibliography struct {
	entries map[string]*ast.BibliographyEntry
	keys    []string // Normalized keys in load order
}

// New creates an empty bibliography.
func New() *Bibliography {
	return &Bibliography{entries: make(map[string]*ast.BibliographyEntry)}
}

// Add stores an entry. A second entry with the same normalized key is
// reported as DuplicateBibKey and not stored.
func (b *Bibliography) Add(entry *ast.BibliographyEntry, diags *errors.DiagnosticList) bool {
	if prev, ok := b.entries[entry.Key]; ok {
		diags.Addf(errors.KindDuplicateBibKey, entry.Location,
			"duplicate bibliography key '%s' (first defined as '%s' at %s)", entry.OriginalKey, prev.OriginalKey, prev.Location)
		return false
	}
	b.entries[entry.Key] = entry
	b.keys = append(b.keys, entry.Key)
	return true
}

// Merge adds every entry of other, reporting duplicates.
func (b *Bibliography) Merge(other *Bibliography, diags *errors.DiagnosticList) {
	for _, key := range other.keys {
		b.Add(other.entries[key], diags)
	}
}

// Lookup resolves a reference case-insensitively, with or without '@'.
func (b *Bibliography) Lookup(ref string) (*ast.BibliographyEntry, bool) {
	entry, ok := b.entries[NormalizeRef(ref)]
	return entry, ok
}

// Len returns the number of entries.
func (b *Bibliography) Len() int {
	return len(b.keys)
}

// Keys returns the normalized keys in load order.
func (b *Bibliography) Keys() []string {
	return append([]string(nil), b.keys...)
}

// Entries returns the entries in load order.
func (b *Bibliography) Entries() []*ast.BibliographyEntry {
	out := make([]*ast.BibliographyEntry, len(b.keys))
	for i, k := range b.keys {
		out[i] = b.entries[k]
	}
	return out
}

// Suggest returns the key nearest to ref within maxDistance edits.
// Ties go to the key loaded first.
func (b *Bibliography) Suggest(ref string, maxDistance int) (string, bool) {
	return errors.NearestWithin(NormalizeRef(ref), b.keys, maxDistance)
}

// Citation renders a short "Author (Year)" label for an entry.
func Citation(entry *ast.BibliographyEntry) string {
	author := entry.Fields["author"]
	if i := strings.Index(author, " and "); i >= 0 {
		author = author[:i] + " et al."
	}
	year := entry.Fields["year"]
	switch {
	case author != "" && year != "":
		return fmt.Sprintf("%s (%s)", author, year)
	case author != "":
		return author
	default:
		return entry.OriginalKey
	}
}

// FieldNames returns the sorted field names of an entry.
func FieldNames(entry *ast.BibliographyEntry) []string {
	names := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
