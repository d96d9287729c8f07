// Package bib loads BibTeX-like bibliographies and resolves the
// bibliographic references used by SOURCE and ITEM blocks.
//
// Keys are normalized (trimmed, lower-cased) so that "@Smith2024",
// "smith2024" and " SMITH2024 " resolve to the same entry. Unresolved
// references get a "Did you mean" suggestion from the nearest known key.
package bib
