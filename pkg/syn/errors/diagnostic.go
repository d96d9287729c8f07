package errors

import (
	"fmt"
	"sort"
	"strings"

	"synesis-hq/synesis/pkg/syn/ast"
)

// Severity grades a diagnostic. Only SeverityError fails a compilation
// (unless strict mode also counts warnings).
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Kind categorizes a diagnostic.
type Kind string

const (
	// Lexical and structural
	KindLexError   Kind = "LexError"
	KindParseError Kind = "ParseError"

	// Template loading
	KindTemplateError   Kind = "TemplateError"
	KindDuplicateBibKey Kind = "DuplicateBibKey"

	// Per-node validation
	KindMissingRequiredField   Kind = "MissingRequiredField"
	KindForbiddenFieldPresent  Kind = "ForbiddenFieldPresent"
	KindUnknownField           Kind = "UnknownField"
	KindUnbalancedBundle       Kind = "UnbalancedBundle"
	KindChainArityViolation    Kind = "ChainArityViolation"
	KindUnknownRelation        Kind = "UnknownRelation"
	KindMalformedChain         Kind = "MalformedChain"
	KindInvalidEnumeratedValue Kind = "InvalidEnumeratedValue"
	KindInvalidOrderedValue    Kind = "InvalidOrderedValue"
	KindScaleOutOfRange        Kind = "ScaleOutOfRange"
	KindInvalidFieldType       Kind = "InvalidFieldType"
	KindUnresolvedBibref       Kind = "UnresolvedBibref"
	KindNestedBibrefMismatch   Kind = "NestedBibrefMismatch"
	KindUndefinedCode          Kind = "UndefinedCode"

	// Linking
	KindDuplicateOntologyConcept Kind = "DuplicateOntologyConcept"
	KindDuplicateSource          Kind = "DuplicateSource"
	KindOrphanItem               Kind = "OrphanItem"
	KindSourceWithoutItems       Kind = "SourceWithoutItems"
	KindTopicCycle               Kind = "TopicCycle"
)

// DefaultSeverity returns the severity a kind is reported with.
func DefaultSeverity(kind Kind) Severity {
	switch kind {
	case KindUndefinedCode, KindSourceWithoutItems:
		return SeverityWarning
	}
	return SeverityError
}

// Diagnostic is a single problem found while compiling. It is the only
// channel through which the compiler front end reports problems.
type Diagnostic struct {
	Severity   Severity
	Kind       Kind
	Location   ast.Location
	Message    string
	Suggestion string // Optional
	Context    string // Optional rendered source excerpt
}

// New creates a diagnostic with the kind's default severity.
func New(kind Kind, loc ast.Location, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Severity: DefaultSeverity(kind),
		Kind:     kind,
		Location: loc,
		Message:  fmt.Sprintf(format, args...),
	}
}

// WithSuggestion sets the suggestion and returns d.
func (d *Diagnostic) WithSuggestion(s string) *Diagnostic {
	d.Suggestion = s
	return d
}

// WithSeverity overrides the severity and returns d.
func (d *Diagnostic) WithSeverity(s Severity) *Diagnostic {
	d.Severity = s
	return d
}

// IsError reports whether the diagnostic has error severity.
func (d *Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// Error implements the error interface.
// It returns a formatted message with location, context and suggestion.
func (d *Diagnostic) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s[%s] %s\n", d.Severity, d.Kind, d.Message))

	if d.Location.IsValid() {
		sb.WriteString(fmt.Sprintf("  --> %s\n", d.Location.String()))
	}

	if d.Context != "" {
		sb.WriteString("  |\n")
		sb.WriteString(d.Context)
		sb.WriteString("  |\n")
	}

	if d.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  = suggestion: %s\n", d.Suggestion))
	}

	return sb.String()
}

// DiagnosticList accumulates diagnostics instead of failing on the first one.
type DiagnosticList struct {
	Diagnostics []*Diagnostic
}

// NewDiagnosticList creates a new empty list.
func NewDiagnosticList() *DiagnosticList {
	return &DiagnosticList{
		Diagnostics: make([]*Diagnostic, 0),
	}
}

// Add appends a diagnostic to the list.
func (dl *DiagnosticList) Add(d *Diagnostic) {
	dl.Diagnostics = append(dl.Diagnostics, d)
}

// Addf creates, adds and returns a diagnostic.
func (dl *DiagnosticList) Addf(kind Kind, loc ast.Location, format string, args ...any) *Diagnostic {
	d := New(kind, loc, format, args...)
	dl.Add(d)
	return d
}

// AddWithSuggestion creates and adds a diagnostic with a suggestion.
func (dl *DiagnosticList) AddWithSuggestion(kind Kind, loc ast.Location, message, suggestion string) {
	dl.Add(&Diagnostic{
		Severity:   DefaultSeverity(kind),
		Kind:       kind,
		Location:   loc,
		Message:    message,
		Suggestion: suggestion,
	})
}

// Extend appends all diagnostics of ds.
func (dl *DiagnosticList) Extend(ds []*Diagnostic) {
	dl.Diagnostics = append(dl.Diagnostics, ds...)
}

// Merge appends all diagnostics of other. A nil other is ignored.
func (dl *DiagnosticList) Merge(other *DiagnosticList) {
	if other == nil {
		return
	}
	dl.Extend(other.Diagnostics)
}

// HasErrors returns true if any diagnostic has error severity. The query
// methods treat a nil list as empty.
func (dl *DiagnosticList) HasErrors() bool {
	if dl == nil {
		return false
	}
	for _, d := range dl.Diagnostics {
		if d.IsError() {
			return true
		}
	}
	return false
}

// Failed reports whether the list fails a compilation. In strict mode
// warnings count as failures too.
func (dl *DiagnosticList) Failed(strict bool) bool {
	if dl.HasErrors() {
		return true
	}
	return strict && dl.CountSeverity(SeverityWarning) > 0
}

// Count returns the number of diagnostics in the list.
func (dl *DiagnosticList) Count() int {
	if dl == nil {
		return 0
	}
	return len(dl.Diagnostics)
}

// CountSeverity returns the number of diagnostics with severity s.
func (dl *DiagnosticList) CountSeverity(s Severity) int {
	if dl == nil {
		return 0
	}
	n := 0
	for _, d := range dl.Diagnostics {
		if d.Severity == s {
			n++
		}
	}
	return n
}

// ByKind returns all diagnostics of the given kind.
func (dl *DiagnosticList) ByKind(kind Kind) []*Diagnostic {
	if dl == nil {
		return nil
	}
	var result []*Diagnostic
	for _, d := range dl.Diagnostics {
		if d.Kind == kind {
			result = append(result, d)
		}
	}
	return result
}

// HasKind returns true if the list contains at least one diagnostic of kind.
func (dl *DiagnosticList) HasKind(kind Kind) bool {
	if dl == nil {
		return false
	}
	for _, d := range dl.Diagnostics {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// Sort orders diagnostics by file, line and column. The sort is stable, so
// diagnostics at the same position keep the order they were added in.
func (dl *DiagnosticList) Sort() {
	sort.SliceStable(dl.Diagnostics, func(i, j int) bool {
		return dl.Diagnostics[i].Location.Before(dl.Diagnostics[j].Location)
	})
}

// Error implements the error interface.
// It returns all diagnostics formatted as a single string.
func (dl *DiagnosticList) Error() string {
	if dl.Count() == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d diagnostic(s):\n\n", dl.Count()))

	for _, d := range dl.Diagnostics {
		sb.WriteString(d.Error())
		sb.WriteString("\n")
	}

	return sb.String()
}

// ToError returns nil if the list has no error-severity diagnostics,
// otherwise the list itself.
func (dl *DiagnosticList) ToError() error {
	if !dl.HasErrors() {
		return nil
	}
	return dl
}

// Clone returns a list holding copies of the diagnostics of dl.
func (dl *DiagnosticList) Clone() *DiagnosticList {
	out := &DiagnosticList{Diagnostics: make([]*Diagnostic, len(dl.Diagnostics))}
	for i, d := range dl.Diagnostics {
		c := *d
		out.Diagnostics[i] = &c
	}
	return out
}
