package linker

import (
	"synesis-hq/synesis/pkg/syn/errors"
)

// Stats summarizes a linked project.
type Stats struct {
	Sources  int `json:"sources"`
	Items    int `json:"items"`
	Concepts int `json:"concepts"`
	Codes    int `json:"codes"` // Distinct codes
	Chains   int `json:"chains"`
	Triples  int `json:"triples"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`
}

func computeStats(lp *LinkedProject, c *collector) Stats {
	return Stats{
		Sources:  c.sources,
		Items:    c.items,
		Concepts: lp.Ontology.Len(),
		Codes:    lp.Codes.Len(),
		Chains:   c.chains,
		Triples:  lp.Relations.Len(),
	}
}

// CountDiagnostics sets the per-severity counts from diags.
func (s *Stats) CountDiagnostics(diags *errors.DiagnosticList) {
	s.Errors = diags.CountSeverity(errors.SeverityError)
	s.Warnings = diags.CountSeverity(errors.SeverityWarning)
	s.Infos = diags.CountSeverity(errors.SeverityInfo)
}
