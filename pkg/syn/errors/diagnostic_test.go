package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synesis-hq/synesis/pkg/syn/ast"
)

func TestDiagnosticList_Nil(t *testing.T) {
	var dl *DiagnosticList

	assert.False(t, dl.HasErrors())
	assert.False(t, dl.Failed(false))
	assert.False(t, dl.Failed(true))
	assert.Zero(t, dl.Count())
	assert.Zero(t, dl.CountSeverity(SeverityWarning))
	assert.Nil(t, dl.ByKind(KindOrphanItem))
	assert.False(t, dl.HasKind(KindOrphanItem))
}

func TestDiagnosticList_Failed(t *testing.T) {
	tests := []struct {
		name       string
		kinds      []Kind
		wantFailed bool
		wantStrict bool
	}{
		{"empty", nil, false, false},
		{"warning only", []Kind{KindUndefinedCode}, false, true},
		{"error", []Kind{KindOrphanItem}, true, true},
		{"mixed", []Kind{KindSourceWithoutItems, KindUnknownField}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dl := NewDiagnosticList()
			for _, k := range tt.kinds {
				dl.Addf(k, ast.Location{}, "%s", k)
			}
			assert.Equal(t, tt.wantFailed, dl.Failed(false))
			assert.Equal(t, tt.wantStrict, dl.Failed(true))
			assert.Equal(t, len(tt.kinds), dl.Count())
		})
	}
}

func TestDiagnosticList_ByKind(t *testing.T) {
	dl := NewDiagnosticList()
	dl.Addf(KindUnknownField, ast.Location{}, "unknown field '%s'", "colour")
	dl.Addf(KindOrphanItem, ast.Location{}, "orphan")
	dl.Addf(KindUnknownField, ast.Location{}, "unknown field '%s'", "size")

	got := dl.ByKind(KindUnknownField)
	require.Len(t, got, 2)
	assert.Equal(t, "unknown field 'colour'", got[0].Message)
	assert.True(t, dl.HasKind(KindOrphanItem))
	assert.False(t, dl.HasKind(KindTopicCycle))
}
