package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"code", "code", 0},
		{"", "code", 4},
		{"code", "", 4},
		{"code", "cdoe", 2},
		{"Trust", "Trsut", 2},
		{"kitten", "sitting", 3},
		{"café", "cafe", 1},
		{"naïve", "naive", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Distance(tt.a, tt.b))
			assert.Equal(t, tt.want, Distance(tt.b, tt.a))
		})
	}
}

func TestNearest(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		candidates []string
		wantBest   string
		wantDist   int
		wantOK     bool
	}{
		{"no candidates", "code", nil, "", -1, false},
		{"empty slice", "code", []string{}, "", -1, false},
		{"exact match", "code", []string{"note", "code"}, "code", 0, true},
		{"closest wins", "Trsut", []string{"Adoption", "Trust"}, "Trust", 2, true},
		{"tie keeps first", "cat", []string{"bat", "hat", "cot"}, "bat", 1, true},
		{"tie order follows input", "cat", []string{"hat", "bat"}, "hat", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			best, d, ok := Nearest(tt.target, tt.candidates)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantBest, best)
			assert.Equal(t, tt.wantDist, d)
		})
	}
}

func TestNearestWithin(t *testing.T) {
	candidates := []string{"quote", "note", "chain"}

	tests := []struct {
		name   string
		target string
		max    int
		want   string
		wantOK bool
	}{
		{"exact", "note", 0, "note", true},
		{"at threshold", "noet", 2, "note", true},
		{"one past threshold", "noet", 1, "", false},
		{"zero threshold misses", "nte", 0, "", false},
		{"far away", "bibliography", 2, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NearestWithin(tt.target, candidates, tt.max)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	got, ok := NearestWithin("note", nil, 10)
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestSuggestFieldName(t *testing.T) {
	assert.Empty(t, SuggestFieldName("x", nil))
	assert.Equal(t, "Did you mean 'quote'?", SuggestFieldName("qoute", []string{"chain", "quote"}))
	assert.Equal(t, "Valid fields: a, b",
		SuggestFieldName("abcdefghij", []string{"a", "b"}))
	assert.Equal(t, "Valid fields include: a, b, c, d, e, ...",
		SuggestFieldName("abcdefghij", []string{"a", "b", "c", "d", "e", "f"}))
}
