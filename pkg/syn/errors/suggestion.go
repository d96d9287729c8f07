package errors

import (
	"fmt"
	"strings"
)

// Distance computes the Levenshtein distance between two strings,
// counting characters rather than bytes.
func Distance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}

	r1 := []rune(s1)
	r2 := []rune(s2)

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // Deletion
				curr[j-1]+1,    // Insertion
				prev[j-1]+cost, // Substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}

// Nearest returns the candidate closest to target. Ties keep the earliest
// candidate. ok is false when there are no candidates.
func Nearest(target string, candidates []string) (best string, distance int, ok bool) {
	distance = -1
	for _, c := range candidates {
		d := Distance(target, c)
		if distance < 0 || d < distance {
			best, distance = c, d
		}
	}
	return best, distance, distance >= 0
}

// NearestWithin returns the closest candidate whose distance is at most
// maxDistance.
func NearestWithin(target string, candidates []string, maxDistance int) (string, bool) {
	best, d, ok := Nearest(target, candidates)
	if !ok || d > maxDistance {
		return "", false
	}
	return best, true
}

// SuggestFieldName suggests possible field names when an unknown field is used.
func SuggestFieldName(unknown string, validFields []string) string {
	if len(validFields) == 0 {
		return ""
	}

	best, d, _ := Nearest(unknown, validFields)
	if d < 5 {
		return fmt.Sprintf("Did you mean '%s'?", best)
	}

	if len(validFields) > 5 {
		return fmt.Sprintf("Valid fields include: %s, ...", strings.Join(validFields[:5], ", "))
	}
	return fmt.Sprintf("Valid fields: %s", strings.Join(validFields, ", "))
}

// SuggestMissingField suggests adding a required field.
func SuggestMissingField(fieldName string) string {
	return fmt.Sprintf("Add '%s: <value>' to the block", fieldName)
}
