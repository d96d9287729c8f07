package parser

import (
	"strings"
	"unicode"

	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/lexer"
)

// NormalizeText normalizes a free-text value: line endings become "\n",
// trailing whitespace is removed from every line, the common indentation of
// the non-blank lines is stripped and the result is trimmed.
// NormalizeText(NormalizeText(s)) == NormalizeText(s).
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")

	indent := -1
	for i, line := range lines {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		lines[i] = line
		if line == "" {
			continue
		}
		if n := len(line) - len(strings.TrimLeft(line, " \t")); indent < 0 || n < indent {
			indent = n
		}
	}
	if indent > 0 {
		for i, line := range lines {
			if len(line) >= indent {
				lines[i] = line[indent:]
			}
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// joinLines rebuilds the text of a value from its raw line tokens.
// Continuation lines keep their indentation relative to the least indented
// one; an inline first line is taken as is.
func joinLines(lines []lexer.Token) string {
	base := -1
	for _, line := range lines {
		if line.LineStart && line.Text != "" && (base < 0 || line.Indent < base) {
			base = line.Indent
		}
	}

	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if line.LineStart && line.Text != "" && line.Indent > base {
			sb.WriteString(strings.Repeat(" ", line.Indent-base))
		}
		sb.WriteString(line.Text)
	}
	return NormalizeText(sb.String())
}

// segment is one separated piece of a value with the position of its first
// non-blank rune.
type segment struct {
	Text     string
	Location ast.Location
}

type positionedRune struct {
	r   rune
	loc ast.Location
}

// positioned flattens value lines into runes that each know their own
// line and column. Lines are joined by a newline rune.
func positioned(lines []lexer.Token) []positionedRune {
	var out []positionedRune
	for i, line := range lines {
		if i > 0 && len(out) > 0 {
			prev := out[len(out)-1].loc
			out = append(out, positionedRune{r: '\n', loc: prev.Offset(1)})
		}
		loc := line.Location
		for _, r := range line.Text {
			out = append(out, positionedRune{r: r, loc: loc})
			loc = loc.Offset(1)
		}
	}
	return out
}

// splitValue splits the value held by lines on sep. Each piece is trimmed
// and has its internal whitespace collapsed; empty pieces are kept so the
// caller can report them.
func splitValue(lines []lexer.Token, sep string) []segment {
	rs := positioned(lines)
	if len(rs) == 0 {
		return nil
	}
	sepRunes := []rune(sep)

	var out []segment
	start := 0
	for i := 0; ; {
		if i < len(rs) && !matchAt(rs, i, sepRunes) {
			i++
			continue
		}
		fallback := rs[min(i, len(rs)-1)].loc
		out = append(out, trimSegment(rs[start:i], fallback))
		if i >= len(rs) {
			return out
		}
		i += len(sepRunes)
		start = i
	}
}

func matchAt(rs []positionedRune, i int, sep []rune) bool {
	if i+len(sep) > len(rs) {
		return false
	}
	for j, r := range sep {
		if rs[i+j].r != r {
			return false
		}
	}
	return true
}

func trimSegment(rs []positionedRune, fallback ast.Location) segment {
	lo, hi := 0, len(rs)
	for lo < hi && unicode.IsSpace(rs[lo].r) {
		lo++
	}
	for hi > lo && unicode.IsSpace(rs[hi-1].r) {
		hi--
	}
	if lo == hi {
		return segment{Location: fallback}
	}

	var sb strings.Builder
	for _, pr := range rs[lo:hi] {
		sb.WriteRune(pr.r)
	}
	return segment{
		Text:     ast.NormalizeCode(sb.String()),
		Location: rs[lo].loc,
	}
}
