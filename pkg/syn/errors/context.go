package errors

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"synesis-hq/synesis/pkg/syn/ast"
)

// ExtractContext renders the lines surrounding location from src, marking
// the offending line and column.
func ExtractContext(src []byte, location ast.Location, contextLines int) string {
	if !location.IsValid() || len(src) == 0 {
		return ""
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), len(src)+1)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if scanner.Err() != nil || location.Line > len(lines) {
		return ""
	}

	errorLine := location.Line - 1
	startLine := max(errorLine-contextLines, 0)
	endLine := min(errorLine+contextLines, len(lines)-1)

	var sb strings.Builder
	width := len(fmt.Sprintf("%d", endLine+1))

	for i := startLine; i <= endLine; i++ {
		prefix := "  "
		if i == errorLine {
			prefix = "->"
		}
		sb.WriteString(fmt.Sprintf("%s %*d | %s\n", prefix, width, i+1, lines[i]))

		if i == errorLine && location.Column > 0 {
			padding := strings.Repeat(" ", location.Column-1)
			sb.WriteString(fmt.Sprintf("   %s | %s^\n", strings.Repeat(" ", width), padding))
		}
	}

	return sb.String()
}

// AttachContext fills the Context of every diagnostic whose file has a
// source in sources.
func AttachContext(dl *DiagnosticList, sources map[string][]byte, contextLines int) {
	for _, d := range dl.Diagnostics {
		if src, ok := sources[d.Location.File]; ok {
			d.Context = ExtractContext(src, d.Location, contextLines)
		}
	}
}
