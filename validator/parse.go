package validator

import (
	"regexp"
	"strconv"
	"strings"
)

// diagnosticLine matches tsc output of the form
// src/candidate_ab12.tsx(4,7): error TS2741: Property 'title' is missing ...
var diagnosticLine = regexp.MustCompile(`^(.+)\((\d+),(\d+)\): error (TS\d+): (.+)$`)

// parseDiagnosticLine extracts a Diagnostic from one line of compiler output.
// The boolean is false for lines that mention an error but do not follow the
// expected shape; callers log and drop those.
func parseDiagnosticLine(line string) (Diagnostic, bool) {
	m := diagnosticLine.FindStringSubmatch(line)
	if m == nil {
		return Diagnostic{}, false
	}
	lineNo, err := strconv.Atoi(m[2])
	if err != nil {
		return Diagnostic{}, false
	}
	colNo, err := strconv.Atoi(m[3])
	if err != nil {
		return Diagnostic{}, false
	}
	return Diagnostic{
		Line:    lineNo,
		Column:  colNo,
		Code:    m[4],
		Message: strings.TrimSpace(m[5]),
	}, true
}
