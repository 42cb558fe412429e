// Package repair turns compiler diagnostics into repair guidance: the
// candidate source annotated with inline error markers, plus a deduplicated
// set of documentation lookup queries derived from the diagnostic messages.
package repair

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lexcodex/uigen/validator"
)

// NoExtraInfo is handed to the repair prompt when no lookup queries could be
// derived from the diagnostics.
const NoExtraInfo = "No additional information needed to fix these errors"

// maxGenericQueries bounds how many fallback "find usage examples" queries are
// synthesized when no identifier could be extracted from a message.
const maxGenericQueries = 3

// identifierPattern matches capitalized interface-like identifiers such as
// IBox or IHeader inside diagnostic messages.
var identifierPattern = regexp.MustCompile(`\W([A-Z]{2}[a-z]+)`)

// Plan is the planner output for one repair cycle.
type Plan struct {
	// AnnotatedCode is the candidate source with a "// ERROR CODE: message"
	// marker appended to each offending line (or to the end of the source for
	// out-of-bounds locations).
	AnnotatedCode string
	// Queries is the deduplicated set of documentation lookups to run before
	// asking the model to fix the code. Empty means no lookup is needed.
	Queries []string
}

// Build annotates the source with the diagnostics and derives lookup queries
// from their messages.
func Build(source string, diags []validator.Diagnostic) Plan {
	lines := strings.Split(source, "\n")
	var queries []string
	seen := make(map[string]struct{})

	add := func(q string) {
		if _, ok := seen[q]; ok {
			return
		}
		seen[q] = struct{}{}
		queries = append(queries, q)
	}

	for _, diag := range diags {
		marker := fmt.Sprintf("// ERROR %s: %s", diag.Code, diag.Message)
		idx := diag.Line - 1
		if idx >= 0 && idx < len(lines) {
			lines[idx] = lines[idx] + " " + marker
		} else {
			lines = append(lines, marker)
		}

		matches := identifierPattern.FindAllStringSubmatch(" "+diag.Message, -1)
		if len(matches) > 0 {
			for _, m := range matches {
				add(m[1])
			}
		} else if len(queries) < maxGenericQueries {
			add(fmt.Sprintf("useful code samples to fix %s", diag.Message))
		}
	}

	return Plan{
		AnnotatedCode: "code with error messages:\n" + strings.Join(lines, "\n"),
		Queries:       queries,
	}
}
