package workflow

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/lexcodex/uigen/catalog"
)

// Selection is the structured output of the fresh selection stage.
type Selection struct {
	NeededComponents []catalog.Ref `json:"needed_components"`
}

// IterSelection is the structured output of the iterative selection stage.
type IterSelection struct {
	Instructions       string        `json:"instructions"`
	ComponentsToModify []catalog.Ref `json:"components_to_modify"`
}

// extractJSON returns the outermost JSON object inside a model response, or
// an empty string when no braces are present so callers can surface a schema
// error instead of a decode panic.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end >= start {
		return raw[start : end+1]
	}
	return ""
}

// DecodeSelection parses the fresh-selection response. Any shape problem is a
// selection error, not a fault: the caller aborts the turn.
func DecodeSelection(raw string) (*Selection, error) {
	snippet := extractJSON(raw)
	if snippet == "" {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrSelection)
	}
	var sel Selection
	if err := json.Unmarshal([]byte(snippet), &sel); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSelection, err)
	}
	if len(sel.NeededComponents) == 0 {
		return nil, fmt.Errorf("%w: needed_components empty", ErrSelection)
	}
	for _, ref := range sel.NeededComponents {
		if strings.TrimSpace(ref.Title) == "" {
			return nil, fmt.Errorf("%w: component with empty title", ErrSelection)
		}
	}
	return &sel, nil
}

// DecodeIterSelection parses the iterative-selection response.
func DecodeIterSelection(raw string) (*IterSelection, error) {
	snippet := extractJSON(raw)
	if snippet == "" {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrSelection)
	}
	var sel IterSelection
	if err := json.Unmarshal([]byte(snippet), &sel); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSelection, err)
	}
	if strings.TrimSpace(sel.Instructions) == "" {
		return nil, fmt.Errorf("%w: instructions empty", ErrSelection)
	}
	return &sel, nil
}

// codeFence matches markdown fences the model wraps generated code in.
var codeFence = regexp.MustCompile("```(?:tsx|jsx|typescript|ts)?")

// StripFences removes markdown code fences from a generated artifact before
// it is handed to the compiler.
func StripFences(code string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(code, ""))
}
