package workflow

import (
	"errors"
	"fmt"

	"github.com/lexcodex/uigen/validator"
)

// ErrSelection marks a selection-stage failure: the model's structured
// response did not validate against the expected schema. The turn aborts and
// is reported to the caller; no automatic retry.
var ErrSelection = errors.New("selection response failed validation")

// BudgetExhaustedError is returned when the iteration ceiling is reached with
// diagnostics still outstanding. It carries the last candidate artifact so the
// caller can decide what to do with unvalidated output.
type BudgetExhaustedError struct {
	Attempts    int
	Artifact    string
	Diagnostics []validator.Diagnostic
}

func (e *BudgetExhaustedError) Error() string {
	return fmt.Sprintf("repair budget exhausted after %d validation attempts (%d diagnostics outstanding)",
		e.Attempts, len(e.Diagnostics))
}
