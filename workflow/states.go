package workflow

// State names one stage of the orchestration machine.
type State string

const (
	StateSelect   State = "select"
	StateGenerate State = "generate"
	StateValidate State = "validate"
	StateRepair   State = "repair"
	StateDone     State = "done"
	StateFailed   State = "failed"
)

// Outcome classifies what happened inside a state.
type Outcome string

const (
	// OutcomeOK means the stage completed and the flow advances.
	OutcomeOK Outcome = "ok"
	// OutcomeInvalid means validation produced diagnostics and the repair
	// loop should run.
	OutcomeInvalid Outcome = "invalid"
	// OutcomeBudget means the iteration ceiling was reached with diagnostics
	// still outstanding.
	OutcomeBudget Outcome = "budget"
	// OutcomeFatal covers selection and infrastructure failures that abort
	// the turn.
	OutcomeFatal Outcome = "fatal"
)

// Transition is the pure state-transition function. It has no side effects
// and no dependencies, so control flow is testable without a model or a
// compiler.
func Transition(state State, outcome Outcome) State {
	if outcome == OutcomeFatal {
		return StateFailed
	}
	switch state {
	case StateSelect:
		return StateGenerate
	case StateGenerate:
		return StateValidate
	case StateValidate:
		switch outcome {
		case OutcomeInvalid:
			return StateRepair
		case OutcomeBudget:
			return StateFailed
		default:
			return StateDone
		}
	case StateRepair:
		return StateValidate
	default:
		// Done and Failed are terminal.
		return state
	}
}

// Terminal reports whether the machine has stopped.
func Terminal(state State) bool {
	return state == StateDone || state == StateFailed
}
