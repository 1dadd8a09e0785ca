package stack

import "strings"

// Action is the stack operation a status belongs to.
type Action string

const (
	ActionCreate   Action = "CREATE"
	ActionUpdate   Action = "UPDATE"
	ActionDelete   Action = "DELETE"
	ActionRollback Action = "ROLLBACK"
)

// State is the progress of an action.
type State string

const (
	StateInProgress State = "IN_PROGRESS"
	StateComplete   State = "COMPLETE"
	StateFailed     State = "FAILED"
	// StateSkipped marks a resource that was never attempted because a
	// dependency failed.
	StateSkipped State = "SKIPPED"
)

// Status combines an action and a state, e.g. "CREATE_IN_PROGRESS".
// Stacks and resources share the representation.
type Status string

func NewStatus(action Action, state State) Status {
	return Status(string(action) + "_" + string(state))
}

func (s Status) Action() Action {
	action, _, _ := strings.Cut(string(s), "_")
	return Action(action)
}

func (s Status) State() State {
	_, state, _ := strings.Cut(string(s), "_")
	return State(state)
}

func (s Status) InProgress() bool {
	return s.State() == StateInProgress
}

func (s Status) Complete() bool {
	return s.State() == StateComplete
}

func (s Status) Failed() bool {
	return s.State() == StateFailed
}

func (s Status) String() string {
	return string(s)
}
