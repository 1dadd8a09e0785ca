package stack

// Event is a notification emitted by the engine. Delivery is best effort:
// a subscriber that falls behind its channel buffer misses events rather
// than stalling the engine.
type Event interface{}

// Stacks

type EventStackScheduled struct {
	Stack     string
	Operation Action
	Resources []string
}

type EventStackStatusUpdated struct {
	Stack  string
	Status Status
	Reason string
}

// EventStackRemoved fires when a stack record disappears after a completed
// delete.
type EventStackRemoved struct {
	Stack string
}

// Resources

type EventResourceStatusUpdated struct {
	Stack      string
	Resource   string
	Status     Status
	Reason     string
	PhysicalID string
}

// EventOperationCompleted fires once per scheduled operation, whatever the
// outcome.
type EventOperationCompleted struct {
	Stack     string
	Operation Action
	Status    Status
}
