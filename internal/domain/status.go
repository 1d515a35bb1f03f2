package domain

// Status is the order lifecycle state. It is a closed set; the only
// writer is the lifecycle engine and every change goes through
// ValidateTransition.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// transitions maps each status to the set of statuses it may advance
// to. Terminal states have no entries. Same-state no-ops and skipped
// states are rejected along with everything else not listed.
var transitions = map[Status][]Status{
	StatusPending:   {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusCompleted},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether s may legally advance to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

// ValidateTransition returns an *InvalidTransitionError if the change
// from -> to is not permitted by the state machine.
func ValidateTransition(from, to Status) error {
	if !to.Valid() {
		return &InvalidTransitionError{From: from, To: to}
	}
	if !from.CanTransition(to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}
