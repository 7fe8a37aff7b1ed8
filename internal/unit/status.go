package unit

// Status is the position of a unit in the scheduling state machine:
//
//	Unqueued -> Queued -> Checking -> Succeeded | Failed
//	Unqueued | Queued -> Skipped
//	Checking -> Skipped   (only when an interrupted or cancelled SCC is rolled back)
//
// Skipped is terminal. Outside of a rollback a skipped unit never reaches the
// checker. Members of a failed recursive group that already reached the
// checker end Failed, not Skipped.
type Status int32

const (
	StatusUnqueued Status = iota
	StatusQueued
	StatusChecking
	StatusSucceeded
	StatusFailed
	StatusSkipped
)

var statusNames = [...]string{"unqueued", "queued", "checking", "succeeded", "failed", "skipped"}

func (s Status) String() string {
	if int(s) >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusSkipped
}

// CanTransition reports whether moving from s to next is a legal step.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusUnqueued:
		return next == StatusQueued || next == StatusSkipped
	case StatusQueued:
		return next == StatusChecking || next == StatusSkipped
	case StatusChecking:
		return next == StatusSucceeded || next == StatusFailed || next == StatusSkipped
	default:
		return false
	}
}
