package session

// State is one of the six lifecycle states of a recording session.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateReview
	StateProcessing
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateReview:
		return "review"
	case StateProcessing:
		return "processing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}
