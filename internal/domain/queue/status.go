package queue

// Status is the shared state machine for both queue kinds:
//
//	ENQUEUED → IN_PROGRESS → { SUCCESSFUL | FAILED | INVALID_CONTENT |
//	                           NEEDS_INFO | QUEUED_FOR_RETRY }
//	QUEUED_FOR_RETRY → IN_PROGRESS (on redelivery)
type Status int16

const (
	StatusEnqueued       Status = 1
	StatusSuccessful     Status = 2
	StatusFailed         Status = 3
	StatusInProgress     Status = 4
	StatusQueuedForRetry Status = 5
	StatusInvalidContent Status = 6
	StatusNeedsInfo      Status = 7
)

func (s Status) String() string {
	switch s {
	case StatusEnqueued:
		return "enqueued"
	case StatusSuccessful:
		return "successful"
	case StatusFailed:
		return "failed"
	case StatusInProgress:
		return "in_progress"
	case StatusQueuedForRetry:
		return "queued_for_retry"
	case StatusInvalidContent:
		return "invalid_content"
	case StatusNeedsInfo:
		return "needs_info"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccessful, StatusFailed, StatusInvalidContent, StatusNeedsInfo:
		return true
	default:
		return false
	}
}
