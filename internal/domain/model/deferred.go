package model

import "context"

// BackgroundTask is work that continues after the HTTP response was sent.
type BackgroundTask func(ctx context.Context)

// ExecutionContext is the host capability for scheduling work that runs
// after the response is flushed. A nil WaitUntil means the handle is unusable.
type ExecutionContext struct {
	WaitUntil func(task BackgroundTask)
}

// DeferredState tracks one interaction through the deferred-response protocol.
type DeferredState int

const (
	DeferredReceived DeferredState = iota
	DeferredPending
	DeferredCompleted
	DeferredErroredBeforeDefer
)

func (s DeferredState) String() string {
	switch s {
	case DeferredReceived:
		return "received"
	case DeferredPending:
		return "deferred"
	case DeferredCompleted:
		return "completed"
	case DeferredErroredBeforeDefer:
		return "errored_before_defer"
	default:
		return "unknown"
	}
}

// CanTransition reports whether moving from s to next is legal.
func (s DeferredState) CanTransition(next DeferredState) bool {
	switch s {
	case DeferredReceived:
		return next == DeferredPending || next == DeferredErroredBeforeDefer
	case DeferredPending:
		return next == DeferredCompleted
	default:
		return false
	}
}

// Terminal reports whether no further transitions are possible.
func (s DeferredState) Terminal() bool {
	return s == DeferredCompleted || s == DeferredErroredBeforeDefer
}
