package bulk

import "sync/atomic"

// Flag is a cooperative cancellation token. The orchestrator polls it at
// iteration boundaries only; an in-flight call always runs to completion.
type Flag struct {
	raised atomic.Bool
}

// Raise requests cancellation.
func (f *Flag) Raise() {
	if f != nil {
		f.raised.Store(true)
	}
}

// Raised reports whether cancellation was requested. A nil flag never is.
func (f *Flag) Raised() bool {
	return f != nil && f.raised.Load()
}
