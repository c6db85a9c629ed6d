// Package stream owns in-flight generation sessions. A Manager mediates
// between the network-fed decoder side (Append/Complete/Fail, driven by a
// provider's event channel) and a polling consumer that must never block on
// network I/O: Poll is synchronous and returns immediately.
package stream

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// State is the lifecycle of a session. Transitions only move forward:
// Pending → Streaming → Complete | Failed. Once terminal the buffer is
// frozen and repeated reads are idempotent.
type State int

const (
	StatePending State = iota
	StateStreaming
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateStreaming:
		return "streaming"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool { return s == StateComplete || s == StateFailed }

// ErrUnknownSession is returned by Poll for ids that were never opened or
// have been closed.
var ErrUnknownSession = errors.New("unknown session id")

// TimeoutError marks a session force-failed after showing no transport
// progress for its stall interval.
type TimeoutError struct {
	SessionID string
	Stalled   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("session %s: no transport progress for %s", e.SessionID, e.Stalled)
}

// session is the in-memory state for one exchange. Exclusively owned by the
// Manager; callers hold only the id.
type session struct {
	id         string
	buf        strings.Builder
	readOff    int
	state      State
	cause      error
	createdAt  time.Time
	lastActive time.Time // transport progress or terminal transition
	lastPolled time.Time // consumer activity, keeps terminal sessions alive
}

// PollResult is the consumer-facing snapshot of a session.
type PollResult struct {
	// New is the text produced since the previous Poll. Across the lifetime
	// of polling each delta is observed exactly once, in production order.
	New string
	// Text is the full accumulated buffer. After a terminal state it never
	// changes.
	Text  string
	State State
	// Cause is set when State is StateFailed.
	Cause error
}

// Done reports whether the session reached a terminal state.
func (r PollResult) Done() bool { return r.State.Terminal() }
