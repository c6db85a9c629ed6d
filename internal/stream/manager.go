package stream

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blackbird-ai/blackbird/internal/provider"
)

const (
	// defaultStallTimeout force-fails a session with no transport progress.
	defaultStallTimeout = 60 * time.Second
	// defaultIdleTimeout reclaims terminal sessions nobody polls anymore.
	defaultIdleTimeout = 5 * time.Minute

	janitorInterval = time.Second
)

// Manager is the registry of live sessions, keyed by opaque session id.
// It is an explicit value passed into both the producer and consumer paths;
// there is no process-wide registry.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session

	stallTimeout time.Duration
	idleTimeout  time.Duration

	stop    chan struct{}
	stopped sync.Once
}

// Option configures a Manager.
type Option func(*Manager)

// WithStallTimeout overrides the no-progress interval after which a
// streaming session is force-failed.
func WithStallTimeout(d time.Duration) Option {
	return func(m *Manager) { m.stallTimeout = d }
}

// WithIdleTimeout overrides the interval after which unpolled terminal
// sessions are reclaimed.
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) { m.idleTimeout = d }
}

// NewManager creates a session manager and starts its janitor.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions:     make(map[string]*session),
		stallTimeout: defaultStallTimeout,
		idleTimeout:  defaultIdleTimeout,
		stop:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.janitor()
	return m
}

// Shutdown stops the janitor and releases all sessions.
func (m *Manager) Shutdown() {
	m.stopped.Do(func() { close(m.stop) })
	m.mu.Lock()
	m.sessions = make(map[string]*session)
	m.mu.Unlock()
}

// Open registers a new session and returns its id.
func (m *Manager) Open() string {
	id := uuid.NewString()
	now := time.Now()
	m.mu.Lock()
	m.sessions[id] = &session{id: id, state: StatePending, createdAt: now, lastActive: now, lastPolled: now}
	m.mu.Unlock()
	return id
}

// Append adds a delta to the session buffer. It never blocks; appends for
// unknown (closed) or terminal sessions are no-ops.
func (m *Manager) Append(id, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.state.Terminal() {
		return
	}
	s.state = StateStreaming
	s.buf.WriteString(text)
	s.lastActive = time.Now()
}

// Complete freezes the session buffer in the Complete state.
func (m *Manager) Complete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok && !s.state.Terminal() {
		s.state = StateComplete
		s.lastActive = time.Now()
	}
}

// Fail freezes the session buffer in the Failed state with the given cause.
// The first terminal transition wins; later ones are no-ops, so one
// session's failure can never regress or affect another.
func (m *Manager) Fail(id string, cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok && !s.state.Terminal() {
		s.state = StateFailed
		s.cause = cause
		s.lastActive = time.Now()
	}
}

// Poll returns the text produced since the last Poll plus the current state.
// It always returns immediately. After a terminal state, repeated calls
// return the same full buffer and status with New empty.
func (m *Manager) Poll(id string) (PollResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return PollResult{}, ErrUnknownSession
	}
	full := s.buf.String()
	res := PollResult{
		New:   full[s.readOff:],
		Text:  full,
		State: s.state,
		Cause: s.cause,
	}
	s.readOff = len(full)
	// Consumer activity is tracked apart from transport progress: a stalled
	// session times out even while the consumer keeps polling it, but the
	// idle reaper only reclaims terminal sessions nobody polls anymore.
	s.lastPolled = time.Now()
	return res, nil
}

// Close releases the session's memory. Safe to call at any time, including
// while the producer is still appending: later appends become no-ops.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Consume drains a provider event channel into the session until a terminal
// event arrives or the channel closes. It is the producer side of the store
// and runs on the caller's goroutine (usually `go mgr.Consume(...)`).
func (m *Manager) Consume(id string, ch <-chan provider.Event) {
	for ev := range ch {
		switch ev.Type {
		case provider.EventTextDelta:
			m.Append(id, ev.TextDelta)
		case provider.EventDone:
			m.Complete(id)
			return
		case provider.EventError:
			m.Fail(id, ev.Err)
			return
		}
	}
	// Channel closed without an explicit terminal event: transport closure
	// ends line-delimited and buffered streams.
	m.Complete(id)
}

// janitor enforces the timeout policy: streaming sessions with no transport
// progress are force-failed, and terminal sessions nobody polls are
// reclaimed so one forgotten id cannot pin memory forever.
func (m *Manager) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.sweep(now)
		}
	}
}

func (m *Manager) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		stalled := now.Sub(s.lastActive)
		idle := now.Sub(s.lastPolled)
		if s.lastActive.After(s.lastPolled) {
			idle = stalled
		}
		switch {
		case !s.state.Terminal() && stalled > m.stallTimeout:
			s.state = StateFailed
			s.cause = &TimeoutError{SessionID: id, Stalled: stalled}
			s.lastActive = now
		case s.state.Terminal() && idle > m.idleTimeout:
			delete(m.sessions, id)
		}
	}
}
