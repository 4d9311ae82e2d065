package comm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Transport is the physical link to the board.
//
// Read must return within a bounded time. When no data arrives in time it
// returns an error whose Timeout() is true. A Read returning no data
// without error, or with any other error, is treated as link loss.
type Transport interface {
	Open() error
	io.ReadWriteCloser
}

// SessionState is the state of a Session.
type SessionState int

// Session states
const (
	StateClosed SessionState = iota
	StateOpen
	StateReconnecting
)

// String implements fmt.Stringer.
func (s SessionState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// DefaultRetryDelay is the default delay between reopen attempts.
const DefaultRetryDelay = time.Second

// Session owns a Transport and reopens it when the link is lost.
// Writes are serialized and fail fast unless the link is open.
// Read and Reconnect must only be called from a single goroutine.
type Session struct {
	Transport  Transport
	RetryDelay time.Duration
	// MaxRetries caps reopen attempts of one reconnection, 0 for unlimited.
	MaxRetries int

	state     SessionState
	opened    bool // transport is open and owned by the session
	lock      sync.RWMutex
	writeLock sync.Mutex
}

// NewSession creates a Session.
func NewSession(t Transport) *Session {
	return &Session{Transport: t, RetryDelay: DefaultRetryDelay}
}

// State gets the state.
func (s *Session) State() SessionState {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.state
}

// Open opens the transport.
func (s *Session) Open() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.state != StateClosed {
		return nil
	}
	if err := s.Transport.Open(); err != nil {
		return &TransportError{Op: "open", Err: err}
	}
	s.state, s.opened = StateOpen, true
	return nil
}

// Close closes the transport. A pending Read is expected to return.
func (s *Session) Close() error {
	s.lock.Lock()
	if s.state == StateClosed {
		s.lock.Unlock()
		return nil
	}
	opened := s.opened
	s.state, s.opened = StateClosed, false
	s.lock.Unlock()
	if !opened {
		return nil
	}
	return s.Transport.Close()
}

// Write writes all of p or fails.
func (s *Session) Write(p []byte) (int, error) {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.state != StateOpen {
		return 0, ErrNotReady
	}
	n, err := s.Transport.Write(p)
	if err != nil {
		return n, &TransportError{Op: "write", Err: err}
	}
	if n != len(p) {
		return n, &TransportError{Op: "write", Err: fmt.Errorf("%w: %d of %d bytes", ErrShortWrite, n, len(p))}
	}
	return n, nil
}

// Read performs one bounded read. Timeout errors are returned as-is.
// Link loss is reported as ErrLinkLost or a TransportError.
func (s *Session) Read(p []byte) (int, error) {
	if s.State() != StateOpen {
		return 0, ErrNotReady
	}
	n, err := s.Transport.Read(p)
	if err != nil {
		if IsTimeout(err) {
			return n, err
		}
		return n, &TransportError{Op: "read", Err: err}
	}
	if n == 0 {
		return 0, ErrLinkLost
	}
	return n, nil
}

// Reconnect closes the transport and reopens it until it succeeds, the
// retry cap is reached, the context is done or the Session is closed.
func (s *Session) Reconnect(ctx context.Context) error {
	s.lock.Lock()
	if s.state == StateClosed {
		s.lock.Unlock()
		return ErrNotReady
	}
	opened := s.opened
	s.state, s.opened = StateReconnecting, false
	s.lock.Unlock()
	if opened {
		if err := s.Transport.Close(); err != nil {
			glog.V(2).Infof("close transport: %v", err)
		}
	}

	timer := time.NewTimer(s.RetryDelay)
	defer timer.Stop()
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		if s.State() == StateClosed {
			return ErrNotReady
		}
		err := s.Transport.Open()
		if err == nil {
			s.lock.Lock()
			if s.state != StateReconnecting {
				s.lock.Unlock()
				s.Transport.Close()
				return ErrNotReady
			}
			s.state, s.opened = StateOpen, true
			s.lock.Unlock()
			glog.Infof("link reopened after %d attempt(s)", attempt)
			return nil
		}
		glog.Warningf("reopen attempt %d: %v", attempt, err)
		if s.MaxRetries > 0 && attempt >= s.MaxRetries {
			return &TransportError{Op: "reopen", Err: err}
		}
		timer.Reset(s.RetryDelay)
	}
}

// IsTimeout checks if err reports a read timeout.
func IsTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
