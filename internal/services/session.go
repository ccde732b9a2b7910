package services

import (
	"sync"
)

// SessionState is the lifecycle stage of a Session.
type SessionState int

const (
	SessionPending SessionState = iota
	SessionActive
	SessionClosed
)

// AuthStateSource is the auth-state stream a Session listens to.
type AuthStateSource interface {
	OnAuthStateChanged(fn func(AuthEvent)) (unsubscribe func())
}

// Session tracks one signed-in token. It is created pending, becomes
// active once Init subscribes to the auth-state stream, and ends on Close or
// when its token signs out.
type Session struct {
	source  AuthStateSource
	userID  string
	tokenID string

	mu          sync.Mutex
	state       SessionState
	signed      bool
	unsubscribe func()
	done        chan struct{}
	doneOnce    sync.Once
}

// NewSession creates a session for the token identified by tokenID.
func NewSession(source AuthStateSource, userID, tokenID string) *Session {
	return &Session{
		source:  source,
		userID:  userID,
		tokenID: tokenID,
		state:   SessionPending,
		signed:  true,
		done:    make(chan struct{}),
	}
}

// Init subscribes to the auth-state stream. Calling it twice is a no-op.
func (s *Session) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionPending {
		return
	}
	s.unsubscribe = s.source.OnAuthStateChanged(s.handle)
	s.state = SessionActive
}

func (s *Session) handle(ev AuthEvent) {
	if ev.SignedIn || ev.TokenID != s.tokenID {
		return
	}
	s.mu.Lock()
	s.signed = false
	s.mu.Unlock()
	s.Close()
}

// Close unsubscribes and ends the session. It is safe to call repeatedly.
func (s *Session) Close() {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.state = SessionClosed
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	s.doneOnce.Do(func() { close(s.done) })
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// UserID returns the session owner.
func (s *Session) UserID() string {
	return s.userID
}

// Signed reports whether the token is still signed in.
func (s *Session) Signed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signed
}

// Loading reports whether the session has not subscribed yet.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == SessionPending
}

// State returns the current lifecycle stage.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
