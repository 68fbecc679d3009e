package server

import (
	"sync"
	"time"

	"github.com/edgeworks/opcua/ua"
)

// SessionManager holds the sessions of a server, keyed by authentication
// token. A background sweep closes sessions idle past their timeout and
// cascades to their subscriptions.
type SessionManager struct {
	sync.RWMutex
	srv             *Server
	sessionsByToken map[ua.NodeID]*Session
}

// NewSessionManager makes a SessionManager and starts its expiry sweep.
func NewSessionManager(srv *Server) *SessionManager {
	m := &SessionManager{srv: srv, sessionsByToken: make(map[ua.NodeID]*Session)}
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sweep()
			case <-srv.closing:
				return
			}
		}
	}()
	return m
}

// Get returns the live session with the given authentication token and
// refreshes its idle timer. An expired session is deleted and not
// returned.
func (m *SessionManager) Get(token ua.NodeID) (*Session, bool) {
	m.RLock()
	s, ok := m.sessionsByToken[token]
	m.RUnlock()
	if !ok {
		return nil, false
	}
	if s.IsExpired() {
		m.Delete(s)
		return nil, false
	}
	s.SetLastAccess(time.Now())
	return s, true
}

// Add stores a session, refusing when the server session limit is
// reached.
func (m *SessionManager) Add(s *Session) error {
	m.Lock()
	defer m.Unlock()
	if maxSessionCount > 0 && len(m.sessionsByToken) >= int(maxSessionCount) {
		return ua.BadTooManySessions
	}
	m.sessionsByToken[s.AuthenticationToken()] = s
	return nil
}

// Delete removes a session and answers its parked Publish requests.
func (m *SessionManager) Delete(s *Session) {
	m.Lock()
	delete(m.sessionsByToken, s.AuthenticationToken())
	m.Unlock()
	s.close(ua.BadSessionClosed)
}

// Len returns the session count.
func (m *SessionManager) Len() int {
	m.RLock()
	defer m.RUnlock()
	return len(m.sessionsByToken)
}

func (m *SessionManager) all() []*Session {
	m.RLock()
	defer m.RUnlock()
	sessions := make([]*Session, 0, len(m.sessionsByToken))
	for _, s := range m.sessionsByToken {
		sessions = append(sessions, s)
	}
	return sessions
}

func (m *SessionManager) sweep() {
	m.RLock()
	expired := make([]*Session, 0, 4)
	for _, s := range m.sessionsByToken {
		if s.IsExpired() {
			expired = append(expired, s)
		}
	}
	m.RUnlock()
	for _, s := range expired {
		m.srv.logger.Debug("closing expired session", "session", s.SessionID())
		m.Delete(s)
		for _, sub := range m.srv.SubscriptionManager().GetBySession(s) {
			sub.Delete()
		}
	}
}
