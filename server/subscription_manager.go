package server

import (
	"sync"
	"time"

	"github.com/edgeworks/opcua/ua"
)

// SubscriptionManager holds the subscriptions of a server, keyed by id.
// A background sweep deletes expired subscriptions.
type SubscriptionManager struct {
	sync.RWMutex
	srv               *Server
	subscriptionsByID map[uint32]*Subscription
}

// NewSubscriptionManager makes a SubscriptionManager and starts its
// expiry sweep.
func NewSubscriptionManager(srv *Server) *SubscriptionManager {
	m := &SubscriptionManager{srv: srv, subscriptionsByID: make(map[uint32]*Subscription)}
	go func() {
		ticker := time.NewTicker(60 * time.Second)
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

// Get returns the subscription with the given id.
func (m *SubscriptionManager) Get(id uint32) (*Subscription, bool) {
	m.RLock()
	defer m.RUnlock()
	s, ok := m.subscriptionsByID[id]
	return s, ok
}

// Add stores a subscription, refusing when the server subscription limit
// is reached.
func (m *SubscriptionManager) Add(s *Subscription) error {
	m.Lock()
	defer m.Unlock()
	if maxSubscriptionCount > 0 && len(m.subscriptionsByID) >= int(maxSubscriptionCount) {
		return ua.BadTooManySubscriptions
	}
	m.subscriptionsByID[s.ID()] = s
	return nil
}

// Delete deletes a subscription and its monitored items.
func (m *SubscriptionManager) Delete(s *Subscription) {
	s.Delete()
}

// remove drops a subscription from the table. Called by Subscription.Delete.
func (m *SubscriptionManager) remove(s *Subscription) {
	m.Lock()
	delete(m.subscriptionsByID, s.ID())
	m.Unlock()
}

// Len returns the subscription count.
func (m *SubscriptionManager) Len() int {
	m.RLock()
	defer m.RUnlock()
	return len(m.subscriptionsByID)
}

// GetBySession returns the subscriptions owned by a session.
func (m *SubscriptionManager) GetBySession(session *Session) []*Subscription {
	m.RLock()
	defer m.RUnlock()
	subs := make([]*Subscription, 0, 4)
	for _, s := range m.subscriptionsByID {
		if s.Session() == session {
			subs = append(subs, s)
		}
	}
	return subs
}

func (m *SubscriptionManager) all() []*Subscription {
	m.RLock()
	defer m.RUnlock()
	subs := make([]*Subscription, 0, len(m.subscriptionsByID))
	for _, s := range m.subscriptionsByID {
		subs = append(subs, s)
	}
	return subs
}

func (m *SubscriptionManager) sweep() {
	m.RLock()
	expired := make([]*Subscription, 0, 4)
	for _, s := range m.subscriptionsByID {
		if s.IsExpired() {
			expired = append(expired, s)
		}
	}
	m.RUnlock()
	for _, s := range expired {
		m.srv.logger.Debug("deleting expired subscription", "subscription", s.ID())
		s.Delete()
	}
}
