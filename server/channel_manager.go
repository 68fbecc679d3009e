package server

import (
	"sync"
	"time"
)

// ChannelManager holds the open secure channels of a server, keyed by
// channel id. A background sweep drops channels whose connection has
// closed.
type ChannelManager struct {
	sync.RWMutex
	srv          *Server
	channelsByID map[uint32]*serverSecureChannel
}

// NewChannelManager makes a ChannelManager and starts its sweep.
func NewChannelManager(srv *Server) *ChannelManager {
	m := &ChannelManager{srv: srv, channelsByID: make(map[uint32]*serverSecureChannel)}
	go func() {
		ticker := time.NewTicker(5 * time.Second)
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

// Get returns the channel with the given id.
func (m *ChannelManager) Get(id uint32) (*serverSecureChannel, bool) {
	m.RLock()
	defer m.RUnlock()
	ch, ok := m.channelsByID[id]
	return ch, ok
}

// Add stores a channel.
func (m *ChannelManager) Add(ch *serverSecureChannel) {
	m.Lock()
	m.channelsByID[ch.ChannelID()] = ch
	m.Unlock()
}

// Delete removes a channel.
func (m *ChannelManager) Delete(ch *serverSecureChannel) {
	m.Lock()
	delete(m.channelsByID, ch.ChannelID())
	m.Unlock()
}

// Len returns the channel count.
func (m *ChannelManager) Len() int {
	m.RLock()
	defer m.RUnlock()
	return len(m.channelsByID)
}

func (m *ChannelManager) all() []*serverSecureChannel {
	m.RLock()
	defer m.RUnlock()
	chs := make([]*serverSecureChannel, 0, len(m.channelsByID))
	for _, ch := range m.channelsByID {
		chs = append(chs, ch)
	}
	return chs
}

func (m *ChannelManager) sweep() {
	m.Lock()
	for id, ch := range m.channelsByID {
		if ch.IsClosed() {
			delete(m.channelsByID, id)
		}
	}
	m.Unlock()
}
