package server

import (
	"sync"
	"time"
)

// PollListener is sampled by a PollGroup at its interval.
type PollListener interface {
	Poll()
}

// Scheduler hands out one PollGroup per sampling interval. All monitored
// items with the same revised sampling interval share one ticker.
type Scheduler struct {
	sync.Mutex
	srv        *Server
	pollGroups map[time.Duration]*PollGroup
}

// NewScheduler makes a Scheduler for the server.
func NewScheduler(srv *Server) *Scheduler {
	return &Scheduler{srv: srv, pollGroups: make(map[time.Duration]*PollGroup)}
}

// GetPollGroup returns the PollGroup for the given interval, starting it
// if it does not exist yet.
func (s *Scheduler) GetPollGroup(interval time.Duration) *PollGroup {
	s.Lock()
	defer s.Unlock()
	if pg, ok := s.pollGroups[interval]; ok {
		return pg
	}
	pg := &PollGroup{interval: interval, listeners: map[PollListener]struct{}{}}
	s.pollGroups[interval] = pg
	go pg.run(s.srv.closing)
	return pg
}

// PollGroup fans one ticker out to its registered listeners.
type PollGroup struct {
	sync.Mutex
	interval  time.Duration
	listeners map[PollListener]struct{}
}

// Register adds a listener to the group.
func (pg *PollGroup) Register(l PollListener) {
	pg.Lock()
	pg.listeners[l] = struct{}{}
	pg.Unlock()
}

// Unregister removes a listener from the group.
func (pg *PollGroup) Unregister(l PollListener) {
	pg.Lock()
	delete(pg.listeners, l)
	pg.Unlock()
}

func (pg *PollGroup) run(done <-chan struct{}) {
	ticker := time.NewTicker(pg.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			// snapshot under the lock, poll outside it: a listener may
			// re-register with the group from inside Poll
			pg.Lock()
			listeners := make([]PollListener, 0, len(pg.listeners))
			for l := range pg.listeners {
				listeners = append(listeners, l)
			}
			pg.Unlock()
			for _, l := range listeners {
				l.Poll()
			}
		case <-done:
			return
		}
	}
}
