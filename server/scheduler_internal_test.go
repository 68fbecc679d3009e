package server

import (
	"sync"
	"testing"
	"time"
)

type lockedListener struct {
	sync.Mutex
	polls int
}

func (l *lockedListener) Poll() {
	l.Lock()
	l.polls++
	l.Unlock()
}

func TestPollGroupReregisterDuringPoll(t *testing.T) {
	pg := &PollGroup{interval: time.Millisecond, listeners: map[PollListener]struct{}{}}
	done := make(chan struct{})
	defer close(done)
	go pg.run(done)

	l := &lockedListener{}
	pg.Register(l)

	// re-registering while holding the listener's own lock must not wedge
	// against a concurrent poll
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i := 0; i < 500; i++ {
			l.Lock()
			pg.Unregister(l)
			pg.Register(l)
			l.Unlock()
		}
	}()
	select {
	case <-finished:
	case <-time.After(15 * time.Second):
		t.Fatal("re-registration during polling did not finish")
	}
}
