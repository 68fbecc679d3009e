package server

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edgeworks/opcua/ua"
	"github.com/gammazero/deque"
)

var subscriptionID uint32

const (
	minPublishingInterval      float64 = 10
	maxPublishingInterval      float64 = 60 * 1000
	defaultPublishingInterval  float64 = 1000
	minLifetimeCount           uint32  = 3
	maxLifetimeCount           uint32  = 15 * 60
	minKeepAliveCount          uint32  = 1
	maxKeepAliveCount          uint32  = 5 * 60
	maxNotificationQueueLength int     = 128
	maxRetransmissionQueueSize int     = 128
)

// Subscription collects monitored item notifications and publishes them
// at its publishing interval. It moves Created -> Normal -> (Late |
// KeepAlive) -> Closed; lifetime expiry without a serviced Publish closes
// it with a status change.
type Subscription struct {
	sync.Mutex
	manager                    *SubscriptionManager
	session                    *Session
	id                         uint32
	publishingInterval         float64
	lifetimeCount              uint32
	maxKeepAliveCount          uint32
	maxNotificationsPerPublish uint32
	publishingEnabled          bool
	priority                   byte
	items                      map[uint32]*MonitoredItem
	nextSequenceNumber         uint32
	keepAliveCounter           uint32
	lifetimeCounter            uint32
	lateNotifications          deque.Deque[ua.NotificationMessage]
	retransmissionQueue        deque.Deque[ua.NotificationMessage]
	done                       chan struct{}
	deleted                    bool
}

// NewSubscription makes a Subscription with revised parameters and starts
// its publishing cycle.
func NewSubscription(manager *SubscriptionManager, session *Session, publishingInterval float64, lifetimeCount, keepAliveCount, maxNotificationsPerPublish uint32, publishingEnabled bool, priority byte) *Subscription {
	s := &Subscription{
		manager:                    manager,
		session:                    session,
		id:                         atomic.AddUint32(&subscriptionID, 1),
		maxNotificationsPerPublish: maxNotificationsPerPublish,
		publishingEnabled:          publishingEnabled,
		priority:                   priority,
		items:                      map[uint32]*MonitoredItem{},
		nextSequenceNumber:         1,
		done:                       make(chan struct{}),
	}
	s.revise(publishingInterval, lifetimeCount, keepAliveCount)
	s.startPublishing()
	return s
}

func (s *Subscription) revise(publishingInterval float64, lifetimeCount, keepAliveCount uint32) {
	switch {
	case publishingInterval < minPublishingInterval:
		if publishingInterval <= 0 {
			publishingInterval = defaultPublishingInterval
		} else {
			publishingInterval = minPublishingInterval
		}
	case publishingInterval > maxPublishingInterval:
		publishingInterval = maxPublishingInterval
	}
	s.publishingInterval = publishingInterval
	switch {
	case keepAliveCount < minKeepAliveCount:
		keepAliveCount = minKeepAliveCount
	case keepAliveCount > maxKeepAliveCount:
		keepAliveCount = maxKeepAliveCount
	}
	s.maxKeepAliveCount = keepAliveCount
	if lifetimeCount < 3*keepAliveCount {
		lifetimeCount = 3 * keepAliveCount
	}
	if lifetimeCount > maxLifetimeCount {
		lifetimeCount = maxLifetimeCount
	}
	s.lifetimeCount = lifetimeCount
}

// ID returns the subscription id.
func (s *Subscription) ID() uint32 {
	return s.id
}

// Session returns the owning session.
func (s *Subscription) Session() *Session {
	return s.session
}

// Priority returns the relative publishing priority.
func (s *Subscription) Priority() byte {
	s.Lock()
	defer s.Unlock()
	return s.priority
}

// PublishingInterval returns the revised publishing interval in
// milliseconds.
func (s *Subscription) PublishingInterval() float64 {
	s.Lock()
	defer s.Unlock()
	return s.publishingInterval
}

// LifetimeCount returns the revised lifetime count.
func (s *Subscription) LifetimeCount() uint32 {
	s.Lock()
	defer s.Unlock()
	return s.lifetimeCount
}

// MaxKeepAliveCount returns the revised keep-alive count.
func (s *Subscription) MaxKeepAliveCount() uint32 {
	s.Lock()
	defer s.Unlock()
	return s.maxKeepAliveCount
}

// AppendItem adds a monitored item.
func (s *Subscription) AppendItem(mi *MonitoredItem) {
	s.Lock()
	s.items[mi.ID()] = mi
	s.Unlock()
}

// FindItem looks a monitored item up by id.
func (s *Subscription) FindItem(id uint32) (*MonitoredItem, bool) {
	s.Lock()
	defer s.Unlock()
	mi, ok := s.items[id]
	return mi, ok
}

// DeleteItem removes a monitored item.
func (s *Subscription) DeleteItem(id uint32) bool {
	s.Lock()
	mi, ok := s.items[id]
	if ok {
		delete(s.items, id)
	}
	s.Unlock()
	if ok {
		mi.Delete()
	}
	return ok
}

// Modify revises the subscription parameters.
func (s *Subscription) Modify(publishingInterval float64, lifetimeCount, keepAliveCount, maxNotificationsPerPublish uint32, priority byte) {
	s.Lock()
	defer s.Unlock()
	old := s.publishingInterval
	s.revise(publishingInterval, lifetimeCount, keepAliveCount)
	s.maxNotificationsPerPublish = maxNotificationsPerPublish
	s.priority = priority
	s.lifetimeCounter = 0
	if s.publishingInterval != old && !s.deleted {
		close(s.done)
		s.done = make(chan struct{})
		go s.publishLoop(s.done, time.Duration(s.publishingInterval)*time.Millisecond)
	}
}

// SetPublishingMode enables or disables publishing.
func (s *Subscription) SetPublishingMode(enabled bool) {
	s.Lock()
	s.publishingEnabled = enabled
	s.lifetimeCounter = 0
	s.Unlock()
}

// RefreshLifetime resets the lifetime counter, keeping the subscription
// alive.
func (s *Subscription) RefreshLifetime() {
	s.Lock()
	s.lifetimeCounter = 0
	s.Unlock()
}

// IsExpired reports whether the lifetime counter has run out.
func (s *Subscription) IsExpired() bool {
	s.Lock()
	defer s.Unlock()
	return s.deleted || s.lifetimeCounter >= s.lifetimeCount
}

// Delete stops publishing and deletes the monitored items.
func (s *Subscription) Delete() {
	s.Lock()
	if s.deleted {
		s.Unlock()
		return
	}
	s.deleted = true
	close(s.done)
	items := make([]*MonitoredItem, 0, len(s.items))
	for _, mi := range s.items {
		items = append(items, mi)
	}
	s.items = map[uint32]*MonitoredItem{}
	s.lateNotifications.Clear()
	s.retransmissionQueue.Clear()
	s.Unlock()
	for _, mi := range items {
		mi.Delete()
	}
	s.manager.remove(s)
}

func (s *Subscription) startPublishing() {
	go s.publishLoop(s.done, time.Duration(s.publishingInterval)*time.Millisecond)
}

func (s *Subscription) publishLoop(done <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.publishCycle()
		case <-done:
			return
		case <-s.manager.srv.closing:
			return
		}
	}
}

// publishCycle runs once per publishing interval: it drains reportable
// changes into a NotificationMessage and delivers it to a waiting Publish
// request, queues it as late, or counts towards keep-alive and lifetime.
func (s *Subscription) publishCycle() {
	// a subscription orphaned by CloseSession(false) dies on its first
	// missed cycle
	if s.session.IsDeleted() {
		s.Delete()
		return
	}
	s.Lock()
	if s.deleted {
		s.Unlock()
		return
	}
	var notifications []ua.MonitoredItemNotification
	if s.publishingEnabled {
		max := int(s.maxNotificationsPerPublish)
		for _, mi := range s.items {
			remaining := 0
			if max > 0 {
				remaining = max - len(notifications)
				if remaining <= 0 {
					break
				}
			}
			notifications = append(notifications, mi.notifications(remaining)...)
		}
	}
	if len(notifications) > 0 {
		msg := ua.NotificationMessage{
			SequenceNumber: s.nextSequenceNumber,
			PublishTime:    time.Now(),
			NotificationData: []ua.ExtensionObject{
				&ua.DataChangeNotification{MonitoredItems: notifications},
			},
		}
		s.nextSequenceNumber++
		if s.lateNotifications.Len() >= maxNotificationQueueLength {
			s.lateNotifications.PopFront()
		}
		s.lateNotifications.PushBack(msg)
		s.keepAliveCounter = 0
	} else {
		s.keepAliveCounter++
	}
	s.lifetimeCounter++
	expired := s.lifetimeCounter >= s.lifetimeCount
	s.Unlock()

	if expired {
		s.statusChange(ua.BadTimeout)
		s.Delete()
		return
	}

	for s.deliverPending() {
	}
	s.deliverKeepAlive()
}

// deliverPending sends one late notification to a waiting Publish
// request. It reports whether it delivered one.
func (s *Subscription) deliverPending() bool {
	s.Lock()
	if s.lateNotifications.Len() == 0 {
		s.Unlock()
		return false
	}
	s.Unlock()
	op, ok := s.session.removePublishRequest()
	if !ok {
		return false
	}
	s.Lock()
	if s.lateNotifications.Len() == 0 {
		s.Unlock()
		// raced with another delivery, put the request back
		s.session.addPublishRequest(op)
		return false
	}
	msg := s.lateNotifications.PopFront()
	if s.retransmissionQueue.Len() >= maxRetransmissionQueueSize {
		s.retransmissionQueue.PopFront()
	}
	s.retransmissionQueue.PushBack(msg)
	more := s.lateNotifications.Len() > 0
	avail := s.availableSequenceNumbersLocked()
	s.lifetimeCounter = 0
	s.keepAliveCounter = 0
	s.Unlock()
	return s.respond(op, msg, more, avail)
}

func (s *Subscription) deliverKeepAlive() {
	s.Lock()
	if s.deleted || s.keepAliveCounter < s.maxKeepAliveCount || s.lateNotifications.Len() > 0 {
		s.Unlock()
		return
	}
	s.Unlock()
	op, ok := s.session.removePublishRequest()
	if !ok {
		return
	}
	s.Lock()
	msg := ua.NotificationMessage{
		SequenceNumber: s.nextSequenceNumber,
		PublishTime:    time.Now(),
	}
	avail := s.availableSequenceNumbersLocked()
	s.keepAliveCounter = 0
	s.lifetimeCounter = 0
	s.Unlock()
	s.respond(op, msg, false, avail)
}

// handleLatePublishRequest gives a fresh Publish request to this
// subscription. It reports whether the request was consumed.
func (s *Subscription) handleLatePublishRequest(op *publishOp) bool {
	s.Lock()
	if s.deleted || s.lateNotifications.Len() == 0 {
		s.Unlock()
		return false
	}
	msg := s.lateNotifications.PopFront()
	if s.retransmissionQueue.Len() >= maxRetransmissionQueueSize {
		s.retransmissionQueue.PopFront()
	}
	s.retransmissionQueue.PushBack(msg)
	more := s.lateNotifications.Len() > 0
	avail := s.availableSequenceNumbersLocked()
	s.lifetimeCounter = 0
	s.keepAliveCounter = 0
	s.Unlock()
	s.respond(op, msg, more, avail)
	return true
}

// respond delivers a notification to a parked Publish request. When the
// write fails the channel is gone: the notification goes back to the
// front of the late queue so a Publish on a fresh channel can pick it up.
func (s *Subscription) respond(op *publishOp, msg ua.NotificationMessage, more bool, avail []uint32) bool {
	err := op.ch.Write(
		&ua.PublishResponse{
			ResponseHeader: ua.ResponseHeader{
				Timestamp:     time.Now(),
				RequestHandle: op.req.RequestHandle,
			},
			SubscriptionID:           s.id,
			AvailableSequenceNumbers: avail,
			MoreNotifications:        more,
			NotificationMessage:      msg,
			Results:                  op.results,
		},
		op.requestID,
	)
	if err == nil {
		return true
	}
	if len(msg.NotificationData) > 0 {
		s.Lock()
		// it was just retained; take it back out so redelivery does not
		// duplicate it in the retransmission queue
		if s.retransmissionQueue.Len() > 0 && s.retransmissionQueue.Back().SequenceNumber == msg.SequenceNumber {
			s.retransmissionQueue.PopBack()
		}
		s.lateNotifications.PushFront(msg)
		s.Unlock()
	}
	return false
}

func (s *Subscription) availableSequenceNumbersLocked() []uint32 {
	n := s.retransmissionQueue.Len()
	if n == 0 {
		return nil
	}
	avail := make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		avail = append(avail, s.retransmissionQueue.At(i).SequenceNumber)
	}
	sort.Slice(avail, func(i, j int) bool { return avail[i] < avail[j] })
	return avail
}

// acknowledge retires retained notifications with sequence numbers up to
// and including seq. It reports whether seq named a retained
// notification.
func (s *Subscription) acknowledge(seq uint32) bool {
	s.Lock()
	defer s.Unlock()
	known := false
	for i := 0; i < s.retransmissionQueue.Len(); i++ {
		if s.retransmissionQueue.At(i).SequenceNumber == seq {
			known = true
			break
		}
	}
	if !known {
		return false
	}
	for s.retransmissionQueue.Len() > 0 && s.retransmissionQueue.Front().SequenceNumber <= seq {
		s.retransmissionQueue.PopFront()
	}
	return true
}

// statusChange queues a StatusChangeNotification for the session.
func (s *Subscription) statusChange(status ua.StatusCode) {
	s.Lock()
	msg := ua.NotificationMessage{
		SequenceNumber: s.nextSequenceNumber,
		PublishTime:    time.Now(),
		NotificationData: []ua.ExtensionObject{
			&ua.StatusChangeNotification{Status: status},
		},
	}
	s.nextSequenceNumber++
	s.Unlock()
	s.session.addStateChange(stateChangeOp{subscriptionID: s.id, message: msg})
}
