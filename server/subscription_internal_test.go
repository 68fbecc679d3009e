package server

import (
	"testing"
	"time"

	"gotest.tools/assert"

	"github.com/edgeworks/opcua/ua"
)

func TestSubscriptionRevise(t *testing.T) {
	s := &Subscription{}

	s.revise(0, 0, 0)
	assert.Equal(t, defaultPublishingInterval, s.publishingInterval)
	assert.Equal(t, minKeepAliveCount, s.maxKeepAliveCount)
	assert.Equal(t, minLifetimeCount, s.lifetimeCount)

	s.revise(5, 10, 2)
	assert.Equal(t, minPublishingInterval, s.publishingInterval)
	assert.Equal(t, uint32(2), s.maxKeepAliveCount)
	assert.Equal(t, uint32(10), s.lifetimeCount)

	// lifetime is raised to three times the keep-alive count
	s.revise(1000, 2, 50)
	assert.Equal(t, uint32(50), s.maxKeepAliveCount)
	assert.Equal(t, uint32(150), s.lifetimeCount)

	s.revise(1e9, 1e9, 1e9)
	assert.Equal(t, maxPublishingInterval, s.publishingInterval)
	assert.Equal(t, maxKeepAliveCount, s.maxKeepAliveCount)
	assert.Equal(t, maxLifetimeCount, s.lifetimeCount)
}

func TestRespondRequeuesOnDeadChannel(t *testing.T) {
	s := &Subscription{}
	msg := ua.NotificationMessage{
		SequenceNumber: 3,
		PublishTime:    time.Now(),
		NotificationData: []ua.ExtensionObject{
			&ua.DataChangeNotification{},
		},
	}
	s.retransmissionQueue.PushBack(msg)

	op := &publishOp{ch: &serverSecureChannel{closed: true}, req: &ua.PublishRequest{}}
	assert.Assert(t, !s.respond(op, msg, false, nil))

	// the undeliverable notification is back in the late queue, not
	// duplicated in the retransmission queue
	assert.Equal(t, 0, s.retransmissionQueue.Len())
	assert.Equal(t, 1, s.lateNotifications.Len())
	assert.Equal(t, uint32(3), s.lateNotifications.Front().SequenceNumber)
}

func TestSubscriptionAcknowledge(t *testing.T) {
	s := &Subscription{}
	for seq := uint32(4); seq <= 6; seq++ {
		s.retransmissionQueue.PushBack(ua.NotificationMessage{SequenceNumber: seq, PublishTime: time.Now()})
	}

	// unknown sequence numbers retire nothing
	assert.Assert(t, !s.acknowledge(7))
	assert.Equal(t, 3, s.retransmissionQueue.Len())

	// a known sequence number retires everything up to and including it
	assert.Assert(t, s.acknowledge(5))
	assert.Equal(t, 1, s.retransmissionQueue.Len())
	assert.Equal(t, uint32(6), s.retransmissionQueue.Front().SequenceNumber)

	// already retired
	assert.Assert(t, !s.acknowledge(5))

	assert.Assert(t, s.acknowledge(6))
	assert.Equal(t, 0, s.retransmissionQueue.Len())
}
