package server

import (
	"testing"
	"time"

	"gotest.tools/assert"

	"github.com/edgeworks/opcua/ua"
)

func newTestSession(t *testing.T, timeout float64) (*SessionManager, *Session) {
	t.Helper()
	srv, err := New(ua.ApplicationDescription{}, "opc.tcp://localhost:4840")
	assert.NilError(t, err)
	s := NewSession(
		srv,
		ua.NewNodeIDOpaque(1, ua.ByteString("id")),
		ua.NewNodeIDOpaque(0, ua.ByteString("token")),
		"test",
		timeout,
		ua.ApplicationDescription{},
		"",
	)
	return srv.SessionManager(), s
}

func TestUnactivatedSessionExpires(t *testing.T) {
	m, s := newTestSession(t, 10)
	assert.NilError(t, m.Add(s))

	time.Sleep(30 * time.Millisecond)
	m.sweep()

	// requests carrying the token now fail the session lookup
	_, ok := m.Get(s.AuthenticationToken())
	assert.Assert(t, !ok)
	assert.Assert(t, s.IsDeleted())
}

func TestSessionDeleteIdempotent(t *testing.T) {
	m, s := newTestSession(t, defaultSessionTimeout)
	assert.NilError(t, m.Add(s))

	m.Delete(s)
	_, ok := m.Get(s.AuthenticationToken())
	assert.Assert(t, !ok)

	// deleting again is harmless
	m.Delete(s)
	_, ok = m.Get(s.AuthenticationToken())
	assert.Assert(t, !ok)
}

func TestDropPublishRequestsOnChannelTeardown(t *testing.T) {
	_, s := newTestSession(t, defaultSessionTimeout)
	dead := &serverSecureChannel{closed: true}
	live := &serverSecureChannel{}

	s.addPublishRequest(&publishOp{ch: dead, req: &ua.PublishRequest{}})
	s.addPublishRequest(&publishOp{ch: live, req: &ua.PublishRequest{}})
	s.dropPublishRequests(dead)

	op, ok := s.removePublishRequest()
	assert.Assert(t, ok)
	assert.Assert(t, op.ch == live)
	_, ok = s.removePublishRequest()
	assert.Assert(t, !ok)
}
