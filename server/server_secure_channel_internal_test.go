package server

import (
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"gotest.tools/assert"

	"github.com/edgeworks/opcua/ua"
)

func TestValidateSequenceNumberStrictSuccessor(t *testing.T) {
	ch := &serverSecureChannel{channelID: 5, receivedSequenceNumber: 10}
	assert.NilError(t, ch.validateSequenceNumber(11))
	assert.NilError(t, ch.validateSequenceNumber(12))
	assert.Equal(t, ua.BadSequenceNumberInvalid, ch.validateSequenceNumber(14))
	// a repeated sequence number is a gap too
	assert.Equal(t, ua.BadSequenceNumberInvalid, ch.validateSequenceNumber(12))
}

func TestValidateSequenceNumberFirstChunk(t *testing.T) {
	ch := &serverSecureChannel{}
	assert.NilError(t, ch.validateSequenceNumber(1))
	assert.NilError(t, ch.validateSequenceNumber(2))
}

func TestValidateSequenceNumberWrap(t *testing.T) {
	ch := &serverSecureChannel{channelID: 5, receivedSequenceNumber: sequenceWrapLimit + 1}
	// past the wrap limit the sender may restart below 1024
	assert.NilError(t, ch.validateSequenceNumber(5))
	assert.NilError(t, ch.validateSequenceNumber(6))

	ch = &serverSecureChannel{channelID: 5, receivedSequenceNumber: sequenceWrapLimit + 1}
	assert.Equal(t, ua.BadSequenceNumberInvalid, ch.validateSequenceNumber(sequenceWrapMax+1))

	// not past the limit, no restart allowed
	ch = &serverSecureChannel{channelID: 5, receivedSequenceNumber: 100000}
	assert.Equal(t, ua.BadSequenceNumberInvalid, ch.validateSequenceNumber(5))
}

func TestValidateToken(t *testing.T) {
	now := time.Now()
	ch := &serverSecureChannel{
		channelID:   5,
		tokenID:     2,
		tokenExpiry: now.Add(time.Hour),
	}
	assert.NilError(t, ch.validateToken(2))
	assert.Equal(t, ua.BadSecureChannelTokenUnknown, ch.validateToken(3))
	assert.Equal(t, ua.BadSecureChannelTokenUnknown, ch.validateToken(0))
}

func TestValidateTokenRenewalGrace(t *testing.T) {
	now := time.Now()
	ch := &serverSecureChannel{
		channelID:       5,
		tokenID:         3,
		tokenExpiry:     now.Add(time.Hour),
		prevTokenID:     2,
		prevTokenExpiry: now.Add(time.Minute),
	}
	assert.NilError(t, ch.validateToken(3))
	assert.NilError(t, ch.validateToken(2))

	ch.prevTokenExpiry = now.Add(-time.Second)
	assert.Equal(t, ua.BadSecureChannelTokenUnknown, ch.validateToken(2))
}

func TestReadBufferMatchesNegotiatedSize(t *testing.T) {
	srv, err := New(ua.ApplicationDescription{}, "opc.tcp://localhost:4840", WithBufferSize(128*1024))
	assert.NilError(t, err)
	srvConn, cliConn := net.Pipe()
	defer srvConn.Close()
	defer cliConn.Close()
	ch := newServerSecureChannel(srv, srvConn)
	ch.allocateBuffers()

	// a chunk larger than the pool buffers but within the negotiated limit
	const size = 100 * 1024
	go func() {
		msg := make([]byte, size)
		binary.LittleEndian.PutUint32(msg[0:4], ua.MessageTypeChunk)
		binary.LittleEndian.PutUint32(msg[4:8], size)
		cliConn.Write(msg)
	}()
	n, err := ch.read(ch.receiveBuffer)
	assert.NilError(t, err)
	assert.Equal(t, size, n)
}

type invertSecurity struct{ nonSecurity }

func (invertSecurity) Encrypt(body []byte) ([]byte, error) {
	for i := range body {
		body[i] ^= 0xFF
	}
	return body, nil
}

func TestWriteAppliesSecurityTransform(t *testing.T) {
	srv, err := New(ua.ApplicationDescription{}, "opc.tcp://localhost:4840")
	assert.NilError(t, err)
	srvConn, cliConn := net.Pipe()
	defer srvConn.Close()
	defer cliConn.Close()
	ch := newServerSecureChannel(srv, srvConn)
	ch.allocateBuffers()
	ch.security = invertSecurity{}
	ch.channelID = 1
	ch.tokenID = 1

	received := make(chan []byte, 1)
	go func() {
		header := make([]byte, 8)
		if _, err := io.ReadFull(cliConn, header); err != nil {
			received <- nil
			return
		}
		rest := make([]byte, binary.LittleEndian.Uint32(header[4:8])-8)
		if _, err := io.ReadFull(cliConn, rest); err != nil {
			received <- nil
			return
		}
		received <- append(header, rest...)
	}()

	err = ch.Write(&ua.ServiceFault{ResponseHeader: ua.ResponseHeader{Timestamp: time.Now()}}, 7)
	assert.NilError(t, err)

	msg := <-received
	assert.Assert(t, msg != nil)
	// the bytes past the plain header went out transformed; undo the
	// transform and check the sequence header
	for i := plainHeaderSize; i < len(msg); i++ {
		msg[i] ^= 0xFF
	}
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(msg[16:20]))
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(msg[20:24]))
}

func TestReviseTokenLifetime(t *testing.T) {
	assert.Equal(t, defaultTokenLifetime, reviseTokenLifetime(0, defaultTokenLifetime))
	assert.Equal(t, defaultTokenLifetime, reviseTokenLifetime(defaultTokenLifetime+1, defaultTokenLifetime))
	assert.Equal(t, minTokenLifetime, reviseTokenLifetime(1, defaultTokenLifetime))
	assert.Equal(t, uint32(120000), reviseTokenLifetime(120000, defaultTokenLifetime))
}
