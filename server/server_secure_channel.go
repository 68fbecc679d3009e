package server

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"reflect"
	"sync"
	"time"

	"github.com/djherbis/buffer"
	"github.com/edgeworks/opcua/ua"
	"github.com/pkg/errors"
)

const (
	plainHeaderSize    = 16
	sequenceHeaderSize = 8
	// a sender may let its sequence number roll over to a value below
	// sequenceWrapMax once it passed sequenceWrapLimit
	sequenceWrapLimit uint32 = 4294966271
	sequenceWrapMax   uint32 = 1024
	// fraction of the token lifetime during which the previous token is
	// still honored after a renewal
	tokenRenewalGrace = 0.25
)

var (
	bytesPool  = sync.Pool{New: func() any { return make([]byte, defaultBufferSize) }}
	bufferPool = buffer.NewMemPoolAt(int64(defaultBufferSize))
)

// serverSecureChannel is the server side of one UA TCP connection: the
// Hello handshake, chunk assembly and chunking, token validation and the
// security transform.
type serverSecureChannel struct {
	sync.Mutex
	srv  *Server
	conn net.Conn

	channelID         uint32
	tokenID           uint32
	prevTokenID       uint32
	tokenExpiry       time.Time
	prevTokenExpiry   time.Time
	securityPolicyURI string
	securityMode      ua.MessageSecurityMode
	security          ChannelSecurity
	localNonce        ua.ByteString
	remoteNonce       ua.ByteString

	sendingSequenceNumber  uint32
	receivedSequenceNumber uint32

	receiveBufferSize uint32
	sendBufferSize    uint32
	maxMessageSize    uint32
	maxChunkCount     uint32
	endpointURL       string

	// sized to the negotiated limits after the handshake
	receiveBuffer []byte
	sendBuffer    []byte

	closed bool
}

func newServerSecureChannel(srv *Server, conn net.Conn) *serverSecureChannel {
	return &serverSecureChannel{
		srv:               srv,
		conn:              conn,
		security:          nonSecurity{},
		receiveBufferSize: srv.receiveBufferSize,
		sendBufferSize:    srv.sendBufferSize,
		maxMessageSize:    srv.maxMessageSize,
		maxChunkCount:     srv.maxChunkCount,
	}
}

// allocateBuffers sizes the per-channel chunk buffers to the negotiated
// limits. The pooled buffers only fit defaultBufferSize chunks.
func (ch *serverSecureChannel) allocateBuffers() {
	ch.receiveBuffer = make([]byte, ch.receiveBufferSize)
	ch.sendBuffer = make([]byte, ch.sendBufferSize)
}

// ChannelID returns the server assigned channel id, non-zero once open.
func (ch *serverSecureChannel) ChannelID() uint32 {
	ch.Lock()
	defer ch.Unlock()
	return ch.channelID
}

// IsClosed reports whether the connection has been torn down.
func (ch *serverSecureChannel) IsClosed() bool {
	ch.Lock()
	defer ch.Unlock()
	return ch.closed
}

// EncodingContext limits, negotiated during the handshake.

func (ch *serverSecureChannel) MaxStringLength() uint32     { return ch.maxMessageSize }
func (ch *serverSecureChannel) MaxByteStringLength() uint32 { return ch.maxMessageSize }
func (ch *serverSecureChannel) MaxArrayLength() uint32      { return ch.maxMessageSize }

// Open performs the Hello handshake and the first OpenSecureChannel
// exchange. The connection accepts nothing before a valid Hello.
func (ch *serverSecureChannel) Open() error {
	buf := bytesPool.Get().([]byte)
	defer bytesPool.Put(buf)

	n, err := ch.read(buf)
	if err != nil {
		return errors.Wrap(err, "reading hello")
	}
	if binary.LittleEndian.Uint32(buf[0:4]) != ua.MessageTypeHello {
		ch.Abort(ua.BadTCPMessageTypeInvalid, "expected hello")
		return ua.BadTCPMessageTypeInvalid
	}
	dec := ua.NewBinaryDecoder(bytes.NewReader(buf[8:n]), ch)
	var remoteProtocolVersion, remoteReceiveBufferSize, remoteSendBufferSize, remoteMaxMessageSize, remoteMaxChunkCount uint32
	if err := dec.ReadUInt32(&remoteProtocolVersion); err != nil {
		return err
	}
	if err := dec.ReadUInt32(&remoteReceiveBufferSize); err != nil {
		return err
	}
	if err := dec.ReadUInt32(&remoteSendBufferSize); err != nil {
		return err
	}
	if err := dec.ReadUInt32(&remoteMaxMessageSize); err != nil {
		return err
	}
	if err := dec.ReadUInt32(&remoteMaxChunkCount); err != nil {
		return err
	}
	if err := dec.ReadString(&ch.endpointURL); err != nil {
		return err
	}
	if remoteProtocolVersion < protocolVersion {
		ch.Abort(ua.BadProtocolVersionUnsupported, "")
		return ua.BadProtocolVersionUnsupported
	}
	// revise each limit down to our own
	if remoteReceiveBufferSize < ch.sendBufferSize {
		ch.sendBufferSize = remoteReceiveBufferSize
	}
	if remoteSendBufferSize < ch.receiveBufferSize {
		ch.receiveBufferSize = remoteSendBufferSize
	}
	if remoteMaxMessageSize != 0 && remoteMaxMessageSize < ch.maxMessageSize {
		ch.maxMessageSize = remoteMaxMessageSize
	}
	if remoteMaxChunkCount != 0 && remoteMaxChunkCount < ch.maxChunkCount {
		ch.maxChunkCount = remoteMaxChunkCount
	}
	ch.allocateBuffers()

	var ack bytes.Buffer
	enc := ua.NewBinaryEncoder(&ack, ch)
	enc.WriteUInt32(ua.MessageTypeAck)
	enc.WriteUInt32(28)
	enc.WriteUInt32(protocolVersion)
	enc.WriteUInt32(ch.receiveBufferSize)
	enc.WriteUInt32(ch.sendBufferSize)
	enc.WriteUInt32(ch.maxMessageSize)
	enc.WriteUInt32(ch.maxChunkCount)
	if _, err := ch.conn.Write(ack.Bytes()); err != nil {
		return errors.Wrap(err, "writing ack")
	}

	// the first message after the handshake must be OpenSecureChannel
	n, err = ch.read(ch.receiveBuffer)
	if err != nil {
		return errors.Wrap(err, "reading open")
	}
	if binary.LittleEndian.Uint32(ch.receiveBuffer[0:4]) != ua.MessageTypeOpenFinal {
		ch.Abort(ua.BadTCPMessageTypeInvalid, "expected open secure channel")
		return ua.BadTCPMessageTypeInvalid
	}
	req, requestID, err := ch.decodeOpenChunk(ch.receiveBuffer[8:n])
	if err != nil {
		ch.Abort(ua.BadDecodingError, "")
		return err
	}
	if req.RequestType != ua.SecurityTokenRequestTypeIssue {
		ch.Abort(ua.BadRequestTypeInvalid, "")
		return ua.BadRequestTypeInvalid
	}
	if req.SecurityMode != ua.MessageSecurityModeNone {
		ch.Abort(ua.BadSecurityModeRejected, "")
		return ua.BadSecurityModeRejected
	}

	ch.Lock()
	ch.channelID = ch.srv.getNextChannelID()
	ch.tokenID = ch.srv.getNextTokenID()
	lifetime := reviseTokenLifetime(req.RequestedLifetime, ch.srv.maxTokenLifetime)
	ch.tokenExpiry = time.Now().Add(time.Duration(lifetime) * time.Millisecond)
	ch.localNonce = ua.ByteString(getNextNonce(nonceLength))
	ch.remoteNonce = req.ClientNonce
	ch.securityMode = req.SecurityMode
	ch.securityPolicyURI = ua.SecurityPolicyURINone
	channelID, tokenID := ch.channelID, ch.tokenID
	ch.Unlock()

	ch.srv.logger.Debug("channel opened", "channel", channelID, "remote", ch.conn.RemoteAddr())
	return ch.sendOpenSecureChannelResponse(
		&ua.OpenSecureChannelResponse{
			ResponseHeader: ua.ResponseHeader{
				Timestamp:     time.Now(),
				RequestHandle: req.RequestHandle,
			},
			ServerProtocolVersion: protocolVersion,
			SecurityToken: ua.ChannelSecurityToken{
				ChannelID:       channelID,
				TokenID:         tokenID,
				CreatedAt:       time.Now(),
				RevisedLifetime: lifetime,
			},
			ServerNonce: ch.localNonce,
		},
		requestID,
	)
}

func reviseTokenLifetime(requested, max uint32) uint32 {
	switch {
	case requested == 0 || requested > max:
		return max
	case requested < minTokenLifetime:
		return minTokenLifetime
	default:
		return requested
	}
}

// decodeOpenChunk parses the asymmetric security header, the sequence
// header and the body of an OPN chunk.
func (ch *serverSecureChannel) decodeOpenChunk(body []byte) (*ua.OpenSecureChannelRequest, uint32, error) {
	dec := ua.NewBinaryDecoder(bytes.NewReader(body), ch)
	var channelID uint32
	if err := dec.ReadUInt32(&channelID); err != nil {
		return nil, 0, err
	}
	var policyURI string
	if err := dec.ReadString(&policyURI); err != nil {
		return nil, 0, err
	}
	var senderCertificate, receiverThumbprint ua.ByteString
	if err := dec.ReadByteString(&senderCertificate); err != nil {
		return nil, 0, err
	}
	if err := dec.ReadByteString(&receiverThumbprint); err != nil {
		return nil, 0, err
	}
	if policyURI != ua.SecurityPolicyURINone {
		return nil, 0, ua.BadSecurityPolicyRejected
	}
	var sequenceNumber, requestID uint32
	if err := dec.ReadUInt32(&sequenceNumber); err != nil {
		return nil, 0, err
	}
	if err := dec.ReadUInt32(&requestID); err != nil {
		return nil, 0, err
	}
	if err := ch.validateSequenceNumber(sequenceNumber); err != nil {
		return nil, 0, err
	}
	var typeID ua.NodeID
	if err := dec.ReadNodeID(&typeID); err != nil {
		return nil, 0, err
	}
	if typeID != ua.ObjectIDOpenSecureChannelRequestEncodingDefaultBinary {
		return nil, 0, ua.BadDecodingError
	}
	req := new(ua.OpenSecureChannelRequest)
	if err := dec.Decode(req); err != nil {
		return nil, 0, err
	}
	return req, requestID, nil
}

// renew issues a new token on the same channel id. The previous token
// stays valid for a grace window.
func (ch *serverSecureChannel) renew(requestID uint32, req *ua.OpenSecureChannelRequest) error {
	if req.RequestType != ua.SecurityTokenRequestTypeRenew {
		ch.Abort(ua.BadRequestTypeInvalid, "")
		return ua.BadRequestTypeInvalid
	}
	ch.Lock()
	lifetime := reviseTokenLifetime(req.RequestedLifetime, ch.srv.maxTokenLifetime)
	ch.prevTokenID = ch.tokenID
	ch.prevTokenExpiry = time.Now().Add(time.Duration(tokenRenewalGrace*float64(lifetime)) * time.Millisecond)
	ch.tokenID = ch.srv.getNextTokenID()
	ch.tokenExpiry = time.Now().Add(time.Duration(lifetime) * time.Millisecond)
	ch.remoteNonce = req.ClientNonce
	ch.localNonce = ua.ByteString(getNextNonce(nonceLength))
	channelID, tokenID := ch.channelID, ch.tokenID
	ch.Unlock()

	ch.srv.logger.Debug("channel token renewed", "channel", channelID, "token", tokenID)
	return ch.sendOpenSecureChannelResponse(
		&ua.OpenSecureChannelResponse{
			ResponseHeader: ua.ResponseHeader{
				Timestamp:     time.Now(),
				RequestHandle: req.RequestHandle,
			},
			ServerProtocolVersion: protocolVersion,
			SecurityToken: ua.ChannelSecurityToken{
				ChannelID:       channelID,
				TokenID:         tokenID,
				CreatedAt:       time.Now(),
				RevisedLifetime: lifetime,
			},
			ServerNonce: ch.localNonce,
		},
		requestID,
	)
}

func (ch *serverSecureChannel) validateToken(id uint32) error {
	ch.Lock()
	defer ch.Unlock()
	now := time.Now()
	if id == ch.tokenID && now.Before(ch.tokenExpiry) {
		return nil
	}
	if id == ch.prevTokenID && id != 0 && now.Before(ch.prevTokenExpiry) {
		return nil
	}
	return ua.BadSecureChannelTokenUnknown
}

// validateSequenceNumber enforces strict succession with the wrap rule:
// past sequenceWrapLimit the sender may restart below sequenceWrapMax.
func (ch *serverSecureChannel) validateSequenceNumber(seq uint32) error {
	ch.Lock()
	defer ch.Unlock()
	if ch.receivedSequenceNumber == 0 && ch.channelID == 0 {
		// first chunk of the connection
		ch.receivedSequenceNumber = seq
		return nil
	}
	if seq == ch.receivedSequenceNumber+1 {
		ch.receivedSequenceNumber = seq
		return nil
	}
	if ch.receivedSequenceNumber > sequenceWrapLimit && seq < sequenceWrapMax {
		ch.receivedSequenceNumber = seq
		return nil
	}
	return ua.BadSequenceNumberInvalid
}

// readRequest reassembles the next request from its chunks. An abort
// chunk discards the assembly in progress and reading continues with the
// next request.
func (ch *serverSecureChannel) readRequest() (ua.ServiceRequest, uint32, error) {
	bodyStream := buffer.NewPartitionAt(bufferPool)
	defer func() { bodyStream.Reset() }()
	buf := ch.receiveBuffer

	var requestID uint32
	var chunkCount uint32
	for {
		n, err := ch.read(buf)
		if err != nil {
			return nil, 0, errors.Wrap(err, "reading chunk")
		}
		messageType := binary.LittleEndian.Uint32(buf[0:4])
		switch messageType {
		case ua.MessageTypeFinal, ua.MessageTypeChunk, ua.MessageTypeAbort, ua.MessageTypeCloseFinal:
			if binary.LittleEndian.Uint32(buf[8:12]) != ch.ChannelID() {
				ch.Abort(ua.BadTCPSecureChannelUnknown, "")
				return nil, 0, ua.BadTCPSecureChannelUnknown
			}
			if err := ch.validateToken(binary.LittleEndian.Uint32(buf[12:16])); err != nil {
				ch.Abort(ua.BadSecureChannelTokenUnknown, "")
				return nil, 0, err
			}
			body, err := ch.security.Decrypt(buf[plainHeaderSize:n])
			if err != nil {
				ch.Abort(ua.BadSecurityChecksFailed, "")
				return nil, 0, err
			}
			if body, err = ch.security.Verify(body); err != nil {
				ch.Abort(ua.BadSecurityChecksFailed, "")
				return nil, 0, err
			}
			if len(body) < sequenceHeaderSize {
				ch.Abort(ua.BadDecodingError, "")
				return nil, 0, ua.BadDecodingError
			}
			if err := ch.validateSequenceNumber(binary.LittleEndian.Uint32(body[0:4])); err != nil {
				ch.Abort(ua.BadSequenceNumberInvalid, "sequence gap")
				return nil, 0, err
			}
			rid := binary.LittleEndian.Uint32(body[4:8])
			if messageType == ua.MessageTypeAbort {
				// drop the assembly for this request and keep reading
				bodyStream.Reset()
				bodyStream = buffer.NewPartitionAt(bufferPool)
				chunkCount = 0
				requestID = 0
				continue
			}
			if chunkCount == 0 {
				requestID = rid
			} else if rid != requestID {
				ch.Abort(ua.BadTCPMessageTypeInvalid, "interleaved request ids")
				return nil, 0, ua.BadTCPMessageTypeInvalid
			}
			chunkCount++
			if ch.maxChunkCount > 0 && chunkCount > ch.maxChunkCount {
				ch.Abort(ua.BadEncodingLimitsExceeded, "chunk count exceeded")
				return nil, 0, ua.BadEncodingLimitsExceeded
			}
			if _, err := bodyStream.Write(body[sequenceHeaderSize:]); err != nil {
				return nil, 0, errors.Wrap(err, "buffering chunk")
			}
			if ch.maxMessageSize > 0 && bodyStream.Len() > int64(ch.maxMessageSize) {
				ch.Abort(ua.BadEncodingLimitsExceeded, "message size exceeded")
				return nil, 0, ua.BadEncodingLimitsExceeded
			}
			if messageType == ua.MessageTypeChunk {
				continue
			}
			req, err := ch.decodeRequest(bodyStream)
			if err != nil {
				return nil, 0, err
			}
			return req, requestID, nil

		case ua.MessageTypeOpenFinal:
			req, rid, err := ch.decodeOpenChunk(buf[8:n])
			if err != nil {
				ch.Abort(ua.BadDecodingError, "")
				return nil, 0, err
			}
			return req, rid, nil

		case ua.MessageTypeError:
			return nil, 0, ua.BadConnectionClosed

		default:
			ch.Abort(ua.BadTCPMessageTypeInvalid, "unknown message type")
			return nil, 0, ua.BadTCPMessageTypeInvalid
		}
	}
}

// decodeRequest decodes the type id and body of a reassembled message. A
// type the server does not serve terminates the owning sessions and
// aborts the channel.
func (ch *serverSecureChannel) decodeRequest(r io.Reader) (ua.ServiceRequest, error) {
	dec := ua.NewBinaryDecoder(r, ch)
	var typeID ua.NodeID
	if err := dec.ReadNodeID(&typeID); err != nil {
		ch.Abort(ua.BadDecodingError, "")
		return nil, err
	}
	typ, ok := ua.FindTypeForBinaryEncodingID(typeID)
	if !ok {
		ch.abortUnsupported()
		return nil, ua.BadServiceUnsupported
	}
	instance := reflect.New(typ).Interface()
	req, ok := instance.(ua.ServiceRequest)
	if !ok {
		ch.abortUnsupported()
		return nil, ua.BadServiceUnsupported
	}
	if err := dec.Decode(instance); err != nil {
		ch.Abort(ua.BadDecodingError, "")
		return nil, err
	}
	return req, nil
}

// abortUnsupported terminates the sessions bound to this channel and
// aborts the channel.
func (ch *serverSecureChannel) abortUnsupported() {
	id := ch.ChannelID()
	for _, s := range ch.srv.sessionManager.all() {
		if s.SecureChannelID() == id {
			ch.srv.sessionManager.Delete(s)
			for _, sub := range ch.srv.subscriptionManager.GetBySession(s) {
				sub.Delete()
			}
		}
	}
	ch.Abort(ua.BadServiceUnsupported, "")
}

// Write encodes a response and sends it in one or more MSG chunks.
func (ch *serverSecureChannel) Write(response ua.ServiceResponse, requestID uint32) error {
	if res, ok := response.(*ua.OpenSecureChannelResponse); ok {
		return ch.sendOpenSecureChannelResponse(res, requestID)
	}
	if ch.IsClosed() {
		return ua.BadSecureChannelClosed
	}
	id, ok := ua.FindBinaryEncodingIDForType(reflect.Indirect(reflect.ValueOf(response)).Type())
	if !ok {
		return ua.BadEncodingError
	}
	bodyStream := buffer.NewPartitionAt(bufferPool)
	defer bodyStream.Reset()
	enc := ua.NewBinaryEncoder(bodyStream, ch)
	if err := enc.WriteNodeID(id); err != nil {
		return err
	}
	if err := enc.Encode(response); err != nil {
		return err
	}

	maxBodySize := int64(ch.sendBufferSize) - plainHeaderSize - sequenceHeaderSize - int64(ch.security.SignatureSize())
	for {
		bodySize := bodyStream.Len()
		messageType := ua.MessageTypeFinal
		if bodySize > maxBodySize {
			bodySize = maxBodySize
			messageType = ua.MessageTypeChunk
		}
		ch.Lock()
		if ch.closed {
			ch.Unlock()
			return ua.BadSecureChannelClosed
		}
		buf := ch.sendBuffer
		binary.LittleEndian.PutUint32(buf[0:4], messageType)
		binary.LittleEndian.PutUint32(buf[8:12], ch.channelID)
		binary.LittleEndian.PutUint32(buf[12:16], ch.tokenID)
		binary.LittleEndian.PutUint32(buf[16:20], ch.nextSendingSequenceNumber())
		binary.LittleEndian.PutUint32(buf[20:24], requestID)
		if _, err := io.ReadFull(bodyStream, buf[24:24+bodySize]); err != nil {
			ch.Unlock()
			return errors.Wrap(err, "chunking response")
		}
		sealed, err := ch.security.Sign(buf[plainHeaderSize : 24+bodySize])
		if err == nil {
			sealed, err = ch.security.Encrypt(sealed)
		}
		if err != nil {
			ch.Unlock()
			return err
		}
		if plainHeaderSize+int64(len(sealed)) > int64(len(buf)) {
			ch.Unlock()
			return ua.BadEncodingLimitsExceeded
		}
		n := copy(buf[plainHeaderSize:], sealed)
		binary.LittleEndian.PutUint32(buf[4:8], uint32(plainHeaderSize+int64(n)))
		_, err = ch.conn.Write(buf[:plainHeaderSize+int64(n)])
		ch.Unlock()
		if err != nil {
			return errors.Wrap(err, "writing chunk")
		}
		if messageType == ua.MessageTypeFinal {
			return nil
		}
	}
}

func (ch *serverSecureChannel) sendOpenSecureChannelResponse(res *ua.OpenSecureChannelResponse, requestID uint32) error {
	var body bytes.Buffer
	enc := ua.NewBinaryEncoder(&body, ch)
	enc.WriteUInt32(ch.ChannelID())
	enc.WriteString(ua.SecurityPolicyURINone)
	enc.WriteByteString("") // no sender certificate
	enc.WriteByteString("") // no receiver thumbprint
	enc.WriteUInt32(ch.nextSendingSequenceNumberLocked())
	enc.WriteUInt32(requestID)
	enc.WriteNodeID(ua.ObjectIDOpenSecureChannelResponseEncodingDefaultBinary)
	if err := enc.Encode(res); err != nil {
		return err
	}
	var msg bytes.Buffer
	henc := ua.NewBinaryEncoder(&msg, ch)
	henc.WriteUInt32(ua.MessageTypeOpenFinal)
	henc.WriteUInt32(uint32(8 + body.Len()))
	msg.Write(body.Bytes())
	if _, err := ch.conn.Write(msg.Bytes()); err != nil {
		return errors.Wrap(err, "writing open response")
	}
	return nil
}

// nextSendingSequenceNumber must be called with the channel locked.
func (ch *serverSecureChannel) nextSendingSequenceNumber() uint32 {
	if ch.sendingSequenceNumber > sequenceWrapLimit {
		ch.sendingSequenceNumber = 0
	}
	ch.sendingSequenceNumber++
	return ch.sendingSequenceNumber
}

func (ch *serverSecureChannel) nextSendingSequenceNumberLocked() uint32 {
	ch.Lock()
	defer ch.Unlock()
	return ch.nextSendingSequenceNumber()
}

// Abort sends an ERR message and closes the connection.
func (ch *serverSecureChannel) Abort(reason ua.StatusCode, message string) error {
	ch.Lock()
	if ch.closed {
		ch.Unlock()
		return nil
	}
	var msg bytes.Buffer
	enc := ua.NewBinaryEncoder(&msg, ch)
	enc.WriteUInt32(ua.MessageTypeError)
	enc.WriteUInt32(uint32(16 + len(message)))
	enc.WriteUInt32(uint32(reason))
	enc.WriteString(message)
	ch.conn.Write(msg.Bytes())
	ch.closed = true
	ch.conn.Close()
	ch.Unlock()
	ch.srv.logger.Debug("channel aborted", "channel", ch.channelID, "reason", reason)
	return nil
}

// Close tears the connection down. Safe to call more than once.
func (ch *serverSecureChannel) Close() error {
	ch.Lock()
	defer ch.Unlock()
	if ch.closed {
		return nil
	}
	ch.closed = true
	return ch.conn.Close()
}

// read reads one whole message into p: the eight byte header first, then
// the remainder per the size field.
func (ch *serverSecureChannel) read(p []byte) (int, error) {
	if len(p) < 8 {
		return 0, ua.BadResponseTooLarge
	}
	if _, err := io.ReadFull(ch.conn, p[:8]); err != nil {
		return 0, err
	}
	count := int(binary.LittleEndian.Uint32(p[4:8]))
	if count < 8 || count > len(p) {
		return 0, ua.BadTCPMessageTooLarge
	}
	if _, err := io.ReadFull(ch.conn, p[8:count]); err != nil {
		return 0, err
	}
	return count, nil
}
