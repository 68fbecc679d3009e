package client

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"net"
	"net/url"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/djherbis/buffer"
	"github.com/edgeworks/opcua/ua"
	"github.com/pkg/errors"
)

const (
	protocolVersion    uint32 = 0
	plainHeaderSize    int64  = 16
	sequenceHeaderSize int64  = 8
	sequenceWrapLimit  uint32 = 4294966271

	defaultBufferSize     uint32 = 64 * 1024
	defaultMaxMessageSize uint32 = 16 * 1024 * 1024
	defaultMaxChunkCount  uint32 = 4 * 1024
	defaultTokenLifetime  uint32 = 60 * 60 * 1000
	defaultConnectTimeout        = 5 * time.Second
)

var bufferPool = buffer.NewMemPoolAt(int64(defaultBufferSize))

type serviceResult struct {
	response ua.ServiceResponse
	err      error
}

// clientSecureChannel is the client side of a secure channel for the None
// security policy. It multiplexes concurrent requests over one connection
// and correlates responses by request id.
type clientSecureChannel struct {
	sync.Mutex
	endpointURL string
	conn        net.Conn
	logger      *slog.Logger

	channelID     uint32
	tokenID       uint32
	tokenLifetime uint32

	receiveBufferSize uint32
	sendBufferSize    uint32
	maxMessageSize    uint32
	maxChunkCount     uint32
	requestedLifetime uint32

	sendingSequenceNumber uint32
	requestIDCounter      uint32

	// sized to the negotiated limits after the handshake
	receiveBuffer []byte
	sendBuffer    []byte

	pendingMu sync.Mutex
	pending   map[uint32]chan serviceResult

	closing chan struct{}
	closed  bool
}

func newClientSecureChannel(endpointURL string, requestedLifetime uint32, logger *slog.Logger) *clientSecureChannel {
	return &clientSecureChannel{
		endpointURL:       endpointURL,
		logger:            logger,
		receiveBufferSize: defaultBufferSize,
		sendBufferSize:    defaultBufferSize,
		maxMessageSize:    defaultMaxMessageSize,
		maxChunkCount:     defaultMaxChunkCount,
		requestedLifetime: requestedLifetime,
		pending:           map[uint32]chan serviceResult{},
		closing:           make(chan struct{}),
	}
}

// EncodingContext limits, negotiated during the handshake.
func (ch *clientSecureChannel) MaxStringLength() uint32     { return ch.maxMessageSize }
func (ch *clientSecureChannel) MaxByteStringLength() uint32 { return ch.maxMessageSize }
func (ch *clientSecureChannel) MaxArrayLength() uint32      { return ch.maxMessageSize }

// Open dials the server, negotiates transport limits with Hello and
// Acknowledge, opens the secure channel, and starts the response worker
// and the token renewal timer.
func (ch *clientSecureChannel) Open(ctx context.Context) error {
	u, err := url.Parse(ch.endpointURL)
	if err != nil {
		return errors.Wrap(err, "parsing endpoint url")
	}
	dialer := net.Dialer{Timeout: defaultConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", u.Host)
	if err != nil {
		return errors.Wrap(err, "dialing")
	}
	ch.conn = conn
	if err := ch.handshake(); err != nil {
		conn.Close()
		return err
	}
	ch.receiveBuffer = make([]byte, ch.receiveBufferSize)
	ch.sendBuffer = make([]byte, ch.sendBufferSize)
	res, err := ch.openSecureChannel(ua.SecurityTokenRequestTypeIssue)
	if err != nil {
		conn.Close()
		return err
	}
	ch.Lock()
	ch.channelID = res.SecurityToken.ChannelID
	ch.tokenID = res.SecurityToken.TokenID
	ch.tokenLifetime = res.SecurityToken.RevisedLifetime
	ch.Unlock()
	go ch.responseWorker()
	go ch.renewalLoop()
	return nil
}

func (ch *clientSecureChannel) handshake() error {
	var msg bytes.Buffer
	enc := ua.NewBinaryEncoder(&msg, ch)
	enc.WriteUInt32(ua.MessageTypeHello)
	enc.WriteUInt32(uint32(32 + len(ch.endpointURL)))
	enc.WriteUInt32(protocolVersion)
	enc.WriteUInt32(ch.receiveBufferSize)
	enc.WriteUInt32(ch.sendBufferSize)
	enc.WriteUInt32(ch.maxMessageSize)
	enc.WriteUInt32(ch.maxChunkCount)
	enc.WriteString(ch.endpointURL)
	if _, err := ch.conn.Write(msg.Bytes()); err != nil {
		return errors.Wrap(err, "writing hello")
	}

	buf := make([]byte, 64)
	n, err := ch.read(buf)
	if err != nil {
		return errors.Wrap(err, "reading acknowledge")
	}
	dec := ua.NewBinaryDecoder(bytes.NewReader(buf[:n]), ch)
	var messageType, size uint32
	dec.ReadUInt32(&messageType)
	dec.ReadUInt32(&size)
	switch messageType {
	case ua.MessageTypeAck:
	case ua.MessageTypeError:
		var code uint32
		var reason string
		dec.ReadUInt32(&code)
		dec.ReadString(&reason)
		return ua.StatusCode(code)
	default:
		return ua.BadTCPMessageTypeInvalid
	}
	var version uint32
	if err := dec.ReadUInt32(&version); err != nil {
		return err
	}
	if version < protocolVersion {
		return ua.BadProtocolVersionUnsupported
	}
	// the acknowledged limits bind both sides; buffer sizes are swapped
	// relative to the server's view
	var sendBufferSize, receiveBufferSize, maxMessageSize, maxChunkCount uint32
	dec.ReadUInt32(&sendBufferSize)
	dec.ReadUInt32(&receiveBufferSize)
	dec.ReadUInt32(&maxMessageSize)
	if err := dec.ReadUInt32(&maxChunkCount); err != nil {
		return err
	}
	ch.sendBufferSize = receiveBufferSize
	ch.receiveBufferSize = sendBufferSize
	if maxMessageSize > 0 {
		ch.maxMessageSize = maxMessageSize
	}
	if maxChunkCount > 0 {
		ch.maxChunkCount = maxChunkCount
	}
	return nil
}

// openSecureChannel sends an OpenSecureChannel request as a single OPN
// chunk. Issue is exchanged synchronously before the response worker
// starts; Renew correlates through the pending table like any request.
func (ch *clientSecureChannel) openSecureChannel(requestType ua.SecurityTokenRequestType) (*ua.OpenSecureChannelResponse, error) {
	req := &ua.OpenSecureChannelRequest{
		RequestHeader: ua.RequestHeader{
			Timestamp:     time.Now(),
			RequestHandle: ch.nextRequestID(),
		},
		ClientProtocolVersion: protocolVersion,
		RequestType:           requestType,
		SecurityMode:          ua.MessageSecurityModeNone,
		RequestedLifetime:     ch.requestedLifetime,
	}
	requestID := ch.nextRequestID()

	if requestType == ua.SecurityTokenRequestTypeRenew {
		resultCh := ch.addPending(requestID)
		if err := ch.sendOpenSecureChannelRequest(req, requestID); err != nil {
			ch.removePending(requestID)
			return nil, err
		}
		select {
		case result := <-resultCh:
			if result.err != nil {
				return nil, result.err
			}
			res, ok := result.response.(*ua.OpenSecureChannelResponse)
			if !ok {
				return nil, ua.BadUnknownResponse
			}
			return res, nil
		case <-ch.closing:
			return nil, ua.BadSecureChannelClosed
		}
	}

	if err := ch.sendOpenSecureChannelRequest(req, requestID); err != nil {
		return nil, err
	}
	buf := ch.receiveBuffer
	n, err := ch.read(buf)
	if err != nil {
		return nil, errors.Wrap(err, "reading open response")
	}
	messageType := binary.LittleEndian.Uint32(buf[0:4])
	if messageType == ua.MessageTypeError {
		return nil, ua.StatusCode(binary.LittleEndian.Uint32(buf[8:12]))
	}
	if messageType != ua.MessageTypeOpenFinal {
		return nil, ua.BadTCPMessageTypeInvalid
	}
	response, _, err := ch.decodeOpenResponse(buf[8:n])
	return response, err
}

func (ch *clientSecureChannel) sendOpenSecureChannelRequest(req *ua.OpenSecureChannelRequest, requestID uint32) error {
	var body bytes.Buffer
	enc := ua.NewBinaryEncoder(&body, ch)
	enc.WriteUInt32(ch.channelID)
	enc.WriteString(ua.SecurityPolicyURINone)
	enc.WriteByteString("")
	enc.WriteByteString("")
	enc.WriteUInt32(ch.nextSendingSequenceNumberLocked())
	enc.WriteUInt32(requestID)
	enc.WriteNodeID(ua.ObjectIDOpenSecureChannelRequestEncodingDefaultBinary)
	if err := enc.Encode(req); err != nil {
		return err
	}
	var msg bytes.Buffer
	henc := ua.NewBinaryEncoder(&msg, ch)
	henc.WriteUInt32(ua.MessageTypeOpenFinal)
	henc.WriteUInt32(uint32(8 + body.Len()))
	msg.Write(body.Bytes())
	ch.Lock()
	defer ch.Unlock()
	if ch.closed {
		return ua.BadSecureChannelClosed
	}
	if _, err := ch.conn.Write(msg.Bytes()); err != nil {
		return errors.Wrap(err, "writing open request")
	}
	return nil
}

func (ch *clientSecureChannel) decodeOpenResponse(body []byte) (*ua.OpenSecureChannelResponse, uint32, error) {
	dec := ua.NewBinaryDecoder(bytes.NewReader(body), ch)
	var channelID uint32
	var policyURI string
	var senderCertificate, receiverThumbprint ua.ByteString
	dec.ReadUInt32(&channelID)
	dec.ReadString(&policyURI)
	dec.ReadByteString(&senderCertificate)
	dec.ReadByteString(&receiverThumbprint)
	var sequenceNumber, requestID uint32
	dec.ReadUInt32(&sequenceNumber)
	if err := dec.ReadUInt32(&requestID); err != nil {
		return nil, 0, err
	}
	var typeID ua.NodeID
	if err := dec.ReadNodeID(&typeID); err != nil {
		return nil, 0, err
	}
	if typeID != ua.ObjectIDOpenSecureChannelResponseEncodingDefaultBinary {
		return nil, requestID, ua.BadUnknownResponse
	}
	response := &ua.OpenSecureChannelResponse{}
	if err := dec.Decode(response); err != nil {
		return nil, requestID, err
	}
	return response, requestID, nil
}

// renewalLoop renews the channel token at three quarters of its lifetime.
func (ch *clientSecureChannel) renewalLoop() {
	for {
		ch.Lock()
		lifetime := ch.tokenLifetime
		ch.Unlock()
		select {
		case <-time.After(time.Duration(lifetime) * time.Millisecond * 3 / 4):
		case <-ch.closing:
			return
		}
		res, err := ch.openSecureChannel(ua.SecurityTokenRequestTypeRenew)
		if err != nil {
			ch.logger.Warn("token renewal failed", "error", err)
			return
		}
		ch.Lock()
		ch.tokenID = res.SecurityToken.TokenID
		ch.tokenLifetime = res.SecurityToken.RevisedLifetime
		ch.Unlock()
		ch.logger.Debug("token renewed", "token", res.SecurityToken.TokenID)
	}
}

func (ch *clientSecureChannel) nextRequestID() uint32 {
	for {
		if id := atomic.AddUint32(&ch.requestIDCounter, 1); id != 0 {
			return id
		}
	}
}

// nextSendingSequenceNumber must be called with the channel locked.
func (ch *clientSecureChannel) nextSendingSequenceNumber() uint32 {
	if ch.sendingSequenceNumber > sequenceWrapLimit {
		ch.sendingSequenceNumber = 0
	}
	ch.sendingSequenceNumber++
	return ch.sendingSequenceNumber
}

func (ch *clientSecureChannel) nextSendingSequenceNumberLocked() uint32 {
	ch.Lock()
	defer ch.Unlock()
	return ch.nextSendingSequenceNumber()
}

func (ch *clientSecureChannel) addPending(requestID uint32) chan serviceResult {
	resultCh := make(chan serviceResult, 1)
	ch.pendingMu.Lock()
	ch.pending[requestID] = resultCh
	ch.pendingMu.Unlock()
	return resultCh
}

func (ch *clientSecureChannel) removePending(requestID uint32) (chan serviceResult, bool) {
	ch.pendingMu.Lock()
	resultCh, ok := ch.pending[requestID]
	if ok {
		delete(ch.pending, requestID)
	}
	ch.pendingMu.Unlock()
	return resultCh, ok
}

// Request sends a service request and waits for the matching response. A
// ServiceFault or a fault carried in the response header is returned as
// its StatusCode.
func (ch *clientSecureChannel) Request(ctx context.Context, req ua.ServiceRequest) (ua.ServiceResponse, error) {
	requestID := ch.nextRequestID()
	resultCh := ch.addPending(requestID)
	if err := ch.sendRequest(req, requestID); err != nil {
		ch.removePending(requestID)
		return nil, err
	}
	select {
	case result := <-resultCh:
		if result.err != nil {
			return nil, result.err
		}
		if fault, ok := result.response.(*ua.ServiceFault); ok {
			return nil, fault.ServiceResult
		}
		if result.response.Header().ServiceResult.IsBad() {
			return nil, result.response.Header().ServiceResult
		}
		return result.response, nil
	case <-ctx.Done():
		ch.removePending(requestID)
		return nil, ctx.Err()
	case <-ch.closing:
		return nil, ua.BadSecureChannelClosed
	}
}

// sendRequest encodes a request and writes it as one or more MSG chunks.
// CloseSecureChannel goes out as a CLO chunk and gets no response.
func (ch *clientSecureChannel) sendRequest(req ua.ServiceRequest, requestID uint32) error {
	if r, ok := req.(*ua.OpenSecureChannelRequest); ok {
		return ch.sendOpenSecureChannelRequest(r, requestID)
	}
	finalType := ua.MessageTypeFinal
	if _, ok := req.(*ua.CloseSecureChannelRequest); ok {
		finalType = ua.MessageTypeCloseFinal
	}
	id, ok := ua.FindBinaryEncodingIDForType(reflect.Indirect(reflect.ValueOf(req)).Type())
	if !ok {
		return ua.BadEncodingError
	}
	bodyStream := buffer.NewPartitionAt(bufferPool)
	defer bodyStream.Reset()
	enc := ua.NewBinaryEncoder(bodyStream, ch)
	if err := enc.WriteNodeID(id); err != nil {
		return err
	}
	if err := enc.Encode(req); err != nil {
		return err
	}

	maxBodySize := int64(ch.sendBufferSize) - plainHeaderSize - sequenceHeaderSize
	for {
		bodySize := bodyStream.Len()
		messageType := finalType
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
		binary.LittleEndian.PutUint32(buf[4:8], uint32(plainHeaderSize+sequenceHeaderSize+bodySize))
		binary.LittleEndian.PutUint32(buf[8:12], ch.channelID)
		binary.LittleEndian.PutUint32(buf[12:16], ch.tokenID)
		binary.LittleEndian.PutUint32(buf[16:20], ch.nextSendingSequenceNumber())
		binary.LittleEndian.PutUint32(buf[20:24], requestID)
		if _, err := io.ReadFull(bodyStream, buf[24:24+bodySize]); err != nil {
			ch.Unlock()
			return errors.Wrap(err, "chunking request")
		}
		_, err := ch.conn.Write(buf[:24+bodySize])
		ch.Unlock()
		if err != nil {
			return errors.Wrap(err, "writing chunk")
		}
		if messageType == finalType {
			return nil
		}
	}
}

// responseWorker reads messages until the connection closes, reassembles
// chunked responses and completes the pending request of each one.
func (ch *clientSecureChannel) responseWorker() {
	err := ch.readResponses()
	ch.fail(err)
}

func (ch *clientSecureChannel) readResponses() error {
	bodyStream := buffer.NewPartitionAt(bufferPool)
	defer func() {
		bodyStream.Reset()
	}()
	buf := ch.receiveBuffer

	var currentRequestID uint32
	var chunkCount uint32
	for {
		n, err := ch.read(buf)
		if err != nil {
			return ua.BadConnectionClosed
		}
		messageType := binary.LittleEndian.Uint32(buf[0:4])
		switch messageType {
		case ua.MessageTypeFinal, ua.MessageTypeChunk:
			requestID := binary.LittleEndian.Uint32(buf[20:24])
			if currentRequestID != 0 && currentRequestID != requestID {
				return ua.BadDecodingError
			}
			currentRequestID = requestID
			chunkCount++
			if ch.maxChunkCount > 0 && chunkCount > ch.maxChunkCount {
				return ua.BadEncodingLimitsExceeded
			}
			bodyStream.Write(buf[24:n])
			if int64(ch.maxMessageSize) > 0 && bodyStream.Len() > int64(ch.maxMessageSize) {
				return ua.BadEncodingLimitsExceeded
			}
			if messageType == ua.MessageTypeChunk {
				continue
			}
			response, err := ch.decodeResponse(bodyStream)
			bodyStream.Reset()
			bodyStream = buffer.NewPartitionAt(bufferPool)
			chunkCount = 0
			requestID = currentRequestID
			currentRequestID = 0
			if err != nil {
				return err
			}
			ch.complete(requestID, serviceResult{response: response})

		case ua.MessageTypeAbort:
			bodyStream.Reset()
			bodyStream = buffer.NewPartitionAt(bufferPool)
			chunkCount = 0
			currentRequestID = 0

		case ua.MessageTypeOpenFinal:
			response, requestID, err := ch.decodeOpenResponse(buf[8:n])
			if err != nil {
				return err
			}
			ch.complete(requestID, serviceResult{response: response})

		case ua.MessageTypeError:
			code := binary.LittleEndian.Uint32(buf[8:12])
			return ua.StatusCode(code)

		default:
			return ua.BadTCPMessageTypeInvalid
		}
	}
}

func (ch *clientSecureChannel) decodeResponse(r io.Reader) (ua.ServiceResponse, error) {
	dec := ua.NewBinaryDecoder(r, ch)
	var typeID ua.NodeID
	if err := dec.ReadNodeID(&typeID); err != nil {
		return nil, err
	}
	typ, ok := ua.FindTypeForBinaryEncodingID(typeID)
	if !ok {
		return nil, ua.BadUnknownResponse
	}
	instance := reflect.New(typ).Interface()
	response, ok := instance.(ua.ServiceResponse)
	if !ok {
		return nil, ua.BadUnknownResponse
	}
	if err := dec.Decode(instance); err != nil {
		return nil, err
	}
	return response, nil
}

func (ch *clientSecureChannel) complete(requestID uint32, result serviceResult) {
	if resultCh, ok := ch.removePending(requestID); ok {
		resultCh <- result
	}
}

// fail answers every pending request with err and closes the channel.
func (ch *clientSecureChannel) fail(err error) {
	ch.pendingMu.Lock()
	pending := ch.pending
	ch.pending = map[uint32]chan serviceResult{}
	ch.pendingMu.Unlock()
	for _, resultCh := range pending {
		resultCh <- serviceResult{err: err}
	}
	ch.Close()
}

// Close tears the connection down. Safe to call more than once.
func (ch *clientSecureChannel) Close() error {
	ch.Lock()
	defer ch.Unlock()
	if ch.closed {
		return nil
	}
	ch.closed = true
	close(ch.closing)
	if ch.conn != nil {
		return ch.conn.Close()
	}
	return nil
}

// read reads one whole message into p: the eight byte header first, then
// the remainder per the size field.
func (ch *clientSecureChannel) read(p []byte) (int, error) {
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
