package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/edgeworks/opcua/ua"
)

// publishOp is a parked Publish request waiting for a notification.
type publishOp struct {
	ch        *serverSecureChannel
	requestID uint32
	req       *ua.PublishRequest
	results   []ua.StatusCode
}

// stateChangeOp carries a StatusChangeNotification of a subscription to a
// waiting Publish request.
type stateChangeOp struct {
	subscriptionID uint32
	message        ua.NotificationMessage
}

// Session is the context of a client connection above the secure channel.
// It moves Created -> Activated -> Closed; activation binds it to the
// channel that issues ActivateSession.
type Session struct {
	sync.RWMutex
	srv                 *Server
	sessionID           ua.NodeID
	authenticationToken ua.NodeID
	sessionName         string
	sessionTimeout      float64
	clientDescription   ua.ApplicationDescription
	endpointURL         string
	identity            UserIdentity
	localeIDs           []string
	secureChannelID     uint32
	lastAccess          time.Time
	timeCreated         time.Time
	deleted             atomic.Bool
	publishRequests     chan *publishOp
	stateChanges        chan stateChangeOp
	requestCount        uint32
	errorCount          uint32
	publishCount        uint32
}

// NewSession makes a Session in the Created state.
func NewSession(srv *Server, sessionID, authenticationToken ua.NodeID, sessionName string, sessionTimeout float64, clientDescription ua.ApplicationDescription, endpointURL string) *Session {
	return &Session{
		srv:                 srv,
		sessionID:           sessionID,
		authenticationToken: authenticationToken,
		sessionName:         sessionName,
		sessionTimeout:      sessionTimeout,
		clientDescription:   clientDescription,
		endpointURL:         endpointURL,
		lastAccess:          time.Now(),
		timeCreated:         time.Now(),
		publishRequests:     make(chan *publishOp, maxPublishRequestCount),
		stateChanges:        make(chan stateChangeOp, maxStateChangeCount),
	}
}

// SessionID returns the session id.
func (s *Session) SessionID() ua.NodeID {
	return s.sessionID
}

// AuthenticationToken returns the authentication token.
func (s *Session) AuthenticationToken() ua.NodeID {
	return s.authenticationToken
}

// SessionTimeout returns the revised timeout in milliseconds.
func (s *Session) SessionTimeout() float64 {
	return s.sessionTimeout
}

// SecureChannelID returns the id of the channel that activated the
// session, 0 before activation.
func (s *Session) SecureChannelID() uint32 {
	s.RLock()
	defer s.RUnlock()
	return s.secureChannelID
}

// SetSecureChannelID binds the session to a channel.
func (s *Session) SetSecureChannelID(id uint32) {
	s.Lock()
	s.secureChannelID = id
	s.Unlock()
}

// Identity returns the authenticated user identity.
func (s *Session) Identity() UserIdentity {
	s.RLock()
	defer s.RUnlock()
	return s.identity
}

// SetIdentity stores the authenticated user identity.
func (s *Session) SetIdentity(identity UserIdentity) {
	s.Lock()
	s.identity = identity
	s.Unlock()
}

// SetLocaleIDs stores the preferred locales.
func (s *Session) SetLocaleIDs(localeIDs []string) {
	s.Lock()
	s.localeIDs = localeIDs
	s.Unlock()
}

// SetLastAccess refreshes the idle timer.
func (s *Session) SetLastAccess(t time.Time) {
	s.Lock()
	s.lastAccess = t
	s.Unlock()
}

// IsExpired reports whether the session has been idle past its timeout.
func (s *Session) IsExpired() bool {
	s.RLock()
	defer s.RUnlock()
	return time.Since(s.lastAccess) > time.Duration(s.sessionTimeout)*time.Millisecond
}

// IsDeleted reports whether the session was removed from the manager.
func (s *Session) IsDeleted() bool {
	return s.deleted.Load()
}

// addPublishRequest parks a Publish request. When the queue is full the
// oldest request is answered with BadTooManyPublishRequests to make room.
func (s *Session) addPublishRequest(op *publishOp) {
	for {
		select {
		case s.publishRequests <- op:
			return
		default:
			select {
			case old := <-s.publishRequests:
				old.ch.Write(
					&ua.ServiceFault{
						ResponseHeader: ua.ResponseHeader{
							Timestamp:     time.Now(),
							RequestHandle: old.req.RequestHandle,
							ServiceResult: ua.BadTooManyPublishRequests,
						},
					},
					old.requestID,
				)
			default:
			}
		}
	}
}

// removePublishRequest takes the next live parked Publish request.
// Requests whose TimeoutHint has expired are answered with BadTimeout and
// skipped.
func (s *Session) removePublishRequest() (*publishOp, bool) {
	for {
		select {
		case op := <-s.publishRequests:
			if hint := op.req.TimeoutHint; hint > 0 && time.Since(op.req.Timestamp) > time.Duration(hint)*time.Millisecond {
				op.ch.Write(
					&ua.ServiceFault{
						ResponseHeader: ua.ResponseHeader{
							Timestamp:     time.Now(),
							RequestHandle: op.req.RequestHandle,
							ServiceResult: ua.BadTimeout,
						},
					},
					op.requestID,
				)
				continue
			}
			return op, true
		default:
			return nil, false
		}
	}
}

// dropPublishRequests discards parked Publish requests that arrived on
// ch. Called on channel teardown; their responses cannot be delivered.
func (s *Session) dropPublishRequests(ch *serverSecureChannel) {
	// bounded by the queue capacity, since kept requests go back in
	for i := 0; i < cap(s.publishRequests); i++ {
		select {
		case op := <-s.publishRequests:
			if op.ch != ch {
				s.addPublishRequest(op)
			}
		default:
			return
		}
	}
}

// addStateChange queues a StatusChangeNotification for delivery by the
// next Publish.
func (s *Session) addStateChange(op stateChangeOp) {
	select {
	case s.stateChanges <- op:
	default:
	}
}

// removeStateChange takes a pending StatusChangeNotification, if any.
func (s *Session) removeStateChange() (stateChangeOp, bool) {
	select {
	case op := <-s.stateChanges:
		return op, true
	default:
		return stateChangeOp{}, false
	}
}

// close answers all parked Publish requests with the given code.
func (s *Session) close(result ua.StatusCode) {
	s.deleted.Store(true)
	for {
		op, ok := s.removePublishRequest()
		if !ok {
			return
		}
		op.ch.Write(
			&ua.ServiceFault{
				ResponseHeader: ua.ResponseHeader{
					Timestamp:     time.Now(),
					RequestHandle: op.req.RequestHandle,
					ServiceResult: result,
				},
			},
			op.requestID,
		)
	}
}
