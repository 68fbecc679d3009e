package server

import (
	"crypto/rand"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edgeworks/opcua/ua"
	"github.com/gammazero/workerpool"
	"github.com/pkg/errors"
)

const (
	protocolVersion       uint32 = 0
	defaultBufferSize     uint32 = 64 * 1024
	defaultMaxMessageSize uint32 = 16 * 1024 * 1024
	defaultMaxChunkCount  uint32 = 4 * 1024

	defaultMaxWorkerThreads = 4
	nonceLength             = 32

	minSessionTimeout     float64 = 10 * 1000
	maxSessionTimeout     float64 = 60 * 60 * 1000
	defaultSessionTimeout float64 = 120 * 1000

	defaultTokenLifetime uint32 = 60 * 60 * 1000
	minTokenLifetime     uint32 = 60 * 1000

	maxSessionCount         uint32 = 100
	maxSubscriptionCount    uint32 = 250
	maxPublishRequestCount         = 64
	maxStateChangeCount            = 64
	maxMonitoredItemsPerCall       = 1000
	maxNodesPerReadWrite           = 1000
)

type serverState int

const (
	serverStateNew serverState = iota
	serverStateRunning
	serverStateClosing
	serverStateClosed
)

// Server is an OPC UA binary protocol server for the None security
// policy. It owns the chunk layer, the secure channels, the sessions and
// the subscription engine.
type Server struct {
	sync.RWMutex
	localDescription    ua.ApplicationDescription
	endpointURL         string
	listener            net.Listener
	state               serverState
	stateSemaphore      chan struct{}
	closing             chan struct{}
	closed              chan struct{}
	workerPool          *workerpool.WorkerPool
	channelManager      *ChannelManager
	sessionManager      *SessionManager
	subscriptionManager *SubscriptionManager
	scheduler           *Scheduler
	namespace           *Namespace
	authenticator       IdentityAuthenticator
	logger              *slog.Logger

	receiveBufferSize uint32
	sendBufferSize    uint32
	maxMessageSize    uint32
	maxChunkCount     uint32
	maxWorkerThreads  int
	maxTokenLifetime  uint32
	sessionTimeout    float64

	channelIDCounter uint32
	tokenIDCounter   uint32
}

// New makes a Server listening at endpointURL, e.g.
// "opc.tcp://localhost:4840".
func New(localDescription ua.ApplicationDescription, endpointURL string, opts ...Option) (*Server, error) {
	if _, err := url.Parse(endpointURL); err != nil {
		return nil, errors.Wrap(err, "parsing endpoint url")
	}
	srv := &Server{
		localDescription:  localDescription,
		endpointURL:       endpointURL,
		stateSemaphore:    make(chan struct{}, 1),
		closing:           make(chan struct{}),
		closed:            make(chan struct{}),
		receiveBufferSize: defaultBufferSize,
		sendBufferSize:    defaultBufferSize,
		maxMessageSize:    defaultMaxMessageSize,
		maxChunkCount:     defaultMaxChunkCount,
		maxWorkerThreads:  defaultMaxWorkerThreads,
		maxTokenLifetime:  defaultTokenLifetime,
		sessionTimeout:    defaultSessionTimeout,
		authenticator:     AnonymousAuthenticator{},
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	srv.workerPool = workerpool.New(srv.maxWorkerThreads)
	srv.channelManager = NewChannelManager(srv)
	srv.sessionManager = NewSessionManager(srv)
	srv.subscriptionManager = NewSubscriptionManager(srv)
	srv.scheduler = NewScheduler(srv)
	srv.namespace = NewNamespace()
	return srv, nil
}

// LocalDescription returns the application description.
func (srv *Server) LocalDescription() ua.ApplicationDescription {
	return srv.localDescription
}

// EndpointURL returns the endpoint url.
func (srv *Server) EndpointURL() string {
	return srv.endpointURL
}

// ChannelManager returns the secure channel manager.
func (srv *Server) ChannelManager() *ChannelManager {
	return srv.channelManager
}

// SessionManager returns the session manager.
func (srv *Server) SessionManager() *SessionManager {
	return srv.sessionManager
}

// SubscriptionManager returns the subscription manager.
func (srv *Server) SubscriptionManager() *SubscriptionManager {
	return srv.subscriptionManager
}

// Scheduler returns the sampling scheduler.
func (srv *Server) Scheduler() *Scheduler {
	return srv.scheduler
}

// Namespace returns the address space.
func (srv *Server) Namespace() *Namespace {
	return srv.namespace
}

// Endpoints returns the endpoint descriptions advertised by GetEndpoints
// and CreateSession.
func (srv *Server) Endpoints() []ua.EndpointDescription {
	return []ua.EndpointDescription{
		{
			EndpointURL:       srv.endpointURL,
			Server:            srv.localDescription,
			SecurityMode:      ua.MessageSecurityModeNone,
			SecurityPolicyURI: ua.SecurityPolicyURINone,
			UserIdentityTokens: []ua.UserTokenPolicy{
				{PolicyID: "anonymous", TokenType: ua.UserTokenTypeAnonymous},
				{PolicyID: "username", TokenType: ua.UserTokenTypeUserName, SecurityPolicyURI: ua.SecurityPolicyURINone},
			},
			TransportProfileURI: ua.TransportProfileURIUaTcp,
		},
	}
}

// ListenAndServe accepts connections until Close or Abort is called. It
// returns ua.BadServerHalted after a clean shutdown.
func (srv *Server) ListenAndServe() error {
	srv.stateSemaphore <- struct{}{}
	if srv.state != serverStateNew {
		<-srv.stateSemaphore
		return ua.BadInternalError
	}
	u, err := url.Parse(srv.endpointURL)
	if err != nil {
		<-srv.stateSemaphore
		return errors.Wrap(err, "parsing endpoint url")
	}
	l, err := net.Listen("tcp", u.Host)
	if err != nil {
		<-srv.stateSemaphore
		return errors.Wrap(err, "listening")
	}
	srv.listener = l
	srv.state = serverStateRunning
	<-srv.stateSemaphore
	srv.logger.Info("server listening", "endpoint", srv.endpointURL)

	var delay time.Duration
	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-srv.closing:
				return ua.BadServerHalted
			default:
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				if delay == 0 {
					delay = 5 * time.Millisecond
				} else {
					delay *= 2
				}
				if delay > time.Second {
					delay = time.Second
				}
				srv.logger.Warn("accept error, retrying", "error", err, "delay", delay)
				time.Sleep(delay)
				continue
			}
			return errors.Wrap(err, "accepting")
		}
		delay = 0
		go func() {
			if err := srv.serve(conn); err != nil {
				srv.logger.Debug("connection closed", "remote", conn.RemoteAddr(), "error", err)
			}
		}()
	}
}

func (srv *Server) serve(conn net.Conn) error {
	ch := newServerSecureChannel(srv, conn)
	if err := ch.Open(); err != nil {
		ch.Abort(ua.BadTCPInternalError, "")
		return err
	}
	srv.channelManager.Add(ch)
	defer func() {
		srv.channelManager.Delete(ch)
		ch.Close()
		// parked Publish requests that arrived on this channel can never
		// be answered; release them so subscriptions stop consuming them
		for _, s := range srv.sessionManager.all() {
			if s.SecureChannelID() == ch.ChannelID() {
				s.dropPublishRequests(ch)
			}
		}
	}()
	for {
		req, requestID, err := ch.readRequest()
		if err != nil {
			return err
		}
		srv.workerPool.Submit(func() {
			srv.handleRequest(ch, requestID, req)
		})
	}
}

// Close shuts the server down cleanly: sessions are closed with
// BadServerHalted, subscriptions deleted, channels aborted, and the
// listener closed.
func (srv *Server) Close() error {
	srv.stateSemaphore <- struct{}{}
	if srv.state != serverStateRunning {
		<-srv.stateSemaphore
		return ua.BadInvalidState
	}
	srv.state = serverStateClosing
	<-srv.stateSemaphore

	for _, sub := range srv.subscriptionManager.all() {
		sub.Delete()
	}
	for _, s := range srv.sessionManager.all() {
		s.close(ua.BadServerHalted)
	}
	close(srv.closing)
	for _, ch := range srv.channelManager.all() {
		ch.Close()
	}
	if srv.listener != nil {
		srv.listener.Close()
	}
	srv.workerPool.StopWait()

	srv.stateSemaphore <- struct{}{}
	srv.state = serverStateClosed
	close(srv.closed)
	<-srv.stateSemaphore
	srv.logger.Info("server closed")
	return nil
}

// Abort shuts the server down without answering clients.
func (srv *Server) Abort() error {
	srv.stateSemaphore <- struct{}{}
	if srv.state != serverStateRunning {
		<-srv.stateSemaphore
		return ua.BadInvalidState
	}
	srv.state = serverStateClosing
	<-srv.stateSemaphore

	close(srv.closing)
	for _, ch := range srv.channelManager.all() {
		ch.Close()
	}
	if srv.listener != nil {
		srv.listener.Close()
	}
	srv.workerPool.Stop()

	srv.stateSemaphore <- struct{}{}
	srv.state = serverStateClosed
	close(srv.closed)
	<-srv.stateSemaphore
	return nil
}

// Closed is closed when the server has fully shut down.
func (srv *Server) Closed() <-chan struct{} {
	return srv.closed
}

func (srv *Server) getNextChannelID() uint32 {
	for {
		if id := atomic.AddUint32(&srv.channelIDCounter, 1); id != 0 {
			return id
		}
	}
}

func (srv *Server) getNextTokenID() uint32 {
	for {
		if id := atomic.AddUint32(&srv.tokenIDCounter, 1); id != 0 {
			return id
		}
	}
}

func getNextNonce(length int) []byte {
	b := make([]byte, length)
	rand.Read(b)
	return b
}
