package server

import "log/slog"

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger. The default discards nothing and
// writes to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(srv *Server) {
		srv.logger = logger
	}
}

// WithAuthenticator sets the identity authenticator used by
// ActivateSession. The default accepts anonymous identities only.
func WithAuthenticator(a IdentityAuthenticator) Option {
	return func(srv *Server) {
		srv.authenticator = a
	}
}

// WithSessionTimeout sets the default revised session timeout in
// milliseconds. Requests are clamped into [minSessionTimeout,
// maxSessionTimeout].
func WithSessionTimeout(timeout float64) Option {
	return func(srv *Server) {
		srv.sessionTimeout = timeout
	}
}

// WithBufferSize sets the receive and send buffer sizes offered during
// the Hello handshake.
func WithBufferSize(size uint32) Option {
	return func(srv *Server) {
		srv.receiveBufferSize = size
		srv.sendBufferSize = size
	}
}

// WithMaxMessageSize sets the largest reassembled message accepted.
func WithMaxMessageSize(size uint32) Option {
	return func(srv *Server) {
		srv.maxMessageSize = size
	}
}

// WithMaxChunkCount sets the largest chunk count accepted per message.
func WithMaxChunkCount(count uint32) Option {
	return func(srv *Server) {
		srv.maxChunkCount = count
	}
}

// WithMaxWorkerThreads sets the size of the pool that runs service
// handlers.
func WithMaxWorkerThreads(n int) Option {
	return func(srv *Server) {
		srv.maxWorkerThreads = n
	}
}

// WithTokenLifetime sets the maximum secure channel token lifetime in
// milliseconds granted to clients.
func WithTokenLifetime(lifetime uint32) Option {
	return func(srv *Server) {
		srv.maxTokenLifetime = lifetime
	}
}
