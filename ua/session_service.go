package ua

// CreateSessionRequest creates a session.
type CreateSessionRequest struct {
	RequestHeader
	ClientDescription       ApplicationDescription
	ServerURI               string
	EndpointURL             string
	SessionName             string
	ClientNonce             ByteString
	ClientCertificate       ByteString
	RequestedSessionTimeout float64
	MaxResponseMessageSize  uint32
}

// CreateSessionResponse returns the session and authentication tokens.
type CreateSessionResponse struct {
	ResponseHeader
	SessionID                  NodeID
	AuthenticationToken        NodeID
	RevisedSessionTimeout      float64
	ServerNonce                ByteString
	ServerCertificate          ByteString
	ServerEndpoints            []EndpointDescription
	ServerSoftwareCertificates []SignedSoftwareCertificate
	ServerSignature            SignatureData
	MaxRequestMessageSize      uint32
}

// ActivateSessionRequest activates a session with a user identity.
type ActivateSessionRequest struct {
	RequestHeader
	ClientSignature            SignatureData
	ClientSoftwareCertificates []SignedSoftwareCertificate
	LocaleIDs                  []string
	UserIdentityToken          ExtensionObject
	UserTokenSignature         SignatureData
}

// ActivateSessionResponse is the response to ActivateSession.
type ActivateSessionResponse struct {
	ResponseHeader
	ServerNonce     ByteString
	Results         []StatusCode
	DiagnosticInfos []DiagnosticInfo
}

// CloseSessionRequest closes a session, optionally deleting its
// subscriptions.
type CloseSessionRequest struct {
	RequestHeader
	DeleteSubscriptions bool
}

// CloseSessionResponse is the response to CloseSession.
type CloseSessionResponse struct {
	ResponseHeader
}
