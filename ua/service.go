package ua

import "time"

// RequestHeader is the common header of every service request.
type RequestHeader struct {
	AuthenticationToken NodeID
	Timestamp           time.Time
	RequestHandle       uint32
	ReturnDiagnostics   uint32
	AuditEntryID        string
	TimeoutHint         uint32
	AdditionalHeader    ExtensionObject
}

// Header returns the request header, satisfying ServiceRequest.
func (h *RequestHeader) Header() *RequestHeader {
	return h
}

// ResponseHeader is the common header of every service response.
type ResponseHeader struct {
	Timestamp          time.Time
	RequestHandle      uint32
	ServiceResult      StatusCode
	ServiceDiagnostics DiagnosticInfo
	StringTable        []string
	AdditionalHeader   ExtensionObject
}

// Header returns the response header, satisfying ServiceResponse.
func (h *ResponseHeader) Header() *ResponseHeader {
	return h
}

// ServiceRequest is implemented by all request structs by embedding
// RequestHeader.
type ServiceRequest interface {
	Header() *RequestHeader
}

// ServiceResponse is implemented by all response structs by embedding
// ResponseHeader.
type ServiceResponse interface {
	Header() *ResponseHeader
}

// ServiceFault is returned when a service fails as a whole.
type ServiceFault struct {
	ResponseHeader
}

// NewServiceFault makes a ServiceFault with the given result code.
func NewServiceFault(result StatusCode) *ServiceFault {
	return &ServiceFault{ResponseHeader{Timestamp: time.Now(), ServiceResult: result}}
}

// SignatureData holds a signature and the algorithm that produced it.
type SignatureData struct {
	Algorithm string
	Signature ByteString
}

// SignedSoftwareCertificate is a software certificate with a signature.
type SignedSoftwareCertificate struct {
	CertificateData ByteString
	Signature       ByteString
}

// ApplicationDescription describes an OPC UA application.
type ApplicationDescription struct {
	ApplicationURI      string
	ProductURI          string
	ApplicationName     LocalizedText
	ApplicationType     ApplicationType
	GatewayServerURI    string
	DiscoveryProfileURI string
	DiscoveryURLs       []string
}

// UserTokenPolicy describes a user identity token accepted by an endpoint.
type UserTokenPolicy struct {
	PolicyID          string
	TokenType         UserTokenType
	IssuedTokenType   string
	IssuerEndpointURL string
	SecurityPolicyURI string
}

// EndpointDescription describes one endpoint of a server.
type EndpointDescription struct {
	EndpointURL         string
	Server              ApplicationDescription
	ServerCertificate   ByteString
	SecurityMode        MessageSecurityMode
	SecurityPolicyURI   string
	UserIdentityTokens  []UserTokenPolicy
	TransportProfileURI string
	SecurityLevel       byte
}

// AnonymousIdentityToken asserts no user identity.
type AnonymousIdentityToken struct {
	PolicyID string
}

// UserNameIdentityToken asserts a user identity with a name and password.
type UserNameIdentityToken struct {
	PolicyID            string
	UserName            string
	Password            ByteString
	EncryptionAlgorithm string
}
