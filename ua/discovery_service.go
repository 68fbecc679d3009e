package ua

// GetEndpointsRequest asks a server for its endpoint descriptions.
type GetEndpointsRequest struct {
	RequestHeader
	EndpointURL string
	LocaleIDs   []string
	ProfileURIs []string
}

// GetEndpointsResponse returns the endpoint descriptions.
type GetEndpointsResponse struct {
	ResponseHeader
	Endpoints []EndpointDescription
}

// FindServersRequest asks a discovery server for known servers.
type FindServersRequest struct {
	RequestHeader
	EndpointURL string
	LocaleIDs   []string
	ServerURIs  []string
}

// FindServersResponse returns the known servers.
type FindServersResponse struct {
	ResponseHeader
	Servers []ApplicationDescription
}
