package ua

import "time"

// ChannelSecurityToken identifies an issued secure channel token.
type ChannelSecurityToken struct {
	ChannelID       uint32
	TokenID         uint32
	CreatedAt       time.Time
	RevisedLifetime uint32
}

// OpenSecureChannelRequest opens or renews a secure channel.
type OpenSecureChannelRequest struct {
	RequestHeader
	ClientProtocolVersion uint32
	RequestType           SecurityTokenRequestType
	SecurityMode          MessageSecurityMode
	ClientNonce           ByteString
	RequestedLifetime     uint32
}

// OpenSecureChannelResponse returns the issued channel token.
type OpenSecureChannelResponse struct {
	ResponseHeader
	ServerProtocolVersion uint32
	SecurityToken         ChannelSecurityToken
	ServerNonce           ByteString
}

// CloseSecureChannelRequest closes a secure channel.
type CloseSecureChannelRequest struct {
	RequestHeader
}

// CloseSecureChannelResponse is the response to CloseSecureChannel. It is
// never sent on the wire; the server closes the connection instead.
type CloseSecureChannelResponse struct {
	ResponseHeader
}
