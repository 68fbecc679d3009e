package server

// ChannelSecurity transforms chunk bodies according to the negotiated
// security policy. Sign and Encrypt are applied on send, Verify and
// Decrypt on receive.
type ChannelSecurity interface {
	// SignatureSize is the size in bytes appended to each chunk by Sign.
	SignatureSize() int
	Sign(body []byte) ([]byte, error)
	Verify(body []byte) ([]byte, error)
	Encrypt(body []byte) ([]byte, error)
	Decrypt(body []byte) ([]byte, error)
}

// nonSecurity is the identity transform of the None security policy.
type nonSecurity struct{}

func (nonSecurity) SignatureSize() int               { return 0 }
func (nonSecurity) Sign(body []byte) ([]byte, error) { return body, nil }
func (nonSecurity) Verify(body []byte) ([]byte, error) {
	return body, nil
}
func (nonSecurity) Encrypt(body []byte) ([]byte, error) { return body, nil }
func (nonSecurity) Decrypt(body []byte) ([]byte, error) { return body, nil }
