package server

import (
	"sync"

	"github.com/edgeworks/opcua/ua"
	"golang.org/x/crypto/bcrypt"
)

// UserIdentity is the identity asserted by ActivateSession, one of
// AnonymousIdentity or UserNameIdentity.
type UserIdentity any

// AnonymousIdentity asserts no user identity.
type AnonymousIdentity struct{}

// UserNameIdentity asserts a user name and password.
type UserNameIdentity struct {
	UserName string
	Password string
}

// IdentityAuthenticator authenticates the identity of an ActivateSession
// request. A nil error activates the session.
type IdentityAuthenticator interface {
	AuthenticateIdentity(identity UserIdentity, applicationURI, endpointURL string) error
}

// AuthenticateIdentityFunc adapts a func to an IdentityAuthenticator.
type AuthenticateIdentityFunc func(identity UserIdentity, applicationURI, endpointURL string) error

// AuthenticateIdentity calls f.
func (f AuthenticateIdentityFunc) AuthenticateIdentity(identity UserIdentity, applicationURI, endpointURL string) error {
	return f(identity, applicationURI, endpointURL)
}

// AnonymousAuthenticator accepts anonymous identities and rejects all
// others.
type AnonymousAuthenticator struct{}

// AuthenticateIdentity implements IdentityAuthenticator.
func (AnonymousAuthenticator) AuthenticateIdentity(identity UserIdentity, applicationURI, endpointURL string) error {
	if _, ok := identity.(AnonymousIdentity); ok {
		return nil
	}
	return ua.BadUserAccessDenied
}

// BcryptAuthenticator authenticates user names against stored bcrypt
// password hashes. Anonymous identities are accepted when AllowAnonymous
// is set.
type BcryptAuthenticator struct {
	mu             sync.RWMutex
	hashes         map[string]string
	allowAnonymous bool
}

// NewBcryptAuthenticator makes an authenticator over a user name to bcrypt
// hash table.
func NewBcryptAuthenticator(hashes map[string]string, allowAnonymous bool) *BcryptAuthenticator {
	h := make(map[string]string, len(hashes))
	for k, v := range hashes {
		h[k] = v
	}
	return &BcryptAuthenticator{hashes: h, allowAnonymous: allowAnonymous}
}

// AuthenticateIdentity implements IdentityAuthenticator.
func (a *BcryptAuthenticator) AuthenticateIdentity(identity UserIdentity, applicationURI, endpointURL string) error {
	switch id := identity.(type) {
	case AnonymousIdentity:
		if a.allowAnonymous {
			return nil
		}
		return ua.BadUserAccessDenied
	case UserNameIdentity:
		a.mu.RLock()
		hash, ok := a.hashes[id.UserName]
		a.mu.RUnlock()
		if !ok {
			return ua.BadUserAccessDenied
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(id.Password)) != nil {
			return ua.BadUserAccessDenied
		}
		return nil
	default:
		return ua.BadIdentityTokenInvalid
	}
}
