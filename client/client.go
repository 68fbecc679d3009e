package client

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/edgeworks/opcua/ua"
)

const (
	defaultSessionTimeout float64 = 120 * 1000
	defaultTimeoutHint    uint32  = 15 * 1000
	defaultSessionName            = "client"
)

// Client holds an activated session over a secure channel and exposes the
// service sets as methods. Dial it with Dial and release it with Close.
type Client struct {
	channel             *clientSecureChannel
	logger              *slog.Logger
	applicationName     string
	sessionName         string
	sessionTimeout      float64
	timeoutHint         uint32
	userIdentity        any
	sessionID           ua.NodeID
	authenticationToken ua.NodeID
	requestHandle       uint32
}

// Option configures a Client before it dials.
type Option func(*Client)

// WithAnonymousIdentity activates the session without a user identity.
// This is the default.
func WithAnonymousIdentity() Option {
	return func(c *Client) { c.userIdentity = nil }
}

// WithUserNameIdentity activates the session with a user name and
// password.
func WithUserNameIdentity(userName, password string) Option {
	return func(c *Client) {
		c.userIdentity = &ua.UserNameIdentityToken{
			PolicyID: "username",
			UserName: userName,
			Password: ua.ByteString(password),
		}
	}
}

// WithSessionName sets the session name.
func WithSessionName(name string) Option {
	return func(c *Client) { c.sessionName = name }
}

// WithApplicationName sets the application name sent in CreateSession.
func WithApplicationName(name string) Option {
	return func(c *Client) { c.applicationName = name }
}

// WithSessionTimeout sets the requested session timeout in milliseconds.
func WithSessionTimeout(timeout float64) Option {
	return func(c *Client) { c.sessionTimeout = timeout }
}

// WithTimeoutHint sets the timeout hint in milliseconds sent with every
// request.
func WithTimeoutHint(hint uint32) Option {
	return func(c *Client) { c.timeoutHint = hint }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Dial connects to the server at endpointURL, opens a secure channel and
// activates a session.
func Dial(ctx context.Context, endpointURL string, opts ...Option) (*Client, error) {
	c := &Client{
		logger:         slog.Default(),
		sessionName:    defaultSessionName,
		sessionTimeout: defaultSessionTimeout,
		timeoutHint:    defaultTimeoutHint,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.channel = newClientSecureChannel(endpointURL, defaultTokenLifetime, c.logger)
	if err := c.channel.Open(ctx); err != nil {
		return nil, err
	}
	if err := c.createSession(ctx, endpointURL); err != nil {
		c.channel.Close()
		return nil, err
	}
	if err := c.activateSession(ctx); err != nil {
		c.channel.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) createSession(ctx context.Context, endpointURL string) error {
	req := &ua.CreateSessionRequest{
		ClientDescription: ua.ApplicationDescription{
			ApplicationName: ua.LocalizedText{Text: c.applicationName},
			ApplicationType: ua.ApplicationTypeClient,
		},
		EndpointURL:             endpointURL,
		SessionName:             c.sessionName,
		RequestedSessionTimeout: c.sessionTimeout,
	}
	res, err := c.request(ctx, req)
	if err != nil {
		return err
	}
	response, ok := res.(*ua.CreateSessionResponse)
	if !ok {
		return ua.BadUnknownResponse
	}
	c.sessionID = response.SessionID
	c.authenticationToken = response.AuthenticationToken
	c.sessionTimeout = response.RevisedSessionTimeout
	return nil
}

func (c *Client) activateSession(ctx context.Context) error {
	req := &ua.ActivateSessionRequest{}
	switch identity := c.userIdentity.(type) {
	case nil:
		req.UserIdentityToken = &ua.AnonymousIdentityToken{PolicyID: "anonymous"}
	case *ua.UserNameIdentityToken:
		req.UserIdentityToken = identity
	default:
		return ua.BadIdentityTokenInvalid
	}
	_, err := c.request(ctx, req)
	return err
}

// request fills in the request header and performs the exchange.
func (c *Client) request(ctx context.Context, req ua.ServiceRequest) (ua.ServiceResponse, error) {
	h := req.Header()
	h.AuthenticationToken = c.authenticationToken
	h.Timestamp = time.Now()
	h.RequestHandle = atomic.AddUint32(&c.requestHandle, 1)
	h.TimeoutHint = c.timeoutHint
	return c.channel.Request(ctx, req)
}

// SessionID returns the session id assigned by the server.
func (c *Client) SessionID() ua.NodeID {
	return c.sessionID
}

// FindServers asks the server for the applications it knows about.
func (c *Client) FindServers(ctx context.Context, req *ua.FindServersRequest) (*ua.FindServersResponse, error) {
	res, err := c.request(ctx, req)
	if err != nil {
		return nil, err
	}
	response, ok := res.(*ua.FindServersResponse)
	if !ok {
		return nil, ua.BadUnknownResponse
	}
	return response, nil
}

// GetEndpoints asks the server for its endpoint descriptions.
func (c *Client) GetEndpoints(ctx context.Context, req *ua.GetEndpointsRequest) (*ua.GetEndpointsResponse, error) {
	res, err := c.request(ctx, req)
	if err != nil {
		return nil, err
	}
	response, ok := res.(*ua.GetEndpointsResponse)
	if !ok {
		return nil, ua.BadUnknownResponse
	}
	return response, nil
}

// Read reads attributes of nodes.
func (c *Client) Read(ctx context.Context, req *ua.ReadRequest) (*ua.ReadResponse, error) {
	res, err := c.request(ctx, req)
	if err != nil {
		return nil, err
	}
	response, ok := res.(*ua.ReadResponse)
	if !ok {
		return nil, ua.BadUnknownResponse
	}
	return response, nil
}

// Write writes attributes of nodes.
func (c *Client) Write(ctx context.Context, req *ua.WriteRequest) (*ua.WriteResponse, error) {
	res, err := c.request(ctx, req)
	if err != nil {
		return nil, err
	}
	response, ok := res.(*ua.WriteResponse)
	if !ok {
		return nil, ua.BadUnknownResponse
	}
	return response, nil
}

// CreateSubscription creates a subscription.
func (c *Client) CreateSubscription(ctx context.Context, req *ua.CreateSubscriptionRequest) (*ua.CreateSubscriptionResponse, error) {
	res, err := c.request(ctx, req)
	if err != nil {
		return nil, err
	}
	response, ok := res.(*ua.CreateSubscriptionResponse)
	if !ok {
		return nil, ua.BadUnknownResponse
	}
	return response, nil
}

// ModifySubscription modifies a subscription.
func (c *Client) ModifySubscription(ctx context.Context, req *ua.ModifySubscriptionRequest) (*ua.ModifySubscriptionResponse, error) {
	res, err := c.request(ctx, req)
	if err != nil {
		return nil, err
	}
	response, ok := res.(*ua.ModifySubscriptionResponse)
	if !ok {
		return nil, ua.BadUnknownResponse
	}
	return response, nil
}

// SetPublishingMode enables or disables publishing of subscriptions.
func (c *Client) SetPublishingMode(ctx context.Context, req *ua.SetPublishingModeRequest) (*ua.SetPublishingModeResponse, error) {
	res, err := c.request(ctx, req)
	if err != nil {
		return nil, err
	}
	response, ok := res.(*ua.SetPublishingModeResponse)
	if !ok {
		return nil, ua.BadUnknownResponse
	}
	return response, nil
}

// DeleteSubscriptions deletes subscriptions.
func (c *Client) DeleteSubscriptions(ctx context.Context, req *ua.DeleteSubscriptionsRequest) (*ua.DeleteSubscriptionsResponse, error) {
	res, err := c.request(ctx, req)
	if err != nil {
		return nil, err
	}
	response, ok := res.(*ua.DeleteSubscriptionsResponse)
	if !ok {
		return nil, ua.BadUnknownResponse
	}
	return response, nil
}

// CreateMonitoredItems creates monitored items in a subscription.
func (c *Client) CreateMonitoredItems(ctx context.Context, req *ua.CreateMonitoredItemsRequest) (*ua.CreateMonitoredItemsResponse, error) {
	res, err := c.request(ctx, req)
	if err != nil {
		return nil, err
	}
	response, ok := res.(*ua.CreateMonitoredItemsResponse)
	if !ok {
		return nil, ua.BadUnknownResponse
	}
	return response, nil
}

// ModifyMonitoredItems modifies monitored items of a subscription.
func (c *Client) ModifyMonitoredItems(ctx context.Context, req *ua.ModifyMonitoredItemsRequest) (*ua.ModifyMonitoredItemsResponse, error) {
	res, err := c.request(ctx, req)
	if err != nil {
		return nil, err
	}
	response, ok := res.(*ua.ModifyMonitoredItemsResponse)
	if !ok {
		return nil, ua.BadUnknownResponse
	}
	return response, nil
}

// DeleteMonitoredItems deletes monitored items of a subscription.
func (c *Client) DeleteMonitoredItems(ctx context.Context, req *ua.DeleteMonitoredItemsRequest) (*ua.DeleteMonitoredItemsResponse, error) {
	res, err := c.request(ctx, req)
	if err != nil {
		return nil, err
	}
	response, ok := res.(*ua.DeleteMonitoredItemsResponse)
	if !ok {
		return nil, ua.BadUnknownResponse
	}
	return response, nil
}

// Publish parks a publish request at the server and returns when a
// notification, keep-alive or status change is available. Callers keep a
// few Publish calls in flight to drive a subscription.
func (c *Client) Publish(ctx context.Context, req *ua.PublishRequest) (*ua.PublishResponse, error) {
	res, err := c.request(ctx, req)
	if err != nil {
		return nil, err
	}
	response, ok := res.(*ua.PublishResponse)
	if !ok {
		return nil, ua.BadUnknownResponse
	}
	return response, nil
}

// Republish asks for a retained notification by sequence number.
func (c *Client) Republish(ctx context.Context, req *ua.RepublishRequest) (*ua.RepublishResponse, error) {
	res, err := c.request(ctx, req)
	if err != nil {
		return nil, err
	}
	response, ok := res.(*ua.RepublishResponse)
	if !ok {
		return nil, ua.BadUnknownResponse
	}
	return response, nil
}

// Close closes the session and the secure channel.
func (c *Client) Close(ctx context.Context) error {
	if _, err := c.request(ctx, &ua.CloseSessionRequest{DeleteSubscriptions: true}); err != nil {
		c.channel.Close()
		return err
	}
	// CloseSecureChannel gets no response; the server closes the
	// connection
	c.channel.sendRequest(&ua.CloseSecureChannelRequest{
		RequestHeader: ua.RequestHeader{
			AuthenticationToken: c.authenticationToken,
			Timestamp:           time.Now(),
			RequestHandle:       atomic.AddUint32(&c.requestHandle, 1),
			TimeoutHint:         c.timeoutHint,
		},
	}, c.channel.nextRequestID())
	return c.channel.Close()
}

// Abort drops the connection without closing the session.
func (c *Client) Abort() error {
	return c.channel.Close()
}
