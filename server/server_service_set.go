package server

import (
	"sort"
	"time"

	"github.com/edgeworks/opcua/ua"
)

// handleRequest routes a decoded request to its handler. A request type
// the server does not serve terminates the owning session and aborts the
// channel.
func (srv *Server) handleRequest(ch *serverSecureChannel, requestID uint32, req ua.ServiceRequest) {
	var err error
	switch r := req.(type) {
	case *ua.PublishRequest:
		err = srv.handlePublish(ch, requestID, r)
	case *ua.ReadRequest:
		err = srv.handleRead(ch, requestID, r)
	case *ua.WriteRequest:
		err = srv.handleWrite(ch, requestID, r)
	case *ua.CreateMonitoredItemsRequest:
		err = srv.handleCreateMonitoredItems(ch, requestID, r)
	case *ua.ModifyMonitoredItemsRequest:
		err = srv.handleModifyMonitoredItems(ch, requestID, r)
	case *ua.DeleteMonitoredItemsRequest:
		err = srv.handleDeleteMonitoredItems(ch, requestID, r)
	case *ua.CreateSubscriptionRequest:
		err = srv.handleCreateSubscription(ch, requestID, r)
	case *ua.ModifySubscriptionRequest:
		err = srv.handleModifySubscription(ch, requestID, r)
	case *ua.SetPublishingModeRequest:
		err = srv.handleSetPublishingMode(ch, requestID, r)
	case *ua.DeleteSubscriptionsRequest:
		err = srv.handleDeleteSubscriptions(ch, requestID, r)
	case *ua.RepublishRequest:
		err = srv.handleRepublish(ch, requestID, r)
	case *ua.CreateSessionRequest:
		err = srv.handleCreateSession(ch, requestID, r)
	case *ua.ActivateSessionRequest:
		err = srv.handleActivateSession(ch, requestID, r)
	case *ua.CloseSessionRequest:
		err = srv.handleCloseSession(ch, requestID, r)
	case *ua.GetEndpointsRequest:
		err = srv.handleGetEndpoints(ch, requestID, r)
	case *ua.FindServersRequest:
		err = srv.handleFindServers(ch, requestID, r)
	case *ua.OpenSecureChannelRequest:
		err = ch.renew(requestID, r)
	case *ua.CloseSecureChannelRequest:
		err = ch.Close()
	default:
		ch.abortUnsupported()
	}
	if err != nil {
		srv.logger.Warn("request failed", "channel", ch.ChannelID(), "error", err)
	}
}

func (srv *Server) serviceFault(ch *serverSecureChannel, requestID, requestHandle uint32, result ua.StatusCode) error {
	return ch.Write(
		&ua.ServiceFault{
			ResponseHeader: ua.ResponseHeader{
				Timestamp:     time.Now(),
				RequestHandle: requestHandle,
				ServiceResult: result,
			},
		},
		requestID,
	)
}

// sessionFromRequest resolves the session of a request and validates that
// it is activated and bound to this channel.
func (srv *Server) sessionFromRequest(ch *serverSecureChannel, requestID uint32, h *ua.RequestHeader) (*Session, bool) {
	session, ok := srv.sessionManager.Get(h.AuthenticationToken)
	if !ok {
		srv.serviceFault(ch, requestID, h.RequestHandle, ua.BadSessionIDInvalid)
		return nil, false
	}
	session.requestCount++
	id := session.SecureChannelID()
	if id == 0 {
		srv.sessionManager.Delete(session)
		session.errorCount++
		srv.serviceFault(ch, requestID, h.RequestHandle, ua.BadSessionNotActivated)
		return nil, false
	}
	if id != ch.ChannelID() {
		session.errorCount++
		srv.serviceFault(ch, requestID, h.RequestHandle, ua.BadSecureChannelIDInvalid)
		return nil, false
	}
	return session, true
}

func (srv *Server) handleCreateSession(ch *serverSecureChannel, requestID uint32, req *ua.CreateSessionRequest) error {
	timeout := req.RequestedSessionTimeout
	switch {
	case timeout < minSessionTimeout:
		timeout = minSessionTimeout
	case timeout > maxSessionTimeout:
		timeout = maxSessionTimeout
	}
	session := NewSession(
		srv,
		ua.NewNodeIDOpaque(1, ua.ByteString(getNextNonce(15))),
		ua.NewNodeIDOpaque(0, ua.ByteString(getNextNonce(nonceLength))),
		req.SessionName,
		timeout,
		req.ClientDescription,
		req.EndpointURL,
	)
	if err := srv.sessionManager.Add(session); err != nil {
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadTooManySessions)
	}
	srv.logger.Debug("session created", "session", session.SessionID(), "name", req.SessionName)
	return ch.Write(
		&ua.CreateSessionResponse{
			ResponseHeader: ua.ResponseHeader{
				Timestamp:     time.Now(),
				RequestHandle: req.RequestHandle,
			},
			SessionID:             session.SessionID(),
			AuthenticationToken:   session.AuthenticationToken(),
			RevisedSessionTimeout: timeout,
			ServerNonce:           ua.ByteString(getNextNonce(nonceLength)),
			ServerEndpoints:       srv.Endpoints(),
			MaxRequestMessageSize: srv.maxMessageSize,
		},
		requestID,
	)
}

func (srv *Server) handleActivateSession(ch *serverSecureChannel, requestID uint32, req *ua.ActivateSessionRequest) error {
	session, ok := srv.sessionManager.Get(req.AuthenticationToken)
	if !ok {
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadSessionIDInvalid)
	}
	session.requestCount++

	var identity UserIdentity
	switch token := req.UserIdentityToken.(type) {
	case nil:
		identity = AnonymousIdentity{}
	case *ua.AnonymousIdentityToken:
		identity = AnonymousIdentity{}
	case *ua.UserNameIdentityToken:
		if token.UserName == "" {
			session.errorCount++
			return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadIdentityTokenInvalid)
		}
		identity = UserNameIdentity{UserName: token.UserName, Password: string(token.Password)}
	default:
		session.errorCount++
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadIdentityTokenInvalid)
	}
	if err := srv.authenticator.AuthenticateIdentity(identity, session.clientDescription.ApplicationURI, srv.endpointURL); err != nil {
		// the session stays usable so the client may retry with other
		// credentials
		session.errorCount++
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadIdentityTokenRejected)
	}
	session.SetSecureChannelID(ch.ChannelID())
	session.SetIdentity(identity)
	session.SetLocaleIDs(req.LocaleIDs)
	srv.logger.Debug("session activated", "session", session.SessionID(), "channel", ch.ChannelID())
	return ch.Write(
		&ua.ActivateSessionResponse{
			ResponseHeader: ua.ResponseHeader{
				Timestamp:     time.Now(),
				RequestHandle: req.RequestHandle,
			},
			ServerNonce: ua.ByteString(getNextNonce(nonceLength)),
		},
		requestID,
	)
}

func (srv *Server) handleCloseSession(ch *serverSecureChannel, requestID uint32, req *ua.CloseSessionRequest) error {
	session, ok := srv.sessionManager.Get(req.AuthenticationToken)
	if !ok {
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadSessionIDInvalid)
	}
	session.requestCount++
	if id := session.SecureChannelID(); id != 0 && id != ch.ChannelID() {
		session.errorCount++
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadSecureChannelIDInvalid)
	}
	srv.sessionManager.Delete(session)
	if req.DeleteSubscriptions {
		for _, sub := range srv.subscriptionManager.GetBySession(session) {
			sub.Delete()
		}
	}
	// without DeleteSubscriptions the subscriptions are orphaned and die
	// on their next publish cycle
	srv.logger.Debug("session closed", "session", session.SessionID(), "deleteSubscriptions", req.DeleteSubscriptions)
	return ch.Write(
		&ua.CloseSessionResponse{
			ResponseHeader: ua.ResponseHeader{
				Timestamp:     time.Now(),
				RequestHandle: req.RequestHandle,
			},
		},
		requestID,
	)
}

func (srv *Server) handleGetEndpoints(ch *serverSecureChannel, requestID uint32, req *ua.GetEndpointsRequest) error {
	return ch.Write(
		&ua.GetEndpointsResponse{
			ResponseHeader: ua.ResponseHeader{
				Timestamp:     time.Now(),
				RequestHandle: req.RequestHandle,
			},
			Endpoints: srv.Endpoints(),
		},
		requestID,
	)
}

func (srv *Server) handleFindServers(ch *serverSecureChannel, requestID uint32, req *ua.FindServersRequest) error {
	return ch.Write(
		&ua.FindServersResponse{
			ResponseHeader: ua.ResponseHeader{
				Timestamp:     time.Now(),
				RequestHandle: req.RequestHandle,
			},
			Servers: []ua.ApplicationDescription{srv.localDescription},
		},
		requestID,
	)
}

func (srv *Server) handleRead(ch *serverSecureChannel, requestID uint32, req *ua.ReadRequest) error {
	session, ok := srv.sessionFromRequest(ch, requestID, &req.RequestHeader)
	if !ok {
		return nil
	}
	if req.MaxAge < 0 {
		session.errorCount++
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadMaxAgeInvalid)
	}
	if req.TimestampsToReturn > ua.TimestampsToReturnNeither {
		session.errorCount++
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadTimestampsToReturnInvalid)
	}
	if len(req.NodesToRead) == 0 {
		session.errorCount++
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadNothingToDo)
	}
	if len(req.NodesToRead) > maxNodesPerReadWrite {
		session.errorCount++
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadTooManyOperations)
	}
	results := make([]ua.DataValue, len(req.NodesToRead))
	now := time.Now()
	for i, op := range req.NodesToRead {
		node, ok := srv.namespace.FindVariable(op.NodeID)
		if !ok {
			results[i] = ua.DataValue{StatusCode: ua.BadNodeIDUnknown, ServerTimestamp: now}
			continue
		}
		switch op.AttributeID {
		case ua.AttributeIDValue:
			if node.AccessLevel()&ua.AccessLevelsCurrentRead == 0 {
				results[i] = ua.DataValue{StatusCode: ua.BadNotReadable, ServerTimestamp: now}
				continue
			}
			results[i] = applyTimestampsToReturn(node.Value(), req.TimestampsToReturn)
		case ua.AttributeIDNodeID:
			results[i] = ua.DataValue{Value: node.NodeID(), ServerTimestamp: now}
		case ua.AttributeIDBrowseName:
			results[i] = ua.DataValue{Value: node.BrowseName(), ServerTimestamp: now}
		case ua.AttributeIDAccessLevel:
			results[i] = ua.DataValue{Value: node.AccessLevel(), ServerTimestamp: now}
		case ua.AttributeIDMinimumSamplingInterval:
			results[i] = ua.DataValue{Value: node.MinimumSamplingInterval(), ServerTimestamp: now}
		default:
			results[i] = ua.DataValue{StatusCode: ua.BadAttributeIDInvalid, ServerTimestamp: now}
		}
	}
	return ch.Write(
		&ua.ReadResponse{
			ResponseHeader: ua.ResponseHeader{
				Timestamp:     time.Now(),
				RequestHandle: req.RequestHandle,
			},
			Results: results,
		},
		requestID,
	)
}

func applyTimestampsToReturn(dv ua.DataValue, ttr ua.TimestampsToReturn) ua.DataValue {
	switch ttr {
	case ua.TimestampsToReturnSource:
		dv.ServerTimestamp = time.Time{}
		dv.ServerPicoseconds = 0
	case ua.TimestampsToReturnServer:
		dv.SourceTimestamp = time.Time{}
		dv.SourcePicoseconds = 0
	case ua.TimestampsToReturnNeither:
		dv.SourceTimestamp = time.Time{}
		dv.SourcePicoseconds = 0
		dv.ServerTimestamp = time.Time{}
		dv.ServerPicoseconds = 0
	}
	return dv
}

func (srv *Server) handleWrite(ch *serverSecureChannel, requestID uint32, req *ua.WriteRequest) error {
	session, ok := srv.sessionFromRequest(ch, requestID, &req.RequestHeader)
	if !ok {
		return nil
	}
	if len(req.NodesToWrite) == 0 {
		session.errorCount++
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadNothingToDo)
	}
	if len(req.NodesToWrite) > maxNodesPerReadWrite {
		session.errorCount++
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadTooManyOperations)
	}
	results := make([]ua.StatusCode, len(req.NodesToWrite))
	for i, op := range req.NodesToWrite {
		node, ok := srv.namespace.FindVariable(op.NodeID)
		if !ok {
			results[i] = ua.BadNodeIDUnknown
			continue
		}
		if op.AttributeID != ua.AttributeIDValue {
			results[i] = ua.BadAttributeIDInvalid
			continue
		}
		if node.AccessLevel()&ua.AccessLevelsCurrentWrite == 0 {
			results[i] = ua.BadNotWritable
			continue
		}
		if op.IndexRange != "" {
			results[i] = ua.BadIndexRangeInvalid
			continue
		}
		dv := op.Value
		dv.ServerTimestamp = time.Now()
		if dv.SourceTimestamp.IsZero() {
			dv.SourceTimestamp = dv.ServerTimestamp
		}
		node.SetValue(dv)
		results[i] = ua.Good
	}
	return ch.Write(
		&ua.WriteResponse{
			ResponseHeader: ua.ResponseHeader{
				Timestamp:     time.Now(),
				RequestHandle: req.RequestHandle,
			},
			Results: results,
		},
		requestID,
	)
}

func (srv *Server) handleCreateSubscription(ch *serverSecureChannel, requestID uint32, req *ua.CreateSubscriptionRequest) error {
	session, ok := srv.sessionFromRequest(ch, requestID, &req.RequestHeader)
	if !ok {
		return nil
	}
	sub := NewSubscription(
		srv.subscriptionManager,
		session,
		req.RequestedPublishingInterval,
		req.RequestedLifetimeCount,
		req.RequestedMaxKeepAliveCount,
		req.MaxNotificationsPerPublish,
		req.PublishingEnabled,
		req.Priority,
	)
	if err := srv.subscriptionManager.Add(sub); err != nil {
		sub.Delete()
		session.errorCount++
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadTooManySubscriptions)
	}
	srv.logger.Debug("subscription created", "subscription", sub.ID(), "interval", sub.PublishingInterval())
	return ch.Write(
		&ua.CreateSubscriptionResponse{
			ResponseHeader: ua.ResponseHeader{
				Timestamp:     time.Now(),
				RequestHandle: req.RequestHandle,
			},
			SubscriptionID:            sub.ID(),
			RevisedPublishingInterval: sub.PublishingInterval(),
			RevisedLifetimeCount:      sub.LifetimeCount(),
			RevisedMaxKeepAliveCount:  sub.MaxKeepAliveCount(),
		},
		requestID,
	)
}

// subscriptionFromRequest resolves a subscription and validates that the
// session owns it.
func (srv *Server) subscriptionFromRequest(ch *serverSecureChannel, requestID uint32, session *Session, requestHandle, subscriptionID uint32) (*Subscription, bool) {
	sub, ok := srv.subscriptionManager.Get(subscriptionID)
	if !ok || sub.Session() != session {
		session.errorCount++
		srv.serviceFault(ch, requestID, requestHandle, ua.BadSubscriptionIDInvalid)
		return nil, false
	}
	sub.RefreshLifetime()
	return sub, true
}

func (srv *Server) handleModifySubscription(ch *serverSecureChannel, requestID uint32, req *ua.ModifySubscriptionRequest) error {
	session, ok := srv.sessionFromRequest(ch, requestID, &req.RequestHeader)
	if !ok {
		return nil
	}
	sub, ok := srv.subscriptionFromRequest(ch, requestID, session, req.RequestHandle, req.SubscriptionID)
	if !ok {
		return nil
	}
	sub.Modify(
		req.RequestedPublishingInterval,
		req.RequestedLifetimeCount,
		req.RequestedMaxKeepAliveCount,
		req.MaxNotificationsPerPublish,
		req.Priority,
	)
	return ch.Write(
		&ua.ModifySubscriptionResponse{
			ResponseHeader: ua.ResponseHeader{
				Timestamp:     time.Now(),
				RequestHandle: req.RequestHandle,
			},
			RevisedPublishingInterval: sub.PublishingInterval(),
			RevisedLifetimeCount:      sub.LifetimeCount(),
			RevisedMaxKeepAliveCount:  sub.MaxKeepAliveCount(),
		},
		requestID,
	)
}

func (srv *Server) handleSetPublishingMode(ch *serverSecureChannel, requestID uint32, req *ua.SetPublishingModeRequest) error {
	session, ok := srv.sessionFromRequest(ch, requestID, &req.RequestHeader)
	if !ok {
		return nil
	}
	if len(req.SubscriptionIDs) == 0 {
		session.errorCount++
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadNothingToDo)
	}
	results := make([]ua.StatusCode, len(req.SubscriptionIDs))
	for i, id := range req.SubscriptionIDs {
		sub, ok := srv.subscriptionManager.Get(id)
		if !ok || sub.Session() != session {
			results[i] = ua.BadSubscriptionIDInvalid
			continue
		}
		sub.SetPublishingMode(req.PublishingEnabled)
		results[i] = ua.Good
	}
	return ch.Write(
		&ua.SetPublishingModeResponse{
			ResponseHeader: ua.ResponseHeader{
				Timestamp:     time.Now(),
				RequestHandle: req.RequestHandle,
			},
			Results: results,
		},
		requestID,
	)
}

func (srv *Server) handleDeleteSubscriptions(ch *serverSecureChannel, requestID uint32, req *ua.DeleteSubscriptionsRequest) error {
	session, ok := srv.sessionFromRequest(ch, requestID, &req.RequestHeader)
	if !ok {
		return nil
	}
	if len(req.SubscriptionIDs) == 0 {
		session.errorCount++
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadNothingToDo)
	}
	results := make([]ua.StatusCode, len(req.SubscriptionIDs))
	for i, id := range req.SubscriptionIDs {
		sub, ok := srv.subscriptionManager.Get(id)
		if !ok || sub.Session() != session {
			results[i] = ua.BadSubscriptionIDInvalid
			continue
		}
		sub.Delete()
		results[i] = ua.Good
	}
	if err := ch.Write(
		&ua.DeleteSubscriptionsResponse{
			ResponseHeader: ua.ResponseHeader{
				Timestamp:     time.Now(),
				RequestHandle: req.RequestHandle,
			},
			Results: results,
		},
		requestID,
	); err != nil {
		return err
	}
	// parked publish requests have nothing left to wait for once the
	// last subscription is gone
	if len(srv.subscriptionManager.GetBySession(session)) == 0 {
		for {
			op, ok := session.removePublishRequest()
			if !ok {
				break
			}
			srv.serviceFault(op.ch, op.requestID, op.req.RequestHandle, ua.BadNoSubscription)
		}
	}
	return nil
}

func (srv *Server) handleCreateMonitoredItems(ch *serverSecureChannel, requestID uint32, req *ua.CreateMonitoredItemsRequest) error {
	session, ok := srv.sessionFromRequest(ch, requestID, &req.RequestHeader)
	if !ok {
		return nil
	}
	sub, ok := srv.subscriptionFromRequest(ch, requestID, session, req.RequestHandle, req.SubscriptionID)
	if !ok {
		return nil
	}
	if req.TimestampsToReturn > ua.TimestampsToReturnNeither {
		session.errorCount++
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadTimestampsToReturnInvalid)
	}
	if len(req.ItemsToCreate) == 0 {
		session.errorCount++
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadNothingToDo)
	}
	if len(req.ItemsToCreate) > maxMonitoredItemsPerCall {
		session.errorCount++
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadTooManyOperations)
	}
	results := make([]ua.MonitoredItemCreateResult, len(req.ItemsToCreate))
	for i, item := range req.ItemsToCreate {
		node, ok := srv.namespace.FindVariable(item.ItemToMonitor.NodeID)
		if !ok {
			results[i] = ua.MonitoredItemCreateResult{StatusCode: ua.BadNodeIDUnknown}
			continue
		}
		if item.ItemToMonitor.AttributeID != ua.AttributeIDValue {
			results[i] = ua.MonitoredItemCreateResult{StatusCode: ua.BadAttributeIDInvalid}
			continue
		}
		if node.AccessLevel()&ua.AccessLevelsCurrentRead == 0 {
			results[i] = ua.MonitoredItemCreateResult{StatusCode: ua.BadNotReadable}
			continue
		}
		filter, sc := validateDataChangeFilter(item.RequestedParameters.Filter, node)
		if sc != ua.Good {
			results[i] = ua.MonitoredItemCreateResult{StatusCode: sc}
			continue
		}
		mi := NewMonitoredItem(sub, node, item.ItemToMonitor, item.MonitoringMode, item.RequestedParameters, req.TimestampsToReturn, filter)
		sub.AppendItem(mi)
		results[i] = ua.MonitoredItemCreateResult{
			MonitoredItemID:         mi.ID(),
			RevisedSamplingInterval: mi.SamplingInterval(),
			RevisedQueueSize:        mi.QueueSize(),
		}
	}
	return ch.Write(
		&ua.CreateMonitoredItemsResponse{
			ResponseHeader: ua.ResponseHeader{
				Timestamp:     time.Now(),
				RequestHandle: req.RequestHandle,
			},
			Results: results,
		},
		requestID,
	)
}

// validateDataChangeFilter resolves the requested filter against the
// node. Percent deadband requires the node to carry an EURange.
func validateDataChangeFilter(filter ua.ExtensionObject, node *VariableNode) (ua.DataChangeFilter, ua.StatusCode) {
	dcf := ua.DataChangeFilter{Trigger: ua.DataChangeTriggerStatusValue}
	switch f := filter.(type) {
	case nil:
	case *ua.DataChangeFilter:
		dcf = *f
	case ua.DataChangeFilter:
		dcf = f
	default:
		return dcf, ua.BadFilterNotAllowed
	}
	if dcf.Trigger > ua.DataChangeTriggerStatusValueTimestamp {
		return dcf, ua.BadMonitoredItemFilterInvalid
	}
	switch ua.DeadbandType(dcf.DeadbandType) {
	case ua.DeadbandTypeNone:
	case ua.DeadbandTypeAbsolute:
		if dcf.DeadbandValue < 0 {
			return dcf, ua.BadDeadbandFilterInvalid
		}
		if _, ok := numericValues(node.Value().Value); !ok {
			return dcf, ua.BadFilterNotAllowed
		}
	case ua.DeadbandTypePercent:
		if dcf.DeadbandValue < 0 || dcf.DeadbandValue > 100 {
			return dcf, ua.BadDeadbandFilterInvalid
		}
		if node.EURange() == nil {
			return dcf, ua.BadDeadbandFilterInvalid
		}
		if _, ok := numericValues(node.Value().Value); !ok {
			return dcf, ua.BadFilterNotAllowed
		}
	default:
		return dcf, ua.BadDeadbandFilterInvalid
	}
	return dcf, ua.Good
}

func (srv *Server) handleModifyMonitoredItems(ch *serverSecureChannel, requestID uint32, req *ua.ModifyMonitoredItemsRequest) error {
	session, ok := srv.sessionFromRequest(ch, requestID, &req.RequestHeader)
	if !ok {
		return nil
	}
	sub, ok := srv.subscriptionFromRequest(ch, requestID, session, req.RequestHandle, req.SubscriptionID)
	if !ok {
		return nil
	}
	if req.TimestampsToReturn > ua.TimestampsToReturnNeither {
		session.errorCount++
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadTimestampsToReturnInvalid)
	}
	if len(req.ItemsToModify) == 0 {
		session.errorCount++
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadNothingToDo)
	}
	if len(req.ItemsToModify) > maxMonitoredItemsPerCall {
		session.errorCount++
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadTooManyOperations)
	}
	results := make([]ua.MonitoredItemModifyResult, len(req.ItemsToModify))
	for i, item := range req.ItemsToModify {
		mi, ok := sub.FindItem(item.MonitoredItemID)
		if !ok {
			results[i] = ua.MonitoredItemModifyResult{StatusCode: ua.BadMonitoredItemIDInvalid}
			continue
		}
		filter, sc := validateDataChangeFilter(item.RequestedParameters.Filter, mi.node)
		if sc != ua.Good {
			results[i] = ua.MonitoredItemModifyResult{StatusCode: sc}
			continue
		}
		interval, queueSize := mi.Modify(item.RequestedParameters, filter)
		results[i] = ua.MonitoredItemModifyResult{
			RevisedSamplingInterval: interval,
			RevisedQueueSize:        queueSize,
		}
	}
	return ch.Write(
		&ua.ModifyMonitoredItemsResponse{
			ResponseHeader: ua.ResponseHeader{
				Timestamp:     time.Now(),
				RequestHandle: req.RequestHandle,
			},
			Results: results,
		},
		requestID,
	)
}

func (srv *Server) handleDeleteMonitoredItems(ch *serverSecureChannel, requestID uint32, req *ua.DeleteMonitoredItemsRequest) error {
	session, ok := srv.sessionFromRequest(ch, requestID, &req.RequestHeader)
	if !ok {
		return nil
	}
	sub, ok := srv.subscriptionFromRequest(ch, requestID, session, req.RequestHandle, req.SubscriptionID)
	if !ok {
		return nil
	}
	if len(req.MonitoredItemIDs) == 0 {
		session.errorCount++
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadNothingToDo)
	}
	if len(req.MonitoredItemIDs) > maxMonitoredItemsPerCall {
		session.errorCount++
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadTooManyOperations)
	}
	results := make([]ua.StatusCode, len(req.MonitoredItemIDs))
	for i, id := range req.MonitoredItemIDs {
		if sub.DeleteItem(id) {
			results[i] = ua.Good
		} else {
			results[i] = ua.BadMonitoredItemIDInvalid
		}
	}
	return ch.Write(
		&ua.DeleteMonitoredItemsResponse{
			ResponseHeader: ua.ResponseHeader{
				Timestamp:     time.Now(),
				RequestHandle: req.RequestHandle,
			},
			Results: results,
		},
		requestID,
	)
}

func (srv *Server) handlePublish(ch *serverSecureChannel, requestID uint32, req *ua.PublishRequest) error {
	session, ok := srv.sessionFromRequest(ch, requestID, &req.RequestHeader)
	if !ok {
		return nil
	}
	session.publishCount++

	results := make([]ua.StatusCode, len(req.SubscriptionAcknowledgements))
	for i, ack := range req.SubscriptionAcknowledgements {
		sub, ok := srv.subscriptionManager.Get(ack.SubscriptionID)
		if !ok || sub.Session() != session {
			results[i] = ua.BadSubscriptionIDInvalid
			continue
		}
		if sub.acknowledge(ack.SequenceNumber) {
			results[i] = ua.Good
		} else {
			results[i] = ua.BadSequenceNumberUnknown
		}
	}

	// deliver a pending status change first
	if op, ok := session.removeStateChange(); ok {
		return ch.Write(
			&ua.PublishResponse{
				ResponseHeader: ua.ResponseHeader{
					Timestamp:     time.Now(),
					RequestHandle: req.RequestHandle,
				},
				SubscriptionID:      op.subscriptionID,
				NotificationMessage: op.message,
				Results:             results,
			},
			requestID,
		)
	}

	subs := srv.subscriptionManager.GetBySession(session)
	if len(subs) == 0 {
		session.errorCount++
		return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadNoSubscription)
	}

	op := &publishOp{ch: ch, requestID: requestID, req: req, results: results}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Priority() > subs[j].Priority() })
	for _, sub := range subs {
		if sub.handleLatePublishRequest(op) {
			return nil
		}
	}
	session.addPublishRequest(op)
	return nil
}

// handleRepublish always fails with BadMessageNotAvailable: retained
// notifications are only redelivered through Publish. The call still
// refreshes the subscription lifetime.
func (srv *Server) handleRepublish(ch *serverSecureChannel, requestID uint32, req *ua.RepublishRequest) error {
	session, ok := srv.sessionFromRequest(ch, requestID, &req.RequestHeader)
	if !ok {
		return nil
	}
	if _, ok := srv.subscriptionFromRequest(ch, requestID, session, req.RequestHandle, req.SubscriptionID); !ok {
		return nil
	}
	return srv.serviceFault(ch, requestID, req.RequestHandle, ua.BadMessageNotAvailable)
}
