package server_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gotest.tools/assert"

	"github.com/edgeworks/opcua/client"
	"github.com/edgeworks/opcua/server"
	"github.com/edgeworks/opcua/ua"
)

var testPort uint32 = 48400

func startTestServer(t *testing.T, opts ...server.Option) (*server.Server, string) {
	t.Helper()
	endpointURL := fmt.Sprintf("opc.tcp://localhost:%d", atomic.AddUint32(&testPort, 1))
	srv, err := server.New(
		ua.ApplicationDescription{
			ApplicationURI:  "urn:edgeworks:testserver",
			ApplicationName: ua.NewLocalizedText("testserver", "en"),
			ApplicationType: ua.ApplicationTypeServer,
		},
		endpointURL,
		opts...,
	)
	assert.NilError(t, err)

	now := time.Now()
	srv.Namespace().AddVariable(server.NewVariableNode(
		ua.NewNodeIDString(2, "Demo.Temperature"),
		ua.NewQualifiedName(2, "Temperature"),
		ua.NewDataValue(20.0, ua.Good, now, 0, now, 0),
		ua.AccessLevelsCurrentRead,
		0,
		&ua.Range{Low: -40, High: 120},
	))
	srv.Namespace().AddVariable(server.NewVariableNode(
		ua.NewNodeIDString(2, "Demo.Setpoint"),
		ua.NewQualifiedName(2, "Setpoint"),
		ua.NewDataValue(50.0, ua.Good, now, 0, now, 0),
		ua.AccessLevelsCurrentRead|ua.AccessLevelsCurrentWrite,
		0,
		nil,
	))

	go func() {
		if err := srv.ListenAndServe(); err != ua.BadServerHalted {
			t.Log("server stopped:", err)
		}
	}()
	t.Cleanup(func() { srv.Close() })
	return srv, endpointURL
}

func dialTestServer(t *testing.T, endpointURL string, opts ...client.Option) *client.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var c *client.Client
	var err error
	for i := 0; i < 50; i++ {
		c, err = client.Dial(ctx, endpointURL, opts...)
		if err == nil {
			return c
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("dialing test server:", err)
	return nil
}

func TestReadWrite(t *testing.T) {
	_, endpointURL := startTestServer(t)
	c := dialTestServer(t, endpointURL)
	ctx := context.Background()
	defer c.Close(ctx)

	res, err := c.Read(ctx, &ua.ReadRequest{
		TimestampsToReturn: ua.TimestampsToReturnBoth,
		NodesToRead: []ua.ReadValueID{
			{NodeID: ua.NewNodeIDString(2, "Demo.Temperature"), AttributeID: ua.AttributeIDValue},
			{NodeID: ua.NewNodeIDString(2, "Demo.Missing"), AttributeID: ua.AttributeIDValue},
		},
	})
	assert.NilError(t, err)
	assert.Equal(t, 2, len(res.Results))
	assert.Equal(t, 20.0, res.Results[0].Value)
	assert.Assert(t, res.Results[0].StatusCode.IsGood())
	assert.Equal(t, ua.BadNodeIDUnknown, res.Results[1].StatusCode)

	wres, err := c.Write(ctx, &ua.WriteRequest{
		NodesToWrite: []ua.WriteValue{
			{
				NodeID:      ua.NewNodeIDString(2, "Demo.Setpoint"),
				AttributeID: ua.AttributeIDValue,
				Value:       ua.DataValue{Value: 75.0},
			},
			{
				NodeID:      ua.NewNodeIDString(2, "Demo.Temperature"),
				AttributeID: ua.AttributeIDValue,
				Value:       ua.DataValue{Value: 0.0},
			},
		},
	})
	assert.NilError(t, err)
	assert.Equal(t, ua.Good, wres.Results[0])
	assert.Equal(t, ua.BadNotWritable, wres.Results[1])

	res, err = c.Read(ctx, &ua.ReadRequest{
		NodesToRead: []ua.ReadValueID{
			{NodeID: ua.NewNodeIDString(2, "Demo.Setpoint"), AttributeID: ua.AttributeIDValue},
		},
	})
	assert.NilError(t, err)
	assert.Equal(t, 75.0, res.Results[0].Value)
}

func TestLargeMessageChunking(t *testing.T) {
	_, endpointURL := startTestServer(t)
	c := dialTestServer(t, endpointURL)
	ctx := context.Background()
	defer c.Close(ctx)

	// well past the 64 KiB negotiated buffer, so both the write request and
	// the read response travel as multi-chunk messages
	waveform := make([]float64, 30000)
	for i := range waveform {
		waveform[i] = float64(i) / 3
	}

	wres, err := c.Write(ctx, &ua.WriteRequest{
		NodesToWrite: []ua.WriteValue{
			{
				NodeID:      ua.NewNodeIDString(2, "Demo.Setpoint"),
				AttributeID: ua.AttributeIDValue,
				Value:       ua.DataValue{Value: waveform},
			},
		},
	})
	assert.NilError(t, err)
	assert.Equal(t, ua.Good, wres.Results[0])

	res, err := c.Read(ctx, &ua.ReadRequest{
		NodesToRead: []ua.ReadValueID{
			{NodeID: ua.NewNodeIDString(2, "Demo.Setpoint"), AttributeID: ua.AttributeIDValue},
		},
	})
	assert.NilError(t, err)
	assert.Assert(t, res.Results[0].StatusCode.IsGood())
	assert.DeepEqual(t, waveform, res.Results[0].Value)
}

func TestReadNothingToDo(t *testing.T) {
	_, endpointURL := startTestServer(t)
	c := dialTestServer(t, endpointURL)
	ctx := context.Background()
	defer c.Close(ctx)

	_, err := c.Read(ctx, &ua.ReadRequest{})
	assert.Equal(t, ua.BadNothingToDo, err)
}

func TestGetEndpoints(t *testing.T) {
	_, endpointURL := startTestServer(t)
	c := dialTestServer(t, endpointURL)
	ctx := context.Background()
	defer c.Close(ctx)

	res, err := c.GetEndpoints(ctx, &ua.GetEndpointsRequest{EndpointURL: endpointURL})
	assert.NilError(t, err)
	assert.Equal(t, 1, len(res.Endpoints))
	assert.Equal(t, ua.MessageSecurityModeNone, res.Endpoints[0].SecurityMode)
	assert.Equal(t, 2, len(res.Endpoints[0].UserIdentityTokens))
}

func TestUserNameAuthentication(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	assert.NilError(t, err)
	_, endpointURL := startTestServer(t, server.WithAuthenticator(
		server.NewBcryptAuthenticator(map[string]string{"alice": string(hash)}, false),
	))

	c := dialTestServer(t, endpointURL, client.WithUserNameIdentity("alice", "secret"))
	ctx := context.Background()
	assert.NilError(t, c.Close(ctx))

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err = client.Dial(dialCtx, endpointURL, client.WithUserNameIdentity("alice", "wrong"))
	assert.Equal(t, ua.BadIdentityTokenRejected, err)

	_, err = client.Dial(dialCtx, endpointURL)
	assert.Equal(t, ua.BadIdentityTokenRejected, err)
}

func TestSubscription(t *testing.T) {
	srv, endpointURL := startTestServer(t)
	c := dialTestServer(t, endpointURL)
	ctx := context.Background()
	defer c.Close(ctx)

	sres, err := c.CreateSubscription(ctx, &ua.CreateSubscriptionRequest{
		RequestedPublishingInterval: 50,
		RequestedLifetimeCount:      60,
		RequestedMaxKeepAliveCount:  2,
		PublishingEnabled:           true,
	})
	assert.NilError(t, err)
	assert.Assert(t, sres.SubscriptionID != 0)
	assert.Equal(t, 50.0, sres.RevisedPublishingInterval)
	assert.Assert(t, sres.RevisedLifetimeCount >= 3*sres.RevisedMaxKeepAliveCount)

	mres, err := c.CreateMonitoredItems(ctx, &ua.CreateMonitoredItemsRequest{
		SubscriptionID:     sres.SubscriptionID,
		TimestampsToReturn: ua.TimestampsToReturnBoth,
		ItemsToCreate: []ua.MonitoredItemCreateRequest{
			{
				ItemToMonitor: ua.ReadValueID{
					NodeID:      ua.NewNodeIDString(2, "Demo.Temperature"),
					AttributeID: ua.AttributeIDValue,
				},
				MonitoringMode: ua.MonitoringModeReporting,
				RequestedParameters: ua.MonitoringParameters{
					ClientHandle:     42,
					SamplingInterval: 25,
					QueueSize:        10,
					DiscardOldest:    true,
				},
			},
		},
	})
	assert.NilError(t, err)
	assert.Assert(t, mres.Results[0].StatusCode.IsGood())
	assert.Assert(t, mres.Results[0].MonitoredItemID != 0)

	// the creation value is only the filter baseline: with no change yet
	// the first Publish is answered by a keep-alive
	pubCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pres, err := c.Publish(pubCtx, &ua.PublishRequest{})
	assert.NilError(t, err)
	assert.Equal(t, sres.SubscriptionID, pres.SubscriptionID)
	assert.Equal(t, uint32(1), pres.NotificationMessage.SequenceNumber)
	assert.Equal(t, 0, len(pres.NotificationMessage.NotificationData))

	// the first value change produces the first notification
	node, ok := srv.Namespace().FindVariable(ua.NewNodeIDString(2, "Demo.Temperature"))
	assert.Assert(t, ok)
	node.SetValueNow(21.5)

	pres, err = c.Publish(pubCtx, &ua.PublishRequest{})
	assert.NilError(t, err)
	assert.Equal(t, uint32(1), pres.NotificationMessage.SequenceNumber)
	assert.Equal(t, 1, len(pres.NotificationMessage.NotificationData))
	dcn, ok := pres.NotificationMessage.NotificationData[0].(*ua.DataChangeNotification)
	assert.Assert(t, ok)
	assert.Equal(t, uint32(42), dcn.MonitoredItems[0].ClientHandle)
	assert.Equal(t, 21.5, dcn.MonitoredItems[0].Value.Value)

	// the next change arrives with the next sequence number; acknowledge
	// the first
	node.SetValueNow(23.0)
	pres, err = c.Publish(pubCtx, &ua.PublishRequest{
		SubscriptionAcknowledgements: []ua.SubscriptionAcknowledgement{
			{SubscriptionID: sres.SubscriptionID, SequenceNumber: 1},
		},
	})
	assert.NilError(t, err)
	assert.Equal(t, ua.Good, pres.Results[0])
	assert.Equal(t, uint32(2), pres.NotificationMessage.SequenceNumber)
	dcn, ok = pres.NotificationMessage.NotificationData[0].(*ua.DataChangeNotification)
	assert.Assert(t, ok)
	assert.Equal(t, 23.0, dcn.MonitoredItems[0].Value.Value)

	// retained notifications are only redelivered through Publish
	_, err = c.Republish(ctx, &ua.RepublishRequest{
		SubscriptionID:           sres.SubscriptionID,
		RetransmitSequenceNumber: 2,
	})
	assert.Equal(t, ua.BadMessageNotAvailable, err)

	// acknowledging an unknown sequence number is reported per ack
	node.SetValueNow(24.0)
	pres, err = c.Publish(pubCtx, &ua.PublishRequest{
		SubscriptionAcknowledgements: []ua.SubscriptionAcknowledgement{
			{SubscriptionID: sres.SubscriptionID, SequenceNumber: 99},
		},
	})
	assert.NilError(t, err)
	assert.Equal(t, ua.BadSequenceNumberUnknown, pres.Results[0])

	dres, err := c.DeleteSubscriptions(ctx, &ua.DeleteSubscriptionsRequest{
		SubscriptionIDs: []uint32{sres.SubscriptionID, 9999},
	})
	assert.NilError(t, err)
	assert.Equal(t, ua.Good, dres.Results[0])
	assert.Equal(t, ua.BadSubscriptionIDInvalid, dres.Results[1])

	_, err = c.Publish(ctx, &ua.PublishRequest{})
	assert.Equal(t, ua.BadNoSubscription, err)
}

func TestSubscriptionKeepAlive(t *testing.T) {
	_, endpointURL := startTestServer(t)
	c := dialTestServer(t, endpointURL)
	ctx := context.Background()
	defer c.Close(ctx)

	sres, err := c.CreateSubscription(ctx, &ua.CreateSubscriptionRequest{
		RequestedPublishingInterval: 20,
		RequestedLifetimeCount:      60,
		RequestedMaxKeepAliveCount:  2,
		PublishingEnabled:           true,
	})
	assert.NilError(t, err)

	// with no monitored items the subscription sends keep-alives carrying
	// the next sequence number
	pubCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pres, err := c.Publish(pubCtx, &ua.PublishRequest{})
	assert.NilError(t, err)
	assert.Equal(t, sres.SubscriptionID, pres.SubscriptionID)
	assert.Equal(t, uint32(1), pres.NotificationMessage.SequenceNumber)
	assert.Equal(t, 0, len(pres.NotificationMessage.NotificationData))
}

func TestModifySubscription(t *testing.T) {
	_, endpointURL := startTestServer(t)
	c := dialTestServer(t, endpointURL)
	ctx := context.Background()
	defer c.Close(ctx)

	sres, err := c.CreateSubscription(ctx, &ua.CreateSubscriptionRequest{
		RequestedPublishingInterval: 100,
		RequestedLifetimeCount:      60,
		RequestedMaxKeepAliveCount:  20,
		PublishingEnabled:           true,
	})
	assert.NilError(t, err)

	mres, err := c.ModifySubscription(ctx, &ua.ModifySubscriptionRequest{
		SubscriptionID:              sres.SubscriptionID,
		RequestedPublishingInterval: 200,
		RequestedLifetimeCount:      30,
		RequestedMaxKeepAliveCount:  10,
	})
	assert.NilError(t, err)
	assert.Equal(t, 200.0, mres.RevisedPublishingInterval)

	_, err = c.ModifySubscription(ctx, &ua.ModifySubscriptionRequest{SubscriptionID: 9999})
	assert.Equal(t, ua.BadSubscriptionIDInvalid, err)
}

func TestDeleteSubscriptionsIdempotent(t *testing.T) {
	_, endpointURL := startTestServer(t)
	c := dialTestServer(t, endpointURL)
	ctx := context.Background()
	defer c.Close(ctx)

	sres, err := c.CreateSubscription(ctx, &ua.CreateSubscriptionRequest{
		RequestedPublishingInterval: 100,
		RequestedLifetimeCount:      60,
		RequestedMaxKeepAliveCount:  20,
		PublishingEnabled:           true,
	})
	assert.NilError(t, err)

	dres, err := c.DeleteSubscriptions(ctx, &ua.DeleteSubscriptionsRequest{
		SubscriptionIDs: []uint32{sres.SubscriptionID},
	})
	assert.NilError(t, err)
	assert.Equal(t, ua.Good, dres.Results[0])

	// deleting again reports the operation error, the service succeeds
	dres, err = c.DeleteSubscriptions(ctx, &ua.DeleteSubscriptionsRequest{
		SubscriptionIDs: []uint32{sres.SubscriptionID},
	})
	assert.NilError(t, err)
	assert.Equal(t, ua.BadSubscriptionIDInvalid, dres.Results[0])

	// the session is still usable
	res, err := c.Read(ctx, &ua.ReadRequest{
		NodesToRead: []ua.ReadValueID{
			{NodeID: ua.NewNodeIDString(2, "Demo.Temperature"), AttributeID: ua.AttributeIDValue},
		},
	})
	assert.NilError(t, err)
	assert.Assert(t, res.Results[0].StatusCode.IsGood())
}

func TestMonitoredItemFilters(t *testing.T) {
	_, endpointURL := startTestServer(t)
	c := dialTestServer(t, endpointURL)
	ctx := context.Background()
	defer c.Close(ctx)

	sres, err := c.CreateSubscription(ctx, &ua.CreateSubscriptionRequest{
		RequestedPublishingInterval: 100,
		RequestedLifetimeCount:      60,
		RequestedMaxKeepAliveCount:  20,
		PublishingEnabled:           true,
	})
	assert.NilError(t, err)

	mres, err := c.CreateMonitoredItems(ctx, &ua.CreateMonitoredItemsRequest{
		SubscriptionID:     sres.SubscriptionID,
		TimestampsToReturn: ua.TimestampsToReturnBoth,
		ItemsToCreate: []ua.MonitoredItemCreateRequest{
			{
				// percent deadband on a node with an EURange
				ItemToMonitor: ua.ReadValueID{
					NodeID:      ua.NewNodeIDString(2, "Demo.Temperature"),
					AttributeID: ua.AttributeIDValue,
				},
				MonitoringMode: ua.MonitoringModeReporting,
				RequestedParameters: ua.MonitoringParameters{
					ClientHandle: 1,
					Filter: &ua.DataChangeFilter{
						Trigger:       ua.DataChangeTriggerStatusValue,
						DeadbandType:  uint32(ua.DeadbandTypePercent),
						DeadbandValue: 5,
					},
					QueueSize: 1,
				},
			},
			{
				// percent deadband without an EURange is rejected
				ItemToMonitor: ua.ReadValueID{
					NodeID:      ua.NewNodeIDString(2, "Demo.Setpoint"),
					AttributeID: ua.AttributeIDValue,
				},
				MonitoringMode: ua.MonitoringModeReporting,
				RequestedParameters: ua.MonitoringParameters{
					ClientHandle: 2,
					Filter: &ua.DataChangeFilter{
						Trigger:       ua.DataChangeTriggerStatusValue,
						DeadbandType:  uint32(ua.DeadbandTypePercent),
						DeadbandValue: 5,
					},
					QueueSize: 1,
				},
			},
			{
				ItemToMonitor: ua.ReadValueID{
					NodeID:      ua.NewNodeIDString(2, "Demo.Missing"),
					AttributeID: ua.AttributeIDValue,
				},
				MonitoringMode:      ua.MonitoringModeReporting,
				RequestedParameters: ua.MonitoringParameters{ClientHandle: 3, QueueSize: 1},
			},
		},
	})
	assert.NilError(t, err)
	assert.Assert(t, mres.Results[0].StatusCode.IsGood())
	assert.Equal(t, ua.BadDeadbandFilterInvalid, mres.Results[1].StatusCode)
	assert.Equal(t, ua.BadNodeIDUnknown, mres.Results[2].StatusCode)

	dres, err := c.DeleteMonitoredItems(ctx, &ua.DeleteMonitoredItemsRequest{
		SubscriptionID:   sres.SubscriptionID,
		MonitoredItemIDs: []uint32{mres.Results[0].MonitoredItemID, 9999},
	})
	assert.NilError(t, err)
	assert.Equal(t, ua.Good, dres.Results[0])
	assert.Equal(t, ua.BadMonitoredItemIDInvalid, dres.Results[1])
}

func TestServerClose(t *testing.T) {
	srv, endpointURL := startTestServer(t)
	c := dialTestServer(t, endpointURL)
	assert.NilError(t, c.Close(context.Background()))

	assert.NilError(t, srv.Close())
	// closing twice reports the state error
	assert.Equal(t, ua.BadInvalidState, srv.Close())
}
