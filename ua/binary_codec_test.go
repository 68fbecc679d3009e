package ua_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"gotest.tools/assert"

	"github.com/edgeworks/opcua/ua"
)

func roundTrip(t *testing.T, in, out any) {
	t.Helper()
	var buf bytes.Buffer
	enc := ua.NewBinaryEncoder(&buf, ua.DefaultEncodingContext)
	assert.NilError(t, enc.Encode(in))
	dec := ua.NewBinaryDecoder(&buf, ua.DefaultEncodingContext)
	assert.NilError(t, dec.Decode(out))
}

func TestNodeIDRoundTrip(t *testing.T) {
	cases := []ua.NodeID{
		ua.NewNodeIDNumeric(0, 85),
		ua.NewNodeIDNumeric(2, 1000),
		ua.NewNodeIDNumeric(300, 70000),
		ua.NewNodeIDString(2, "Demo.Static"),
		ua.NewNodeIDGUID(3, uuid.MustParse("72962b91-fa75-4ae6-8d28-b404dc7daf63")),
		ua.NewNodeIDOpaque(4, ua.ByteString([]byte{0xde, 0xad, 0xbe, 0xef})),
	}
	for _, id := range cases {
		t.Run(id.String(), func(t *testing.T) {
			var buf bytes.Buffer
			enc := ua.NewBinaryEncoder(&buf, ua.DefaultEncodingContext)
			assert.NilError(t, enc.WriteNodeID(id))
			dec := ua.NewBinaryDecoder(&buf, ua.DefaultEncodingContext)
			var got ua.NodeID
			assert.NilError(t, dec.ReadNodeID(&got))
			assert.Equal(t, id, got)
		})
	}
}

func TestNodeIDCompactForms(t *testing.T) {
	// ns=0, id < 256 takes the two byte form
	var buf bytes.Buffer
	enc := ua.NewBinaryEncoder(&buf, ua.DefaultEncodingContext)
	assert.NilError(t, enc.WriteNodeID(ua.NewNodeIDNumeric(0, 85)))
	assert.Equal(t, 2, buf.Len())

	// ns < 256, id < 65536 takes the four byte form
	buf.Reset()
	assert.NilError(t, enc.WriteNodeID(ua.NewNodeIDNumeric(2, 1000)))
	assert.Equal(t, 4, buf.Len())
}

func TestParseNodeID(t *testing.T) {
	cases := []string{
		"i=85",
		"ns=2;i=1000",
		"s=Demo.Static",
		"ns=2;s=Demo.Static",
		"g=72962b91-fa75-4ae6-8d28-b404dc7daf63",
		"ns=4;b=3q2+7w==",
	}
	for _, s := range cases {
		assert.Equal(t, s, ua.ParseNodeID(s).String())
	}
	assert.Equal(t, ua.NilNodeID, ua.ParseNodeID("bogus"))
	assert.Equal(t, ua.NilNodeID, ua.ParseNodeID("ns=2"))
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{"", "opc.tcp://localhost:4840", "héllo"} {
		var buf bytes.Buffer
		enc := ua.NewBinaryEncoder(&buf, ua.DefaultEncodingContext)
		assert.NilError(t, enc.WriteString(s))
		dec := ua.NewBinaryDecoder(&buf, ua.DefaultEncodingContext)
		var got string
		assert.NilError(t, dec.ReadString(&got))
		assert.Equal(t, s, got)
	}
}

func TestDateTimeRoundTrip(t *testing.T) {
	// the wire format holds 100 nanosecond ticks
	in := time.Date(2023, 11, 5, 12, 30, 45, 123456700, time.UTC)
	var buf bytes.Buffer
	enc := ua.NewBinaryEncoder(&buf, ua.DefaultEncodingContext)
	assert.NilError(t, enc.WriteDateTime(in))
	dec := ua.NewBinaryDecoder(&buf, ua.DefaultEncodingContext)
	var got time.Time
	assert.NilError(t, dec.ReadDateTime(&got))
	assert.Assert(t, got.Equal(in))
}

func TestVariantRoundTrip(t *testing.T) {
	cases := []ua.Variant{
		true,
		int32(-42),
		uint32(42),
		int64(-1 << 40),
		float32(3.25),
		float64(3.14159),
		"hello",
		ua.ByteString([]byte{1, 2, 3}),
		[]float64{1.5, 2.5, 3.5},
		[]string{"a", "b"},
		[]int32{-1, 0, 1},
	}
	for _, in := range cases {
		var buf bytes.Buffer
		enc := ua.NewBinaryEncoder(&buf, ua.DefaultEncodingContext)
		assert.NilError(t, enc.WriteVariant(in))
		dec := ua.NewBinaryDecoder(&buf, ua.DefaultEncodingContext)
		got, err := dec.ReadVariant()
		assert.NilError(t, err)
		assert.DeepEqual(t, in, got)
	}
}

func TestDataValueRoundTrip(t *testing.T) {
	now := time.Date(2023, 11, 5, 12, 30, 45, 0, time.UTC)
	cases := []ua.DataValue{
		{},
		{Value: float64(21.5), SourceTimestamp: now, ServerTimestamp: now},
		{StatusCode: ua.BadWaitingForInitialData},
		{Value: uint32(7), StatusCode: ua.Good.WithOverflow(), SourceTimestamp: now},
	}
	for _, in := range cases {
		var buf bytes.Buffer
		enc := ua.NewBinaryEncoder(&buf, ua.DefaultEncodingContext)
		assert.NilError(t, enc.WriteDataValue(in))
		dec := ua.NewBinaryDecoder(&buf, ua.DefaultEncodingContext)
		var got ua.DataValue
		assert.NilError(t, dec.ReadDataValue(&got))
		assert.DeepEqual(t, in, got)
	}
}

func TestExtensionObjectRoundTrip(t *testing.T) {
	in := ua.MonitoringParameters{
		ClientHandle:     7,
		SamplingInterval: 250,
		Filter: &ua.DataChangeFilter{
			Trigger:       ua.DataChangeTriggerStatusValue,
			DeadbandType:  uint32(ua.DeadbandTypeAbsolute),
			DeadbandValue: 0.5,
		},
		QueueSize:     10,
		DiscardOldest: true,
	}
	var got ua.MonitoringParameters
	roundTrip(t, &in, &got)
	assert.DeepEqual(t, in, got)
}

func TestNullExtensionObjectRoundTrip(t *testing.T) {
	in := ua.MonitoringParameters{ClientHandle: 1, QueueSize: 1}
	var got ua.MonitoringParameters
	roundTrip(t, &in, &got)
	assert.Assert(t, got.Filter == nil)
}

func TestServiceRoundTrip(t *testing.T) {
	ts := time.Date(2023, 11, 5, 12, 30, 45, 0, time.UTC)
	in := ua.ReadRequest{
		RequestHeader: ua.RequestHeader{
			AuthenticationToken: ua.NewNodeIDOpaque(0, ua.ByteString([]byte{1, 2, 3, 4})),
			Timestamp:           ts,
			RequestHandle:       99,
			TimeoutHint:         15000,
		},
		MaxAge:             0,
		TimestampsToReturn: ua.TimestampsToReturnBoth,
		NodesToRead: []ua.ReadValueID{
			{NodeID: ua.NewNodeIDString(2, "Demo.Temperature"), AttributeID: ua.AttributeIDValue},
			{NodeID: ua.NewNodeIDNumeric(0, 2258), AttributeID: ua.AttributeIDValue},
		},
	}
	var got ua.ReadRequest
	roundTrip(t, &in, &got)
	assert.DeepEqual(t, in, got)
}

func TestPublishResponseRoundTrip(t *testing.T) {
	ts := time.Date(2023, 11, 5, 12, 30, 45, 0, time.UTC)
	in := ua.PublishResponse{
		ResponseHeader: ua.ResponseHeader{Timestamp: ts, RequestHandle: 3},
		SubscriptionID: 12,
		AvailableSequenceNumbers: []uint32{4, 5},
		MoreNotifications:        true,
		NotificationMessage: ua.NotificationMessage{
			SequenceNumber: 4,
			PublishTime:    ts,
			NotificationData: []ua.ExtensionObject{
				&ua.DataChangeNotification{
					MonitoredItems: []ua.MonitoredItemNotification{
						{ClientHandle: 1, Value: ua.DataValue{Value: float64(20.5), SourceTimestamp: ts}},
					},
				},
			},
		},
		Results: []ua.StatusCode{ua.Good},
	}
	var got ua.PublishResponse
	roundTrip(t, &in, &got)
	assert.DeepEqual(t, in, got)
}

func TestStatusCode(t *testing.T) {
	assert.Assert(t, ua.Good.IsGood())
	assert.Assert(t, ua.BadTimeout.IsBad())
	assert.Assert(t, ua.UncertainInitialValue.IsUncertain())
	assert.Equal(t, "BadSessionIDInvalid", ua.BadSessionIDInvalid.Error())

	overflowed := ua.Good.WithOverflow()
	assert.Assert(t, overflowed.IsOverflowSet())
	assert.Assert(t, overflowed.IsGood())
}
