package server

import (
	"testing"
	"time"

	"gotest.tools/assert"

	"github.com/edgeworks/opcua/ua"
)

func sample(value ua.Variant, status ua.StatusCode) ua.DataValue {
	return ua.DataValue{Value: value, StatusCode: status, SourceTimestamp: time.Now()}
}

func TestIsDataChangeStatusValue(t *testing.T) {
	mi := &MonitoredItem{filter: ua.DataChangeFilter{Trigger: ua.DataChangeTriggerStatusValue}}

	assert.Assert(t, mi.isDataChange(sample(2.0, ua.Good), sample(1.0, ua.Good)))
	assert.Assert(t, !mi.isDataChange(sample(1.0, ua.Good), sample(1.0, ua.Good)))
	assert.Assert(t, mi.isDataChange(sample(1.0, ua.BadNoCommunication), sample(1.0, ua.Good)))
}

func TestIsDataChangeTriggerStatus(t *testing.T) {
	mi := &MonitoredItem{filter: ua.DataChangeFilter{Trigger: ua.DataChangeTriggerStatus}}

	// value changes do not report, status changes do
	assert.Assert(t, !mi.isDataChange(sample(2.0, ua.Good), sample(1.0, ua.Good)))
	assert.Assert(t, mi.isDataChange(sample(1.0, ua.BadNoCommunication), sample(1.0, ua.Good)))
}

func TestIsDataChangeTriggerTimestamp(t *testing.T) {
	mi := &MonitoredItem{filter: ua.DataChangeFilter{Trigger: ua.DataChangeTriggerStatusValueTimestamp}}

	ts := time.Now()
	a := ua.DataValue{Value: 1.0, SourceTimestamp: ts}
	b := ua.DataValue{Value: 1.0, SourceTimestamp: ts.Add(time.Second)}
	assert.Assert(t, mi.isDataChange(b, a))
	assert.Assert(t, !mi.isDataChange(a, a))
}

func TestIsDataChangeAbsoluteDeadband(t *testing.T) {
	mi := &MonitoredItem{filter: ua.DataChangeFilter{
		Trigger:       ua.DataChangeTriggerStatusValue,
		DeadbandType:  uint32(ua.DeadbandTypeAbsolute),
		DeadbandValue: 1.0,
	}}

	assert.Assert(t, !mi.isDataChange(sample(10.5, ua.Good), sample(10.0, ua.Good)))
	assert.Assert(t, !mi.isDataChange(sample(11.0, ua.Good), sample(10.0, ua.Good)))
	assert.Assert(t, mi.isDataChange(sample(11.5, ua.Good), sample(10.0, ua.Good)))
	assert.Assert(t, mi.isDataChange(sample(8.5, ua.Good), sample(10.0, ua.Good)))

	// integer scalars pass through the same comparison
	assert.Assert(t, !mi.isDataChange(sample(int32(10), ua.Good), sample(int32(11), ua.Good)))
	assert.Assert(t, mi.isDataChange(sample(int32(10), ua.Good), sample(int32(12), ua.Good)))

	// status changes always report, regardless of the deadband
	assert.Assert(t, mi.isDataChange(sample(10.0, ua.BadNoCommunication), sample(10.0, ua.Good)))
}

func TestIsDataChangeAbsoluteDeadbandArray(t *testing.T) {
	mi := &MonitoredItem{filter: ua.DataChangeFilter{
		Trigger:       ua.DataChangeTriggerStatusValue,
		DeadbandType:  uint32(ua.DeadbandTypeAbsolute),
		DeadbandValue: 1.0,
	}}

	assert.Assert(t, !mi.isDataChange(sample([]float64{1, 2, 3}, ua.Good), sample([]float64{1.5, 2, 3}, ua.Good)))
	assert.Assert(t, mi.isDataChange(sample([]float64{1, 2, 5}, ua.Good), sample([]float64{1, 2, 3}, ua.Good)))
	// length changes always report
	assert.Assert(t, mi.isDataChange(sample([]float64{1, 2}, ua.Good), sample([]float64{1, 2, 3}, ua.Good)))
}

func TestIsDataChangePercentDeadband(t *testing.T) {
	// 5% of the 0..200 range is an absolute threshold of 10
	mi := &MonitoredItem{
		filter: ua.DataChangeFilter{
			Trigger:       ua.DataChangeTriggerStatusValue,
			DeadbandType:  uint32(ua.DeadbandTypePercent),
			DeadbandValue: 5,
		},
		euRange: &ua.Range{Low: 0, High: 200},
	}

	assert.Assert(t, !mi.isDataChange(sample(105.0, ua.Good), sample(100.0, ua.Good)))
	assert.Assert(t, !mi.isDataChange(sample(110.0, ua.Good), sample(100.0, ua.Good)))
	assert.Assert(t, mi.isDataChange(sample(111.0, ua.Good), sample(100.0, ua.Good)))
}

func TestIsDataChangeNonNumericDeadband(t *testing.T) {
	mi := &MonitoredItem{filter: ua.DataChangeFilter{
		Trigger:       ua.DataChangeTriggerStatusValue,
		DeadbandType:  uint32(ua.DeadbandTypeAbsolute),
		DeadbandValue: 1.0,
	}}

	// non-numeric values fall back to deep equality
	assert.Assert(t, mi.isDataChange(sample("b", ua.Good), sample("a", ua.Good)))
	assert.Assert(t, !mi.isDataChange(sample("a", ua.Good), sample("a", ua.Good)))
}

func TestMonitoredItemBaselineSeededAtCreate(t *testing.T) {
	srv, err := New(ua.ApplicationDescription{}, "opc.tcp://localhost:4840")
	assert.NilError(t, err)
	session := NewSession(srv, ua.NewNodeIDOpaque(1, ua.ByteString("id")), ua.NewNodeIDOpaque(0, ua.ByteString("token")), "test", defaultSessionTimeout, ua.ApplicationDescription{}, "")
	sub := NewSubscription(srv.SubscriptionManager(), session, 1000, 0, 0, 0, true, 0)
	defer sub.Delete()

	now := time.Now()
	node := NewVariableNode(
		ua.NewNodeIDString(2, "Demo.Level"),
		ua.NewQualifiedName(2, "Level"),
		ua.NewDataValue(20.0, ua.Good, now, 0, now, 0),
		ua.AccessLevelsCurrentRead,
		0,
		nil,
	)
	mi := NewMonitoredItem(sub, node,
		ua.ReadValueID{NodeID: node.NodeID(), AttributeID: ua.AttributeIDValue},
		ua.MonitoringModeReporting,
		ua.MonitoringParameters{ClientHandle: 7, SamplingInterval: 25, QueueSize: 10, DiscardOldest: true},
		ua.TimestampsToReturnBoth,
		ua.DataChangeFilter{Trigger: ua.DataChangeTriggerStatusValue, DeadbandType: uint32(ua.DeadbandTypeAbsolute), DeadbandValue: 0.5},
	)
	defer mi.Delete()

	// the creation value is the baseline, not the first notification
	mi.Poll()
	assert.Equal(t, 0, len(mi.notifications(0)))

	// a change within the deadband stays quiet
	node.SetValueNow(20.2)
	mi.Poll()
	assert.Equal(t, 0, len(mi.notifications(0)))

	// past the deadband it reports
	node.SetValueNow(21.0)
	mi.Poll()
	out := mi.notifications(0)
	assert.Equal(t, 1, len(out))
	assert.Equal(t, 21.0, out[0].Value.Value)
}

func TestReviseQueueSize(t *testing.T) {
	assert.Equal(t, minQueueSize, reviseQueueSize(0))
	assert.Equal(t, uint32(10), reviseQueueSize(10))
	assert.Equal(t, maxQueueSize, reviseQueueSize(1<<20))
}
