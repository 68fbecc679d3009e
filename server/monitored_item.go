package server

import (
	"math"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edgeworks/opcua/ua"
	"github.com/gammazero/deque"
)

var monitoredItemID uint32

const (
	minQueueSize        uint32  = 1
	maxQueueSize        uint32  = 1024
	maxSamplingInterval float64 = 60 * 1000
)

// MonitoredItem samples one variable attribute for a subscription. Raw
// samples land in the prequeue at the sampling interval; the publishing
// cycle drains them through the data-change filter into the notification
// queue.
type MonitoredItem struct {
	sync.Mutex
	sub                *Subscription
	node               *VariableNode
	id                 uint32
	itemToMonitor      ua.ReadValueID
	monitoringMode     ua.MonitoringMode
	clientHandle       uint32
	samplingInterval   float64
	queueSize          uint32
	discardOldest      bool
	timestampsToReturn ua.TimestampsToReturn
	filter             ua.DataChangeFilter
	euRange            *ua.Range
	prequeue           deque.Deque[ua.DataValue]
	queue              deque.Deque[ua.DataValue]
	previous           ua.DataValue
	hasPrevious        bool
	pollGroup          *PollGroup
}

// NewMonitoredItem makes a MonitoredItem and registers it with the poll
// group of its revised sampling interval.
func NewMonitoredItem(sub *Subscription, node *VariableNode, itemToMonitor ua.ReadValueID, monitoringMode ua.MonitoringMode, params ua.MonitoringParameters, timestampsToReturn ua.TimestampsToReturn, filter ua.DataChangeFilter) *MonitoredItem {
	mi := &MonitoredItem{
		sub:                sub,
		node:               node,
		id:                 atomic.AddUint32(&monitoredItemID, 1),
		itemToMonitor:      itemToMonitor,
		monitoringMode:     monitoringMode,
		clientHandle:       params.ClientHandle,
		timestampsToReturn: timestampsToReturn,
		filter:             filter,
		euRange:            node.EURange(),
	}
	mi.samplingInterval = mi.reviseSamplingInterval(params.SamplingInterval)
	mi.queueSize = reviseQueueSize(params.QueueSize)
	mi.discardOldest = params.DiscardOldest
	// the node's current value is the filter baseline, not the first
	// notification: nothing is reported until the value actually changes
	mi.previous = node.Value()
	mi.hasPrevious = true
	if mi.monitoringMode != ua.MonitoringModeDisabled {
		mi.startSampling()
	}
	return mi
}

// ID returns the monitored item id.
func (mi *MonitoredItem) ID() uint32 {
	return mi.id
}

// ClientHandle returns the client handle.
func (mi *MonitoredItem) ClientHandle() uint32 {
	mi.Lock()
	defer mi.Unlock()
	return mi.clientHandle
}

// SamplingInterval returns the revised sampling interval in milliseconds.
func (mi *MonitoredItem) SamplingInterval() float64 {
	mi.Lock()
	defer mi.Unlock()
	return mi.samplingInterval
}

// QueueSize returns the revised queue size.
func (mi *MonitoredItem) QueueSize() uint32 {
	mi.Lock()
	defer mi.Unlock()
	return mi.queueSize
}

func (mi *MonitoredItem) reviseSamplingInterval(requested float64) float64 {
	switch {
	case requested < 0:
		requested = mi.sub.PublishingInterval()
	case requested == 0:
		requested = mi.node.MinimumSamplingInterval()
	}
	if min := mi.node.MinimumSamplingInterval(); requested < min {
		requested = min
	}
	if requested <= 0 {
		requested = minPublishingInterval
	}
	if requested > maxSamplingInterval {
		requested = maxSamplingInterval
	}
	return requested
}

func reviseQueueSize(requested uint32) uint32 {
	switch {
	case requested < minQueueSize:
		return minQueueSize
	case requested > maxQueueSize:
		return maxQueueSize
	default:
		return requested
	}
}

func (mi *MonitoredItem) startSampling() {
	pg := mi.sub.manager.srv.Scheduler().GetPollGroup(time.Duration(mi.samplingInterval) * time.Millisecond)
	mi.pollGroup = pg
	pg.Register(mi)
}

func (mi *MonitoredItem) stopSampling() {
	if mi.pollGroup != nil {
		mi.pollGroup.Unregister(mi)
		mi.pollGroup = nil
	}
}

// Poll samples the node value into the prequeue.
func (mi *MonitoredItem) Poll() {
	mi.Lock()
	defer mi.Unlock()
	if mi.monitoringMode == ua.MonitoringModeDisabled {
		return
	}
	if uint32(mi.prequeue.Len()) >= maxQueueSize {
		mi.prequeue.PopFront()
	}
	mi.prequeue.PushBack(mi.node.Value())
}

// Modify applies new requested parameters and returns the revised values.
func (mi *MonitoredItem) Modify(params ua.MonitoringParameters, filter ua.DataChangeFilter) (revisedSamplingInterval float64, revisedQueueSize uint32) {
	mi.Lock()
	defer mi.Unlock()
	mi.clientHandle = params.ClientHandle
	mi.discardOldest = params.DiscardOldest
	mi.filter = filter
	newInterval := mi.reviseSamplingInterval(params.SamplingInterval)
	if newInterval != mi.samplingInterval && mi.monitoringMode != ua.MonitoringModeDisabled {
		mi.stopSampling()
		mi.samplingInterval = newInterval
		mi.startSampling()
	} else {
		mi.samplingInterval = newInterval
	}
	mi.queueSize = reviseQueueSize(params.QueueSize)
	for uint32(mi.queue.Len()) > mi.queueSize {
		if mi.discardOldest {
			mi.queue.PopFront()
		} else {
			mi.queue.PopBack()
		}
	}
	return mi.samplingInterval, mi.queueSize
}

// Delete stops sampling and drops queued notifications.
func (mi *MonitoredItem) Delete() {
	mi.Lock()
	defer mi.Unlock()
	mi.stopSampling()
	mi.prequeue.Clear()
	mi.queue.Clear()
}

// notifications drains the prequeue through the data-change filter and
// returns up to max queued notifications.
func (mi *MonitoredItem) notifications(max int) []ua.MonitoredItemNotification {
	mi.Lock()
	defer mi.Unlock()
	for mi.prequeue.Len() > 0 {
		sample := mi.prequeue.PopFront()
		if !mi.hasPrevious || mi.isDataChange(sample, mi.previous) {
			mi.previous = sample
			mi.hasPrevious = true
			mi.enqueue(sample)
		}
	}
	if mi.monitoringMode != ua.MonitoringModeReporting {
		return nil
	}
	n := mi.queue.Len()
	if max > 0 && n > max {
		n = max
	}
	if n == 0 {
		return nil
	}
	out := make([]ua.MonitoredItemNotification, 0, n)
	for i := 0; i < n; i++ {
		dv := mi.queue.PopFront()
		out = append(out, ua.MonitoredItemNotification{ClientHandle: mi.clientHandle, Value: mi.applyTimestamps(dv)})
	}
	return out
}

func (mi *MonitoredItem) enqueue(dv ua.DataValue) {
	if uint32(mi.queue.Len()) >= mi.queueSize {
		if mi.queueSize > 1 {
			dv.StatusCode = dv.StatusCode.WithOverflow()
		}
		if mi.discardOldest {
			mi.queue.PopFront()
		} else {
			mi.queue.PopBack()
		}
	}
	mi.queue.PushBack(dv)
}

func (mi *MonitoredItem) applyTimestamps(dv ua.DataValue) ua.DataValue {
	switch mi.timestampsToReturn {
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

// isDataChange applies the data-change filter to a new sample against the
// reported baseline.
func (mi *MonitoredItem) isDataChange(current, previous ua.DataValue) bool {
	if (uint32(current.StatusCode)^uint32(previous.StatusCode))&0xFFFFF000 != 0 {
		return true
	}
	switch mi.filter.Trigger {
	case ua.DataChangeTriggerStatus:
		return false
	case ua.DataChangeTriggerStatusValueTimestamp:
		if !current.SourceTimestamp.Equal(previous.SourceTimestamp) {
			return true
		}
	}
	switch ua.DeadbandType(mi.filter.DeadbandType) {
	case ua.DeadbandTypeAbsolute:
		return deadbandExceeded(current.Value, previous.Value, mi.filter.DeadbandValue)
	case ua.DeadbandTypePercent:
		if mi.euRange == nil {
			return deadbandExceeded(current.Value, previous.Value, mi.filter.DeadbandValue)
		}
		threshold := mi.filter.DeadbandValue * (mi.euRange.High - mi.euRange.Low) / 100.0
		return deadbandExceeded(current.Value, previous.Value, threshold)
	default:
		return !reflect.DeepEqual(current.Value, previous.Value)
	}
}

// deadbandExceeded reports whether the distance between two numeric values
// exceeds the threshold. Non-numeric values change when they are not deep
// equal; arrays change when any element pair exceeds the threshold.
func deadbandExceeded(current, previous ua.Variant, threshold float64) bool {
	c, cok := numericValues(current)
	p, pok := numericValues(previous)
	if !cok || !pok {
		return !reflect.DeepEqual(current, previous)
	}
	if len(c) != len(p) {
		return true
	}
	for i := range c {
		if math.Abs(c[i]-p[i]) > threshold {
			return true
		}
	}
	return false
}

func numericValues(value ua.Variant) ([]float64, bool) {
	switch v := value.(type) {
	case int8:
		return []float64{float64(v)}, true
	case byte:
		return []float64{float64(v)}, true
	case int16:
		return []float64{float64(v)}, true
	case uint16:
		return []float64{float64(v)}, true
	case int32:
		return []float64{float64(v)}, true
	case uint32:
		return []float64{float64(v)}, true
	case int64:
		return []float64{float64(v)}, true
	case uint64:
		return []float64{float64(v)}, true
	case float32:
		return []float64{float64(v)}, true
	case float64:
		return []float64{v}, true
	case []int8:
		return convertNumeric(v), true
	case []byte:
		return convertNumeric(v), true
	case []int16:
		return convertNumeric(v), true
	case []uint16:
		return convertNumeric(v), true
	case []int32:
		return convertNumeric(v), true
	case []uint32:
		return convertNumeric(v), true
	case []int64:
		return convertNumeric(v), true
	case []uint64:
		return convertNumeric(v), true
	case []float32:
		return convertNumeric(v), true
	case []float64:
		return v, true
	default:
		return nil, false
	}
}

func convertNumeric[T int8 | byte | int16 | uint16 | int32 | uint32 | int64 | uint64 | float32](values []T) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// SetMonitoringMode changes the sampling and reporting state.
func (mi *MonitoredItem) SetMonitoringMode(mode ua.MonitoringMode) {
	mi.Lock()
	defer mi.Unlock()
	if mi.monitoringMode == mode {
		return
	}
	wasDisabled := mi.monitoringMode == ua.MonitoringModeDisabled
	mi.monitoringMode = mode
	if mode == ua.MonitoringModeDisabled {
		mi.stopSampling()
		mi.prequeue.Clear()
		mi.queue.Clear()
		mi.hasPrevious = false
		return
	}
	if wasDisabled {
		mi.startSampling()
	}
}
