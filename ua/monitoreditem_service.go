package ua

// DataChangeFilter selects which data changes report a notification.
type DataChangeFilter struct {
	Trigger       DataChangeTrigger
	DeadbandType  uint32
	DeadbandValue float64
}

// Range is a low/high bound pair, used for the EURange of analog items.
type Range struct {
	Low  float64
	High float64
}

// MonitoringParameters are the requested parameters of a monitored item.
type MonitoringParameters struct {
	ClientHandle     uint32
	SamplingInterval float64
	Filter           ExtensionObject
	QueueSize        uint32
	DiscardOldest    bool
}

// MonitoredItemCreateRequest creates one monitored item.
type MonitoredItemCreateRequest struct {
	ItemToMonitor       ReadValueID
	MonitoringMode      MonitoringMode
	RequestedParameters MonitoringParameters
}

// MonitoredItemCreateResult is the per-item result of CreateMonitoredItems.
type MonitoredItemCreateResult struct {
	StatusCode              StatusCode
	MonitoredItemID         uint32
	RevisedSamplingInterval float64
	RevisedQueueSize        uint32
	FilterResult            ExtensionObject
}

// CreateMonitoredItemsRequest creates monitored items in a subscription.
type CreateMonitoredItemsRequest struct {
	RequestHeader
	SubscriptionID     uint32
	TimestampsToReturn TimestampsToReturn
	ItemsToCreate      []MonitoredItemCreateRequest
}

// CreateMonitoredItemsResponse returns per-item results.
type CreateMonitoredItemsResponse struct {
	ResponseHeader
	Results         []MonitoredItemCreateResult
	DiagnosticInfos []DiagnosticInfo
}

// MonitoredItemModifyRequest modifies one monitored item.
type MonitoredItemModifyRequest struct {
	MonitoredItemID     uint32
	RequestedParameters MonitoringParameters
}

// MonitoredItemModifyResult is the per-item result of ModifyMonitoredItems.
type MonitoredItemModifyResult struct {
	StatusCode              StatusCode
	RevisedSamplingInterval float64
	RevisedQueueSize        uint32
	FilterResult            ExtensionObject
}

// ModifyMonitoredItemsRequest modifies monitored items of a subscription.
type ModifyMonitoredItemsRequest struct {
	RequestHeader
	SubscriptionID     uint32
	TimestampsToReturn TimestampsToReturn
	ItemsToModify      []MonitoredItemModifyRequest
}

// ModifyMonitoredItemsResponse returns per-item results.
type ModifyMonitoredItemsResponse struct {
	ResponseHeader
	Results         []MonitoredItemModifyResult
	DiagnosticInfos []DiagnosticInfo
}

// DeleteMonitoredItemsRequest deletes monitored items of a subscription.
type DeleteMonitoredItemsRequest struct {
	RequestHeader
	SubscriptionID   uint32
	MonitoredItemIDs []uint32
}

// DeleteMonitoredItemsResponse returns per-item results.
type DeleteMonitoredItemsResponse struct {
	ResponseHeader
	Results         []StatusCode
	DiagnosticInfos []DiagnosticInfo
}
