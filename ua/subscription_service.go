package ua

import "time"

// CreateSubscriptionRequest creates a subscription.
type CreateSubscriptionRequest struct {
	RequestHeader
	RequestedPublishingInterval float64
	RequestedLifetimeCount      uint32
	RequestedMaxKeepAliveCount  uint32
	MaxNotificationsPerPublish  uint32
	PublishingEnabled           bool
	Priority                    byte
}

// CreateSubscriptionResponse returns the revised subscription parameters.
type CreateSubscriptionResponse struct {
	ResponseHeader
	SubscriptionID            uint32
	RevisedPublishingInterval float64
	RevisedLifetimeCount      uint32
	RevisedMaxKeepAliveCount  uint32
}

// ModifySubscriptionRequest modifies a subscription.
type ModifySubscriptionRequest struct {
	RequestHeader
	SubscriptionID              uint32
	RequestedPublishingInterval float64
	RequestedLifetimeCount      uint32
	RequestedMaxKeepAliveCount  uint32
	MaxNotificationsPerPublish  uint32
	Priority                    byte
}

// ModifySubscriptionResponse returns the revised subscription parameters.
type ModifySubscriptionResponse struct {
	ResponseHeader
	RevisedPublishingInterval float64
	RevisedLifetimeCount      uint32
	RevisedMaxKeepAliveCount  uint32
}

// SetPublishingModeRequest enables or disables publishing for
// subscriptions.
type SetPublishingModeRequest struct {
	RequestHeader
	PublishingEnabled bool
	SubscriptionIDs   []uint32
}

// SetPublishingModeResponse returns per-subscription results.
type SetPublishingModeResponse struct {
	ResponseHeader
	Results         []StatusCode
	DiagnosticInfos []DiagnosticInfo
}

// DeleteSubscriptionsRequest deletes subscriptions.
type DeleteSubscriptionsRequest struct {
	RequestHeader
	SubscriptionIDs []uint32
}

// DeleteSubscriptionsResponse returns per-subscription results.
type DeleteSubscriptionsResponse struct {
	ResponseHeader
	Results         []StatusCode
	DiagnosticInfos []DiagnosticInfo
}

// SubscriptionAcknowledgement acknowledges a received notification message.
type SubscriptionAcknowledgement struct {
	SubscriptionID uint32
	SequenceNumber uint32
}

// PublishRequest acknowledges notifications and asks for the next one.
type PublishRequest struct {
	RequestHeader
	SubscriptionAcknowledgements []SubscriptionAcknowledgement
}

// PublishResponse delivers a notification message for one subscription.
type PublishResponse struct {
	ResponseHeader
	SubscriptionID           uint32
	AvailableSequenceNumbers []uint32
	MoreNotifications        bool
	NotificationMessage      NotificationMessage
	Results                  []StatusCode
	DiagnosticInfos          []DiagnosticInfo
}

// RepublishRequest asks for the retransmission of a retained notification.
type RepublishRequest struct {
	RequestHeader
	SubscriptionID           uint32
	RetransmitSequenceNumber uint32
}

// RepublishResponse returns the retransmitted notification.
type RepublishResponse struct {
	ResponseHeader
	NotificationMessage NotificationMessage
}

// NotificationMessage carries the notifications of one publishing cycle.
type NotificationMessage struct {
	SequenceNumber   uint32
	PublishTime      time.Time
	NotificationData []ExtensionObject
}

// MonitoredItemNotification is a sampled value of one monitored item.
type MonitoredItemNotification struct {
	ClientHandle uint32
	Value        DataValue
}

// DataChangeNotification carries data-change notifications.
type DataChangeNotification struct {
	MonitoredItems  []MonitoredItemNotification
	DiagnosticInfos []DiagnosticInfo
}

// StatusChangeNotification reports a change of the subscription state.
type StatusChangeNotification struct {
	Status         StatusCode
	DiagnosticInfo DiagnosticInfo
}
