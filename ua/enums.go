package ua

// MessageSecurityMode is the security applied to messages on a channel.
type MessageSecurityMode uint32

const (
	MessageSecurityModeInvalid MessageSecurityMode = iota
	MessageSecurityModeNone
	MessageSecurityModeSign
	MessageSecurityModeSignAndEncrypt
)

// SecurityTokenRequestType selects issuing or renewing a channel token.
type SecurityTokenRequestType uint32

const (
	SecurityTokenRequestTypeIssue SecurityTokenRequestType = iota
	SecurityTokenRequestTypeRenew
)

// TimestampsToReturn selects which timestamps are returned with values.
type TimestampsToReturn uint32

const (
	TimestampsToReturnSource TimestampsToReturn = iota
	TimestampsToReturnServer
	TimestampsToReturnBoth
	TimestampsToReturnNeither
)

// MonitoringMode is the sampling and reporting state of a monitored item.
type MonitoringMode uint32

const (
	MonitoringModeDisabled MonitoringMode = iota
	MonitoringModeSampling
	MonitoringModeReporting
)

// DataChangeTrigger selects which changes of a value report a notification.
type DataChangeTrigger uint32

const (
	DataChangeTriggerStatus DataChangeTrigger = iota
	DataChangeTriggerStatusValue
	DataChangeTriggerStatusValueTimestamp
)

// DeadbandType selects the deadband applied by a DataChangeFilter.
type DeadbandType uint32

const (
	DeadbandTypeNone DeadbandType = iota
	DeadbandTypeAbsolute
	DeadbandTypePercent
)

// UserTokenType is the kind of user identity token.
type UserTokenType uint32

const (
	UserTokenTypeAnonymous UserTokenType = iota
	UserTokenTypeUserName
	UserTokenTypeCertificate
	UserTokenTypeIssuedToken
)

// ApplicationType is the kind of OPC UA application.
type ApplicationType uint32

const (
	ApplicationTypeServer ApplicationType = iota
	ApplicationTypeClient
	ApplicationTypeClientAndServer
	ApplicationTypeDiscoveryServer
)

// Node attribute ids.
const (
	AttributeIDNodeID                  uint32 = 1
	AttributeIDNodeClass               uint32 = 2
	AttributeIDBrowseName              uint32 = 3
	AttributeIDDisplayName             uint32 = 4
	AttributeIDDescription             uint32 = 5
	AttributeIDValue                   uint32 = 13
	AttributeIDDataType                uint32 = 14
	AttributeIDValueRank               uint32 = 15
	AttributeIDAccessLevel             uint32 = 17
	AttributeIDMinimumSamplingInterval uint32 = 19
)

// Access level bits.
const (
	AccessLevelsNone         byte = 0
	AccessLevelsCurrentRead  byte = 1
	AccessLevelsCurrentWrite byte = 2
)

// Well-known URIs.
const (
	SecurityPolicyURINone        = "http://opcfoundation.org/UA/SecurityPolicy#None"
	TransportProfileURIUaTcp     = "http://opcfoundation.org/UA-Profile/Transport/uatcp-uasc-uabinary"
	TransportProtocolSchemeOpcUa = "opc.tcp"
)
