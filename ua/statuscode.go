package ua

import "fmt"

// StatusCode is the result of a service call or the quality of a value.
// The top two bits hold the severity: 00 good, 01 uncertain, 10 bad.
type StatusCode uint32

const (
	severityMask         StatusCode = 0xC0000000
	severityGood         StatusCode = 0x00000000
	severityUncertain    StatusCode = 0x40000000
	severityBad          StatusCode = 0x80000000
	codeMask             StatusCode = 0xFFFF0000
	infoTypeDataValue    StatusCode = 0x00000400
	infoBitsOverflow     StatusCode = 0x00000080
)

// IsGood returns true when the severity is good.
func (c StatusCode) IsGood() bool {
	return c&severityMask == severityGood
}

// IsUncertain returns true when the severity is uncertain.
func (c StatusCode) IsUncertain() bool {
	return c&severityMask == severityUncertain
}

// IsBad returns true when the severity is bad.
func (c StatusCode) IsBad() bool {
	return c&severityMask == severityBad
}

// IsStructureChanged returns true when the structure-changed bit is set.
func (c StatusCode) IsStructureChanged() bool {
	return c&0x00008000 != 0
}

// IsSemanticsChanged returns true when the semantics-changed bit is set.
func (c StatusCode) IsSemanticsChanged() bool {
	return c&0x00004000 != 0
}

// IsOverflowSet returns true when the DataValue info bits carry the overflow flag.
func (c StatusCode) IsOverflowSet() bool {
	return c&(infoTypeDataValue|infoBitsOverflow) == infoTypeDataValue|infoBitsOverflow
}

// WithOverflow returns the code with the DataValue overflow info bits set,
// marking a value that displaced an older one from a full monitoring queue.
func (c StatusCode) WithOverflow() StatusCode {
	return c | infoTypeDataValue | infoBitsOverflow
}

// Error implements the error interface.
func (c StatusCode) Error() string {
	if name, ok := statusCodeNames[c&codeMask]; ok {
		return name
	}
	return fmt.Sprintf("0x%08X", uint32(c))
}

func (c StatusCode) String() string {
	return c.Error()
}

const (
	Good                               StatusCode = 0x00000000
	GoodSubscriptionTransferred        StatusCode = 0x002D0000
	GoodCompletesAsynchronously        StatusCode = 0x002E0000
	GoodOverload                       StatusCode = 0x002F0000
	GoodClamped                        StatusCode = 0x00300000
	UncertainInitialValue              StatusCode = 0x40920000
	BadUnexpectedError                 StatusCode = 0x80010000
	BadInternalError                   StatusCode = 0x80020000
	BadOutOfMemory                     StatusCode = 0x80030000
	BadResourceUnavailable             StatusCode = 0x80040000
	BadCommunicationError              StatusCode = 0x80050000
	BadEncodingError                   StatusCode = 0x80060000
	BadDecodingError                   StatusCode = 0x80070000
	BadEncodingLimitsExceeded          StatusCode = 0x80080000
	BadRequestTooLarge                 StatusCode = 0x80B80000
	BadResponseTooLarge                StatusCode = 0x80B90000
	BadUnknownResponse                 StatusCode = 0x80090000
	BadTimeout                         StatusCode = 0x800A0000
	BadServiceUnsupported              StatusCode = 0x800B0000
	BadShutdown                        StatusCode = 0x800C0000
	BadServerNotConnected              StatusCode = 0x800D0000
	BadServerHalted                    StatusCode = 0x800E0000
	BadNothingToDo                     StatusCode = 0x800F0000
	BadTooManyOperations               StatusCode = 0x80100000
	BadDataTypeIDUnknown               StatusCode = 0x80110000
	BadCertificateInvalid              StatusCode = 0x80120000
	BadSecurityChecksFailed            StatusCode = 0x80130000
	BadIdentityTokenInvalid            StatusCode = 0x80200000
	BadIdentityTokenRejected           StatusCode = 0x80210000
	BadSecureChannelTokenUnknown       StatusCode = 0x80220000
	BadSequenceNumberInvalid           StatusCode = 0x80230000
	BadUserAccessDenied                StatusCode = 0x801F0000
	BadSessionIDInvalid                StatusCode = 0x80250000
	BadSessionClosed                   StatusCode = 0x80260000
	BadSessionNotActivated             StatusCode = 0x80270000
	BadSubscriptionIDInvalid           StatusCode = 0x80280000
	BadRequestHeaderInvalid            StatusCode = 0x802A0000
	BadTimestampsToReturnInvalid       StatusCode = 0x802B0000
	BadRequestCancelledByClient        StatusCode = 0x802C0000
	BadNoCommunication                 StatusCode = 0x80310000
	BadWaitingForInitialData           StatusCode = 0x80320000
	BadNodeIDInvalid                   StatusCode = 0x80330000
	BadNodeIDUnknown                   StatusCode = 0x80340000
	BadAttributeIDInvalid              StatusCode = 0x80350000
	BadIndexRangeInvalid               StatusCode = 0x80360000
	BadIndexRangeNoData                StatusCode = 0x80370000
	BadDataEncodingInvalid             StatusCode = 0x80380000
	BadDataEncodingUnsupported         StatusCode = 0x80390000
	BadNotReadable                     StatusCode = 0x803A0000
	BadNotWritable                     StatusCode = 0x803B0000
	BadOutOfRange                      StatusCode = 0x803C0000
	BadNotSupported                    StatusCode = 0x803D0000
	BadNotFound                        StatusCode = 0x803E0000
	BadMonitoredItemIDInvalid          StatusCode = 0x80420000
	BadMonitoredItemFilterInvalid      StatusCode = 0x80430000
	BadMonitoredItemFilterUnsupported  StatusCode = 0x80440000
	BadFilterNotAllowed                StatusCode = 0x80450000
	BadStructureMissing                StatusCode = 0x80460000
	BadEventFilterInvalid              StatusCode = 0x80470000
	BadContentFilterInvalid            StatusCode = 0x80480000
	BadDeadbandFilterInvalid           StatusCode = 0x808E0000
	BadFilterOperandInvalid            StatusCode = 0x80490000
	BadContinuationPointInvalid        StatusCode = 0x804A0000
	BadNoContinuationPoints            StatusCode = 0x804B0000
	BadIdentityChangeNotSupported      StatusCode = 0x80C60000
	BadTooManySessions                 StatusCode = 0x80560000
	BadTooManySubscriptions            StatusCode = 0x80770000
	BadTooManyPublishRequests          StatusCode = 0x80780000
	BadNoSubscription                  StatusCode = 0x80790000
	BadSequenceNumberUnknown           StatusCode = 0x807A0000
	BadMessageNotAvailable             StatusCode = 0x807B0000
	BadTooManyMonitoredItems           StatusCode = 0x80DB0000
	BadTCPServerTooBusy                StatusCode = 0x807D0000
	BadTCPMessageTypeInvalid           StatusCode = 0x807E0000
	BadTCPSecureChannelUnknown         StatusCode = 0x807F0000
	BadTCPMessageTooLarge              StatusCode = 0x80800000
	BadTCPNotEnoughResources           StatusCode = 0x80810000
	BadTCPInternalError                StatusCode = 0x80820000
	BadTCPEndpointURLInvalid           StatusCode = 0x80830000
	BadRequestInterrupted              StatusCode = 0x80840000
	BadRequestTimeout                  StatusCode = 0x80850000
	BadSecureChannelClosed             StatusCode = 0x80860000
	BadSecureChannelIDInvalid          StatusCode = 0x80870000
	BadProtocolVersionUnsupported      StatusCode = 0x80BE0000
	BadConnectionClosed                StatusCode = 0x80AE0000
	BadInvalidState                    StatusCode = 0x80AF0000
	BadEndOfStream                     StatusCode = 0x80B00000
	BadConnectionRejected              StatusCode = 0x80AC0000
	BadDisconnect                      StatusCode = 0x80AD0000
	BadSecurityModeRejected            StatusCode = 0x80540000
	BadSecurityPolicyRejected          StatusCode = 0x80550000
	BadNonceInvalid                    StatusCode = 0x80240000
	BadApplicationSignatureInvalid     StatusCode = 0x80580000
	BadUserSignatureInvalid            StatusCode = 0x80570000
	BadRequestTypeInvalid              StatusCode = 0x80530000
	BadServerURIInvalid                StatusCode = 0x80510000
	BadServerNameMissing               StatusCode = 0x80520000
	BadDiscoveryURLMissing             StatusCode = 0x80D50000
	BadMaxAgeInvalid                   StatusCode = 0x80700000
	BadWriteNotSupported               StatusCode = 0x80730000
	BadTypeMismatch                    StatusCode = 0x80740000
)

var statusCodeNames = map[StatusCode]string{
	Good:                              "Good",
	GoodSubscriptionTransferred:       "GoodSubscriptionTransferred",
	GoodClamped:                       "GoodClamped",
	UncertainInitialValue:             "UncertainInitialValue",
	BadUnexpectedError:                "BadUnexpectedError",
	BadInternalError:                  "BadInternalError",
	BadOutOfMemory:                    "BadOutOfMemory",
	BadResourceUnavailable:            "BadResourceUnavailable",
	BadCommunicationError:             "BadCommunicationError",
	BadEncodingError:                  "BadEncodingError",
	BadDecodingError:                  "BadDecodingError",
	BadEncodingLimitsExceeded:         "BadEncodingLimitsExceeded",
	BadRequestTooLarge:                "BadRequestTooLarge",
	BadResponseTooLarge:               "BadResponseTooLarge",
	BadUnknownResponse:                "BadUnknownResponse",
	BadTimeout:                        "BadTimeout",
	BadServiceUnsupported:             "BadServiceUnsupported",
	BadShutdown:                       "BadShutdown",
	BadServerNotConnected:             "BadServerNotConnected",
	BadServerHalted:                   "BadServerHalted",
	BadNothingToDo:                    "BadNothingToDo",
	BadTooManyOperations:              "BadTooManyOperations",
	BadDataTypeIDUnknown:              "BadDataTypeIDUnknown",
	BadCertificateInvalid:             "BadCertificateInvalid",
	BadSecurityChecksFailed:           "BadSecurityChecksFailed",
	BadIdentityTokenInvalid:           "BadIdentityTokenInvalid",
	BadIdentityTokenRejected:          "BadIdentityTokenRejected",
	BadSecureChannelTokenUnknown:      "BadSecureChannelTokenUnknown",
	BadSequenceNumberInvalid:          "BadSequenceNumberInvalid",
	BadUserAccessDenied:               "BadUserAccessDenied",
	BadSessionIDInvalid:               "BadSessionIDInvalid",
	BadSessionClosed:                  "BadSessionClosed",
	BadSessionNotActivated:            "BadSessionNotActivated",
	BadSubscriptionIDInvalid:          "BadSubscriptionIDInvalid",
	BadRequestHeaderInvalid:           "BadRequestHeaderInvalid",
	BadTimestampsToReturnInvalid:      "BadTimestampsToReturnInvalid",
	BadRequestCancelledByClient:       "BadRequestCancelledByClient",
	BadNoCommunication:                "BadNoCommunication",
	BadWaitingForInitialData:          "BadWaitingForInitialData",
	BadNodeIDInvalid:                  "BadNodeIDInvalid",
	BadNodeIDUnknown:                  "BadNodeIDUnknown",
	BadAttributeIDInvalid:             "BadAttributeIDInvalid",
	BadIndexRangeInvalid:              "BadIndexRangeInvalid",
	BadIndexRangeNoData:               "BadIndexRangeNoData",
	BadDataEncodingInvalid:            "BadDataEncodingInvalid",
	BadDataEncodingUnsupported:        "BadDataEncodingUnsupported",
	BadNotReadable:                    "BadNotReadable",
	BadNotWritable:                    "BadNotWritable",
	BadOutOfRange:                     "BadOutOfRange",
	BadNotSupported:                   "BadNotSupported",
	BadNotFound:                       "BadNotFound",
	BadMonitoredItemIDInvalid:         "BadMonitoredItemIDInvalid",
	BadMonitoredItemFilterInvalid:     "BadMonitoredItemFilterInvalid",
	BadMonitoredItemFilterUnsupported: "BadMonitoredItemFilterUnsupported",
	BadFilterNotAllowed:               "BadFilterNotAllowed",
	BadDeadbandFilterInvalid:          "BadDeadbandFilterInvalid",
	BadTooManySessions:                "BadTooManySessions",
	BadTooManySubscriptions:           "BadTooManySubscriptions",
	BadTooManyPublishRequests:         "BadTooManyPublishRequests",
	BadNoSubscription:                 "BadNoSubscription",
	BadSequenceNumberUnknown:          "BadSequenceNumberUnknown",
	BadMessageNotAvailable:            "BadMessageNotAvailable",
	BadTooManyMonitoredItems:          "BadTooManyMonitoredItems",
	BadTCPServerTooBusy:               "BadTCPServerTooBusy",
	BadTCPMessageTypeInvalid:          "BadTCPMessageTypeInvalid",
	BadTCPSecureChannelUnknown:        "BadTCPSecureChannelUnknown",
	BadTCPMessageTooLarge:             "BadTCPMessageTooLarge",
	BadTCPNotEnoughResources:          "BadTCPNotEnoughResources",
	BadTCPInternalError:               "BadTCPInternalError",
	BadTCPEndpointURLInvalid:          "BadTCPEndpointURLInvalid",
	BadRequestInterrupted:             "BadRequestInterrupted",
	BadRequestTimeout:                 "BadRequestTimeout",
	BadSecureChannelClosed:            "BadSecureChannelClosed",
	BadSecureChannelIDInvalid:         "BadSecureChannelIDInvalid",
	BadProtocolVersionUnsupported:     "BadProtocolVersionUnsupported",
	BadConnectionClosed:               "BadConnectionClosed",
	BadInvalidState:                   "BadInvalidState",
	BadEndOfStream:                    "BadEndOfStream",
	BadConnectionRejected:             "BadConnectionRejected",
	BadDisconnect:                     "BadDisconnect",
	BadSecurityModeRejected:           "BadSecurityModeRejected",
	BadSecurityPolicyRejected:         "BadSecurityPolicyRejected",
	BadNonceInvalid:                   "BadNonceInvalid",
	BadApplicationSignatureInvalid:    "BadApplicationSignatureInvalid",
	BadUserSignatureInvalid:           "BadUserSignatureInvalid",
	BadRequestTypeInvalid:             "BadRequestTypeInvalid",
	BadServerURIInvalid:               "BadServerURIInvalid",
	BadServerNameMissing:              "BadServerNameMissing",
	BadDiscoveryURLMissing:            "BadDiscoveryURLMissing",
	BadMaxAgeInvalid:                  "BadMaxAgeInvalid",
	BadWriteNotSupported:              "BadWriteNotSupported",
	BadTypeMismatch:                   "BadTypeMismatch",
}
