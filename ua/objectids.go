package ua

import "reflect"

// NodeIDs of the default binary encodings of the structures the codec can
// carry inside an ExtensionObject or as a message body.
var (
	ObjectIDAnonymousIdentityTokenEncodingDefaultBinary       = NewNodeIDNumeric(0, 321)
	ObjectIDUserNameIdentityTokenEncodingDefaultBinary        = NewNodeIDNumeric(0, 324)
	ObjectIDServiceFaultEncodingDefaultBinary                 = NewNodeIDNumeric(0, 397)
	ObjectIDFindServersRequestEncodingDefaultBinary           = NewNodeIDNumeric(0, 422)
	ObjectIDFindServersResponseEncodingDefaultBinary          = NewNodeIDNumeric(0, 425)
	ObjectIDGetEndpointsRequestEncodingDefaultBinary          = NewNodeIDNumeric(0, 428)
	ObjectIDGetEndpointsResponseEncodingDefaultBinary         = NewNodeIDNumeric(0, 431)
	ObjectIDOpenSecureChannelRequestEncodingDefaultBinary     = NewNodeIDNumeric(0, 446)
	ObjectIDOpenSecureChannelResponseEncodingDefaultBinary    = NewNodeIDNumeric(0, 449)
	ObjectIDCloseSecureChannelRequestEncodingDefaultBinary    = NewNodeIDNumeric(0, 452)
	ObjectIDCloseSecureChannelResponseEncodingDefaultBinary   = NewNodeIDNumeric(0, 455)
	ObjectIDCreateSessionRequestEncodingDefaultBinary         = NewNodeIDNumeric(0, 461)
	ObjectIDCreateSessionResponseEncodingDefaultBinary        = NewNodeIDNumeric(0, 464)
	ObjectIDActivateSessionRequestEncodingDefaultBinary       = NewNodeIDNumeric(0, 467)
	ObjectIDActivateSessionResponseEncodingDefaultBinary      = NewNodeIDNumeric(0, 470)
	ObjectIDCloseSessionRequestEncodingDefaultBinary          = NewNodeIDNumeric(0, 473)
	ObjectIDCloseSessionResponseEncodingDefaultBinary         = NewNodeIDNumeric(0, 476)
	ObjectIDReadRequestEncodingDefaultBinary                  = NewNodeIDNumeric(0, 631)
	ObjectIDReadResponseEncodingDefaultBinary                 = NewNodeIDNumeric(0, 634)
	ObjectIDWriteRequestEncodingDefaultBinary                 = NewNodeIDNumeric(0, 673)
	ObjectIDWriteResponseEncodingDefaultBinary                = NewNodeIDNumeric(0, 676)
	ObjectIDDataChangeFilterEncodingDefaultBinary             = NewNodeIDNumeric(0, 724)
	ObjectIDCreateMonitoredItemsRequestEncodingDefaultBinary  = NewNodeIDNumeric(0, 751)
	ObjectIDCreateMonitoredItemsResponseEncodingDefaultBinary = NewNodeIDNumeric(0, 754)
	ObjectIDModifyMonitoredItemsRequestEncodingDefaultBinary  = NewNodeIDNumeric(0, 763)
	ObjectIDModifyMonitoredItemsResponseEncodingDefaultBinary = NewNodeIDNumeric(0, 766)
	ObjectIDDeleteMonitoredItemsRequestEncodingDefaultBinary  = NewNodeIDNumeric(0, 781)
	ObjectIDDeleteMonitoredItemsResponseEncodingDefaultBinary = NewNodeIDNumeric(0, 784)
	ObjectIDCreateSubscriptionRequestEncodingDefaultBinary    = NewNodeIDNumeric(0, 787)
	ObjectIDCreateSubscriptionResponseEncodingDefaultBinary   = NewNodeIDNumeric(0, 790)
	ObjectIDModifySubscriptionRequestEncodingDefaultBinary    = NewNodeIDNumeric(0, 793)
	ObjectIDModifySubscriptionResponseEncodingDefaultBinary   = NewNodeIDNumeric(0, 796)
	ObjectIDSetPublishingModeRequestEncodingDefaultBinary     = NewNodeIDNumeric(0, 799)
	ObjectIDSetPublishingModeResponseEncodingDefaultBinary    = NewNodeIDNumeric(0, 802)
	ObjectIDDataChangeNotificationEncodingDefaultBinary       = NewNodeIDNumeric(0, 811)
	ObjectIDStatusChangeNotificationEncodingDefaultBinary     = NewNodeIDNumeric(0, 820)
	ObjectIDPublishRequestEncodingDefaultBinary               = NewNodeIDNumeric(0, 826)
	ObjectIDPublishResponseEncodingDefaultBinary              = NewNodeIDNumeric(0, 829)
	ObjectIDRepublishRequestEncodingDefaultBinary             = NewNodeIDNumeric(0, 832)
	ObjectIDRepublishResponseEncodingDefaultBinary            = NewNodeIDNumeric(0, 835)
	ObjectIDDeleteSubscriptionsRequestEncodingDefaultBinary   = NewNodeIDNumeric(0, 847)
	ObjectIDDeleteSubscriptionsResponseEncodingDefaultBinary  = NewNodeIDNumeric(0, 850)
	ObjectIDRangeEncodingDefaultBinary                        = NewNodeIDNumeric(0, 886)
)

func init() {
	RegisterBinaryEncodingID(reflect.TypeOf(AnonymousIdentityToken{}), ObjectIDAnonymousIdentityTokenEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(UserNameIdentityToken{}), ObjectIDUserNameIdentityTokenEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(ServiceFault{}), ObjectIDServiceFaultEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(FindServersRequest{}), ObjectIDFindServersRequestEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(FindServersResponse{}), ObjectIDFindServersResponseEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(GetEndpointsRequest{}), ObjectIDGetEndpointsRequestEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(GetEndpointsResponse{}), ObjectIDGetEndpointsResponseEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(OpenSecureChannelRequest{}), ObjectIDOpenSecureChannelRequestEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(OpenSecureChannelResponse{}), ObjectIDOpenSecureChannelResponseEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(CloseSecureChannelRequest{}), ObjectIDCloseSecureChannelRequestEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(CloseSecureChannelResponse{}), ObjectIDCloseSecureChannelResponseEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(CreateSessionRequest{}), ObjectIDCreateSessionRequestEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(CreateSessionResponse{}), ObjectIDCreateSessionResponseEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(ActivateSessionRequest{}), ObjectIDActivateSessionRequestEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(ActivateSessionResponse{}), ObjectIDActivateSessionResponseEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(CloseSessionRequest{}), ObjectIDCloseSessionRequestEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(CloseSessionResponse{}), ObjectIDCloseSessionResponseEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(ReadRequest{}), ObjectIDReadRequestEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(ReadResponse{}), ObjectIDReadResponseEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(WriteRequest{}), ObjectIDWriteRequestEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(WriteResponse{}), ObjectIDWriteResponseEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(DataChangeFilter{}), ObjectIDDataChangeFilterEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(CreateMonitoredItemsRequest{}), ObjectIDCreateMonitoredItemsRequestEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(CreateMonitoredItemsResponse{}), ObjectIDCreateMonitoredItemsResponseEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(ModifyMonitoredItemsRequest{}), ObjectIDModifyMonitoredItemsRequestEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(ModifyMonitoredItemsResponse{}), ObjectIDModifyMonitoredItemsResponseEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(DeleteMonitoredItemsRequest{}), ObjectIDDeleteMonitoredItemsRequestEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(DeleteMonitoredItemsResponse{}), ObjectIDDeleteMonitoredItemsResponseEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(CreateSubscriptionRequest{}), ObjectIDCreateSubscriptionRequestEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(CreateSubscriptionResponse{}), ObjectIDCreateSubscriptionResponseEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(ModifySubscriptionRequest{}), ObjectIDModifySubscriptionRequestEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(ModifySubscriptionResponse{}), ObjectIDModifySubscriptionResponseEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(SetPublishingModeRequest{}), ObjectIDSetPublishingModeRequestEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(SetPublishingModeResponse{}), ObjectIDSetPublishingModeResponseEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(DataChangeNotification{}), ObjectIDDataChangeNotificationEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(StatusChangeNotification{}), ObjectIDStatusChangeNotificationEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(PublishRequest{}), ObjectIDPublishRequestEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(PublishResponse{}), ObjectIDPublishResponseEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(RepublishRequest{}), ObjectIDRepublishRequestEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(RepublishResponse{}), ObjectIDRepublishResponseEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(DeleteSubscriptionsRequest{}), ObjectIDDeleteSubscriptionsRequestEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(DeleteSubscriptionsResponse{}), ObjectIDDeleteSubscriptionsResponseEncodingDefaultBinary)
	RegisterBinaryEncodingID(reflect.TypeOf(Range{}), ObjectIDRangeEncodingDefaultBinary)
}
