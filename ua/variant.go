package ua

import (
	"time"

	"github.com/google/uuid"
)

// Variant holds any scalar or slice of the built-in wire types. A nil
// Variant encodes as an empty value. It is a defined type, not an alias,
// so the codec can tell Variant struct fields from ExtensionObject fields.
type Variant interface{}

// VariantType is the wire tag of the value carried by a Variant.
type VariantType byte

const (
	VariantTypeNull VariantType = iota
	VariantTypeBoolean
	VariantTypeSByte
	VariantTypeByte
	VariantTypeInt16
	VariantTypeUInt16
	VariantTypeInt32
	VariantTypeUInt32
	VariantTypeInt64
	VariantTypeUInt64
	VariantTypeFloat
	VariantTypeDouble
	VariantTypeString
	VariantTypeDateTime
	VariantTypeGUID
	VariantTypeByteString
	VariantTypeXMLElement
	VariantTypeNodeID
	VariantTypeExpandedNodeID
	VariantTypeStatusCode
	VariantTypeQualifiedName
	VariantTypeLocalizedText
	VariantTypeExtensionObject
	VariantTypeDataValue
	VariantTypeVariant
	VariantTypeDiagnosticInfo
)

const (
	// VariantArrayDimensions flags that array dimensions follow the value.
	VariantArrayDimensions byte = 0x40
	// VariantArrayValues flags that the value is an array.
	VariantArrayValues byte = 0x80
)

// VariantTypeOf reports the wire tag for a Go value, ignoring whether it is
// a scalar or a slice.
func VariantTypeOf(value Variant) VariantType {
	switch value.(type) {
	case nil:
		return VariantTypeNull
	case bool, []bool:
		return VariantTypeBoolean
	case int8, []int8:
		return VariantTypeSByte
	case byte, []byte:
		return VariantTypeByte
	case int16, []int16:
		return VariantTypeInt16
	case uint16, []uint16:
		return VariantTypeUInt16
	case int32, []int32:
		return VariantTypeInt32
	case uint32, []uint32:
		return VariantTypeUInt32
	case int64, []int64:
		return VariantTypeInt64
	case uint64, []uint64:
		return VariantTypeUInt64
	case float32, []float32:
		return VariantTypeFloat
	case float64, []float64:
		return VariantTypeDouble
	case string, []string:
		return VariantTypeString
	case time.Time, []time.Time:
		return VariantTypeDateTime
	case uuid.UUID, []uuid.UUID:
		return VariantTypeGUID
	case ByteString, []ByteString:
		return VariantTypeByteString
	case NodeID, []NodeID:
		return VariantTypeNodeID
	case ExpandedNodeID, []ExpandedNodeID:
		return VariantTypeExpandedNodeID
	case StatusCode, []StatusCode:
		return VariantTypeStatusCode
	case QualifiedName, []QualifiedName:
		return VariantTypeQualifiedName
	case LocalizedText, []LocalizedText:
		return VariantTypeLocalizedText
	case DataValue, []DataValue:
		return VariantTypeDataValue
	case []Variant:
		return VariantTypeVariant
	default:
		return VariantTypeExtensionObject
	}
}
