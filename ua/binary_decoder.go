package ua

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// BinaryDecoder decodes values from the OPC UA binary format. Limits from
// the EncodingContext are enforced while reading; exceeding one yields
// BadEncodingLimitsExceeded.
type BinaryDecoder struct {
	r   io.Reader
	ec  EncodingContext
	buf [16]byte
}

// NewBinaryDecoder returns a decoder that reads from r.
func NewBinaryDecoder(r io.Reader, ec EncodingContext) *BinaryDecoder {
	return &BinaryDecoder{r: r, ec: ec}
}

// Decode reads into the value pointed to.
func (dec *BinaryDecoder) Decode(value any) error {
	switch v := value.(type) {
	case *bool:
		return dec.ReadBoolean(v)
	case *int8:
		return dec.ReadSByte(v)
	case *byte:
		return dec.ReadByte(v)
	case *int16:
		return dec.ReadInt16(v)
	case *uint16:
		return dec.ReadUInt16(v)
	case *int32:
		return dec.ReadInt32(v)
	case *uint32:
		return dec.ReadUInt32(v)
	case *int64:
		return dec.ReadInt64(v)
	case *uint64:
		return dec.ReadUInt64(v)
	case *float32:
		return dec.ReadFloat(v)
	case *float64:
		return dec.ReadDouble(v)
	case *string:
		return dec.ReadString(v)
	case *time.Time:
		return dec.ReadDateTime(v)
	case *uuid.UUID:
		return dec.ReadGUID(v)
	case *ByteString:
		return dec.ReadByteString(v)
	case *StatusCode:
		return dec.ReadStatusCode(v)
	case *NodeID:
		return dec.ReadNodeID(v)
	case *ExpandedNodeID:
		return dec.ReadExpandedNodeID(v)
	case *QualifiedName:
		return dec.ReadQualifiedName(v)
	case *LocalizedText:
		return dec.ReadLocalizedText(v)
	case *DataValue:
		return dec.ReadDataValue(v)
	case *DiagnosticInfo:
		return dec.ReadDiagnosticInfo(v)
	default:
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Ptr || rv.IsNil() {
			return BadDecodingError
		}
		return dec.decodeValue(rv.Elem())
	}
}

func (dec *BinaryDecoder) decodeValue(fv reflect.Value) error {
	switch fv.Type() {
	case typeVariant:
		v, err := dec.ReadVariant()
		if err != nil {
			return err
		}
		if v != nil {
			fv.Set(reflect.ValueOf(v))
		} else {
			fv.Set(reflect.Zero(typeVariant))
		}
		return nil
	case typeExtensionObject:
		v, err := dec.ReadExtensionObject()
		if err != nil {
			return err
		}
		if v != nil {
			fv.Set(reflect.ValueOf(v))
		} else {
			fv.Set(reflect.Zero(typeExtensionObject))
		}
		return nil
	case typeNodeID:
		var n NodeID
		if err := dec.ReadNodeID(&n); err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(n))
		return nil
	}
	switch v := fv.Addr().Interface().(type) {
	case *time.Time:
		return dec.ReadDateTime(v)
	case *uuid.UUID:
		return dec.ReadGUID(v)
	case *ByteString:
		return dec.ReadByteString(v)
	case *StatusCode:
		return dec.ReadStatusCode(v)
	case *ExpandedNodeID:
		return dec.ReadExpandedNodeID(v)
	case *QualifiedName:
		return dec.ReadQualifiedName(v)
	case *LocalizedText:
		return dec.ReadLocalizedText(v)
	case *DataValue:
		return dec.ReadDataValue(v)
	case *DiagnosticInfo:
		return dec.ReadDiagnosticInfo(v)
	}
	switch fv.Kind() {
	case reflect.Bool:
		var b bool
		if err := dec.ReadBoolean(&b); err != nil {
			return err
		}
		fv.SetBool(b)
		return nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := dec.readInt(fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetInt(n)
		return nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := dec.readUint(fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetUint(n)
		return nil
	case reflect.Float32:
		var f float32
		if err := dec.ReadFloat(&f); err != nil {
			return err
		}
		fv.SetFloat(float64(f))
		return nil
	case reflect.Float64:
		var f float64
		if err := dec.ReadDouble(&f); err != nil {
			return err
		}
		fv.SetFloat(f)
		return nil
	case reflect.String:
		var s string
		if err := dec.ReadString(&s); err != nil {
			return err
		}
		fv.SetString(s)
		return nil
	case reflect.Slice:
		var n int32
		if err := dec.ReadInt32(&n); err != nil {
			return err
		}
		if n < 0 {
			fv.Set(reflect.Zero(fv.Type()))
			return nil
		}
		if max := dec.ec.MaxArrayLength(); max > 0 && uint32(n) > max {
			return BadEncodingLimitsExceeded
		}
		s := reflect.MakeSlice(fv.Type(), int(n), int(n))
		for i := 0; i < int(n); i++ {
			if err := dec.decodeValue(s.Index(i)); err != nil {
				return err
			}
		}
		fv.Set(s)
		return nil
	case reflect.Struct:
		for i := 0; i < fv.NumField(); i++ {
			if err := dec.decodeValue(fv.Field(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Interface:
		v, err := dec.ReadExtensionObject()
		if err != nil {
			return err
		}
		if v != nil {
			fv.Set(reflect.ValueOf(v))
		}
		return nil
	default:
		return BadDecodingError
	}
}

func (dec *BinaryDecoder) read(p []byte) error {
	if _, err := io.ReadFull(dec.r, p); err != nil {
		return BadDecodingError
	}
	return nil
}

func (dec *BinaryDecoder) readInt(bits int) (int64, error) {
	switch bits {
	case 8:
		var v int8
		err := dec.ReadSByte(&v)
		return int64(v), err
	case 16:
		var v int16
		err := dec.ReadInt16(&v)
		return int64(v), err
	case 32:
		var v int32
		err := dec.ReadInt32(&v)
		return int64(v), err
	default:
		var v int64
		err := dec.ReadInt64(&v)
		return v, err
	}
}

func (dec *BinaryDecoder) readUint(bits int) (uint64, error) {
	switch bits {
	case 8:
		var v byte
		err := dec.ReadByte(&v)
		return uint64(v), err
	case 16:
		var v uint16
		err := dec.ReadUInt16(&v)
		return uint64(v), err
	case 32:
		var v uint32
		err := dec.ReadUInt32(&v)
		return uint64(v), err
	default:
		var v uint64
		err := dec.ReadUInt64(&v)
		return v, err
	}
}

// ReadBoolean reads a bool.
func (dec *BinaryDecoder) ReadBoolean(value *bool) error {
	if err := dec.read(dec.buf[:1]); err != nil {
		return err
	}
	*value = dec.buf[0] != 0
	return nil
}

// ReadSByte reads an int8.
func (dec *BinaryDecoder) ReadSByte(value *int8) error {
	if err := dec.read(dec.buf[:1]); err != nil {
		return err
	}
	*value = int8(dec.buf[0])
	return nil
}

// ReadByte reads a byte.
func (dec *BinaryDecoder) ReadByte(value *byte) error {
	if err := dec.read(dec.buf[:1]); err != nil {
		return err
	}
	*value = dec.buf[0]
	return nil
}

// ReadInt16 reads an int16.
func (dec *BinaryDecoder) ReadInt16(value *int16) error {
	if err := dec.read(dec.buf[:2]); err != nil {
		return err
	}
	*value = int16(binary.LittleEndian.Uint16(dec.buf[:2]))
	return nil
}

// ReadUInt16 reads a uint16.
func (dec *BinaryDecoder) ReadUInt16(value *uint16) error {
	if err := dec.read(dec.buf[:2]); err != nil {
		return err
	}
	*value = binary.LittleEndian.Uint16(dec.buf[:2])
	return nil
}

// ReadInt32 reads an int32.
func (dec *BinaryDecoder) ReadInt32(value *int32) error {
	if err := dec.read(dec.buf[:4]); err != nil {
		return err
	}
	*value = int32(binary.LittleEndian.Uint32(dec.buf[:4]))
	return nil
}

// ReadUInt32 reads a uint32.
func (dec *BinaryDecoder) ReadUInt32(value *uint32) error {
	if err := dec.read(dec.buf[:4]); err != nil {
		return err
	}
	*value = binary.LittleEndian.Uint32(dec.buf[:4])
	return nil
}

// ReadInt64 reads an int64.
func (dec *BinaryDecoder) ReadInt64(value *int64) error {
	if err := dec.read(dec.buf[:8]); err != nil {
		return err
	}
	*value = int64(binary.LittleEndian.Uint64(dec.buf[:8]))
	return nil
}

// ReadUInt64 reads a uint64.
func (dec *BinaryDecoder) ReadUInt64(value *uint64) error {
	if err := dec.read(dec.buf[:8]); err != nil {
		return err
	}
	*value = binary.LittleEndian.Uint64(dec.buf[:8])
	return nil
}

// ReadFloat reads a float32.
func (dec *BinaryDecoder) ReadFloat(value *float32) error {
	if err := dec.read(dec.buf[:4]); err != nil {
		return err
	}
	*value = math.Float32frombits(binary.LittleEndian.Uint32(dec.buf[:4]))
	return nil
}

// ReadDouble reads a float64.
func (dec *BinaryDecoder) ReadDouble(value *float64) error {
	if err := dec.read(dec.buf[:8]); err != nil {
		return err
	}
	*value = math.Float64frombits(binary.LittleEndian.Uint64(dec.buf[:8]))
	return nil
}

// ReadString reads a length-prefixed string.
func (dec *BinaryDecoder) ReadString(value *string) error {
	var n int32
	if err := dec.ReadInt32(&n); err != nil {
		return err
	}
	if n <= 0 {
		*value = ""
		return nil
	}
	if max := dec.ec.MaxStringLength(); max > 0 && uint32(n) > max {
		return BadEncodingLimitsExceeded
	}
	b := make([]byte, n)
	if err := dec.read(b); err != nil {
		return err
	}
	*value = string(b)
	return nil
}

// ReadByteString reads a length-prefixed byte string.
func (dec *BinaryDecoder) ReadByteString(value *ByteString) error {
	var n int32
	if err := dec.ReadInt32(&n); err != nil {
		return err
	}
	if n <= 0 {
		*value = ""
		return nil
	}
	if max := dec.ec.MaxByteStringLength(); max > 0 && uint32(n) > max {
		return BadEncodingLimitsExceeded
	}
	b := make([]byte, n)
	if err := dec.read(b); err != nil {
		return err
	}
	*value = ByteString(b)
	return nil
}

// ReadDateTime reads a time encoded as 100ns ticks since 1601.
func (dec *BinaryDecoder) ReadDateTime(value *time.Time) error {
	var ticks int64
	if err := dec.ReadInt64(&ticks); err != nil {
		return err
	}
	if ticks <= 0 {
		*value = time.Time{}
		return nil
	}
	*value = time.Unix(ticks/10000000-dateTimeEpochDelta, (ticks%10000000)*100).UTC()
	return nil
}

// ReadGUID reads a GUID.
func (dec *BinaryDecoder) ReadGUID(value *uuid.UUID) error {
	if err := dec.read(dec.buf[:16]); err != nil {
		return err
	}
	var g uuid.UUID
	g[0] = dec.buf[3]
	g[1] = dec.buf[2]
	g[2] = dec.buf[1]
	g[3] = dec.buf[0]
	g[4] = dec.buf[5]
	g[5] = dec.buf[4]
	g[6] = dec.buf[7]
	g[7] = dec.buf[6]
	copy(g[8:16], dec.buf[8:16])
	*value = g
	return nil
}

// ReadStatusCode reads a StatusCode.
func (dec *BinaryDecoder) ReadStatusCode(value *StatusCode) error {
	var v uint32
	if err := dec.ReadUInt32(&v); err != nil {
		return err
	}
	*value = StatusCode(v)
	return nil
}

// ReadNodeID reads a NodeID.
func (dec *BinaryDecoder) ReadNodeID(value *NodeID) error {
	var b byte
	if err := dec.ReadByte(&b); err != nil {
		return err
	}
	n, err := dec.readNodeIDBody(b & 0x3F)
	if err != nil {
		return err
	}
	*value = n
	return nil
}

func (dec *BinaryDecoder) readNodeIDBody(form byte) (NodeID, error) {
	switch form {
	case 0x00:
		var id byte
		if err := dec.ReadByte(&id); err != nil {
			return nil, err
		}
		return NewNodeIDNumeric(0, uint32(id)), nil
	case 0x01:
		var ns byte
		var id uint16
		if err := dec.ReadByte(&ns); err != nil {
			return nil, err
		}
		if err := dec.ReadUInt16(&id); err != nil {
			return nil, err
		}
		return NewNodeIDNumeric(uint16(ns), uint32(id)), nil
	case 0x02:
		var ns uint16
		var id uint32
		if err := dec.ReadUInt16(&ns); err != nil {
			return nil, err
		}
		if err := dec.ReadUInt32(&id); err != nil {
			return nil, err
		}
		return NewNodeIDNumeric(ns, id), nil
	case 0x03:
		var ns uint16
		var id string
		if err := dec.ReadUInt16(&ns); err != nil {
			return nil, err
		}
		if err := dec.ReadString(&id); err != nil {
			return nil, err
		}
		return NewNodeIDString(ns, id), nil
	case 0x04:
		var ns uint16
		var id uuid.UUID
		if err := dec.ReadUInt16(&ns); err != nil {
			return nil, err
		}
		if err := dec.ReadGUID(&id); err != nil {
			return nil, err
		}
		return NewNodeIDGUID(ns, id), nil
	case 0x05:
		var ns uint16
		var id ByteString
		if err := dec.ReadUInt16(&ns); err != nil {
			return nil, err
		}
		if err := dec.ReadByteString(&id); err != nil {
			return nil, err
		}
		return NewNodeIDOpaque(ns, id), nil
	default:
		return nil, BadDecodingError
	}
}

// ReadExpandedNodeID reads an ExpandedNodeID.
func (dec *BinaryDecoder) ReadExpandedNodeID(value *ExpandedNodeID) error {
	var b byte
	if err := dec.ReadByte(&b); err != nil {
		return err
	}
	n, err := dec.readNodeIDBody(b & 0x3F)
	if err != nil {
		return err
	}
	var e ExpandedNodeID
	e.NodeID = n
	if b&0x80 != 0 {
		if err := dec.ReadString(&e.NamespaceURI); err != nil {
			return err
		}
	}
	if b&0x40 != 0 {
		if err := dec.ReadUInt32(&e.ServerIndex); err != nil {
			return err
		}
	}
	*value = e
	return nil
}

// ReadQualifiedName reads a QualifiedName.
func (dec *BinaryDecoder) ReadQualifiedName(value *QualifiedName) error {
	var q QualifiedName
	if err := dec.ReadUInt16(&q.NamespaceIndex); err != nil {
		return err
	}
	if err := dec.ReadString(&q.Name); err != nil {
		return err
	}
	*value = q
	return nil
}

// ReadLocalizedText reads a LocalizedText.
func (dec *BinaryDecoder) ReadLocalizedText(value *LocalizedText) error {
	var mask byte
	if err := dec.ReadByte(&mask); err != nil {
		return err
	}
	var t LocalizedText
	if mask&0x01 != 0 {
		if err := dec.ReadString(&t.Locale); err != nil {
			return err
		}
	}
	if mask&0x02 != 0 {
		if err := dec.ReadString(&t.Text); err != nil {
			return err
		}
	}
	*value = t
	return nil
}

// ReadDataValue reads a DataValue.
func (dec *BinaryDecoder) ReadDataValue(value *DataValue) error {
	var mask byte
	if err := dec.ReadByte(&mask); err != nil {
		return err
	}
	var dv DataValue
	var err error
	if mask&0x01 != 0 {
		if dv.Value, err = dec.ReadVariant(); err != nil {
			return err
		}
	}
	if mask&0x02 != 0 {
		if err = dec.ReadStatusCode(&dv.StatusCode); err != nil {
			return err
		}
	}
	if mask&0x04 != 0 {
		if err = dec.ReadDateTime(&dv.SourceTimestamp); err != nil {
			return err
		}
	}
	if mask&0x10 != 0 {
		if err = dec.ReadUInt16(&dv.SourcePicoseconds); err != nil {
			return err
		}
	}
	if mask&0x08 != 0 {
		if err = dec.ReadDateTime(&dv.ServerTimestamp); err != nil {
			return err
		}
	}
	if mask&0x20 != 0 {
		if err = dec.ReadUInt16(&dv.ServerPicoseconds); err != nil {
			return err
		}
	}
	*value = dv
	return nil
}

var variantGoTypes = map[VariantType]reflect.Type{
	VariantTypeBoolean:         reflect.TypeOf(false),
	VariantTypeSByte:           reflect.TypeOf(int8(0)),
	VariantTypeByte:            reflect.TypeOf(byte(0)),
	VariantTypeInt16:           reflect.TypeOf(int16(0)),
	VariantTypeUInt16:          reflect.TypeOf(uint16(0)),
	VariantTypeInt32:           reflect.TypeOf(int32(0)),
	VariantTypeUInt32:          reflect.TypeOf(uint32(0)),
	VariantTypeInt64:           reflect.TypeOf(int64(0)),
	VariantTypeUInt64:          reflect.TypeOf(uint64(0)),
	VariantTypeFloat:           reflect.TypeOf(float32(0)),
	VariantTypeDouble:          reflect.TypeOf(float64(0)),
	VariantTypeString:          reflect.TypeOf(""),
	VariantTypeDateTime:        reflect.TypeOf(time.Time{}),
	VariantTypeGUID:            reflect.TypeOf(uuid.UUID{}),
	VariantTypeByteString:      reflect.TypeOf(ByteString("")),
	VariantTypeNodeID:          typeNodeID,
	VariantTypeExpandedNodeID:  reflect.TypeOf(ExpandedNodeID{}),
	VariantTypeStatusCode:      reflect.TypeOf(StatusCode(0)),
	VariantTypeQualifiedName:   reflect.TypeOf(QualifiedName{}),
	VariantTypeLocalizedText:   reflect.TypeOf(LocalizedText{}),
	VariantTypeExtensionObject: typeExtensionObject,
	VariantTypeDataValue:       reflect.TypeOf(DataValue{}),
	VariantTypeVariant:         typeVariant,
}

// ReadVariant reads a Variant.
func (dec *BinaryDecoder) ReadVariant() (Variant, error) {
	var tag byte
	if err := dec.ReadByte(&tag); err != nil {
		return nil, err
	}
	t := VariantType(tag & 0x3F)
	if t == VariantTypeNull {
		return nil, nil
	}
	if tag&VariantArrayValues == 0 {
		return dec.readVariantValue(t)
	}
	var n int32
	if err := dec.ReadInt32(&n); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	if max := dec.ec.MaxArrayLength(); max > 0 && uint32(n) > max {
		return nil, BadEncodingLimitsExceeded
	}
	elem, ok := variantGoTypes[t]
	if !ok {
		return nil, BadDecodingError
	}
	arr := reflect.MakeSlice(reflect.SliceOf(elem), int(n), int(n))
	for i := 0; i < int(n); i++ {
		v, err := dec.readVariantValue(t)
		if err != nil {
			return nil, err
		}
		if v != nil {
			arr.Index(i).Set(reflect.ValueOf(v))
		}
	}
	if tag&VariantArrayDimensions != 0 {
		var dims []int32
		if err := dec.decodeValue(reflect.ValueOf(&dims).Elem()); err != nil {
			return nil, err
		}
	}
	return arr.Interface(), nil
}

func (dec *BinaryDecoder) readVariantValue(t VariantType) (any, error) {
	switch t {
	case VariantTypeBoolean:
		var v bool
		err := dec.ReadBoolean(&v)
		return v, err
	case VariantTypeSByte:
		var v int8
		err := dec.ReadSByte(&v)
		return v, err
	case VariantTypeByte:
		var v byte
		err := dec.ReadByte(&v)
		return v, err
	case VariantTypeInt16:
		var v int16
		err := dec.ReadInt16(&v)
		return v, err
	case VariantTypeUInt16:
		var v uint16
		err := dec.ReadUInt16(&v)
		return v, err
	case VariantTypeInt32:
		var v int32
		err := dec.ReadInt32(&v)
		return v, err
	case VariantTypeUInt32:
		var v uint32
		err := dec.ReadUInt32(&v)
		return v, err
	case VariantTypeInt64:
		var v int64
		err := dec.ReadInt64(&v)
		return v, err
	case VariantTypeUInt64:
		var v uint64
		err := dec.ReadUInt64(&v)
		return v, err
	case VariantTypeFloat:
		var v float32
		err := dec.ReadFloat(&v)
		return v, err
	case VariantTypeDouble:
		var v float64
		err := dec.ReadDouble(&v)
		return v, err
	case VariantTypeString:
		var v string
		err := dec.ReadString(&v)
		return v, err
	case VariantTypeDateTime:
		var v time.Time
		err := dec.ReadDateTime(&v)
		return v, err
	case VariantTypeGUID:
		var v uuid.UUID
		err := dec.ReadGUID(&v)
		return v, err
	case VariantTypeByteString:
		var v ByteString
		err := dec.ReadByteString(&v)
		return v, err
	case VariantTypeNodeID:
		var v NodeID
		err := dec.ReadNodeID(&v)
		return v, err
	case VariantTypeExpandedNodeID:
		var v ExpandedNodeID
		err := dec.ReadExpandedNodeID(&v)
		return v, err
	case VariantTypeStatusCode:
		var v StatusCode
		err := dec.ReadStatusCode(&v)
		return v, err
	case VariantTypeQualifiedName:
		var v QualifiedName
		err := dec.ReadQualifiedName(&v)
		return v, err
	case VariantTypeLocalizedText:
		var v LocalizedText
		err := dec.ReadLocalizedText(&v)
		return v, err
	case VariantTypeExtensionObject:
		return dec.ReadExtensionObject()
	case VariantTypeDataValue:
		var v DataValue
		err := dec.ReadDataValue(&v)
		return v, err
	case VariantTypeVariant:
		return dec.ReadVariant()
	default:
		return nil, BadDecodingError
	}
}

// ReadExtensionObject reads a registered structure. An unknown binary
// encoding id is skipped and yields nil.
func (dec *BinaryDecoder) ReadExtensionObject() (ExtensionObject, error) {
	var id NodeID
	if err := dec.ReadNodeID(&id); err != nil {
		return nil, err
	}
	var encoding byte
	if err := dec.ReadByte(&encoding); err != nil {
		return nil, err
	}
	switch encoding {
	case 0x00:
		return nil, nil
	case 0x01:
		var body ByteString
		if err := dec.ReadByteString(&body); err != nil {
			return nil, err
		}
		typ, ok := FindTypeForBinaryEncodingID(id)
		if !ok {
			return nil, nil
		}
		instance := reflect.New(typ)
		sub := NewBinaryDecoder(bytes.NewReader([]byte(body)), dec.ec)
		if err := sub.Decode(instance.Interface()); err != nil {
			return nil, err
		}
		return instance.Interface(), nil
	case 0x02:
		var body ByteString
		if err := dec.ReadByteString(&body); err != nil {
			return nil, err
		}
		return nil, nil
	default:
		return nil, BadDecodingError
	}
}

// ReadDiagnosticInfo reads a DiagnosticInfo.
func (dec *BinaryDecoder) ReadDiagnosticInfo(value *DiagnosticInfo) error {
	var mask byte
	if err := dec.ReadByte(&mask); err != nil {
		return err
	}
	var di DiagnosticInfo
	if mask&0x01 != 0 {
		var v int32
		if err := dec.ReadInt32(&v); err != nil {
			return err
		}
		di.SymbolicID = &v
	}
	if mask&0x02 != 0 {
		var v int32
		if err := dec.ReadInt32(&v); err != nil {
			return err
		}
		di.NamespaceURI = &v
	}
	if mask&0x08 != 0 {
		var v int32
		if err := dec.ReadInt32(&v); err != nil {
			return err
		}
		di.Locale = &v
	}
	if mask&0x04 != 0 {
		var v int32
		if err := dec.ReadInt32(&v); err != nil {
			return err
		}
		di.LocalizedText = &v
	}
	if mask&0x10 != 0 {
		var v string
		if err := dec.ReadString(&v); err != nil {
			return err
		}
		di.AdditionalInfo = &v
	}
	if mask&0x20 != 0 {
		var v StatusCode
		if err := dec.ReadStatusCode(&v); err != nil {
			return err
		}
		di.InnerStatusCode = &v
	}
	if mask&0x40 != 0 {
		var v DiagnosticInfo
		if err := dec.ReadDiagnosticInfo(&v); err != nil {
			return err
		}
		di.InnerDiagnosticInfo = &v
	}
	*value = di
	return nil
}
