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

// BinaryEncoder encodes values in the OPC UA binary format, little-endian.
// Service structs without an explicit fast path are encoded by walking
// their fields with reflection.
type BinaryEncoder struct {
	w   io.Writer
	ec  EncodingContext
	buf [16]byte
}

// NewBinaryEncoder returns an encoder that writes to w.
func NewBinaryEncoder(w io.Writer, ec EncodingContext) *BinaryEncoder {
	return &BinaryEncoder{w: w, ec: ec}
}

var (
	typeVariant         = reflect.TypeOf((*Variant)(nil)).Elem()
	typeExtensionObject = reflect.TypeOf((*ExtensionObject)(nil)).Elem()
	typeNodeID          = reflect.TypeOf((*NodeID)(nil)).Elem()
)

// Encode writes any supported value.
func (enc *BinaryEncoder) Encode(value any) error {
	switch v := value.(type) {
	case bool:
		return enc.WriteBoolean(v)
	case int8:
		return enc.WriteSByte(v)
	case byte:
		return enc.WriteByte(v)
	case int16:
		return enc.WriteInt16(v)
	case uint16:
		return enc.WriteUInt16(v)
	case int32:
		return enc.WriteInt32(v)
	case uint32:
		return enc.WriteUInt32(v)
	case int64:
		return enc.WriteInt64(v)
	case uint64:
		return enc.WriteUInt64(v)
	case float32:
		return enc.WriteFloat(v)
	case float64:
		return enc.WriteDouble(v)
	case string:
		return enc.WriteString(v)
	case time.Time:
		return enc.WriteDateTime(v)
	case uuid.UUID:
		return enc.WriteGUID(v)
	case ByteString:
		return enc.WriteByteString(v)
	case StatusCode:
		return enc.WriteStatusCode(v)
	case NodeID:
		return enc.WriteNodeID(v)
	case ExpandedNodeID:
		return enc.WriteExpandedNodeID(v)
	case QualifiedName:
		return enc.WriteQualifiedName(v)
	case LocalizedText:
		return enc.WriteLocalizedText(v)
	case DataValue:
		return enc.WriteDataValue(v)
	case DiagnosticInfo:
		return enc.WriteDiagnosticInfo(v)
	default:
		return enc.encodeReflect(reflect.ValueOf(value))
	}
}

func (enc *BinaryEncoder) encodeReflect(rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return BadEncodingError
		}
		return enc.encodeReflect(rv.Elem())
	case reflect.Struct:
		for i := 0; i < rv.NumField(); i++ {
			if err := enc.encodeValue(rv.Field(i)); err != nil {
				return err
			}
		}
		return nil
	default:
		return enc.encodeValue(rv)
	}
}

func (enc *BinaryEncoder) encodeValue(fv reflect.Value) error {
	switch fv.Type() {
	case typeVariant:
		return enc.WriteVariant(fv.Interface())
	case typeExtensionObject:
		return enc.WriteExtensionObject(fv.Interface())
	}
	if fv.Type().Implements(typeNodeID) || fv.Type() == typeNodeID {
		if fv.Kind() == reflect.Interface && fv.IsNil() {
			return enc.WriteNodeID(NilNodeID)
		}
		return enc.WriteNodeID(fv.Interface().(NodeID))
	}
	switch v := fv.Interface().(type) {
	case time.Time:
		return enc.WriteDateTime(v)
	case uuid.UUID:
		return enc.WriteGUID(v)
	case ByteString:
		return enc.WriteByteString(v)
	case StatusCode:
		return enc.WriteStatusCode(v)
	case ExpandedNodeID:
		return enc.WriteExpandedNodeID(v)
	case QualifiedName:
		return enc.WriteQualifiedName(v)
	case LocalizedText:
		return enc.WriteLocalizedText(v)
	case DataValue:
		return enc.WriteDataValue(v)
	case DiagnosticInfo:
		return enc.WriteDiagnosticInfo(v)
	}
	switch fv.Kind() {
	case reflect.Bool:
		return enc.WriteBoolean(fv.Bool())
	case reflect.Int8:
		return enc.WriteSByte(int8(fv.Int()))
	case reflect.Int16:
		return enc.WriteInt16(int16(fv.Int()))
	case reflect.Int32:
		return enc.WriteInt32(int32(fv.Int()))
	case reflect.Int64:
		return enc.WriteInt64(fv.Int())
	case reflect.Uint8:
		return enc.WriteByte(byte(fv.Uint()))
	case reflect.Uint16:
		return enc.WriteUInt16(uint16(fv.Uint()))
	case reflect.Uint32:
		return enc.WriteUInt32(uint32(fv.Uint()))
	case reflect.Uint64:
		return enc.WriteUInt64(fv.Uint())
	case reflect.Float32:
		return enc.WriteFloat(float32(fv.Float()))
	case reflect.Float64:
		return enc.WriteDouble(fv.Float())
	case reflect.String:
		return enc.WriteString(fv.String())
	case reflect.Slice:
		if fv.IsNil() {
			return enc.WriteInt32(-1)
		}
		n := fv.Len()
		if err := enc.WriteInt32(int32(n)); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := enc.encodeValue(fv.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
		return enc.encodeReflect(fv)
	case reflect.Ptr:
		return enc.encodeReflect(fv)
	case reflect.Interface:
		return enc.WriteExtensionObject(fv.Interface())
	default:
		return BadEncodingError
	}
}

func (enc *BinaryEncoder) write(p []byte) error {
	if _, err := enc.w.Write(p); err != nil {
		return BadEncodingError
	}
	return nil
}

// WriteBoolean writes a bool as one byte.
func (enc *BinaryEncoder) WriteBoolean(value bool) error {
	if value {
		enc.buf[0] = 1
	} else {
		enc.buf[0] = 0
	}
	return enc.write(enc.buf[:1])
}

// WriteSByte writes an int8.
func (enc *BinaryEncoder) WriteSByte(value int8) error {
	enc.buf[0] = byte(value)
	return enc.write(enc.buf[:1])
}

// WriteByte writes a byte.
func (enc *BinaryEncoder) WriteByte(value byte) error {
	enc.buf[0] = value
	return enc.write(enc.buf[:1])
}

// WriteInt16 writes an int16.
func (enc *BinaryEncoder) WriteInt16(value int16) error {
	binary.LittleEndian.PutUint16(enc.buf[:2], uint16(value))
	return enc.write(enc.buf[:2])
}

// WriteUInt16 writes a uint16.
func (enc *BinaryEncoder) WriteUInt16(value uint16) error {
	binary.LittleEndian.PutUint16(enc.buf[:2], value)
	return enc.write(enc.buf[:2])
}

// WriteInt32 writes an int32.
func (enc *BinaryEncoder) WriteInt32(value int32) error {
	binary.LittleEndian.PutUint32(enc.buf[:4], uint32(value))
	return enc.write(enc.buf[:4])
}

// WriteUInt32 writes a uint32.
func (enc *BinaryEncoder) WriteUInt32(value uint32) error {
	binary.LittleEndian.PutUint32(enc.buf[:4], value)
	return enc.write(enc.buf[:4])
}

// WriteInt64 writes an int64.
func (enc *BinaryEncoder) WriteInt64(value int64) error {
	binary.LittleEndian.PutUint64(enc.buf[:8], uint64(value))
	return enc.write(enc.buf[:8])
}

// WriteUInt64 writes a uint64.
func (enc *BinaryEncoder) WriteUInt64(value uint64) error {
	binary.LittleEndian.PutUint64(enc.buf[:8], value)
	return enc.write(enc.buf[:8])
}

// WriteFloat writes a float32.
func (enc *BinaryEncoder) WriteFloat(value float32) error {
	binary.LittleEndian.PutUint32(enc.buf[:4], math.Float32bits(value))
	return enc.write(enc.buf[:4])
}

// WriteDouble writes a float64.
func (enc *BinaryEncoder) WriteDouble(value float64) error {
	binary.LittleEndian.PutUint64(enc.buf[:8], math.Float64bits(value))
	return enc.write(enc.buf[:8])
}

// WriteString writes a length-prefixed string, -1 for empty.
func (enc *BinaryEncoder) WriteString(value string) error {
	if len(value) == 0 {
		return enc.WriteInt32(-1)
	}
	if err := enc.WriteInt32(int32(len(value))); err != nil {
		return err
	}
	return enc.write([]byte(value))
}

// WriteByteString writes a length-prefixed byte string, -1 for empty.
func (enc *BinaryEncoder) WriteByteString(value ByteString) error {
	if len(value) == 0 {
		return enc.WriteInt32(-1)
	}
	if err := enc.WriteInt32(int32(len(value))); err != nil {
		return err
	}
	return enc.write([]byte(value))
}

// epoch delta between 1601-01-01 and 1970-01-01, in seconds.
const dateTimeEpochDelta int64 = 11644473600

// WriteDateTime writes a time as 100ns ticks since 1601.
func (enc *BinaryEncoder) WriteDateTime(value time.Time) error {
	if value.IsZero() {
		return enc.WriteInt64(0)
	}
	ticks := (value.Unix()+dateTimeEpochDelta)*10000000 + int64(value.Nanosecond())/100
	if ticks < 0 {
		ticks = 0
	}
	return enc.WriteInt64(ticks)
}

// WriteGUID writes a GUID with the first eight bytes in field order.
func (enc *BinaryEncoder) WriteGUID(value uuid.UUID) error {
	enc.buf[0] = value[3]
	enc.buf[1] = value[2]
	enc.buf[2] = value[1]
	enc.buf[3] = value[0]
	enc.buf[4] = value[5]
	enc.buf[5] = value[4]
	enc.buf[6] = value[7]
	enc.buf[7] = value[6]
	copy(enc.buf[8:16], value[8:16])
	return enc.write(enc.buf[:16])
}

// WriteStatusCode writes a StatusCode.
func (enc *BinaryEncoder) WriteStatusCode(value StatusCode) error {
	return enc.WriteUInt32(uint32(value))
}

// WriteNodeID writes a NodeID in its most compact wire form.
func (enc *BinaryEncoder) WriteNodeID(value NodeID) error {
	if value == nil {
		value = NilNodeID
	}
	switch n := value.(type) {
	case NodeIDNumeric:
		switch {
		case n.NamespaceIndex == 0 && n.ID <= 255:
			enc.buf[0] = 0x00
			enc.buf[1] = byte(n.ID)
			return enc.write(enc.buf[:2])
		case n.NamespaceIndex <= 255 && n.ID <= 65535:
			enc.buf[0] = 0x01
			enc.buf[1] = byte(n.NamespaceIndex)
			binary.LittleEndian.PutUint16(enc.buf[2:4], uint16(n.ID))
			return enc.write(enc.buf[:4])
		default:
			enc.buf[0] = 0x02
			binary.LittleEndian.PutUint16(enc.buf[1:3], n.NamespaceIndex)
			binary.LittleEndian.PutUint32(enc.buf[3:7], n.ID)
			return enc.write(enc.buf[:7])
		}
	case NodeIDString:
		enc.buf[0] = 0x03
		binary.LittleEndian.PutUint16(enc.buf[1:3], n.NamespaceIndex)
		if err := enc.write(enc.buf[:3]); err != nil {
			return err
		}
		return enc.WriteString(n.ID)
	case NodeIDGUID:
		enc.buf[0] = 0x04
		binary.LittleEndian.PutUint16(enc.buf[1:3], n.NamespaceIndex)
		if err := enc.write(enc.buf[:3]); err != nil {
			return err
		}
		return enc.WriteGUID(n.ID)
	case NodeIDOpaque:
		enc.buf[0] = 0x05
		binary.LittleEndian.PutUint16(enc.buf[1:3], n.NamespaceIndex)
		if err := enc.write(enc.buf[:3]); err != nil {
			return err
		}
		return enc.WriteByteString(n.ID)
	default:
		return BadEncodingError
	}
}

// WriteExpandedNodeID writes an ExpandedNodeID.
func (enc *BinaryEncoder) WriteExpandedNodeID(value ExpandedNodeID) error {
	var b bytes.Buffer
	sub := NewBinaryEncoder(&b, enc.ec)
	id := value.NodeID
	if id == nil {
		id = NilNodeID
	}
	if err := sub.WriteNodeID(id); err != nil {
		return err
	}
	encoded := b.Bytes()
	if len(value.NamespaceURI) > 0 {
		encoded[0] |= 0x80
	}
	if value.ServerIndex > 0 {
		encoded[0] |= 0x40
	}
	if err := enc.write(encoded); err != nil {
		return err
	}
	if len(value.NamespaceURI) > 0 {
		if err := enc.WriteString(value.NamespaceURI); err != nil {
			return err
		}
	}
	if value.ServerIndex > 0 {
		return enc.WriteUInt32(value.ServerIndex)
	}
	return nil
}

// WriteQualifiedName writes a QualifiedName.
func (enc *BinaryEncoder) WriteQualifiedName(value QualifiedName) error {
	if err := enc.WriteUInt16(value.NamespaceIndex); err != nil {
		return err
	}
	return enc.WriteString(value.Name)
}

// WriteLocalizedText writes a LocalizedText.
func (enc *BinaryEncoder) WriteLocalizedText(value LocalizedText) error {
	var mask byte
	if len(value.Locale) > 0 {
		mask |= 0x01
	}
	if len(value.Text) > 0 {
		mask |= 0x02
	}
	if err := enc.WriteByte(mask); err != nil {
		return err
	}
	if mask&0x01 != 0 {
		if err := enc.WriteString(value.Locale); err != nil {
			return err
		}
	}
	if mask&0x02 != 0 {
		return enc.WriteString(value.Text)
	}
	return nil
}

// WriteDataValue writes a DataValue with a presence mask.
func (enc *BinaryEncoder) WriteDataValue(value DataValue) error {
	var mask byte
	if value.Value != nil {
		mask |= 0x01
	}
	if value.StatusCode != Good {
		mask |= 0x02
	}
	if !value.SourceTimestamp.IsZero() {
		mask |= 0x04
	}
	if !value.ServerTimestamp.IsZero() {
		mask |= 0x08
	}
	if value.SourcePicoseconds > 0 {
		mask |= 0x10
	}
	if value.ServerPicoseconds > 0 {
		mask |= 0x20
	}
	if err := enc.WriteByte(mask); err != nil {
		return err
	}
	if mask&0x01 != 0 {
		if err := enc.WriteVariant(value.Value); err != nil {
			return err
		}
	}
	if mask&0x02 != 0 {
		if err := enc.WriteStatusCode(value.StatusCode); err != nil {
			return err
		}
	}
	if mask&0x04 != 0 {
		if err := enc.WriteDateTime(value.SourceTimestamp); err != nil {
			return err
		}
	}
	if mask&0x10 != 0 {
		if err := enc.WriteUInt16(value.SourcePicoseconds); err != nil {
			return err
		}
	}
	if mask&0x08 != 0 {
		if err := enc.WriteDateTime(value.ServerTimestamp); err != nil {
			return err
		}
	}
	if mask&0x20 != 0 {
		if err := enc.WriteUInt16(value.ServerPicoseconds); err != nil {
			return err
		}
	}
	return nil
}

// WriteVariant writes a Variant with its type tag.
func (enc *BinaryEncoder) WriteVariant(value Variant) error {
	if value == nil {
		return enc.WriteByte(0)
	}
	t := VariantTypeOf(value)
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice {
		if err := enc.WriteByte(byte(t) | VariantArrayValues); err != nil {
			return err
		}
		n := rv.Len()
		if err := enc.WriteInt32(int32(n)); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := enc.writeVariantValue(t, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	}
	if err := enc.WriteByte(byte(t)); err != nil {
		return err
	}
	return enc.writeVariantValue(t, value)
}

func (enc *BinaryEncoder) writeVariantValue(t VariantType, value any) error {
	switch v := value.(type) {
	case bool:
		return enc.WriteBoolean(v)
	case int8:
		return enc.WriteSByte(v)
	case byte:
		return enc.WriteByte(v)
	case int16:
		return enc.WriteInt16(v)
	case uint16:
		return enc.WriteUInt16(v)
	case int32:
		return enc.WriteInt32(v)
	case uint32:
		return enc.WriteUInt32(v)
	case int64:
		return enc.WriteInt64(v)
	case uint64:
		return enc.WriteUInt64(v)
	case float32:
		return enc.WriteFloat(v)
	case float64:
		return enc.WriteDouble(v)
	case string:
		return enc.WriteString(v)
	case time.Time:
		return enc.WriteDateTime(v)
	case uuid.UUID:
		return enc.WriteGUID(v)
	case ByteString:
		return enc.WriteByteString(v)
	case NodeID:
		return enc.WriteNodeID(v)
	case ExpandedNodeID:
		return enc.WriteExpandedNodeID(v)
	case StatusCode:
		return enc.WriteStatusCode(v)
	case QualifiedName:
		return enc.WriteQualifiedName(v)
	case LocalizedText:
		return enc.WriteLocalizedText(v)
	case DataValue:
		return enc.WriteDataValue(v)
	default:
		if t == VariantTypeVariant {
			return enc.WriteVariant(v)
		}
		return enc.WriteExtensionObject(v)
	}
}

// WriteExtensionObject writes a registered structure with its binary
// encoding NodeID, or a null ExtensionObject for nil.
func (enc *BinaryEncoder) WriteExtensionObject(value ExtensionObject) error {
	if value == nil {
		if err := enc.WriteNodeID(NilNodeID); err != nil {
			return err
		}
		return enc.WriteByte(0x00)
	}
	typ := reflect.TypeOf(value)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	id, ok := FindBinaryEncodingIDForType(typ)
	if !ok {
		return BadEncodingError
	}
	var b bytes.Buffer
	sub := NewBinaryEncoder(&b, enc.ec)
	if err := sub.Encode(value); err != nil {
		return err
	}
	if err := enc.WriteNodeID(id); err != nil {
		return err
	}
	if err := enc.WriteByte(0x01); err != nil {
		return err
	}
	return enc.WriteByteString(ByteString(b.Bytes()))
}

// WriteDiagnosticInfo writes a DiagnosticInfo with a presence mask.
func (enc *BinaryEncoder) WriteDiagnosticInfo(value DiagnosticInfo) error {
	var mask byte
	if value.SymbolicID != nil {
		mask |= 0x01
	}
	if value.NamespaceURI != nil {
		mask |= 0x02
	}
	if value.LocalizedText != nil {
		mask |= 0x04
	}
	if value.Locale != nil {
		mask |= 0x08
	}
	if value.AdditionalInfo != nil {
		mask |= 0x10
	}
	if value.InnerStatusCode != nil {
		mask |= 0x20
	}
	if value.InnerDiagnosticInfo != nil {
		mask |= 0x40
	}
	if err := enc.WriteByte(mask); err != nil {
		return err
	}
	if value.SymbolicID != nil {
		if err := enc.WriteInt32(*value.SymbolicID); err != nil {
			return err
		}
	}
	if value.NamespaceURI != nil {
		if err := enc.WriteInt32(*value.NamespaceURI); err != nil {
			return err
		}
	}
	if value.Locale != nil {
		if err := enc.WriteInt32(*value.Locale); err != nil {
			return err
		}
	}
	if value.LocalizedText != nil {
		if err := enc.WriteInt32(*value.LocalizedText); err != nil {
			return err
		}
	}
	if value.AdditionalInfo != nil {
		if err := enc.WriteString(*value.AdditionalInfo); err != nil {
			return err
		}
	}
	if value.InnerStatusCode != nil {
		if err := enc.WriteStatusCode(*value.InnerStatusCode); err != nil {
			return err
		}
	}
	if value.InnerDiagnosticInfo != nil {
		return enc.WriteDiagnosticInfo(*value.InnerDiagnosticInfo)
	}
	return nil
}
