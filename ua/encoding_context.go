package ua

// EncodingContext supplies the limits the codec enforces while reading.
// A zero limit means unlimited.
type EncodingContext interface {
	MaxStringLength() uint32
	MaxByteStringLength() uint32
	MaxArrayLength() uint32
}

type defaultEncodingContext struct{}

func (defaultEncodingContext) MaxStringLength() uint32     { return 0 }
func (defaultEncodingContext) MaxByteStringLength() uint32 { return 0 }
func (defaultEncodingContext) MaxArrayLength() uint32      { return 0 }

// DefaultEncodingContext applies no limits.
var DefaultEncodingContext EncodingContext = defaultEncodingContext{}

// Limits is an EncodingContext with fixed limits.
type Limits struct {
	StringLength     uint32
	ByteStringLength uint32
	ArrayLength      uint32
}

func (l Limits) MaxStringLength() uint32     { return l.StringLength }
func (l Limits) MaxByteStringLength() uint32 { return l.ByteStringLength }
func (l Limits) MaxArrayLength() uint32      { return l.ArrayLength }
