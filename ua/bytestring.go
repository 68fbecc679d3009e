package ua

// ByteString is an opaque sequence of bytes. It is declared as a string so
// values are immutable and usable as map keys.
type ByteString string
