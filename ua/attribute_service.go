package ua

// ReadValueID selects a node attribute to read or monitor.
type ReadValueID struct {
	NodeID       NodeID
	AttributeID  uint32
	IndexRange   string
	DataEncoding QualifiedName
}

// ReadRequest reads attribute values.
type ReadRequest struct {
	RequestHeader
	MaxAge             float64
	TimestampsToReturn TimestampsToReturn
	NodesToRead        []ReadValueID
}

// ReadResponse returns the values read.
type ReadResponse struct {
	ResponseHeader
	Results         []DataValue
	DiagnosticInfos []DiagnosticInfo
}

// WriteValue selects a node attribute and the value to write to it.
type WriteValue struct {
	NodeID      NodeID
	AttributeID uint32
	IndexRange  string
	Value       DataValue
}

// WriteRequest writes attribute values.
type WriteRequest struct {
	RequestHeader
	NodesToWrite []WriteValue
}

// WriteResponse returns per-operation write results.
type WriteResponse struct {
	ResponseHeader
	Results         []StatusCode
	DiagnosticInfos []DiagnosticInfo
}
