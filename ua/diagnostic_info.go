package ua

// DiagnosticInfo carries vendor diagnostics for an operation result. All
// fields are optional; the zero value encodes as a single empty byte.
type DiagnosticInfo struct {
	SymbolicID          *int32
	NamespaceURI        *int32
	Locale              *int32
	LocalizedText       *int32
	AdditionalInfo      *string
	InnerStatusCode     *StatusCode
	InnerDiagnosticInfo *DiagnosticInfo
}
