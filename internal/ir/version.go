package ir

// Version constants for the event log format.
const (
	// LogVersion is the event log payload format version.
	LogVersion = "1"

	// ToolVersion is the prelude binary version.
	ToolVersion = "0.1.0"
)
