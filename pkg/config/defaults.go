package config

// Tree defaults.
const (
	DefaultDeleteMode           = "plain"
	DefaultHibernationThreshold = 0
)

// Render defaults.
const (
	DefaultIndent = 10
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = LogFormatText
)

// Telemetry defaults.
const (
	DefaultOTLPEndpoint = ""
	DefaultOTLPInsecure = false
	DefaultMetricsAddr  = ""
)
