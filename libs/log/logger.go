package log

const (
	// LogFormatPlain defines a logging format used for human-readable text-based
	// logging that is not structured.
	LogFormatPlain string = "plain"

	// LogFormatText is an alias of LogFormatPlain.
	LogFormatText string = "text"

	// LogFormatJSON defines a logging format for structured JSON-based logging.
	LogFormatJSON string = "json"

	// Supported logging levels
	LogLevelTrace = "trace"
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Logger defines a generic logging interface compatible with nodesync. Key/value
// pairs are passed as alternating arguments after the message.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})

	With(keyvals ...interface{}) Logger
}
