package logger

// Exported for white-box testing of the error chain formatter.
var (
	CollectMessages  = collectMessages
	FormatErrorChain = formatErrorChain
)
