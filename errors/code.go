package errors

// ErrorCode identifies an application error independently of its HTTP status
type ErrorCode int32

const (
	ErrorCode_HTTP_OK ErrorCode = 0

	// General
	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_NOT_FOUND        ErrorCode = 1002
	ErrorCode_UNAUTHENTICATED  ErrorCode = 1003
	ErrorCode_INVALID_PAYLOAD  ErrorCode = 1004

	// Authentication
	ErrorCode_AUTH_INVALID_TOKEN  ErrorCode = 2000
	ErrorCode_AUTH_TOKEN_EXPIRED  ErrorCode = 2001
	ErrorCode_AUTH_INVALID_TICKET ErrorCode = 2002

	// Meeting statistics
	ErrorCode_STATS_INVALID_ACTION ErrorCode = 3000
	ErrorCode_STATS_UPDATE_FAILED  ErrorCode = 3001
	ErrorCode_STATS_FETCH_FAILED   ErrorCode = 3002

	// Integrations
	ErrorCode_INTEGRATION_STORAGE_FAILED ErrorCode = 4000
	ErrorCode_INTEGRATION_PUBSUB_FAILED  ErrorCode = 4001
	ErrorCode_INTEGRATION_WEBHOOK_FAILED ErrorCode = 4002

	// Database
	ErrorCode_DB_CONNECTION_FAILED ErrorCode = 5000
	ErrorCode_DB_QUERY_FAILED      ErrorCode = 5001
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                    "HTTP_OK",
	ErrorCode_INTERNAL:                   "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                  "NOT_FOUND",
	ErrorCode_UNAUTHENTICATED:            "UNAUTHENTICATED",
	ErrorCode_INVALID_PAYLOAD:            "INVALID_PAYLOAD",
	ErrorCode_AUTH_INVALID_TOKEN:         "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_TOKEN_EXPIRED:         "AUTH_TOKEN_EXPIRED",
	ErrorCode_AUTH_INVALID_TICKET:        "AUTH_INVALID_TICKET",
	ErrorCode_STATS_INVALID_ACTION:       "STATS_INVALID_ACTION",
	ErrorCode_STATS_UPDATE_FAILED:        "STATS_UPDATE_FAILED",
	ErrorCode_STATS_FETCH_FAILED:         "STATS_FETCH_FAILED",
	ErrorCode_INTEGRATION_STORAGE_FAILED: "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_PUBSUB_FAILED:  "INTEGRATION_PUBSUB_FAILED",
	ErrorCode_INTEGRATION_WEBHOOK_FAILED: "INTEGRATION_WEBHOOK_FAILED",
	ErrorCode_DB_CONNECTION_FAILED:       "DB_CONNECTION_FAILED",
	ErrorCode_DB_QUERY_FAILED:            "DB_QUERY_FAILED",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
