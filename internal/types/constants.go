package types

const (
	ContextSessionKey   = "session"
	ContextRequestIDKey = "request_id"

	TokenCookieName = "token"
	RequestIDHeader = "X-Request-ID"
)
