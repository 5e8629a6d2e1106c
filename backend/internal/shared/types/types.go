package types

// ErrorResponse is the error body of every API endpoint.
//
//nolint:errname // ErrorResponse is an API response type, not a traditional error
type ErrorResponse struct {
	// HTTP status code (internal only, not sent to client)
	StatusCode int `json:"-"`
	// Request ID for tracking
	RequestID string `json:"requestID,omitempty"`
	// Fixed, client facing message
	Message string `json:"error"`

	cause error
}

func (e *ErrorResponse) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}

	return e.Message
}

func (e *ErrorResponse) Unwrap() error {
	return e.cause
}

// WithCause attaches the underlying error, which is logged but never sent.
func (e *ErrorResponse) WithCause(err error) *ErrorResponse {
	e.cause = err
	return e
}

// PingResponse is the response to a ping request.
type PingResponse struct {
	// Human-readable message
	Message string `json:"message"`
	// Status of the ping
	Status PingStatus `json:"status"`
	// Version of the running server
	Version string `json:"version,omitempty"`
}

// PingStatus represents the status of a ping request.
type PingStatus string

const (
	// PingStatusOK means the ping was successful.
	PingStatusOK PingStatus = "OK"
	// PingStatusError means there was an error with the ping.
	PingStatusError PingStatus = "ERROR"
)

// HealthResponse reports the health of the server dependencies.
type HealthResponse struct {
	// Store reports whether the reading store answered
	Store bool `json:"store"`
	// StoreKind is the configured store backend
	StoreKind string `json:"storeKind"`
	// MQTT reports whether the ingest client is connected, nil when ingest is disabled
	MQTT *bool `json:"mqtt,omitempty"`
}
