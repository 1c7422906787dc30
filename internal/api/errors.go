package api

type APIErrorCode string

const (
	BadRequestError     APIErrorCode = "bad_request"
	UnknownKindError    APIErrorCode = "unknown_kind"
	InitiationError     APIErrorCode = "initiation_error"
	UnknownTransaction  APIErrorCode = "unknown_transaction"
	InvalidSessionState APIErrorCode = "invalid_session_state"
)

// APIError represents a custom error with a code and description
type APIError struct {
	Code APIErrorCode
}

// Implement the error interface for APIError
func (e *APIError) Error() string {
	return string(e.Code)
}
