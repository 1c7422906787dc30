package errors

type ErrorCode string

const (
	CodeMalformedURL       ErrorCode = "malformed_url"
	CodeMissingField       ErrorCode = "missing_required_field"
	CodeUnknownProvider    ErrorCode = "unknown_provider"
	CodeUnknownTransaction ErrorCode = "unknown_transaction"
	CodeInvalidState       ErrorCode = "invalid_state"
	CodeInitiationFailed   ErrorCode = "initiation_failed"
	CodeConfirmationFailed ErrorCode = "confirmation_failed"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func New(code ErrorCode, message string, err error) ServiceError {
	return ServiceError{Code: code, Message: message, Err: err}
}

func (se ServiceError) Error() string {
	return se.Message
}

func (se ServiceError) Unwrap() error {
	return se.Err
}

// CodeOf extracts the service error code, or empty for foreign errors.
func CodeOf(err error) ErrorCode {
	if se, ok := err.(ServiceError); ok {
		return se.Code
	}
	return ""
}
