package services

// Machine-readable error codes surfaced to terminals.
const (
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeAmendmentConflict    = "AMENDMENT_CONFLICT"
	CodeInsufficientAuth     = "INSUFFICIENT_AUTHORIZATION"
	CodeZeroTotalCheckout    = "ZERO_TOTAL_CHECKOUT"
	CodeInvalidRegisterState = "INVALID_REGISTER_STATE"
)

// ServiceError represents a typed error with an HTTP status code and a
// machine code terminals can branch on.
type ServiceError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func invalidTransition(msg string) *ServiceError {
	return &ServiceError{StatusCode: 409, Code: CodeInvalidTransition, Message: msg}
}

func amendmentConflict(msg string) *ServiceError {
	return &ServiceError{StatusCode: 409, Code: CodeAmendmentConflict, Message: msg}
}

func insufficientAuth(msg string) *ServiceError {
	return &ServiceError{StatusCode: 403, Code: CodeInsufficientAuth, Message: msg}
}
