package usecase

const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeBot         = "BOT_DETECTED"
	CodeRateLimited = "RATE_LIMITED"
	CodeNotFound    = "NOT_FOUND"
	CodeStore       = "STORE_ERROR"
	CodeDelivery    = "DELIVERY_ERROR"
	CodeRender      = "RENDER_ERROR"
)

// DomainError is safe to show to the client.
type DomainError struct {
	Code    string
	Message string
	Details []string
}

func (e *DomainError) Error() string {
	return e.Message
}

// TechnicalError wraps an infrastructure failure. Only Code leaves the
// process; Message and Err are for logs.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error { return e.Err }

func validationFailed(errs []ValidationError) *DomainError {
	return &DomainError{
		Code:    CodeValidation,
		Message: "Invalid input",
		Details: ValidationDetails(errs),
	}
}

var errBot = &DomainError{Code: CodeBot, Message: "Invalid submission"}
