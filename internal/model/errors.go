package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrConfig         = errors.New("configuration error")
	ErrAuthentication = errors.New("authentication failed")
	ErrUpstreamError  = errors.New("upstream error")
	ErrSupplier       = errors.New("supplier rejected request")
	ErrPrecondition   = errors.New("precondition not met")
	ErrRateLimited    = errors.New("rate limited")
)

// APIError represents a structured error with a user-facing message.
// Implements error interface and supports unwrapping.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"` // HTTP status, not serialized
	Err        error  `json:"-"` // Wrapped error, not serialized
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a 404 error for missing resources.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: 404,
		Err:        ErrNotFound,
	}
}

// NewValidationError creates a 400 error for invalid input.
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		StatusCode: 400,
		Err:        ErrInvalidRequest,
	}
}

// NewConfigError reports missing or unusable operator configuration.
// Raised before any network call; retrying without operator action is pointless.
func NewConfigError(reason string) *APIError {
	return &APIError{
		Code:       "CONFIG_ERROR",
		Message:    reason,
		StatusCode: 500,
		Err:        ErrConfig,
	}
}

// NewAuthError reports a rejected supplier login, carrying the supplier's message.
func NewAuthError(supplierMessage string) *APIError {
	msg := "CJ authentication failed"
	if supplierMessage != "" {
		msg = "CJ authentication failed: " + supplierMessage
	}
	return &APIError{
		Code:       "AUTH_FAILED",
		Message:    msg,
		StatusCode: 401,
		Err:        ErrAuthentication,
	}
}

// NewUpstreamError creates a 502 error for transport failures and non-2xx responses.
func NewUpstreamError(service string, err error) *APIError {
	return &APIError{
		Code:       "UPSTREAM_ERROR",
		Message:    fmt.Sprintf("%s request failed", service),
		StatusCode: 502,
		Err:        fmt.Errorf("%w: %w", ErrUpstreamError, err),
	}
}

// NewSupplierError wraps a business error the supplier reported with result:false.
func NewSupplierError(message string) *APIError {
	if message == "" {
		message = "CJ request was not successful"
	}
	return &APIError{
		Code:       "SUPPLIER_ERROR",
		Message:    message,
		StatusCode: 422,
		Err:        ErrSupplier,
	}
}

// NewPreconditionError is an expected, user-facing condition rather than a fault.
func NewPreconditionError(message string) *APIError {
	return &APIError{
		Code:       "PRECONDITION_FAILED",
		Message:    message,
		StatusCode: 409,
		Err:        ErrPrecondition,
	}
}

// NewRateLimitError creates a 429 error when the supplier throttles us.
func NewRateLimitError(service string) *APIError {
	return &APIError{
		Code:       "RATE_LIMITED",
		Message:    fmt.Sprintf("%s rate limit exceeded, please retry later", service),
		StatusCode: 429,
		Err:        ErrRateLimited,
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: 500,
		Err:        err,
	}
}

// IsUpstream reports whether err came from the transport rather than a supplier decision.
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstreamError)
}

// UserMessage returns the message a caller should show for err.
// APIErrors expose their Message; anything else is reported verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
