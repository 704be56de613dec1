package apperrors

import "errors"

// Generic errors; HTTP status mapping lives in middleware.HandleAPIError.
var (
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrValidationFailed      = errors.New("validation failed")
	ErrBadRequest            = errors.New("bad request")
)

// Authentication errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountDisabled    = errors.New("account is disabled")

	ErrInvalidPasswordResetToken = errors.New("invalid or expired password reset token")
	ErrPasswordResetTokenUsed    = errors.New("password reset token has already been used")
)

// User and profile errors
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrProfileNotFound       = errors.New("profile not found")
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrUsernameAlreadyExists = errors.New("username already exists")
)

// Event domain errors
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrRSVPNotFound         = errors.New("rsvp not found")
	ErrRSVPAlreadyExists    = errors.New("rsvp already exists for this event")
	ErrAnnouncementNotFound = errors.New("announcement not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// CustomError carries a sentinel plus a message and optional field details.
type CustomError struct {
	Err       error
	Message   string
	StatusMsg string
	Code      string
	Details   map[string]interface{}
}

func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError wraps err with a message.
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{Err: err, Message: message}
}

// WithDetails attaches context details, e.g. per-field validation messages.
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

func (e *CustomError) WithStatusMsg(msg string) *CustomError {
	e.StatusMsg = msg
	return e
}

func NewResourceNotFoundError(message string) error {
	return NewCustomError(ErrResourceNotFound, message)
}

func NewConflictError(message string) error {
	return NewCustomError(ErrConflict, message)
}

func NewForbiddenError(message string) error {
	return NewCustomError(ErrPermissionDenied, message)
}

func NewBadRequestError(message string) error {
	return NewCustomError(ErrBadRequest, message)
}

// NewValidationError reports an invalid value for a single request field.
func NewValidationError(field, message string) error {
	return NewCustomError(ErrValidationFailed, message).
		WithDetails(map[string]interface{}{field: message})
}

// Is reports whether err matches target or any of errList.
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}
	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return Is(err, ErrResourceNotFound,
		ErrUserNotFound, ErrProfileNotFound, ErrEventNotFound,
		ErrRSVPNotFound, ErrAnnouncementNotFound, ErrNotificationNotFound)
}
