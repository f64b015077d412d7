package errs

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	ErrStatusInternalServer   = http.StatusInternalServerError
	ErrStatusClient           = http.StatusBadRequest
	ErrStatusNotLoggedIn      = http.StatusUnauthorized
	ErrStatusNoPermission     = http.StatusForbidden
	ErrStatusUnauthorized     = http.StatusUnauthorized
	ErrStatusNotFound         = http.StatusNotFound
	ErrStatusEmailAlreadyUsed = http.StatusBadRequest
	ErrStatusConflict         = http.StatusConflict
	ErrStatusBadGateway       = http.StatusBadGateway
	ErrStatusPaymentRequired  = http.StatusPaymentRequired
)

var (
	ErrInternalServer          = errors.New("Internal server error")
	ErrClient                  = errors.New("Bad request")
	ErrValidation              = errors.New("Invalid input")
	ErrNotLoggedIn             = errors.New("Unauthorized access")
	ErrInvalidCredentialsEmail = errors.New("Email or password is incorrect")
	ErrNotFound                = errors.New("Resource not found")
	ErrAccountNotFound         = errors.New("Account not found")
	ErrEmailAlreadyUsed        = errors.New("Email has already been used")
	ErrTokenExpired            = errors.New("The token is already expired")
	ErrConflict                = errors.New("Conflicting record found")
	ErrGateway                 = errors.New("Remote service unavailable")
	ErrPaymentInit             = errors.New("Unable to initiate payment")
	ErrPaymentDeclined         = errors.New("Payment was declined")
	ErrPaymentCancelled        = errors.New("Payment was cancelled")
	ErrPaymentPending          = errors.New("Payment has not been confirmed yet")
	ErrStockExhausted          = errors.New("Requested quantity is not available")
)

var errorMap = map[error]int{
	ErrInternalServer:          ErrStatusInternalServer,
	ErrClient:                  ErrStatusClient,
	ErrValidation:              ErrStatusClient,
	ErrNotLoggedIn:             ErrStatusNotLoggedIn,
	ErrInvalidCredentialsEmail: ErrStatusUnauthorized,
	ErrNotFound:                ErrStatusNotFound,
	ErrAccountNotFound:         ErrStatusNotFound,
	ErrEmailAlreadyUsed:        ErrStatusEmailAlreadyUsed,
	ErrTokenExpired:            ErrStatusUnauthorized,
	ErrConflict:                ErrStatusConflict,
	ErrGateway:                 ErrStatusBadGateway,
	ErrPaymentInit:             ErrStatusBadGateway,
	ErrPaymentDeclined:         ErrStatusPaymentRequired,
	ErrPaymentCancelled:        ErrStatusConflict,
	ErrPaymentPending:          ErrStatusConflict,
	ErrStockExhausted:          ErrStatusConflict,
}

// ValidationError reports a single rejected input field. It matches
// ErrValidation under errors.Is.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Gateway wraps a driver or transport failure so that it surfaces as ErrGateway.
func Gateway(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrGateway, err)
}

func GetErrorStatusCode(err error) int {
	if errStatusCode, ok := errorMap[err]; ok {
		return errStatusCode
	}

	for target, errStatusCode := range errorMap {
		if errors.Is(err, target) {
			return errStatusCode
		}
	}

	return errorMap[ErrInternalServer]
}
