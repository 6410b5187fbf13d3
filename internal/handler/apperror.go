package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrForbidden          = &AppError{http.StatusForbidden, "FORBIDDEN", "Not allowed"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidCPF       = &AppError{http.StatusBadRequest, "INVALID_CPF", "CPF is not valid"}
	ErrProfileExists    = &AppError{http.StatusConflict, "PROFILE_ALREADY_EXISTS", "Email or CPF already registered"}
	ErrInvalidAmount    = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount is outside the accepted range"}
	ErrKycRequired      = &AppError{http.StatusUnprocessableEntity, "KYC_REQUIRED", "KYC approval is required before depositing"}
	ErrNoPaymentAccount = &AppError{http.StatusUnprocessableEntity, "NO_PAYMENT_ACCOUNT", "No payment account is available"}
	ErrInvalidStatus    = &AppError{http.StatusBadRequest, "INVALID_STATUS", "Unknown transaction status"}

	// Both rate failures read the same to end users; logs keep them apart.
	ErrRateUnavailable = &AppError{http.StatusServiceUnavailable, "RATE_UNAVAILABLE", "Could not retrieve the current rate, try again"}
	ErrInvalidQuote    = &AppError{http.StatusBadGateway, "INVALID_QUOTE", "Could not retrieve the current rate, try again"}
)
