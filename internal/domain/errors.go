package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrInvalidCPF       = errors.New("invalid cpf")
	ErrProfileExists    = errors.New("profile already exists")
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrKycRequired      = errors.New("kyc approval required")
	ErrNoPaymentAccount = errors.New("no active payment account")
	ErrInvalidStatus    = errors.New("invalid status")

	// Rate quoter failures. Both mean "try again later" to callers; they stay
	// distinct for logging.
	ErrRateUnavailable = errors.New("rate upstream unavailable")
	ErrInvalidQuote    = errors.New("rate upstream returned an invalid quote")

	// Raised on insert when (user, provider_ref) already has an audit row;
	// the reconciler falls back to updating it.
	ErrDuplicateVerification = errors.New("verification already recorded")

	// KYC webhook failures.
	ErrInvalidPayload = errors.New("invalid webhook payload")
	ErrUnresolvedUser = errors.New("could not resolve user for webhook")
	ErrSecretNotSet   = errors.New("webhook secret not configured")
	ErrSecretMismatch = errors.New("webhook secret mismatch")
)
