package service

import "errors"

// Sentinel errors returned by auth and verification flows. Handlers map
// these to HTTP statuses; anything else is an internal error.
var (
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrInvalidCode           = errors.New("invalid or expired verification code")
	ErrEmailTaken            = errors.New("email already registered")
	ErrAccountNotFound       = errors.New("account not found")
	ErrFederatedOnly         = errors.New("account uses federated login")
	ErrProviderToken         = errors.New("provider token rejected")
	ErrProviderNotConfigured = errors.New("identity provider not configured")
	ErrCodeDelivery          = errors.New("verification code delivery failed")
)
