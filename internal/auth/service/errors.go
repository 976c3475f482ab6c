package service

import "errors"

// Sentinel errors for the auth service; the handler maps them to HTTP status
// codes. Credential and token failures share ErrUnauthorized so the response
// does not reveal which check failed (identity enumeration).
var (
	ErrValidation             = errors.New("validation failed")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrUserNotFound           = errors.New("no user found with that email")
	ErrResetInvalidOrExpired  = errors.New("reset token is invalid or has expired")
	ErrPasswordMismatch       = errors.New("passwords do not match")
	ErrDispatchFailed         = errors.New("could not send reset email")
)
