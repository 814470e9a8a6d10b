package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrSeedProvisioning      = errors.New("seed provisioning failed")
	ErrAlreadySubmitted      = errors.New("already submitted")
	ErrNotReady              = errors.New("league state not ready")
)
