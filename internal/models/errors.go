package models

import "errors"

var (
	ErrNotFound             = errors.New("record not found")
	ErrEmailTaken           = errors.New("email is already registered")
	ErrForbidden            = errors.New("forbidden: access denied")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrAccountInactive      = errors.New("account is deactivated")
	ErrContractorUnapproved = errors.New("contractor account is awaiting verification")
	ErrContractorNotUsable  = errors.New("contractor is not approved or not active")
	ErrConflict             = errors.New("task was modified concurrently, refetch and retry")
	ErrInvalidInput         = errors.New("invalid request data")
)
