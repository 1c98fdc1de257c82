package errors

import "errors"

var (
	ErrRegistryLoad   = errors.New("failed to load subscription registry")
	ErrRegistrySave   = errors.New("failed to persist subscription registry")
	ErrListPrincipals = errors.New("failed to list principals from platform")
)
