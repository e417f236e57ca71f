package identity

import "errors"

var (
	// ErrIdentityNotFound indicates the requested key is not registered.
	ErrIdentityNotFound = errors.New("identity not registered")

	// ErrIdentityExists indicates an identity with that key is already registered.
	ErrIdentityExists = errors.New("identity already registered")

	// ErrInvalidKey indicates the key does not satisfy the configured KeyFormat.
	ErrInvalidKey = errors.New("invalid key")

	// ErrInvalidIdentity indicates a missing name or email.
	ErrInvalidIdentity = errors.New("invalid identity")

	// ErrRegistryNotFound indicates the registry file does not exist.
	ErrRegistryNotFound = errors.New("identity registry not found")

	// ErrRegistryMalformed indicates the registry file exists but cannot be decoded.
	ErrRegistryMalformed = errors.New("identity registry malformed")
)
