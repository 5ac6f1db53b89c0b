package domain

import "errors"

// Sentinel errors for the application. Every failure a service surfaces is
// one of these two kinds, wrapped with context; handlers map them to HTTP
// statuses with errors.Is.
var (
	// ErrInvalidInput marks a well-formed request that violates a domain
	// rule: bad lengths, duplicate resources, unknown ids, invalid enum
	// values, state preconditions such as "already pinned".
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized marks a caller whose identity or role does not permit
	// the action: invalid token, not a member, not an owner.
	ErrUnauthorized = errors.New("unauthorized")
)
