package services

import "errors"

// Claim taxonomy. Handlers map these to client-visible codes; nothing else
// about a failure leaves the service.
var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrTokenInvalid     = errors.New("invalid or expired token")
	ErrTokenAlreadyUsed = errors.New("token already used")
	ErrUserNotFound     = errors.New("user not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Token store outcomes for a failed conditional claim.
var (
	ErrTokenNotFound       = errors.New("token not found")
	ErrTokenAlreadyClaimed = errors.New("token already claimed")
)

// Catalog and account errors.
var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrAlreadyJoined     = errors.New("already joined this challenge")
	ErrUserExists        = errors.New("user already exists")
)

// errAlreadyCredited marks a token whose ledger entry already exists.
var errAlreadyCredited = errors.New("token already credited")
