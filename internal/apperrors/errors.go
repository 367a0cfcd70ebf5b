package apperrors

import (
	"errors"
)

var (
	ErrTokenCodeEmpty = errors.New("token code is empty")
	ErrTokenNotFound  = errors.New("token not found")
	ErrTokenUsed      = errors.New("token is used")
	ErrTokenExpired   = errors.New("token is expired")
	ErrTokenCodeTaken = errors.New("token code already exists")

	// Returned by the redemption statement when the token was not updated
	// Callers have to look at the token to find out why
	ErrTokenNotRedeemable = errors.New("token can't be redeemed")

	ErrNotValidated = errors.New("token is not validated in this session")

	ErrCandidateInvalid  = errors.New("candidate is invalid")
	ErrCandidateNotFound = errors.New("candidate not found")

	ErrRateLimited = errors.New("too many attempts")
)
