package pixel

import "errors"

var (
	// ErrUnauthenticated is returned when a bearer credential is missing or invalid.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidArgument is returned for a malformed id, color, or batch entry.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is returned when an operation targets a pixel that does not exist.
	ErrNotFound = errors.New("pixel not found")
	// ErrAlreadyOwned is returned when checkout is requested for an owned pixel.
	ErrAlreadyOwned = errors.New("pixel is already owned")
	// ErrForbidden is returned when a recolor is attempted by a non-owner.
	ErrForbidden = errors.New("pixel is owned by someone else")
	// ErrPaymentRequired is returned when an unclaimed pixel is recolored directly.
	ErrPaymentRequired = errors.New("pixel must be purchased before it can be colored")
	// ErrUpstream is returned when the payment processor call fails.
	ErrUpstream = errors.New("payment processor failure")
	// ErrSignatureInvalid is returned when a webhook signature check fails.
	ErrSignatureInvalid = errors.New("webhook signature invalid")
)
