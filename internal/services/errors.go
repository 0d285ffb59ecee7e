package services

import "errors"

// Identity error kinds. Handlers map each to a fixed user-facing
// message; anything outside the set gets a generic one.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailInUse         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password too weak")
	ErrPendingApproval    = errors.New("admin account awaiting approval")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotPendingAdmin    = errors.New("user is not an admin awaiting approval")
)

// Order and cart error kinds.
var (
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("order status is terminal")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrLoginRequired     = errors.New("login required")
)
