package auth

import "errors"

var (
	ErrEmailPasswordRequired = errors.New("Email and password are required")
	ErrInvalidEmail          = errors.New("Invalid Email")
	ErrIncorrectPassword     = errors.New("Incorrect Password")
	ErrNotAuthenticated      = errors.New("Not authenticated")
	ErrFullnameRequired      = errors.New("Full name is required")
	ErrEmailTaken            = errors.New("Email is already registered")
	ErrWeakPassword          = errors.New("Password must be at least 8 characters")
)
