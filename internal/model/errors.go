package model

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("concurrent modification")
	ErrInvalidToken  = errors.New("invalid token")
	// ErrPasswordMismatch is returned by a PasswordHasher when the password
	// does not match the hash.
	ErrPasswordMismatch = errors.New("password does not match")
)
