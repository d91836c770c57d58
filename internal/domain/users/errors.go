package users

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidInput       = errors.New("invalid registration input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrHookFailed         = errors.New("user_register hook failed")
)
