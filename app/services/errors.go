package services

import "errors"

var (
	// ErrInvalid wraps validation failures of the data passed to a service.
	ErrInvalid = errors.New("invalid input")
	// ErrEmailTaken is returned when registering an address that already has an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUnknownEmail is returned by Authenticate when no account uses the address.
	ErrUnknownEmail = errors.New("email does not exist")
	// ErrWrongPassword is returned by Authenticate when the password does not verify.
	ErrWrongPassword = errors.New("password incorrect")
	// ErrTitleTaken is returned when another post already uses the title.
	ErrTitleTaken = errors.New("post title already in use")
)
