package contactbook

import "errors"

var (
	// ErrDuplicateIdentity is returned by Register when the email is already taken.
	ErrDuplicateIdentity = errors.New("identity already registered")
	// ErrNotFound is returned when a user or contact does not exist.
	ErrNotFound = errors.New("not found")
	// ErrBadCredential is returned by Login when the password does not match.
	ErrBadCredential = errors.New("bad credential")
	// ErrInvalidToken is returned for malformed, tampered, or already-consumed tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned for well-formed tokens past their expiry.
	ErrExpiredToken = errors.New("expired token")
	// ErrForbidden is returned when the acting user is not the record owner, or
	// lacks the role an operation requires.
	ErrForbidden = errors.New("forbidden")
	// ErrStorage wraps infrastructure failures from the user and contact stores.
	ErrStorage = errors.New("storage error")
	// ErrEngineNotReady is returned when an Engine is used before Build completed.
	ErrEngineNotReady = errors.New("engine not initialized")
)
