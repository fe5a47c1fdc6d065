package storage

import (
	"errors"
	"fmt"

	"github.com/hoanghai1803/faves/faves"
)

// ErrNotFound is returned when a requested record does not exist. It matches
// faves.ErrNotFound, so the favorites handlers answer 404 for it.
var ErrNotFound = fmt.Errorf("storage: %w", faves.ErrNotFound)

var (
	// ErrUsernameTaken is returned when registering a username that already
	// exists, ignoring case.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidCredentials is returned when a username and password do not
	// match a stored account.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidUsername is returned for usernames outside [A-Za-z0-9_-]{3,32}.
	ErrInvalidUsername = errors.New("username must be 3-32 letters, digits, '_' or '-'")

	// ErrWeakPassword is returned for passwords shorter than MinPasswordLength.
	ErrWeakPassword = errors.New("password is too short")
)
