// Package faves lets any domain object of a site be favorited and
// unfavorited by an authenticated user, and lets users list favorites.
//
// A host application supplies one relationship table per favoritable type
// (see SQLStore), a lookup for the target type (Targets) and, for public
// listings, a username lookup (Users). The package then provides three
// http.Handlers (CreateHandler, DeleteHandler, ListHandler) and a small
// client script that turns annotated links into asynchronous calls.
package faves

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a target object or a named user does not
	// resolve. Lookups supplied by the host must return an error matching it.
	ErrNotFound = errors.New("not found")

	// ErrAuthenticationRequired is returned when an operation needs an
	// authenticated user and the request has none.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrInvalidID is returned for a malformed target identifier.
	ErrInvalidID = errors.New("invalid identifier")
)

// Record is a persisted favorite relationship between a user and one
// target object.
type Record struct {
	ID        int64     `json:"id" xml:"id"`
	UserID    int64     `json:"user_id" xml:"user_id"`
	TargetID  int64     `json:"target_id" xml:"target_id"`
	CreatedAt time.Time `json:"created_at" xml:"created_at"`
}

// Favorite is a Record together with its resolved target.
type Favorite[T any] struct {
	Record
	Target T `json:"target" xml:"target"`
}

// User is the minimal view of an account that the handlers need.
type User struct {
	ID       int64  `json:"id" xml:"id"`
	Username string `json:"username" xml:"username"`
}
