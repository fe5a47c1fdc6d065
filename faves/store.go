package faves

import "context"

// Store persists favorite records for one favoritable type.
type Store interface {
	// GetOrCreate ensures a record exists for the pair. created reports
	// whether this call inserted it.
	GetOrCreate(ctx context.Context, userID, targetID int64) (rec Record, created bool, err error)

	// Delete removes every record for the pair and returns how many were
	// removed. Removing nothing is not an error.
	Delete(ctx context.Context, userID, targetID int64) (int64, error)

	// ListByUser returns the user's records, newest first.
	ListByUser(ctx context.Context, userID int64) ([]Record, error)

	// Exists reports whether the user has favorited the target.
	Exists(ctx context.Context, userID, targetID int64) (bool, error)
}

// Targets resolves favoritable objects by primary key. Target must return an
// error matching ErrNotFound when id does not resolve.
type Targets[T any] interface {
	Target(ctx context.Context, id int64) (T, error)
}

// BatchTargets is implemented by lookups that can resolve many ids in one
// query. Ids missing from the returned map are treated as gone.
type BatchTargets[T any] interface {
	Targets[T]
	TargetsByID(ctx context.Context, ids []int64) (map[int64]T, error)
}

// TargetFunc adapts an ordinary function to the Targets interface.
type TargetFunc[T any] func(ctx context.Context, id int64) (T, error)

// Target calls f(ctx, id).
func (f TargetFunc[T]) Target(ctx context.Context, id int64) (T, error) {
	return f(ctx, id)
}

// Users resolves accounts by username, ignoring case. It must return an error
// matching ErrNotFound for unknown usernames.
type Users interface {
	UserByUsername(ctx context.Context, username string) (User, error)
}

type userKey struct{}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the authenticated user stored by WithUser.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey{}).(User)
	if !ok || u.ID == 0 {
		return User{}, false
	}
	return u, true
}
