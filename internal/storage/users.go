package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/hoanghai1803/faves/faves"
	"github.com/hoanghai1803/faves/internal/models"
)

// MinPasswordLength is the shortest password CreateUser accepts.
const MinPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,32}$`)

type userRow struct {
	ID           int64           `db:"id"`
	Username     string          `db:"username"`
	PasswordHash string          `db:"password_hash"`
	CreatedAt    faves.Timestamp `db:"created_at"`
}

func (r userRow) user() models.User {
	return models.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.Time,
	}
}

// CreateUser registers a new account with a bcrypt hash of password.
// Usernames are unique ignoring case; a clash returns ErrUsernameTaken.
func (s *Store) CreateUser(ctx context.Context, username, password string) (models.User, error) {
	if !usernamePattern.MatchString(username) {
		return models.User{}, ErrInvalidUsername
	}
	if len(password) < MinPasswordLength {
		return models.User{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now().UTC()
	var id int64
	err = s.db.QueryRowxContext(ctx, s.db.Rebind(
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?) RETURNING id`),
		username, string(hash), formatTime(now),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrUsernameTaken
		}
		return models.User{}, fmt.Errorf("creating user %q: %w", username, err)
	}

	return models.User{ID: id, Username: username, PasswordHash: string(hash), CreatedAt: now}, nil
}

// Authenticate returns the account matching username and password.
// Unknown usernames and wrong passwords both return ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	u, err := s.userByName(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// GetUserByID returns the account with the given ID.
// Returns ErrNotFound if no matching row exists.
func (s *Store) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(
		`SELECT id, username, password_hash, created_at FROM users WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("getting user %d: %w", id, err)
	}
	return row.user(), nil
}

// UserExists reports whether an account with the given ID exists. It lets the
// auth middleware reject tokens of deleted accounts.
func (s *Store) UserExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, s.db.Rebind(
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = ?)`), id)
	if err != nil {
		return false, fmt.Errorf("checking user %d: %w", id, err)
	}
	return exists, nil
}

// UserByUsername implements faves.Users. The match ignores case.
func (s *Store) UserByUsername(ctx context.Context, username string) (faves.User, error) {
	u, err := s.userByName(ctx, username)
	if err != nil {
		return faves.User{}, err
	}
	return faves.User{ID: u.ID, Username: u.Username}, nil
}

func (s *Store) userByName(ctx context.Context, username string) (models.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(
		`SELECT id, username, password_hash, created_at FROM users WHERE lower(username) = ?`),
		strings.ToLower(username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("getting user %q: %w", username, err)
	}
	return row.user(), nil
}

// isUniqueViolation reports whether err is a unique constraint failure on
// either supported driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ faves.Users = (*Store)(nil)
