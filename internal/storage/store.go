package storage

import (
	"errors"

	"github.com/brk3/habitboard/pkg/habit"
	"golang.org/x/oauth2"
)

// HabitsKey is the fixed key each user's habit collection is stored under.
const HabitsKey = "habits"

// DefaultUserID owns collections written without a user.
const DefaultUserID = "default"

var ErrClosed = errors.New("storage: store is closed")

// UpdateFunc transforms a user's full collection. Returning an error aborts
// the update and nothing is written.
type UpdateFunc func(habits []habit.Habit) ([]habit.Habit, error)

// Store persists whole habit collections per user, plus the credentials the
// server needs for API keys and OIDC token refresh.
type Store interface {
	ListHabits(userID string) ([]habit.Habit, error)
	ReplaceHabits(userID string, habits []habit.Habit) error
	// UpdateHabits runs a read-modify-write of the collection as one
	// transaction so concurrent writers do not lose each other's changes.
	UpdateHabits(userID string, fn UpdateFunc) error

	PutAPIKey(keyHash, userID string) error
	GetAPIKey(keyHash string) (userID string, found bool, err error)
	ListAPIKeyHashes(userID string) ([]string, error)
	DeleteAPIKey(keyHash string) error

	PutRefreshToken(userID string, tok *oauth2.Token) error
	GetRefreshToken(userID string) (*oauth2.Token, bool, error)
	DeleteRefreshToken(userID string) error

	Close() error
}

// UserOrDefault maps an empty user ID to DefaultUserID.
func UserOrDefault(userID string) string {
	if userID == "" {
		return DefaultUserID
	}
	return userID
}
