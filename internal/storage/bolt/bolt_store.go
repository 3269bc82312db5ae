package bolt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/brk3/habitboard/internal/storage"
	"github.com/brk3/habitboard/pkg/habit"
	"go.etcd.io/bbolt"
	"golang.org/x/oauth2"
)

const (
	rootBucket          = "users"
	apiKeysBucket       = "api_keys"
	refreshTokensBucket = "refresh_tokens"
)

type Store struct {
	db *bbolt.DB
}

func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}

	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{rootBucket, apiKeysBucket, refreshTokensBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// userBucket returns the user's bucket, creating it in writable
// transactions. In read-only transactions it may return nil.
func userBucket(tx *bbolt.Tx, userID string) (*bbolt.Bucket, error) {
	users := tx.Bucket([]byte(rootBucket))
	key := []byte(storage.UserOrDefault(userID))
	if !tx.Writable() {
		return users.Bucket(key), nil
	}
	return users.CreateBucketIfNotExists(key)
}

func readHabits(b *bbolt.Bucket) ([]habit.Habit, error) {
	out := []habit.Habit{}
	if b == nil {
		return out, nil
	}
	v := b.Get([]byte(storage.HabitsKey))
	if v == nil {
		return out, nil
	}
	if err := json.Unmarshal(v, &out); err != nil {
		return nil, fmt.Errorf("decode habits: %w", err)
	}
	return out, nil
}

func writeHabits(b *bbolt.Bucket, habits []habit.Habit) error {
	if habits == nil {
		habits = []habit.Habit{}
	}
	val, err := json.Marshal(habits)
	if err != nil {
		return fmt.Errorf("encode habits: %w", err)
	}
	return b.Put([]byte(storage.HabitsKey), val)
}

func (s *Store) ListHabits(userID string) ([]habit.Habit, error) {
	var out []habit.Habit
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket, err := userBucket(tx, userID)
		if err != nil {
			return err
		}
		out, err = readHabits(bucket)
		return err
	})
	return out, err
}

func (s *Store) ReplaceHabits(userID string, habits []habit.Habit) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := userBucket(tx, userID)
		if err != nil {
			return err
		}
		return writeHabits(bucket, habits)
	})
}

func (s *Store) UpdateHabits(userID string, fn storage.UpdateFunc) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := userBucket(tx, userID)
		if err != nil {
			return err
		}
		current, err := readHabits(bucket)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		return writeHabits(bucket, next)
	})
}

func (s *Store) PutAPIKey(keyHash, userID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(apiKeysBucket)).Put([]byte(keyHash), []byte(userID))
	})
}

func (s *Store) GetAPIKey(keyHash string) (string, bool, error) {
	var userID string
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket([]byte(apiKeysBucket)).Get([]byte(keyHash)); v != nil {
			userID = string(v)
		}
		return nil
	})
	return userID, userID != "", err
}

func (s *Store) ListAPIKeyHashes(userID string) ([]string, error) {
	out := []string{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(apiKeysBucket)).ForEach(func(k, v []byte) error {
			if string(v) == userID {
				out = append(out, string(k))
			}
			return nil
		})
	})
	return out, err
}

func (s *Store) DeleteAPIKey(keyHash string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(apiKeysBucket)).Delete([]byte(keyHash))
	})
}

func (s *Store) PutRefreshToken(userID string, tok *oauth2.Token) error {
	val, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(refreshTokensBucket)).Put([]byte(userID), val)
	})
}

func (s *Store) GetRefreshToken(userID string) (*oauth2.Token, bool, error) {
	var tok *oauth2.Token
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(refreshTokensBucket)).Get([]byte(userID))
		if v == nil {
			return nil
		}
		tok = &oauth2.Token{}
		return json.Unmarshal(v, tok)
	})
	if err != nil {
		return nil, false, err
	}
	return tok, tok != nil, nil
}

func (s *Store) DeleteRefreshToken(userID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(refreshTokensBucket)).Delete([]byte(userID))
	})
}

var _ storage.Store = (*Store)(nil)
