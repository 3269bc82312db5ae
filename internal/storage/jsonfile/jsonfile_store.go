// Package jsonfile stores everything in a single JSON document on disk.
// Every write rewrites the whole file through a temp file and rename.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/brk3/habitboard/internal/storage"
	"github.com/brk3/habitboard/pkg/habit"
	"golang.org/x/oauth2"
)

type document struct {
	Habits        map[string][]habit.Habit `json:"habits"`
	APIKeys       map[string]string        `json:"api_keys"`
	RefreshTokens map[string]*oauth2.Token `json:"refresh_tokens"`
}

type Store struct {
	path   string
	mu     sync.Mutex
	closed bool
}

func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	// Fail early on an unreadable file.
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() (*document, error) {
	doc := &document{}
	b, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	if len(b) > 0 {
		if err := json.Unmarshal(b, doc); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", s.path, err)
		}
	}
	if doc.Habits == nil {
		doc.Habits = map[string][]habit.Habit{}
	}
	if doc.APIKeys == nil {
		doc.APIKeys = map[string]string{}
	}
	if doc.RefreshTokens == nil {
		doc.RefreshTokens = map[string]*oauth2.Token{}
	}
	return doc, nil
}

func (s *Store) save(doc *document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// view and update hold the lock for the whole load (and save).
func (s *Store) view(fn func(doc *document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	doc, err := s.load()
	if err != nil {
		return err
	}
	return fn(doc)
}

func (s *Store) update(fn func(doc *document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.save(doc)
}

func (s *Store) ListHabits(userID string) ([]habit.Habit, error) {
	out := []habit.Habit{}
	err := s.view(func(doc *document) error {
		out = append(out, doc.Habits[storage.UserOrDefault(userID)]...)
		return nil
	})
	return out, err
}

func (s *Store) ReplaceHabits(userID string, habits []habit.Habit) error {
	return s.update(func(doc *document) error {
		if habits == nil {
			habits = []habit.Habit{}
		}
		doc.Habits[storage.UserOrDefault(userID)] = habits
		return nil
	})
}

func (s *Store) UpdateHabits(userID string, fn storage.UpdateFunc) error {
	return s.update(func(doc *document) error {
		key := storage.UserOrDefault(userID)
		current := append([]habit.Habit{}, doc.Habits[key]...)
		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			next = []habit.Habit{}
		}
		doc.Habits[key] = next
		return nil
	})
}

func (s *Store) PutAPIKey(keyHash, userID string) error {
	return s.update(func(doc *document) error {
		doc.APIKeys[keyHash] = userID
		return nil
	})
}

func (s *Store) GetAPIKey(keyHash string) (string, bool, error) {
	var userID string
	var found bool
	err := s.view(func(doc *document) error {
		userID, found = doc.APIKeys[keyHash]
		return nil
	})
	return userID, found, err
}

func (s *Store) ListAPIKeyHashes(userID string) ([]string, error) {
	out := []string{}
	err := s.view(func(doc *document) error {
		for h, u := range doc.APIKeys {
			if u == userID {
				out = append(out, h)
			}
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}

func (s *Store) DeleteAPIKey(keyHash string) error {
	return s.update(func(doc *document) error {
		delete(doc.APIKeys, keyHash)
		return nil
	})
}

func (s *Store) PutRefreshToken(userID string, tok *oauth2.Token) error {
	return s.update(func(doc *document) error {
		doc.RefreshTokens[userID] = tok
		return nil
	})
}

func (s *Store) GetRefreshToken(userID string) (*oauth2.Token, bool, error) {
	var tok *oauth2.Token
	err := s.view(func(doc *document) error {
		tok = doc.RefreshTokens[userID]
		return nil
	})
	return tok, tok != nil, err
}

func (s *Store) DeleteRefreshToken(userID string) error {
	return s.update(func(doc *document) error {
		delete(doc.RefreshTokens, userID)
		return nil
	})
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ storage.Store = (*Store)(nil)
