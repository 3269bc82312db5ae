package server

import (
	"slices"
	"sync"

	"github.com/brk3/habitboard/internal/storage"
	"github.com/brk3/habitboard/pkg/habit"
	"golang.org/x/oauth2"
)

type memStore struct {
	mu      sync.Mutex
	habits  map[string][]habit.Habit
	apiKeys map[string]string
	tokens  map[string]*oauth2.Token
}

func newMemStore() *memStore {
	return &memStore{
		habits:  map[string][]habit.Habit{},
		apiKeys: map[string]string{},
		tokens:  map[string]*oauth2.Token{},
	}
}

func (m *memStore) ListHabits(userID string) ([]habit.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.habits[storage.UserOrDefault(userID)])
	if out == nil {
		out = []habit.Habit{}
	}
	return out, nil
}

func (m *memStore) ReplaceHabits(userID string, habits []habit.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.habits[storage.UserOrDefault(userID)] = slices.Clone(habits)
	return nil
}

func (m *memStore) UpdateHabits(userID string, fn storage.UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := storage.UserOrDefault(userID)
	out, err := fn(slices.Clone(m.habits[key]))
	if err != nil {
		return err
	}
	m.habits[key] = out
	return nil
}

func (m *memStore) PutAPIKey(keyHash, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiKeys[keyHash] = userID
	return nil
}

func (m *memStore) GetAPIKey(keyHash string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.apiKeys[keyHash]
	return userID, ok, nil
}

func (m *memStore) ListAPIKeyHashes(userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for hash, owner := range m.apiKeys {
		if owner == userID {
			out = append(out, hash)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (m *memStore) DeleteAPIKey(keyHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.apiKeys, keyHash)
	return nil
}

func (m *memStore) PutRefreshToken(userID string, tok *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[userID] = tok
	return nil
}

func (m *memStore) GetRefreshToken(userID string) (*oauth2.Token, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.tokens[userID]
	return tok, ok, nil
}

func (m *memStore) DeleteRefreshToken(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, userID)
	return nil
}

func (m *memStore) Close() error {
	return nil
}

var _ storage.Store = (*memStore)(nil)
