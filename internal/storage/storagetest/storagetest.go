// Package storagetest holds behaviour tests shared by every storage backend.
package storagetest

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brk3/habitboard/internal/storage"
	"github.com/brk3/habitboard/pkg/habit"
	"golang.org/x/oauth2"
)

// Run exercises the storage.Store contract against stores built by open.
func Run(t *testing.T, open func(t *testing.T) storage.Store) {
	t.Run("EmptyCollection", func(t *testing.T) { testEmptyCollection(t, open(t)) })
	t.Run("ReplaceAndList", func(t *testing.T) { testReplaceAndList(t, open(t)) })
	t.Run("UserIsolation", func(t *testing.T) { testUserIsolation(t, open(t)) })
	t.Run("UpdateAbortsOnError", func(t *testing.T) { testUpdateAborts(t, open(t)) })
	t.Run("ConcurrentUpdates", func(t *testing.T) { testConcurrentUpdates(t, open(t)) })
	t.Run("APIKeys", func(t *testing.T) { testAPIKeys(t, open(t)) })
	t.Run("RefreshTokens", func(t *testing.T) { testRefreshTokens(t, open(t)) })
}

func sample(id, name string) habit.Habit {
	return habit.Habit{
		ID:             id,
		Name:           name,
		Frequency:      habit.Daily,
		CreatedAt:      time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
		CompletedDates: []string{"2026-01-01"},
	}
}

func testEmptyCollection(t *testing.T, s storage.Store) {
	habits, err := s.ListHabits("nobody")
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	if habits == nil || len(habits) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", habits)
	}
}

func testReplaceAndList(t *testing.T, s storage.Store) {
	want := []habit.Habit{sample("a", "guitar"), sample("b", "exercise")}
	want[1].Frequency = habit.DaysPerWeek(3)
	if err := s.ReplaceHabits("alice", want); err != nil {
		t.Fatalf("ReplaceHabits failed: %v", err)
	}

	got, err := s.ListHabits("alice")
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 habits, got %d", len(got))
	}
	if got[0].Name != "guitar" || got[1].Name != "exercise" {
		t.Fatalf("unexpected order or names: %+v", got)
	}
	if got[1].Frequency != habit.DaysPerWeek(3) {
		t.Fatalf("frequency not preserved: %v", got[1].Frequency)
	}
	if !got[0].CreatedAt.Equal(want[0].CreatedAt) {
		t.Fatalf("createdAt not preserved: %v", got[0].CreatedAt)
	}

	if err := s.ReplaceHabits("alice", nil); err != nil {
		t.Fatalf("ReplaceHabits(nil) failed: %v", err)
	}
	got, err = s.ListHabits("alice")
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty collection after replace, got %d", len(got))
	}
}

func testUserIsolation(t *testing.T, s storage.Store) {
	if err := s.ReplaceHabits("alice", []habit.Habit{sample("a", "guitar")}); err != nil {
		t.Fatalf("ReplaceHabits failed: %v", err)
	}

	bob, err := s.ListHabits("bob")
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	if len(bob) != 0 {
		t.Fatalf("bob should see no habits, got %v", bob)
	}
}

func testUpdateAborts(t *testing.T, s storage.Store) {
	if err := s.ReplaceHabits("alice", []habit.Habit{sample("a", "guitar")}); err != nil {
		t.Fatalf("ReplaceHabits failed: %v", err)
	}

	boom := errors.New("boom")
	err := s.UpdateHabits("alice", func(hs []habit.Habit) ([]habit.Habit, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, err := s.ListHabits("alice")
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("collection changed after aborted update: %v", got)
	}
}

func testConcurrentUpdates(t *testing.T, s storage.Store) {
	const writers = 10

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.UpdateHabits("alice", func(hs []habit.Habit) ([]habit.Habit, error) {
				return append(hs, sample(string(rune('a'+i)), "h")), nil
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("UpdateHabits failed: %v", err)
		}
	}

	got, err := s.ListHabits("alice")
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	if len(got) != writers {
		t.Fatalf("lost updates: got %d habits, want %d", len(got), writers)
	}
}

func testAPIKeys(t *testing.T, s storage.Store) {
	if _, found, err := s.GetAPIKey("missing"); err != nil || found {
		t.Fatalf("GetAPIKey(missing) = found %v, err %v", found, err)
	}

	for hash, user := range map[string]string{"key1": "user1", "key2": "user1", "key3": "user2"} {
		if err := s.PutAPIKey(hash, user); err != nil {
			t.Fatalf("PutAPIKey failed: %v", err)
		}
	}

	userID, found, err := s.GetAPIKey("key3")
	if err != nil || !found || userID != "user2" {
		t.Fatalf("GetAPIKey(key3) = %q, %v, %v", userID, found, err)
	}

	hashes, err := s.ListAPIKeyHashes("user1")
	if err != nil {
		t.Fatalf("ListAPIKeyHashes failed: %v", err)
	}
	if len(hashes) != 2 {
		t.Fatalf("expected 2 hashes for user1, got %d", len(hashes))
	}

	if err := s.DeleteAPIKey("key1"); err != nil {
		t.Fatalf("DeleteAPIKey failed: %v", err)
	}
	if _, found, _ := s.GetAPIKey("key1"); found {
		t.Fatal("expected key1 to be gone after delete")
	}
}

func testRefreshTokens(t *testing.T, s storage.Store) {
	if _, found, err := s.GetRefreshToken("user1"); err != nil || found {
		t.Fatalf("GetRefreshToken on empty store = found %v, err %v", found, err)
	}

	tok := &oauth2.Token{AccessToken: "at", RefreshToken: "rt", TokenType: "Bearer"}
	if err := s.PutRefreshToken("user1", tok); err != nil {
		t.Fatalf("PutRefreshToken failed: %v", err)
	}
	got, found, err := s.GetRefreshToken("user1")
	if err != nil || !found {
		t.Fatalf("GetRefreshToken = found %v, err %v", found, err)
	}
	if got.RefreshToken != "rt" {
		t.Fatalf("got refresh token %q, want rt", got.RefreshToken)
	}

	if err := s.DeleteRefreshToken("user1"); err != nil {
		t.Fatalf("DeleteRefreshToken failed: %v", err)
	}
	if _, found, _ := s.GetRefreshToken("user1"); found {
		t.Fatal("expected token to be gone after delete")
	}
}
