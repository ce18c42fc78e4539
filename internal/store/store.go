// Package store holds the in-memory authoritative collection of accounts,
// indexed by id and by username. It hands out deep copies only; callers
// commit changes back through Replace/ReplaceMany.
package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pocketbank-dev/pocketbank/internal/model"
)

// Store maps account ids to accounts and keeps a derived username index.
// The two stay in sync under one lock; no two accounts ever share a
// username. The lock makes reads safe against concurrent commits, but
// check-then-commit sequences still need the engine's operation mutex.
type Store struct {
	mu         sync.RWMutex
	byID       map[string]model.Account
	byUsername map[string]string // username -> account id
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		byID:       make(map[string]model.Account),
		byUsername: make(map[string]string),
	}
}

// Load creates a Store from a slice of accounts, enforcing uniqueness.
func Load(accounts []model.Account) (*Store, error) {
	s := New()
	for _, a := range accounts {
		if err := s.Insert(a); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// FindByID returns a copy of the account with the given id.
func (s *Store) FindByID(id string) (model.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return model.Account{}, false
	}
	return a.Clone(), true
}

// FindByUsername returns a copy of the account with the given username.
// Exact, case-sensitive match via the index.
func (s *Store) FindByUsername(username string) (model.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[username]
	if !ok {
		return model.Account{}, false
	}
	return s.byID[id].Clone(), true
}

// Insert adds a new account. Fails if the id or username is already taken.
func (s *Store) Insert(a model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[a.ID]; exists {
		return fmt.Errorf("%w: account id %s already exists", model.ErrConflict, a.ID)
	}
	if _, exists := s.byUsername[a.Username]; exists {
		return fmt.Errorf("%w: username %q already exists", model.ErrConflict, a.Username)
	}
	s.byID[a.ID] = a.Clone()
	s.byUsername[a.Username] = a.ID
	return nil
}

// Replace commits an updated account over an existing entry by id.
// Usernames are immutable, so the index needs no maintenance here.
func (s *Store) Replace(a model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLocked(a)
}

// ReplaceMany commits several updated accounts as a single unit. Either
// every account is present and all replacements apply, or none do.
func (s *Store) ReplaceMany(accounts []model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range accounts {
		if _, ok := s.byID[a.ID]; !ok {
			return fmt.Errorf("%w: id %s", model.ErrNotFound, a.ID)
		}
	}
	for _, a := range accounts {
		if err := s.replaceLocked(a); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) replaceLocked(a model.Account) error {
	if _, ok := s.byID[a.ID]; !ok {
		return fmt.Errorf("%w: id %s", model.ErrNotFound, a.ID)
	}
	s.byID[a.ID] = a.Clone()
	return nil
}

// All returns copies of every account, ordered by creation time then id,
// so persisted snapshots come out deterministic.
func (s *Store) All() []model.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Account, 0, len(s.byID))
	for _, a := range s.byID {
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of accounts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
