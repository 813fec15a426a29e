package repository

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/okian/carom/internal/domain/model"
)

// MemoryStore is a Store kept entirely in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]model.User
	games     map[string][]model.Game // by user id, most recent first
	gameOwner map[string]string       // game id -> user id
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]model.User),
		games:     make(map[string][]model.Game),
		gameOwner: make(map[string]string),
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, u model.User) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		observe(DriverMemory, "create_user", start, ErrConflict)
		return ErrConflict
	}
	s.users[u.ID] = u
	observe(DriverMemory, "create_user", start, nil)
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (model.User, error) {
	start := time.Now()
	s.mu.RLock()
	u, ok := s.users[id]
	s.mu.RUnlock()
	if !ok {
		observe(DriverMemory, "get_user", start, ErrNotFound)
		return model.User{}, ErrNotFound
	}
	observe(DriverMemory, "get_user", start, nil)
	return u, nil
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]model.User, error) {
	start := time.Now()
	s.mu.RLock()
	users := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	s.mu.RUnlock()
	sortUsers(users)
	observe(DriverMemory, "list_users", start, nil)
	return users, nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, u model.User) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.users[u.ID]
	if !ok {
		observe(DriverMemory, "update_user", start, ErrNotFound)
		return ErrNotFound
	}
	old.Name, old.Handicap, old.UpdatedAt = u.Name, u.Handicap, u.UpdatedAt
	s.users[u.ID] = old
	observe(DriverMemory, "update_user", start, nil)
	return nil
}

func (s *MemoryStore) AddGame(_ context.Context, g model.Game) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[g.UserID]; !ok {
		observe(DriverMemory, "add_game", start, ErrNotFound)
		return ErrNotFound
	}
	if _, ok := s.gameOwner[g.ID]; ok {
		observe(DriverMemory, "add_game", start, ErrConflict)
		return ErrConflict
	}
	games := append(s.games[g.UserID], g)
	model.SortByDateDesc(games)
	s.games[g.UserID] = games
	s.gameOwner[g.ID] = g.UserID
	observe(DriverMemory, "add_game", start, nil)
	return nil
}

func (s *MemoryStore) GetGame(_ context.Context, userID, gameID string) (model.Game, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.gameOwner[gameID] == userID {
		for _, g := range s.games[userID] {
			if g.ID == gameID {
				observe(DriverMemory, "get_game", start, nil)
				return g, nil
			}
		}
	}
	observe(DriverMemory, "get_game", start, ErrNotFound)
	return model.Game{}, ErrNotFound
}

func (s *MemoryStore) DeleteGame(_ context.Context, userID, gameID string) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.gameOwner[gameID]; !ok || owner != userID {
		observe(DriverMemory, "delete_game", start, ErrNotFound)
		return ErrNotFound
	}
	s.games[userID] = slices.DeleteFunc(s.games[userID], func(g model.Game) bool { return g.ID == gameID })
	delete(s.gameOwner, gameID)
	observe(DriverMemory, "delete_game", start, nil)
	return nil
}

func (s *MemoryStore) ListGames(_ context.Context, userID string) ([]model.Game, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.users[userID]; !ok {
		observe(DriverMemory, "list_games", start, ErrNotFound)
		return nil, ErrNotFound
	}
	out := slices.Clone(s.games[userID])
	if out == nil {
		out = []model.Game{}
	}
	observe(DriverMemory, "list_games", start, nil)
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// sortUsers orders users by name, then id.
func sortUsers(users []model.User) {
	slices.SortFunc(users, func(a, b model.User) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
