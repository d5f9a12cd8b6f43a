package memory

import (
	"context"
	"sync"

	"expensetracker/internal/core"
)

type UserTable struct {
	mu    sync.RWMutex
	items map[string]core.UserProfile
}

func NewUserTable() *UserTable {
	return &UserTable{items: make(map[string]core.UserProfile)}
}

func (t *UserTable) GetUser(_ context.Context, userID string) (*core.UserProfile, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.items[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (t *UserTable) PutUser(_ context.Context, p core.UserProfile) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items[p.UserID] = p
	return nil
}

func (t *UserTable) BatchGetUsers(_ context.Context, userIDs []string) ([]core.UserProfile, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]core.UserProfile, 0, len(userIDs))
	for _, id := range userIDs {
		if p, ok := t.items[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (t *UserTable) FindUserByEmail(_ context.Context, email string) (*core.UserProfile, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, p := range t.items {
		if p.Email == email {
			return &p, nil
		}
	}
	return nil, nil
}
