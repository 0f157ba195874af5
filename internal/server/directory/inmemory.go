package directory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/peerlink/internal/server/models"
	"github.com/dmitrijs2005/peerlink/internal/shared"
)

// InMemoryRepository keeps user records in a map guarded by an RWMutex.
// All records are stored and returned as copies, so a rotation in flight can
// never leak a half-written record to a reader. List order is unspecified.
type InMemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{users: make(map[string]*models.User)}
}

func (r *InMemoryRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[user.ID] = user.Clone()
	return nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, shared.ErrorNotFound
	}
	return user.Clone(), nil
}

func (r *InMemoryRepository) List(ctx context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u.Clone())
	}
	return out, nil
}

func (r *InMemoryRepository) UpdateSession(ctx context.Context, id, sessionID, networkKey string, lastLogin time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, shared.ErrorNotFound
	}

	user.SessionID = sessionID
	user.NetworkKey = networkKey
	user.LastLogin = lastLogin

	return user.Clone(), nil
}

func (r *InMemoryRepository) AddConnection(ctx context.Context, a, b string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.addConnectionLocked(a, b)
	r.addConnectionLocked(b, a)
	return nil
}

func (r *InMemoryRepository) addConnectionLocked(id, peerID string) {
	user, ok := r.users[id]
	if !ok {
		return
	}
	if !slices.Contains(user.Connections, peerID) {
		user.Connections = append(user.Connections, peerID)
	}
}

func (r *InMemoryRepository) IncrementMessageCount(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return shared.ErrorNotFound
	}
	user.MessageCount++
	return nil
}
