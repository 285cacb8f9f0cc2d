package friends

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/collabnet/internal/database"
	"github.com/jason-s-yu/collabnet/internal/graph"
	"github.com/jason-s-yu/collabnet/internal/models"
)

// MemoryStore keeps requests and friendships in process, standing in for Postgres
// where no database is available.
type MemoryStore struct {
	mu       sync.Mutex
	graph    *graph.Graph
	requests map[uuid.UUID]*models.FriendRequest
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		graph:    graph.New(),
		requests: make(map[uuid.UUID]*models.FriendRequest),
	}
}

func (m *MemoryStore) GetRequest(_ context.Context, id uuid.UUID) (*models.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) PendingRequest(_ context.Context, sender, receiver uuid.UUID) (*models.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if !r.Accepted && r.SenderID == sender && r.ReceiverID == receiver {
			cp := *r
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *MemoryStore) InsertRequest(_ context.Context, req *models.FriendRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if !r.Accepted && r.SenderID == req.SenderID && r.ReceiverID == req.ReceiverID {
			return database.ErrDuplicate
		}
	}
	cp := *req
	m.requests[req.ID] = &cp
	return nil
}

func (m *MemoryStore) DeleteRequest(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.requests, id)
	return nil
}

func (m *MemoryStore) DeleteRequestsBetween(_ context.Context, u1, u2 uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteBetween(u1, u2)
	return nil
}

func (m *MemoryStore) AcceptRequest(_ context.Context, id uuid.UUID, f models.Friendship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.Accepted {
		return database.ErrNotFound
	}
	r.Accepted = true
	m.graph.Add(f.UserA, f.UserB)
	return nil
}

func (m *MemoryStore) InboundRequests(_ context.Context, user uuid.UUID) ([]models.FriendRequest, error) {
	return m.list(func(r *models.FriendRequest) bool { return r.ReceiverID == user }), nil
}

func (m *MemoryStore) OutboundRequests(_ context.Context, user uuid.UUID) ([]models.FriendRequest, error) {
	return m.list(func(r *models.FriendRequest) bool { return r.SenderID == user }), nil
}

func (m *MemoryStore) AreFriends(_ context.Context, u1, u2 uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.graph.Connected(u1, u2), nil
}

func (m *MemoryStore) RemoveFriendship(_ context.Context, u1, u2 uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.graph.Remove(u1, u2)
	m.deleteBetween(u1, u2)
	return nil
}

func (m *MemoryStore) FriendIDs(_ context.Context, user uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.graph.Neighbors(user), nil
}

// AddFriendship seeds an edge directly.
func (m *MemoryStore) AddFriendship(u1, u2 uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.graph.Add(u1, u2)
}

// RequestCount is the number of stored request rows, accepted or not.
func (m *MemoryStore) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *MemoryStore) deleteBetween(u1, u2 uuid.UUID) {
	for id, r := range m.requests {
		if (r.SenderID == u1 && r.ReceiverID == u2) || (r.SenderID == u2 && r.ReceiverID == u1) {
			delete(m.requests, id)
		}
	}
}

func (m *MemoryStore) list(match func(*models.FriendRequest) bool) []models.FriendRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.FriendRequest
	for _, r := range m.requests {
		if !r.Accepted && match(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
