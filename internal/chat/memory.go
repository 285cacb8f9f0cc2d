package chat

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/collabnet/internal/models"
)

// MemoryStore is a Store held in process, standing in for MongoDB where none is available.
type MemoryStore struct {
	mu   sync.Mutex
	msgs []models.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Insert(_ context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg.ID = strconv.Itoa(len(s.msgs) + 1)
	s.msgs = append(s.msgs, *msg)
	return nil
}

func (s *MemoryStore) Conversation(_ context.Context, a, b uuid.UUID, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Message
	for _, m := range s.msgs {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *MemoryStore) MarkRead(_ context.Context, sender, receiver uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.msgs {
		if s.msgs[i].SenderID == sender && s.msgs[i].ReceiverID == receiver {
			s.msgs[i].Read = true
		}
	}
	return nil
}

func (s *MemoryStore) UnreadCount(_ context.Context, receiver uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.msgs {
		if m.ReceiverID == receiver && !m.Read {
			n++
		}
	}
	return n, nil
}
