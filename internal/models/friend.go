package models

import (
	"time"

	"github.com/google/uuid"
)

// Friendship is an undirected edge. UserA always sorts before UserB.
type Friendship struct {
	UserA     uuid.UUID `json:"user_a"`
	UserB     uuid.UUID `json:"user_b"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFriendship orders the pair so that the same two users always produce the same edge.
func NewFriendship(u1, u2 uuid.UUID) Friendship {
	if CompareIDs(u2, u1) < 0 {
		u1, u2 = u2, u1
	}
	return Friendship{UserA: u1, UserB: u2}
}

type FriendRequest struct {
	ID         uuid.UUID `json:"id"`
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Accepted   bool      `json:"accepted"`
	CreatedAt  time.Time `json:"created_at"`

	// filled in by list queries
	SenderUsername   string `json:"sender_username,omitempty"`
	ReceiverUsername string `json:"receiver_username,omitempty"`
}

// CompareIDs orders uuids bytewise.
func CompareIDs(a, b uuid.UUID) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
