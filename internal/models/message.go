package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a direct message between two users.
type Message struct {
	ID         string    `json:"id"`
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Text       string    `json:"text"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}
