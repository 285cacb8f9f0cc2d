// Package chat implements direct messages between users.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/collabnet/internal/models"
	log "github.com/sirupsen/logrus"
)

// MaxMessageLength bounds a single message body, in bytes.
const MaxMessageLength = 4000

// DefaultHistoryLimit is how many messages a conversation fetch returns when unspecified.
const DefaultHistoryLimit = 100

// MaxHistoryLimit caps a single conversation fetch.
const MaxHistoryLimit = 500

var (
	ErrEmptyMessage   = errors.New("message text is required")
	ErrMessageTooLong = errors.New("message is too long")
	ErrSelfMessage    = errors.New("cannot message yourself")
)

// Store persists messages.
type Store interface {
	Insert(ctx context.Context, msg *models.Message) error
	// Conversation returns the newest limit messages between a and b, oldest first.
	Conversation(ctx context.Context, a, b uuid.UUID, limit int) ([]models.Message, error)
	// MarkRead flags every unread message from sender to receiver as read.
	MarkRead(ctx context.Context, sender, receiver uuid.UUID) error
	UnreadCount(ctx context.Context, receiver uuid.UUID) (int64, error)
}

// Publisher delivers a stored message to any live session of its receiver.
type Publisher interface {
	PublishMessage(ctx context.Context, msg models.Message) error
}

type Service struct {
	store Store
	pub   Publisher
}

// NewService builds a chat service. pub may be nil, in which case messages are only stored.
func NewService(store Store, pub Publisher) *Service {
	return &Service{store: store, pub: pub}
}

// Send stores a message from sender to receiver and pushes it to the receiver.
func (s *Service) Send(ctx context.Context, sender, receiver uuid.UUID, text string) (*models.Message, error) {
	if sender == receiver {
		return nil, ErrSelfMessage
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if len(text) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	msg := &models.Message{
		SenderID:   sender,
		ReceiverID: receiver,
		Text:       text,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, msg); err != nil {
		return nil, err
	}

	if s.pub != nil {
		if err := s.pub.PublishMessage(ctx, *msg); err != nil {
			log.WithError(err).WithField("receiver", receiver).Warn("failed to publish chat message")
		}
	}
	return msg, nil
}

// History returns the conversation between viewer and other and marks the
// messages other sent to viewer as read.
func (s *Service) History(ctx context.Context, viewer, other uuid.UUID, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)
	msgs, err := s.store.Conversation(ctx, viewer, other, limit)
	if err != nil {
		return nil, err
	}
	if err := s.store.MarkRead(ctx, other, viewer); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Unread counts the messages waiting for user.
func (s *Service) Unread(ctx context.Context, user uuid.UUID) (int64, error) {
	return s.store.UnreadCount(ctx, user)
}
