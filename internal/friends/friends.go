// Package friends implements the friend-request lifecycle:
// none -> pending -> friends, with decline/cancel returning to none.
package friends

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/collabnet/internal/database"
	"github.com/jason-s-yu/collabnet/internal/models"
	log "github.com/sirupsen/logrus"
)

var (
	ErrSelfRequest     = errors.New("you cannot send a friend request to yourself")
	ErrAlreadySent     = errors.New("a friend request has already been sent")
	ErrAlreadyFriends  = errors.New("you are already friends")
	ErrRequestNotFound = errors.New("this friend request does not exist or has already been processed")
	ErrNotFriends      = errors.New("not friends")
)

// Store is the persistence the state machine needs. Missing rows are reported as
// database.ErrNotFound and unique violations as database.ErrDuplicate.
type Store interface {
	GetRequest(ctx context.Context, id uuid.UUID) (*models.FriendRequest, error)
	PendingRequest(ctx context.Context, sender, receiver uuid.UUID) (*models.FriendRequest, error)
	InsertRequest(ctx context.Context, req *models.FriendRequest) error
	DeleteRequest(ctx context.Context, id uuid.UUID) error
	DeleteRequestsBetween(ctx context.Context, u1, u2 uuid.UUID) error
	// AcceptRequest marks the request accepted and stores the friendship atomically.
	AcceptRequest(ctx context.Context, id uuid.UUID, f models.Friendship) error
	InboundRequests(ctx context.Context, user uuid.UUID) ([]models.FriendRequest, error)
	OutboundRequests(ctx context.Context, user uuid.UUID) ([]models.FriendRequest, error)
	AreFriends(ctx context.Context, u1, u2 uuid.UUID) (bool, error)
	// RemoveFriendship drops the edge and any request rows between the pair.
	RemoveFriendship(ctx context.Context, u1, u2 uuid.UUID) error
	FriendIDs(ctx context.Context, user uuid.UUID) ([]uuid.UUID, error)
}

// Invalidator is told which users' derived data went stale after a mutation.
type Invalidator interface {
	InvalidateSuggestions(ctx context.Context, users ...uuid.UUID) error
}

// State is the relation between a viewer and another user.
type State string

const (
	StateSelf            State = "self"
	StateNone            State = "none"
	StatePendingOutbound State = "pending_outbound"
	StatePendingInbound  State = "pending_inbound"
	StateFriends         State = "friends"
)

// Relation is what Status returns. RequestID is set for the pending states.
type Relation struct {
	State     State     `json:"state"`
	RequestID uuid.UUID `json:"request_id,omitempty"`
}

type Service struct {
	store Store
	inv   Invalidator
}

// NewService returns a Service backed by store. inv may be nil.
func NewService(store Store, inv Invalidator) *Service {
	return &Service{store: store, inv: inv}
}

// Send creates a pending request from sender to receiver. Stale rows between the two
// users are cleared first. If the same request is already pending, it is returned
// together with ErrAlreadySent and nothing is written.
func (s *Service) Send(ctx context.Context, sender, receiver uuid.UUID) (*models.FriendRequest, error) {
	if sender == receiver {
		return nil, ErrSelfRequest
	}

	friends, err := s.store.AreFriends(ctx, sender, receiver)
	if err != nil {
		return nil, fmt.Errorf("failed to check friendship: %w", err)
	}
	if friends {
		return nil, ErrAlreadyFriends
	}

	existing, err := s.store.PendingRequest(ctx, sender, receiver)
	switch {
	case err == nil:
		return existing, ErrAlreadySent
	case !errors.Is(err, database.ErrNotFound):
		return nil, fmt.Errorf("failed to look up pending request: %w", err)
	}

	if err := s.store.DeleteRequestsBetween(ctx, sender, receiver); err != nil {
		return nil, fmt.Errorf("failed to clear stale requests: %w", err)
	}

	req := &models.FriendRequest{
		ID:         uuid.New(),
		SenderID:   sender,
		ReceiverID: receiver,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.InsertRequest(ctx, req); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			// a concurrent send won the race
			existing, getErr := s.store.PendingRequest(ctx, sender, receiver)
			if getErr != nil {
				return nil, ErrAlreadySent
			}
			return existing, ErrAlreadySent
		}
		return nil, fmt.Errorf("failed to insert friend request: %w", err)
	}

	s.invalidate(ctx, sender, receiver)
	return req, nil
}

// Accept turns a pending request addressed to receiver into a friendship.
func (s *Service) Accept(ctx context.Context, requestID, receiver uuid.UUID) (*models.FriendRequest, error) {
	req, err := s.pendingFor(ctx, requestID, func(r *models.FriendRequest) bool {
		return r.ReceiverID == receiver
	})
	if err != nil {
		return nil, err
	}

	err = s.store.AcceptRequest(ctx, req.ID, models.NewFriendship(req.SenderID, req.ReceiverID))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to accept friend request: %w", err)
	}
	req.Accepted = true

	s.invalidateAround(ctx, req.SenderID, req.ReceiverID)
	return req, nil
}

// Decline deletes a pending request addressed to receiver.
func (s *Service) Decline(ctx context.Context, requestID, receiver uuid.UUID) error {
	return s.drop(ctx, requestID, func(r *models.FriendRequest) bool {
		return r.ReceiverID == receiver
	})
}

// Cancel deletes a pending request that sender sent.
func (s *Service) Cancel(ctx context.Context, requestID, sender uuid.UUID) error {
	return s.drop(ctx, requestID, func(r *models.FriendRequest) bool {
		return r.SenderID == sender
	})
}

// Remove ends the friendship between user and friend.
func (s *Service) Remove(ctx context.Context, user, friend uuid.UUID) error {
	ok, err := s.store.AreFriends(ctx, user, friend)
	if err != nil {
		return fmt.Errorf("failed to check friendship: %w", err)
	}
	if !ok {
		return ErrNotFriends
	}
	if err := s.store.RemoveFriendship(ctx, user, friend); err != nil {
		return fmt.Errorf("failed to remove friend: %w", err)
	}
	s.invalidateAround(ctx, user, friend)
	return nil
}

// Status reports how viewer relates to other.
func (s *Service) Status(ctx context.Context, viewer, other uuid.UUID) (Relation, error) {
	if viewer == other {
		return Relation{State: StateSelf}, nil
	}

	ok, err := s.store.AreFriends(ctx, viewer, other)
	if err != nil {
		return Relation{}, err
	}
	if ok {
		return Relation{State: StateFriends}, nil
	}

	if r, err := s.store.PendingRequest(ctx, viewer, other); err == nil {
		return Relation{State: StatePendingOutbound, RequestID: r.ID}, nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return Relation{}, err
	}

	if r, err := s.store.PendingRequest(ctx, other, viewer); err == nil {
		return Relation{State: StatePendingInbound, RequestID: r.ID}, nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return Relation{}, err
	}

	return Relation{State: StateNone}, nil
}

// Inbound lists requests waiting for user's answer.
func (s *Service) Inbound(ctx context.Context, user uuid.UUID) ([]models.FriendRequest, error) {
	return s.store.InboundRequests(ctx, user)
}

// Outbound lists requests user sent that are still pending.
func (s *Service) Outbound(ctx context.Context, user uuid.UUID) ([]models.FriendRequest, error) {
	return s.store.OutboundRequests(ctx, user)
}

// FriendIDs returns user's direct friends.
func (s *Service) FriendIDs(ctx context.Context, user uuid.UUID) ([]uuid.UUID, error) {
	return s.store.FriendIDs(ctx, user)
}

func (s *Service) pendingFor(ctx context.Context, id uuid.UUID, allowed func(*models.FriendRequest) bool) (*models.FriendRequest, error) {
	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to load friend request: %w", err)
	}
	if req.Accepted || !allowed(req) {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

func (s *Service) drop(ctx context.Context, id uuid.UUID, allowed func(*models.FriendRequest) bool) error {
	req, err := s.pendingFor(ctx, id, allowed)
	if err != nil {
		return err
	}
	if err := s.store.DeleteRequest(ctx, req.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrRequestNotFound
		}
		return fmt.Errorf("failed to delete friend request: %w", err)
	}
	s.invalidate(ctx, req.SenderID, req.ReceiverID)
	return nil
}

// invalidateAround clears suggestions for u1, u2 and every friend of either. A changed
// edge alters mutual counts for anyone within two hops of it.
func (s *Service) invalidateAround(ctx context.Context, u1, u2 uuid.UUID) {
	if s.inv == nil {
		return
	}
	seen := map[uuid.UUID]bool{u1: true, u2: true}
	users := []uuid.UUID{u1, u2}
	for _, u := range []uuid.UUID{u1, u2} {
		ids, err := s.store.FriendIDs(ctx, u)
		if err != nil {
			log.WithError(err).WithField("user", u).Warn("failed to list friends for cache invalidation")
			continue
		}
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				users = append(users, id)
			}
		}
	}
	s.invalidate(ctx, users...)
}

func (s *Service) invalidate(ctx context.Context, users ...uuid.UUID) {
	if s.inv == nil {
		return
	}
	if err := s.inv.InvalidateSuggestions(ctx, users...); err != nil {
		log.WithError(err).Warn("failed to invalidate cached suggestions")
	}
}
