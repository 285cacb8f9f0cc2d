package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/collabnet/internal/models"
)

const requestColumns = `r.id, r.sender_id, r.receiver_id, r.accepted, r.created_at`

func (s *Store) GetRequest(ctx context.Context, id uuid.UUID) (*models.FriendRequest, error) {
	var r models.FriendRequest
	err := s.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM friend_requests r WHERE r.id=$1`, id).
		Scan(&r.ID, &r.SenderID, &r.ReceiverID, &r.Accepted, &r.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &r, nil
}

// PendingRequest returns the unaccepted request from sender to receiver.
func (s *Store) PendingRequest(ctx context.Context, sender, receiver uuid.UUID) (*models.FriendRequest, error) {
	var r models.FriendRequest
	err := s.pool.QueryRow(ctx, `
		SELECT `+requestColumns+` FROM friend_requests r
		WHERE r.sender_id=$1 AND r.receiver_id=$2 AND NOT r.accepted`, sender, receiver).
		Scan(&r.ID, &r.SenderID, &r.ReceiverID, &r.Accepted, &r.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &r, nil
}

// InsertRequest stores a pending request. The partial unique index on
// (sender_id, receiver_id) turns a concurrent duplicate into ErrDuplicate.
func (s *Store) InsertRequest(ctx context.Context, req *models.FriendRequest) error {
	return s.tx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO friend_requests (id, sender_id, receiver_id, accepted, created_at)
			VALUES ($1, $2, $3, FALSE, $4)`,
			req.ID, req.SenderID, req.ReceiverID, req.CreatedAt)
		return err
	})
}

func (s *Store) DeleteRequest(ctx context.Context, id uuid.UUID) error {
	return s.tx(ctx, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `DELETE FROM friend_requests WHERE id=$1`, id)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteRequestsBetween removes request rows in both directions.
func (s *Store) DeleteRequestsBetween(ctx context.Context, u1, u2 uuid.UUID) error {
	return s.tx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, deleteBetween, u1, u2)
		return err
	})
}

const deleteBetween = `
	DELETE FROM friend_requests
	WHERE (sender_id=$1 AND receiver_id=$2)
	   OR (sender_id=$2 AND receiver_id=$1)`

// AcceptRequest flips the request to accepted and inserts the friendship in one transaction.
func (s *Store) AcceptRequest(ctx context.Context, id uuid.UUID, f models.Friendship) error {
	return s.tx(ctx, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `
			UPDATE friend_requests SET accepted=TRUE
			WHERE id=$1 AND NOT accepted`, id)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return ErrNotFound
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO friendships (user_a, user_b) VALUES ($1, $2)
			ON CONFLICT (user_a, user_b) DO NOTHING`, f.UserA, f.UserB)
		return err
	})
}

func (s *Store) listRequests(ctx context.Context, where string, user uuid.UUID) ([]models.FriendRequest, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+requestColumns+`, su.username, ru.username
		FROM friend_requests r
		JOIN users su ON su.id = r.sender_id
		JOIN users ru ON ru.id = r.receiver_id
		WHERE NOT r.accepted AND `+where+`
		ORDER BY r.created_at DESC`, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.FriendRequest{}
	for rows.Next() {
		var r models.FriendRequest
		if err := rows.Scan(&r.ID, &r.SenderID, &r.ReceiverID, &r.Accepted, &r.CreatedAt,
			&r.SenderUsername, &r.ReceiverUsername); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) InboundRequests(ctx context.Context, user uuid.UUID) ([]models.FriendRequest, error) {
	return s.listRequests(ctx, "r.receiver_id=$1", user)
}

func (s *Store) OutboundRequests(ctx context.Context, user uuid.UUID) ([]models.FriendRequest, error) {
	return s.listRequests(ctx, "r.sender_id=$1", user)
}

// PendingTargets returns everyone user has an unanswered request out to.
func (s *Store) PendingTargets(ctx context.Context, user uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT receiver_id FROM friend_requests
		WHERE sender_id=$1 AND NOT accepted`, user)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (s *Store) AreFriends(ctx context.Context, u1, u2 uuid.UUID) (bool, error) {
	f := models.NewFriendship(u1, u2)
	var ok bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM friendships WHERE user_a=$1 AND user_b=$2)`,
		f.UserA, f.UserB).Scan(&ok)
	return ok, mapErr(err)
}

// RemoveFriendship hard deletes the friendship and every request row between the pair.
func (s *Store) RemoveFriendship(ctx context.Context, u1, u2 uuid.UUID) error {
	f := models.NewFriendship(u1, u2)
	return s.tx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM friendships WHERE user_a=$1 AND user_b=$2`, f.UserA, f.UserB); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, deleteBetween, u1, u2)
		return err
	})
}

// friendEdges selects (owner, friend) for every owner in $1, from both columns.
const friendEdges = `
	SELECT user_a AS owner, user_b AS friend FROM friendships WHERE user_a = ANY($1)
	UNION ALL
	SELECT user_b AS owner, user_a AS friend FROM friendships WHERE user_b = ANY($1)`

// FriendIDs returns user's friends ordered by username.
func (s *Store) FriendIDs(ctx context.Context, user uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT e.friend FROM (`+friendEdges+`) e
		JOIN users u ON u.id = e.friend
		ORDER BY u.username`, []uuid.UUID{user})
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

// FriendsOf returns the friends of every user in users, each list ordered by username.
func (s *Store) FriendsOf(ctx context.Context, users []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT e.owner, e.friend FROM (`+friendEdges+`) e
		JOIN users u ON u.id = e.friend
		ORDER BY e.owner, u.username`, users)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]uuid.UUID, len(users))
	for rows.Next() {
		var owner, friend uuid.UUID
		if err := rows.Scan(&owner, &friend); err != nil {
			return nil, err
		}
		out[owner] = append(out[owner], friend)
	}
	return out, rows.Err()
}

// ListFriends returns user's friends as summaries, ordered by username.
func (s *Store) ListFriends(ctx context.Context, user uuid.UUID) ([]models.UserSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+summaryColumns+`
		FROM (`+friendEdges+`) e
		JOIN users u ON u.id = e.friend
		LEFT JOIN profiles p ON p.user_id = u.id
		ORDER BY u.username`, []uuid.UUID{user})
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows)
}
