package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/collabnet/internal/models"
)

func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return s.tx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO posts (id, user_id, content, media_key, media_type, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			p.ID, p.UserID, p.Content, p.MediaKey, p.MediaType, p.CreatedAt)
		return err
	})
}

// postSelect reads posts with author, counts and whether $1 liked each one.
const postSelect = `
	SELECT p.id, p.user_id, u.username, p.content, p.media_key, p.media_type, p.created_at,
	       (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id),
	       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id),
	       EXISTS (SELECT 1 FROM likes l WHERE l.post_id = p.id AND l.user_id = $1)
	FROM posts p
	JOIN users u ON u.id = p.user_id`

func scanPosts(rows pgx.Rows) ([]models.Post, error) {
	defer rows.Close()
	out := []models.Post{}
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Username, &p.Content, &p.MediaKey, &p.MediaType, &p.CreatedAt,
			&p.LikeCount, &p.CommentCount, &p.LikedByUser); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Feed returns the newest posts from everyone, as seen by viewer.
func (s *Store) Feed(ctx context.Context, viewer uuid.UUID, limit int) ([]models.Post, error) {
	rows, err := s.pool.Query(ctx, postSelect+`
		ORDER BY p.created_at DESC
		LIMIT $2`, viewer, limit)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

// PostsByUser returns author's posts, newest first, as seen by viewer.
func (s *Store) PostsByUser(ctx context.Context, author, viewer uuid.UUID) ([]models.Post, error) {
	rows, err := s.pool.Query(ctx, postSelect+`
		WHERE p.user_id = $2
		ORDER BY p.created_at DESC`, viewer, author)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

func (s *Store) GetPost(ctx context.Context, id, viewer uuid.UUID) (*models.Post, error) {
	rows, err := s.pool.Query(ctx, postSelect+` WHERE p.id = $2`, viewer, id)
	if err != nil {
		return nil, err
	}
	posts, err := scanPosts(rows)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, ErrNotFound
	}
	return &posts[0], nil
}

// DeletePost removes owner's post and returns its media key so the object can be dropped.
func (s *Store) DeletePost(ctx context.Context, id, owner uuid.UUID) (string, error) {
	var key string
	err := s.pool.QueryRow(ctx, `
		DELETE FROM posts WHERE id=$1 AND user_id=$2
		RETURNING media_key`, id, owner).Scan(&key)
	return key, mapErr(err)
}

// ToggleLike likes the post if user had not, and unlikes it otherwise. A concurrent like
// landing between the check and the insert is treated as a like.
func (s *Store) ToggleLike(ctx context.Context, user, post uuid.UUID) (liked bool, count int, err error) {
	err = s.tx(ctx, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id=$1)`, post).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}

		ct, err := tx.Exec(ctx, `DELETE FROM likes WHERE user_id=$1 AND post_id=$2`, user, post)
		if err != nil {
			return err
		}
		if ct.RowsAffected() > 0 {
			liked = false
			return nil
		}
		_, err = tx.Exec(ctx, `INSERT INTO likes (user_id, post_id) VALUES ($1, $2)`, user, post)
		liked = true
		return err
	})
	liked, err = settleLike(liked, err)
	if err != nil {
		return false, 0, err
	}

	err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM likes WHERE post_id=$1`, post).Scan(&count)
	return liked, count, mapErr(err)
}

// settleLike treats a unique violation on the like insert as the like having landed.
func settleLike(liked bool, err error) (bool, error) {
	if errors.Is(err, ErrDuplicate) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return liked, nil
}

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return s.tx(ctx, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id=$1)`, c.PostID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO comments (id, post_id, user_id, text, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			c.ID, c.PostID, c.UserID, c.Text, c.CreatedAt)
		return err
	})
}

// DeleteComment removes owner's comment.
func (s *Store) DeleteComment(ctx context.Context, id, owner uuid.UUID) error {
	return s.tx(ctx, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `DELETE FROM comments WHERE id=$1 AND user_id=$2`, id, owner)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Store) CommentsForPost(ctx context.Context, post uuid.UUID) ([]models.Comment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.post_id, c.user_id, u.username, c.text, c.created_at
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1
		ORDER BY c.created_at`, post)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Username, &c.Text, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var c models.Comment
	err := s.pool.QueryRow(ctx, `
		SELECT c.id, c.post_id, c.user_id, u.username, c.text, c.created_at
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.id = $1`, id).Scan(&c.ID, &c.PostID, &c.UserID, &c.Username, &c.Text, &c.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}
