package models

import (
	"time"

	"github.com/google/uuid"
)

// Media types attached to a post.
const (
	MediaNone    = "none"
	MediaImage   = "image"
	MediaVideo   = "video"
	MediaUnknown = "unknown"
)

type Post struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	MediaKey  string    `json:"-"`
	MediaType string    `json:"media_type"`
	MediaURL  string    `json:"media_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	LikeCount    int  `json:"like_count"`
	CommentCount int  `json:"comment_count"`
	LikedByUser  bool `json:"liked_by_user"`
}

type Comment struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"post_id"`
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
