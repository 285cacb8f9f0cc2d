package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultPictureKey is the media object shown for users who never uploaded a picture.
const DefaultPictureKey = "profile_pics/default.jpg"

type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email,omitempty"`
	Password  string    `json:"password,omitempty"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`

	DateJoined time.Time `json:"date_joined"`
}

// Profile holds the editable, public part of a user. Exactly one exists per user.
type Profile struct {
	UserID     uuid.UUID `json:"user_id"`
	Bio        string    `json:"bio"`
	Location   string    `json:"location"`
	PictureKey string    `json:"-"`
	PictureURL string    `json:"profile_picture"`
}

// UserSummary is the compact form used in lists (search, friends, suggestions).
type UserSummary struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	PictureKey string    `json:"-"`
	PictureURL string    `json:"profile_picture,omitempty"`
}
