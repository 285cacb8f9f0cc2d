// internal/handlers/server.go
package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/collabnet/internal/chat"
	"github.com/jason-s-yu/collabnet/internal/friends"
	"github.com/jason-s-yu/collabnet/internal/matching"
	"github.com/jason-s-yu/collabnet/internal/middleware"
	"github.com/jason-s-yu/collabnet/internal/models"
	"github.com/sirupsen/logrus"
)

// UserStore is the account and profile persistence the handlers use.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	AuthenticateUser(ctx context.Context, login, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetProfile(ctx context.Context, user uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, user uuid.UUID, bio, location string) error
	SetProfilePicture(ctx context.Context, user uuid.UUID, key string) (string, error)
	SearchUsers(ctx context.Context, q string, limit int) ([]models.UserSummary, error)
	ListFriends(ctx context.Context, user uuid.UUID) ([]models.UserSummary, error)
}

type PostStore interface {
	CreatePost(ctx context.Context, p *models.Post) error
	Feed(ctx context.Context, viewer uuid.UUID, limit int) ([]models.Post, error)
	PostsByUser(ctx context.Context, author, viewer uuid.UUID) ([]models.Post, error)
	GetPost(ctx context.Context, id, viewer uuid.UUID) (*models.Post, error)
	DeletePost(ctx context.Context, id, owner uuid.UUID) (string, error)
	ToggleLike(ctx context.Context, user, post uuid.UUID) (bool, int, error)
	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	DeleteComment(ctx context.Context, id, owner uuid.UUID) error
	CommentsForPost(ctx context.Context, post uuid.UUID) ([]models.Comment, error)
}

type CollabStore interface {
	ListSkills(ctx context.Context) ([]models.Skill, error)
	ListInterests(ctx context.Context) ([]models.ProjectInterest, error)
	AddUserSkill(ctx context.Context, user uuid.UUID, name string, level int) (*models.UserSkill, error)
	RemoveUserSkill(ctx context.Context, user, skill uuid.UUID) error
	AddUserInterest(ctx context.Context, user uuid.UUID, name string, level int) (*models.UserProjectInterest, error)
	RemoveUserInterest(ctx context.Context, user, interest uuid.UUID) error
	SetAvailability(ctx context.Context, a models.UserAvailability) error
	UserSkills(ctx context.Context, user uuid.UUID) ([]models.UserSkill, error)
	UserInterests(ctx context.Context, user uuid.UUID) ([]models.UserProjectInterest, error)
	Availability(ctx context.Context, user uuid.UUID) (models.UserAvailability, error)
}

// MediaStore holds uploaded objects.
type MediaStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
	URL(key string) string
}

// MessageSubscriber streams chat messages addressed to a user.
type MessageSubscriber interface {
	SubscribeMessages(ctx context.Context, user uuid.UUID) (<-chan models.Message, error)
}

// Deps bundles what Server needs. Subscriber may be nil, which disables /chat/ws.
type Deps struct {
	Users      UserStore
	Posts      PostStore
	Collab     CollabStore
	Friends    *friends.Service
	Matching   *matching.Service
	Chat       *chat.Service
	Media      MediaStore
	Subscriber MessageSubscriber
	Logger     *logrus.Logger
}

// Server serves the JSON API.
type Server struct {
	users      UserStore
	posts      PostStore
	collab     CollabStore
	friends    *friends.Service
	matching   *matching.Service
	chat       *chat.Service
	media      MediaStore
	subscriber MessageSubscriber
	logger     *logrus.Logger
}

func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		users:      d.Users,
		posts:      d.Posts,
		collab:     d.Collab,
		friends:    d.Friends,
		matching:   d.Matching,
		chat:       d.Chat,
		media:      d.Media,
		subscriber: d.Subscriber,
		logger:     logger,
	}
}

// Routes mounts every endpoint. Everything except signup, login and health needs a
// session cookie.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.Health)
	r.Post("/signup", s.Signup)
	r.Post("/login", s.Login)
	r.Post("/logout", s.Logout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Get("/feed", s.Feed)
		r.Post("/post/create", s.CreatePost)
		r.Post("/post/{id}/delete", s.DeletePost)
		r.Get("/post/{id}/comments", s.ListComments)
		r.Post("/like/ajax/{post_id}", s.ToggleLike)
		r.Post("/comment/ajax/{post_id}", s.AddComment)
		r.Post("/comment/{id}/delete", s.DeleteComment)

		r.Get("/profile/{username}", s.ViewProfile)
		r.Post("/profile/{username}/edit", s.EditProfile)
		r.Post("/profile/upload-pic", s.UploadProfilePicture)
		r.Post("/profile/skills/add", s.AddSkill)
		r.Post("/profile/skills/remove/{id}", s.RemoveSkill)
		r.Post("/profile/interests/add", s.AddInterest)
		r.Post("/profile/interests/remove/{id}", s.RemoveInterest)
		r.Post("/profile/availability", s.SetAvailability)

		r.Post("/send-friend-request/{username}", s.SendFriendRequest)
		r.Post("/accept-friend-request/{id}", s.AcceptFriendRequest)
		r.Post("/decline-friend-request/{id}", s.DeclineFriendRequest)
		r.Post("/friend-requests/cancel/{id}", s.CancelFriendRequest)
		r.Post("/remove-friend/{username}", s.RemoveFriend)
		r.Get("/friend-requests", s.ListFriendRequests)
		r.Get("/friends", s.ListFriends)
		r.Get("/friends/suggestions", s.FriendSuggestions)

		r.Get("/collab-radar", s.CollabRadar)
		r.Post("/collab-radar/search", s.CollabRadarSearch)

		r.Get("/search/users", s.SearchUsers)

		r.Get("/chat/{username}/messages", s.ChatHistory)
		r.Post("/chat/{username}/send", s.SendMessage)
		r.Get("/chat/unread", s.UnreadMessages)
		r.Get("/chat/ws", s.ChatWS)
	})

	return r
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
