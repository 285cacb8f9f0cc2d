// internal/handlers/posts.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/jason-s-yu/collabnet/internal/media"
	"github.com/jason-s-yu/collabnet/internal/models"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 200
	maxUploadSize    = 50 << 20
	maxCommentLength = 2000
)

// Feed lists everyone's posts, newest first.
func (s *Server) Feed(w http.ResponseWriter, r *http.Request) {
	limit := defaultFeedLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxFeedLimit)
	}

	posts, err := s.posts.Feed(r.Context(), currentUser(r), limit)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": s.withMedia(posts)})
}

// CreatePost takes a multipart form with "content" and an optional "media" file.
func (s *Server) CreatePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, http.StatusBadRequest, "invalid upload")
		return
	}

	post := models.Post{
		UserID:    currentUser(r),
		Content:   strings.TrimSpace(r.FormValue("content")),
		MediaType: models.MediaNone,
	}

	file, header, err := r.FormFile("media")
	switch {
	case err == nil:
		defer file.Close()
		post.MediaType = media.Classify(header.Filename)
		if post.MediaType == models.MediaUnknown {
			writeError(w, http.StatusBadRequest, "unsupported media type")
			return
		}
		post.MediaKey = media.NewKey(media.PrefixFor(post.MediaType), header.Filename)
		if err := s.media.Upload(r.Context(), post.MediaKey, file, header.Size, header.Header.Get("Content-Type")); err != nil {
			s.internalError(w, r, err)
			return
		}
	case errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart):
	default:
		writeError(w, http.StatusBadRequest, "invalid media upload")
		return
	}

	if post.Content == "" && post.MediaKey == "" {
		writeError(w, http.StatusBadRequest, "a post needs content or media")
		return
	}

	if err := s.posts.CreatePost(r.Context(), &post); err != nil {
		if post.MediaKey != "" {
			if rmErr := s.media.Remove(r.Context(), post.MediaKey); rmErr != nil {
				s.logger.WithError(rmErr).WithField("key", post.MediaKey).Warn("failed to remove orphaned media")
			}
		}
		s.internalError(w, r, err)
		return
	}

	created, err := s.posts.GetPost(r.Context(), post.ID, post.UserID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.withMedia([]models.Post{*created})[0])
}

// DeletePost removes the caller's own post and its media object.
func (s *Server) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	me := currentUser(r)

	post, err := s.posts.GetPost(r.Context(), id, me)
	if err != nil {
		s.notFoundOr(w, r, err, "post not found")
		return
	}
	if post.UserID != me {
		writeError(w, http.StatusForbidden, "you can only delete your own posts")
		return
	}

	key, err := s.posts.DeletePost(r.Context(), id, me)
	if err != nil {
		s.notFoundOr(w, r, err, "post not found")
		return
	}
	if key != "" {
		if err := s.media.Remove(r.Context(), key); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("failed to remove post media")
		}
	}
	writeMessage(w, http.StatusOK, "post deleted")
}

// ToggleLike answers { "liked", "like_count" }.
func (s *Server) ToggleLike(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "post_id")
	if !ok {
		return
	}
	liked, count, err := s.posts.ToggleLike(r.Context(), currentUser(r), postID)
	if err != nil {
		s.notFoundOr(w, r, err, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"liked": liked, "like_count": count})
}

// AddComment answers { "success", "id", "username", "text" }.
//
// Request payload: { "text" }
func (s *Server) AddComment(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "post_id")
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, "comment text is required")
		return
	}
	if len(text) > maxCommentLength {
		writeError(w, http.StatusBadRequest, "comment is too long")
		return
	}

	me := currentUser(r)
	user, err := s.users.GetUserByID(r.Context(), me)
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	c := models.Comment{PostID: postID, UserID: me, Username: user.Username, Text: text}
	if err := s.posts.CreateComment(r.Context(), &c); err != nil {
		s.notFoundOr(w, r, err, "post not found")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"id":       c.ID,
		"username": c.Username,
		"text":     c.Text,
	})
}

func (s *Server) ListComments(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := s.posts.GetPost(r.Context(), postID, currentUser(r)); err != nil {
		s.notFoundOr(w, r, err, "post not found")
		return
	}
	comments, err := s.posts.CommentsForPost(r.Context(), postID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

func (s *Server) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	me := currentUser(r)

	c, err := s.posts.GetComment(r.Context(), id)
	if err != nil {
		s.notFoundOr(w, r, err, "comment not found")
		return
	}
	if c.UserID != me {
		writeError(w, http.StatusForbidden, "you can only delete your own comments")
		return
	}
	if err := s.posts.DeleteComment(r.Context(), id, me); err != nil {
		s.notFoundOr(w, r, err, "comment not found")
		return
	}
	writeMessage(w, http.StatusOK, "comment deleted")
}
