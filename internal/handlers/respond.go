// internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/collabnet/internal/auth"
	"github.com/jason-s-yu/collabnet/internal/database"
	"github.com/jason-s-yu/collabnet/internal/models"
	"github.com/sirupsen/logrus"
)

const maxJSONBody = 1 << 20

var errBadJSON = errors.New("invalid JSON body")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// internalError logs err with the request and answers 500 without leaking details.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).WithError(err).Error("request failed")
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// notFoundOr answers 404 with msg for a missing row and 500 otherwise.
func (s *Server) notFoundOr(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, msg)
		return
	}
	s.internalError(w, r, err)
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return errBadJSON
}

// currentUser returns the id RequireAuth stored on the request.
func currentUser(r *http.Request) uuid.UUID {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

// pathID parses a uuid URL parameter, answering 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// lookupUser resolves the {username} URL parameter, answering 404 when nobody has it.
func (s *Server) lookupUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	u, err := s.users.GetUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		s.notFoundOr(w, r, err, "user not found")
		return nil, false
	}
	return u, true
}

func (s *Server) pictureURL(key string) string {
	if key == "" {
		key = models.DefaultPictureKey
	}
	return s.media.URL(key)
}

func (s *Server) withPictures(users []models.UserSummary) []models.UserSummary {
	for i := range users {
		users[i].PictureURL = s.pictureURL(users[i].PictureKey)
	}
	return users
}

func (s *Server) withMedia(posts []models.Post) []models.Post {
	for i := range posts {
		if posts[i].MediaKey != "" {
			posts[i].MediaURL = s.media.URL(posts[i].MediaKey)
		}
	}
	return posts
}
