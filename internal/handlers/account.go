// internal/handlers/account.go
package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/jason-s-yu/collabnet/internal/auth"
	"github.com/jason-s-yu/collabnet/internal/database"
	"github.com/jason-s-yu/collabnet/internal/models"
)

const minPasswordLength = 8

// Signup creates an account (and its empty profile) and starts a session.
//
// Request payload: { "email", "username", "password", "first_name", "last_name" }
func (s *Server) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		Username  string `json:"username"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)

	switch {
	case req.Username == "" || req.Email == "" || req.Password == "":
		writeError(w, http.StatusBadRequest, "email, username and password are required")
		return
	case strings.ContainsAny(req.Username, " /"):
		writeError(w, http.StatusBadRequest, "username may not contain spaces or slashes")
		return
	case len(req.Password) < minPasswordLength:
		writeError(w, http.StatusBadRequest, "password is too short")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}

	user := models.User{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	}
	if err := s.users.CreateUser(r.Context(), &user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			writeError(w, http.StatusConflict, "username or email already taken")
			return
		}
		s.internalError(w, r, err)
		return
	}

	if _, err := s.startSession(w, &user); err != nil {
		s.internalError(w, r, err)
		return
	}
	user.Password = ""
	writeJSON(w, http.StatusCreated, user)
}

// Login checks credentials and sets the auth_token cookie.
//
// Request payload: { "login": "email or username", "password" }
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Login    string `json:"login"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	login := req.Login
	if login == "" {
		login = req.Username
	}
	if login == "" {
		login = req.Email
	}
	if login == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "login and password are required")
		return
	}

	user, err := s.users.AuthenticateUser(r.Context(), strings.TrimSpace(login), req.Password)
	if err != nil {
		if errors.Is(err, database.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		s.internalError(w, r, err)
		return
	}

	token, err := s.startSession(w, user)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeMessage(w, http.StatusOK, "logged out")
}

func (s *Server) startSession(w http.ResponseWriter, user *models.User) (string, error) {
	token, err := auth.CreateJWT(user.ID)
	if err != nil {
		return "", err
	}
	cookie := &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if auth.TokenTTL > 0 {
		cookie.MaxAge = int(auth.TokenTTL.Seconds())
	}
	http.SetCookie(w, cookie)
	return token, nil
}
