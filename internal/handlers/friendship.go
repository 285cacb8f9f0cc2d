// internal/handlers/friendship.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/jason-s-yu/collabnet/internal/friends"
	"github.com/jason-s-yu/collabnet/internal/models"
)

// friendError maps the request state machine's errors onto responses.
func (s *Server) friendError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, friends.ErrRequestNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, friends.ErrSelfRequest),
		errors.Is(err, friends.ErrAlreadyFriends),
		errors.Is(err, friends.ErrNotFriends):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.internalError(w, r, err)
	}
}

func requestBody(msg string, req *models.FriendRequest) map[string]any {
	return map[string]any{"message": msg, "request": req}
}

// SendFriendRequest sends a request to {username}. Sending one that is already
// pending answers 200 with the existing request.
func (s *Server) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	target, ok := s.lookupUser(w, r)
	if !ok {
		return
	}
	req, err := s.friends.Send(r.Context(), currentUser(r), target.ID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, requestBody("Friend request sent to "+target.Username+".", req))
	case errors.Is(err, friends.ErrAlreadySent):
		writeJSON(w, http.StatusOK, requestBody("Friend request already sent.", req))
	default:
		s.friendError(w, r, err)
	}
}

func (s *Server) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	req, err := s.friends.Accept(r.Context(), id, currentUser(r))
	if err != nil {
		s.friendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requestBody("Friend request accepted.", req))
}

func (s *Server) DeclineFriendRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.friends.Decline(r.Context(), id, currentUser(r)); err != nil {
		s.friendError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Friend request declined.")
}

func (s *Server) CancelFriendRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.friends.Cancel(r.Context(), id, currentUser(r)); err != nil {
		s.friendError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Friend request cancelled.")
}

func (s *Server) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	target, ok := s.lookupUser(w, r)
	if !ok {
		return
	}
	if err := s.friends.Remove(r.Context(), currentUser(r), target.ID); err != nil {
		s.friendError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "You are no longer friends with "+target.Username+".")
}

// ListFriendRequests answers { "inbound", "outbound" } pending requests.
func (s *Server) ListFriendRequests(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	inbound, err := s.friends.Inbound(r.Context(), me)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	outbound, err := s.friends.Outbound(r.Context(), me)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"inbound": inbound, "outbound": outbound})
}

func (s *Server) ListFriends(w http.ResponseWriter, r *http.Request) {
	list, err := s.users.ListFriends(r.Context(), currentUser(r))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"friends": s.withPictures(list)})
}

// FriendSuggestions answers { "suggestions" }, ranked by mutual friends.
func (s *Server) FriendSuggestions(w http.ResponseWriter, r *http.Request) {
	list, err := s.matching.Suggest(r.Context(), currentUser(r))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	out := make([]models.Suggestion, len(list))
	for i, sg := range list {
		sg.User.PictureURL = s.pictureURL(sg.User.PictureKey)
		out[i] = sg
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": out})
}
