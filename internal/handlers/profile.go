// internal/handlers/profile.go
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jason-s-yu/collabnet/internal/friends"
	"github.com/jason-s-yu/collabnet/internal/media"
	"github.com/jason-s-yu/collabnet/internal/models"
)

const (
	maxBioLength      = 500
	maxLocationLength = 100
	searchLimit       = 20
)

type profileView struct {
	User              models.User                  `json:"user"`
	Profile           models.Profile               `json:"profile"`
	Relation          friends.Relation             `json:"relation"`
	IsFriend          bool                         `json:"is_friend"`
	FriendRequestSent bool                         `json:"friend_request_sent"`
	FriendCount       int                          `json:"friend_count"`
	Skills            []models.UserSkill           `json:"skills"`
	Interests         []models.UserProjectInterest `json:"interests"`
	Availability      models.UserAvailability      `json:"availability"`
	Posts             []models.Post                `json:"posts,omitempty"`
	FriendRequests    []models.FriendRequest       `json:"friend_requests,omitempty"`
}

// ViewProfile shows a user's profile. Posts are only included for the owner and
// their friends; the owner also sees pending inbound requests.
func (s *Server) ViewProfile(w http.ResponseWriter, r *http.Request) {
	target, ok := s.lookupUser(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	me := currentUser(r)

	profile, err := s.users.GetProfile(ctx, target.ID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	profile.PictureURL = s.pictureURL(profile.PictureKey)

	rel, err := s.friends.Status(ctx, me, target.ID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	friendIDs, err := s.friends.FriendIDs(ctx, target.ID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	skills, err := s.collab.UserSkills(ctx, target.ID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	interests, err := s.collab.UserInterests(ctx, target.ID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	avail, err := s.collab.Availability(ctx, target.ID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	user := *target
	user.Password = ""
	if rel.State != friends.StateSelf {
		user.Email = ""
	}

	view := profileView{
		User:              user,
		Profile:           *profile,
		Relation:          rel,
		IsFriend:          rel.State == friends.StateFriends,
		FriendRequestSent: rel.State == friends.StatePendingOutbound,
		FriendCount:       len(friendIDs),
		Skills:            skills,
		Interests:         interests,
		Availability:      avail,
	}

	if rel.State == friends.StateSelf || rel.State == friends.StateFriends {
		posts, err := s.posts.PostsByUser(ctx, target.ID, me)
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		view.Posts = s.withMedia(posts)
	}
	if rel.State == friends.StateSelf {
		view.FriendRequests, err = s.friends.Inbound(ctx, me)
		if err != nil {
			s.internalError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, view)
}

// EditProfile updates the caller's bio and location.
//
// Request payload: { "bio", "location" }
func (s *Server) EditProfile(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	target, ok := s.lookupUser(w, r)
	if !ok {
		return
	}
	if target.ID != me {
		writeError(w, http.StatusForbidden, "you can only edit your own profile")
		return
	}

	var req struct {
		Bio      string `json:"bio"`
		Location string `json:"location"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bio, location := strings.TrimSpace(req.Bio), strings.TrimSpace(req.Location)
	if len(bio) > maxBioLength || len(location) > maxLocationLength {
		writeError(w, http.StatusBadRequest, "bio or location is too long")
		return
	}

	// GetProfile creates the row for accounts that predate profiles.
	if _, err := s.users.GetProfile(r.Context(), me); err != nil {
		s.internalError(w, r, err)
		return
	}
	if err := s.users.UpdateProfile(r.Context(), me, bio, location); err != nil {
		s.notFoundOr(w, r, err, "profile not found")
		return
	}
	writeMessage(w, http.StatusOK, "profile updated")
}

// UploadProfilePicture replaces the caller's picture with the multipart "picture" file.
func (s *Server) UploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("picture")
	if err != nil {
		writeError(w, http.StatusBadRequest, "picture file is required")
		return
	}
	defer file.Close()
	if !media.IsImage(header.Filename) {
		writeError(w, http.StatusBadRequest, "picture must be a jpg, png or gif")
		return
	}

	ctx := r.Context()
	me := currentUser(r)
	if _, err := s.users.GetProfile(ctx, me); err != nil {
		s.internalError(w, r, err)
		return
	}

	key := media.NewKey(media.ProfilePicPrefix, header.Filename)
	if err := s.media.Upload(ctx, key, file, header.Size, header.Header.Get("Content-Type")); err != nil {
		s.internalError(w, r, err)
		return
	}
	old, err := s.users.SetProfilePicture(ctx, me, key)
	if err != nil {
		if rmErr := s.media.Remove(ctx, key); rmErr != nil {
			s.logger.WithError(rmErr).WithField("key", key).Warn("failed to remove orphaned media")
		}
		s.internalError(w, r, err)
		return
	}
	if old != "" && old != models.DefaultPictureKey {
		if err := s.media.Remove(ctx, old); err != nil {
			s.logger.WithError(err).WithField("key", old).Warn("failed to remove old profile picture")
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"profile_picture": s.media.URL(key)})
}

// SearchUsers matches ?q= against usernames and names.
func (s *Server) SearchUsers(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusOK, map[string]any{"results": []models.UserSummary{}})
		return
	}
	results, err := s.users.SearchUsers(r.Context(), q, searchLimit)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": s.withPictures(results)})
}

// tagRequest is the payload for adding a skill or interest by name.
type tagRequest struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

func (s *Server) readTag(w http.ResponseWriter, r *http.Request, maxLevel int) (tagRequest, bool) {
	var req tagRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return req, false
	}
	if req.Level < 1 || req.Level > maxLevel {
		writeError(w, http.StatusBadRequest, "level must be between 1 and "+strconv.Itoa(maxLevel))
		return req, false
	}
	return req, true
}

func (s *Server) AddSkill(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readTag(w, r, models.SkillExpert)
	if !ok {
		return
	}
	skill, err := s.collab.AddUserSkill(r.Context(), currentUser(r), req.Name, req.Level)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, skill)
}

func (s *Server) RemoveSkill(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.collab.RemoveUserSkill(r.Context(), currentUser(r), id); err != nil {
		s.notFoundOr(w, r, err, "skill not found")
		return
	}
	writeMessage(w, http.StatusOK, "skill removed")
}

func (s *Server) AddInterest(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readTag(w, r, models.InterestHigh)
	if !ok {
		return
	}
	interest, err := s.collab.AddUserInterest(r.Context(), currentUser(r), req.Name, req.Level)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, interest)
}

func (s *Server) RemoveInterest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.collab.RemoveUserInterest(r.Context(), currentUser(r), id); err != nil {
		s.notFoundOr(w, r, err, "interest not found")
		return
	}
	writeMessage(w, http.StatusOK, "interest removed")
}

// SetAvailability updates whether the caller is open to collaboration and for how long.
//
// Request payload: { "available_for_collab", "hours_per_week" }
func (s *Server) SetAvailability(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AvailableForCollab bool `json:"available_for_collab"`
		HoursPerWeek       int  `json:"hours_per_week"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !models.ValidHoursBucket(req.HoursPerWeek) {
		writeError(w, http.StatusBadRequest, "hours_per_week must be one of 5, 10, 20, 40")
		return
	}
	a := models.UserAvailability{
		UserID:             currentUser(r),
		AvailableForCollab: req.AvailableForCollab,
		HoursPerWeek:       req.HoursPerWeek,
	}
	if err := s.collab.SetAvailability(r.Context(), a); err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
