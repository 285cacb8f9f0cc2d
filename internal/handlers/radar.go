// internal/handlers/radar.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/collabnet/internal/matching"
	"github.com/jason-s-yu/collabnet/internal/models"
)

// CollabRadar returns the skill and interest catalogs with the caller's own selections.
func (s *Server) CollabRadar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	me := currentUser(r)

	skills, err := s.collab.ListSkills(ctx)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	interests, err := s.collab.ListInterests(ctx)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	mySkills, err := s.collab.UserSkills(ctx, me)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	myInterests, err := s.collab.UserInterests(ctx, me)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	avail, err := s.collab.Availability(ctx, me)
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"skills":        skills,
		"interests":     interests,
		"my_skills":     mySkills,
		"my_interests":  myInterests,
		"availability":  avail,
		"hours_options": models.HoursBuckets,
	})
}

// CollabRadarSearch answers { "users", "total" } for a radar query.
//
// Request payload: { "skills": [ids], "interests": [ids], "min_hours" }
func (s *Server) CollabRadarSearch(w http.ResponseWriter, r *http.Request) {
	var q matching.RadarQuery
	if err := decodeJSON(r, &q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if q.MinHours < 0 {
		writeError(w, http.StatusBadRequest, "min_hours must not be negative")
		return
	}

	cands, err := s.matching.Match(r.Context(), currentUser(r), q)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	for i := range cands {
		cands[i].User.PictureURL = s.pictureURL(cands[i].User.PictureKey)
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": cands, "total": len(cands)})
}
