package matching

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/jason-s-yu/collabnet/internal/models"
)

// Radar weights: a shared skill counts twice as much as a shared interest.
const (
	SkillWeight    = 2
	InterestWeight = 1
)

// Radar geometry, in arbitrary display units.
const (
	MaxDistance  = 100.0
	MinDistance  = 10.0
	DistanceStep = 10.0
)

type RadarStore interface {
	// CollabProfile returns user's skills, interests and availability. A user who
	// never filled them in gets an empty profile, not an error.
	CollabProfile(ctx context.Context, user uuid.UUID) (*models.CollabProfile, error)
	// AvailableCollaborators lists users open to collaboration with at least minHours,
	// excluding self, ordered by username.
	AvailableCollaborators(ctx context.Context, self uuid.UUID, minHours int) ([]models.CollabProfile, error)
}

type RadarQuery struct {
	SkillIDs    []uuid.UUID `json:"skills"`
	InterestIDs []uuid.UUID `json:"interests"`
	MinHours    int         `json:"min_hours"`
}

type RadarCandidate struct {
	User            models.UserSummary `json:"user"`
	Score           int                `json:"score"`
	SharedSkills    int                `json:"shared_skills"`
	SharedInterests int                `json:"shared_interests"`
	Skills          []string           `json:"skills"`
	Interests       []string           `json:"interests"`
	HoursPerWeek    int                `json:"hours_per_week"`

	Distance float64 `json:"distance"`
	Angle    float64 `json:"angle"` // radians
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// Match ranks available collaborators for user by overlap with user's own skills and
// interests.
func (s *Service) Match(ctx context.Context, user uuid.UUID, q RadarQuery) ([]RadarCandidate, error) {
	me, err := s.radar.CollabProfile(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to load collab profile: %w", err)
	}
	pool, err := s.radar.AvailableCollaborators(ctx, user, q.MinHours)
	if err != nil {
		return nil, fmt.Errorf("failed to load collaborators: %w", err)
	}
	return Rank(*me, FilterCandidates(pool, user, q)), nil
}

// FilterCandidates keeps users who are available for at least q.MinHours, are not self,
// and hold one of the selected skills and one of the selected interests when those
// selections are non-empty. Duplicates are dropped, first occurrence wins.
func FilterCandidates(pool []models.CollabProfile, self uuid.UUID, q RadarQuery) []models.CollabProfile {
	skills := idSet(q.SkillIDs)
	interests := idSet(q.InterestIDs)

	seen := make(map[uuid.UUID]bool, len(pool))
	out := make([]models.CollabProfile, 0, len(pool))
	for _, p := range pool {
		id := p.User.ID
		if id == self || seen[id] {
			continue
		}
		if !p.Availability.AvailableForCollab || p.Availability.HoursPerWeek < q.MinHours {
			continue
		}
		if len(skills) > 0 && !holdsAny(p.SkillIDs, skills) {
			continue
		}
		if len(interests) > 0 && !holdsAny(p.InterestIDs, interests) {
			continue
		}
		seen[id] = true
		out = append(out, p)
	}
	return out
}

// Rank scores and places every candidate against requester, best first. Equal scores
// keep their input order.
func Rank(requester models.CollabProfile, candidates []models.CollabProfile) []RadarCandidate {
	mySkills := idSet(requester.SkillIDs)
	myInterests := idSet(requester.InterestIDs)

	out := make([]RadarCandidate, 0, len(candidates))
	for _, c := range candidates {
		sharedSkills := overlap(c.SkillIDs, mySkills)
		sharedInterests := overlap(c.InterestIDs, myInterests)
		score := Score(sharedSkills, sharedInterests)
		d, a, x, y := Place(c.User.Username, score)

		out = append(out, RadarCandidate{
			User:            c.User,
			Score:           score,
			SharedSkills:    sharedSkills,
			SharedInterests: sharedInterests,
			Skills:          nonNil(c.SkillNames),
			Interests:       nonNil(c.InterestNames),
			HoursPerWeek:    c.Availability.HoursPerWeek,
			Distance:        d,
			Angle:           a,
			X:               x,
			Y:               y,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Score weighs shared skills and shared interests.
func Score(sharedSkills, sharedInterests int) int {
	return SkillWeight*sharedSkills + InterestWeight*sharedInterests
}

// Place puts a candidate on the radar. Higher scores sit closer to the center; the
// angle is derived from the username so a user keeps the same bearing across searches.
func Place(username string, score int) (distance, angle, x, y float64) {
	distance = math.Max(MinDistance, MaxDistance-DistanceStep*float64(score))
	deg := float64(xxhash.Sum64String(username) % 360)
	angle = deg * math.Pi / 180
	x = distance * math.Cos(angle)
	y = distance * math.Sin(angle)
	return distance, angle, x, y
}

func idSet(ids []uuid.UUID) map[uuid.UUID]bool {
	m := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func holdsAny(ids []uuid.UUID, want map[uuid.UUID]bool) bool {
	for _, id := range ids {
		if want[id] {
			return true
		}
	}
	return false
}

// overlap counts distinct ids that are also in set.
func overlap(ids []uuid.UUID, set map[uuid.UUID]bool) int {
	n := 0
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if set[id] && !seen[id] {
			seen[id] = true
			n++
		}
	}
	return n
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
