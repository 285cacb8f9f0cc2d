package models

import "github.com/google/uuid"

// Skill proficiency levels.
const (
	SkillBeginner     = 1
	SkillIntermediate = 2
	SkillAdvanced     = 3
	SkillExpert       = 4
)

// Interest levels.
const (
	InterestLow    = 1
	InterestMedium = 2
	InterestHigh   = 3
)

// HoursBuckets are the accepted weekly-hours tiers, "up to N hours per week".
var HoursBuckets = []int{5, 10, 20, 40}

// ValidHoursBucket reports whether h is one of HoursBuckets.
func ValidHoursBucket(h int) bool {
	for _, b := range HoursBuckets {
		if b == h {
			return true
		}
	}
	return false
}

type Skill struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type ProjectInterest struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type UserSkill struct {
	UserID uuid.UUID `json:"user_id"`
	Skill  Skill     `json:"skill"`
	Level  int       `json:"level"`
}

type UserProjectInterest struct {
	UserID   uuid.UUID       `json:"user_id"`
	Interest ProjectInterest `json:"interest"`
	Level    int             `json:"level"`
}

type UserAvailability struct {
	UserID             uuid.UUID `json:"user_id"`
	AvailableForCollab bool      `json:"available_for_collab"`
	HoursPerWeek       int       `json:"hours_per_week"`
}

// CollabProfile bundles everything the collaborator radar needs about one user.
type CollabProfile struct {
	User          UserSummary      `json:"user"`
	Availability  UserAvailability `json:"availability"`
	SkillIDs      []uuid.UUID      `json:"skill_ids"`
	InterestIDs   []uuid.UUID      `json:"interest_ids"`
	SkillNames    []string         `json:"skills"`
	InterestNames []string         `json:"interests"`
}
