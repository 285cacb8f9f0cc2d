package models

// Reasons attached to a friend suggestion.
const (
	ReasonMutualFriends = "mutual_friends"
	ReasonNewUser       = "new_user"
)

type Suggestion struct {
	User        UserSummary `json:"user"`
	MutualCount int         `json:"mutual_count"`
	MutualNames []string    `json:"mutual_names"`
	Reason      string      `json:"reason"`
}
