// Package matching ranks users for friend suggestions and for the collaborator radar.
package matching

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jason-s-yu/collabnet/internal/models"
	log "github.com/sirupsen/logrus"
)

const (
	// SuggestionLimit caps both mutual-friend and new-user suggestions.
	SuggestionLimit = 10
	// MutualNamesLimit caps how many shared friends are named per suggestion.
	MutualNamesLimit = 3
)

// SuggestionStore is the read side of the friend graph the suggester needs.
type SuggestionStore interface {
	HasProfile(ctx context.Context, user uuid.UUID) (bool, error)
	FriendIDs(ctx context.Context, user uuid.UUID) ([]uuid.UUID, error)
	// FriendsOf returns the direct friends of every given user.
	FriendsOf(ctx context.Context, users []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
	// PendingTargets returns the receivers of user's unaccepted outgoing requests.
	PendingTargets(ctx context.Context, user uuid.UUID) ([]uuid.UUID, error)
	UserSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.UserSummary, error)
	// RecentUsers returns up to limit users, newest first, skipping exclude.
	RecentUsers(ctx context.Context, exclude []uuid.UUID, limit int) ([]models.UserSummary, error)
}

// Cache stores computed suggestions per user. Implementations may be nil.
type Cache interface {
	GetSuggestions(ctx context.Context, user uuid.UUID) ([]models.Suggestion, bool, error)
	SetSuggestions(ctx context.Context, user uuid.UUID, s []models.Suggestion) error
}

// Candidate is a friend-of-friend together with the shared friends that led to it.
type Candidate struct {
	ID     uuid.UUID
	Mutual []uuid.UUID
}

// RankMutual counts, for every friend-of-friend of user, how many of user's direct
// friends they share. Self, direct friends and pending targets are skipped. The result is
// ordered by count descending then by id, and truncated to limit.
func RankMutual(user uuid.UUID, direct []uuid.UUID, friendsOf map[uuid.UUID][]uuid.UUID, pending map[uuid.UUID]bool, limit int) []Candidate {
	isDirect := make(map[uuid.UUID]bool, len(direct))
	for _, f := range direct {
		isDirect[f] = true
	}

	index := make(map[uuid.UUID]int)
	var cands []Candidate
	seenDirect := make(map[uuid.UUID]bool, len(direct))
	for _, f := range direct {
		if seenDirect[f] {
			continue
		}
		seenDirect[f] = true

		counted := make(map[uuid.UUID]bool)
		for _, g := range friendsOf[f] {
			if g == user || isDirect[g] || pending[g] || counted[g] {
				continue
			}
			counted[g] = true

			i, ok := index[g]
			if !ok {
				i = len(cands)
				index[g] = i
				cands = append(cands, Candidate{ID: g})
			}
			cands[i].Mutual = append(cands[i].Mutual, f)
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if len(cands[i].Mutual) != len(cands[j].Mutual) {
			return len(cands[i].Mutual) > len(cands[j].Mutual)
		}
		return models.CompareIDs(cands[i].ID, cands[j].ID) < 0
	})
	if limit > 0 && len(cands) > limit {
		cands = cands[:limit]
	}
	return cands
}

// Suggest returns up to SuggestionLimit users that user might want to befriend. Users
// with mutual friends come first; without any, the newest members are offered instead.
// A user with no profile gets an empty list.
func (s *Service) Suggest(ctx context.Context, user uuid.UUID) ([]models.Suggestion, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.GetSuggestions(ctx, user)
		if err != nil {
			log.WithError(err).WithField("user", user).Warn("suggestion cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	out, err := s.suggest(ctx, user)
	if err != nil {
		return nil, err
	}

	// New-user fallbacks go stale on every signup and are not cached.
	if s.cache != nil && len(out) > 0 && out[0].Reason == models.ReasonMutualFriends {
		if err := s.cache.SetSuggestions(ctx, user, out); err != nil {
			log.WithError(err).WithField("user", user).Warn("suggestion cache write failed")
		}
	}
	return out, nil
}

func (s *Service) suggest(ctx context.Context, user uuid.UUID) ([]models.Suggestion, error) {
	ok, err := s.suggestions.HasProfile(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if !ok {
		return []models.Suggestion{}, nil
	}

	direct, err := s.suggestions.FriendIDs(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to load friends: %w", err)
	}
	targets, err := s.suggestions.PendingTargets(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending requests: %w", err)
	}
	pending := make(map[uuid.UUID]bool, len(targets))
	for _, t := range targets {
		pending[t] = true
	}

	var cands []Candidate
	if len(direct) > 0 {
		friendsOf, err := s.suggestions.FriendsOf(ctx, direct)
		if err != nil {
			return nil, fmt.Errorf("failed to load friends of friends: %w", err)
		}
		cands = RankMutual(user, direct, friendsOf, pending, SuggestionLimit)
	}

	if len(cands) == 0 {
		return s.newUserSuggestions(ctx, user, direct, targets)
	}

	ids := make([]uuid.UUID, 0, len(cands)*2)
	for _, c := range cands {
		ids = append(ids, c.ID)
		ids = append(ids, c.Mutual...)
	}
	users, err := s.suggestions.UserSummaries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	out := make([]models.Suggestion, 0, len(cands))
	for _, c := range cands {
		u, ok := users[c.ID]
		if !ok {
			continue
		}
		names := make([]string, 0, len(c.Mutual))
		for _, m := range c.Mutual {
			if mu, ok := users[m]; ok {
				names = append(names, mu.Username)
			}
		}
		sort.Strings(names)
		if len(names) > MutualNamesLimit {
			names = names[:MutualNamesLimit]
		}
		out = append(out, models.Suggestion{
			User:        u,
			MutualCount: len(c.Mutual),
			MutualNames: names,
			Reason:      models.ReasonMutualFriends,
		})
	}
	return out, nil
}

func (s *Service) newUserSuggestions(ctx context.Context, user uuid.UUID, direct, pending []uuid.UUID) ([]models.Suggestion, error) {
	exclude := make([]uuid.UUID, 0, 1+len(direct)+len(pending))
	exclude = append(exclude, user)
	exclude = append(exclude, direct...)
	exclude = append(exclude, pending...)

	recent, err := s.suggestions.RecentUsers(ctx, exclude, SuggestionLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent users: %w", err)
	}

	skip := make(map[uuid.UUID]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	out := make([]models.Suggestion, 0, len(recent))
	for _, u := range recent {
		if skip[u.ID] || len(out) == SuggestionLimit {
			continue
		}
		out = append(out, models.Suggestion{
			User:        u,
			MutualNames: []string{},
			Reason:      models.ReasonNewUser,
		})
	}
	return out, nil
}
