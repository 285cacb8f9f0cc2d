package matching

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/collabnet/internal/friends"
	"github.com/jason-s-yu/collabnet/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// socialStore serves suggestions from the same requests and friendships that the
// friends service writes.
type socialStore struct {
	*friends.MemoryStore
	users map[uuid.UUID]models.UserSummary
}

func newSocialStore() *socialStore {
	return &socialStore{
		MemoryStore: friends.NewMemoryStore(),
		users:       make(map[uuid.UUID]models.UserSummary),
	}
}

func (s *socialStore) addUser(name string) uuid.UUID {
	id := uuid.New()
	s.users[id] = models.UserSummary{ID: id, Username: name}
	return id
}

func (s *socialStore) HasProfile(_ context.Context, user uuid.UUID) (bool, error) {
	_, ok := s.users[user]
	return ok, nil
}

func (s *socialStore) FriendsOf(ctx context.Context, users []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	out := make(map[uuid.UUID][]uuid.UUID, len(users))
	for _, u := range users {
		ids, err := s.FriendIDs(ctx, u)
		if err != nil {
			return nil, err
		}
		out[u] = ids
	}
	return out, nil
}

func (s *socialStore) PendingTargets(ctx context.Context, user uuid.UUID) ([]uuid.UUID, error) {
	reqs, err := s.OutboundRequests(ctx, user)
	if err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.ReceiverID)
	}
	return out, nil
}

func (s *socialStore) UserSummaries(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.UserSummary, error) {
	out := make(map[uuid.UUID]models.UserSummary, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (s *socialStore) RecentUsers(_ context.Context, exclude []uuid.UUID, limit int) ([]models.UserSummary, error) {
	skip := make(map[uuid.UUID]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	var out []models.UserSummary
	for id, u := range s.users {
		if !skip[id] && len(out) < limit {
			out = append(out, u)
		}
	}
	return out, nil
}

// invalidatingCache is both the suggestion cache and the friends invalidator.
type invalidatingCache struct {
	memCache
}

func (c *invalidatingCache) InvalidateSuggestions(_ context.Context, users ...uuid.UUID) error {
	for _, u := range users {
		delete(c.data, u)
	}
	return nil
}

func mutualCountFor(t *testing.T, got []models.Suggestion, id uuid.UUID) int {
	t.Helper()
	for _, s := range got {
		if s.User.ID == id {
			if s.Reason != models.ReasonMutualFriends {
				return 0
			}
			return s.MutualCount
		}
	}
	return 0
}

// TestCachedSuggestionsFollowFriendsOfFriends changes edges that do not touch the
// requester and checks that the cached mutual counts still match the graph.
func TestCachedSuggestionsFollowFriendsOfFriends(t *testing.T) {
	ctx := context.Background()
	st := newSocialStore()
	cache := &invalidatingCache{memCache{data: make(map[uuid.UUID][]models.Suggestion)}}
	fsvc := friends.NewService(st, cache)
	msvc := NewService(st, nil, cache)

	me, f1, f2, c := st.addUser("me"), st.addUser("f1"), st.addUser("f2"), st.addUser("c")
	st.AddFriendship(me, f1)
	st.AddFriendship(me, f2)
	st.AddFriendship(f1, c)

	got, err := msvc.Suggest(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, 1, mutualCountFor(t, got, c))
	require.Contains(t, cache.data, me)

	req, err := fsvc.Send(ctx, f2, c)
	require.NoError(t, err)
	_, err = fsvc.Accept(ctx, req.ID, c)
	require.NoError(t, err)

	got, err = msvc.Suggest(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, 2, mutualCountFor(t, got, c))

	require.NoError(t, fsvc.Remove(ctx, c, f1))
	require.NoError(t, fsvc.Remove(ctx, c, f2))

	got, err = msvc.Suggest(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, 0, mutualCountFor(t, got, c))
	for _, s := range got {
		assert.Equal(t, models.ReasonNewUser, s.Reason)
	}
}
