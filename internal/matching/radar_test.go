package matching

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/collabnet/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collab(name string, hours int, available bool, skills, interests []uuid.UUID) models.CollabProfile {
	id := uuid.New()
	return models.CollabProfile{
		User:          models.UserSummary{ID: id, Username: name},
		Availability:  models.UserAvailability{UserID: id, AvailableForCollab: available, HoursPerWeek: hours},
		SkillIDs:      skills,
		InterestIDs:   interests,
		SkillNames:    []string{},
		InterestNames: []string{},
	}
}

func TestScoreWeights(t *testing.T) {
	assert.Equal(t, 5, Score(2, 1))
	assert.Equal(t, 0, Score(0, 0))
	assert.Equal(t, 3, Score(0, 3))
}

func TestRankScoresOverlap(t *testing.T) {
	goLang, sql, design := uuid.New(), uuid.New(), uuid.New()
	games, infra := uuid.New(), uuid.New()

	me := collab("me", 10, true, []uuid.UUID{goLang, sql, design}, []uuid.UUID{games, infra})
	strong := collab("strong", 10, true, []uuid.UUID{goLang, sql}, []uuid.UUID{games})
	weak := collab("weak", 10, true, nil, []uuid.UUID{infra})

	got := Rank(me, []models.CollabProfile{weak, strong})
	require.Len(t, got, 2)

	assert.Equal(t, "strong", got[0].User.Username)
	assert.Equal(t, 5, got[0].Score)
	assert.Equal(t, 2, got[0].SharedSkills)
	assert.Equal(t, 1, got[0].SharedInterests)
	assert.InDelta(t, 50, got[0].Distance, 1e-9)

	assert.Equal(t, "weak", got[1].User.Username)
	assert.Equal(t, 1, got[1].Score)
	assert.InDelta(t, 90, got[1].Distance, 1e-9)
}

func TestRankKeepsInputOrderOnTies(t *testing.T) {
	me := collab("me", 5, true, nil, nil)
	a := collab("a", 5, true, nil, nil)
	b := collab("b", 5, true, nil, nil)

	got := Rank(me, []models.CollabProfile{b, a})
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].User.Username)
	assert.Equal(t, "a", got[1].User.Username)
}

func TestPlace(t *testing.T) {
	d, angle, x, y := Place("alice", 0)
	assert.Equal(t, MaxDistance, d)
	assert.GreaterOrEqual(t, angle, 0.0)
	assert.Less(t, angle, 2*math.Pi)
	assert.InDelta(t, d, math.Hypot(x, y), 1e-9)

	// same username, same bearing
	_, again, _, _ := Place("alice", 3)
	assert.Equal(t, angle, again)

	d, _, _, _ = Place("alice", 42)
	assert.Equal(t, MinDistance, d)
}

func TestFilterCandidates(t *testing.T) {
	s1, s2 := uuid.New(), uuid.New()
	i1 := uuid.New()
	self := collab("self", 40, true, []uuid.UUID{s1}, []uuid.UUID{i1})

	hasS1 := collab("has-s1", 10, true, []uuid.UUID{s1}, nil)
	hasS2I1 := collab("has-s2-i1", 10, true, []uuid.UUID{s2}, []uuid.UUID{i1})
	busy := collab("busy", 5, true, []uuid.UUID{s1}, []uuid.UUID{i1})
	away := collab("away", 40, false, []uuid.UUID{s1}, []uuid.UUID{i1})

	pool := []models.CollabProfile{self, hasS1, hasS2I1, busy, away, hasS1}

	got := FilterCandidates(pool, self.User.ID, RadarQuery{MinHours: 10})
	assert.Equal(t, []string{"has-s1", "has-s2-i1"}, usernames(got))

	got = FilterCandidates(pool, self.User.ID, RadarQuery{SkillIDs: []uuid.UUID{s1}})
	assert.Equal(t, []string{"has-s1", "busy"}, usernames(got))

	got = FilterCandidates(pool, self.User.ID, RadarQuery{InterestIDs: []uuid.UUID{i1}})
	assert.Equal(t, []string{"has-s2-i1", "busy"}, usernames(got))

	got = FilterCandidates(pool, self.User.ID, RadarQuery{SkillIDs: []uuid.UUID{s1}, InterestIDs: []uuid.UUID{i1}})
	assert.Equal(t, []string{"busy"}, usernames(got))
}

func TestMatch(t *testing.T) {
	st := newFakeStore()
	me := st.addUser("me")
	skill, interest := uuid.New(), uuid.New()

	st.collab[me] = models.CollabProfile{
		User:         st.users[me],
		Availability: models.UserAvailability{UserID: me, AvailableForCollab: true, HoursPerWeek: 10},
		SkillIDs:     []uuid.UUID{skill},
		InterestIDs:  []uuid.UUID{interest},
	}
	for _, name := range []string{"ann", "bea"} {
		id := st.addUser(name)
		p := collab(name, 20, true, nil, []uuid.UUID{interest})
		p.User.ID = id
		st.collab[id] = p
	}
	cid := st.addUser("cam")
	cam := collab("cam", 20, true, []uuid.UUID{skill}, []uuid.UUID{interest})
	cam.User.ID = cid
	st.collab[cid] = cam

	got, err := NewService(st, st, nil).Match(context.Background(), me, RadarQuery{MinHours: 10})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "cam", got[0].User.Username)
	assert.Equal(t, 3, got[0].Score)
	assert.Equal(t, "ann", got[1].User.Username)
	assert.Equal(t, "bea", got[2].User.Username)
	for _, c := range got {
		assert.NotEqual(t, me, c.User.ID)
	}
}

func usernames(ps []models.CollabProfile) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.User.Username)
	}
	return out
}
