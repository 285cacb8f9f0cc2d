// internal/handlers/store_test.go
package handlers

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/collabnet/internal/database"
	"github.com/jason-s-yu/collabnet/internal/friends"
	"github.com/jason-s-yu/collabnet/internal/models"
)

// memStore backs every handler store interface with maps. Friendships and requests
// live in a friends.MemoryStore shared with the friends service.
type memStore struct {
	mu      sync.Mutex
	friends *friends.MemoryStore

	users    map[uuid.UUID]*models.User
	joined   []uuid.UUID
	profiles map[uuid.UUID]*models.Profile

	posts    []*models.Post
	likes    map[uuid.UUID]map[uuid.UUID]bool
	comments []*models.Comment

	skills        []models.Skill
	interests     []models.ProjectInterest
	userSkills    map[uuid.UUID][]models.UserSkill
	userInterests map[uuid.UUID][]models.UserProjectInterest
	avail         map[uuid.UUID]models.UserAvailability

	// pictureErr, when set, fails SetProfilePicture.
	pictureErr error
}

func newMemStore(fs *friends.MemoryStore) *memStore {
	return &memStore{
		friends:       fs,
		users:         make(map[uuid.UUID]*models.User),
		profiles:      make(map[uuid.UUID]*models.Profile),
		likes:         make(map[uuid.UUID]map[uuid.UUID]bool),
		userSkills:    make(map[uuid.UUID][]models.UserSkill),
		userInterests: make(map[uuid.UUID][]models.UserProjectInterest),
		avail:         make(map[uuid.UUID]models.UserAvailability),
	}
}

// users

func (m *memStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return fmt.Errorf("failed to insert user: %w: users_username_key", database.ErrDuplicate)
		}
	}
	user.ID = uuid.New()
	user.DateJoined = time.Now().Add(time.Duration(len(m.joined)) * time.Second)
	cp := *user
	m.users[user.ID] = &cp
	m.joined = append(m.joined, user.ID)
	m.profiles[user.ID] = &models.Profile{UserID: user.ID, PictureKey: models.DefaultPictureKey}
	return nil
}

func (m *memStore) AuthenticateUser(_ context.Context, login, password string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if (u.Username == login || u.Email == login) && u.Password == password {
			cp := *u
			return &cp, nil
		}
	}
	return nil, database.ErrInvalidCredentials
}

func (m *memStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memStore) GetProfile(_ context.Context, user uuid.UUID) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[user]
	if !ok {
		p = &models.Profile{UserID: user, PictureKey: models.DefaultPictureKey}
		m.profiles[user] = p
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) UpdateProfile(_ context.Context, user uuid.UUID, bio, location string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[user]
	if !ok {
		return database.ErrNotFound
	}
	p.Bio, p.Location = bio, location
	return nil
}

func (m *memStore) SetProfilePicture(_ context.Context, user uuid.UUID, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pictureErr != nil {
		return "", m.pictureErr
	}
	p, ok := m.profiles[user]
	if !ok {
		return "", database.ErrNotFound
	}
	old := p.PictureKey
	p.PictureKey = key
	return old, nil
}

func (m *memStore) summary(id uuid.UUID) models.UserSummary {
	u := m.users[id]
	s := models.UserSummary{ID: id, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName}
	if p, ok := m.profiles[id]; ok {
		s.PictureKey = p.PictureKey
	}
	return s
}

func (m *memStore) SearchUsers(_ context.Context, q string, limit int) ([]models.UserSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q = strings.ToLower(q)
	out := []models.UserSummary{}
	for id, u := range m.users {
		for _, field := range []string{u.Username, u.FirstName, u.LastName} {
			if strings.Contains(strings.ToLower(field), q) {
				out = append(out, m.summary(id))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ListFriends(ctx context.Context, user uuid.UUID) ([]models.UserSummary, error) {
	ids, err := m.friends.FriendIDs(ctx, user)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.summary(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// posts

func (m *memStore) view(p *models.Post, viewer uuid.UUID) models.Post {
	cp := *p
	cp.Username = m.users[p.UserID].Username
	cp.LikeCount = len(m.likes[p.ID])
	cp.LikedByUser = m.likes[p.ID][viewer]
	cp.CommentCount = 0
	for _, c := range m.comments {
		if c.PostID == p.ID {
			cp.CommentCount++
		}
	}
	return cp
}

func (m *memStore) findPost(id uuid.UUID) (int, *models.Post) {
	for i, p := range m.posts {
		if p.ID == id {
			return i, p
		}
	}
	return -1, nil
}

func (m *memStore) CreatePost(_ context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()
	cp := *p
	m.posts = append(m.posts, &cp)
	return nil
}

func (m *memStore) Feed(_ context.Context, viewer uuid.UUID, limit int) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Post{}
	for i := len(m.posts) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.view(m.posts[i], viewer))
	}
	return out, nil
}

func (m *memStore) PostsByUser(_ context.Context, author, viewer uuid.UUID) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Post{}
	for i := len(m.posts) - 1; i >= 0; i-- {
		if m.posts[i].UserID == author {
			out = append(out, m.view(m.posts[i], viewer))
		}
	}
	return out, nil
}

func (m *memStore) GetPost(_ context.Context, id, viewer uuid.UUID) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, p := m.findPost(id)
	if p == nil {
		return nil, database.ErrNotFound
	}
	v := m.view(p, viewer)
	return &v, nil
}

func (m *memStore) DeletePost(_ context.Context, id, owner uuid.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, p := m.findPost(id)
	if p == nil || p.UserID != owner {
		return "", database.ErrNotFound
	}
	m.posts = append(m.posts[:i], m.posts[i+1:]...)
	delete(m.likes, id)
	return p.MediaKey, nil
}

func (m *memStore) ToggleLike(_ context.Context, user, post uuid.UUID) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, p := m.findPost(post); p == nil {
		return false, 0, database.ErrNotFound
	}
	if m.likes[post] == nil {
		m.likes[post] = make(map[uuid.UUID]bool)
	}
	liked := !m.likes[post][user]
	if liked {
		m.likes[post][user] = true
	} else {
		delete(m.likes[post], user)
	}
	return liked, len(m.likes[post]), nil
}

func (m *memStore) CreateComment(_ context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, p := m.findPost(c.PostID); p == nil {
		return database.ErrNotFound
	}
	c.ID = uuid.New()
	c.CreatedAt = time.Now().UTC()
	cp := *c
	m.comments = append(m.comments, &cp)
	return nil
}

func (m *memStore) GetComment(_ context.Context, id uuid.UUID) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.comments {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memStore) DeleteComment(_ context.Context, id, owner uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.comments {
		if c.ID == id && c.UserID == owner {
			m.comments = append(m.comments[:i], m.comments[i+1:]...)
			return nil
		}
	}
	return database.ErrNotFound
}

func (m *memStore) CommentsForPost(_ context.Context, post uuid.UUID) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Comment{}
	for _, c := range m.comments {
		if c.PostID == post {
			out = append(out, *c)
		}
	}
	return out, nil
}

// collaboration

func (m *memStore) ListSkills(context.Context) ([]models.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Skill{}, m.skills...), nil
}

func (m *memStore) ListInterests(context.Context) ([]models.ProjectInterest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ProjectInterest{}, m.interests...), nil
}

func (m *memStore) skillNamed(name string) models.Skill {
	for _, s := range m.skills {
		if strings.EqualFold(s.Name, name) {
			return s
		}
	}
	s := models.Skill{ID: uuid.New(), Name: name}
	m.skills = append(m.skills, s)
	return s
}

func (m *memStore) interestNamed(name string) models.ProjectInterest {
	for _, i := range m.interests {
		if strings.EqualFold(i.Name, name) {
			return i
		}
	}
	i := models.ProjectInterest{ID: uuid.New(), Name: name}
	m.interests = append(m.interests, i)
	return i
}

func (m *memStore) AddUserSkill(_ context.Context, user uuid.UUID, name string, level int) (*models.UserSkill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	us := models.UserSkill{UserID: user, Skill: m.skillNamed(name), Level: level}
	list := m.userSkills[user]
	for i := range list {
		if list[i].Skill.ID == us.Skill.ID {
			list[i].Level = level
			return &us, nil
		}
	}
	m.userSkills[user] = append(list, us)
	return &us, nil
}

func (m *memStore) RemoveUserSkill(_ context.Context, user, skill uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.userSkills[user]
	for i := range list {
		if list[i].Skill.ID == skill {
			m.userSkills[user] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return database.ErrNotFound
}

func (m *memStore) AddUserInterest(_ context.Context, user uuid.UUID, name string, level int) (*models.UserProjectInterest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ui := models.UserProjectInterest{UserID: user, Interest: m.interestNamed(name), Level: level}
	list := m.userInterests[user]
	for i := range list {
		if list[i].Interest.ID == ui.Interest.ID {
			list[i].Level = level
			return &ui, nil
		}
	}
	m.userInterests[user] = append(list, ui)
	return &ui, nil
}

func (m *memStore) RemoveUserInterest(_ context.Context, user, interest uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.userInterests[user]
	for i := range list {
		if list[i].Interest.ID == interest {
			m.userInterests[user] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return database.ErrNotFound
}

func (m *memStore) SetAvailability(_ context.Context, a models.UserAvailability) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.avail[a.UserID] = a
	return nil
}

func (m *memStore) UserSkills(_ context.Context, user uuid.UUID) ([]models.UserSkill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.UserSkill{}, m.userSkills[user]...), nil
}

func (m *memStore) UserInterests(_ context.Context, user uuid.UUID) ([]models.UserProjectInterest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.UserProjectInterest{}, m.userInterests[user]...), nil
}

func (m *memStore) availability(user uuid.UUID) models.UserAvailability {
	if a, ok := m.avail[user]; ok {
		return a
	}
	return models.UserAvailability{UserID: user, HoursPerWeek: models.HoursBuckets[0]}
}

func (m *memStore) Availability(_ context.Context, user uuid.UUID) (models.UserAvailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.availability(user), nil
}

func (m *memStore) collabProfile(user uuid.UUID) models.CollabProfile {
	p := models.CollabProfile{
		User:          m.summary(user),
		Availability:  m.availability(user),
		SkillIDs:      []uuid.UUID{},
		InterestIDs:   []uuid.UUID{},
		SkillNames:    []string{},
		InterestNames: []string{},
	}
	for _, s := range m.userSkills[user] {
		p.SkillIDs = append(p.SkillIDs, s.Skill.ID)
		p.SkillNames = append(p.SkillNames, s.Skill.Name)
	}
	for _, i := range m.userInterests[user] {
		p.InterestIDs = append(p.InterestIDs, i.Interest.ID)
		p.InterestNames = append(p.InterestNames, i.Interest.Name)
	}
	return p
}

func (m *memStore) CollabProfile(_ context.Context, user uuid.UUID) (*models.CollabProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.collabProfile(user)
	return &p, nil
}

func (m *memStore) AvailableCollaborators(_ context.Context, self uuid.UUID, minHours int) ([]models.CollabProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CollabProfile
	for id := range m.users {
		a := m.availability(id)
		if id != self && a.AvailableForCollab && a.HoursPerWeek >= minHours {
			out = append(out, m.collabProfile(id))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User.Username < out[j].User.Username })
	return out, nil
}

// suggestions

func (m *memStore) HasProfile(_ context.Context, user uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.profiles[user]
	return ok, nil
}

func (m *memStore) FriendIDs(ctx context.Context, user uuid.UUID) ([]uuid.UUID, error) {
	return m.friends.FriendIDs(ctx, user)
}

func (m *memStore) FriendsOf(ctx context.Context, users []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	out := make(map[uuid.UUID][]uuid.UUID, len(users))
	for _, u := range users {
		ids, err := m.friends.FriendIDs(ctx, u)
		if err != nil {
			return nil, err
		}
		out[u] = ids
	}
	return out, nil
}

func (m *memStore) PendingTargets(ctx context.Context, user uuid.UUID) ([]uuid.UUID, error) {
	reqs, err := m.friends.OutboundRequests(ctx, user)
	if err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, len(reqs))
	for i, r := range reqs {
		out[i] = r.ReceiverID
	}
	return out, nil
}

func (m *memStore) UserSummaries(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.UserSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]models.UserSummary, len(ids))
	for _, id := range ids {
		if _, ok := m.users[id]; ok {
			out[id] = m.summary(id)
		}
	}
	return out, nil
}

func (m *memStore) RecentUsers(_ context.Context, exclude []uuid.UUID, limit int) ([]models.UserSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	skip := make(map[uuid.UUID]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	var out []models.UserSummary
	for i := len(m.joined) - 1; i >= 0 && len(out) < limit; i-- {
		if id := m.joined[i]; !skip[id] {
			out = append(out, m.summary(id))
		}
	}
	return out, nil
}

// fakeMedia keeps uploaded objects in memory.
type fakeMedia struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{objects: make(map[string][]byte)}
}

func (f *fakeMedia) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeMedia) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeMedia) URL(key string) string {
	return "http://media.test/collabnet/" + key
}

func (f *fakeMedia) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func (f *fakeMedia) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

// broker is an in-process stand-in for the Redis chat channel.
type broker struct {
	mu         sync.Mutex
	subs       map[uuid.UUID][]chan models.Message
	subscribed chan uuid.UUID
}

func newBroker() *broker {
	return &broker{
		subs:       make(map[uuid.UUID][]chan models.Message),
		subscribed: make(chan uuid.UUID, 8),
	}
}

func (b *broker) PublishMessage(_ context.Context, msg models.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[msg.ReceiverID] {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

func (b *broker) SubscribeMessages(ctx context.Context, user uuid.UUID) (<-chan models.Message, error) {
	ch := make(chan models.Message, 8)
	b.mu.Lock()
	b.subs[user] = append(b.subs[user], ch)
	b.mu.Unlock()
	b.subscribed <- user

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[user]
		for i, c := range list {
			if c == ch {
				b.subs[user] = append(list[:i], list[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}
