package database

import "context"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id          UUID PRIMARY KEY,
		username    VARCHAR(150) UNIQUE NOT NULL,
		email       VARCHAR(255) UNIQUE NOT NULL,
		password    TEXT NOT NULL,
		first_name  VARCHAR(150) NOT NULL DEFAULT '',
		last_name   VARCHAR(150) NOT NULL DEFAULT '',
		date_joined TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		user_id     UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		bio         TEXT NOT NULL DEFAULT '',
		location    VARCHAR(100) NOT NULL DEFAULT '',
		picture_key TEXT NOT NULL DEFAULT 'profile_pics/default.jpg'
	)`,
	`CREATE TABLE IF NOT EXISTS friendships (
		user_a     UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		user_b     UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_a, user_b),
		CHECK (user_a < user_b)
	)`,
	`CREATE INDEX IF NOT EXISTS friendships_user_b_idx ON friendships (user_b)`,
	`CREATE TABLE IF NOT EXISTS friend_requests (
		id          UUID PRIMARY KEY,
		sender_id   UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		receiver_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		accepted    BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (sender_id <> receiver_id)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS friend_requests_pending_idx
		ON friend_requests (sender_id, receiver_id) WHERE NOT accepted`,
	`CREATE TABLE IF NOT EXISTS posts (
		id         UUID PRIMARY KEY,
		user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content    TEXT NOT NULL,
		media_key  TEXT NOT NULL DEFAULT '',
		media_type VARCHAR(10) NOT NULL DEFAULT 'none',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS posts_created_at_idx ON posts (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id         UUID PRIMARY KEY,
		post_id    UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		text       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS likes (
		user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		post_id    UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, post_id)
	)`,
	`CREATE TABLE IF NOT EXISTS skills (
		id   UUID PRIMARY KEY,
		name VARCHAR(100) UNIQUE NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS project_interests (
		id   UUID PRIMARY KEY,
		name VARCHAR(100) UNIQUE NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_skills (
		user_id  UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		skill_id UUID NOT NULL REFERENCES skills(id) ON DELETE CASCADE,
		level    SMALLINT NOT NULL,
		PRIMARY KEY (user_id, skill_id)
	)`,
	`CREATE TABLE IF NOT EXISTS user_project_interests (
		user_id     UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		interest_id UUID NOT NULL REFERENCES project_interests(id) ON DELETE CASCADE,
		level       SMALLINT NOT NULL,
		PRIMARY KEY (user_id, interest_id)
	)`,
	`CREATE TABLE IF NOT EXISTS user_availability (
		user_id              UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		available_for_collab BOOLEAN NOT NULL DEFAULT FALSE,
		hours_per_week       INT NOT NULL DEFAULT 5
	)`,
}

// Migrate creates any missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for _, q := range schema {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
