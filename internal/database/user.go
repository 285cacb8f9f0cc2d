package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/collabnet/internal/auth"
	"github.com/jason-s-yu/collabnet/internal/models"
	log "github.com/sirupsen/logrus"
)

// ErrInvalidCredentials is returned by AuthenticateUser for an unknown login or a bad password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// CreateUser hashes the password and inserts the user together with an empty profile.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate user id: %w", err)
		}
		user.ID = id
	}
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now().UTC()
	}

	hash, err := auth.HashPassword(user.Password, auth.DefaultParams)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = hash

	err = s.tx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, username, email, password, first_name, last_name, date_joined)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			user.ID, user.Username, user.Email, user.Password,
			user.FirstName, user.LastName, user.DateJoined,
		)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `INSERT INTO profiles (user_id, picture_key) VALUES ($1, $2)`,
			user.ID, models.DefaultPictureKey)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

const userColumns = `id, username, email, password, first_name, last_name, date_joined`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.DateJoined)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username))
}

// AuthenticateUser looks the user up by email or username and checks the password.
func (s *Store) AuthenticateUser(ctx context.Context, login, password string) (*models.User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email=$1 OR username=$1 LIMIT 1`, login))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}

	match, err := auth.VerifyPassword(password, user.Password)
	if err != nil || !match {
		return nil, ErrInvalidCredentials
	}

	if auth.IsLegacyHash(user.Password) {
		if err := s.rehashPassword(ctx, user.ID, password); err != nil {
			log.WithError(err).WithField("user", user.ID).Warn("failed to upgrade legacy password hash")
		}
	}
	return user, nil
}

// rehashPassword replaces a legacy hash with an argon2id one after a successful login.
func (s *Store) rehashPassword(ctx context.Context, user uuid.UUID, password string) error {
	hash, err := auth.HashPassword(password, auth.DefaultParams)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `UPDATE users SET password=$1 WHERE id=$2`, hash, user)
	return err
}

func (s *Store) HasProfile(ctx context.Context, user uuid.UUID) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM profiles WHERE user_id=$1)`, user).Scan(&ok)
	return ok, mapErr(err)
}

// GetProfile returns user's profile, creating the default one if it is missing.
func (s *Store) GetProfile(ctx context.Context, user uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	err := s.pool.QueryRow(ctx, `
		INSERT INTO profiles (user_id, picture_key) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, bio, location, picture_key`,
		user, models.DefaultPictureKey,
	).Scan(&p.UserID, &p.Bio, &p.Location, &p.PictureKey)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *Store) UpdateProfile(ctx context.Context, user uuid.UUID, bio, location string) error {
	return s.tx(ctx, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `UPDATE profiles SET bio=$1, location=$2 WHERE user_id=$3`, bio, location, user)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// SetProfilePicture stores key as user's picture and returns the key it replaced.
func (s *Store) SetProfilePicture(ctx context.Context, user uuid.UUID, key string) (string, error) {
	var old string
	err := s.tx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT picture_key FROM profiles WHERE user_id=$1 FOR UPDATE`, user).Scan(&old); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE profiles SET picture_key=$1 WHERE user_id=$2`, key, user)
		return err
	})
	return old, err
}

const summaryColumns = `u.id, u.username, u.first_name, u.last_name, COALESCE(p.picture_key, '')`

func scanSummaries(rows pgx.Rows) ([]models.UserSummary, error) {
	defer rows.Close()
	out := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PictureKey); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SearchUsers matches q against username, first and last name, case-insensitively.
func (s *Store) SearchUsers(ctx context.Context, q string, limit int) ([]models.UserSummary, error) {
	pattern := "%" + escapeLike(q) + "%"
	rows, err := s.pool.Query(ctx, `
		SELECT `+summaryColumns+`
		FROM users u LEFT JOIN profiles p ON p.user_id = u.id
		WHERE u.username ILIKE $1 OR u.first_name ILIKE $1 OR u.last_name ILIKE $1
		ORDER BY u.username
		LIMIT $2`, pattern, limit)
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows)
}

func (s *Store) UserSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.UserSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+summaryColumns+`
		FROM users u LEFT JOIN profiles p ON p.user_id = u.id
		WHERE u.id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	list, err := scanSummaries(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]models.UserSummary, len(list))
	for _, u := range list {
		out[u.ID] = u
	}
	return out, nil
}

func (s *Store) RecentUsers(ctx context.Context, exclude []uuid.UUID, limit int) ([]models.UserSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+summaryColumns+`
		FROM users u LEFT JOIN profiles p ON p.user_id = u.id
		WHERE NOT (u.id = ANY($1))
		ORDER BY u.date_joined DESC, u.id
		LIMIT $2`, exclude, limit)
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
