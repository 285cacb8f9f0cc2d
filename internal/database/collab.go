package database

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/collabnet/internal/models"
)

func (s *Store) ListSkills(ctx context.Context) ([]models.Skill, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM skills ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[models.Skill])
}

func (s *Store) ListInterests(ctx context.Context) ([]models.ProjectInterest, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM project_interests ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[models.ProjectInterest])
}

// catalogUpsert returns the id of the named catalog entry, creating it if needed.
func catalogUpsert(ctx context.Context, tx pgx.Tx, table, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `
		INSERT INTO `+table+` (id, name) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, uuid.New(), strings.TrimSpace(name)).Scan(&id)
	return id, err
}

// AddUserSkill tags user with the named skill at level, creating the skill if it is new.
func (s *Store) AddUserSkill(ctx context.Context, user uuid.UUID, name string, level int) (*models.UserSkill, error) {
	us := &models.UserSkill{UserID: user, Level: level}
	err := s.tx(ctx, func(tx pgx.Tx) error {
		id, err := catalogUpsert(ctx, tx, "skills", name)
		if err != nil {
			return err
		}
		us.Skill = models.Skill{ID: id, Name: strings.TrimSpace(name)}
		_, err = tx.Exec(ctx, `
			INSERT INTO user_skills (user_id, skill_id, level) VALUES ($1, $2, $3)
			ON CONFLICT (user_id, skill_id) DO UPDATE SET level = EXCLUDED.level`,
			user, id, level)
		return err
	})
	if err != nil {
		return nil, err
	}
	return us, nil
}

func (s *Store) RemoveUserSkill(ctx context.Context, user, skill uuid.UUID) error {
	return s.deleteTag(ctx, `DELETE FROM user_skills WHERE user_id=$1 AND skill_id=$2`, user, skill)
}

// AddUserInterest tags user with the named project interest at level.
func (s *Store) AddUserInterest(ctx context.Context, user uuid.UUID, name string, level int) (*models.UserProjectInterest, error) {
	ui := &models.UserProjectInterest{UserID: user, Level: level}
	err := s.tx(ctx, func(tx pgx.Tx) error {
		id, err := catalogUpsert(ctx, tx, "project_interests", name)
		if err != nil {
			return err
		}
		ui.Interest = models.ProjectInterest{ID: id, Name: strings.TrimSpace(name)}
		_, err = tx.Exec(ctx, `
			INSERT INTO user_project_interests (user_id, interest_id, level) VALUES ($1, $2, $3)
			ON CONFLICT (user_id, interest_id) DO UPDATE SET level = EXCLUDED.level`,
			user, id, level)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ui, nil
}

func (s *Store) RemoveUserInterest(ctx context.Context, user, interest uuid.UUID) error {
	return s.deleteTag(ctx, `DELETE FROM user_project_interests WHERE user_id=$1 AND interest_id=$2`, user, interest)
}

func (s *Store) deleteTag(ctx context.Context, q string, user, id uuid.UUID) error {
	return s.tx(ctx, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, q, user, id)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Store) SetAvailability(ctx context.Context, a models.UserAvailability) error {
	return s.tx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO user_availability (user_id, available_for_collab, hours_per_week)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id) DO UPDATE
			SET available_for_collab = EXCLUDED.available_for_collab,
			    hours_per_week = EXCLUDED.hours_per_week`,
			a.UserID, a.AvailableForCollab, a.HoursPerWeek)
		return err
	})
}

func (s *Store) UserSkills(ctx context.Context, user uuid.UUID) ([]models.UserSkill, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT us.user_id, s.id, s.name, us.level
		FROM user_skills us JOIN skills s ON s.id = us.skill_id
		WHERE us.user_id = $1
		ORDER BY s.name`, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.UserSkill{}
	for rows.Next() {
		var us models.UserSkill
		if err := rows.Scan(&us.UserID, &us.Skill.ID, &us.Skill.Name, &us.Level); err != nil {
			return nil, err
		}
		out = append(out, us)
	}
	return out, rows.Err()
}

func (s *Store) UserInterests(ctx context.Context, user uuid.UUID) ([]models.UserProjectInterest, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ui.user_id, i.id, i.name, ui.level
		FROM user_project_interests ui JOIN project_interests i ON i.id = ui.interest_id
		WHERE ui.user_id = $1
		ORDER BY i.name`, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.UserProjectInterest{}
	for rows.Next() {
		var ui models.UserProjectInterest
		if err := rows.Scan(&ui.UserID, &ui.Interest.ID, &ui.Interest.Name, &ui.Level); err != nil {
			return nil, err
		}
		out = append(out, ui)
	}
	return out, rows.Err()
}

// Availability returns user's availability, or the closed default if none was saved.
func (s *Store) Availability(ctx context.Context, user uuid.UUID) (models.UserAvailability, error) {
	a := models.UserAvailability{UserID: user, HoursPerWeek: models.HoursBuckets[0]}
	err := s.pool.QueryRow(ctx, `
		SELECT available_for_collab, hours_per_week FROM user_availability WHERE user_id=$1`, user).
		Scan(&a.AvailableForCollab, &a.HoursPerWeek)
	if err = mapErr(err); err != nil && !errors.Is(err, ErrNotFound) {
		return a, err
	}
	return a, nil
}

// CollabProfile gathers user's radar data. Missing pieces come back empty.
func (s *Store) CollabProfile(ctx context.Context, user uuid.UUID) (*models.CollabProfile, error) {
	summaries, err := s.UserSummaries(ctx, []uuid.UUID{user})
	if err != nil {
		return nil, err
	}
	u, ok := summaries[user]
	if !ok {
		return nil, ErrNotFound
	}
	avail, err := s.Availability(ctx, user)
	if err != nil {
		return nil, err
	}
	p := &models.CollabProfile{User: u, Availability: avail}
	if err := s.attachTags(ctx, map[uuid.UUID]*models.CollabProfile{user: p}); err != nil {
		return nil, err
	}
	return p, nil
}

// AvailableCollaborators lists users open to collaboration for at least minHours a
// week, excluding self, ordered by username.
func (s *Store) AvailableCollaborators(ctx context.Context, self uuid.UUID, minHours int) ([]models.CollabProfile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+summaryColumns+`, a.available_for_collab, a.hours_per_week
		FROM user_availability a
		JOIN users u ON u.id = a.user_id
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE a.available_for_collab AND a.hours_per_week >= $1 AND u.id <> $2
		ORDER BY u.username`, minHours, self)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CollabProfile
	for rows.Next() {
		var c models.CollabProfile
		u := &c.User
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PictureKey,
			&c.Availability.AvailableForCollab, &c.Availability.HoursPerWeek); err != nil {
			return nil, err
		}
		c.Availability.UserID = u.ID
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*models.CollabProfile, len(out))
	for i := range out {
		byID[out[i].User.ID] = &out[i]
	}
	if err := s.attachTags(ctx, byID); err != nil {
		return nil, err
	}
	return out, nil
}

// attachTags fills skill and interest ids and names for every profile in byID.
func (s *Store) attachTags(ctx context.Context, byID map[uuid.UUID]*models.CollabProfile) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT us.user_id, s.id, s.name
		FROM user_skills us JOIN skills s ON s.id = us.skill_id
		WHERE us.user_id = ANY($1)
		ORDER BY s.name`, ids)
	if err != nil {
		return err
	}
	err = forEachTag(rows, func(user, id uuid.UUID, name string) {
		p := byID[user]
		p.SkillIDs = append(p.SkillIDs, id)
		p.SkillNames = append(p.SkillNames, name)
	})
	if err != nil {
		return err
	}

	rows, err = s.pool.Query(ctx, `
		SELECT ui.user_id, i.id, i.name
		FROM user_project_interests ui JOIN project_interests i ON i.id = ui.interest_id
		WHERE ui.user_id = ANY($1)
		ORDER BY i.name`, ids)
	if err != nil {
		return err
	}
	return forEachTag(rows, func(user, id uuid.UUID, name string) {
		p := byID[user]
		p.InterestIDs = append(p.InterestIDs, id)
		p.InterestNames = append(p.InterestNames, name)
	})
}

func forEachTag(rows pgx.Rows, fn func(user, id uuid.UUID, name string)) error {
	defer rows.Close()
	for rows.Next() {
		var user, id uuid.UUID
		var name string
		if err := rows.Scan(&user, &id, &name); err != nil {
			return err
		}
		fn(user, id, name)
	}
	return rows.Err()
}
