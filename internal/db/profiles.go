package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/namaz/internal/model"
)

const profileColumns = `id, name, avatar_url, total_prayers, current_streak, is_public, created_at`

// DefaultLeaderboardSize is used when Leaderboard is asked for zero rows.
const DefaultLeaderboardSize = 10

func (s *sqlStore) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	err := s.db.GetContext(ctx, &p, s.q(`
		SELECT `+profileColumns+`
		FROM profiles
		WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", id).Msg("failed to get profile")
		return nil, err
	}
	return &p, nil
}

// EnsureProfile creates a private profile the first time a user is seen and
// returns the stored row.
func (s *sqlStore) EnsureProfile(ctx context.Context, id, name string) (*model.Profile, error) {
	if err := model.Validate(model.Profile{ID: id, Name: name}); err != nil {
		return nil, err
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO profiles (id, name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO NOTHING`), id, name, s.now())
	if err != nil {
		log.Error().Err(err).Str("user_id", id).Msg("failed to create profile")
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return s.GetProfile(ctx, id)
}

// UpdateProfile changes the fields that are not nil.
func (s *sqlStore) UpdateProfile(ctx context.Context, id string, name, avatarURL *string) (*model.Profile, error) {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE profiles
		SET name = COALESCE(?, name),
			avatar_url = COALESCE(?, avatar_url)
		WHERE id = ?`), name, avatarURL, id)
	if err != nil {
		log.Error().Err(err).Str("user_id", id).Msg("failed to update profile")
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return s.GetProfile(ctx, id)
}

func (s *sqlStore) SetPublic(ctx context.Context, id string, public bool) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE profiles SET is_public = ? WHERE id = ?`), public, id)
	if err != nil {
		log.Error().Err(err).Str("user_id", id).Msg("failed to update privacy")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *sqlStore) IncrementTotal(ctx context.Context, id string) (int, error) {
	return s.adjustTotal(ctx, id, 1)
}

// DecrementTotal lowers the counter, never below zero.
func (s *sqlStore) DecrementTotal(ctx context.Context, id string) (int, error) {
	return s.adjustTotal(ctx, id, -1)
}

func (s *sqlStore) adjustTotal(ctx context.Context, id string, delta int) (int, error) {
	var total int
	err := s.db.GetContext(ctx, &total, s.q(`
		UPDATE profiles
		SET total_prayers = CASE WHEN total_prayers + ? < 0 THEN 0 ELSE total_prayers + ? END
		WHERE id = ?
		RETURNING total_prayers`), delta, delta, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", id).Int("delta", delta).Msg("failed to adjust total prayers")
		return 0, err
	}
	return total, nil
}

func (s *sqlStore) SetStreak(ctx context.Context, id string, streak int) error {
	_, err := s.db.ExecContext(ctx, s.q(`UPDATE profiles SET current_streak = ? WHERE id = ?`), streak, id)
	if err != nil {
		log.Error().Err(err).Str("user_id", id).Msg("failed to update streak")
	}
	return err
}

// Leaderboard ranks public profiles by streak, then total prayers.
func (s *sqlStore) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	entries := []model.LeaderboardEntry{}
	err := s.db.SelectContext(ctx, &entries, s.q(`
		SELECT id, name, avatar_url, current_streak, total_prayers
		FROM profiles
		WHERE is_public = ?
		ORDER BY current_streak DESC, total_prayers DESC, id
		LIMIT ?`), true, limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to load leaderboard")
		return nil, err
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
