package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/namaz/internal/model"
)

func (s *sqlStore) ListAchievements(ctx context.Context) ([]model.Achievement, error) {
	out := []model.Achievement{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, name, description, icon, tier, secret
		FROM achievements
		ORDER BY sort, id`)
	if err != nil {
		log.Error().Err(err).Msg("failed to list achievements")
		return nil, err
	}
	return out, nil
}

func (s *sqlStore) ListUnlocks(ctx context.Context, userID string) ([]model.AchievementUnlock, error) {
	out := []model.AchievementUnlock{}
	err := s.db.SelectContext(ctx, &out, s.q(`
		SELECT user_id, achievement_id, unlocked_at
		FROM achievement_unlocks
		WHERE user_id = ?
		ORDER BY unlocked_at`), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to list unlocks")
		return nil, err
	}
	return out, nil
}

// Unlock records an achievement for a user. It reports false without error
// when the user already had it.
func (s *sqlStore) Unlock(ctx context.Context, userID, achievementID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO achievement_unlocks (user_id, achievement_id, unlocked_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, achievement_id) DO NOTHING`), userID, achievementID, s.now())
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("achievement", achievementID).Msg("failed to unlock achievement")
		return false, fmt.Errorf("unlock %s: %w", achievementID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// WithStatus annotates the catalog with a user's unlocks. Secret entries the
// user has not earned are left out.
func WithStatus(catalog []model.Achievement, unlocks []model.AchievementUnlock) []model.AchievementWithStatus {
	at := make(map[string]model.AchievementUnlock, len(unlocks))
	for _, u := range unlocks {
		at[u.AchievementID] = u
	}
	out := make([]model.AchievementWithStatus, 0, len(catalog))
	for _, a := range catalog {
		u, ok := at[a.ID]
		if a.Secret && !ok {
			continue
		}
		item := model.AchievementWithStatus{Achievement: a, Unlocked: ok}
		if ok {
			t := u.UnlockedAt
			item.UnlockedAt = &t
		}
		out = append(out, item)
	}
	return out
}
