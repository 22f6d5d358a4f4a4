package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/namaz/internal/model"
)

// GetQada returns the user's counters; a user with no row owes nothing.
func (s *sqlStore) GetQada(ctx context.Context, userID string) (*model.QadaCounts, error) {
	var q model.QadaCounts
	err := s.db.GetContext(ctx, &q, s.q(`
		SELECT user_id, fajr, zuhr, asr, maghrib, isha, witr, updated_at
		FROM qada_counts
		WHERE user_id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.QadaCounts{UserID: userID}, nil
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to get qada counts")
		return nil, err
	}
	return &q, nil
}

func (s *sqlStore) SaveQada(ctx context.Context, q *model.QadaCounts) error {
	if err := model.Validate(q); err != nil {
		return err
	}
	q.UpdatedAt = s.now()
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO qada_counts (user_id, fajr, zuhr, asr, maghrib, isha, witr, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			fajr = excluded.fajr,
			zuhr = excluded.zuhr,
			asr = excluded.asr,
			maghrib = excluded.maghrib,
			isha = excluded.isha,
			witr = excluded.witr,
			updated_at = excluded.updated_at`),
		q.UserID, q.Fajr, q.Zuhr, q.Asr, q.Maghrib, q.Isha, q.Witr, q.UpdatedAt)
	if err != nil {
		log.Error().Err(err).Str("user_id", q.UserID).Msg("failed to save qada counts")
		return fmt.Errorf("save qada: %w", err)
	}
	return nil
}
