package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/namaz/internal/model"
)

const recordColumns = `user_id, day, fajr, zuhr, asr, maghrib, isha, proofs`

// GetRecord returns the record for one day. A day without a row is an empty
// record, not an error.
func (s *sqlStore) GetRecord(ctx context.Context, userID, date string) (*model.PrayerRecord, error) {
	var rec model.PrayerRecord
	err := s.db.GetContext(ctx, &rec, s.q(`
		SELECT `+recordColumns+`
		FROM prayer_records
		WHERE user_id = ? AND day = ?`), userID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.PrayerRecord{UserID: userID, Date: date, Proofs: model.Proofs{}}, nil
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("date", date).Msg("failed to get prayer record")
		return nil, err
	}
	return &rec, nil
}

// UpsertRecord writes the whole record keyed by (user, day). Concurrent
// writers race and the last one wins.
func (s *sqlStore) UpsertRecord(ctx context.Context, rec *model.PrayerRecord) error {
	if err := model.Validate(rec); err != nil {
		return err
	}
	if rec.Proofs == nil {
		rec.Proofs = model.Proofs{}
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO prayer_records (user_id, day, fajr, zuhr, asr, maghrib, isha, proofs, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, day) DO UPDATE SET
			fajr = excluded.fajr,
			zuhr = excluded.zuhr,
			asr = excluded.asr,
			maghrib = excluded.maghrib,
			isha = excluded.isha,
			proofs = excluded.proofs,
			updated_at = excluded.updated_at`),
		rec.UserID, rec.Date, rec.Fajr, rec.Zuhr, rec.Asr, rec.Maghrib, rec.Isha, rec.Proofs, s.now())
	if err != nil {
		log.Error().Err(err).Str("user_id", rec.UserID).Str("date", rec.Date).Msg("failed to upsert prayer record")
		return fmt.Errorf("upsert prayer record: %w", err)
	}
	return nil
}

// ListRecords returns the stored records between from and to inclusive,
// oldest first. Days without a row are simply absent.
func (s *sqlStore) ListRecords(ctx context.Context, userID, from, to string) ([]model.PrayerRecord, error) {
	records := []model.PrayerRecord{}
	err := s.db.SelectContext(ctx, &records, s.q(`
		SELECT `+recordColumns+`
		FROM prayer_records
		WHERE user_id = ? AND day >= ? AND day <= ?
		ORDER BY day`), userID, from, to)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to list prayer records")
		return nil, err
	}
	return records, nil
}

// SetProof attaches a photo URL to one prayer of a day.
func (s *sqlStore) SetProof(ctx context.Context, userID, date string, p model.Prayer, url string) (*model.PrayerRecord, error) {
	if !p.Daily() {
		return nil, fmt.Errorf("%w: %s", model.ErrInvalidPrayer, p)
	}
	rec, err := s.GetRecord(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if rec.Proofs == nil {
		rec.Proofs = model.Proofs{}
	}
	rec.Proofs[p] = url
	if err := s.UpsertRecord(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
