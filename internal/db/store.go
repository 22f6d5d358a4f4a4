package db

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/smokyabdulrahman/namaz/internal/model"
)

// Store is the persistence contract used by the tracker and the HTTP layer.
type Store interface {
	// prayer records
	GetRecord(ctx context.Context, userID, date string) (*model.PrayerRecord, error)
	UpsertRecord(ctx context.Context, rec *model.PrayerRecord) error
	ListRecords(ctx context.Context, userID, from, to string) ([]model.PrayerRecord, error)
	SetProof(ctx context.Context, userID, date string, p model.Prayer, url string) (*model.PrayerRecord, error)

	// profiles
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	EnsureProfile(ctx context.Context, id, name string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, id string, name, avatarURL *string) (*model.Profile, error)
	SetPublic(ctx context.Context, id string, public bool) error
	IncrementTotal(ctx context.Context, id string) (int, error)
	DecrementTotal(ctx context.Context, id string) (int, error)
	SetStreak(ctx context.Context, id string, streak int) error
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)

	// qada
	GetQada(ctx context.Context, userID string) (*model.QadaCounts, error)
	SaveQada(ctx context.Context, q *model.QadaCounts) error

	// achievements
	ListAchievements(ctx context.Context) ([]model.Achievement, error)
	ListUnlocks(ctx context.Context, userID string) ([]model.AchievementUnlock, error)
	Unlock(ctx context.Context, userID, achievementID string) (bool, error)
}

type sqlStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// compile-time check that sqlStore implements Store
var _ Store = (*sqlStore)(nil)

// NewStore wraps an open connection. Run Migrate first.
func NewStore(conn *sqlx.DB) Store {
	return &sqlStore{db: conn, now: func() time.Time { return time.Now().UTC() }}
}

func (s *sqlStore) q(query string) string {
	return s.db.Rebind(query)
}
