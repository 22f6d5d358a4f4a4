package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/namaz/internal/model"
)

const (
	maxLeaderboardSize = 100
	leaderboardTTL     = time.Minute
)

func leaderboardKey(limit int) string {
	return fmt.Sprintf("namaz:leaderboard:%d", limit)
}

// leaderboard reads through Redis when it is configured. Cache failures fall
// back to the store.
func (s *Server) leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if s.rdb == nil {
		return s.store.Leaderboard(ctx, limit)
	}

	key := leaderboardKey(limit)
	raw, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var entries []model.LeaderboardEntry
		if err := json.Unmarshal(raw, &entries); err == nil {
			return entries, nil
		}
		log.Warn().Str("key", key).Msg("discarding corrupt leaderboard cache")
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Str("key", key).Msg("leaderboard cache read failed")
	}

	entries, err := s.store.Leaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(entries); err == nil {
		if err := s.rdb.Set(ctx, key, data, leaderboardTTL).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("leaderboard cache write failed")
		}
	}
	return entries, nil
}
