package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smokyabdulrahman/namaz/internal/api"
	"github.com/smokyabdulrahman/namaz/internal/cache"
	"github.com/smokyabdulrahman/namaz/internal/db"
	"github.com/smokyabdulrahman/namaz/internal/geo"
	"github.com/smokyabdulrahman/namaz/internal/model"
	"github.com/smokyabdulrahman/namaz/internal/prayer"
	"github.com/smokyabdulrahman/namaz/internal/qibla"
	"github.com/smokyabdulrahman/namaz/internal/quran"
	"github.com/smokyabdulrahman/namaz/internal/timings"
)

type nextResponse struct {
	Prayer    model.Prayer `json:"prayer"`
	Time      time.Time    `json:"time"`
	Tomorrow  bool         `json:"tomorrow"`
	Target    time.Time    `json:"target"`
	Remaining string       `json:"remaining"`
	Seconds   int64        `json:"remaining_seconds"`
}

type timingsResponse struct {
	Date      string                  `json:"date"`
	Timings   map[model.Prayer]string `json:"timings"`
	Timezone  string                  `json:"timezone"`
	Hijri     api.HijriDate           `json:"hijri"`
	Location  model.Coordinate        `json:"location"`
	FromCache bool                    `json:"from_cache"`
	Fallback  bool                    `json:"fallback"`
	Next      *nextResponse           `json:"next,omitempty"`
}

// queryCoord reads lat/lng. ok is false when neither is given.
func queryCoord(ctx *gin.Context) (model.Coordinate, bool, *Error) {
	latStr, lngStr := ctx.Query("lat"), ctx.Query("lng")
	if latStr == "" && lngStr == "" {
		return model.Coordinate{}, false, nil
	}
	lat, err1 := strconv.ParseFloat(latStr, 64)
	lng, err2 := strconv.ParseFloat(lngStr, 64)
	if err1 != nil || err2 != nil {
		return model.Coordinate{}, false, badRequest("lat and lng must be numbers")
	}
	c := model.Coordinate{Latitude: lat, Longitude: lng}
	if err := c.Validate(); err != nil {
		return model.Coordinate{}, false, badRequest("lat/lng out of range")
	}
	return c, true, nil
}

// GET /api/timings?lat&lng[&date][&time_format=12h|24h]
func (s *Server) getTimings(ctx *gin.Context) (any, *Error) {
	coord, ok, apiErr := queryCoord(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	var use12h bool
	switch ctx.DefaultQuery("time_format", "24h") {
	case "24h":
	case "12h":
		use12h = true
	default:
		return nil, badRequest("time_format must be 12h or 24h")
	}
	fallback := !ok
	if fallback {
		coord = geo.Default.Coordinate()
	}
	svc, rounded := s.locations.For(coord)

	now := s.now()
	date := ctx.DefaultQuery("date", svc.Today())
	day, err := time.ParseInLocation(model.DateLayout, date, now.Location())
	if err != nil {
		return nil, badRequest("date must be YYYY-MM-DD")
	}

	var (
		entry     *cache.Entry
		fromCache bool
	)
	if date == svc.Today() {
		res, err := svc.Get(ctx.Request.Context(), &rounded)
		if err != nil {
			return nil, &Error{Code: http.StatusBadGateway, Message: "prayer times unavailable"}
		}
		entry, fromCache = res.Entry, res.FromCache
	} else {
		entry, err = svc.ForDate(ctx.Request.Context(), rounded, day)
		if err != nil {
			return nil, &Error{Code: http.StatusBadGateway, Message: "prayer times unavailable"}
		}
	}

	daily := entry.Daily()
	for p, raw := range daily.Timings {
		daily.Timings[p] = prayer.FormatClock(raw, use12h)
	}
	out := timingsResponse{
		Date:      entry.Date,
		Timings:   daily.Timings,
		Timezone:  daily.Timezone,
		Hijri:     entry.Hijri,
		Location:  rounded,
		FromCache: fromCache,
		Fallback:  fallback,
	}

	if date == svc.Today() {
		if events, err := timings.Events(entry, now.Location()); err == nil {
			if next, err := prayer.NextPrayer(events, now); err == nil {
				target := prayer.CountdownTarget(next, now)
				remaining := target.Sub(now)
				out.Next = &nextResponse{
					Prayer:    next.Prayer,
					Time:      next.Time,
					Tomorrow:  next.Tomorrow,
					Target:    target,
					Remaining: prayer.FormatRemaining(remaining),
					Seconds:   int64(remaining.Seconds()),
				}
			}
		}
	}
	return out, nil
}

type qiblaResponse struct {
	Bearing    float64  `json:"bearing"`
	Direction  string   `json:"direction"`
	DistanceKm float64  `json:"distance_km"`
	Heading    *float64 `json:"heading,omitempty"`
	Turn       *float64 `json:"turn,omitempty"`
}

// GET /api/qibla?lat&lng[&heading|&alpha]
func (s *Server) getQibla(ctx *gin.Context) (any, *Error) {
	coord, ok, apiErr := queryCoord(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	if !ok {
		return nil, badRequest("lat and lng are required")
	}

	bearing := qibla.Bearing(coord)
	out := qiblaResponse{
		Bearing:    bearing,
		Direction:  qibla.Direction(bearing),
		DistanceKm: qibla.DistanceKm(coord),
	}

	var ev qibla.OrientationEvent
	for key, dst := range map[string]**float64{"heading": &ev.CompassHeading, "alpha": &ev.Alpha} {
		raw := ctx.Query(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, badRequest(key + " must be a number")
		}
		*dst = &v
	}
	if h, ok := qibla.HeadingFromEvent(ev); ok {
		turn := qibla.RelativeTurn(bearing, h)
		out.Heading, out.Turn = &h, &turn
	}
	return out, nil
}

type chapterResponse struct {
	Chapter  *quran.Chapter `json:"chapter"`
	Verses   []quran.Verse  `json:"verses"`
	AudioURL string         `json:"audio_url"`
}

// GET /api/quran/:chapter
func (s *Server) getChapter(ctx *gin.Context) (any, *Error) {
	id, err := strconv.Atoi(ctx.Param("chapter"))
	if err != nil || !quran.ValidChapter(id) {
		return nil, badRequest("chapter must be between 1 and 114")
	}

	ch, err := s.quran.Chapter(ctx.Request.Context(), id)
	if err != nil {
		return nil, &Error{Code: http.StatusBadGateway, Message: "chapter unavailable"}
	}
	verses, err := s.quran.Verses(ctx.Request.Context(), ch)
	if err != nil {
		return nil, &Error{Code: http.StatusBadGateway, Message: "verses unavailable"}
	}
	return chapterResponse{Chapter: ch, Verses: verses, AudioURL: quran.AudioURL(id)}, nil
}

// GET /api/leaderboard[?limit]
func (s *Server) getLeaderboard(ctx *gin.Context) (any, *Error) {
	limit := db.DefaultLeaderboardSize
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLeaderboardSize {
			return nil, badRequest("limit must be between 1 and 100")
		}
		limit = n
	}
	entries, err := s.leaderboard(ctx.Request.Context(), limit)
	if err != nil {
		return nil, errorFrom(err)
	}
	return entries, nil
}

type publicProfileResponse struct {
	Profile      *model.Profile                `json:"profile"`
	Completion   int                           `json:"completion_percent"`
	Achievements []model.AchievementWithStatus `json:"achievements"`
}

// GET /api/users/:id
func (s *Server) getPublicProfile(ctx *gin.Context) (any, *Error) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return nil, badRequest("invalid user id")
	}
	rctx := ctx.Request.Context()

	p, err := s.store.GetProfile(rctx, id.String())
	if err != nil {
		return nil, errorFrom(err)
	}
	if !p.IsPublic {
		return nil, errorFrom(model.ErrPrivateProfile)
	}

	all, err := s.achievementsFor(ctx, id.String())
	if err != nil {
		return nil, errorFrom(err)
	}
	earned := make([]model.AchievementWithStatus, 0, len(all))
	for _, a := range all {
		if a.Unlocked {
			earned = append(earned, a)
		}
	}
	return publicProfileResponse{
		Profile:      p,
		Completion:   p.CompletionPercent(s.now()),
		Achievements: earned,
	}, nil
}

// GET /api/achievements
func (s *Server) listAchievements(ctx *gin.Context) (any, *Error) {
	catalog, err := s.store.ListAchievements(ctx.Request.Context())
	if err != nil {
		return nil, errorFrom(err)
	}
	return db.WithStatus(catalog, nil), nil
}

func (s *Server) achievementsFor(ctx *gin.Context, userID string) ([]model.AchievementWithStatus, error) {
	catalog, err := s.store.ListAchievements(ctx.Request.Context())
	if err != nil {
		return nil, err
	}
	unlocks, err := s.store.ListUnlocks(ctx.Request.Context(), userID)
	if err != nil {
		return nil, err
	}
	return db.WithStatus(catalog, unlocks), nil
}
