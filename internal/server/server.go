// Package server exposes prayer times, qibla, the Qur'an reader and the
// signed-in tracker over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/namaz/internal/api"
	"github.com/smokyabdulrahman/namaz/internal/db"
	"github.com/smokyabdulrahman/namaz/internal/quran"
	"github.com/smokyabdulrahman/namaz/internal/storage"
	"github.com/smokyabdulrahman/namaz/internal/timings"
	"github.com/smokyabdulrahman/namaz/internal/tracker"
)

// Options configures the HTTP surface.
type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	CalcMethod     int
	PhotoProofs    bool
	// UploadsDir is served at /uploads when files are stored locally.
	UploadsDir string
	// MaxLocations caps the per-coordinate timings services. Zero means
	// DefaultMaxLocations.
	MaxLocations int
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Store   db.Store
	Tracker *tracker.Tracker
	Fetcher timings.Fetcher
	Quran   *quran.Client
	Storage storage.Storage
	// Redis is optional. When set it holds timings slots and the
	// leaderboard cache.
	Redis *redis.Client
	Now   func() time.Time
}

type Server struct {
	opts      Options
	store     db.Store
	tracker   *tracker.Tracker
	quran     *quran.Client
	storage   storage.Storage
	rdb       *redis.Client
	locations *locationPool
	now       func() time.Time

	engine *gin.Engine
}

func New(opts Options, deps Deps) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Tracker == nil {
		deps.Tracker = tracker.New(deps.Store, tracker.WithClock(deps.Now))
	}
	if deps.Fetcher == nil {
		deps.Fetcher = api.NewClient()
	}
	if deps.Quran == nil {
		deps.Quran = quran.NewClient()
	}

	s := &Server{
		opts:      opts,
		store:     deps.Store,
		tracker:   deps.Tracker,
		quran:     deps.Quran,
		storage:   deps.Storage,
		rdb:       deps.Redis,
		locations: newLocationPool(deps.Fetcher, opts.CalcMethod, deps.Redis, deps.Now, opts.MaxLocations),
		now:       deps.Now,
	}
	s.engine = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(corsConfig(s.opts.AllowedOrigins)))

	r.GET("/health", ResolveEndpoint(s.health))

	pub := r.Group("/api")
	pub.GET("/timings", ResolveEndpoint(s.getTimings))
	pub.GET("/qibla", ResolveEndpoint(s.getQibla))
	pub.GET("/quran/:chapter", ResolveEndpoint(s.getChapter))
	pub.GET("/leaderboard", ResolveEndpoint(s.getLeaderboard))
	pub.GET("/users/:id", ResolveEndpoint(s.getPublicProfile))
	pub.GET("/achievements", ResolveEndpoint(s.listAchievements))

	me := pub.Group("/me")
	me.Use(JWTMiddleware(s.opts.JWTSecret))
	me.GET("/today", ResolveEndpointWithAuth(s.getToday))
	me.POST("/prayers/:prayer/toggle", ResolveEndpointWithAuth(s.togglePrayer))
	me.POST("/prayers/:prayer/proof", ResolveEndpointWithAuth(s.uploadProof))
	me.GET("/stats", ResolveEndpointWithAuth(s.getStats))
	me.GET("/qada", ResolveEndpointWithAuth(s.getQada))
	me.PATCH("/qada", ResolveEndpointWithAuth(s.adjustQada))
	me.PATCH("/profile", ResolveEndpointWithAuth(s.updateProfile))
	me.PUT("/privacy", ResolveEndpointWithAuth(s.setPrivacy))
	me.POST("/avatar", ResolveEndpointWithAuth(s.uploadAvatar))
	me.GET("/achievements", ResolveEndpointWithAuth(s.myAchievements))

	if s.opts.UploadsDir != "" {
		r.Static("/uploads", s.opts.UploadsDir)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		switch {
		case o == "*":
			cfg.AllowAllOrigins = true
			cfg.AllowOrigins = nil
			cfg.AllowCredentials = false
			return cfg
		case strings.HasPrefix(o, "http://"), strings.HasPrefix(o, "https://"):
			cfg.AllowOrigins = append(cfg.AllowOrigins, o)
		default:
			log.Warn().Str("origin", o).Msg("ignoring malformed CORS origin")
		}
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"http://localhost:3000"}
	}
	return cfg
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.locations.Wait()
	return err
}

func (s *Server) health(ctx *gin.Context) (any, *Error) {
	return gin.H{"status": "ok", "time": s.now().UTC()}, nil
}
