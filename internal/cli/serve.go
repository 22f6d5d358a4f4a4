package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/namaz/internal/api"
	"github.com/smokyabdulrahman/namaz/internal/cache"
	"github.com/smokyabdulrahman/namaz/internal/config"
	"github.com/smokyabdulrahman/namaz/internal/db"
	"github.com/smokyabdulrahman/namaz/internal/logging"
	"github.com/smokyabdulrahman/namaz/internal/model"
	"github.com/smokyabdulrahman/namaz/internal/notify"
	"github.com/smokyabdulrahman/namaz/internal/server"
	"github.com/smokyabdulrahman/namaz/internal/storage"
	"github.com/smokyabdulrahman/namaz/internal/timings"
)

const announceInterval = 30 * time.Second

var flagEnvFile string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: "Serve prayer times, qibla, the tracker and profiles over HTTP.\n\n" +
			"Settings come from the environment (DATABASE_URL, JWT_SECRET, NAMAZ_ADDR,\n" +
			"REDIS_URL, ALLOWED_ORIGINS, STORAGE_BACKEND, MQTT_BROKER, ...), optionally\n" +
			"loaded from --env-file. Variables already set take precedence.",
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().StringVar(&flagEnvFile, "env-file", ".env", "File of KEY=value settings to load")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadServer(flagEnvFile)
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel, cfg.Pretty)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := db.Migrate(ctx, conn); err != nil {
		return err
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		if rdb, err = cache.NewRedisClient(ctx, cfg.RedisURL); err != nil {
			return err
		}
		defer rdb.Close()
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	opts := server.Options{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		CalcMethod:     cfg.CalcMethod,
		PhotoProofs:    cfg.PhotoProofs,
		MaxLocations:   cfg.MaxLocations,
	}
	if local, ok := store.(*storage.LocalStorage); ok {
		opts.UploadsDir = local.Dir()
	}

	fetcher := api.NewClient()
	srv := server.New(opts, server.Deps{
		Store:   db.NewStore(conn),
		Fetcher: fetcher,
		Storage: store,
		Redis:   rdb,
	})

	if cfg.AnnouncerEnabled() {
		stopAnnouncer, err := startAnnouncer(ctx, cfg, fetcher, rdb)
		if err != nil {
			return err
		}
		defer stopAnnouncer()
	}

	log.Info().Str("storage", cfg.Storage.Backend).Bool("redis", rdb != nil).Bool("announcer", cfg.AnnouncerEnabled()).Msg("starting server")
	return srv.Run(ctx, cfg.Addr)
}

// startAnnouncer publishes the countdown for the configured coordinates to
// MQTT. The returned func stops it and disconnects.
func startAnnouncer(ctx context.Context, cfg *config.ServerConfig, fetcher timings.Fetcher, rdb *redis.Client) (func(), error) {
	pub, err := notify.Dial(cfg.MQTTBroker, "namaz-"+uuid.NewString()[:8])
	if err != nil {
		return nil, err
	}

	coord := model.Coordinate{Latitude: cfg.AnnounceLat, Longitude: cfg.AnnounceLng}
	var slots cache.Store = cache.NewMemory()
	if rdb != nil {
		slots = cache.NewRedisStore(rdb).Scoped(fmt.Sprintf("announce:%.2f,%.2f", coord.Latitude, coord.Longitude))
	}
	svc := timings.New(slots, fetcher, timings.WithMethod(cfg.CalcMethod))

	task := notify.NewAnnouncer(pub, cfg.MQTTTopic, svc.DaySource(coord)).Run(ctx, announceInterval)
	log.Info().Str("topic", cfg.MQTTTopic).Float64("lat", coord.Latitude).Float64("lng", coord.Longitude).Msg("athan announcer started")

	return func() {
		task.Stop()
		svc.Wait()
		pub.Close()
	}, nil
}
