package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"larrosacamiones.com/internal/auth"
	"larrosacamiones.com/internal/cache"
	"larrosacamiones.com/internal/config"
	"larrosacamiones.com/internal/httpapi"
	"larrosacamiones.com/internal/images"
	"larrosacamiones.com/internal/obs"
	"larrosacamiones.com/internal/store/pg"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger := obs.Logger()
		logger.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		logger := obs.Logger()
		logger.Fatal().Err(err).Msg("invalid config")
	}

	obs.InitLogger(cfg.LogLevel, cfg.Environment)
	obs.Init()
	obs.InitBuildInfo(version, commit)
	log := obs.Logger()

	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("LARROSA_PG_DSN is required")
	}
	store, err := pg.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer store.Close()

	tokens, err := auth.NewTokenService(cfg.Auth.Secret,
		auth.WithAlgorithm(cfg.Auth.Algorithm),
		auth.WithTTL(cfg.Auth.AccessTokenTTL()),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("token service")
	}
	users := store.Users()
	gate := auth.NewGate(tokens, users)
	catalog := store.Vehicles()

	statsCache, err := cache.NewStats(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("redis")
	}
	if statsCache != nil {
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := statsCache.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, stats cache disabled")
			statsCache = nil
		}
		cancel()
		defer statsCache.Close()
	}

	var blobs images.BlobStore
	staticDir := ""
	if cfg.S3.Enabled() {
		s3Ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		blobs, err = images.NewS3Store(s3Ctx, cfg.S3)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("s3 store")
		}
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("storing images in S3")
	} else {
		blobs, err = images.NewLocalStore(cfg.Upload.Dir)
		if err != nil {
			log.Fatal().Err(err).Msg("local image store")
		}
		staticDir = cfg.Upload.Dir
	}
	imageSvc := images.NewService(blobs, catalog, cfg.Upload.MaxFileSize, cfg.Upload.AllowedExtensions)

	api := httpapi.New(httpapi.Options{
		Gate:           gate,
		Tokens:         tokens,
		Users:          users,
		Catalog:        catalog,
		Images:         imageSvc,
		StatsCache:     statsCache,
		Ready:          httpapi.ReadyProbe{DB: store.DB()},
		Version:        version,
		AllowedOrigins: cfg.AllowedOrigins,
		StaticDir:      staticDir,
		MaxBodyBytes:   cfg.Upload.MaxFileSize + (1 << 20),
		RateBurst:      cfg.Rate.Burst,
		RatePerSecond:  cfg.Rate.PerSecond,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info().Str("addr", cfg.ListenAddr).Str("version", version).Msg("starting larrosa-api")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info().Msg("stopped")
}
