package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelog/reelog/internal/cache"
	"github.com/reelog/reelog/internal/config"
	httpserver "github.com/reelog/reelog/internal/http"
	"github.com/reelog/reelog/internal/repository"
	"github.com/reelog/reelog/internal/stats"
	"github.com/reelog/reelog/internal/store"
	"github.com/reelog/reelog/internal/tmdb"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		errLogger := zerolog.New(os.Stderr)
		errLogger.Fatal().Err(err).Msg("config error")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().
		Timestamp().
		Str("service", "reelog").
		Logger()

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st, err := store.New(dbCtx, cfg.DBURL, store.Options{
		MaxConns:        int32(cfg.DBMaxConns),
		MinConns:        int32(cfg.DBMinConns),
		MaxConnIdleTime: time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime: time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:     time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		Logger:          logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer st.Close()

	appCache := buildCache(ctx, cfg, logger)

	tmdbClient, err := tmdb.NewHTTPClient(cfg.TMDBBaseURL, cfg.TMDBAccessToken,
		time.Duration(cfg.TMDBTimeoutSecs)*time.Second, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init tmdb client")
	}
	tmdbSvc := tmdb.NewService(tmdbClient, appCache, logger)

	repo := repository.New(st)
	statsSvc := stats.New(stats.Deps{
		Watch:    repo.WatchLogs,
		Reviews:  repo.Reviews,
		Movies:   repo.Movies,
		Metadata: tmdbSvc,
		Cache:    appCache,
		Logger:   logger,
	})

	server := httpserver.New(cfg, st, repo, statsSvc, tmdbSvc, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("server error")
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}

// buildCache prefers Redis when configured and reachable, otherwise falls
// back to the in-process cache so a missing Redis never blocks startup.
func buildCache(ctx context.Context, cfg config.Config, logger zerolog.Logger) cache.Cache {
	if cfg.RedisURL == "" {
		logger.Info().Msg("cache: REDIS_URL not set, using in-memory cache")
		return cache.NewMemory()
	}

	rdb, err := cache.NewRedisFromURL(cfg.RedisURL, "")
	if err != nil {
		logger.Warn().Err(err).Msg("cache: invalid REDIS_URL, using in-memory cache")
		return cache.NewMemory()
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx); err != nil {
		logger.Warn().Err(err).Msg("cache: redis unreachable, using in-memory cache")
		return cache.NewMemory()
	}

	logger.Info().Msg("cache: connected to redis")
	return rdb
}
