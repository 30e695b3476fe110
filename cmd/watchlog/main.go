package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"watchlog/internal/authority"
	"watchlog/internal/cache"
	"watchlog/internal/config"
	"watchlog/internal/metadata"
	"watchlog/internal/plex"
	"watchlog/internal/session"
	"watchlog/internal/state"
	"watchlog/internal/types"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Configuration failed: ", err)
	}

	if cfg.Auth0Domain == "" || cfg.Auth0Audience == "" {
		log.Fatal("AUTH0_DOMAIN and AUTH0_AUDIENCE environment variables are required")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to create logger: ", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := cache.Open(cfg.CachePath)
	if err != nil {
		logger.Fatal("failed to open cache", zap.Error(err))
	}
	defer store.Close()

	verifier, err := session.NewVerifier(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		logger.Fatal("failed to create token verifier", zap.Error(err))
	}
	sess, err := verifier.Verify(ctx, cfg.APIToken)
	if err != nil {
		logger.Fatal("sign-in failed", zap.Error(err))
	}
	logger.Info("signed in", zap.String("user", sess.UserID))

	auth := authority.NewClient(cfg.APIBaseURL, cfg.APIToken, cfg.RequestTimeout, logger)
	tmdb := metadata.NewClient(cfg.TMDBAPIKey)

	provider := state.NewProvider(sess, auth, tmdb, store, logger)
	if err := provider.Load(ctx); err != nil {
		logger.Fatal("initial load failed", zap.Error(err))
	}

	for _, list := range types.AllLists() {
		logger.Info("list loaded",
			zap.String("list", string(list)),
			zap.Int("movies", len(provider.List(list))))
	}
	logger.Info("feed loaded", zap.Int("entries", len(provider.Activity())))

	if cfg.PlexToken != "" {
		importer := plex.NewImporter(plex.NewClient(cfg.PlexToken), tmdb, provider, logger)
		stats, err := importer.ImportWatched(ctx)
		if err != nil {
			logger.Warn("plex import failed", zap.Error(err))
		} else {
			logger.Info("plex import complete",
				zap.Int("found", stats.Found),
				zap.Int("imported", stats.Imported),
				zap.Int("skipped", stats.Skipped))
		}
	}
}
