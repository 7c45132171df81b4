package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/StanleyRoberts/Nix-Bot-sub000/config"
	"github.com/StanleyRoberts/Nix-Bot-sub000/crypto"
	"github.com/StanleyRoberts/Nix-Bot-sub000/domain"
	"github.com/StanleyRoberts/Nix-Bot-sub000/game"
	"github.com/StanleyRoberts/Nix-Bot-sub000/gateway"
	"github.com/StanleyRoberts/Nix-Bot-sub000/migrations"
	"github.com/StanleyRoberts/Nix-Bot-sub000/provider"
	"github.com/StanleyRoberts/Nix-Bot-sub000/storage"
	"github.com/StanleyRoberts/Nix-Bot-sub000/words"
)

const supervisorInterval = time.Second

func main() {
	_ = godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := migrations.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	repo, err := storage.NewPostgresRepo(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer repo.Close()

	providerFactory := func(settings domain.RoomSettings) game.Provider {
		return provider.NewTriviaProvider(cfg.TriviaAPIURL, settings.TriviaDifficulty, settings.TriviaCategory, log)
	}
	posts := provider.NewPostsProvider(cfg.PostsAPIURL, log)

	registry := game.NewRegistry()
	engine := game.NewEngine(registry, repo, providerFactory, posts, words.NewSource(), log)

	hub := gateway.NewHub(engine, log)
	supervisor := game.NewSupervisor(registry, supervisorInterval, hub, log)
	go supervisor.Run(ctx)

	go func() {
		pingTicker := time.NewTicker(time.Second * 30)
		defer pingTicker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-pingTicker.C:
				hub.PingAll()
			}
		}
	}()

	hasher := crypto.NewArgon2idHasher(crypto.DefaultHasherParams())
	tokens := crypto.NewJWTManager(cfg.JWTSecret, cfg.JWTMaxAge)
	server := gateway.NewServer(hub, registry, hasher, tokens, cfg.OpsPasswordHash, log)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Router(cfg.AllowedOrigins),
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("received shutdown signal")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second*10)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("gateway listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("application stopped")
}
