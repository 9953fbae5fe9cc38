package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"brushquest-server/internal/ai"
	"brushquest-server/internal/config"
	"brushquest-server/internal/database"
	"brushquest-server/internal/handler"
	"brushquest-server/internal/repository"
	"brushquest-server/internal/service"
	"brushquest-server/internal/storage"
	"brushquest-server/pkg/jobs"
)

const (
	shutdownTimeout = 30 * time.Second
	jobCleanupAge   = 24 * time.Hour
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger, err := buildZapLogger(cfg.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build logger")
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := database.ApplyMigrations(pool); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}
	log.Info().Msg("database ready")

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, content cache disabled")
			redisClient = nil
		}
	}

	jobManager := jobs.New(16)
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				jobManager.Cleanup(jobCleanupAge)
			}
		}
	}()

	text, err := ai.NewTextGenerator(cfg.AI, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build text generator")
	}
	image := ai.NewImageGenerator(cfg.Image, logger)
	music := ai.NewMusicGenerator(cfg.Image, logger)
	synth := ai.NewSpeechSynthesizer(cfg.TTS, logger)
	blobs := storage.NewBlobStore(cfg.Blob, logger)

	worldRepo := repository.NewWorldRepository(pool)
	storyRepo := repository.NewStoryRepository(pool)
	petRepo := repository.NewPetRepository(pool)
	childRepo := repository.NewChildRepository(pool)
	collectibleRepo := repository.NewCollectibleRepository(pool)
	characterRepo := repository.NewCharacterRepository(pool)

	cache := service.NewContentCache(redisClient,
		time.Duration(cfg.Redis.ContentTTLSeconds)*time.Second, logger)

	worldSvc := service.NewWorldService(worldRepo, text, image, blobs, jobManager, cache, logger)
	storySvc := service.NewStoryService(worldRepo, storyRepo, text, music, blobs, jobManager, cache, logger)
	petSvc := service.NewPetService(petRepo, text, cache, logger)
	collectibleSvc := service.NewCollectibleService(collectibleRepo, worldRepo, text, image, blobs, jobManager, cache, logger)
	spriteSvc := service.NewSpriteService(characterRepo, childRepo, petRepo, image, blobs, jobManager, logger)
	childSvc := service.NewChildService(childRepo, synth, blobs, logger)
	mediaSvc := service.NewMediaService(storyRepo, petRepo, synth, image, blobs, logger)
	contentSvc := service.NewContentService(worldRepo, storyRepo, petRepo, collectibleRepo, cache, logger)

	h := handler.New(worldSvc, storySvc, petSvc, collectibleSvc, spriteSvc,
		childSvc, mediaSvc, contentSvc, jobManager, cfg, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h.Router(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	// Drain running generation jobs before letting the process exit.
	if err := jobManager.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("job manager shutdown failed")
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	log.Info().Msg("bye")
}

func buildZapLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg := zap.NewProductionConfig()
	if cfg.Encoding == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
