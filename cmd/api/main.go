package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"card-psycho/internal/backend"
	"card-psycho/internal/config"
	apihttp "card-psycho/internal/http"
	"card-psycho/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	client := backend.NewHTTPClient(
		cfg.BackendBaseURL,
		time.Duration(cfg.BackendTimeoutSeconds)*time.Second,
		logger,
	)

	rateWindow := time.Duration(cfg.UploadRateWindowSeconds) * time.Second
	sessionTTL := time.Duration(cfg.BattleSessionTTLMinutes) * time.Minute

	var (
		sessionStore service.BattleSessionStore
		limiter      service.UploadRateLimiter
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			sessionStore = service.NewRedisBattleSessionStore(redisClient)
			limiter = service.NewRedisUploadRateLimiter(redisClient, rateWindow, cfg.UploadRateMax, logger)
		}
		cancel()
	}
	if sessionStore == nil {
		sessionStore = service.NewMemoryBattleSessionStore()
	}
	if limiter == nil {
		limiter = service.NewUploadRateLimiter(rateWindow, cfg.UploadRateMax)
	}

	analyzer := service.NewAnalyzeService(client, cfg.MaxUploadBytes, logger)
	battles := service.NewBattleService(sessionStore, sessionTTL, logger)

	cardHandler := apihttp.NewCardHandler(logger, analyzer)
	battleHandler := apihttp.NewBattleHandler(logger, analyzer, battles)
	audioHandler := apihttp.NewAudioHandler(logger, client)
	statusHandler := apihttp.NewStatusHandler(logger, client)
	router := apihttp.NewRouter(logger, cardHandler, battleHandler, audioHandler, statusHandler, limiter)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting gateway",
		zap.String("port", cfg.HTTPPort),
		zap.String("backend", cfg.BackendBaseURL),
	)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
