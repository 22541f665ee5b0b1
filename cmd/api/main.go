package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"guru-chat/internal/config"
	"guru-chat/internal/db"
	apihttp "guru-chat/internal/http"
	"guru-chat/internal/llm"
	"guru-chat/internal/logger"
	"guru-chat/internal/news"
	"guru-chat/internal/repository"
	"guru-chat/internal/service"
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

	zl, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		panic(err)
	}
	defer zl.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		zl.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Ping(ctx, pool); err != nil {
		zl.Fatal("db ping", zap.Error(err))
	}
	if err := db.EnsureSchema(ctx, pool); err != nil {
		zl.Fatal("db schema", zap.Error(err))
	}

	sessionRepo := repository.NewPgSessionRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)
	characterRepo := repository.NewPgCharacterRepository(pool)

	var (
		chatLock    service.ChatLock
		chatLimiter service.ChatRateLimiter
		newsCache   news.Cache
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			zl.Warn("redis ping failed", zap.Error(err))
		} else {
			chatLock = service.NewRedisChatLock(redisClient)
			chatLimiter = service.NewRedisChatRateLimiter(redisClient, cfg.ChatRateWindow, cfg.ChatRateLimit)
			newsCache = news.NewRedisCache(redisClient)
		}
		cancel()
	}
	if chatLock == nil {
		chatLock = service.NewMemoryChatLock()
	}
	if chatLimiter == nil {
		chatLimiter = service.NewChatRateLimiter(cfg.ChatRateWindow, cfg.ChatRateLimit)
	}
	if newsCache == nil {
		newsCache = news.NewMemoryCache(cfg.NewsCacheTTL)
	}

	var (
		generator  llm.Generator = llm.EchoGenerator{}
		contextSvc service.ContextService
	)
	if cfg.UseLLM() {
		llmClient := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMAPIKeyHeader, cfg.LLMModel, zl)
		var newsSource service.NewsSource
		if cfg.SerperAPIKey != "" {
			newsSource = news.NewFetcher(llmClient, news.NewSerperClient(cfg.SerperURL, cfg.SerperAPIKey), newsCache, cfg.NewsCacheTTL, zl)
		} else {
			zl.Warn("serper api key not configured, cold mode runs without news")
		}
		generator = service.NewPersonaGenerator(llmClient, newsSource, zl)
		contextSvc = service.NewBasicContextService(messageRepo)
		zl.Info("llm generator enabled", zap.String("model", cfg.LLMModel))
	} else if cfg.Generator == config.GeneratorLLM {
		zl.Warn("llm generator requested without api key, using echo generator")
	}

	sessionSvc := service.NewSessionService(sessionRepo, messageRepo, characterRepo)
	chatSvc := service.NewChatService(zl, sessionRepo, messageRepo, generator, service.ChatOptions{
		Context:    contextSvc,
		Lock:       chatLock,
		Limiter:    chatLimiter,
		TokenDelay: cfg.ChatTokenDelay,
		LockTTL:    cfg.ChatLockTTL,
	})

	router := apihttp.NewRouter(
		zl,
		cfg.CORSOrigins,
		apihttp.NewSessionHandler(zl, sessionSvc),
		apihttp.NewChatHandler(zl, chatSvc),
		apihttp.NewCharacterHandler(zl, sessionSvc),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zl.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("server shutdown", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
