// Package main runs the meeting coaching HTTP server: webhook ingress,
// dashboard read API, and background coaching analysis.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pitchlab/backend/config"
	"github.com/pitchlab/backend/internal/aggregator"
	"github.com/pitchlab/backend/internal/coaching"
	"github.com/pitchlab/backend/internal/llm"
	"github.com/pitchlab/backend/internal/middleware"
	"github.com/pitchlab/backend/internal/prompts"
	"github.com/pitchlab/backend/internal/recall"
	"github.com/pitchlab/backend/internal/sessions"
	"github.com/pitchlab/backend/internal/store"
	"github.com/pitchlab/backend/internal/tasks"
	"github.com/pitchlab/backend/internal/webhooks"
	"github.com/pitchlab/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	// All session state lives in this store for the process lifetime.
	// There is no persistence and no eviction; restart is the cleanup.
	sessionStore := store.New()
	promptStore := coaching.NewPromptStore()
	runner := tasks.NewRunner(logger)

	recallClient := recall.NewClient(recall.Config{
		BaseURL:    cfg.Recall.BaseURL,
		APIKey:     cfg.Recall.APIKey,
		WebhookURL: cfg.Recall.WebhookURL,
		Timeout:    cfg.Recall.Timeout(),
	}, logger)

	llmClient := llm.NewClient(llm.Config{
		BaseURL: cfg.OpenAI.BaseURL,
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
		Timeout: cfg.OpenAI.Timeout(),
	})

	analyzer := coaching.NewAnalyzer(sessionStore, promptStore, llmClient, runner, logger)
	agg := aggregator.New(sessionStore, analyzer, recallClient, logger)

	webhookHandler := webhooks.NewHandler(agg, cfg.Recall.WebhookSecret, nil, logger)
	sessionHandler := sessions.NewHandler(sessionStore, recallClient, cfg.Recall.BotName,
		cfg.Coaching.DefaultCoachingLimit, cfg.Coaching.DefaultTranscriptLimit, logger)
	promptHandler := prompts.NewHandler(promptStore)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Webhooks (no auth middleware; signed deliveries are verified in
	// the handler, unsigned realtime transcript deliveries are not)
	router.POST("/webhooks/recall", webhookHandler.Receive)

	// Dashboard API
	api := router.Group("/api")
	{
		api.POST("/bots", sessionHandler.LaunchBot)
		api.GET("/sessions", sessionHandler.List)
		api.GET("/sessions/:id", sessionHandler.GetByID)
		api.GET("/sessions/:id/latest", sessionHandler.Latest)

		api.GET("/prompt-config", promptHandler.Get)
		api.PUT("/prompt-config", promptHandler.Update)
		api.DELETE("/prompt-config", promptHandler.Reset)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	// In-flight coaching analyses run to completion; give them a
	// bounded window before exit.
	if !runner.Wait(time.Duration(cfg.Server.ShutdownWaitSec) * time.Second) {
		logger.Warn("background tasks still running at shutdown deadline")
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
