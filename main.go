package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/storyforge/backend/config"
	"github.com/storyforge/backend/handlers"
	"github.com/storyforge/backend/notify"
	"github.com/storyforge/backend/service"
	"github.com/storyforge/backend/store"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	ctx := context.Background()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		logger.Fatal("mongodb", zap.Error(err))
	}
	logger.Info("connected to mongodb", zap.String("db", cfg.DBName))
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			logger.Warn("mongodb disconnect", zap.Error(err))
		}
	}()

	var s3Service *service.S3Service
	if cfg.S3Bucket != "" {
		s3Service, err = service.NewS3Service(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey)
		if err != nil {
			logger.Fatal("s3", zap.Error(err))
		}
	} else {
		logger.Warn("AWS_S3_BUCKET not set; covers will be stored inline as data URIs")
	}

	gemini, err := service.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.GeminiTextModel, cfg.GeminiImageModel, logger)
	if err != nil {
		logger.Fatal("gemini", zap.Error(err))
	}

	broker := notify.NewBroker()
	covers := service.NewCoverService(gemini, db, s3Service, broker, logger, cfg.CoverTimeout)

	authHandler := &handlers.AuthHandler{
		Store:     db,
		JWTSecret: cfg.JWTSecret,
		Logger:    logger,
	}
	booksHandler := &handlers.BooksHandler{
		Store:    db,
		Chapters: gemini,
		Rewriter: gemini,
		Covers:   covers,
		S3:       s3Service,
		Notify:   broker,
		Logger:   logger,
	}
	eventsHandler := &handlers.EventsHandler{Broker: broker}

	router := handlers.NewRouter(authHandler, booksHandler, eventsHandler, cfg.JWTSecret, logger)

	server := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}
