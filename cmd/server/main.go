package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"flockd/internal/config"
	"flockd/internal/domain"
	"flockd/internal/httpserver"
	"flockd/internal/imaging"
	"flockd/internal/mail"
	"flockd/internal/observ"
	"flockd/internal/security"
	"flockd/internal/store/memory"
	"flockd/internal/ws"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	// All state lives in one process-local store.
	st := memory.New()

	// Security components
	codec := security.NewTokenCodec(cfg.TokenSecret)
	hasher := security.NewPasswordHasher(0)

	// Password-reset mail gateway. Without SMTP settings tickets are only
	// logged, which is enough for local development.
	var mailer domain.Mailer
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPGateway(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	} else {
		mailer = mail.NewLogGateway(logger)
	}

	cropper := imaging.NewCropper(cfg.UploadDir)

	hub := ws.NewHub()

	router := httpserver.NewRouter(cfg, st, hub, codec, hasher, mailer, cropper, logger)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.HTTPAddr()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
