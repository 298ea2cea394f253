package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/speakflash/internal/api"
	"github.com/vytor/speakflash/internal/config"
	"github.com/vytor/speakflash/internal/db"
	"github.com/vytor/speakflash/internal/deck"
	"github.com/vytor/speakflash/internal/logger"
	"github.com/vytor/speakflash/internal/repository/sqlite"
	"github.com/vytor/speakflash/internal/review"
	"github.com/vytor/speakflash/internal/services"
	"github.com/vytor/speakflash/internal/session"
	"github.com/vytor/speakflash/internal/tts"
	"github.com/vytor/speakflash/internal/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	log.Info("===========================================")
	log.Info("SpeakFlash Server Starting")
	log.Info("===========================================")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("order_policy=%s", cfg.OrderPolicy)
	log.Debug("tts_rate=%v tts_pitch=%v", cfg.TTSRate, cfg.TTSPitch)
	log.Debug("tts_audio_dir=%q tts_language=%s", cfg.TTSAudioDir, cfg.TTSLanguage)
	log.Debug("review_worker_count=%d", cfg.ReviewWorkerCount)
	log.Debug("review_queue_size=%d", cfg.ReviewQueueSize)

	policy, err := deck.ParsePolicy(cfg.OrderPolicy)
	if err != nil {
		log.Error("invalid order policy: %v", err)
		os.Exit(1)
	}

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	flashcardRepo := sqlite.NewFlashcardRepository(database.DB)
	reviewRepo := sqlite.NewReviewRepository(database.DB)

	reviewPool := worker.NewPool(cfg.ReviewWorkerCount, cfg.ReviewQueueSize)

	speaker := tts.NewRemote()
	var audio api.AudioSource
	if cfg.TTSAudioDir != "" {
		audio = tts.NewSynthesizer(cfg.TTSAudioDir, cfg.TTSBaseURL, cfg.TTSLanguage)
		log.Info("server-side speech synthesis enabled, caching in %s", cfg.TTSAudioDir)
	}

	seq := session.NewSequencer(speaker, review.NewLogger(reviewRepo, reviewPool), session.Options{
		Policy: policy,
		Voice:  tts.Voice{Rate: cfg.TTSRate, Pitch: cfg.TTSPitch},
	})
	controller := session.NewController(seq, flashcardRepo)

	srv := &api.Server{
		Session:    controller,
		Flashcards: services.NewFlashcardService(flashcardRepo),
		Reviews:    services.NewReviewService(reviewRepo),
		Speaker:    speaker,
		Audio:      audio,
		DB:         database.DB,
	}

	ctx, cancel := context.WithCancel(context.Background())
	reviewPool.Start(ctx)
	go controller.Run(ctx)

	if _, err := controller.Reload(ctx); err != nil {
		log.Warn("starting with an empty deck: %v", err)
	}

	// Request contexts derive from streamCtx so open event streams end on shutdown.
	streamCtx, closeStreams := context.WithCancel(context.Background())
	defer closeStreams()

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		BaseContext:  func(net.Listener) context.Context { return streamCtx },
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	httpServer.RegisterOnShutdown(closeStreams)

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	cancel()
	<-controller.Done()

	// Queued review writes still run before the pool exits.
	log.Debug("stopping review pool")
	reviewPool.Stop()

	log.Info("===========================================")
	log.Info("SpeakFlash Server Stopped")
	log.Info("===========================================")
}
