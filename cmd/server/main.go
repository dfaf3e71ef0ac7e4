package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"galactischevrienden/internal/config"
	"galactischevrienden/internal/database"
	"galactischevrienden/internal/handlers"
	"galactischevrienden/internal/kv"
	"galactischevrienden/internal/logger"
	"galactischevrienden/internal/repository"
	"galactischevrienden/internal/security"
	"galactischevrienden/internal/service"
	"galactischevrienden/internal/wordbank"
)

const (
	parentLoginAttempts = 5
	parentLoginWindow   = 15 * time.Minute
	shutdownTimeout     = 10 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Hosted database (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close()
	log.Info("database connection established", zap.String("type", cfg.DatabaseType))

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("migrations completed")

	// Device-local store
	local, err := kv.Open(cfg.LocalEngine, cfg.LocalPath, log)
	if err != nil {
		return fmt.Errorf("open local store: %w", err)
	}
	defer local.Close()

	// Word banks
	bank := wordbank.NewRepository()
	if cfg.WordBankDir != "" {
		bank = wordbank.NewRepositoryFromDir(cfg.WordBankDir)
	}
	defer bank.Close()
	if err := bank.LoadAll(); err != nil {
		return fmt.Errorf("load word banks: %w", err)
	}
	for _, issue := range bank.Issues() {
		log.Warn("invalid word bank entry skipped", zap.String("entry", issue.String()))
	}

	// Repositories
	profileRepo := repository.NewProfileRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	weekWordRepo := repository.NewWeekWordRepository(db)
	parentRepo := repository.NewParentRepository(db)

	// Services
	tokens := security.NewTokenManager(cfg.JWTSecret, cfg.SessionDuration)
	remote := service.NewRemoteStore(db, log)
	retries := service.NewRetryQueue(local, cfg.MaxRetries, log)
	outbox := service.NewOutbox(remote, retries, log)
	progress := service.NewProgressService(service.NewLocalStore(local, log), remote, retries, outbox, cfg.RemoteTimeout, log)
	selector := service.NewWordSelector(bank, weekWordRepo, attemptRepo, cfg.SessionSize, rand.New(rand.NewSource(time.Now().UnixNano())), log)
	recorder := service.NewAttemptRecorder(attemptRepo, local, log)
	streaks := service.NewStreakService(repository.NewStreakRepository(db))
	weekWords := service.NewWeekWordService(weekWordRepo)
	parents := service.NewParentService(parentRepo, profileRepo, repository.NewProgressRepository(db), attemptRepo, streaks, tokens)

	email, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.ReportFrom, cfg.ReportFromName, log)
	if err != nil {
		return fmt.Errorf("initialize email: %w", err)
	}
	reports := service.NewReportService(parentRepo, parents, email, log)

	if n := len(recorder.Pending()); n > 0 {
		if sent, err := recorder.SyncPending(ctx); err != nil {
			log.Warn("pending attempts not synced", zap.Int("pending", n), zap.Error(err))
		} else {
			log.Info("pending attempts synced", zap.Int("sent", sent))
		}
	}

	limiter := security.NewRateLimiter(parentLoginAttempts, parentLoginWindow)
	defer limiter.Stop()

	middleware := handlers.NewMiddleware(tokens, log)
	router := handlers.NewRouter(handlers.Handlers{
		Middleware: middleware,
		Player:     handlers.NewPlayerHandler(profileRepo, tokens, log),
		Progress:   handlers.NewProgressHandler(progress, log),
		Session:    handlers.NewSessionHandler(selector, profileRepo, log),
		Attempts:   handlers.NewAttemptHandler(recorder, streaks, log),
		Parent:     handlers.NewParentHandler(parents, weekWords, limiter, log),
		DB:         db,
	})

	// Background workers stop with ctx
	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		outbox.Run(ctx, cfg.OutboxInterval)
	}()
	go func() {
		defer workers.Done()
		reports.Start(ctx, cfg.ReportSchedule)
	}()

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		stop()
		workers.Wait()
		return err
	case <-ctx.Done():
	}

	log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}

	// the outbox flushes once more before Run returns
	workers.Wait()
	return nil
}
