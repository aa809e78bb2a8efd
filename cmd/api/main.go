package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"callassist/internal/calllog"
	"callassist/internal/capture"
	"callassist/internal/config"
	"callassist/internal/livecall"
	"callassist/internal/logsync"
	"callassist/internal/phrases"
	"callassist/internal/record"
	"callassist/internal/recordings"
	"callassist/internal/session"
	"callassist/internal/speech"
	"callassist/pkg/logger"
	"callassist/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Local development reads .env; a missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Stores: Postgres when configured, in-memory otherwise.
	var (
		phraseRepo  phrases.Repository
		callLogRepo calllog.Repository
	)
	if cfg.UsePostgres() {
		db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		phraseRepo = phrases.NewPostgresRepo(db)
		callLogRepo = calllog.NewPostgresRepo(db)
	} else {
		log.Info("no DB_HOST configured, using in-memory stores")
		phraseRepo = phrases.NewMemoryRepo()
		callLogRepo = calllog.NewMemoryRepo()
	}

	var phraseCache *phrases.Cache
	if cfg.UseRedis() {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		phraseCache = phrases.NewCache(rdb, 0, log)
	}

	recStore, err := recordings.NewStore(cfg.Recordings.Dir)
	if err != nil {
		log.Error("recordings store init failed", "err", err)
		os.Exit(1)
	}

	phraseSvc := phrases.NewService(phraseRepo, phraseCache)
	callLogSvc := calllog.NewService(callLogRepo)

	if err := phraseSvc.Seed(rootCtx, cfg.Demo.UserID); err != nil {
		log.Warn("phrase seeding failed", "err", err)
	}

	// Live call stack. The coordinator syncs to our own REST API so the
	// store contract stays the single source of truth.
	var live *livecall.Handler
	selfURL := "http://127.0.0.1" + cfg.HTTPAddr()
	coord := session.NewCoordinator(session.Config{
		UserID: cfg.Demo.UserID,
		Recognizer: capture.NewRecognizer(capture.RecognizerConfig{
			URL:    cfg.Speech.RecognizerURL,
			APIKey: cfg.Speech.RecognizerKey,
		}, log),
		Fallback: capture.NewFallback(capture.FallbackConfig{}, log),
		Speech:   speech.NewEngine(speech.NewMockSynth(), "en-US", log),
		Mic:      record.NewLease(true),
		NewSyncer: func() session.SyncQueue {
			return logsync.NewSyncer(logsync.NewHTTPClient(selfURL, nil), log)
		},
		OnChange: func(snap session.Snapshot) {
			if live != nil {
				live.Broadcast(snap)
			}
		},
		Log: log,
	})
	defer coord.Close()

	live = livecall.NewHandler(coord, log)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, routeDeps{
		phrases:    phraseSvc,
		callLogs:   callLogSvc,
		recordings: recStore,
		demoUserID: cfg.Demo.UserID,
		live:       live,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
