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

	"callrelay/internal/config"
	"callrelay/internal/history"
	"callrelay/internal/live"
	"callrelay/internal/pbx"
	"callrelay/internal/registry"
	"callrelay/internal/sink"
	"callrelay/internal/vapi"
	"callrelay/pkg/logger"
	"callrelay/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	// Active-call registry: Redis when configured, in-memory otherwise.
	var store registry.Store = registry.NewMemoryStore()
	if cfg.Redis.Host != "" {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		store = registry.NewRedisStore(rdb)
	}

	// Call history: Postgres when configured, in-memory otherwise.
	var repo history.Repository = history.NewMemoryRepo()
	if cfg.DB.Host != "" {
		db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		repo = history.NewPostgresRepo(db)
	}

	// Spreadsheet sink. Missing credentials are tolerated so the webhook and
	// dashboard endpoints keep working in local setups without a service
	// account; appends are simply skipped.
	var appender sink.Appender
	if cfg.Sheets.SpreadsheetID != "" && cfg.Sheets.CredentialsJSON != "" {
		sheets, err := sink.NewSheetsClient(cfg.Sheets.SpreadsheetID, cfg.Sheets.Range, cfg.Sheets.CredentialsJSON)
		if err != nil {
			log.Error("sheets init failed", "err", err)
			os.Exit(1)
		}
		appender = sheets
	} else {
		log.Warn("sheets sink not configured, call results will not be appended")
	}

	vapiClient := vapi.NewClient(
		cfg.Vapi.APIURL,
		cfg.Vapi.PublicKey,
		cfg.Vapi.PrivateKey,
		cfg.Vapi.AssistantID,
		cfg.Vapi.PhoneNumberID,
	)
	pbxClient := pbx.NewClient(cfg.PBX.APIURL, cfg.PBX.Username, cfg.PBX.Password)

	hub := live.NewHub(store, log)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, deps{
		Vapi:    vapiClient,
		PBX:     pbxClient,
		Sink:    appender,
		History: repo,
		Hub:     hub,
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
