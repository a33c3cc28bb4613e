package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/c14220110/optik-backend/config"
	"github.com/c14220110/optik-backend/internal/common/middlewares"
	"github.com/c14220110/optik-backend/internal/routes"
	"github.com/c14220110/optik-backend/pkg/logger"
	"github.com/c14220110/optik-backend/pkg/metrics"
	"github.com/c14220110/optik-backend/pkg/storage/mariadb"
	"github.com/c14220110/optik-backend/pkg/storage/objectstore"
	"github.com/c14220110/optik-backend/pkg/storage/redisstore"
	"github.com/c14220110/optik-backend/ws"
)

func main() {
	cfg := config.LoadConfig()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Konfigurasi tidak valid", zap.Error(err))
	}
	// jam klinik dan folio harian mengikuti zona waktu klinik, sama dengan DSN
	if loc, err := time.LoadLocation("Asia/Jakarta"); err == nil {
		time.Local = loc
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := mariadb.Connect(cfg, log)
	if err != nil {
		log.Fatal("Gagal terhubung ke database", zap.Error(err))
	}
	defer db.Close()

	if cfg.DBMigrate {
		if err := mariadb.Migrate(db, log); err != nil {
			log.Fatal("Migrasi gagal", zap.Error(err))
		}
	}

	redisClient, err := redisstore.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal("Gagal terhubung ke Redis", zap.Error(err))
	}
	defer redisClient.Close()

	storage, err := objectstore.New(ctx, cfg)
	if err != nil {
		log.Warn("Object storage tidak aktif", zap.Error(err))
		storage = objectstore.Disabled{}
	}

	hub := ws.NewHub(log)
	go hub.Run(ctx)

	m := metrics.New(prometheus.DefaultRegisterer)

	e := echo.New()
	e.HideBanner = true
	e.Validator = middlewares.NewRequestValidator()
	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(middlewares.RequestLogger(log))
	e.Use(m.Middleware())

	if err := routes.Init(e, routes.Deps{
		Config:   cfg,
		DB:       db,
		Drafts:   redisstore.New(redisClient, cfg.DraftTTL),
		Storage:  storage,
		Hub:      hub,
		Metrics:  m,
		Gatherer: prometheus.DefaultGatherer,
		Logger:   log,
	}); err != nil {
		log.Fatal("Gagal menyiapkan route", zap.Error(err))
	}

	go func() {
		log.Info("Server berjalan", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server berhenti", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Menghentikan server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown gagal", zap.Error(err))
	}
}
