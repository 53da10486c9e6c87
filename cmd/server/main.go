package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/user-account-service/internal/config"
	"github.com/iliyamo/user-account-service/internal/database"
	"github.com/iliyamo/user-account-service/internal/handler"
	"github.com/iliyamo/user-account-service/internal/logger"
	"github.com/iliyamo/user-account-service/internal/middleware"
	"github.com/iliyamo/user-account-service/internal/queue"
	"github.com/iliyamo/user-account-service/internal/repository"
	"github.com/iliyamo/user-account-service/internal/router"
	"github.com/iliyamo/user-account-service/internal/service"
	"github.com/iliyamo/user-account-service/internal/sweeper"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly

	cfg := config.Load()
	log := logger.New(cfg.IsProd())

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("database open failed", "err", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("migrations failed", "err", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting and response cache disabled")
	}

	svc := service.NewUserService(db, log, cfg.BcryptCost)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORS()) // the SPA is served from a different origin

	router.Register(e, cfg, svc, router.Handlers{
		Auth: handler.NewAuthHandler(cfg, svc),
		User: handler.NewUserHandler(svc),
		Meta: handler.NewMetaHandler(svc),
		Role: handler.NewRoleHandler(svc),
	},
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	)

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()
	go sweeper.Run(bgCtx, repository.NewTokenRepo(db), log, cfg.TokenSweepInterval)
	if cfg.AuditConsumer {
		go func() {
			if err := queue.StartAuditConsumer(); err != nil {
				log.Error("audit consumer stopped", "err", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", "err", err)
		}
	}()

	// Block until a termination signal, then drain in-flight requests and
	// release the shared resources. Teardown failures are logged but never
	// prevent exit.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	bgCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	if err := db.Close(); err != nil {
		log.Error("database close failed", "err", err)
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error("redis close failed", "err", err)
		}
	}
}
