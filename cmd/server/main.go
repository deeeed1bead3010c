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

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/tle-lab/reservations/internal/account"
	"github.com/tle-lab/reservations/internal/config"
	"github.com/tle-lab/reservations/internal/conflict"
	"github.com/tle-lab/reservations/internal/database"
	"github.com/tle-lab/reservations/internal/handler"
	"github.com/tle-lab/reservations/internal/notice"
	"github.com/tle-lab/reservations/internal/queue"
	"github.com/tle-lab/reservations/internal/reservation"
	"github.com/tle-lab/reservations/internal/router"
	"github.com/tle-lab/reservations/internal/session"
)

func main() {
	cfg := config.Load()

	store, err := database.OpenStore(cfg.StoreConfig, true)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer func() { _ = store.Close() }()
	repo := store.Repo

	var (
		notices  notice.Store     = notice.NewMemoryStore()
		denylist session.Denylist = session.NewMemoryDenylist()
	)
	rc := config.LoadRedisConfig()
	rdb := config.NewRedisClient(rc)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		notices = notice.NewRedisStore(rdb, rc.NoticeTTL)
		denylist = session.NewRedisDenylist(rdb)
	} else {
		log.Printf("redis unavailable: notices and logouts are kept in memory, rate limiting is off")
	}

	var pub queue.Publisher = queue.NopPublisher{}
	if cfg.EventsEnabled {
		pub = queue.NewAMQPPublisher(cfg.AMQPURL)
	}

	policy := conflict.ParsePolicy(cfg.ConflictMissingTime)
	accounts := account.NewService(repo, cfg.BcryptCost)
	reservations := reservation.NewService(reservation.Deps{
		Repo:      repo,
		Notices:   notices,
		Publisher: pub,
		Policy:    policy,
	})

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	router.Register(e, router.Deps{
		JWTSecret:    cfg.JWTSecret,
		Denylist:     denylist,
		Redis:        rdb,
		RateLimit:    config.LoadRateLimitConfig(),
		Cache:        config.LoadCacheConfig(),
		Ping:         store.Ping,
		Auth:         handler.NewAuthHandler(cfg.JWTSecret, cfg.AccessTTLMin, accounts, denylist),
		Reservations: handler.NewReservationHandler(reservations),
		Admin:        handler.NewAdminHandler(reservations, accounts),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s, storage=%s, missing-time=%s)", addr, cfg.Env, cfg.StorageDriver, policy)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
