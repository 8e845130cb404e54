package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/asesorame/asesorame/internal/config"
	"github.com/asesorame/asesorame/internal/events"
	"github.com/asesorame/asesorame/internal/httpserver"
	"github.com/asesorame/asesorame/internal/payment"
	"github.com/asesorame/asesorame/internal/repo"
	"github.com/asesorame/asesorame/internal/search"
	"github.com/asesorame/asesorame/internal/service"
	"github.com/asesorame/asesorame/pkg/cache"
	pkgdb "github.com/asesorame/asesorame/pkg/db"
	"github.com/asesorame/asesorame/pkg/logging"
	cachemw "github.com/asesorame/asesorame/pkg/middleware/cache"
	loggingmw "github.com/asesorame/asesorame/pkg/middleware/logging"
	"github.com/asesorame/asesorame/pkg/middleware/ratelimit"
)

func main() {
	cfg := config.LoadConfig()
	cfg.Validate()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatalf("db open: %v", err)
	}
	store := &repo.GormRepo{DB: db}
	if err := store.Migrate(ctx); err != nil {
		cancel()
		log.Fatalf("db migrate: %v", err)
	}
	rdb := cache.NewRedisClient(ctx, cache.LoadRedisConfig())
	cancel()

	pub := buildPublisher(cfg)

	var index service.AdvisorIndex
	if cfg.Search.URL != "" {
		idx, err := search.NewIndex(cfg.Search)
		if err != nil {
			log.Printf("search index disabled: %v", err)
		} else {
			log.Printf("search index %q ready", idx.Name())
			index = idx
		}
	}

	users := &service.UserService{
		Repo:      store,
		Events:    pub,
		Index:     index,
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
	}
	sessions := &service.SessionService{Repo: store, Events: pub, Index: index}
	carts := &service.CartService{Repo: store, Events: pub}
	checkout := &service.CheckoutService{
		Repo:       store,
		Gateway:    payment.NewMercadoPago(cfg.Checkout.BaseURL, cfg.Checkout.AccessToken),
		Events:     pub,
		Currency:   cfg.Checkout.Currency,
		SuccessURL: cfg.Checkout.SuccessURL,
		FailureURL: cfg.Checkout.FailureURL,
		PendingURL: cfg.Checkout.PendingURL,
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	httpserver.Register(e, &httpserver.Deps{
		UserHandler:     &httpserver.UserHTTP{Svc: users},
		SessionHandler:  &httpserver.SessionHTTP{Svc: sessions},
		CartHandler:     &httpserver.CartHTTP{Svc: carts},
		CheckoutHandler: &httpserver.CheckoutHTTP{Svc: checkout},
		JWTSecret:       cfg.JWTSecret,
		Revocations:     store,
		Ready:           store.Ping,
		RateLimit:       ratelimit.New(ratelimit.LoadConfig(), rdb),
		Cache:           cachemw.New(cachemw.LoadConfig(), rdb),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		log.Printf("asesorame listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	purgeCtx, stopPurge := context.WithCancel(context.Background())
	go purgeRevocations(purgeCtx, store, logger)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	stopPurge()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if err := pub.Close(); err != nil {
		log.Printf("events close error: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("asesorame stopped")
}

// buildPublisher fans out to every configured broker. With none configured
// events are dropped.
func buildPublisher(cfg *config.Config) events.Publisher {
	var out events.Fanout
	if len(cfg.KafkaBrokers) > 0 {
		out = append(out, events.NewKafkaPublisher(cfg.KafkaBrokers))
	}
	if cfg.RabbitMQURL != "" {
		rp, err := events.NewRabbitPublisher(cfg.RabbitMQURL)
		if err != nil {
			log.Printf("rabbitmq publisher disabled: %v", err)
		} else {
			out = append(out, rp)
		}
	}
	if len(out) == 0 {
		log.Printf("Notice: no event broker configured, events are dropped")
		return events.Nop{}
	}
	return out
}

func purgeRevocations(ctx context.Context, store *repo.GormRepo, l *slog.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := store.PurgeExpiredRevocations(ctx)
			if err != nil {
				l.Warn("purge_revocations_failed", "error", err)
				continue
			}
			l.Info("purge_revocations", "deleted", n)
		}
	}
}
