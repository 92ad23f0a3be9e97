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

	"campus-canteen-api/catalog"
	"campus-canteen-api/config"
	"campus-canteen-api/handlers"
	"campus-canteen-api/identity"
	"campus-canteen-api/logging"
	"campus-canteen-api/notify"
	"campus-canteen-api/orders"
	"campus-canteen-api/ratings"
	"campus-canteen-api/realtime"
	"campus-canteen-api/routes"
	"campus-canteen-api/store"
	"campus-canteen-api/tracking"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
)

const otpSweepInterval = time.Minute

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.LogLevel)
	slog.SetDefault(log)

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.OpenDB(ctx, cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	var mirror realtime.Mirror
	if len(cfg.KafkaBrokers) > 0 {
		km := realtime.NewKafkaMirror(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		defer func() {
			if err := km.Close(); err != nil {
				log.Warn("close kafka mirror", "error", err)
			}
		}()
		mirror = km
		log.Info("mirroring realtime events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	hub := realtime.NewHub(log, mirror)

	var sender notify.Sender = notify.LogSender{Logger: log}
	if cfg.MailEnabled() {
		sender = &notify.SMTPSender{Host: cfg.SMTPHost, Port: cfg.SMTPPort, User: cfg.SMTPUser, Pass: cfg.SMTPPass, From: cfg.MailFrom}
	}
	mailer := &notify.Mailer{Sender: sender, Attempts: cfg.MailAttempts, Backoff: cfg.MailBackoff, Logger: log}
	dispatcher := notify.NewDispatcher(mailer, log)
	defer dispatcher.Close()

	accounts := &store.AccountRepo{DB: db}
	menuRepo := &store.MenuRepo{DB: db}
	orderRepo := &store.OrderRepo{DB: db}
	otp := identity.NewOTPStore(cfg.OTPTTL)

	h := &handlers.Handler{
		Identity: &identity.Service{
			Accounts: accounts,
			Tokens:   identity.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
			OTP:      otp,
			Mail:     mailer,
			Log:      log,
		},
		Catalog: &catalog.Service{Menu: menuRepo, Publisher: hub, Log: log},
		Orders: &orders.Service{
			Orders:               orderRepo,
			Menu:                 menuRepo,
			Publisher:            hub,
			Mail:                 dispatcher,
			Log:                  log,
			ListAllRequiresAdmin: cfg.OrdersListRequiresAdmin,
		},
		Ratings:  &ratings.Service{Orders: orderRepo, Ratings: &store.RatingRepo{DB: db}, Publisher: hub, Log: log},
		Tracking: &tracking.Service{Orders: orderRepo, Publisher: hub, Topics: hub, Log: log},
		Hub:      hub,
		DB:       orderRepo,
	}

	r := gin.New()
	r.Use(gin.Recovery(), logging.RequestLogger(log))
	routes.SetupRoutes(r, h)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Authorization", logging.HeaderRequestID},
		ExposedHeaders:   []string{logging.HeaderRequestID},
		AllowCredentials: true,
	})

	// no WriteTimeout: realtime streams stay open
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		otp.Run(gctx, otpSweepInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
