package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jeffreasy/mimo-auth/internal/api"
	"github.com/Jeffreasy/mimo-auth/internal/auth"
	"github.com/Jeffreasy/mimo-auth/internal/config"
	"github.com/Jeffreasy/mimo-auth/internal/mailtransport"
	"github.com/Jeffreasy/mimo-auth/internal/ratelimit"
	"github.com/Jeffreasy/mimo-auth/internal/revocation"
	"github.com/Jeffreasy/mimo-auth/internal/service"
	"github.com/Jeffreasy/mimo-auth/internal/userstore"
	"github.com/Jeffreasy/mimo-auth/internal/verification"
	"github.com/Jeffreasy/mimo-auth/pkg/logger"
	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// config.Load has not set up a logger yet; this is the one place
		// a bare stderr write is appropriate.
		os.Stderr.WriteString("config_load_failed: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.Setup(string(cfg.Environment))
	log.Info("application_startup", "env", cfg.Environment)

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 1.0,
			Environment:      string(cfg.Environment),
		})
		if err != nil {
			log.Error("sentry_init_failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
			log.Info("sentry_initialized")
		}
	} else {
		log.Warn("sentry_dsn_missing", "details", "skipping_init")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Error("database_url_parse_failed", "error", err)
		os.Exit(1)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Error("database_pool_create_failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Error("database_ping_failed", "error", err)
		os.Exit(1)
	}
	log.Info("database_connected")

	users := userstore.NewPostgres(pool)

	revocations, err := revocation.New(pool)
	if err != nil {
		log.Error("revocation_index_init_failed", "error", err)
		os.Exit(1)
	}

	verify := verification.NewStore()
	hasher := auth.NewBcryptHasher()
	codec := auth.NewCodec(cfg.JWTSecret)

	var mailer mailtransport.Transport
	if cfg.Environment == config.Production {
		mailer = mailtransport.NewSMTPTransport(cfg.SMTP)
	} else {
		mailer = mailtransport.NewDevMailer(log)
	}

	svc := service.New(
		codec,
		hasher,
		verify,
		revocations,
		ratelimit.NewMailSendLimiter(),
		ratelimit.NewAuthLimiter(),
		users,
		mailer,
		nil, // tag creation lives outside the authentication core
	)

	server := api.NewServer(pool, svc, cfg, log)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.Router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return verification.RunSweeper(gCtx, verify)
	})
	g.Go(func() error {
		return revocation.RunPruner(gCtx, revocations)
	})
	g.Go(func() error {
		log.Info("server_listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server_exited_with_error", "error", err)
		os.Exit(1)
	}
	log.Info("server_shutdown_complete")
}
