package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	authhandler "identity-token-service/internal/auth/handler"
	authservice "identity-token-service/internal/auth/service"
	"identity-token-service/internal/config"
	"identity-token-service/internal/db"
	"identity-token-service/internal/db/migrate"
	healthhandler "identity-token-service/internal/health/handler"
	"identity-token-service/internal/notify"
	"identity-token-service/internal/obs"
	"identity-token-service/internal/security"
	"identity-token-service/internal/server"
	userrepo "identity-token-service/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("config: %v", err)
	}

	log := obs.NewLogger(cfg.Env)

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer database.Close()

	if err := migrate.Run(cfg.DatabaseURL, "up"); err != nil {
		log.Fatal().Err(err).Msg("run migrations")
	}

	obs.Init()

	users := userrepo.NewPostgresRepository(database)
	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := security.NewTokenProvider(
		[]byte(cfg.JWTAccessSecret),
		[]byte(cfg.JWTRefreshSecret),
		cfg.JWTIssuer,
		cfg.AccessTTL(),
		cfg.RefreshTTL(),
	)
	notifier := notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	auth := authservice.NewAuthService(users, hasher, tokens, notifier, cfg.ResetTTL(), cfg.PublicBaseURL)

	router := server.NewRouter(server.Deps{
		Auth:   authhandler.NewHandler(auth, users, tokens, cfg.CookieSecure, log),
		Health: healthhandler.NewHandler(database),
		Log:    log,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("http server stopped")
}
