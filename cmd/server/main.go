package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	adminhandler "github.com/Sonu113077/rider-earnings-navigator/internal/admin/handler"
	"github.com/Sonu113077/rider-earnings-navigator/internal/audit"
	auditrepo "github.com/Sonu113077/rider-earnings-navigator/internal/audit/repository"
	authhandler "github.com/Sonu113077/rider-earnings-navigator/internal/auth/handler"
	"github.com/Sonu113077/rider-earnings-navigator/internal/config"
	"github.com/Sonu113077/rider-earnings-navigator/internal/db"
	earningshandler "github.com/Sonu113077/rider-earnings-navigator/internal/earnings/handler"
	earningsrepo "github.com/Sonu113077/rider-earnings-navigator/internal/earnings/repository"
	earningssvc "github.com/Sonu113077/rider-earnings-navigator/internal/earnings/service"
	healthhandler "github.com/Sonu113077/rider-earnings-navigator/internal/health/handler"
	"github.com/Sonu113077/rider-earnings-navigator/internal/idp/local"
	notificationhandler "github.com/Sonu113077/rider-earnings-navigator/internal/notification/handler"
	notificationrepo "github.com/Sonu113077/rider-earnings-navigator/internal/notification/repository"
	notificationsvc "github.com/Sonu113077/rider-earnings-navigator/internal/notification/service"
	"github.com/Sonu113077/rider-earnings-navigator/internal/principal"
	profilehandler "github.com/Sonu113077/rider-earnings-navigator/internal/profile/handler"
	profilerepo "github.com/Sonu113077/rider-earnings-navigator/internal/profile/repository"
	profilesvc "github.com/Sonu113077/rider-earnings-navigator/internal/profile/service"
	"github.com/Sonu113077/rider-earnings-navigator/internal/security"
	"github.com/Sonu113077/rider-earnings-navigator/internal/server"
	"github.com/Sonu113077/rider-earnings-navigator/internal/server/session"
	"github.com/Sonu113077/rider-earnings-navigator/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := otel.Setup(ctx, cfg.OTLPEndpoint, "rider-earnings-navigator", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", "err", err)
		}
	}()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	sqldb, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer sqldb.Close()

	privKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("JWT_PRIVATE_KEY: %v", err)
	}
	pubKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("JWT_PUBLIC_KEY: %v", err)
	}
	tokens := security.NewTokenProvider(privKey, pubKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.ResetLifetime())
	hasher := security.NewHasher(cfg.BcryptCost)

	idpsvc := local.NewService(
		local.NewPostgresStore(sqldb),
		hasher,
		tokens,
		nil, // no code exchanger wired yet; OAuth callback is inert without one
		cfg.OAuthProviderMap(),
		cfg.SessionLifetime(),
		cfg.RememberLifetime(),
		logger,
	)

	profiles := profilesvc.NewService(profilerepo.NewPostgresRepository(sqldb), logger)
	notices := notificationsvc.NewService(notificationrepo.NewPostgresRepository(sqldb), logger)
	earnings := earningssvc.NewService(earningsrepo.NewPostgresRepository(sqldb), profiles, logger)
	recorder := audit.NewLogger(auditrepo.NewPostgresRepository(sqldb), logger)

	allowList := principal.NewAllowList(cfg.AdminEmailList())
	resolver := principal.NewResolver(profilerepo.NewPostgresRepository(sqldb), allowList, logger)
	registry := session.NewRegistry(idpsvc, resolver, notices, 30*time.Minute, logger)
	go registry.RunSweeper(ctx, 5*time.Minute)

	router := server.NewRouter(server.Deps{
		Registry:      registry,
		Auth:          authhandler.NewHandler(registry, idpsvc, profiles, recorder, cfg, logger),
		Profile:       profilehandler.NewHandler(profiles, logger),
		Earnings:      earningshandler.NewHandler(earnings, logger),
		Notifications: notificationhandler.NewHandler(notices, logger),
		Admin:         adminhandler.NewHandler(profiles, earnings, auditrepo.NewPostgresRepository(sqldb), recorder, logger),
		Health:        healthhandler.NewHandler(sqldb),
		Logger:        logger,
	})

	srv := server.New(cfg.HTTPAddr, router, logger)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("serve: %v", err)
	}
	logger.Info("http server stopped")
}
