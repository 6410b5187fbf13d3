package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/cambiopix/backend/internal/config"
	"github.com/cambiopix/backend/internal/handler"
	"github.com/cambiopix/backend/internal/logging"
	"github.com/cambiopix/backend/internal/middleware"
	"github.com/cambiopix/backend/internal/rates"
	"github.com/cambiopix/backend/internal/repository"
	"github.com/cambiopix/backend/internal/service"
)

const jwtExpiry = 24 * time.Hour

func main() {
	// Local development convenience; absence of a .env file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("cambiopix-api", cfg.LogLevel, cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := buildServer(cfg, db)

	go func() {
		slog.Info("server started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func buildServer(cfg *config.Config, db *sql.DB) *http.Server {
	profiles := repository.NewProfileRepository(db)
	verifications := repository.NewKycVerificationRepository(db)
	transactions := repository.NewTransactionRepository(db)
	paymentAccounts := repository.NewPaymentAccountRepository(db)

	var quoter rates.Quoter = rates.NewService(cfg.TickerURL, cfg.TickerSymbol, cfg.FXMarkupFixed, cfg.FXMarkupPct)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		quoter = rates.NewCachedQuoter(quoter, redis.NewClient(opts), cfg.TickerSymbol,
			time.Duration(cfg.RateCacheTTLS)*time.Second)
		slog.Info("quote cache enabled", "ttl_s", cfg.RateCacheTTLS)
	}

	providerClient := service.NewKycProviderClient(cfg.KycProviderURL)
	kycSvc := service.NewKycService(providerClient, profiles, verifications)
	reconciler := service.NewKycReconciler(verifications, profiles)
	depositSvc := service.NewDepositService(transactions, profiles, paymentAccounts, quoter, service.DepositLimits{
		MinBRL: decimal.NewFromFloat(cfg.MinDepositBRL),
		MaxBRL: decimal.NewFromFloat(cfg.MaxDepositBRL),
	})

	healthHandler := handler.NewHealthHandler(db)
	authHandler := handler.NewAuthHandler(profiles, cfg.JWTSecret, jwtExpiry)
	userHandler := handler.NewUserHandler(profiles)
	ratesHandler := handler.NewRatesHandler(quoter)
	kycHandler := handler.NewKycHandler(kycSvc)
	webhookHandler := handler.NewKycWebhookHandler(reconciler, cfg.KycWebhookSecret)
	txHandler := handler.NewTransactionHandler(depositSvc)
	adminHandler := handler.NewAdminHandler(transactions, depositSvc, paymentAccounts, verifications)

	authed := middleware.Auth(cfg.JWTSecret)
	admin := func(h http.HandlerFunc) http.Handler {
		return authed(middleware.RequireAdmin(h))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/live", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)

	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/v1/rates/quote", ratesHandler.GetQuote)
	mux.HandleFunc("POST /api/v1/webhooks/kyc", webhookHandler.ReceiveCallback)

	mux.Handle("GET /api/v1/users/{id}", authed(http.HandlerFunc(userHandler.GetByID)))
	mux.Handle("POST /api/v1/kyc/verifications", authed(http.HandlerFunc(kycHandler.StartVerification)))
	mux.Handle("GET /api/v1/kyc/status", authed(http.HandlerFunc(kycHandler.Status)))
	mux.Handle("POST /api/v1/transactions", authed(http.HandlerFunc(txHandler.Create)))
	mux.Handle("GET /api/v1/transactions", authed(http.HandlerFunc(txHandler.List)))
	mux.Handle("POST /api/v1/transactions/{id}/paid", authed(http.HandlerFunc(txHandler.ConfirmPaid)))

	mux.Handle("GET /api/v1/admin/transactions", admin(adminHandler.ListTransactions))
	mux.Handle("PATCH /api/v1/admin/transactions/{id}/status", admin(adminHandler.SetTransactionStatus))
	mux.Handle("GET /api/v1/admin/payment-accounts", admin(adminHandler.ListPaymentAccounts))
	mux.Handle("POST /api/v1/admin/payment-accounts", admin(adminHandler.CreatePaymentAccount))
	mux.Handle("PATCH /api/v1/admin/payment-accounts/{id}", admin(adminHandler.SetPaymentAccountActive))
	mux.Handle("GET /api/v1/admin/kyc/verifications", admin(adminHandler.ListVerifications))

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
