package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"
	"github.com/walletledger/backend/internal/config"
	"github.com/walletledger/backend/internal/database"
	"github.com/walletledger/backend/internal/handlers"
	mW "github.com/walletledger/backend/internal/middleware"
	"github.com/walletledger/backend/internal/security"
	"github.com/walletledger/backend/internal/services"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// @title Wallet Ledger API
// @version 1.0
// @description Double-entry wallet ledger: accounts, transfers, donations and history
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func newLogger() (*zap.Logger, error) {
	var cfg zap.Config
	if viper.GetString("app.env") == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	if raw := viper.GetString("log.level"); raw != "" {
		level, err := zapcore.ParseLevel(raw)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}
	return cfg.Build()
}

func main() {
	config.Init()

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx := context.Background()

	dbConfig := database.GetConfig()
	db, err := database.Open(ctx, dbConfig)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ledgerConfig := config.LoadLedgerConfig()
	if dbConfig.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
	}
	if err := database.EnsureSystemAccount(ctx, db, ledgerConfig.SystemAccountID, ledgerConfig.SystemInitialBalance); err != nil {
		logger.Fatal("Failed to provision system account", zap.Error(err))
	}

	redisClient := database.InitRedis(ctx)
	if redisClient != nil {
		defer redisClient.Close()
	}

	secrets := security.NewArgon2(config.LoadArgon2Config())
	audit := security.NewAuditLogger(logger)

	wallets := services.NewWalletStore(db)
	ledger := services.NewLedgerService(db, wallets, services.NewMovementNotifier(redisClient), audit, ledgerConfig)
	accounts := services.NewAccountService(db, wallets, ledger, secrets, audit, ledgerConfig)
	movements := services.NewMovementService(accounts, secrets, ledger, ledgerConfig)
	history := services.NewHistoryService(db)
	balances := services.NewBalanceService(db, wallets)

	authConfig := config.LoadAuthConfig()
	if authConfig.SecretKey == "" {
		logger.Fatal("JWT_SECRET_KEY must be set")
	}
	tokens := mW.NewTokenIssuer(authConfig)

	router := handlers.NewRouter(handlers.Routes{
		Accounts:     handlers.NewAccountHandler(accounts, tokens),
		Movements:    handlers.NewMovementHandler(accounts, services.NewTransferService(movements), services.NewDonationService(movements), history, ledgerConfig),
		Transactions: handlers.NewTransactionHandler(history, balances, ledgerConfig),
		Authenticate: tokens.Authenticate,
	})

	httpConfig := config.LoadHTTPConfig()
	server := &http.Server{
		Addr:         ":" + httpConfig.Port,
		Handler:      router,
		ReadTimeout:  httpConfig.ReadTimeout,
		WriteTimeout: httpConfig.WriteTimeout,
		IdleTimeout:  httpConfig.IdleTimeout,
	}

	go func() {
		logger.Info("Server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server stopped")
}
