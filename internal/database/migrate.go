package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaSQL string

// Migrate creates the ledger tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	zap.L().Info("Database schema applied")
	return nil
}

// EnsureSystemAccount creates the treasury account and its wallet on first boot.
// An existing system account is left untouched.
func EnsureSystemAccount(ctx context.Context, db *sql.DB, accountID string, initialBalance int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (id, email, name, password_hash)
		VALUES ($1, $2, $3, '')
		ON CONFLICT (id) DO NOTHING`,
		accountID, accountID+"@system.local", "System Account")
	if err != nil {
		return fmt.Errorf("failed to create system account: %w", err)
	}

	created, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if created == 1 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO wallets (id, account_id, balance)
			VALUES ($1, $2, $3)`,
			uuid.NewString(), accountID, initialBalance)
		if err != nil {
			return fmt.Errorf("failed to create system wallet: %w", err)
		}
		zap.L().Info("System wallet initialized",
			zap.String("account_id", accountID),
			zap.Int64("balance", initialBalance))
	}

	return tx.Commit()
}
