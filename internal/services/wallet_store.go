package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/walletledger/backend/internal/models"
)

// WalletStore owns wallet rows. Every mutation runs inside the caller's transaction.
type WalletStore struct {
	db *sql.DB
}

func NewWalletStore(db *sql.DB) *WalletStore {
	return &WalletStore{db: db}
}

// Balance returns the stored balance of the account's wallet.
func (s *WalletStore) Balance(ctx context.Context, accountID string) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx, `SELECT balance FROM wallets WHERE account_id = $1`, accountID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: account %s", ErrWalletNotFound, accountID)
	}
	if err != nil {
		return 0, classifyStoreError(err)
	}
	return balance, nil
}

// Create inserts an empty wallet for a freshly created account.
func (s *WalletStore) Create(ctx context.Context, tx *sql.Tx, accountID string, now time.Time) (*models.Wallet, error) {
	wallet := &models.Wallet{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Balance:   0,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (id, account_id, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		wallet.ID, wallet.AccountID, wallet.Balance, wallet.Version, wallet.CreatedAt, wallet.UpdatedAt)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return wallet, nil
}

// LockPair row-locks both wallets, always in ascending account id order so
// movements over the same pair in opposite directions cannot deadlock.
func (s *WalletStore) LockPair(ctx context.Context, tx *sql.Tx, fromAccountID, toAccountID string) (*models.Wallet, *models.Wallet, error) {
	firstLock, secondLock := fromAccountID, toAccountID
	if fromAccountID > toAccountID {
		firstLock, secondLock = toAccountID, fromAccountID
	}

	first, err := s.lock(ctx, tx, firstLock)
	if err != nil {
		return nil, nil, err
	}

	second, err := s.lock(ctx, tx, secondLock)
	if err != nil {
		return nil, nil, err
	}

	if firstLock != fromAccountID {
		first, second = second, first
	}
	return first, second, nil
}

func (s *WalletStore) lock(ctx context.Context, tx *sql.Tx, accountID string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := tx.QueryRowContext(ctx, `
		SELECT id, account_id, balance, version, created_at, updated_at
		FROM wallets
		WHERE account_id = $1
		FOR UPDATE`, accountID).
		Scan(&wallet.ID, &wallet.AccountID, &wallet.Balance, &wallet.Version, &wallet.CreatedAt, &wallet.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %s", ErrWalletNotFound, accountID)
	}
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return &wallet, nil
}

// Debit subtracts amount from a locked wallet and returns the balance snapshot.
// The balance guard in the UPDATE backs up the check done on the locked row.
func (s *WalletStore) Debit(ctx context.Context, tx *sql.Tx, wallet *models.Wallet, amount int64) (int64, int64, error) {
	if wallet.Balance < amount {
		return 0, 0, fmt.Errorf("%w: wallet %s has %d, needs %d", ErrInsufficientFunds, wallet.ID, wallet.Balance, amount)
	}

	var after int64
	err := tx.QueryRowContext(ctx, `
		UPDATE wallets
		SET balance = balance - $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND balance >= $1
		RETURNING balance`,
		amount, time.Now().UTC(), wallet.ID).Scan(&after)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("%w: wallet %s", ErrInsufficientFunds, wallet.ID)
	}
	if err != nil {
		return 0, 0, classifyStoreError(err)
	}

	before := after + amount
	wallet.Balance = after
	wallet.Version++
	return before, after, nil
}

// Credit adds amount to a locked wallet and returns the balance snapshot.
func (s *WalletStore) Credit(ctx context.Context, tx *sql.Tx, wallet *models.Wallet, amount int64) (int64, int64, error) {
	var after int64
	err := tx.QueryRowContext(ctx, `
		UPDATE wallets
		SET balance = balance + $1, version = version + 1, updated_at = $2
		WHERE id = $3
		RETURNING balance`,
		amount, time.Now().UTC(), wallet.ID).Scan(&after)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("%w: wallet %s", ErrWalletNotFound, wallet.ID)
	}
	if err != nil {
		return 0, 0, classifyStoreError(err)
	}

	before := after - amount
	wallet.Balance = after
	wallet.Version++
	return before, after, nil
}
