package services

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walletledger/backend/internal/config"
	"github.com/walletledger/backend/internal/models"
)

const (
	lockWalletQuery = "SELECT id, account_id, balance, version, created_at, updated_at FROM wallets WHERE account_id = \\$1 FOR UPDATE"
	debitQuery      = "UPDATE wallets SET balance = balance - \\$1, version = version \\+ 1, updated_at = \\$2 WHERE id = \\$3 AND balance >= \\$1 RETURNING balance"
	creditQuery     = "UPDATE wallets SET balance = balance \\+ \\$1, version = version \\+ 1, updated_at = \\$2 WHERE id = \\$3 RETURNING balance"
)

func testLedgerConfig() *config.LedgerConfig {
	return &config.LedgerConfig{
		SystemAccountID:   "system",
		SeedAmount:        100000,
		Currency:          "NGN",
		CurrencySymbol:    "N",
		MinorUnitExponent: 2,
		ConflictRetries:   2,
		RetryBackoff:      time.Millisecond,
		Location:          time.UTC,
	}
}

func newTestLedger(t *testing.T) (*LedgerService, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ledger := NewLedgerService(db, NewWalletStore(db), nil, nil, testLedgerConfig())
	return ledger, mock, db
}

func walletRow(walletID, accountID string, balance int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "account_id", "balance", "version", "created_at", "updated_at"}).
		AddRow(walletID, accountID, balance, 1, now, now)
}

func expectLock(mock sqlmock.Sqlmock, walletID, accountID string, balance int64) {
	mock.ExpectQuery(lockWalletQuery).
		WithArgs(accountID).
		WillReturnRows(walletRow(walletID, accountID, balance))
}

func expectDebit(mock sqlmock.Sqlmock, walletID string, amount, after int64) {
	mock.ExpectQuery(debitQuery).
		WithArgs(amount, sqlmock.AnyArg(), walletID).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(after))
}

func expectCredit(mock sqlmock.Sqlmock, walletID string, amount, after int64) {
	mock.ExpectQuery(creditQuery).
		WithArgs(amount, sqlmock.AnyArg(), walletID).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(after))
}

// expectRecordWrites covers the transaction, both entries and the metadata row.
func expectRecordWrites(mock sqlmock.Sqlmock, kind models.TransactionKind, table string, amount int64, description string, note interface{},
	fromWallet, fromAccount string, fromBefore int64, toWallet, toAccount string, toBefore int64) {
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(sqlmock.AnyArg(), string(kind), "COMPLETED", amount, "NGN", 0, amount, description, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO entries").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), fromWallet, fromAccount, -amount, fromBefore, fromBefore-amount, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO entries").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), toWallet, toAccount, amount, toBefore, toBefore+amount, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO "+table).
		WithArgs(sqlmock.AnyArg(), amount, note, fromAccount, toAccount, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
}

func strPtr(s string) *string { return &s }

func TestLedgerService_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("successful transfer", func(t *testing.T) {
		ledger, mock, _ := newTestLedger(t)
		intent := MovementIntent{
			Kind:          models.KindTransfer,
			Amount:        200,
			Description:   "Transfer of N2.00 from Ada to Bola",
			FromAccountID: "acc-a",
			ToAccountID:   "acc-b",
			Note:          strPtr("rent"),
		}

		mock.ExpectBegin()
		expectLock(mock, "wal-a", "acc-a", 1000)
		expectLock(mock, "wal-b", "acc-b", 0)
		expectDebit(mock, "wal-a", 200, 800)
		expectCredit(mock, "wal-b", 200, 200)
		expectRecordWrites(mock, models.KindTransfer, "transfers \\(id, amount, note, sender_id, recipient_id, transaction_id, created_at\\)",
			200, intent.Description, "rent", "wal-a", "acc-a", 1000, "wal-b", "acc-b", 0)
		mock.ExpectCommit()

		receipt, err := ledger.Record(ctx, intent)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())

		txn := receipt.Transaction
		assert.Equal(t, models.KindTransfer, txn.Kind)
		assert.Equal(t, models.StatusCompleted, txn.Status)
		assert.Equal(t, int64(200), txn.NetAmount)
		assert.Equal(t, "NGN", txn.Currency)
		require.Len(t, txn.Entries, 2)

		var sum int64
		for _, e := range txn.Entries {
			assert.Equal(t, txn.ID, e.TransactionID)
			assert.Equal(t, e.BalanceBefore+e.Amount, e.BalanceAfter)
			sum += e.Amount
		}
		assert.Zero(t, sum)
		assert.Equal(t, int64(800), txn.Entries[0].BalanceAfter)
		assert.Equal(t, int64(200), txn.Entries[1].BalanceAfter)

		assert.Equal(t, txn.ID, receipt.Movement.TransactionID)
		assert.Equal(t, "rent", *receipt.Movement.Note)
	})

	t.Run("locks wallets in account id order", func(t *testing.T) {
		ledger, mock, _ := newTestLedger(t)
		intent := MovementIntent{
			Kind:          models.KindDonation,
			Amount:        50,
			Description:   "Donation",
			FromAccountID: "acc-z",
			ToAccountID:   "acc-a",
		}

		mock.ExpectBegin()
		expectLock(mock, "wal-a", "acc-a", 0)
		expectLock(mock, "wal-z", "acc-z", 500)
		expectDebit(mock, "wal-z", 50, 450)
		expectCredit(mock, "wal-a", 50, 50)
		expectRecordWrites(mock, models.KindDonation, "donations \\(id, amount, note, donor_id, beneficiary_id, transaction_id, created_at\\)",
			50, "Donation", nil, "wal-z", "acc-z", 500, "wal-a", "acc-a", 0)
		mock.ExpectCommit()

		receipt, err := ledger.Record(ctx, intent)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.Equal(t, "acc-z", receipt.Transaction.Entries[0].AccountID)
		assert.Equal(t, int64(-50), receipt.Transaction.Entries[0].Amount)
	})

	t.Run("insufficient funds rolls back", func(t *testing.T) {
		ledger, mock, _ := newTestLedger(t)

		mock.ExpectBegin()
		expectLock(mock, "wal-a", "acc-a", 100)
		expectLock(mock, "wal-b", "acc-b", 0)
		mock.ExpectRollback()

		_, err := ledger.Record(ctx, MovementIntent{
			Kind: models.KindTransfer, Amount: 200, FromAccountID: "acc-a", ToAccountID: "acc-b",
		})
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("balance guard in update reports insufficient funds", func(t *testing.T) {
		ledger, mock, _ := newTestLedger(t)

		mock.ExpectBegin()
		expectLock(mock, "wal-a", "acc-a", 1000)
		expectLock(mock, "wal-b", "acc-b", 0)
		mock.ExpectQuery(debitQuery).
			WithArgs(200, sqlmock.AnyArg(), "wal-a").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}))
		mock.ExpectRollback()

		_, err := ledger.Record(ctx, MovementIntent{
			Kind: models.KindTransfer, Amount: 200, FromAccountID: "acc-a", ToAccountID: "acc-b",
		})
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("check constraint violation is insufficient funds", func(t *testing.T) {
		ledger, mock, _ := newTestLedger(t)

		mock.ExpectBegin()
		expectLock(mock, "wal-a", "acc-a", 1000)
		expectLock(mock, "wal-b", "acc-b", 0)
		mock.ExpectQuery(debitQuery).
			WithArgs(200, sqlmock.AnyArg(), "wal-a").
			WillReturnError(&pq.Error{Code: "23514"})
		mock.ExpectRollback()

		_, err := ledger.Record(ctx, MovementIntent{
			Kind: models.KindTransfer, Amount: 200, FromAccountID: "acc-a", ToAccountID: "acc-b",
		})
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing wallet", func(t *testing.T) {
		ledger, mock, _ := newTestLedger(t)

		mock.ExpectBegin()
		expectLock(mock, "wal-a", "acc-a", 1000)
		mock.ExpectQuery(lockWalletQuery).
			WithArgs("acc-b").
			WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "balance", "version", "created_at", "updated_at"}))
		mock.ExpectRollback()

		_, err := ledger.Record(ctx, MovementIntent{
			Kind: models.KindTransfer, Amount: 200, FromAccountID: "acc-a", ToAccountID: "acc-b",
		})
		assert.ErrorIs(t, err, ErrWalletNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("retries after deadlock", func(t *testing.T) {
		ledger, mock, _ := newTestLedger(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockWalletQuery).
			WithArgs("acc-a").
			WillReturnError(&pq.Error{Code: "40P01"})
		mock.ExpectRollback()

		mock.ExpectBegin()
		expectLock(mock, "wal-a", "acc-a", 1000)
		expectLock(mock, "wal-b", "acc-b", 0)
		expectDebit(mock, "wal-a", 200, 800)
		expectCredit(mock, "wal-b", 200, 200)
		expectRecordWrites(mock, models.KindTransfer, "transfers", 200, "", nil, "wal-a", "acc-a", 1000, "wal-b", "acc-b", 0)
		mock.ExpectCommit()

		_, err := ledger.Record(ctx, MovementIntent{
			Kind: models.KindTransfer, Amount: 200, FromAccountID: "acc-a", ToAccountID: "acc-b",
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("gives up after configured retries", func(t *testing.T) {
		ledger, mock, _ := newTestLedger(t)

		for i := 0; i <= ledger.config.ConflictRetries; i++ {
			mock.ExpectBegin()
			mock.ExpectQuery(lockWalletQuery).
				WithArgs("acc-a").
				WillReturnError(&pq.Error{Code: "55P03"})
			mock.ExpectRollback()
		}

		_, err := ledger.Record(ctx, MovementIntent{
			Kind: models.KindTransfer, Amount: 200, FromAccountID: "acc-a", ToAccountID: "acc-b",
		})
		assert.ErrorIs(t, err, ErrStoreConflict)
		assert.True(t, IsRetryable(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("sets lock timeout", func(t *testing.T) {
		ledger, mock, _ := newTestLedger(t)
		ledger.config.LockTimeout = 5 * time.Second

		mock.ExpectBegin()
		mock.ExpectExec("SET LOCAL lock_timeout = 5000").WillReturnResult(sqlmock.NewResult(0, 0))
		expectLock(mock, "wal-a", "acc-a", 10)
		expectLock(mock, "wal-b", "acc-b", 0)
		mock.ExpectRollback()

		_, err := ledger.Record(ctx, MovementIntent{
			Kind: models.KindTransfer, Amount: 200, FromAccountID: "acc-a", ToAccountID: "acc-b",
		})
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commit failure is not reported as success", func(t *testing.T) {
		ledger, mock, _ := newTestLedger(t)
		ledger.config.ConflictRetries = 0

		mock.ExpectBegin()
		expectLock(mock, "wal-a", "acc-a", 1000)
		expectLock(mock, "wal-b", "acc-b", 0)
		expectDebit(mock, "wal-a", 200, 800)
		expectCredit(mock, "wal-b", 200, 200)
		expectRecordWrites(mock, models.KindTransfer, "transfers", 200, "", nil, "wal-a", "acc-a", 1000, "wal-b", "acc-b", 0)
		mock.ExpectCommit().WillReturnError(&pq.Error{Code: "40001"})

		receipt, err := ledger.Record(ctx, MovementIntent{
			Kind: models.KindTransfer, Amount: 200, FromAccountID: "acc-a", ToAccountID: "acc-b",
		})
		assert.Nil(t, receipt)
		assert.ErrorIs(t, err, ErrStoreConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMovementIntent_Validate(t *testing.T) {
	ledger, mock, _ := newTestLedger(t)

	tests := []struct {
		name   string
		intent MovementIntent
		want   error
	}{
		{"zero amount", MovementIntent{Kind: models.KindTransfer, FromAccountID: "a", ToAccountID: "b"}, ErrInvalidInput},
		{"negative amount", MovementIntent{Kind: models.KindTransfer, Amount: -5, FromAccountID: "a", ToAccountID: "b"}, ErrInvalidInput},
		{"fee above amount", MovementIntent{Kind: models.KindTransfer, Amount: 5, Fee: 6, FromAccountID: "a", ToAccountID: "b"}, ErrInvalidInput},
		{"unknown kind", MovementIntent{Kind: "REFUND", Amount: 5, FromAccountID: "a", ToAccountID: "b"}, ErrInvalidInput},
		{"missing account", MovementIntent{Kind: models.KindSeed, Amount: 5, FromAccountID: "a"}, ErrInvalidInput},
		{"self movement", MovementIntent{Kind: models.KindTransfer, Amount: 5, FromAccountID: "a", ToAccountID: "a"}, ErrSelfMovementNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.Record(context.Background(), tt.intent)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// Rejected intents never reach the store.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_RetryBackoff(t *testing.T) {
	t.Run("stops waiting when the context ends", func(t *testing.T) {
		ledger, _, _ := newTestLedger(t)
		ledger.config.RetryBackoff = time.Hour

		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := ledger.retry(ctx, "signup", func() error {
			calls++
			cancel()
			return fmt.Errorf("%w: lock not available", ErrStoreConflict)
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("non retryable errors return at once", func(t *testing.T) {
		ledger, _, _ := newTestLedger(t)

		calls := 0
		err := ledger.retry(context.Background(), "transfer", func() error {
			calls++
			return ErrInsufficientFunds
		})
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Equal(t, 1, calls)
	})

	t.Run("retry budget is honoured", func(t *testing.T) {
		ledger, _, _ := newTestLedger(t)
		ledger.config.ConflictRetries = 3

		calls := 0
		err := ledger.retry(context.Background(), "transfer", func() error {
			calls++
			return ErrStoreConflict
		})
		assert.ErrorIs(t, err, ErrStoreConflict)
		assert.Equal(t, 4, calls)
	})
}
