package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LerianStudio/lib-uncommons/v2/uncommons/backoff"
	"github.com/google/uuid"
	"github.com/walletledger/backend/internal/config"
	"github.com/walletledger/backend/internal/models"
	"github.com/walletledger/backend/internal/security"
	"go.uber.org/zap"
)

// MovementIntent is a validated request to move Amount from one account's
// wallet to another's.
type MovementIntent struct {
	Kind          models.TransactionKind
	Amount        int64
	Fee           int64
	Description   string
	FromAccountID string
	ToAccountID   string
	Note          *string
}

func (i MovementIntent) validate() error {
	switch {
	case !i.Kind.Valid():
		return fmt.Errorf("%w: unknown movement kind %q", ErrInvalidInput, i.Kind)
	case i.Amount <= 0:
		return fmt.Errorf("%w: amount must be greater than 0", ErrInvalidInput)
	case i.Fee < 0 || i.Fee > i.Amount:
		return fmt.Errorf("%w: fee must be between 0 and amount", ErrInvalidInput)
	case i.FromAccountID == "" || i.ToAccountID == "":
		return fmt.Errorf("%w: source and destination accounts are required", ErrInvalidInput)
	case i.FromAccountID == i.ToAccountID:
		return ErrSelfMovementNotAllowed
	}
	return nil
}

// Receipt is what a committed movement leaves behind.
type Receipt struct {
	Movement    models.Movement
	Transaction models.Transaction
}

// movementTable describes the side table a kind's metadata lives in.
type movementTable struct {
	name    string
	fromCol string
	toCol   string
}

var movementTables = map[models.TransactionKind]movementTable{
	models.KindTransfer: {name: "transfers", fromCol: "sender_id", toCol: "recipient_id"},
	models.KindDonation: {name: "donations", fromCol: "donor_id", toCol: "beneficiary_id"},
	models.KindSeed:     {name: "seeds", fromCol: "source_id", toCol: "account_id"},
}

// LedgerService records movements as one Transaction, two Entries and a
// kind-specific metadata row, together with both wallet updates.
type LedgerService struct {
	db       *sql.DB
	wallets  *WalletStore
	notifier *MovementNotifier
	audit    *security.AuditLogger
	config   *config.LedgerConfig
	now      func() time.Time
}

func NewLedgerService(db *sql.DB, wallets *WalletStore, notifier *MovementNotifier, audit *security.AuditLogger, cfg *config.LedgerConfig) *LedgerService {
	if audit == nil {
		audit = security.NewAuditLogger(nil)
	}
	return &LedgerService{
		db:       db,
		wallets:  wallets,
		notifier: notifier,
		audit:    audit,
		config:   cfg,
		now:      time.Now,
	}
}

// Record commits the movement in its own scope. Lock and serialization
// conflicts restart the whole scope up to the configured number of retries.
func (s *LedgerService) Record(ctx context.Context, intent MovementIntent) (*Receipt, error) {
	if err := intent.validate(); err != nil {
		return nil, err
	}

	var receipt *Receipt
	err := s.retry(ctx, string(intent.Kind), func() error {
		var err error
		receipt, err = s.recordOnce(ctx, intent)
		return err
	})
	if err != nil {
		s.audit.LogError("", intent.FromAccountID, err)
		return nil, err
	}

	s.committed(ctx, receipt)
	return receipt, nil
}

// retry runs fn until it succeeds, fails with a non-retryable error, or the
// retry budget is spent. Pauses grow exponentially with full jitter so
// colliding scopes spread out. fn must open and close its own scope.
func (s *LedgerService) retry(ctx context.Context, operation string, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !IsRetryable(err) || attempt >= s.config.ConflictRetries {
			return err
		}

		zap.L().Warn("Store conflict, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if err := backoff.SleepWithContext(ctx, backoff.ExponentialWithJitter(s.config.RetryBackoff, attempt)); err != nil {
			return err
		}
	}
}

// committed runs the post-commit side effects of a movement.
func (s *LedgerService) committed(ctx context.Context, receipt *Receipt) {
	m := receipt.Movement
	s.audit.LogMovement(receipt.Transaction.ID, string(m.Kind), m.FromAccountID, m.ToAccountID, m.Amount, string(receipt.Transaction.Status))
	s.notifier.Publish(ctx, receipt)
}

func (s *LedgerService) recordOnce(ctx context.Context, intent MovementIntent) (*Receipt, error) {
	tx, err := s.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	receipt, err := s.RecordTx(ctx, tx, intent)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, classifyStoreError(err)
	}
	return receipt, nil
}

// Begin opens an atomic scope for money movement. With a lock timeout
// configured, a blocked row lock fails with 55P03 instead of waiting forever.
func (s *LedgerService) Begin(ctx context.Context) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classifyStoreError(err)
	}

	if s.config.LockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", s.config.LockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return nil, classifyStoreError(err)
		}
	}
	return tx, nil
}

// RecordTx performs the movement inside tx. The caller owns commit and rollback;
// any error leaves tx unusable for further ledger writes.
func (s *LedgerService) RecordTx(ctx context.Context, tx *sql.Tx, intent MovementIntent) (*Receipt, error) {
	if err := intent.validate(); err != nil {
		return nil, err
	}

	from, to, err := s.wallets.LockPair(ctx, tx, intent.FromAccountID, intent.ToAccountID)
	if err != nil {
		return nil, err
	}

	if from.Balance < intent.Amount {
		return nil, fmt.Errorf("%w: balance %d, amount %d", ErrInsufficientFunds, from.Balance, intent.Amount)
	}

	fromBefore, fromAfter, err := s.wallets.Debit(ctx, tx, from, intent.Amount)
	if err != nil {
		return nil, err
	}

	toBefore, toAfter, err := s.wallets.Credit(ctx, tx, to, intent.Amount)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	transaction := models.Transaction{
		ID:          uuid.NewString(),
		Kind:        intent.Kind,
		Status:      models.StatusCompleted,
		Amount:      intent.Amount,
		Currency:    s.config.Currency,
		Fee:         intent.Fee,
		NetAmount:   intent.Amount - intent.Fee,
		Description: intent.Description,
		CreatedAt:   now,
	}

	if err := s.createTransaction(ctx, tx, &transaction); err != nil {
		return nil, err
	}

	debit := models.Entry{
		ID:            uuid.NewString(),
		TransactionID: transaction.ID,
		WalletID:      from.ID,
		AccountID:     from.AccountID,
		Amount:        -intent.Amount,
		BalanceBefore: fromBefore,
		BalanceAfter:  fromAfter,
		CreatedAt:     now,
	}
	credit := models.Entry{
		ID:            uuid.NewString(),
		TransactionID: transaction.ID,
		WalletID:      to.ID,
		AccountID:     to.AccountID,
		Amount:        intent.Amount,
		BalanceBefore: toBefore,
		BalanceAfter:  toAfter,
		CreatedAt:     now,
	}

	for _, entry := range []models.Entry{debit, credit} {
		if err := s.createEntry(ctx, tx, entry); err != nil {
			return nil, err
		}
	}
	transaction.Entries = []models.Entry{debit, credit}

	movement := models.Movement{
		ID:            uuid.NewString(),
		Kind:          intent.Kind,
		Amount:        intent.Amount,
		Note:          intent.Note,
		FromAccountID: intent.FromAccountID,
		ToAccountID:   intent.ToAccountID,
		TransactionID: transaction.ID,
		CreatedAt:     now,
	}
	if err := s.createMovement(ctx, tx, movement); err != nil {
		return nil, err
	}

	zap.L().Debug("Movement recorded",
		zap.String("transaction_id", transaction.ID),
		zap.String("kind", string(intent.Kind)),
		zap.Int64("amount", intent.Amount),
		zap.Int64("from_balance_after", fromAfter),
		zap.Int64("to_balance_after", toAfter))

	return &Receipt{Movement: movement, Transaction: transaction}, nil
}

func (s *LedgerService) createTransaction(ctx context.Context, tx *sql.Tx, t *models.Transaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, kind, status, amount, currency, fee, net_amount, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, string(t.Kind), string(t.Status), t.Amount, t.Currency, t.Fee, t.NetAmount, t.Description, t.CreatedAt)
	return classifyStoreError(err)
}

func (s *LedgerService) createEntry(ctx context.Context, tx *sql.Tx, e models.Entry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO entries (id, transaction_id, wallet_id, account_id, amount, balance_before, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.TransactionID, e.WalletID, e.AccountID, e.Amount, e.BalanceBefore, e.BalanceAfter, e.CreatedAt)
	return classifyStoreError(err)
}

func (s *LedgerService) createMovement(ctx context.Context, tx *sql.Tx, m models.Movement) error {
	table, ok := movementTables[m.Kind]
	if !ok {
		return fmt.Errorf("%w: no metadata table for kind %q", ErrInvalidInput, m.Kind)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, amount, note, %s, %s, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, table.name, table.fromCol, table.toCol)

	_, err := tx.ExecContext(ctx, query,
		m.ID, m.Amount, m.Note, m.FromAccountID, m.ToAccountID, m.TransactionID, m.CreatedAt)
	return classifyStoreError(err)
}
