package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/walletledger/backend/internal/config"
	"github.com/walletledger/backend/internal/models"
	"github.com/walletledger/backend/internal/security"
	"go.uber.org/zap"
)

const (
	seedDescription = "Initial funding"
	seedNote        = "Initial Deposit to new user"
)

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SetPINRequest struct {
	PIN string `json:"pin"`
}

// AccountService owns accounts. Creating an account also creates its wallet
// and seeds it from the system account, all in one scope.
type AccountService struct {
	db        *sql.DB
	wallets   *WalletStore
	ledger    *LedgerService
	hasher    SecretHasher
	verifier  SecretVerifier
	validator *ValidationHelper
	audit     *security.AuditLogger
	config    *config.LedgerConfig
	now       func() time.Time
}

// SecretHashVerifier hashes and verifies secrets; security.Argon2 is one.
type SecretHashVerifier interface {
	SecretHasher
	SecretVerifier
}

func NewAccountService(db *sql.DB, wallets *WalletStore, ledger *LedgerService, secrets SecretHashVerifier, audit *security.AuditLogger, cfg *config.LedgerConfig) *AccountService {
	if audit == nil {
		audit = security.NewAuditLogger(nil)
	}
	return &AccountService{
		db:        db,
		wallets:   wallets,
		ledger:    ledger,
		hasher:    secrets,
		verifier:  secrets,
		validator: NewValidationHelper(),
		audit:     audit,
		config:    cfg,
		now:       time.Now,
	}
}

// Create registers an account with an empty wallet and credits it with the
// configured seed amount from the system account.
func (s *AccountService) Create(ctx context.Context, req SignupRequest) (*models.Account, error) {
	req.Email = NormalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.ValidateStruct(&req); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.HashSecret(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var (
		account *models.Account
		receipt *Receipt
	)
	err = s.ledger.retry(ctx, "signup", func() error {
		var err error
		account, receipt, err = s.createOnce(ctx, req, passwordHash)
		return err
	})
	if err != nil {
		zap.L().Warn("Account creation failed", zap.String("email", req.Email), zap.Error(err))
		return nil, err
	}

	s.audit.LogOperation(account.ID, "ACCOUNT_CREATED", "seeded with "+FormatAmount(s.config, s.config.SeedAmount))
	s.ledger.committed(ctx, receipt)
	return account, nil
}

func (s *AccountService) createOnce(ctx context.Context, req SignupRequest, passwordHash string) (*models.Account, *Receipt, error) {
	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	var taken bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`, req.Email).Scan(&taken); err != nil {
		return nil, nil, classifyStoreError(err)
	}
	if taken {
		return nil, nil, ErrEmailTaken
	}

	now := s.now().UTC()
	account := &models.Account{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO accounts (id, email, name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		account.ID, account.Email, account.Name, account.PasswordHash, account.CreatedAt, account.UpdatedAt)
	if isUniqueViolation(err) {
		return nil, nil, ErrEmailTaken
	}
	if err != nil {
		return nil, nil, classifyStoreError(err)
	}

	if _, err := s.wallets.Create(ctx, tx, account.ID, now); err != nil {
		return nil, nil, err
	}

	note := seedNote
	receipt, err := s.ledger.RecordTx(ctx, tx, MovementIntent{
		Kind:          models.KindSeed,
		Amount:        s.config.SeedAmount,
		Description:   seedDescription,
		FromAccountID: s.config.SystemAccountID,
		ToAccountID:   account.ID,
		Note:          &note,
	})
	if errors.Is(err, ErrInsufficientFunds) {
		return nil, nil, fmt.Errorf("%w: cannot seed %d", ErrSystemWalletUnderfunded, s.config.SeedAmount)
	}
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, classifyStoreError(err)
	}
	return account, receipt, nil
}

// Authenticate resolves an account by its login secret.
func (s *AccountService) Authenticate(ctx context.Context, req LoginRequest) (*models.Account, error) {
	if err := s.validator.ValidateStruct(&req); err != nil {
		return nil, err
	}

	account, err := s.FindByEmail(ctx, req.Email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.verifier.VerifySecret(account.PasswordHash, req.Password)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

// SetTransactionPIN stores the hash of a new 4 or 6 digit PIN, replacing any previous one.
func (s *AccountService) SetTransactionPIN(ctx context.Context, accountID, pin string) error {
	if !ValidPIN(pin) {
		return fmt.Errorf("%w: PIN must be 4 or 6 digits", ErrInvalidPin)
	}

	pinHash, err := s.hasher.HashSecret(pin)
	if err != nil {
		return fmt.Errorf("failed to hash PIN: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET pin_hash = $1, updated_at = $2 WHERE id = $3`,
		pinHash, s.now().UTC(), accountID)
	if err != nil {
		return classifyStoreError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return classifyStoreError(err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: account %s", ErrNotFound, accountID)
	}

	s.audit.LogOperation(accountID, "PIN_SET", "transaction PIN updated")
	return nil
}

const accountColumns = `id, email, name, password_hash, pin_hash, created_at, updated_at`

func (s *AccountService) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return s.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (s *AccountService) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, NormalizeEmail(email))
}

func (s *AccountService) findOne(ctx context.Context, query, arg string) (*models.Account, error) {
	var (
		account models.Account
		pinHash sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID, &account.Email, &account.Name, &account.PasswordHash, &pinHash, &account.CreatedAt, &account.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %s", ErrNotFound, arg)
	}
	if err != nil {
		return nil, classifyStoreError(err)
	}

	if pinHash.Valid {
		account.PinHash = &pinHash.String
	}
	return &account, nil
}
