package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/walletledger/backend/internal/config"
	"github.com/walletledger/backend/internal/models"
	"go.uber.org/zap"
)

// SecretVerifier checks a candidate secret against its stored hash.
type SecretVerifier interface {
	VerifySecret(hashed, candidate string) (bool, error)
}

// SecretHasher produces the stored form of a secret.
type SecretHasher interface {
	HashSecret(secret string) (string, error)
}

// AccountDirectory resolves counterparts of a movement.
type AccountDirectory interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
}

// movementPolicy is the kind-specific part of a peer movement.
type movementPolicy interface {
	// validate checks the request shape and resolves the counterpart account.
	validate(ctx context.Context, s *MovementService, actor *models.Account) (*models.Account, error)
	pin() string
	describe(s *MovementService, actor, counterpart *models.Account) MovementIntent
}

// MovementService runs actor initiated movements: validate, authorize, describe, record.
type MovementService struct {
	accounts  AccountDirectory
	verifier  SecretVerifier
	ledger    *LedgerService
	validator *ValidationHelper
	config    *config.LedgerConfig
}

func NewMovementService(accounts AccountDirectory, verifier SecretVerifier, ledger *LedgerService, cfg *config.LedgerConfig) *MovementService {
	return &MovementService{
		accounts:  accounts,
		verifier:  verifier,
		ledger:    ledger,
		validator: NewValidationHelper(),
		config:    cfg,
	}
}

func (s *MovementService) execute(ctx context.Context, actor *models.Account, policy movementPolicy) (*Receipt, error) {
	if actor == nil || actor.ID == "" {
		return nil, fmt.Errorf("%w: missing actor", ErrInvalidInput)
	}

	counterpart, err := policy.validate(ctx, s, actor)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(actor, policy.pin()); err != nil {
		zap.L().Info("Movement rejected",
			zap.String("account_id", actor.ID),
			zap.Error(err))
		return nil, err
	}

	return s.ledger.Record(ctx, policy.describe(s, actor, counterpart))
}

// counterpart resolves the other party by email. Moving funds to oneself is
// rejected before any lookup.
func (s *MovementService) counterpart(ctx context.Context, actor *models.Account, email string) (*models.Account, error) {
	email = NormalizeEmail(email)
	if email == NormalizeEmail(actor.Email) {
		return nil, ErrSelfMovementNotAllowed
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account.ID == actor.ID {
		return nil, ErrSelfMovementNotAllowed
	}
	return account, nil
}

func (s *MovementService) authorize(actor *models.Account, pin string) error {
	if !actor.HasPIN() {
		return ErrPinNotConfigured
	}
	if !ValidPIN(pin) {
		return fmt.Errorf("%w: PIN must be 4 or 6 digits", ErrInvalidPin)
	}

	ok, err := s.verifier.VerifySecret(*actor.PinHash, pin)
	if err != nil {
		zap.L().Error("PIN verification failed", zap.String("account_id", actor.ID), zap.Error(err))
		return ErrInvalidPin
	}
	if !ok {
		return ErrInvalidPin
	}
	return nil
}

// FormatAmount renders minor units as a major unit string, e.g. 20000 as N200.00.
func FormatAmount(cfg *config.LedgerConfig, amount int64) string {
	return cfg.CurrencySymbol + decimal.New(amount, -cfg.MinorUnitExponent).StringFixed(cfg.MinorUnitExponent)
}

func optionalNote(note string) *string {
	if note == "" {
		return nil
	}
	return &note
}
