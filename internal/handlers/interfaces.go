package handlers

import (
	"context"
	"time"

	"github.com/walletledger/backend/internal/models"
	"github.com/walletledger/backend/internal/services"
)

type AccountManager interface {
	Create(ctx context.Context, req services.SignupRequest) (*models.Account, error)
	Authenticate(ctx context.Context, req services.LoginRequest) (*models.Account, error)
	SetTransactionPIN(ctx context.Context, accountID, pin string) error
	FindByID(ctx context.Context, id string) (*models.Account, error)
}

type TokenIssuer interface {
	Issue(accountID string) (string, time.Time, error)
}

type TransferCreator interface {
	Create(ctx context.Context, sender *models.Account, req services.TransferRequest) (*services.Receipt, error)
}

type DonationCreator interface {
	Create(ctx context.Context, donor *models.Account, req services.DonationRequest) (*services.Receipt, error)
}

type HistoryReader interface {
	ListTransactions(ctx context.Context, accountID string, rng *services.DateRange, req services.PageRequest) (*models.Page[models.Transaction], error)
	GetTransaction(ctx context.Context, transactionID, accountID string) (*models.Transaction, error)
	ListMovements(ctx context.Context, accountID string, kind models.TransactionKind, rng *services.DateRange, req services.PageRequest) (*models.Page[models.MovementDetail], error)
	GetMovement(ctx context.Context, kind models.TransactionKind, id, accountID string) (*models.MovementDetail, error)
}

type BalanceReader interface {
	Balance(ctx context.Context, accountID string) (int64, error)
	Reconcile(ctx context.Context, accountID string) (*models.Reconciliation, error)
}
