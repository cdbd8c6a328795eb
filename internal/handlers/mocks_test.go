package handlers

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/walletledger/backend/internal/models"
	"github.com/walletledger/backend/internal/services"
)

type MockAccounts struct{ mock.Mock }

func (m *MockAccounts) Create(ctx context.Context, req services.SignupRequest) (*models.Account, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccounts) Authenticate(ctx context.Context, req services.LoginRequest) (*models.Account, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccounts) SetTransactionPIN(ctx context.Context, accountID, pin string) error {
	return m.Called(ctx, accountID, pin).Error(0)
}

func (m *MockAccounts) FindByID(ctx context.Context, id string) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

type MockTokens struct{ mock.Mock }

func (m *MockTokens) Issue(accountID string) (string, time.Time, error) {
	args := m.Called(accountID)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

type MockTransfers struct{ mock.Mock }

func (m *MockTransfers) Create(ctx context.Context, sender *models.Account, req services.TransferRequest) (*services.Receipt, error) {
	args := m.Called(ctx, sender, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Receipt), args.Error(1)
}

type MockDonations struct{ mock.Mock }

func (m *MockDonations) Create(ctx context.Context, donor *models.Account, req services.DonationRequest) (*services.Receipt, error) {
	args := m.Called(ctx, donor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Receipt), args.Error(1)
}

type MockHistory struct{ mock.Mock }

func (m *MockHistory) ListTransactions(ctx context.Context, accountID string, rng *services.DateRange, req services.PageRequest) (*models.Page[models.Transaction], error) {
	args := m.Called(ctx, accountID, rng, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page[models.Transaction]), args.Error(1)
}

func (m *MockHistory) GetTransaction(ctx context.Context, transactionID, accountID string) (*models.Transaction, error) {
	args := m.Called(ctx, transactionID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockHistory) ListMovements(ctx context.Context, accountID string, kind models.TransactionKind, rng *services.DateRange, req services.PageRequest) (*models.Page[models.MovementDetail], error) {
	args := m.Called(ctx, accountID, kind, rng, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page[models.MovementDetail]), args.Error(1)
}

func (m *MockHistory) GetMovement(ctx context.Context, kind models.TransactionKind, id, accountID string) (*models.MovementDetail, error) {
	args := m.Called(ctx, kind, id, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MovementDetail), args.Error(1)
}

type MockBalances struct{ mock.Mock }

func (m *MockBalances) Balance(ctx context.Context, accountID string) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBalances) Reconcile(ctx context.Context, accountID string) (*models.Reconciliation, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reconciliation), args.Error(1)
}
