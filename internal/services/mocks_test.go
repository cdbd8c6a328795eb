package services

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/walletledger/backend/internal/models"
)

type MockSecrets struct {
	mock.Mock
}

func (m *MockSecrets) HashSecret(secret string) (string, error) {
	args := m.Called(secret)
	return args.String(0), args.Error(1)
}

func (m *MockSecrets) VerifySecret(hashed, candidate string) (bool, error) {
	args := m.Called(hashed, candidate)
	return args.Bool(0), args.Error(1)
}

type MockAccountDirectory struct {
	mock.Mock
}

func (m *MockAccountDirectory) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}
