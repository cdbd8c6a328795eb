package services

import (
	"context"
	"database/sql"

	"github.com/walletledger/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BalanceService derives balances from the entry log and checks them
// against stored wallet balances.
type BalanceService struct {
	db      *sql.DB
	wallets *WalletStore
}

func NewBalanceService(db *sql.DB, wallets *WalletStore) *BalanceService {
	return &BalanceService{db: db, wallets: wallets}
}

// Balance is the stored wallet balance.
func (s *BalanceService) Balance(ctx context.Context, accountID string) (int64, error) {
	return s.wallets.Balance(ctx, accountID)
}

// SumEntries is the balance implied by the account's entries. An account
// with no entries sums to zero.
func (s *BalanceService) SumEntries(ctx context.Context, accountID string) (int64, error) {
	var sum int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM entries WHERE account_id = $1`, accountID).Scan(&sum)
	if err != nil {
		return 0, classifyStoreError(err)
	}
	return sum, nil
}

// Reconcile reports the drift between stored and entry-derived balances.
// The system account drifts by its bootstrap treasury, which has no entry.
func (s *BalanceService) Reconcile(ctx context.Context, accountID string) (*models.Reconciliation, error) {
	var stored, summed int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stored, err = s.wallets.Balance(gctx, accountID)
		return err
	})
	g.Go(func() error {
		var err error
		summed, err = s.SumEntries(gctx, accountID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := &models.Reconciliation{
		AccountID:     accountID,
		StoredBalance: stored,
		EntryBalance:  summed,
		Drift:         stored - summed,
		Consistent:    stored == summed,
	}
	if !r.Consistent {
		zap.L().Warn("Wallet balance drift detected",
			zap.String("account_id", accountID),
			zap.Int64("stored", stored),
			zap.Int64("summed", summed))
	}
	return r, nil
}
