package models

import (
	"time"
)

type Wallet struct {
	ID        string    `json:"id" db:"id"`
	AccountID string    `json:"accountId" db:"account_id"`
	Balance   int64     `json:"balance" db:"balance"` // minor units
	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Entry is one signed leg of a Transaction. Negative amounts are debits.
type Entry struct {
	ID            string    `json:"id" db:"id"`
	TransactionID string    `json:"transactionId" db:"transaction_id"`
	WalletID      string    `json:"walletId" db:"wallet_id"`
	AccountID     string    `json:"accountId" db:"account_id"`
	Amount        int64     `json:"amount" db:"amount"`
	BalanceBefore int64     `json:"balanceBefore" db:"balance_before"`
	BalanceAfter  int64     `json:"balanceAfter" db:"balance_after"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// Reconciliation compares a wallet's stored balance with the sum of its entries.
type Reconciliation struct {
	AccountID     string `json:"accountId"`
	StoredBalance int64  `json:"storedBalance"`
	EntryBalance  int64  `json:"entryBalance"`
	Drift         int64  `json:"drift"`
	Consistent    bool   `json:"consistent"`
}
