package models

import (
	"time"
)

// TransactionKind is the closed set of movement kinds the ledger records.
type TransactionKind string

const (
	KindTransfer TransactionKind = "TRANSFER"
	KindDonation TransactionKind = "DONATION"
	KindSeed     TransactionKind = "SEED"
)

func (k TransactionKind) Valid() bool {
	switch k {
	case KindTransfer, KindDonation, KindSeed:
		return true
	}
	return false
}

// TransactionStatus is always COMPLETED today; movements settle synchronously.
type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "COMPLETED"
)

// Transaction is the immutable record of one money movement.
type Transaction struct {
	ID          string            `json:"id" db:"id"`
	Kind        TransactionKind   `json:"kind" db:"kind"`
	Status      TransactionStatus `json:"status" db:"status"`
	Amount      int64             `json:"amount" db:"amount"`
	Currency    string            `json:"currency" db:"currency"`
	Fee         int64             `json:"fee" db:"fee"`
	NetAmount   int64             `json:"netAmount" db:"net_amount"`
	Description string            `json:"description" db:"description"`
	CreatedAt   time.Time         `json:"createdAt" db:"created_at"`
	Entries     []Entry           `json:"entries,omitempty"`
}

// TransactionRef is the short form of a Transaction embedded in movement listings.
type TransactionRef struct {
	ID        string            `json:"id"`
	Kind      TransactionKind   `json:"kind"`
	Status    TransactionStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
}
