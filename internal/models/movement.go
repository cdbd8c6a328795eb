package models

import "time"

// Movement is the kind-specific metadata row tied 1:1 to a Transaction.
// For transfers From/To are sender/recipient, for donations donor/beneficiary,
// for seeds the system account and the new account.
type Movement struct {
	ID            string          `json:"id"`
	Kind          TransactionKind `json:"-"`
	Amount        int64           `json:"amount"`
	Note          *string         `json:"note,omitempty"`
	FromAccountID string          `json:"-"`
	ToAccountID   string          `json:"-"`
	TransactionID string          `json:"transactionId"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// MovementDetail is a Movement as returned by history listings.
type MovementDetail struct {
	ID          string         `json:"id"`
	Amount      int64          `json:"amount"`
	Note        *string        `json:"note,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	From        Party          `json:"from"`
	To          Party          `json:"to"`
	Transaction TransactionRef `json:"transaction"`
}

// MovementEvent is published after a movement commits.
type MovementEvent struct {
	TransactionID string          `json:"transactionId"`
	MovementID    string          `json:"movementId"`
	Kind          TransactionKind `json:"kind"`
	Amount        int64           `json:"amount"`
	FromAccountID string          `json:"fromAccountId"`
	ToAccountID   string          `json:"toAccountId"`
	CreatedAt     time.Time       `json:"createdAt"`
}
