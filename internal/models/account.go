package models

import "time"

// Account is a registered holder of exactly one Wallet.
type Account struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	PinHash      *string   `json:"-" db:"pin_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// HasPIN reports whether a transaction PIN has been configured.
func (a *Account) HasPIN() bool {
	return a.PinHash != nil && *a.PinHash != ""
}

// Party is the public projection of an account on a movement.
type Party struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
