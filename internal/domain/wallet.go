// Package domain provides definitions of all entities.
package domain

import (
	"errors"
	"time"
)

var (
	// ErrWalletNotFound indicates that the wallet is not found.
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrWalletAlreadyExists indicates that the owner already has a wallet.
	ErrWalletAlreadyExists = errors.New("wallet already exists")
	// ErrOwnerNotFound indicates that the owner for the wallet is not found.
	ErrOwnerNotFound = errors.New("owner not found")
	// ErrInsufficientBalance indicates that the wallet does not have sufficient balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrCurrencyNotSupported indicates an unsupported wallet currency.
	ErrCurrencyNotSupported = errors.New("currency not supported")
)

// Wallet holds the balance of a single owner.
//
// Every user owns exactly one wallet; it is created together with the user
// and its balance never goes below zero.
type Wallet struct {
	ID        int32     `json:"id"`
	Owner     string    `json:"owner"`
	Balance   string    `json:"balance"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}
