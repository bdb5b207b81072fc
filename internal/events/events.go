// Package events defines ledger event publication.
package events

import (
	"context"
	"time"
)

// TransactionCompleted is published after a money movement has committed.
type TransactionCompleted struct {
	Reference string    `json:"reference"`
	WalletID  int32     `json:"wallet_id"`
	Type      string    `json:"type"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher publishes ledger events to interested consumers.
//
// Publication is best effort and happens outside the atomic unit that
// recorded the movement; it never affects ledger state.
type Publisher interface {
	Publish(ctx context.Context, event TransactionCompleted) error
}
