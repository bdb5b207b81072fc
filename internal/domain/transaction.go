package domain

import (
	"errors"
	"time"
)

var (
	// ErrInvalidAmount indicates invalid amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNegativeAmount indicates non-positive amount.
	ErrNegativeAmount = errors.New("negative amount")
	// ErrSelfTransfer indicates a transfer to the sender's own wallet.
	ErrSelfTransfer = errors.New("cannot transfer to yourself")
	// ErrRecipientBlacklisted indicates that the transfer recipient is blacklisted.
	ErrRecipientBlacklisted = errors.New("recipient is blacklisted")
	// ErrTransactionNotFound indicates that the transaction is not found.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrDuplicateReference indicates a transaction reference collision.
	ErrDuplicateReference = errors.New("duplicate transaction reference")
)

// Transaction directions.
const (
	TransactionTypeCredit = "credit"
	TransactionTypeDebit  = "debit"
)

// Transaction statuses.
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Transaction is an immutable record of one completed balance change.
//
// Amount is always strictly positive; Type encodes the effect on the balance.
type Transaction struct {
	ID          int64     `json:"id"`
	WalletID    int32     `json:"wallet_id"`
	Type        string    `json:"type"`
	Amount      string    `json:"amount"`
	Description string    `json:"description"`
	Reference   string    `json:"reference"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateTransactionParams is the input data to append a transaction to the log.
type CreateTransactionParams struct {
	WalletID    int32  `json:"wallet_id"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

// TransferTxResult is the result of the transfer transaction.
//
// Either both legs exist or none do.
type TransferTxResult struct {
	DebitTransaction  Transaction `json:"debit_transaction"`
	CreditTransaction Transaction `json:"credit_transaction"`
	FromWallet        Wallet      `json:"from_wallet"`
	ToWallet          Wallet      `json:"to_wallet"`
}
