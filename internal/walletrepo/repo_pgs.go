// Package walletrepo manages repository layer of wallets and owns the
// atomic units that move money between them.
package walletrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/transactionrepo"
	"github.com/go-petr/pet-wallet/pkg/currencypkg"
	"github.com/go-petr/pet-wallet/pkg/dbpkg"
	"github.com/go-petr/pet-wallet/pkg/errorspkg"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates wallet repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewTxRepoPGS returns wallet RepoPGS bound to an already running transaction.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

// NewRepoPGS returns wallet RepoPGS with a connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

const createQuery = `
INSERT INTO
    wallets (owner, balance, currency)
VALUES
    ($1, $2, $3)
RETURNING id, owner, balance, currency, created_at
`

// Create creates the wallet and then returns it.
func (r *RepoPGS) Create(ctx context.Context, owner, balance, currency string) (domain.Wallet, error) {
	l := zerolog.Ctx(ctx)

	if !currencypkg.IsSupportedCurrency(currency) {
		l.Info().Str("currency", currency).Err(domain.ErrCurrencyNotSupported).Send()
		return domain.Wallet{}, domain.ErrCurrencyNotSupported
	}

	row := r.db.QueryRowContext(ctx, createQuery, owner, balance, currency)

	var w domain.Wallet

	err := row.Scan(
		&w.ID,
		&w.Owner,
		&w.Balance,
		&w.Currency,
		&w.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "wallets_owner_fkey":
				return w, domain.ErrOwnerNotFound
			case "wallets_owner_key":
				return w, domain.ErrWalletAlreadyExists
			}
		}

		return w, errorspkg.ErrInternal
	}

	return w, nil
}

const getQuery = `
SELECT
	id, owner, balance, currency, created_at
FROM wallets
WHERE id = $1
`

// Get returns the wallet with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int32) (domain.Wallet, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getQuery, id)

	var w domain.Wallet

	err := row.Scan(
		&w.ID,
		&w.Owner,
		&w.Balance,
		&w.Currency,
		&w.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return w, domain.ErrWalletNotFound
		}

		return w, errorspkg.ErrInternal
	}

	return w, nil
}

const getByOwnerQuery = `
SELECT
	id, owner, balance, currency, created_at
FROM wallets
WHERE owner = $1
`

// GetByOwner returns the wallet of the given owner.
func (r *RepoPGS) GetByOwner(ctx context.Context, owner string) (domain.Wallet, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getByOwnerQuery, owner)

	var w domain.Wallet

	err := row.Scan(
		&w.ID,
		&w.Owner,
		&w.Balance,
		&w.Currency,
		&w.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return w, domain.ErrWalletNotFound
		}

		return w, errorspkg.ErrInternal
	}

	return w, nil
}

const addBalanceQuery = `
UPDATE wallets
SET balance = balance + $1
WHERE id = $2
RETURNING id, owner, balance, currency, created_at
`

// AddBalance changes the wallet's balance and returns the changed wallet.
//
// The row lock taken by the update serializes concurrent movers on the same
// wallet, and the wallets_balance_check constraint rejects any debit that
// would make the balance negative.
func (r *RepoPGS) AddBalance(ctx context.Context, amount string, id int32) (domain.Wallet, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, addBalanceQuery, amount, id)

	var w domain.Wallet

	err := row.Scan(
		&w.ID,
		&w.Owner,
		&w.Balance,
		&w.Currency,
		&w.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return w, domain.ErrWalletNotFound
		}

		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Constraint == "wallets_balance_check" {
				return w, domain.ErrInsufficientBalance
			}
		}

		return w, errorspkg.ErrInternal
	}

	return w, nil
}

// Fund credits the owner's wallet and appends the credit transaction
// within a single database transaction.
func (r *RepoPGS) Fund(ctx context.Context, owner, amount, description string) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	var result domain.Transaction

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	defer rollback(l, tx)

	walletRepo := NewTxRepoPGS(tx)
	logRepo := transactionrepo.NewRepoPGS(tx)

	wallet, err := walletRepo.GetByOwner(ctx, owner)
	if err != nil {
		return result, err
	}

	if _, err = walletRepo.AddBalance(ctx, amount, wallet.ID); err != nil {
		return result, err
	}

	result, err = logRepo.Create(ctx, domain.CreateTransactionParams{
		WalletID:    wallet.ID,
		Type:        domain.TransactionTypeCredit,
		Amount:      amount,
		Description: description,
	})
	if err != nil {
		return result, err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return domain.Transaction{}, errorspkg.ErrInternal
	}

	return result, nil
}

// Withdraw debits the owner's wallet and appends the debit transaction
// within a single database transaction.
//
// It fails with domain.ErrInsufficientBalance when the amount exceeds the
// balance at commit time; no transaction row survives the rollback.
func (r *RepoPGS) Withdraw(ctx context.Context, owner, amount, description string) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	var result domain.Transaction

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	defer rollback(l, tx)

	walletRepo := NewTxRepoPGS(tx)
	logRepo := transactionrepo.NewRepoPGS(tx)

	wallet, err := walletRepo.GetByOwner(ctx, owner)
	if err != nil {
		return result, err
	}

	if _, err = walletRepo.AddBalance(ctx, "-"+amount, wallet.ID); err != nil {
		return result, err
	}

	result, err = logRepo.Create(ctx, domain.CreateTransactionParams{
		WalletID:    wallet.ID,
		Type:        domain.TransactionTypeDebit,
		Amount:      amount,
		Description: description,
	})
	if err != nil {
		return result, err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return domain.Transaction{}, errorspkg.ErrInternal
	}

	return result, nil
}

// TransferParams is the input data for the transfer transaction.
type TransferParams struct {
	FromOwner         string
	ToOwner           string
	Amount            string
	DebitDescription  string
	CreditDescription string
}

// Transfer moves money between two owners' wallets.
//
// It debits the sender, credits the recipient, and appends both transaction
// legs within a single database transaction.
func (r *RepoPGS) Transfer(ctx context.Context, arg TransferParams) (domain.TransferTxResult, error) {
	l := zerolog.Ctx(ctx)

	var result domain.TransferTxResult

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	defer rollback(l, tx)

	walletRepo := NewTxRepoPGS(tx)
	logRepo := transactionrepo.NewRepoPGS(tx)

	fromWallet, err := walletRepo.GetByOwner(ctx, arg.FromOwner)
	if err != nil {
		return result, err
	}

	toWallet, err := walletRepo.GetByOwner(ctx, arg.ToOwner)
	if err != nil {
		return result, err
	}

	// To avoid deadlocks execute balance updates in consistent id order
	if fromWallet.ID < toWallet.ID {
		result.FromWallet, err = walletRepo.AddBalance(ctx, "-"+arg.Amount, fromWallet.ID)
		if err != nil {
			return result, err
		}

		result.ToWallet, err = walletRepo.AddBalance(ctx, arg.Amount, toWallet.ID)
		if err != nil {
			return result, err
		}
	} else {
		result.ToWallet, err = walletRepo.AddBalance(ctx, arg.Amount, toWallet.ID)
		if err != nil {
			return result, err
		}

		result.FromWallet, err = walletRepo.AddBalance(ctx, "-"+arg.Amount, fromWallet.ID)
		if err != nil {
			return result, err
		}
	}

	result.DebitTransaction, err = logRepo.Create(ctx, domain.CreateTransactionParams{
		WalletID:    fromWallet.ID,
		Type:        domain.TransactionTypeDebit,
		Amount:      arg.Amount,
		Description: arg.DebitDescription,
	})
	if err != nil {
		return result, err
	}

	result.CreditTransaction, err = logRepo.Create(ctx, domain.CreateTransactionParams{
		WalletID:    toWallet.ID,
		Type:        domain.TransactionTypeCredit,
		Amount:      arg.Amount,
		Description: arg.CreditDescription,
	})
	if err != nil {
		return result, err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return domain.TransferTxResult{}, errorspkg.ErrInternal
	}

	return result, nil
}

func rollback(l *zerolog.Logger, tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		l.Error().Err(fmt.Errorf("tx rollback: %w", err)).Send()
	}
}
