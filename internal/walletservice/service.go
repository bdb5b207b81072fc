// Package walletservice manages business logic layer of the wallet ledger.
package walletservice

import (
	"context"
	"fmt"
	"math"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/events"
	"github.com/go-petr/pet-wallet/internal/walletrepo"
	"github.com/go-petr/pet-wallet/pkg/currencypkg"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Default descriptions for movements the caller did not annotate.
const (
	defaultFundDescription     = "Wallet funding"
	defaultWithdrawDescription = "Withdrawal"
	defaultTransferDescription = "Transfer"
)

// Repo provides data access layer interface needed by wallet service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package walletservice
type Repo interface {
	GetByOwner(ctx context.Context, owner string) (domain.Wallet, error)
	Fund(ctx context.Context, owner, amount, description string) (domain.Transaction, error)
	Withdraw(ctx context.Context, owner, amount, description string) (domain.Transaction, error)
	Transfer(ctx context.Context, arg walletrepo.TransferParams) (domain.TransferTxResult, error)
}

// LogRepo provides transaction log access needed by the history read path.
type LogRepo interface {
	ListByWallet(ctx context.Context, walletID, limit, offset int32) ([]domain.Transaction, error)
	CountByWallet(ctx context.Context, walletID int32) (int64, error)
}

// Service facilitates wallet ledger business logic.
type Service struct {
	repo      Repo
	logRepo   LogRepo
	publisher events.Publisher
}

// New returns wallet service struct to manage the wallet ledger.
//
// The publisher may be nil, in which case no events are emitted.
func New(wr Repo, tr LogRepo, pub events.Publisher) *Service {
	return &Service{
		repo:      wr,
		logRepo:   tr,
		publisher: pub,
	}
}

// validAmount parses amount and rejects non-positive values and sub-cent
// precision. Callers must pass the returned decimal's String() downstream,
// never the raw input: decimal also accepts signed and exponent forms
// ("+100", "1e2") that break the repo's balance arithmetic.
func validAmount(amount string) (decimal.Decimal, error) {
	amountDecimal, err := decimal.NewFromString(amount)
	if err != nil {
		return amountDecimal, domain.ErrInvalidAmount
	}

	if amountDecimal.Exponent() < -2 {
		return amountDecimal, domain.ErrInvalidAmount
	}

	if amountDecimal.LessThanOrEqual(decimal.Zero) {
		return amountDecimal, domain.ErrNegativeAmount
	}

	return amountDecimal, nil
}

// GetBalance returns the owner's wallet.
func (s *Service) GetBalance(ctx context.Context, owner string) (domain.Wallet, error) {
	return s.repo.GetByOwner(ctx, owner)
}

// Fund credits the owner's wallet and returns the created transaction.
func (s *Service) Fund(ctx context.Context, owner, amount, description string) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	amountDecimal, err := validAmount(amount)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.Transaction{}, err
	}

	if description == "" {
		description = defaultFundDescription
	}

	transaction, err := s.repo.Fund(ctx, owner, amountDecimal.String(), description)
	if err != nil {
		return transaction, err
	}

	s.publish(ctx, transaction)

	return transaction, nil
}

// Withdraw debits the owner's wallet and returns the created transaction.
//
// It fails with domain.ErrInsufficientBalance when the amount exceeds the
// current balance; withdrawing the exact balance is valid and leaves zero.
func (s *Service) Withdraw(ctx context.Context, owner, amount, description string) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	amountDecimal, err := validAmount(amount)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.Transaction{}, err
	}

	if err := s.checkBalance(ctx, owner, amountDecimal); err != nil {
		return domain.Transaction{}, err
	}

	if description == "" {
		description = defaultWithdrawDescription
	}

	transaction, err := s.repo.Withdraw(ctx, owner, amountDecimal.String(), description)
	if err != nil {
		return transaction, err
	}

	s.publish(ctx, transaction)

	return transaction, nil
}

// Transfer moves money from one owner's wallet to another's and returns
// both created transactions.
func (s *Service) Transfer(ctx context.Context, fromOwner, toOwner, amount, description string) (domain.TransferTxResult, error) {
	l := zerolog.Ctx(ctx)

	var result domain.TransferTxResult

	amountDecimal, err := validAmount(amount)
	if err != nil {
		l.Info().Err(err).Send()
		return result, err
	}

	if fromOwner == toOwner {
		l.Info().Err(domain.ErrSelfTransfer).Send()
		return result, domain.ErrSelfTransfer
	}

	if err := s.checkBalance(ctx, fromOwner, amountDecimal); err != nil {
		return result, err
	}

	if description == "" {
		description = defaultTransferDescription
	}

	arg := walletrepo.TransferParams{
		FromOwner:         fromOwner,
		ToOwner:           toOwner,
		Amount:            amountDecimal.String(),
		DebitDescription:  fmt.Sprintf("Transfer to user %s: %s", toOwner, description),
		CreditDescription: fmt.Sprintf("Transfer from user %s: %s", fromOwner, description),
	}

	result, err = s.repo.Transfer(ctx, arg)
	if err != nil {
		return result, err
	}

	s.publish(ctx, result.DebitTransaction, result.CreditTransaction)

	return result, nil
}

// GetHistory returns the owner's transactions ordered by creation time
// descending along with the total count.
func (s *Service) GetHistory(ctx context.Context, owner string, page, limit int32) ([]domain.Transaction, int64, error) {
	wallet, err := s.repo.GetByOwner(ctx, owner)
	if err != nil {
		return nil, 0, err
	}

	// The offset is computed in int64 so a huge page number cannot wrap.
	// Pages past the addressable range hold no rows and read nothing.
	offset := (int64(page) - 1) * int64(limit)

	var transactions []domain.Transaction

	if offset <= math.MaxInt32 {
		transactions, err = s.logRepo.ListByWallet(ctx, wallet.ID, limit, int32(offset))
		if err != nil {
			return nil, 0, err
		}
	}

	total, err := s.logRepo.CountByWallet(ctx, wallet.ID)
	if err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

// checkBalance gives a friendly early insufficient-balance error. The
// authoritative check still happens inside the atomic unit, so a concurrent
// debit committing after this read cannot overdraw the wallet.
func (s *Service) checkBalance(ctx context.Context, owner string, amount decimal.Decimal) error {
	l := zerolog.Ctx(ctx)

	wallet, err := s.repo.GetByOwner(ctx, owner)
	if err != nil {
		return err
	}

	balance, err := decimal.NewFromString(wallet.Balance)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.ErrInvalidAmount
	}

	if balance.LessThan(amount) {
		return domain.ErrInsufficientBalance
	}

	return nil
}

func (s *Service) publish(ctx context.Context, transactions ...domain.Transaction) {
	if s.publisher == nil {
		return
	}

	l := zerolog.Ctx(ctx)

	for _, t := range transactions {
		event := events.TransactionCompleted{
			Reference: t.Reference,
			WalletID:  t.WalletID,
			Type:      t.Type,
			Amount:    t.Amount,
			Currency:  currencypkg.NGN,
			CreatedAt: t.CreatedAt,
		}

		if err := s.publisher.Publish(ctx, event); err != nil {
			l.Warn().Err(err).Str("reference", t.Reference).Msg("event publish failed")
		}
	}
}
