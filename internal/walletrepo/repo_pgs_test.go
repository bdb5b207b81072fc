//go:build integration

package walletrepo_test

import (
	"context"
	"database/sql"
	"log"
	"os"
	"sync"
	"testing"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/integrationtest"
	"github.com/go-petr/pet-wallet/internal/integrationtest/helpers"
	"github.com/go-petr/pet-wallet/internal/transactionrepo"
	"github.com/go-petr/pet-wallet/internal/walletrepo"
	"github.com/go-petr/pet-wallet/pkg/configpkg"
	"github.com/go-petr/pet-wallet/pkg/currencypkg"
	"github.com/go-petr/pet-wallet/pkg/randompkg"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	testDB      *sql.DB
	testRepo    *walletrepo.RepoPGS
	testLogRepo *transactionrepo.RepoPGS
)

func TestMain(m *testing.M) {
	config, err := configpkg.Load("../../configs")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	testDB, err = integrationtest.SetupDB(config.DBDriver, config.DBSource)
	if err != nil {
		log.Fatal("cannot connect to db:", err)
	}

	testRepo = walletrepo.NewRepoPGS(testDB)
	testLogRepo = transactionrepo.NewRepoPGS(testDB)

	os.Exit(m.Run())
}

func requireBalanceEqual(t *testing.T, want, got string) {
	t.Helper()

	wantDecimal := decimal.RequireFromString(want)
	gotDecimal := decimal.RequireFromString(got)

	require.True(t, wantDecimal.Equal(gotDecimal),
		"balance mismatch: want %s, got %s", want, got)
}

func TestCreate(t *testing.T) {
	user := helpers.SeedUser(t, testDB)
	balance := randompkg.MoneyAmountBetween(1_000, 10_000)

	wallet, err := testRepo.Create(context.Background(), user.Username, balance, currencypkg.NGN)
	require.NoError(t, err)
	require.NotEmpty(t, wallet)

	require.Equal(t, user.Username, wallet.Owner)
	requireBalanceEqual(t, balance, wallet.Balance)
	require.Equal(t, currencypkg.NGN, wallet.Currency)
	require.NotZero(t, wallet.ID)
	require.NotZero(t, wallet.CreatedAt)

	t.Run("DuplicateOwner", func(t *testing.T) {
		_, err := testRepo.Create(context.Background(), user.Username, "0", currencypkg.NGN)
		require.EqualError(t, err, domain.ErrWalletAlreadyExists.Error())
	})

	t.Run("MissingOwner", func(t *testing.T) {
		_, err := testRepo.Create(context.Background(), "nosuchowner", "0", currencypkg.NGN)
		require.EqualError(t, err, domain.ErrOwnerNotFound.Error())
	})

	t.Run("UnsupportedCurrency", func(t *testing.T) {
		_, err := testRepo.Create(context.Background(), user.Username, "0", "USD")
		require.EqualError(t, err, domain.ErrCurrencyNotSupported.Error())
	})
}

func TestGet(t *testing.T) {
	user := helpers.SeedUser(t, testDB)
	wallet := helpers.SeedWallet(t, testDB, user.Username, "500")

	got, err := testRepo.Get(context.Background(), wallet.ID)
	require.NoError(t, err)
	require.Equal(t, wallet.ID, got.ID)
	require.Equal(t, wallet.Owner, got.Owner)

	t.Run("NotFound", func(t *testing.T) {
		_, err := testRepo.Get(context.Background(), -1)
		require.EqualError(t, err, domain.ErrWalletNotFound.Error())
	})
}

func TestGetByOwner(t *testing.T) {
	user := helpers.SeedUser(t, testDB)
	wallet := helpers.SeedWallet(t, testDB, user.Username, "500")

	got, err := testRepo.GetByOwner(context.Background(), user.Username)
	require.NoError(t, err)
	require.Equal(t, wallet.ID, got.ID)
	requireBalanceEqual(t, "500", got.Balance)

	t.Run("NotFound", func(t *testing.T) {
		_, err := testRepo.GetByOwner(context.Background(), "nosuchowner")
		require.EqualError(t, err, domain.ErrWalletNotFound.Error())
	})
}

func TestAddBalance(t *testing.T) {
	user := helpers.SeedUser(t, testDB)
	wallet := helpers.SeedWallet(t, testDB, user.Username, "1000")

	got, err := testRepo.AddBalance(context.Background(), "250.50", wallet.ID)
	require.NoError(t, err)
	requireBalanceEqual(t, "1250.50", got.Balance)

	got, err = testRepo.AddBalance(context.Background(), "-1250.50", wallet.ID)
	require.NoError(t, err)
	requireBalanceEqual(t, "0", got.Balance)

	t.Run("Overdraw", func(t *testing.T) {
		_, err := testRepo.AddBalance(context.Background(), "-0.01", wallet.ID)
		require.EqualError(t, err, domain.ErrInsufficientBalance.Error())
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := testRepo.AddBalance(context.Background(), "100", -1)
		require.EqualError(t, err, domain.ErrWalletNotFound.Error())
	})
}

func TestFund(t *testing.T) {
	user := helpers.SeedUser(t, testDB)
	wallet := helpers.SeedWallet(t, testDB, user.Username, "1000")

	transaction, err := testRepo.Fund(context.Background(), user.Username, "500", "Wallet funding")
	require.NoError(t, err)
	require.NotEmpty(t, transaction)

	require.Equal(t, wallet.ID, transaction.WalletID)
	require.Equal(t, domain.TransactionTypeCredit, transaction.Type)
	requireBalanceEqual(t, "500", transaction.Amount)
	require.Equal(t, "Wallet funding", transaction.Description)
	require.NotEmpty(t, transaction.Reference)
	require.Equal(t, domain.TransactionStatusCompleted, transaction.Status)

	got, err := testRepo.GetByOwner(context.Background(), user.Username)
	require.NoError(t, err)
	requireBalanceEqual(t, "1500", got.Balance)

	stored, err := testLogRepo.GetByReference(context.Background(), transaction.Reference)
	require.NoError(t, err)
	require.Equal(t, transaction.ID, stored.ID)
}

func TestWithdraw(t *testing.T) {
	user := helpers.SeedUser(t, testDB)
	helpers.SeedWallet(t, testDB, user.Username, "1000")

	transaction, err := testRepo.Withdraw(context.Background(), user.Username, "400", "Withdrawal")
	require.NoError(t, err)
	require.Equal(t, domain.TransactionTypeDebit, transaction.Type)
	requireBalanceEqual(t, "400", transaction.Amount)

	got, err := testRepo.GetByOwner(context.Background(), user.Username)
	require.NoError(t, err)
	requireBalanceEqual(t, "600", got.Balance)

	t.Run("ExactBalance", func(t *testing.T) {
		_, err := testRepo.Withdraw(context.Background(), user.Username, "600", "Withdrawal")
		require.NoError(t, err)

		got, err := testRepo.GetByOwner(context.Background(), user.Username)
		require.NoError(t, err)
		requireBalanceEqual(t, "0", got.Balance)
	})

	t.Run("Overdraw", func(t *testing.T) {
		wallet, err := testRepo.GetByOwner(context.Background(), user.Username)
		require.NoError(t, err)

		before, err := testLogRepo.CountByWallet(context.Background(), wallet.ID)
		require.NoError(t, err)

		_, err = testRepo.Withdraw(context.Background(), user.Username, "0.01", "Withdrawal")
		require.EqualError(t, err, domain.ErrInsufficientBalance.Error())

		// A failed withdrawal must not leave a transaction row behind.
		after, err := testLogRepo.CountByWallet(context.Background(), wallet.ID)
		require.NoError(t, err)
		require.Equal(t, before, after)
	})
}

func TestTransfer(t *testing.T) {
	fromUser := helpers.SeedUser(t, testDB)
	toUser := helpers.SeedUser(t, testDB)
	fromWallet := helpers.SeedWallet(t, testDB, fromUser.Username, "1000")
	toWallet := helpers.SeedWallet(t, testDB, toUser.Username, "1000")

	arg := walletrepo.TransferParams{
		FromOwner:         fromUser.Username,
		ToOwner:           toUser.Username,
		Amount:            "300",
		DebitDescription:  "Transfer to user " + toUser.Username + ": Rent",
		CreditDescription: "Transfer from user " + fromUser.Username + ": Rent",
	}

	result, err := testRepo.Transfer(context.Background(), arg)
	require.NoError(t, err)

	require.Equal(t, fromWallet.ID, result.DebitTransaction.WalletID)
	require.Equal(t, domain.TransactionTypeDebit, result.DebitTransaction.Type)
	require.Equal(t, toWallet.ID, result.CreditTransaction.WalletID)
	require.Equal(t, domain.TransactionTypeCredit, result.CreditTransaction.Type)

	requireBalanceEqual(t, "700", result.FromWallet.Balance)
	requireBalanceEqual(t, "1300", result.ToWallet.Balance)

	t.Run("InsufficientBalance", func(t *testing.T) {
		overdraw := arg
		overdraw.Amount = "100000"

		_, err := testRepo.Transfer(context.Background(), overdraw)
		require.EqualError(t, err, domain.ErrInsufficientBalance.Error())

		// Neither leg of the failed transfer may persist.
		gotFrom, err := testRepo.GetByOwner(context.Background(), fromUser.Username)
		require.NoError(t, err)
		requireBalanceEqual(t, "700", gotFrom.Balance)

		gotTo, err := testRepo.GetByOwner(context.Background(), toUser.Username)
		require.NoError(t, err)
		requireBalanceEqual(t, "1300", gotTo.Balance)

		count, err := testLogRepo.CountByWallet(context.Background(), fromWallet.ID)
		require.NoError(t, err)
		require.Equal(t, int64(1), count)
	})

	t.Run("MissingRecipient", func(t *testing.T) {
		missing := arg
		missing.ToOwner = "nosuchowner"
		missing.Amount = "100"

		_, err := testRepo.Transfer(context.Background(), missing)
		require.EqualError(t, err, domain.ErrWalletNotFound.Error())

		gotFrom, err := testRepo.GetByOwner(context.Background(), fromUser.Username)
		require.NoError(t, err)
		requireBalanceEqual(t, "700", gotFrom.Balance)
	})
}

func TestConcurrentWithdrawals(t *testing.T) {
	user := helpers.SeedUser(t, testDB)
	helpers.SeedWallet(t, testDB, user.Username, "500")

	// 10 concurrent withdrawals of 100 against a 500 balance: exactly
	// 5 must succeed and the final balance must be zero.
	n := 10
	errs := make(chan error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := testRepo.Withdraw(context.Background(), user.Username, "100", "Withdrawal")
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	succeeded := 0

	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}

		require.EqualError(t, err, domain.ErrInsufficientBalance.Error())
	}

	require.Equal(t, 5, succeeded)

	got, err := testRepo.GetByOwner(context.Background(), user.Username)
	require.NoError(t, err)
	requireBalanceEqual(t, "0", got.Balance)
}

func TestConcurrentOpposingTransfers(t *testing.T) {
	user1 := helpers.SeedUser(t, testDB)
	user2 := helpers.SeedUser(t, testDB)
	wallet1 := helpers.SeedWallet(t, testDB, user1.Username, "1000")
	wallet2 := helpers.SeedWallet(t, testDB, user2.Username, "1000")

	// Opposing transfers between the same pair must not deadlock and
	// must leave both balances unchanged.
	n := 10
	errs := make(chan error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		fromOwner, toOwner := user1.Username, user2.Username
		if i%2 == 1 {
			fromOwner, toOwner = user2.Username, user1.Username
		}

		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := testRepo.Transfer(context.Background(), walletrepo.TransferParams{
				FromOwner:         fromOwner,
				ToOwner:           toOwner,
				Amount:            "100",
				DebitDescription:  "Transfer to user " + toOwner,
				CreditDescription: "Transfer from user " + fromOwner,
			})
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got1, err := testRepo.Get(context.Background(), wallet1.ID)
	require.NoError(t, err)
	requireBalanceEqual(t, "1000", got1.Balance)

	got2, err := testRepo.Get(context.Background(), wallet2.ID)
	require.NoError(t, err)
	requireBalanceEqual(t, "1000", got2.Balance)
}
