//go:build integration

package transactionrepo_test

import (
	"context"
	"log"
	"testing"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/integrationtest"
	"github.com/go-petr/pet-wallet/internal/integrationtest/helpers"
	"github.com/go-petr/pet-wallet/internal/transactionrepo"
	"github.com/go-petr/pet-wallet/pkg/configpkg"
	"github.com/go-petr/pet-wallet/pkg/dbpkg"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) (*transactionrepo.RepoPGS, dbpkg.SQLInterface) {
	t.Helper()

	config, err := configpkg.Load("../../configs")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	tx := integrationtest.SetupTX(t, config.DBDriver, config.DBSource)

	return transactionrepo.NewRepoPGS(tx), tx
}

func TestCreate(t *testing.T) {
	repo, tx := setupRepo(t)

	user := helpers.SeedUser(t, tx)
	wallet := helpers.SeedWallet(t, tx, user.Username, "1000")

	arg := domain.CreateTransactionParams{
		WalletID:    wallet.ID,
		Type:        domain.TransactionTypeCredit,
		Amount:      "150.25",
		Description: "Wallet funding",
	}

	transaction, err := repo.Create(context.Background(), arg)
	require.NoError(t, err)
	require.NotEmpty(t, transaction)

	require.Equal(t, arg.WalletID, transaction.WalletID)
	require.Equal(t, arg.Type, transaction.Type)
	require.Equal(t, arg.Description, transaction.Description)
	require.NotEmpty(t, transaction.Reference)
	require.Equal(t, domain.TransactionStatusCompleted, transaction.Status)
	require.NotZero(t, transaction.ID)
	require.NotZero(t, transaction.CreatedAt)
}

// A constraint violation aborts the enclosing test transaction, so every
// failing case gets its own.
func TestCreateMissingWallet(t *testing.T) {
	repo, _ := setupRepo(t)

	_, err := repo.Create(context.Background(), domain.CreateTransactionParams{
		WalletID:    -1,
		Type:        domain.TransactionTypeCredit,
		Amount:      "100",
		Description: "Wallet funding",
	})
	require.EqualError(t, err, domain.ErrWalletNotFound.Error())
}

func TestCreateNonPositiveAmount(t *testing.T) {
	repo, tx := setupRepo(t)

	user := helpers.SeedUser(t, tx)
	wallet := helpers.SeedWallet(t, tx, user.Username, "1000")

	_, err := repo.Create(context.Background(), domain.CreateTransactionParams{
		WalletID:    wallet.ID,
		Type:        domain.TransactionTypeCredit,
		Amount:      "0",
		Description: "Wallet funding",
	})
	require.EqualError(t, err, domain.ErrInvalidAmount.Error())
}

func TestGet(t *testing.T) {
	repo, tx := setupRepo(t)

	user := helpers.SeedUser(t, tx)
	wallet := helpers.SeedWallet(t, tx, user.Username, "1000")
	transaction := helpers.SeedTransaction(t, tx, domain.CreateTransactionParams{
		WalletID:    wallet.ID,
		Type:        domain.TransactionTypeCredit,
		Amount:      "100",
		Description: "Wallet funding",
	})

	got, err := repo.Get(context.Background(), transaction.ID)
	require.NoError(t, err)
	require.Equal(t, transaction.ID, got.ID)
	require.Equal(t, transaction.Reference, got.Reference)

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.Get(context.Background(), -1)
		require.EqualError(t, err, domain.ErrTransactionNotFound.Error())
	})
}

func TestGetByReference(t *testing.T) {
	repo, tx := setupRepo(t)

	user := helpers.SeedUser(t, tx)
	wallet := helpers.SeedWallet(t, tx, user.Username, "1000")
	transaction := helpers.SeedTransaction(t, tx, domain.CreateTransactionParams{
		WalletID:    wallet.ID,
		Type:        domain.TransactionTypeDebit,
		Amount:      "100",
		Description: "Withdrawal",
	})

	got, err := repo.GetByReference(context.Background(), transaction.Reference)
	require.NoError(t, err)
	require.Equal(t, transaction.ID, got.ID)

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.GetByReference(context.Background(), "nosuchreference")
		require.EqualError(t, err, domain.ErrTransactionNotFound.Error())
	})
}

func TestListByWallet(t *testing.T) {
	repo, tx := setupRepo(t)

	user := helpers.SeedUser(t, tx)
	wallet := helpers.SeedWallet(t, tx, user.Username, "1000")
	seeded := helpers.SeedTransactions(t, tx, wallet.ID, 5)

	got, err := repo.ListByWallet(context.Background(), wallet.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 5)

	// Newest first: ids descend because seeding is sequential.
	for i := range got {
		require.Equal(t, seeded[len(seeded)-1-i].ID, got[i].ID)
	}

	t.Run("LimitAndOffset", func(t *testing.T) {
		page, err := repo.ListByWallet(context.Background(), wallet.ID, 2, 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		require.Equal(t, seeded[2].ID, page[0].ID)
		require.Equal(t, seeded[1].ID, page[1].ID)
	})

	t.Run("EmptyWallet", func(t *testing.T) {
		other := helpers.SeedUser(t, tx)
		otherWallet := helpers.SeedWallet(t, tx, other.Username, "0")

		page, err := repo.ListByWallet(context.Background(), otherWallet.ID, 10, 0)
		require.NoError(t, err)
		require.Empty(t, page)
	})
}

func TestCountByWallet(t *testing.T) {
	repo, tx := setupRepo(t)

	user := helpers.SeedUser(t, tx)
	wallet := helpers.SeedWallet(t, tx, user.Username, "1000")
	helpers.SeedTransactions(t, tx, wallet.ID, 3)

	count, err := repo.CountByWallet(context.Background(), wallet.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), count)

	t.Run("EmptyWallet", func(t *testing.T) {
		other := helpers.SeedUser(t, tx)
		otherWallet := helpers.SeedWallet(t, tx, other.Username, "0")

		count, err := repo.CountByWallet(context.Background(), otherWallet.ID)
		require.NoError(t, err)
		require.Zero(t, count)
	})
}
