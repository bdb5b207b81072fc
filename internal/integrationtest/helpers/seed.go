// Package helpers seeds test data for integration tests.
package helpers

import (
	"context"
	"testing"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/transactionrepo"
	"github.com/go-petr/pet-wallet/internal/userrepo"
	"github.com/go-petr/pet-wallet/internal/walletrepo"
	"github.com/go-petr/pet-wallet/pkg/currencypkg"
	"github.com/go-petr/pet-wallet/pkg/dbpkg"
	"github.com/go-petr/pet-wallet/pkg/passpkg"
	"github.com/go-petr/pet-wallet/pkg/randompkg"
)

// SeedUser inserts a random user without a wallet.
func SeedUser(t *testing.T, db dbpkg.SQLInterface) domain.User {
	t.Helper()

	hashedPassword, err := passpkg.Hash(randompkg.String(10))
	if err != nil {
		t.Fatalf("passpkg.Hash() failed: %v", err)
	}

	user, err := userrepo.NewTxRepoPGS(db).Create(context.Background(), domain.CreateUserParams{
		Username:       randompkg.Owner(),
		HashedPassword: hashedPassword,
		FullName:       randompkg.Owner(),
		Email:          randompkg.Email(),
		Phone:          "0" + randompkg.String(10),
		BVN:            randompkg.BVN(),
	})
	if err != nil {
		t.Fatalf("SeedUser() failed: %v", err)
	}

	return user
}

// SeedWallet inserts a wallet with the given balance for the owner.
func SeedWallet(t *testing.T, db dbpkg.SQLInterface, owner, balance string) domain.Wallet {
	t.Helper()

	wallet, err := walletrepo.NewTxRepoPGS(db).Create(context.Background(), owner, balance, currencypkg.NGN)
	if err != nil {
		t.Fatalf("SeedWallet() failed: %v", err)
	}

	return wallet
}

// SeedUserWithWallet inserts a random user together with a wallet holding balance.
func SeedUserWithWallet(t *testing.T, db dbpkg.SQLInterface, balance string) (domain.User, domain.Wallet) {
	t.Helper()

	user := SeedUser(t, db)
	wallet := SeedWallet(t, db, user.Username, balance)

	return user, wallet
}

// SeedTransaction inserts a completed transaction for the wallet.
func SeedTransaction(t *testing.T, db dbpkg.SQLInterface, arg domain.CreateTransactionParams) domain.Transaction {
	t.Helper()

	transaction, err := transactionrepo.NewRepoPGS(db).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("SeedTransaction() failed: %v", err)
	}

	return transaction
}

// SeedTransactions inserts count credit transactions for the wallet.
func SeedTransactions(t *testing.T, db dbpkg.SQLInterface, walletID int32, count int) []domain.Transaction {
	t.Helper()

	transactions := make([]domain.Transaction, count)

	for i := range transactions {
		transactions[i] = SeedTransaction(t, db, domain.CreateTransactionParams{
			WalletID:    walletID,
			Type:        domain.TransactionTypeCredit,
			Amount:      randompkg.MoneyAmountBetween(1, 1000),
			Description: "Wallet funding",
		})
	}

	return transactions
}
