// Package userservice manages business logic layer of users.
package userservice

import (
	"context"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/pkg/errorspkg"
	"github.com/go-petr/pet-wallet/pkg/passpkg"

	"github.com/rs/zerolog"
)

// Repo provides data access layer interface needed by user service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package userservice
type Repo interface {
	CreateWithWallet(ctx context.Context, arg domain.CreateUserParams) (domain.User, error)
	Get(ctx context.Context, username string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
}

// Screener checks identities against an external blacklist.
type Screener interface {
	IsBlacklisted(ctx context.Context, email, bvn string) bool
}

// Service facilitates user service layer logic.
type Service struct {
	repo     Repo
	screener Screener
}

// New returns user service struct to manage user business logic.
//
// The screener may be nil, in which case registration skips blacklist screening.
func New(ur Repo, sc Screener) *Service {
	return &Service{
		repo:     ur,
		screener: sc,
	}
}

// NewUserWithoutPassword returns user with removed sensitive data.
func NewUserWithoutPassword(u domain.User) domain.UserWithoutPassword {
	return domain.UserWithoutPassword{
		Username:  u.Username,
		FullName:  u.FullName,
		Email:     u.Email,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
	}
}

// CreateParams is the input data to register a user.
type CreateParams struct {
	Username string
	Password string
	FullName string
	Email    string
	Phone    string
	BVN      string
}

// Create screens the identity, then creates the user along with their wallet.
func (s *Service) Create(ctx context.Context, arg CreateParams) (domain.UserWithoutPassword, error) {
	l := zerolog.Ctx(ctx)

	var result domain.UserWithoutPassword

	if s.screener != nil && s.screener.IsBlacklisted(ctx, arg.Email, arg.BVN) {
		return result, domain.ErrUserBlacklisted
	}

	hashedPassword, err := passpkg.Hash(arg.Password)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	gotUser, err := s.repo.CreateWithWallet(ctx, domain.CreateUserParams{
		Username:       arg.Username,
		HashedPassword: hashedPassword,
		FullName:       arg.FullName,
		Email:          arg.Email,
		Phone:          arg.Phone,
		BVN:            arg.BVN,
	})
	if err != nil {
		return result, err
	}

	result = NewUserWithoutPassword(gotUser)

	return result, nil
}

// CheckPassword checks if the password is valid for the given username.
func (s *Service) CheckPassword(ctx context.Context, username, pass string) (domain.UserWithoutPassword, error) {
	l := zerolog.Ctx(ctx)

	var response domain.UserWithoutPassword

	gotUser, err := s.repo.Get(ctx, username)
	if err != nil {
		return response, err
	}

	if gotUser.IsBlacklisted {
		l.Warn().Str("username", username).Msg("blacklisted user login refused")
		return response, domain.ErrUserBlacklisted
	}

	err = passpkg.Check(pass, gotUser.HashedPassword)
	if err != nil {
		l.Warn().Err(err).Send()
		return response, domain.ErrWrongPassword
	}

	response = NewUserWithoutPassword(gotUser)

	return response, nil
}

// GetByEmail returns the user with the given email.
func (s *Service) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.repo.GetByEmail(ctx, email)
}
