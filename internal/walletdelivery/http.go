// Package walletdelivery manages delivery layer of the wallet ledger.
package walletdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/middleware"
	"github.com/go-petr/pet-wallet/pkg/errorspkg"
	"github.com/go-petr/pet-wallet/pkg/tokenpkg"
	"github.com/go-petr/pet-wallet/pkg/web"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Service provides service layer interface needed by wallet delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package walletdelivery
type Service interface {
	GetBalance(ctx context.Context, owner string) (domain.Wallet, error)
	Fund(ctx context.Context, owner, amount, description string) (domain.Transaction, error)
	Withdraw(ctx context.Context, owner, amount, description string) (domain.Transaction, error)
	Transfer(ctx context.Context, fromOwner, toOwner, amount, description string) (domain.TransferTxResult, error)
	GetHistory(ctx context.Context, owner string, page, limit int32) ([]domain.Transaction, int64, error)
}

// UserGetter resolves transfer recipients.
type UserGetter interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
}

// Handler facilitates wallet delivery layer logic.
type Handler struct {
	service Service
	users   UserGetter
}

// NewHandler returns wallet handler.
func NewHandler(ws Service, ug UserGetter) *Handler {
	return &Handler{
		service: ws,
		users:   ug,
	}
}

func bindError(gctx *gin.Context, err error) {
	l := zerolog.Ctx(gctx.Request.Context())
	l.Info().Err(err).Send()

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.GetErrorMsg(ve)})

		return
	}

	gctx.JSON(http.StatusBadRequest, web.Error(err))
}

func owner(gctx *gin.Context) string {
	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)
	return authPayload.Username
}

type balanceData struct {
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

// GetBalance handles http request to get the wallet balance.
func (h *Handler) GetBalance(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	wallet, err := h.service.GetBalance(ctx, owner(gctx))
	if err != nil {
		if err == domain.ErrWalletNotFound {
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	res := web.Response{
		Data: balanceData{
			Balance:  wallet.Balance,
			Currency: wallet.Currency,
		},
	}

	gctx.JSON(http.StatusOK, res)
}

type fundRequest struct {
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description"`
}

type transactionData struct {
	Transaction domain.Transaction `json:"transaction"`
}

// Fund handles http request to fund the wallet.
func (h *Handler) Fund(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req fundRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		bindError(gctx, err)
		return
	}

	transaction, err := h.service.Fund(ctx, owner(gctx), req.Amount, req.Description)
	if err != nil {
		switch err {
		case domain.ErrInvalidAmount, domain.ErrNegativeAmount:
			gctx.JSON(http.StatusBadRequest, web.Error(err))
			return
		case domain.ErrWalletNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: transactionData{transaction}})
}

type withdrawRequest struct {
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description"`
}

// Withdraw handles http request to withdraw from the wallet.
func (h *Handler) Withdraw(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req withdrawRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		bindError(gctx, err)
		return
	}

	transaction, err := h.service.Withdraw(ctx, owner(gctx), req.Amount, req.Description)
	if err != nil {
		switch err {
		case domain.ErrInvalidAmount, domain.ErrNegativeAmount, domain.ErrInsufficientBalance:
			gctx.JSON(http.StatusBadRequest, web.Error(err))
			return
		case domain.ErrWalletNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: transactionData{transaction}})
}

type transferRequest struct {
	RecipientEmail string `json:"recipient_email" binding:"required,email"`
	Amount         string `json:"amount" binding:"required"`
	Description    string `json:"description"`
}

type transferData struct {
	DebitTransaction  domain.Transaction `json:"debit_transaction"`
	CreditTransaction domain.Transaction `json:"credit_transaction"`
}

// Transfer handles http request to transfer money to another user.
func (h *Handler) Transfer(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req transferRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		bindError(gctx, err)
		return
	}

	fromOwner := owner(gctx)

	recipient, err := h.users.GetByEmail(ctx, req.RecipientEmail)
	if err != nil {
		if err == domain.ErrUserNotFound {
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	if recipient.IsBlacklisted {
		l.Info().Str("recipient", recipient.Username).Msg("transfer to blacklisted recipient refused")
		gctx.JSON(http.StatusForbidden, web.Error(domain.ErrRecipientBlacklisted))

		return
	}

	if recipient.Username == fromOwner {
		gctx.JSON(http.StatusBadRequest, web.Error(domain.ErrSelfTransfer))

		return
	}

	result, err := h.service.Transfer(ctx, fromOwner, recipient.Username, req.Amount, req.Description)
	if err != nil {
		switch err {
		case domain.ErrInvalidAmount, domain.ErrNegativeAmount, domain.ErrInsufficientBalance, domain.ErrSelfTransfer:
			gctx.JSON(http.StatusBadRequest, web.Error(err))
			return
		case domain.ErrWalletNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	res := web.Response{
		Data: transferData{
			DebitTransaction:  result.DebitTransaction,
			CreditTransaction: result.CreditTransaction,
		},
	}

	gctx.JSON(http.StatusOK, res)
}

type historyRequest struct {
	Page  int32 `form:"page,default=1" binding:"min=1"`
	Limit int32 `form:"limit,default=10" binding:"min=1,max=100"`
}

type historyData struct {
	Transactions []domain.Transaction `json:"transactions"`
	Page         int32                `json:"page"`
	Limit        int32                `json:"limit"`
	Total        int64                `json:"total"`
	Pages        int64                `json:"pages"`
}

// GetHistory handles http request to list the wallet's transactions.
func (h *Handler) GetHistory(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req historyRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		bindError(gctx, err)
		return
	}

	transactions, total, err := h.service.GetHistory(ctx, owner(gctx), req.Page, req.Limit)
	if err != nil {
		if err == domain.ErrWalletNotFound {
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	pages := total / int64(req.Limit)
	if total%int64(req.Limit) != 0 {
		pages++
	}

	res := web.Response{
		Data: historyData{
			Transactions: transactions,
			Page:         req.Page,
			Limit:        req.Limit,
			Total:        total,
			Pages:        pages,
		},
	}

	gctx.JSON(http.StatusOK, res)
}
