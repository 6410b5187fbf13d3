package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cambiopix/backend/internal/auth"
	"github.com/cambiopix/backend/internal/domain"
	"github.com/cambiopix/backend/internal/logging"
	"github.com/cambiopix/backend/internal/service"
)

type depositService interface {
	CreateDeposit(ctx context.Context, req service.DepositRequest) (*service.Deposit, error)
	ListUserDeposits(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error)
	ConfirmPaid(ctx context.Context, userID, transactionID uuid.UUID) error
}

type TransactionHandler struct {
	deposits depositService
}

func NewTransactionHandler(deposits depositService) *TransactionHandler {
	return &TransactionHandler{deposits: deposits}
}

type createDepositRequest struct {
	AmountBRL string `json:"amount_brl"`
}

type paymentAccountDTO struct {
	BankName   string `json:"bank_name"`
	HolderName string `json:"holder_name"`
	PixKey     string `json:"pix_key"`
}

type transactionDTO struct {
	ID          uuid.UUID                `json:"id"`
	AmountBRL   string                   `json:"amount_brl"`
	AmountUSDT  string                   `json:"amount_usdt"`
	Rate        string                   `json:"rate"`
	Status      domain.TransactionStatus `json:"status"`
	CreatedAt   time.Time                `json:"created_at"`
	CompletedAt *time.Time               `json:"completed_at,omitempty"`
}

type createDepositResponse struct {
	Transaction    transactionDTO    `json:"transaction"`
	PaymentAccount paymentAccountDTO `json:"payment_account"`
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req createDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	amount, err := decimal.NewFromString(req.AmountBRL)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "amount_brl", Message: "must be a decimal string"}})
		return
	}

	deposit, err := h.deposits.CreateDeposit(r.Context(), service.DepositRequest{
		UserID:    userID,
		AmountBRL: amount,
	})
	if err != nil {
		log.Warn("deposit creation failed", "user_id", userID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, createDepositResponse{
		Transaction: toTransactionDTO(deposit.Transaction),
		PaymentAccount: paymentAccountDTO{
			BankName:   deposit.PaymentAccount.BankName,
			HolderName: deposit.PaymentAccount.HolderName,
			PixKey:     deposit.PaymentAccount.PixKey,
		},
	})
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	transactions, err := h.deposits.ListUserDeposits(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list transactions", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]transactionDTO, 0, len(transactions))
	for i := range transactions {
		dtos = append(dtos, toTransactionDTO(&transactions[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *TransactionHandler) ConfirmPaid(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	transactionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	if err := h.deposits.ConfirmPaid(r.Context(), userID, transactionID); err != nil {
		logging.FromContext(r.Context()).Warn("paid confirmation failed",
			"transaction_id", transactionID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]string{"status": string(domain.TransactionStatusPaid)})
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:          t.ID,
		AmountBRL:   t.AmountBRL.String(),
		AmountUSDT:  t.AmountUSDT.String(),
		Rate:        t.Rate.String(),
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		CompletedAt: t.CompletedAt,
	}
}
