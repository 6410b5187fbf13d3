package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/cambiopix/backend/internal/domain"
	"github.com/cambiopix/backend/internal/logging"
)

type adminTransactionRepo interface {
	ListAll(ctx context.Context, status *domain.TransactionStatus, limit int) ([]domain.Transaction, error)
}

type adminTransactionService interface {
	SetStatus(ctx context.Context, transactionID uuid.UUID, status domain.TransactionStatus) error
}

type adminPaymentAccountRepo interface {
	Create(ctx context.Context, a *domain.PaymentAccount) error
	List(ctx context.Context) ([]domain.PaymentAccount, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type adminVerificationRepo interface {
	ListAll(ctx context.Context, limit int) ([]domain.KycVerification, error)
}

type AdminHandler struct {
	transactions  adminTransactionRepo
	deposits      adminTransactionService
	accounts      adminPaymentAccountRepo
	verifications adminVerificationRepo
}

func NewAdminHandler(
	transactions adminTransactionRepo,
	deposits adminTransactionService,
	accounts adminPaymentAccountRepo,
	verifications adminVerificationRepo,
) *AdminHandler {
	return &AdminHandler{
		transactions:  transactions,
		deposits:      deposits,
		accounts:      accounts,
		verifications: verifications,
	}
}

const adminListLimit = 200

type adminTransactionDTO struct {
	transactionDTO
	UserID           uuid.UUID `json:"user_id"`
	PaymentAccountID uuid.UUID `json:"payment_account_id"`
}

func (h *AdminHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	var status *domain.TransactionStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.TransactionStatus(raw)
		if !s.IsValid() {
			RespondValidationError(w, []FieldError{{Field: "status", Message: "unknown status"}})
			return
		}
		status = &s
	}

	transactions, err := h.transactions.ListAll(r.Context(), status, adminListLimit)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list transactions", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]adminTransactionDTO, 0, len(transactions))
	for i := range transactions {
		t := &transactions[i]
		dtos = append(dtos, adminTransactionDTO{
			transactionDTO:   toTransactionDTO(t),
			UserID:           t.UserID,
			PaymentAccountID: t.PaymentAccountID,
		})
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *AdminHandler) SetTransactionStatus(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	transactionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	status := domain.TransactionStatus(req.Status)
	if err := h.deposits.SetStatus(r.Context(), transactionID, status); err != nil {
		log.Warn("transaction status update failed",
			"transaction_id", transactionID, "status", req.Status, "error", err)
		RespondDomainError(w, err)
		return
	}

	log.Info("transaction status updated", "transaction_id", transactionID, "status", status)
	RespondSuccess(w, http.StatusOK, map[string]string{"status": string(status)})
}

type createPaymentAccountRequest struct {
	BankName       string `json:"bank_name"`
	HolderName     string `json:"holder_name"`
	HolderDocument string `json:"holder_document"`
	PixKey         string `json:"pix_key"`
}

func (r createPaymentAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if r.BankName == "" {
		errs = append(errs, FieldError{Field: "bank_name", Message: "required"})
	}
	if r.HolderName == "" {
		errs = append(errs, FieldError{Field: "holder_name", Message: "required"})
	}
	if r.PixKey == "" {
		errs = append(errs, FieldError{Field: "pix_key", Message: "required"})
	}
	return errs
}

type adminPaymentAccountDTO struct {
	ID             uuid.UUID `json:"id"`
	BankName       string    `json:"bank_name"`
	HolderName     string    `json:"holder_name"`
	HolderDocument string    `json:"holder_document"`
	PixKey         string    `json:"pix_key"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

func (h *AdminHandler) CreatePaymentAccount(w http.ResponseWriter, r *http.Request) {
	var req createPaymentAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	account := &domain.PaymentAccount{
		ID:             uuid.New(),
		BankName:       req.BankName,
		HolderName:     req.HolderName,
		HolderDocument: req.HolderDocument,
		PixKey:         req.PixKey,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}

	if err := h.accounts.Create(r.Context(), account); err != nil {
		logging.FromContext(r.Context()).Error("failed to create payment account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toAdminPaymentAccountDTO(account))
}

func (h *AdminHandler) ListPaymentAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list payment accounts", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]adminPaymentAccountDTO, 0, len(accounts))
	for i := range accounts {
		dtos = append(dtos, toAdminPaymentAccountDTO(&accounts[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (h *AdminHandler) SetPaymentAccountActive(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if err := h.accounts.SetActive(r.Context(), accountID, req.Active); err != nil {
		logging.FromContext(r.Context()).Warn("payment account update failed",
			"account_id", accountID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]bool{"active": req.Active})
}

type adminVerificationDTO struct {
	ID          uuid.UUID        `json:"id"`
	UserID      uuid.UUID        `json:"user_id"`
	Status      domain.KycStatus `json:"status"`
	ProviderRef *string          `json:"verification_id,omitempty"`
	VerifiedAt  *time.Time       `json:"verified_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (h *AdminHandler) ListVerifications(w http.ResponseWriter, r *http.Request) {
	verifications, err := h.verifications.ListAll(r.Context(), adminListLimit)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list verifications", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]adminVerificationDTO, 0, len(verifications))
	for _, v := range verifications {
		dtos = append(dtos, adminVerificationDTO{
			ID:          v.ID,
			UserID:      v.UserID,
			Status:      v.Status,
			ProviderRef: v.ProviderRef,
			VerifiedAt:  v.VerifiedAt,
			CreatedAt:   v.CreatedAt,
			UpdatedAt:   v.UpdatedAt,
		})
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func toAdminPaymentAccountDTO(a *domain.PaymentAccount) adminPaymentAccountDTO {
	return adminPaymentAccountDTO{
		ID:             a.ID,
		BankName:       a.BankName,
		HolderName:     a.HolderName,
		HolderDocument: a.HolderDocument,
		PixKey:         a.PixKey,
		Active:         a.Active,
		CreatedAt:      a.CreatedAt,
	}
}
