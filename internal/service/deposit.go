package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cambiopix/backend/internal/domain"
	"github.com/cambiopix/backend/internal/logging"
	"github.com/cambiopix/backend/internal/rates"
)

type depositTransactionRepo interface {
	Create(ctx context.Context, t *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, completedAt *time.Time) error
}

type depositProfileRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
}

type depositPaymentAccountRepo interface {
	GetActive(ctx context.Context) (*domain.PaymentAccount, error)
}

type DepositLimits struct {
	MinBRL decimal.Decimal
	MaxBRL decimal.Decimal
}

// DepositService creates PIX deposit transactions priced at the live
// marked-up rate and progresses their status. Status changes are flat
// overwrites; there is no guarded state machine.
type DepositService struct {
	transactions depositTransactionRepo
	profiles     depositProfileRepo
	accounts     depositPaymentAccountRepo
	quoter       rates.Quoter
	limits       DepositLimits
}

func NewDepositService(
	transactions depositTransactionRepo,
	profiles depositProfileRepo,
	accounts depositPaymentAccountRepo,
	quoter rates.Quoter,
	limits DepositLimits,
) *DepositService {
	return &DepositService{
		transactions: transactions,
		profiles:     profiles,
		accounts:     accounts,
		quoter:       quoter,
		limits:       limits,
	}
}

type DepositRequest struct {
	UserID    uuid.UUID
	AmountBRL decimal.Decimal
}

type Deposit struct {
	Transaction    *domain.Transaction
	PaymentAccount *domain.PaymentAccount
}

// CreateDeposit prices a BRL deposit at the current final rate, assigns the
// active PIX account and records the transaction as awaiting payment. The
// user must have an approved KYC status.
func (s *DepositService) CreateDeposit(ctx context.Context, req DepositRequest) (*Deposit, error) {
	log := logging.FromContext(ctx)

	if !req.AmountBRL.IsPositive() {
		return nil, fmt.Errorf("CreateDeposit: %w", domain.ErrInvalidAmount)
	}
	if req.AmountBRL.LessThan(s.limits.MinBRL) || req.AmountBRL.GreaterThan(s.limits.MaxBRL) {
		return nil, fmt.Errorf("CreateDeposit: amount %s outside [%s, %s]: %w",
			req.AmountBRL, s.limits.MinBRL, s.limits.MaxBRL, domain.ErrInvalidAmount)
	}

	profile, err := s.profiles.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("CreateDeposit: %w", err)
	}
	if profile.KycStatus != domain.KycStatusApproved {
		return nil, fmt.Errorf("CreateDeposit: %w", domain.ErrKycRequired)
	}

	account, err := s.accounts.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("CreateDeposit: %w", err)
	}

	quote, err := s.quoter.GetQuote(ctx)
	if err != nil {
		return nil, fmt.Errorf("CreateDeposit: %w", err)
	}

	now := time.Now().UTC()
	tx := &domain.Transaction{
		ID:               uuid.New(),
		UserID:           profile.ID,
		PaymentAccountID: account.ID,
		AmountBRL:        req.AmountBRL,
		AmountUSDT:       quote.FiatToAsset(req.AmountBRL),
		Rate:             quote.FinalRate,
		Status:           domain.TransactionStatusAwaitingPayment,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.transactions.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("CreateDeposit: %w", err)
	}

	log.Info("deposit created",
		"transaction_id", tx.ID,
		"user_id", profile.ID,
		"amount_brl", tx.AmountBRL,
		"amount_usdt", tx.AmountUSDT,
		"rate", tx.Rate,
	)

	return &Deposit{Transaction: tx, PaymentAccount: account}, nil
}

func (s *DepositService) ListUserDeposits(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error) {
	transactions, err := s.transactions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ListUserDeposits: %w", err)
	}
	return transactions, nil
}

// ConfirmPaid marks the caller's own transaction as paid, for the admin
// review queue to pick up.
func (s *DepositService) ConfirmPaid(ctx context.Context, userID, transactionID uuid.UUID) error {
	tx, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("ConfirmPaid: %w", err)
	}
	if tx.UserID != userID {
		return fmt.Errorf("ConfirmPaid: %w", domain.ErrNotFound)
	}

	if err := s.transactions.UpdateStatus(ctx, tx.ID, domain.TransactionStatusPaid, nil); err != nil {
		return fmt.Errorf("ConfirmPaid: %w", err)
	}
	return nil
}

// SetStatus is the admin back-office progression: any member of the enum may
// overwrite any other. Completed transactions get their completion stamp.
func (s *DepositService) SetStatus(ctx context.Context, transactionID uuid.UUID, status domain.TransactionStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("SetStatus: %q: %w", status, domain.ErrInvalidStatus)
	}

	var completedAt *time.Time
	if status == domain.TransactionStatusCompleted {
		now := time.Now().UTC()
		completedAt = &now
	}

	if err := s.transactions.UpdateStatus(ctx, transactionID, status, completedAt); err != nil {
		return fmt.Errorf("SetStatus: %w", err)
	}
	return nil
}
