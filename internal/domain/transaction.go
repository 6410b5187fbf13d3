package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionStatusAwaitingPayment TransactionStatus = "awaiting_payment"
	TransactionStatusPaid            TransactionStatus = "paid"
	TransactionStatusProcessing      TransactionStatus = "processing"
	TransactionStatusCompleted       TransactionStatus = "completed"
	TransactionStatusCancelled       TransactionStatus = "cancelled"
)

func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusAwaitingPayment, TransactionStatusPaid,
		TransactionStatusProcessing, TransactionStatusCompleted,
		TransactionStatusCancelled:
		return true
	}
	return false
}

// Transaction is a PIX deposit purchasing USDT. Rate is the final marked-up
// BRL/USDT rate captured at creation; status is a flat enum overwritten by
// the paid-confirmation endpoint and the admin back office.
type Transaction struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	PaymentAccountID uuid.UUID
	AmountBRL        decimal.Decimal
	AmountUSDT       decimal.Decimal
	Rate             decimal.Decimal
	Status           TransactionStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CompletedAt      *time.Time
}
