package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentAccount is a platform-owned PIX destination shown to depositors.
// Admin-managed; new deposits are assigned the most recent active account.
type PaymentAccount struct {
	ID             uuid.UUID
	BankName       string
	HolderName     string
	HolderDocument string
	PixKey         string
	Active         bool
	CreatedAt      time.Time
}
