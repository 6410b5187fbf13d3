package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Profile is the platform's user record. Document holds the CPF as bare
// digits and doubles as a last-resort lookup key for KYC callbacks.
type Profile struct {
	ID             uuid.UUID
	Email          string
	Name           string
	PasswordHash   string
	Document       string
	Role           Role
	KycStatus      KycStatus
	KycCompletedAt *time.Time
	CreatedAt      time.Time
}
