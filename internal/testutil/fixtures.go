package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cambiopix/backend/internal/domain"
)

func SeedProfile(t *testing.T, db *sql.DB, email, name, document string, kycStatus domain.KycStatus) *domain.Profile {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	p := &domain.Profile{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Document:     document,
		Role:         domain.RoleUser,
		KycStatus:    kycStatus,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO profiles (id, email, name, password_hash, document, role, kyc_status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Email, p.Name, p.PasswordHash, p.Document, p.Role, p.KycStatus, p.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed profile %s: %v", email, err)
	}
	return p
}

func SeedPaymentAccount(t *testing.T, db *sql.DB, bankName, pixKey string, active bool) *domain.PaymentAccount {
	t.Helper()

	a := &domain.PaymentAccount{
		ID:         uuid.New(),
		BankName:   bankName,
		HolderName: "Cambio Pix Ltda",
		PixKey:     pixKey,
		Active:     active,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO payment_accounts (id, bank_name, holder_name, holder_document, pix_key, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.BankName, a.HolderName, a.HolderDocument, a.PixKey, a.Active, a.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed payment account %s: %v", pixKey, err)
	}
	return a
}

func GetProfileKycStatus(t *testing.T, db *sql.DB, id uuid.UUID) domain.KycStatus {
	t.Helper()

	var status domain.KycStatus
	if err := db.QueryRow(`SELECT kyc_status FROM profiles WHERE id = $1`, id).Scan(&status); err != nil {
		t.Fatalf("get profile kyc status %s: %v", id, err)
	}
	return status
}

func CountVerifications(t *testing.T, db *sql.DB, userID uuid.UUID) int {
	t.Helper()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM kyc_verifications WHERE user_id = $1`, userID).Scan(&count); err != nil {
		t.Fatalf("count verifications for %s: %v", userID, err)
	}
	return count
}
