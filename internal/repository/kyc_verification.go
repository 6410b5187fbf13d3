package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cambiopix/backend/internal/domain"
)

const kycVerificationColumns = `id, user_id, status, provider_ref, verified_at,
	created_at, updated_at`

type KycVerificationRepository struct {
	db *sql.DB
}

func NewKycVerificationRepository(db *sql.DB) *KycVerificationRepository {
	return &KycVerificationRepository{db: db}
}

func (r *KycVerificationRepository) Create(ctx context.Context, v *domain.KycVerification) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO kyc_verifications (
			id, user_id, status, provider_ref, verified_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		v.ID, v.UserID, v.Status, v.ProviderRef, v.VerifiedAt, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: %w", domain.ErrDuplicateVerification)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// GetLatestByProviderRef finds the most recent audit row carrying the
// vendor's correlation id, regardless of user.
func (r *KycVerificationRepository) GetLatestByProviderRef(ctx context.Context, providerRef string) (*domain.KycVerification, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+kycVerificationColumns+` FROM kyc_verifications
		WHERE provider_ref = $1 ORDER BY created_at DESC LIMIT 1`,
		providerRef,
	)
	v, err := scanKycVerification(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetLatestByProviderRef: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetLatestByProviderRef: %w", err)
	}
	return v, nil
}

func (r *KycVerificationRepository) GetLatestByUserAndProviderRef(ctx context.Context, userID uuid.UUID, providerRef string) (*domain.KycVerification, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+kycVerificationColumns+` FROM kyc_verifications
		WHERE user_id = $1 AND provider_ref = $2
		ORDER BY created_at DESC LIMIT 1`,
		userID, providerRef,
	)
	v, err := scanKycVerification(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetLatestByUserAndProviderRef: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetLatestByUserAndProviderRef: %w", err)
	}
	return v, nil
}

// UpdateStatus overwrites a row's status in place. A non-nil verifiedAt is
// recorded; verified_at is never cleared once set, even when a later callback
// regresses the status.
func (r *KycVerificationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.KycStatus, verifiedAt *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE kyc_verifications
		SET status = $1, verified_at = COALESCE($2, verified_at), updated_at = now()
		WHERE id = $3`,
		status, verifiedAt, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStatus: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateStatus: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *KycVerificationRepository) GetLatestByUser(ctx context.Context, userID uuid.UUID) (*domain.KycVerification, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+kycVerificationColumns+` FROM kyc_verifications
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`,
		userID,
	)
	v, err := scanKycVerification(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetLatestByUser: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetLatestByUser: %w", err)
	}
	return v, nil
}

func (r *KycVerificationRepository) ListAll(ctx context.Context, limit int) ([]domain.KycVerification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+kycVerificationColumns+` FROM kyc_verifications
		ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ListAll: %w", err)
	}
	defer rows.Close()

	var verifications []domain.KycVerification
	for rows.Next() {
		v, err := scanKycVerification(rows)
		if err != nil {
			return nil, fmt.Errorf("ListAll: scan: %w", err)
		}
		verifications = append(verifications, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListAll: rows: %w", err)
	}
	return verifications, nil
}

func scanKycVerification(s scanner) (*domain.KycVerification, error) {
	var v domain.KycVerification
	err := s.Scan(
		&v.ID, &v.UserID, &v.Status, &v.ProviderRef,
		&v.VerifiedAt, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
