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

const profileColumns = `id, email, name, password_hash, document, role,
	kyc_status, kyc_completed_at, created_at`

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (
			id, email, name, password_hash, document, role, kyc_status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Email, p.Name, p.PasswordHash, p.Document, p.Role, p.KycStatus, p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: %w", domain.ErrProfileExists)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id,
	)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return p, nil
}

func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE email = $1`, email,
	)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByEmail: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByEmail: %w", err)
	}
	return p, nil
}

// GetByDocument matches on the stored CPF digits. Callers are expected to
// strip formatting first.
func (r *ProfileRepository) GetByDocument(ctx context.Context, document string) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE document = $1`, document,
	)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByDocument: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByDocument: %w", err)
	}
	return p, nil
}

// UpdateKycStatus overwrites the profile's status with the latest callback
// outcome. A non-nil completedAt is recorded; kyc_completed_at is never
// cleared once set.
func (r *ProfileRepository) UpdateKycStatus(ctx context.Context, id uuid.UUID, status domain.KycStatus, completedAt *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles
		SET kyc_status = $1, kyc_completed_at = COALESCE($2, kyc_completed_at)
		WHERE id = $3`,
		status, completedAt, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateKycStatus: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateKycStatus: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateKycStatus: %w", domain.ErrNotFound)
	}
	return nil
}

func scanProfile(s scanner) (*domain.Profile, error) {
	var p domain.Profile
	err := s.Scan(
		&p.ID, &p.Email, &p.Name, &p.PasswordHash, &p.Document,
		&p.Role, &p.KycStatus, &p.KycCompletedAt, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
