package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cambiopix/backend/internal/domain"
)

const paymentAccountColumns = `id, bank_name, holder_name, holder_document,
	pix_key, active, created_at`

type PaymentAccountRepository struct {
	db *sql.DB
}

func NewPaymentAccountRepository(db *sql.DB) *PaymentAccountRepository {
	return &PaymentAccountRepository{db: db}
}

func (r *PaymentAccountRepository) Create(ctx context.Context, a *domain.PaymentAccount) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payment_accounts (
			id, bank_name, holder_name, holder_document, pix_key, active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.BankName, a.HolderName, a.HolderDocument, a.PixKey, a.Active, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// GetActive returns the most recently created active account, the one new
// deposits are assigned to.
func (r *PaymentAccountRepository) GetActive(ctx context.Context) (*domain.PaymentAccount, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentAccountColumns+` FROM payment_accounts
		WHERE active = true ORDER BY created_at DESC LIMIT 1`,
	)
	a, err := scanPaymentAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetActive: %w", domain.ErrNoPaymentAccount)
		}
		return nil, fmt.Errorf("GetActive: %w", err)
	}
	return a, nil
}

func (r *PaymentAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentAccount, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentAccountColumns+` FROM payment_accounts WHERE id = $1`, id,
	)
	a, err := scanPaymentAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (r *PaymentAccountRepository) List(ctx context.Context) ([]domain.PaymentAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentAccountColumns+` FROM payment_accounts ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var accounts []domain.PaymentAccount
	for rows.Next() {
		a, err := scanPaymentAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return accounts, nil
}

func (r *PaymentAccountRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payment_accounts SET active = $1 WHERE id = $2`,
		active, id,
	)
	if err != nil {
		return fmt.Errorf("SetActive: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("SetActive: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("SetActive: %w", domain.ErrNotFound)
	}
	return nil
}

func scanPaymentAccount(s scanner) (*domain.PaymentAccount, error) {
	var a domain.PaymentAccount
	err := s.Scan(
		&a.ID, &a.BankName, &a.HolderName, &a.HolderDocument,
		&a.PixKey, &a.Active, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
