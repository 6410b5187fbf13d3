package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cambiopix/backend/internal/domain"
	"github.com/cambiopix/backend/internal/rates"
)

type fakeTransactionRepo struct {
	created []*domain.Transaction
	updates []struct {
		id          uuid.UUID
		status      domain.TransactionStatus
		completedAt *time.Time
	}
	byID map[uuid.UUID]*domain.Transaction
}

func (f *fakeTransactionRepo) Create(_ context.Context, t *domain.Transaction) error {
	f.created = append(f.created, t)
	return nil
}

func (f *fakeTransactionRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Transaction, error) {
	if tx, ok := f.byID[id]; ok {
		return tx, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTransactionRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, tx := range f.created {
		if tx.UserID == userID {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (f *fakeTransactionRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.TransactionStatus, completedAt *time.Time) error {
	f.updates = append(f.updates, struct {
		id          uuid.UUID
		status      domain.TransactionStatus
		completedAt *time.Time
	}{id, status, completedAt})
	return nil
}

type fakeDepositProfileRepo struct {
	profiles map[uuid.UUID]*domain.Profile
}

func (f *fakeDepositProfileRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Profile, error) {
	if p, ok := f.profiles[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

type fakeAccountRepo struct {
	active *domain.PaymentAccount
}

func (f *fakeAccountRepo) GetActive(_ context.Context) (*domain.PaymentAccount, error) {
	if f.active == nil {
		return nil, domain.ErrNoPaymentAccount
	}
	return f.active, nil
}

type fixedQuoter struct {
	quote *rates.Quote
	err   error
}

func (f *fixedQuoter) GetQuote(_ context.Context) (*rates.Quote, error) {
	return f.quote, f.err
}

func depositFixture(kycStatus domain.KycStatus) (*DepositService, *fakeTransactionRepo, uuid.UUID) {
	userID := uuid.New()
	transactions := &fakeTransactionRepo{byID: map[uuid.UUID]*domain.Transaction{}}
	profiles := &fakeDepositProfileRepo{profiles: map[uuid.UUID]*domain.Profile{
		userID: {ID: userID, KycStatus: kycStatus},
	}}
	accounts := &fakeAccountRepo{active: &domain.PaymentAccount{
		ID:       uuid.New(),
		BankName: "Banco Teste",
		PixKey:   "pix@example.com",
		Active:   true,
	}}
	quote := rates.NewService("", "USDTBRL", 0.10, 0.03).ComputeQuote(decimal.RequireFromString("5.00"))
	quoter := &fixedQuoter{quote: quote}
	svc := NewDepositService(transactions, profiles, accounts, quoter, DepositLimits{
		MinBRL: decimal.RequireFromString("50"),
		MaxBRL: decimal.RequireFromString("50000"),
	})
	return svc, transactions, userID
}

func TestCreateDeposit(t *testing.T) {
	svc, transactions, userID := depositFixture(domain.KycStatusApproved)

	deposit, err := svc.CreateDeposit(context.Background(), DepositRequest{
		UserID:    userID,
		AmountBRL: decimal.RequireFromString("525.30"),
	})

	require.NoError(t, err)
	require.Len(t, transactions.created, 1)

	tx := deposit.Transaction
	assert.Equal(t, userID, tx.UserID)
	assert.Equal(t, domain.TransactionStatusAwaitingPayment, tx.Status)
	// final rate: (5.00 + 0.10) * 1.03 = 5.253; 525.30 / 5.253 = 100.00
	assert.True(t, tx.Rate.Equal(decimal.RequireFromString("5.253")), "rate %s", tx.Rate)
	assert.True(t, tx.AmountUSDT.Equal(decimal.RequireFromString("100")), "usdt %s", tx.AmountUSDT)
	assert.Equal(t, "pix@example.com", deposit.PaymentAccount.PixKey)
}

func TestCreateDepositAmountBounds(t *testing.T) {
	tests := []struct {
		name   string
		amount string
	}{
		{name: "zero", amount: "0"},
		{name: "negative", amount: "-10"},
		{name: "below minimum", amount: "49.99"},
		{name: "above maximum", amount: "50000.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, transactions, userID := depositFixture(domain.KycStatusApproved)

			_, err := svc.CreateDeposit(context.Background(), DepositRequest{
				UserID:    userID,
				AmountBRL: decimal.RequireFromString(tt.amount),
			})

			require.ErrorIs(t, err, domain.ErrInvalidAmount)
			assert.Empty(t, transactions.created)
		})
	}
}

func TestCreateDepositRequiresApprovedKyc(t *testing.T) {
	for _, status := range []domain.KycStatus{domain.KycStatusPending, domain.KycStatusInReview, domain.KycStatusRejected} {
		t.Run(string(status), func(t *testing.T) {
			svc, transactions, userID := depositFixture(status)

			_, err := svc.CreateDeposit(context.Background(), DepositRequest{
				UserID:    userID,
				AmountBRL: decimal.RequireFromString("100"),
			})

			require.ErrorIs(t, err, domain.ErrKycRequired)
			assert.Empty(t, transactions.created)
		})
	}
}

func TestCreateDepositNoActiveAccount(t *testing.T) {
	svc, _, userID := depositFixture(domain.KycStatusApproved)
	svc.accounts = &fakeAccountRepo{}

	_, err := svc.CreateDeposit(context.Background(), DepositRequest{
		UserID:    userID,
		AmountBRL: decimal.RequireFromString("100"),
	})

	require.ErrorIs(t, err, domain.ErrNoPaymentAccount)
}

func TestCreateDepositRateUnavailable(t *testing.T) {
	svc, transactions, userID := depositFixture(domain.KycStatusApproved)
	svc.quoter = &fixedQuoter{err: domain.ErrRateUnavailable}

	_, err := svc.CreateDeposit(context.Background(), DepositRequest{
		UserID:    userID,
		AmountBRL: decimal.RequireFromString("100"),
	})

	require.ErrorIs(t, err, domain.ErrRateUnavailable)
	assert.Empty(t, transactions.created)
}

func TestConfirmPaid(t *testing.T) {
	svc, transactions, userID := depositFixture(domain.KycStatusApproved)
	txID := uuid.New()
	transactions.byID[txID] = &domain.Transaction{ID: txID, UserID: userID, Status: domain.TransactionStatusAwaitingPayment}

	require.NoError(t, svc.ConfirmPaid(context.Background(), userID, txID))

	require.Len(t, transactions.updates, 1)
	assert.Equal(t, domain.TransactionStatusPaid, transactions.updates[0].status)
	assert.Nil(t, transactions.updates[0].completedAt)
}

func TestConfirmPaidForeignTransaction(t *testing.T) {
	svc, transactions, userID := depositFixture(domain.KycStatusApproved)
	txID := uuid.New()
	transactions.byID[txID] = &domain.Transaction{ID: txID, UserID: uuid.New()}

	err := svc.ConfirmPaid(context.Background(), userID, txID)

	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, transactions.updates)
}

func TestSetStatus(t *testing.T) {
	svc, transactions, _ := depositFixture(domain.KycStatusApproved)
	txID := uuid.New()

	require.NoError(t, svc.SetStatus(context.Background(), txID, domain.TransactionStatusCompleted))

	require.Len(t, transactions.updates, 1)
	assert.Equal(t, domain.TransactionStatusCompleted, transactions.updates[0].status)
	assert.NotNil(t, transactions.updates[0].completedAt)
}

func TestSetStatusInvalid(t *testing.T) {
	svc, transactions, _ := depositFixture(domain.KycStatusApproved)

	err := svc.SetStatus(context.Background(), uuid.New(), domain.TransactionStatus("refunded"))

	require.ErrorIs(t, err, domain.ErrInvalidStatus)
	assert.Empty(t, transactions.updates)
}
