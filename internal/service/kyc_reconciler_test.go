package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cambiopix/backend/internal/domain"
)

type fakeVerificationRepo struct {
	rows []*domain.KycVerification

	// createErrs is consumed one per Create call; nil entries succeed.
	createErrs []error
	// conflictRow is appended when Create fails with ErrDuplicateVerification,
	// standing in for the row a concurrent delivery inserted.
	conflictRow *domain.KycVerification

	updateCalls int
}

func (f *fakeVerificationRepo) Create(_ context.Context, v *domain.KycVerification) error {
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			if errors.Is(err, domain.ErrDuplicateVerification) && f.conflictRow != nil {
				f.rows = append(f.rows, f.conflictRow)
			}
			return err
		}
	}
	row := *v
	f.rows = append(f.rows, &row)
	return nil
}

func (f *fakeVerificationRepo) GetLatestByProviderRef(_ context.Context, providerRef string) (*domain.KycVerification, error) {
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].ProviderRef != nil && *f.rows[i].ProviderRef == providerRef {
			return f.rows[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeVerificationRepo) GetLatestByUserAndProviderRef(_ context.Context, userID uuid.UUID, providerRef string) (*domain.KycVerification, error) {
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].UserID == userID && f.rows[i].ProviderRef != nil && *f.rows[i].ProviderRef == providerRef {
			return f.rows[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeVerificationRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.KycStatus, verifiedAt *time.Time) error {
	f.updateCalls++
	for _, row := range f.rows {
		if row.ID == id {
			row.Status = status
			if verifiedAt != nil {
				row.VerifiedAt = verifiedAt
			}
			row.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return domain.ErrNotFound
}

type profileSync struct {
	id          uuid.UUID
	status      domain.KycStatus
	completedAt *time.Time
}

type fakeProfileRepo struct {
	byDocument map[string]*domain.Profile
	syncErr    error
	syncs      []profileSync
}

func (f *fakeProfileRepo) GetByDocument(_ context.Context, document string) (*domain.Profile, error) {
	if p, ok := f.byDocument[document]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProfileRepo) UpdateKycStatus(_ context.Context, id uuid.UUID, status domain.KycStatus, completedAt *time.Time) error {
	f.syncs = append(f.syncs, profileSync{id: id, status: status, completedAt: completedAt})
	return f.syncErr
}

func newReconcilerFixture() (*KycReconciler, *fakeVerificationRepo, *fakeProfileRepo) {
	verifications := &fakeVerificationRepo{}
	profiles := &fakeProfileRepo{byDocument: map[string]*domain.Profile{}}
	return NewKycReconciler(verifications, profiles), verifications, profiles
}

func TestReconcileStatusNormalization(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name string
		raw  string
		want domain.KycStatus
	}{
		{name: "portuguese approved uppercased", raw: "APROVADO", want: domain.KycStatusApproved},
		{name: "success with whitespace", raw: "  success  ", want: domain.KycStatusApproved},
		{name: "ok", raw: "ok", want: domain.KycStatusApproved},
		{name: "portuguese rejected", raw: "reprovado", want: domain.KycStatusRejected},
		{name: "failed", raw: "failed", want: domain.KycStatusRejected},
		{name: "portuguese in review", raw: "em_analise", want: domain.KycStatusInReview},
		{name: "pending", raw: "pendente", want: domain.KycStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reconciler, verifications, _ := newReconcilerFixture()

			result, err := reconciler.Reconcile(context.Background(), map[string]any{
				"user_id": userID.String(),
				"status":  tt.raw,
			})

			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Status)
			require.Len(t, verifications.rows, 1)
			assert.Equal(t, tt.want, verifications.rows[0].Status)
		})
	}
}

func TestReconcileUnknownStatusRejected(t *testing.T) {
	reconciler, verifications, profiles := newReconcilerFixture()

	_, err := reconciler.Reconcile(context.Background(), map[string]any{
		"user_id": uuid.NewString(),
		"status":  "maybe_later",
	})

	require.ErrorIs(t, err, domain.ErrInvalidPayload)
	assert.Empty(t, verifications.rows)
	assert.Empty(t, profiles.syncs)
}

func TestReconcileMissingStatus(t *testing.T) {
	reconciler, verifications, _ := newReconcilerFixture()

	_, err := reconciler.Reconcile(context.Background(), map[string]any{
		"user_id": uuid.NewString(),
	})

	require.ErrorIs(t, err, domain.ErrInvalidPayload)
	assert.Empty(t, verifications.rows)
}

func TestReconcileStatusFieldPriority(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name    string
		payload map[string]any
		want    domain.KycStatus
	}{
		{
			name: "top level status wins over nested and legacy",
			payload: map[string]any{
				"status":     "approved",
				"event":      map[string]any{"status": "rejected"},
				"kyc_status": "pending",
			},
			want: domain.KycStatusApproved,
		},
		{
			name: "nested event status wins over legacy",
			payload: map[string]any{
				"event":      map[string]any{"status": "rejected"},
				"kyc_status": "pending",
			},
			want: domain.KycStatusRejected,
		},
		{
			name:    "legacy kyc_status used last",
			payload: map[string]any{"kyc_status": "em_analise"},
			want:    domain.KycStatusInReview,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reconciler, _, _ := newReconcilerFixture()
			tt.payload["user_id"] = userID.String()

			result, err := reconciler.Reconcile(context.Background(), tt.payload)

			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Status)
		})
	}
}

func TestReconcileUserResolutionOrder(t *testing.T) {
	explicitID := uuid.New()
	refOwnerID := uuid.New()
	docOwnerID := uuid.New()

	seedRef := func(v *fakeVerificationRepo) {
		ref := "prior-ref"
		v.rows = append(v.rows, &domain.KycVerification{
			ID:          uuid.New(),
			UserID:      refOwnerID,
			Status:      domain.KycStatusPending,
			ProviderRef: &ref,
		})
	}
	seedDoc := func(p *fakeProfileRepo) {
		p.byDocument["52998224725"] = &domain.Profile{ID: docOwnerID, Document: "52998224725"}
	}

	tests := []struct {
		name    string
		payload map[string]any
		want    uuid.UUID
	}{
		{
			name: "explicit user id beats ref and document",
			payload: map[string]any{
				"status":                 "approved",
				"user_id":                explicitID.String(),
				"proteo_verification_id": "prior-ref",
				"document":               "529.982.247-25",
			},
			want: explicitID,
		},
		{
			name: "supabase_user_id alias",
			payload: map[string]any{
				"status":           "approved",
				"supabase_user_id": explicitID.String(),
			},
			want: explicitID,
		},
		{
			name: "nested event user id",
			payload: map[string]any{
				"status": "approved",
				"event":  map[string]any{"user_id": explicitID.String()},
			},
			want: explicitID,
		},
		{
			name: "provider ref resolves through prior audit row",
			payload: map[string]any{
				"status":          "approved",
				"verification_id": "prior-ref",
			},
			want: refOwnerID,
		},
		{
			name: "document digits stripped before lookup",
			payload: map[string]any{
				"status": "approved",
				"cpf":    "529.982.247-25",
			},
			want: docOwnerID,
		},
		{
			name: "malformed user id falls through to document",
			payload: map[string]any{
				"status":   "approved",
				"user_id":  "not-a-uuid",
				"document": "52998224725",
			},
			want: docOwnerID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reconciler, verifications, profiles := newReconcilerFixture()
			seedRef(verifications)
			seedDoc(profiles)

			result, err := reconciler.Reconcile(context.Background(), tt.payload)

			require.NoError(t, err)
			assert.Equal(t, tt.want, result.UserID)
		})
	}
}

func TestReconcileUnresolvedUser(t *testing.T) {
	reconciler, verifications, _ := newReconcilerFixture()

	_, err := reconciler.Reconcile(context.Background(), map[string]any{
		"status":   "approved",
		"document": "00000000191",
	})

	require.ErrorIs(t, err, domain.ErrUnresolvedUser)
	assert.Empty(t, verifications.rows)
}

func TestReconcileApprovedSetsVerifiedAt(t *testing.T) {
	reconciler, verifications, profiles := newReconcilerFixture()
	userID := uuid.New()

	_, err := reconciler.Reconcile(context.Background(), map[string]any{
		"user_id":         userID.String(),
		"verification_id": "ref-1",
		"status":          "aprovado",
	})

	require.NoError(t, err)
	require.Len(t, verifications.rows, 1)
	row := verifications.rows[0]
	assert.Equal(t, domain.KycStatusApproved, row.Status)
	require.NotNil(t, row.VerifiedAt)
	assert.WithinDuration(t, time.Now().UTC(), *row.VerifiedAt, 5*time.Second)

	require.Len(t, profiles.syncs, 1)
	assert.Equal(t, userID, profiles.syncs[0].id)
	assert.Equal(t, domain.KycStatusApproved, profiles.syncs[0].status)
	assert.NotNil(t, profiles.syncs[0].completedAt)
}

func TestReconcileRejectedLeavesVerifiedAtNil(t *testing.T) {
	reconciler, verifications, profiles := newReconcilerFixture()

	_, err := reconciler.Reconcile(context.Background(), map[string]any{
		"user_id": uuid.NewString(),
		"status":  "reprovado",
	})

	require.NoError(t, err)
	require.Len(t, verifications.rows, 1)
	assert.Nil(t, verifications.rows[0].VerifiedAt)
	require.Len(t, profiles.syncs, 1)
	assert.Nil(t, profiles.syncs[0].completedAt)
}

func TestReconcileSecondCallbackUpdatesInPlace(t *testing.T) {
	reconciler, verifications, _ := newReconcilerFixture()
	userID := uuid.New()
	payload := func(status string) map[string]any {
		return map[string]any{
			"user_id":         userID.String(),
			"verification_id": "ref-42",
			"status":          status,
		}
	}

	_, err := reconciler.Reconcile(context.Background(), payload("pending"))
	require.NoError(t, err)
	_, err = reconciler.Reconcile(context.Background(), payload("aprovado"))
	require.NoError(t, err)

	require.Len(t, verifications.rows, 1)
	assert.Equal(t, domain.KycStatusApproved, verifications.rows[0].Status)
	assert.NotNil(t, verifications.rows[0].VerifiedAt)
	assert.Equal(t, 1, verifications.updateCalls)
}

func TestReconcileRegressionKeepsVerifiedAt(t *testing.T) {
	reconciler, verifications, _ := newReconcilerFixture()
	userID := uuid.New()
	payload := func(status string) map[string]any {
		return map[string]any{
			"user_id":         userID.String(),
			"verification_id": "ref-7",
			"status":          status,
		}
	}

	_, err := reconciler.Reconcile(context.Background(), payload("approved"))
	require.NoError(t, err)
	_, err = reconciler.Reconcile(context.Background(), payload("rejected"))
	require.NoError(t, err)

	require.Len(t, verifications.rows, 1)
	assert.Equal(t, domain.KycStatusRejected, verifications.rows[0].Status)
	assert.NotNil(t, verifications.rows[0].VerifiedAt)
}

func TestReconcileNoProviderRefAlwaysInserts(t *testing.T) {
	reconciler, verifications, _ := newReconcilerFixture()
	userID := uuid.New()
	payload := map[string]any{
		"user_id": userID.String(),
		"status":  "pending",
	}

	_, err := reconciler.Reconcile(context.Background(), payload)
	require.NoError(t, err)
	_, err = reconciler.Reconcile(context.Background(), payload)
	require.NoError(t, err)

	require.Len(t, verifications.rows, 2)
	assert.Nil(t, verifications.rows[0].ProviderRef)
	assert.Nil(t, verifications.rows[1].ProviderRef)
}

func TestReconcileProfileSyncFailureDoesNotFailRequest(t *testing.T) {
	reconciler, verifications, profiles := newReconcilerFixture()
	profiles.syncErr = errors.New("profiles table unavailable")

	result, err := reconciler.Reconcile(context.Background(), map[string]any{
		"user_id": uuid.NewString(),
		"status":  "approved",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.KycStatusApproved, result.Status)
	assert.Len(t, verifications.rows, 1)
}

func TestReconcileConcurrentInsertFallsBackToUpdate(t *testing.T) {
	reconciler, verifications, _ := newReconcilerFixture()
	userID := uuid.New()
	ref := "ref-racy"
	verifications.createErrs = []error{domain.ErrDuplicateVerification}
	verifications.conflictRow = &domain.KycVerification{
		ID:          uuid.New(),
		UserID:      userID,
		Status:      domain.KycStatusPending,
		ProviderRef: &ref,
	}

	result, err := reconciler.Reconcile(context.Background(), map[string]any{
		"user_id":         userID.String(),
		"verification_id": ref,
		"status":          "approved",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.KycStatusApproved, result.Status)
	require.Len(t, verifications.rows, 1)
	assert.Equal(t, domain.KycStatusApproved, verifications.rows[0].Status)
	assert.Equal(t, 1, verifications.updateCalls)
}

func TestReconcileNumericProviderRef(t *testing.T) {
	reconciler, verifications, _ := newReconcilerFixture()
	userID := uuid.New()

	result, err := reconciler.Reconcile(context.Background(), map[string]any{
		"user_id": userID.String(),
		"id":      float64(987654),
		"status":  "approved",
	})

	require.NoError(t, err)
	assert.Equal(t, "987654", result.ProviderRef)
	require.Len(t, verifications.rows, 1)
	require.NotNil(t, verifications.rows[0].ProviderRef)
	assert.Equal(t, "987654", *verifications.rows[0].ProviderRef)
}
