package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/cambiopix/backend/internal/cpf"
	"github.com/cambiopix/backend/internal/domain"
	"github.com/cambiopix/backend/internal/logging"
)

type reconcilerVerificationRepo interface {
	Create(ctx context.Context, v *domain.KycVerification) error
	GetLatestByProviderRef(ctx context.Context, providerRef string) (*domain.KycVerification, error)
	GetLatestByUserAndProviderRef(ctx context.Context, userID uuid.UUID, providerRef string) (*domain.KycVerification, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.KycStatus, verifiedAt *time.Time) error
}

type reconcilerProfileRepo interface {
	GetByDocument(ctx context.Context, document string) (*domain.Profile, error)
	UpdateKycStatus(ctx context.Context, id uuid.UUID, status domain.KycStatus, completedAt *time.Time) error
}

// KycReconciler converges a user's recorded KYC state with the vendor's
// asynchronous status callbacks. The audit row is the primary effect; the
// profile status sync is best-effort and never fails the request.
type KycReconciler struct {
	verifications reconcilerVerificationRepo
	profiles      reconcilerProfileRepo
}

func NewKycReconciler(verifications reconcilerVerificationRepo, profiles reconcilerProfileRepo) *KycReconciler {
	return &KycReconciler{verifications: verifications, profiles: profiles}
}

type ReconcileResult struct {
	UserID      uuid.UUID
	Status      domain.KycStatus
	ProviderRef string
}

// Reconcile processes one vendor callback, already authenticated by the
// caller. The payload is the vendor's raw JSON object; field locations vary
// between payload versions, so values are pulled from alternative keys in a
// fixed priority order. No database access happens before the status is
// validated.
func (r *KycReconciler) Reconcile(ctx context.Context, payload map[string]any) (*ReconcileResult, error) {
	log := logging.FromContext(ctx)

	rawStatus, ok := extractStatus(payload)
	if !ok {
		return nil, fmt.Errorf("Reconcile: no status field: %w", domain.ErrInvalidPayload)
	}
	status, ok := domain.ParseKycStatus(rawStatus)
	if !ok {
		return nil, fmt.Errorf("Reconcile: unrecognized status %q: %w", rawStatus, domain.ErrInvalidPayload)
	}

	providerRef, hasRef := extractProviderRef(payload)

	userID, err := r.resolveUser(ctx, payload, providerRef, hasRef)
	if err != nil {
		return nil, fmt.Errorf("Reconcile: %w", err)
	}

	now := time.Now().UTC()
	var verifiedAt *time.Time
	if status == domain.KycStatusApproved {
		verifiedAt = &now
	}

	if err := r.upsertVerification(ctx, userID, status, providerRef, hasRef, verifiedAt, now); err != nil {
		return nil, fmt.Errorf("Reconcile: %w", err)
	}

	// Profile sync is deliberately best-effort: the audit row already
	// succeeded, and the vendor must not be told to retry at this point.
	if err := r.profiles.UpdateKycStatus(ctx, userID, status, verifiedAt); err != nil {
		log.Error("profile kyc status sync failed",
			"user_id", userID,
			"status", status,
			"error", err,
		)
	}

	log.Info("kyc callback reconciled",
		"user_id", userID,
		"status", status,
		"provider_ref", providerRef,
	)

	return &ReconcileResult{UserID: userID, Status: status, ProviderRef: providerRef}, nil
}

// resolveUser tries the resolution strategies in fixed order, stopping at the
// first success: explicit user id, prior audit row by provider ref, profile
// by document digits.
func (r *KycReconciler) resolveUser(ctx context.Context, payload map[string]any, providerRef string, hasRef bool) (uuid.UUID, error) {
	if id, ok := extractUserID(payload); ok {
		return id, nil
	}

	if hasRef {
		prior, err := r.verifications.GetLatestByProviderRef(ctx, providerRef)
		if err == nil {
			return prior.UserID, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return uuid.Nil, fmt.Errorf("resolveUser: %w", err)
		}
	}

	if document, ok := extractDocument(payload); ok {
		profile, err := r.profiles.GetByDocument(ctx, document)
		if err == nil {
			return profile.ID, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return uuid.Nil, fmt.Errorf("resolveUser: %w", err)
		}
	}

	return uuid.Nil, domain.ErrUnresolvedUser
}

// upsertVerification updates the most recent audit row for
// (user, providerRef) in place when one exists, otherwise inserts. Callbacks
// without a provider ref always insert; there is nothing to dedup on.
func (r *KycReconciler) upsertVerification(ctx context.Context, userID uuid.UUID, status domain.KycStatus, providerRef string, hasRef bool, verifiedAt *time.Time, now time.Time) error {
	if !hasRef {
		return r.insertVerification(ctx, userID, status, nil, verifiedAt, now)
	}

	existing, err := r.verifications.GetLatestByUserAndProviderRef(ctx, userID, providerRef)
	if err == nil {
		return r.verifications.UpdateStatus(ctx, existing.ID, status, verifiedAt)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("upsertVerification: %w", err)
	}

	err = r.insertVerification(ctx, userID, status, &providerRef, verifiedAt, now)
	if errors.Is(err, domain.ErrDuplicateVerification) {
		// A concurrent delivery inserted the row between our read and write;
		// the unique index turned the race into an update.
		existing, err := r.verifications.GetLatestByUserAndProviderRef(ctx, userID, providerRef)
		if err != nil {
			return fmt.Errorf("upsertVerification: refetch after conflict: %w", err)
		}
		return r.verifications.UpdateStatus(ctx, existing.ID, status, verifiedAt)
	}
	return err
}

func (r *KycReconciler) insertVerification(ctx context.Context, userID uuid.UUID, status domain.KycStatus, providerRef *string, verifiedAt *time.Time, now time.Time) error {
	return r.verifications.Create(ctx, &domain.KycVerification{
		ID:          uuid.New(),
		UserID:      userID,
		Status:      status,
		ProviderRef: providerRef,
		VerifiedAt:  verifiedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// Payload field extraction. The vendor has shipped several payload shapes;
// each value is looked up under its known aliases in priority order.

func extractStatus(payload map[string]any) (string, bool) {
	if s, ok := stringField(payload, "status"); ok {
		return s, true
	}
	if event, ok := payload["event"].(map[string]any); ok {
		if s, ok := stringField(event, "status"); ok {
			return s, true
		}
	}
	return stringField(payload, "kyc_status")
}

func extractUserID(payload map[string]any) (uuid.UUID, bool) {
	candidates := []string{}
	if s, ok := stringField(payload, "user_id"); ok {
		candidates = append(candidates, s)
	}
	if s, ok := stringField(payload, "supabase_user_id"); ok {
		candidates = append(candidates, s)
	}
	if event, ok := payload["event"].(map[string]any); ok {
		if s, ok := stringField(event, "user_id"); ok {
			candidates = append(candidates, s)
		}
	}

	for _, c := range candidates {
		if id, err := uuid.Parse(c); err == nil {
			return id, true
		}
	}
	return uuid.Nil, false
}

func extractProviderRef(payload map[string]any) (string, bool) {
	for _, key := range []string{"proteo_verification_id", "verification_id", "background_check_id", "kyc_id", "id"} {
		if s, ok := stringField(payload, key); ok {
			return s, true
		}
	}
	return "", false
}

func extractDocument(payload map[string]any) (string, bool) {
	for _, key := range []string{"document", "cpf"} {
		if s, ok := stringField(payload, key); ok {
			if digits := cpf.Normalize(s); digits != "" {
				return digits, true
			}
		}
	}
	if event, ok := payload["event"].(map[string]any); ok {
		if s, ok := stringField(event, "document"); ok {
			if digits := cpf.Normalize(s); digits != "" {
				return digits, true
			}
		}
	}
	return "", false
}

// stringField reads a non-empty string value, tolerating numeric ids the
// vendor sometimes sends unquoted.
func stringField(payload map[string]any, key string) (string, bool) {
	switch v := payload[key].(type) {
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}
