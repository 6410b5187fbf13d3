package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cambiopix/backend/internal/domain"
	"github.com/cambiopix/backend/internal/logging"
)

type verificationStarter interface {
	StartVerification(ctx context.Context, userID uuid.UUID, document, name string) (*VerificationSession, error)
}

type kycProfileRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
}

type kycVerificationRepo interface {
	Create(ctx context.Context, v *domain.KycVerification) error
	GetLatestByUser(ctx context.Context, userID uuid.UUID) (*domain.KycVerification, error)
}

// KycService starts verification sessions at the vendor and answers status
// queries. Outcomes arrive separately through the webhook reconciler.
type KycService struct {
	provider      verificationStarter
	profiles      kycProfileRepo
	verifications kycVerificationRepo
}

func NewKycService(provider verificationStarter, profiles kycProfileRepo, verifications kycVerificationRepo) *KycService {
	return &KycService{provider: provider, profiles: profiles, verifications: verifications}
}

func (s *KycService) StartVerification(ctx context.Context, userID uuid.UUID) (*VerificationSession, error) {
	log := logging.FromContext(ctx)

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("StartVerification: %w", err)
	}

	session, err := s.provider.StartVerification(ctx, profile.ID, profile.Document, profile.Name)
	if err != nil {
		return nil, fmt.Errorf("StartVerification: %w", err)
	}

	now := time.Now().UTC()
	ref := session.ProviderRef
	err = s.verifications.Create(ctx, &domain.KycVerification{
		ID:          uuid.New(),
		UserID:      profile.ID,
		Status:      domain.KycStatusPending,
		ProviderRef: &ref,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("StartVerification: record session: %w", err)
	}

	log.Info("kyc verification session opened",
		"user_id", profile.ID,
		"provider_ref", session.ProviderRef,
	)

	return session, nil
}

type KycStatusView struct {
	Status             domain.KycStatus
	CompletedAt        *time.Time
	LatestVerification *domain.KycVerification
}

func (s *KycService) Status(ctx context.Context, userID uuid.UUID) (*KycStatusView, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Status: %w", err)
	}

	view := &KycStatusView{
		Status:      profile.KycStatus,
		CompletedAt: profile.KycCompletedAt,
	}

	latest, err := s.verifications.GetLatestByUser(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("Status: %w", err)
	}
	if err == nil {
		view.LatestVerification = latest
	}

	return view, nil
}
