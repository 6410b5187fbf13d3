package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/cambiopix/backend/internal/auth"
	"github.com/cambiopix/backend/internal/domain"
	"github.com/cambiopix/backend/internal/logging"
	"github.com/cambiopix/backend/internal/service"
)

type kycService interface {
	StartVerification(ctx context.Context, userID uuid.UUID) (*service.VerificationSession, error)
	Status(ctx context.Context, userID uuid.UUID) (*service.KycStatusView, error)
}

type KycHandler struct {
	kyc kycService
}

func NewKycHandler(kyc kycService) *KycHandler {
	return &KycHandler{kyc: kyc}
}

type startVerificationResponse struct {
	ProviderRef string `json:"verification_id"`
	IframeURL   string `json:"iframe_url"`
}

func (h *KycHandler) StartVerification(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	session, err := h.kyc.StartVerification(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to start verification",
			"user_id", userID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, startVerificationResponse{
		ProviderRef: session.ProviderRef,
		IframeURL:   session.IframeURL,
	})
}

type kycStatusResponse struct {
	Status      domain.KycStatus `json:"status"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	ProviderRef *string          `json:"verification_id,omitempty"`
	UpdatedAt   *time.Time       `json:"updated_at,omitempty"`
}

func (h *KycHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	view, err := h.kyc.Status(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to get kyc status",
			"user_id", userID, "error", err)
		RespondDomainError(w, err)
		return
	}

	resp := kycStatusResponse{
		Status:      view.Status,
		CompletedAt: view.CompletedAt,
	}
	if view.LatestVerification != nil {
		resp.ProviderRef = view.LatestVerification.ProviderRef
		resp.UpdatedAt = &view.LatestVerification.UpdatedAt
	}

	RespondSuccess(w, http.StatusOK, resp)
}
