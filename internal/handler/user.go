package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/cambiopix/backend/internal/auth"
	"github.com/cambiopix/backend/internal/domain"
	"github.com/cambiopix/backend/internal/logging"
)

type profileGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
}

type UserHandler struct {
	profiles profileGetter
}

func NewUserHandler(profiles profileGetter) *UserHandler {
	return &UserHandler{profiles: profiles}
}

type userDetailDTO struct {
	ID             uuid.UUID        `json:"id"`
	Email          string           `json:"email"`
	Name           string           `json:"name"`
	KycStatus      domain.KycStatus `json:"kyc_status"`
	KycCompletedAt *time.Time       `json:"kyc_completed_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	profile, err := h.profiles.GetByID(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to get profile", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, userDetailDTO{
		ID:             profile.ID,
		Email:          profile.Email,
		Name:           profile.Name,
		KycStatus:      profile.KycStatus,
		KycCompletedAt: profile.KycCompletedAt,
		CreatedAt:      profile.CreatedAt,
	})
}

// ownerFromPath resolves the {id} path segment and requires it to be the
// authenticated caller; anything else reads as not found.
func ownerFromPath(r *http.Request) (uuid.UUID, *AppError) {
	authUserID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, ErrMissingToken
	}

	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, ErrResourceNotFound
	}

	if userID != authUserID {
		return uuid.Nil, ErrResourceNotFound
	}

	return userID, nil
}
