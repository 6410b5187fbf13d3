package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cambiopix/backend/internal/auth"
	"github.com/cambiopix/backend/internal/cpf"
	"github.com/cambiopix/backend/internal/domain"
	"github.com/cambiopix/backend/internal/logging"
)

type profileStore interface {
	Create(ctx context.Context, p *domain.Profile) error
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
}

type AuthHandler struct {
	profiles  profileStore
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthHandler(profiles profileStore, jwtSecret string, jwtExpiry time.Duration) *AuthHandler {
	return &AuthHandler{
		profiles:  profiles,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Document string `json:"document"`
}

func (r registerRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		errs = append(errs, FieldError{Field: "email", Message: "must be a valid email"})
	}
	if len(r.Password) < 8 {
		errs = append(errs, FieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if r.Document == "" {
		errs = append(errs, FieldError{Field: "document", Message: "required"})
	}
	return errs
}

type profileDTO struct {
	ID        uuid.UUID        `json:"id"`
	Email     string           `json:"email"`
	Name      string           `json:"name"`
	KycStatus domain.KycStatus `json:"kyc_status"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	if !cpf.IsValid(req.Document) {
		RespondAppError(w, ErrInvalidCPF, nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to hash password", "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	profile := &domain.Profile{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         req.Name,
		PasswordHash: string(hash),
		Document:     cpf.Normalize(req.Document),
		Role:         domain.RoleUser,
		KycStatus:    domain.KycStatusPending,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.profiles.Create(r.Context(), profile); err != nil {
		if errors.Is(err, domain.ErrProfileExists) {
			RespondAppError(w, ErrProfileExists, nil)
			return
		}
		log.Error("failed to create profile", "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	log.Info("profile registered", "user_id", profile.ID)

	RespondSuccess(w, http.StatusCreated, profileDTO{
		ID:        profile.ID,
		Email:     profile.Email,
		Name:      profile.Name,
		KycStatus: profile.KycStatus,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "required"})
	}
	return errs
}

type loginResponse struct {
	Token string     `json:"token"`
	User  profileDTO `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	profile, err := h.profiles.GetByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			RespondAppError(w, ErrInvalidCredentials, nil)
			return
		}
		RespondDomainError(w, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		RespondAppError(w, ErrInvalidCredentials, nil)
		return
	}

	token, err := auth.GenerateToken(profile.ID, profile.Email, profile.Role, h.jwtSecret, h.jwtExpiry)
	if err != nil {
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, loginResponse{
		Token: token,
		User: profileDTO{
			ID:        profile.ID,
			Email:     profile.Email,
			Name:      profile.Name,
			KycStatus: profile.KycStatus,
		},
	})
}
