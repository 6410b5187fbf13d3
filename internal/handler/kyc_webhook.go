package handler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cambiopix/backend/internal/domain"
	"github.com/cambiopix/backend/internal/logging"
	"github.com/cambiopix/backend/internal/service"
)

type kycReconciler interface {
	Reconcile(ctx context.Context, payload map[string]any) (*service.ReconcileResult, error)
}

// KycWebhookHandler receives the identity vendor's status callbacks. The
// response body follows the vendor contract ({"success": ..., "error": ...})
// rather than the API envelope; the vendor retries on any non-2xx status.
type KycWebhookHandler struct {
	reconciler kycReconciler
	secret     string
}

func NewKycWebhookHandler(reconciler kycReconciler, secret string) *KycWebhookHandler {
	return &KycWebhookHandler{reconciler: reconciler, secret: secret}
}

type webhookResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (h *KycWebhookHandler) ReceiveCallback(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	if h.secret == "" {
		log.Error("kyc webhook secret not configured")
		respondWebhook(w, http.StatusInternalServerError, "server misconfigured")
		return
	}

	if !h.authorized(r) {
		log.Warn("kyc webhook rejected: bad secret")
		respondWebhook(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		log.Error("failed to read webhook body", "error", err)
		respondWebhook(w, http.StatusBadRequest, "invalid payload")
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Warn("failed to parse webhook payload", "error", err)
		respondWebhook(w, http.StatusBadRequest, "invalid payload")
		return
	}

	result, err := h.reconciler.Reconcile(r.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidPayload):
			log.Warn("kyc webhook rejected: invalid payload", "error", err)
			respondWebhook(w, http.StatusBadRequest, "invalid payload")
		case errors.Is(err, domain.ErrUnresolvedUser):
			log.Warn("kyc webhook rejected: unresolved user", "error", err)
			respondWebhook(w, http.StatusBadRequest, "user not found")
		default:
			// Internal detail stays in the logs; the vendor only needs a
			// retry signal.
			log.Error("kyc webhook processing failed", "error", err)
			respondWebhook(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	log.Info("kyc webhook processed",
		"user_id", result.UserID,
		"status", result.Status,
		"provider_ref", result.ProviderRef,
	)

	respondWebhook(w, http.StatusOK, "")
}

// authorized accepts the shared secret as a bearer token or, for vendors
// that cannot set headers, a ?secret= query parameter.
func (h *KycWebhookHandler) authorized(r *http.Request) bool {
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found || token == "" {
		token = r.URL.Query().Get("secret")
	}
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) == 1
}

func respondWebhook(w http.ResponseWriter, status int, errMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := webhookResponse{Success: errMsg == "", Error: errMsg}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode webhook response", "error", err)
	}
}
