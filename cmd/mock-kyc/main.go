package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/cambiopix/backend/internal/logging"
)

// Stands in for the KYC vendor during local development. Issues
// verification sessions and, after a short delay, posts an approved
// callback to the API webhook. Also serves a static ticker payload so
// the quoter can run offline.
func main() {
	logging.Init("mock-kyc", "info", os.Getenv("APP_ENV"))

	callbackURL := envOr("CALLBACK_URL", "http://localhost:8080/api/v1/webhooks/kyc")
	secret := os.Getenv("KYC_WEBHOOK_SECRET")
	addr := envOr("ADDR", ":8081")

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
			slog.Error("failed to write health response", "error", err)
		}
	})

	mux.HandleFunc("POST /verifications", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID   string `json:"user_id"`
			Document string `json:"document"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		verificationID := uuid.NewString()
		slog.Info("verification session created", "verification_id", verificationID, "user_id", req.UserID)

		go func() {
			time.Sleep(5 * time.Second)
			sendCallback(callbackURL, secret, verificationID, req.UserID)
		}()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{
			"verification_id": verificationID,
			"iframe_url":      "https://verify.mock-kyc.local/session/" + verificationID,
		}); err != nil {
			slog.Error("failed to write session response", "error", err)
		}
	})

	mux.HandleFunc("GET /api/v2/spot/market/tickers", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"lastPr": "5.43"}},
		}); err != nil {
			slog.Error("failed to write ticker response", "error", err)
		}
	})

	slog.Info("mock kyc provider started", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func sendCallback(url, secret, verificationID, userID string) {
	payload := map[string]any{
		"verification_id": verificationID,
		"user_id":         userID,
		"status":          "aprovado",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal callback", "error", err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		slog.Error("failed to build callback request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Error("callback delivery failed", "error", err)
		return
	}
	defer resp.Body.Close()
	slog.Info("callback delivered", "verification_id", verificationID, "status_code", resp.StatusCode)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
