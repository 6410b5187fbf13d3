package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/cambiopix/backend/internal/logging"
)

// KycProviderClient opens verification sessions at the identity vendor. The
// vendor renders its own iframe flow and later pushes the outcome to the
// webhook endpoint; nothing here polls for results.
type KycProviderClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewKycProviderClient(baseURL string) *KycProviderClient {
	return &KycProviderClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type VerificationSession struct {
	ProviderRef string
	IframeURL   string
}

type startVerificationPayload struct {
	UserID   string `json:"user_id"`
	Document string `json:"document"`
	Name     string `json:"name"`
}

type startVerificationResponse struct {
	VerificationID string `json:"verification_id"`
	IframeURL      string `json:"iframe_url"`
}

func (c *KycProviderClient) StartVerification(ctx context.Context, userID uuid.UUID, document, name string) (*VerificationSession, error) {
	log := logging.FromContext(ctx)

	body, err := json.Marshal(startVerificationPayload{
		UserID:   userID.String(),
		Document: document,
		Name:     name,
	})
	if err != nil {
		return nil, fmt.Errorf("StartVerification: marshal: %w", err)
	}

	url := c.baseURL + "/verifications"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("StartVerification: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("StartVerification: send: %w", err)
	}
	defer resp.Body.Close()

	log.Info("kyc provider response received",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("StartVerification: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed startVerificationResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("StartVerification: decode: %w", err)
	}
	if parsed.VerificationID == "" {
		return nil, fmt.Errorf("StartVerification: vendor returned no verification id")
	}

	return &VerificationSession{
		ProviderRef: parsed.VerificationID,
		IframeURL:   parsed.IframeURL,
	}, nil
}
